package entity

// Deprecation records one normalization that fell back to a legacy field.
type Deprecation struct {
	Kind        Kind
	EntityID    string
	Field       string
	Replacement string
}

// NormalizeSingular resolves a legacy singular field against its current
// array replacement. A non-empty array wins; otherwise a non-empty singular
// value is wrapped; otherwise the result is an empty, non-nil slice. usedLegacy reports whether
// the singular value was the source.
func NormalizeSingular(singular string, array []string) (out []string, usedLegacy bool) {
	if len(array) > 0 {
		return array, false
	}
	if singular != "" {
		return []string{singular}, true
	}
	return []string{}, false
}
