// Package disclosure assembles the provenance proofs a compiled request
// must carry for the contracts it references.
package disclosure

import (
	"fmt"

	"github.com/xraph/captable/types"
)

// Filter drops proofs with an empty provenance blob. Lookups return such
// placeholders for contracts the submitter can already see; the ledger
// rejects them if submitted. Order of retained proofs is preserved.
func Filter(proofs []types.Disclosure) []types.Disclosure {
	out := make([]types.Disclosure, 0, len(proofs))
	for _, p := range proofs {
		if p.Valid() {
			out = append(out, p)
		}
	}
	return out
}

// Assemble returns the deduplicated, valid proof set for a request against
// aggregate, which is listed first when its proof is valid. When two
// candidates name the same resource the first valid one wins.
func Assemble(aggregate types.Disclosure, extra ...[]types.Disclosure) []types.Disclosure {
	seen := make(map[string]struct{})
	out := make([]types.Disclosure, 0, 1+countAll(extra))

	add := func(p types.Disclosure) {
		if !p.Valid() {
			return
		}
		if _, dup := seen[p.ResourceID]; dup {
			return
		}
		seen[p.ResourceID] = struct{}{}
		out = append(out, p)
	}

	add(aggregate)
	for _, group := range extra {
		for _, p := range group {
			add(p)
		}
	}
	return out
}

// Validate checks a proof set right before submission. Assemble never
// produces an invalid set; Validate guards sets built elsewhere.
func Validate(proofs []types.Disclosure) error {
	for i, p := range proofs {
		switch {
		case p.ResourceID == "":
			return &types.ProtocolError{Op: "disclosure", Message: fmt.Sprintf("proof %d has no resource id", i)}
		case !p.Valid():
			return &types.ProtocolError{
				Op:      "disclosure",
				Message: fmt.Sprintf("proof for %q has an empty provenance blob", p.ResourceID),
			}
		}
	}
	return nil
}

func countAll(groups [][]types.Disclosure) int {
	n := 0
	for _, g := range groups {
		n += len(g)
	}
	return n
}
