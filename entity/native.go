package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xraph/captable/types"
)

const (
	dateLayout       = "2006-01-02"
	nativeTimeLayout = time.RFC3339
)

// Monetary is an amount in a currency. Amount is kept as the caller's
// decimal string so that encoding never rewrites it.
type Monetary struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// encoder accumulates ledger-native fields for one payload. Only the first
// failure is kept; later calls become no-ops.
type encoder struct {
	kind   Kind
	prefix string
	doc    bson.D
	root   *encoder
	err    error
}

func newEncoder(kind Kind) *encoder {
	e := &encoder{kind: kind, doc: bson.D{}}
	e.root = e
	return e
}

func (e *encoder) path(field string) string { return string(e.kind) + "." + e.prefix + field }

func (e *encoder) fail(field, msg string) {
	if e.root.err == nil {
		e.root.err = types.NewValidationError(string(e.kind), e.path(field), msg)
	}
}

func (e *encoder) child(prefix string) *encoder {
	return &encoder{kind: e.kind, prefix: e.prefix + prefix, doc: bson.D{}, root: e.root}
}

// nested encodes a sub-document under key.
func (e *encoder) nested(field, key string, fn func(*encoder)) {
	sub := e.child(field + ".")
	fn(sub)
	e.set(key, sub.doc)
}

// list encodes n sub-documents under key.
func (e *encoder) list(field, key string, n int, fn func(i int, sub *encoder)) {
	arr := make(bson.A, 0, n)
	for i := 0; i < n; i++ {
		sub := e.child(fmt.Sprintf("%s[%d].", field, i))
		fn(i, sub)
		arr = append(arr, sub.doc)
	}
	e.set(key, arr)
}

func (e *encoder) enums(field, key string, v []string, table enumTable) {
	if v == nil {
		return
	}
	arr := make(bson.A, 0, len(v))
	for i, s := range v {
		native, ok := table.toNative[s]
		if !ok {
			e.fail(fmt.Sprintf("%s[%d]", field, i), fmt.Sprintf("unknown value %q", s))
			return
		}
		arr = append(arr, native)
	}
	e.set(key, arr)
}

func (e *encoder) set(key string, v any) {
	e.doc = append(e.doc, bson.E{Key: key, Value: v})
}

func (e *encoder) id(v string) {
	e.required("id", "id", v)
}

func (e *encoder) required(field, key, v string) {
	if v == "" {
		e.fail(field, "is required")
		return
	}
	e.set(key, v)
}

func (e *encoder) optional(key, v string) {
	if v != "" {
		e.set(key, v)
	}
}

// strings omits a nil list and emits an empty one as [], so decode can tell
// the two apart.
func (e *encoder) strings(key string, v []string) {
	if v == nil {
		return
	}
	arr := make(bson.A, 0, len(v))
	for _, s := range v {
		arr = append(arr, s)
	}
	e.set(key, arr)
}

func (e *encoder) numeric(field, key, v string, required bool) {
	if v == "" {
		if required {
			e.fail(field, "is required")
		}
		return
	}
	if _, err := decimal.NewFromString(v); err != nil {
		e.fail(field, fmt.Sprintf("%q is not a decimal number", v))
		return
	}
	e.set(key, v)
}

func (e *encoder) date(field, key, v string, required bool) {
	if v == "" {
		if required {
			e.fail(field, "is required")
		}
		return
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		e.fail(field, fmt.Sprintf("%q is not a YYYY-MM-DD date", v))
		return
	}
	e.set(key, t.UTC().Format(nativeTimeLayout))
}

func (e *encoder) enum(field, key, v string, table enumTable, required bool) {
	if v == "" {
		if required {
			e.fail(field, "is required")
		}
		return
	}
	native, ok := table.toNative[v]
	if !ok {
		e.fail(field, fmt.Sprintf("unknown value %q", v))
		return
	}
	e.set(key, native)
}

func (e *encoder) monetary(field, key string, m *Monetary, required bool) {
	if m == nil {
		if required {
			e.fail(field, "is required")
		}
		return
	}
	if _, err := decimal.NewFromString(m.Amount); err != nil {
		e.fail(field+".amount", fmt.Sprintf("%q is not a decimal number", m.Amount))
		return
	}
	if m.Currency == "" {
		e.fail(field+".currency", "is required")
		return
	}
	e.set(key, bson.D{{Key: "amount", Value: m.Amount}, {Key: "currency", Value: m.Currency}})
}

func (e *encoder) result() (bson.D, error) {
	if e.root.err != nil {
		return nil, e.root.err
	}
	return e.doc, nil
}

// decoder reads ledger-native fields back into payload fields.
type decoder struct {
	kind   Kind
	prefix string
	fields map[string]any
	root   *decoder
	err    error
}

func newDecoder(kind Kind, args bson.D) *decoder {
	fields := make(map[string]any, len(args))
	for _, e := range args {
		fields[e.Key] = e.Value
	}
	d := &decoder{kind: kind, fields: fields}
	d.root = d
	return d
}

func (d *decoder) fail(field, msg string) {
	if d.root.err == nil {
		d.root.err = types.NewValidationError(string(d.kind), string(d.kind)+"."+d.prefix+field, msg)
	}
}

// nested returns a decoder over the sub-document under key. A missing
// sub-document yields an empty decoder so required fields inside it fail
// with their full path.
func (d *decoder) nested(field, key string) *decoder {
	sub, _ := asDoc(d.fields[key])
	if sub == nil {
		sub = map[string]any{}
	}
	return &decoder{kind: d.kind, prefix: d.prefix + field + ".", fields: sub, root: d.root}
}

// list returns decoders over the sub-documents under key.
func (d *decoder) list(field, key string) []*decoder {
	items := asList(d.fields[key])
	if items == nil {
		return nil
	}
	out := make([]*decoder, 0, len(items))
	for i, item := range items {
		sub, ok := asDoc(item)
		if !ok {
			d.fail(fmt.Sprintf("%s[%d]", field, i), "is not a document")
			continue
		}
		out = append(out, &decoder{kind: d.kind, prefix: fmt.Sprintf("%s%s[%d].", d.prefix, field, i), fields: sub, root: d.root})
	}
	return out
}

func (d *decoder) enums(field, key string, table enumTable) []string {
	raw := d.strings(key)
	if raw == nil {
		return nil
	}
	out := make([]string, 0, len(raw))
	for i, s := range raw {
		v, ok := table.fromNative[s]
		if !ok {
			d.fail(fmt.Sprintf("%s[%d]", field, i), fmt.Sprintf("unknown ledger value %q", s))
			return nil
		}
		out = append(out, v)
	}
	return out
}

func (d *decoder) id() string { return d.required("id", "id") }

func (d *decoder) optional(key string) string {
	s, _ := d.fields[key].(string)
	return s
}

func (d *decoder) required(field, key string) string {
	s := d.optional(key)
	if s == "" {
		d.fail(field, "is required")
	}
	return s
}

// strings returns nil for an absent key and a non-nil slice for a present
// one, even when empty.
func (d *decoder) strings(key string) []string {
	items := asList(d.fields[key])
	if items == nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func (d *decoder) date(field, key string, required bool) string {
	s := d.optional(key)
	if s == "" {
		if required {
			d.fail(field, "is required")
		}
		return ""
	}
	t, err := time.Parse(nativeTimeLayout, s)
	if err != nil {
		d.fail(field, fmt.Sprintf("%q is not a ledger timestamp", s))
		return ""
	}
	return t.UTC().Format(dateLayout)
}

func (d *decoder) enum(field, key string, table enumTable, required bool) string {
	s := d.optional(key)
	if s == "" {
		if required {
			d.fail(field, "is required")
		}
		return ""
	}
	v, ok := table.fromNative[s]
	if !ok {
		d.fail(field, fmt.Sprintf("unknown ledger value %q", s))
		return ""
	}
	return v
}

func (d *decoder) monetary(field, key string, required bool) *Monetary {
	sub, ok := asDoc(d.fields[key])
	if !ok {
		if required {
			d.fail(field, "is required")
		}
		return nil
	}
	amount, _ := sub["amount"].(string)
	currency, _ := sub["currency"].(string)
	return &Monetary{Amount: amount, Currency: currency}
}

func asList(v any) []any {
	switch l := v.(type) {
	case bson.A:
		if l == nil {
			return []any{}
		}
		return l
	case []any:
		if l == nil {
			return []any{}
		}
		return l
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out
	}
	return nil
}

func asDoc(v any) (map[string]any, bool) {
	switch d := v.(type) {
	case bson.D:
		m := make(map[string]any, len(d))
		for _, e := range d {
			m[e.Key] = e.Value
		}
		return m, true
	case bson.M:
		return d, true
	case map[string]any:
		return d, true
	}
	return nil, false
}

// enumTable maps caller-facing enum values to ledger constructor names.
type enumTable struct {
	toNative   map[string]string
	fromNative map[string]string
}

// newEnum derives ledger names as prefix + CamelCase(value), e.g.
// "BOARD_MEMBER" -> "OcfRelBoardMember".
func newEnum(prefix string, values ...string) enumTable {
	t := enumTable{
		toNative:   make(map[string]string, len(values)),
		fromNative: make(map[string]string, len(values)),
	}
	for _, v := range values {
		native := prefix + camel(v)
		t.toNative[v] = native
		t.fromNative[native] = v
	}
	return t
}

func camel(v string) string {
	var b strings.Builder
	for _, part := range strings.FieldsFunc(v, func(r rune) bool { return r == '_' || r == ' ' }) {
		part = strings.ToLower(part)
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}
