// Package entity is the conversion registry between caller-facing entity
// payloads and the ledger-native argument documents of the capitalization
// record.
//
// Each kind owns one codec. Codecs are pure: Encode maps a payload to an
// ordered bson.D, Decode maps it back, and Decode(Encode(x)) == x for every
// valid x without deprecated fields set. Before encoding, the registry
// folds legacy singular fields into their array replacements and reports
// each fallback to the configured DeprecationHandler.
package entity

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xraph/captable/types"
)

// Codec converts one kind's payloads to and from ledger-native arguments.
type Codec interface {
	Encode(p Payload) (bson.D, error)
	Decode(args bson.D) (Payload, error)
	Normalize(p Payload) (Payload, []Deprecation)
}

// DeprecationHandler receives normalization events that used a legacy field.
type DeprecationHandler func(Deprecation)

// Registry is the keyed lookup table from Kind to Codec.
// It is safe for concurrent use.
type Registry struct {
	mu           sync.RWMutex
	codecs       map[Kind]Codec
	onDeprecated DeprecationHandler
	logger       *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for deprecation warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// WithDeprecationHandler sets the side channel for legacy field usage.
func WithDeprecationHandler(h DeprecationHandler) Option {
	return func(r *Registry) { r.onDeprecated = h }
}

// NewRegistry returns a registry preloaded with every built-in kind.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		codecs: make(map[Kind]Codec, len(nativeTags)),
		logger: slog.Default(),
	}
	for kind, c := range builtinCodecs() {
		r.codecs[kind] = c
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds or replaces the codec for kind.
func (r *Registry) Register(kind Kind, c Codec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codecs[kind] = c
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]Kind, 0, len(r.codecs))
	for k := range r.codecs {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// Has reports whether kind is registered.
func (r *Registry) Has(kind Kind) bool {
	_, ok := r.codec(kind)
	return ok
}

func (r *Registry) codec(kind Kind) (Codec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.codecs[kind]
	return c, ok
}

// Encode normalizes deprecated fields and encodes payload.
func (r *Registry) Encode(kind Kind, payload Payload) (bson.D, error) {
	c, ok := r.codec(kind)
	if !ok {
		return nil, unknownKind(kind)
	}
	return c.Encode(r.NormalizeDeprecatedFields(kind, payload))
}

// Decode decodes ledger-native arguments into kind's payload type.
func (r *Registry) Decode(kind Kind, args bson.D) (Payload, error) {
	c, ok := r.codec(kind)
	if !ok {
		return nil, unknownKind(kind)
	}
	return c.Decode(args)
}

// NormalizeDeprecatedFields folds legacy fields of payload into their
// current replacements. It never fails; unknown kinds and foreign payload
// types are returned unchanged.
func (r *Registry) NormalizeDeprecatedFields(kind Kind, payload Payload) Payload {
	c, ok := r.codec(kind)
	if !ok || payload == nil {
		return payload
	}

	out, notices := c.Normalize(payload)
	for _, n := range notices {
		r.logger.Warn("deprecated field used",
			"kind", n.Kind,
			"entity_id", n.EntityID,
			"field", n.Field,
			"replacement", n.Replacement,
		)
		if r.onDeprecated != nil {
			r.onDeprecated(n)
		}
	}
	return out
}

func unknownKind(kind Kind) error {
	return types.NewValidationError(string(kind), "kind", fmt.Sprintf("unknown entity kind %q", kind))
}

// typedCodec adapts per-kind functions over a concrete payload type T.
type typedCodec[T Payload] struct {
	kind      Kind
	encode    func(*encoder, T)
	decode    func(*decoder) T
	normalize func(T) (T, []Deprecation)
}

func (c typedCodec[T]) cast(p Payload) (T, error) {
	if v, ok := p.(T); ok {
		return v, nil
	}
	if v, ok := any(p).(*T); ok && v != nil {
		return *v, nil
	}
	var zero T
	return zero, types.NewValidationError(string(c.kind), "payload",
		fmt.Sprintf("expected %T, got %T", zero, p))
}

func (c typedCodec[T]) Encode(p Payload) (bson.D, error) {
	v, err := c.cast(p)
	if err != nil {
		return nil, err
	}
	e := newEncoder(c.kind)
	c.encode(e, v)
	return e.result()
}

func (c typedCodec[T]) Decode(args bson.D) (Payload, error) {
	d := newDecoder(c.kind, args)
	v := c.decode(d)
	if d.err != nil {
		return nil, d.err
	}
	return v, nil
}

func (c typedCodec[T]) Normalize(p Payload) (Payload, []Deprecation) {
	if c.normalize == nil {
		return p, nil
	}
	v, err := c.cast(p)
	if err != nil {
		return p, nil
	}
	out, notices := c.normalize(v)
	return out, notices
}

func builtinCodecs() map[Kind]Codec {
	return map[Kind]Codec{
		KindStakeholder:                stakeholderCodec,
		KindStockClass:                 stockClassCodec,
		KindStockPlan:                  stockPlanCodec,
		KindVestingTerms:               vestingTermsCodec,
		KindStockLegendTemplate:        stockLegendTemplateCodec,
		KindValuation:                  valuationCodec,
		KindDocument:                   documentCodec,
		KindStockIssuance:              stockIssuanceCodec,
		KindConvertibleIssuance:        convertibleIssuanceCodec,
		KindWarrantIssuance:            warrantIssuanceCodec,
		KindEquityCompensationIssuance: equityCompensationIssuanceCodec,
		KindStockTransfer:              stockTransferCodec,
		KindStockCancellation:          stockCancellationCodec,
	}
}
