// Package memory is an in-process sandbox ledger. It enforces the same
// acceptance rules as a real ledger: every command is atomic, targets an
// exact aggregate version and consumes the value resources it spends.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xraph/captable/ledger"
	"github.com/xraph/captable/ledger/sandbox"
	"github.com/xraph/captable/types"
)

// Compile-time interface check.
var _ ledger.Client = (*Ledger)(nil)

// Ledger is a sandbox ledger kept in memory.
type Ledger struct {
	mu     sync.RWMutex
	cfg    sandbox.Config
	logger *slog.Logger

	contracts map[string]*sandbox.Contract
	// entities indexes active entity contracts by lineage, tag and entity id.
	entities map[string]string
	context  map[string]string
	optional map[string]string
	commands map[string]struct{}
	results  []*ledger.ExecutionResult
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// WithConfig replaces the template configuration.
func WithConfig(cfg sandbox.Config) Option {
	return func(l *Ledger) { l.cfg = cfg }
}

// WithoutEmbeddedProofs makes creation events omit provenance blobs, so
// clients must look them up by id.
func WithoutEmbeddedProofs() Option {
	return func(l *Ledger) { l.cfg.EmbedProofs = false }
}

// New returns an empty sandbox ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		cfg:       sandbox.DefaultConfig(),
		logger:    slog.Default(),
		contracts: make(map[string]*sandbox.Contract),
		entities:  make(map[string]string),
		context:   make(map[string]string),
		optional:  make(map[string]string),
		commands:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func entityKey(lineage, tag, entityID string) string {
	return lineage + "/" + tag + "/" + entityID
}

// ──────────────────────────────────────────────────
// Seeding
// ──────────────────────────────────────────────────

// CreateAggregate creates the genesis version of a capitalization record.
func (l *Ledger) CreateAggregate(_ context.Context, args bson.D) (types.ContractRef, error) {
	c := sandbox.NewContract(l.cfg, l.cfg.AggregateKind)
	c.Lineage = c.ID
	c.Arguments = args

	l.mu.Lock()
	defer l.mu.Unlock()
	l.contracts[c.ID] = &c
	return c.Ref(), nil
}

// Fund creates a value resource of amount owned by owner.
func (l *Ledger) Fund(_ context.Context, owner string, amount decimal.Decimal) (types.ValueResource, error) {
	if owner == "" || !amount.IsPositive() {
		return types.ValueResource{}, fmt.Errorf("%w: fund %q with %s", ledger.ErrRejected, owner, amount)
	}
	c := sandbox.NewContract(l.cfg, l.cfg.ValueKind)
	c.Owner = owner
	c.Amount = amount.String()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.contracts[c.ID] = &c
	return c.ValueResource(), nil
}

// PutContextResource registers a required context resource under key.
// When disclose is false the resource is served with an empty proof, as
// for contracts visible to every party.
func (l *Ledger) PutContextResource(_ context.Context, key string, args bson.D, disclose bool) (types.Resource, error) {
	return l.putResource(l.context, sandbox.ScopeRequired, key, args, disclose), nil
}

// PutOptionalResource registers a best-effort context resource under key.
func (l *Ledger) PutOptionalResource(_ context.Context, key string, args bson.D, disclose bool) (types.Resource, error) {
	return l.putResource(l.optional, sandbox.ScopeOptional, key, args, disclose), nil
}

func (l *Ledger) putResource(index map[string]string, scope, key string, args bson.D, disclose bool) types.Resource {
	c := sandbox.NewContract(l.cfg, l.cfg.ContextKind)
	c.Key = key
	c.Scope = scope
	c.Arguments = args
	if !disclose {
		c.Blob = ""
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if prev, ok := l.contracts[index[key]]; ok {
		prev.Active = false
	}
	l.contracts[c.ID] = &c
	index[key] = c.ID
	return c.Resource()
}

// ──────────────────────────────────────────────────
// ledger.Client
// ──────────────────────────────────────────────────

// Submit implements ledger.Client.
func (l *Ledger) Submit(ctx context.Context, cmd *ledger.Command) (*ledger.ExecutionResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	plan, err := sandbox.Compile(ctx, l.cfg, view{l}, cmd)
	if err != nil {
		l.logger.Debug("sandbox rejected command", "error", err)
		return nil, err
	}

	for i := range plan.Create {
		c := plan.Create[i]
		l.contracts[c.ID] = &c
		if c.EntityID != "" {
			l.entities[entityKey(c.Lineage, c.Kind, c.EntityID)] = c.ID
		}
	}
	for _, cid := range plan.Archive {
		c := l.contracts[cid]
		c.Active = false
		if c.EntityID != "" {
			key := entityKey(c.Lineage, c.Kind, c.EntityID)
			if l.entities[key] == cid {
				delete(l.entities, key)
			}
		}
	}
	l.commands[plan.CommandID] = struct{}{}
	l.results = append(l.results, plan.Result)

	return plan.Result, nil
}

// LookupByID implements ledger.Client. Archived contracts are still found.
func (l *Ledger) LookupByID(_ context.Context, contractID string) (*ledger.Event, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	c, ok := l.contracts[contractID]
	if !ok {
		return nil, false, nil
	}
	ev := c.Event(true)
	return &ev, true, nil
}

// ListValueResources implements ledger.Client. Resources are listed in
// id order.
func (l *Ledger) ListValueResources(_ context.Context, principal string) ([]types.ValueResource, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []types.ValueResource
	for _, c := range l.contracts {
		if c.Active && c.Kind == l.cfg.ValueKind && c.Owner == principal {
			out = append(out, c.ValueResource())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// LookupContextResource implements ledger.Client.
func (l *Ledger) LookupContextResource(_ context.Context, key string) (*types.Resource, bool, error) {
	return l.lookup(l.context, key)
}

// LookupOptionalResource implements ledger.Client.
func (l *Ledger) LookupOptionalResource(_ context.Context, key string) (*types.Resource, bool, error) {
	return l.lookup(l.optional, key)
}

func (l *Ledger) lookup(index map[string]string, key string) (*types.Resource, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	c, ok := l.contracts[index[key]]
	if !ok || !c.Active {
		return nil, false, nil
	}
	r := c.Resource()
	return &r, true, nil
}

// Ping implements ledger.Client.
func (l *Ledger) Ping(_ context.Context) error {
	return nil
}

// Close implements ledger.Client.
func (l *Ledger) Close() error {
	return nil
}

// ──────────────────────────────────────────────────
// Inspection
// ──────────────────────────────────────────────────

// Entities returns the active entity contracts in the lineage of ref,
// keyed by "<tag>/<entity id>".
func (l *Ledger) Entities(ref types.ContractRef) map[string]ledger.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[string]ledger.Event)
	c, ok := l.contracts[ref.ContractID]
	if !ok {
		return out
	}
	for _, cid := range l.entities {
		e := l.contracts[cid]
		if e.Lineage == c.Lineage {
			out[e.Kind+"/"+e.EntityID] = e.Event(true)
		}
	}
	return out
}

// Transactions returns the number of accepted commands.
func (l *Ledger) Transactions() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.results)
}

// view reads the ledger under the caller's lock.
type view struct{ l *Ledger }

func (v view) Contract(_ context.Context, contractID string) (*sandbox.Contract, bool, error) {
	c, ok := v.l.contracts[contractID]
	return c, ok, nil
}

func (v view) ActiveEntity(_ context.Context, lineage, tag, entityID string) (*sandbox.Contract, bool, error) {
	cid, ok := v.l.entities[entityKey(lineage, tag, entityID)]
	if !ok {
		return nil, false, nil
	}
	return v.l.contracts[cid], true, nil
}

func (v view) CommandSeen(_ context.Context, commandID string) (bool, error) {
	_, ok := v.l.commands[commandID]
	return ok, nil
}
