// Package sandbox holds the acceptance rules shared by the in-process
// sandbox ledgers. A backend exposes a read-only View of its contracts;
// Compile checks one command against it and returns the Plan of archives
// and creations the backend then applies atomically.
package sandbox

import (
	"context"
	"fmt"

	"github.com/multiformats/go-multihash"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xraph/captable/id"
	"github.com/xraph/captable/ledger"
	"github.com/xraph/captable/types"
)

// Config describes the ledger's templates.
type Config struct {
	AggregateKind string
	Choice        string
	ValueKind     string
	ContextKind   string
	ShardID       string

	// EmbedProofs controls whether creation events carry provenance blobs.
	// Without them, clients fall back to LookupByID.
	EmbedProofs bool
}

// DefaultConfig returns the sandbox defaults.
func DefaultConfig() Config {
	return Config{
		AggregateKind: "CapTable",
		Choice:        "UpdateCapTable",
		ValueKind:     "Amulet",
		ContextKind:   "Context",
		ShardID:       "sandbox",
		EmbedProofs:   true,
	}
}

// Context resource scopes.
const (
	ScopeRequired = "required"
	ScopeOptional = "optional"
)

// Contract is one stored contract.
type Contract struct {
	ID        string `bson:"_id"`
	Kind      string `bson:"kind"`
	Lineage   string `bson:"lineage,omitempty"`
	EntityID  string `bson:"entity_id,omitempty"`
	Key       string `bson:"key,omitempty"`
	Scope     string `bson:"scope,omitempty"`
	Owner     string `bson:"owner,omitempty"`
	Amount    string `bson:"amount,omitempty"`
	Arguments bson.D `bson:"arguments,omitempty"`
	Blob      string `bson:"blob"`
	ShardID   string `bson:"shard_id"`
	Active    bool   `bson:"active"`
}

// Event returns the creation event of c. blob controls whether the
// provenance proof is embedded.
func (c Contract) Event(blob bool) ledger.Event {
	ev := ledger.Event{
		Type:       ledger.EventCreated,
		ContractID: c.ID,
		Kind:       c.Kind,
		EntityID:   c.EntityID,
		Arguments:  c.Arguments,
	}
	if blob {
		ev.ProvenanceBlob = c.Blob
		ev.ShardID = c.ShardID
	}
	return ev
}

// ValueResource converts a value contract.
func (c Contract) ValueResource() types.ValueResource {
	amount, _ := decimal.NewFromString(c.Amount)
	return types.ValueResource{
		ID:              c.ID,
		Kind:            c.Kind,
		Owner:           c.Owner,
		EffectiveAmount: amount,
		ShardID:         c.ShardID,
		ProvenanceBlob:  c.Blob,
	}
}

// Resource converts a context contract.
func (c Contract) Resource() types.Resource {
	args := make(map[string]any, len(c.Arguments))
	for _, e := range c.Arguments {
		args[e.Key] = e.Value
	}
	return types.Resource{
		ContractRef: types.ContractRef{
			ContractID: c.ID,
			Kind:       c.Kind,
			Disclosure: types.Disclosure{
				ResourceKind:   c.Kind,
				ResourceID:     c.ID,
				ProvenanceBlob: c.Blob,
				ShardID:        c.ShardID,
			},
		},
		Arguments: args,
	}
}

// Ref returns the handle of c.
func (c Contract) Ref() types.ContractRef {
	return c.Resource().ContractRef
}

// NewContract returns an active contract with a fresh id and proof.
func NewContract(cfg Config, kind string) Contract {
	cid := id.NewContractID().String()
	return Contract{
		ID:      cid,
		Kind:    kind,
		Blob:    Blob(cid),
		ShardID: cfg.ShardID,
		Active:  true,
	}
}

// Blob derives a provenance blob for contractID.
func Blob(contractID string) string {
	sum, err := multihash.Sum([]byte(contractID), multihash.SHA2_256, -1)
	if err != nil {
		return contractID
	}
	return sum.B58String()
}

// View is read access to a backend's contracts.
type View interface {
	Contract(ctx context.Context, contractID string) (*Contract, bool, error)
	// ActiveEntity returns the active entity contract for tag and entityID
	// in the aggregate lineage.
	ActiveEntity(ctx context.Context, lineage, tag, entityID string) (*Contract, bool, error)
	CommandSeen(ctx context.Context, commandID string) (bool, error)
}

// Plan is the effect of one accepted command.
type Plan struct {
	CommandID string
	Archive   []string
	Create    []Contract
	Result    *ledger.ExecutionResult
}

// Compile checks cmd against view and returns its effect. It reads only;
// nothing is changed until the backend applies the plan.
func Compile(ctx context.Context, cfg Config, view View, cmd *ledger.Command) (*Plan, error) {
	if cmd == nil || cmd.CommandID == "" {
		return nil, fmt.Errorf("%w: command has no id", ledger.ErrMalformed)
	}
	seen, err := view.CommandSeen(ctx, cmd.CommandID)
	if err != nil {
		return nil, err
	}
	if seen {
		return nil, fmt.Errorf("%w: %s", ledger.ErrDuplicateCommand, cmd.CommandID)
	}

	target, ok, err := view.Contract(ctx, cmd.Target.ContractID)
	switch {
	case err != nil:
		return nil, err
	case !ok:
		return nil, fmt.Errorf("%w: %s", ledger.ErrUnknownContract, cmd.Target.ContractID)
	case !target.Active:
		return nil, &types.ConflictError{ContractID: target.ID}
	case target.Kind != cfg.AggregateKind:
		return nil, fmt.Errorf("%w: %s is a %s, not a %s", ledger.ErrRejected, target.ID, target.Kind, cfg.AggregateKind)
	case cmd.Choice != cfg.Choice:
		return nil, fmt.Errorf("%w: unknown choice %q", ledger.ErrRejected, cmd.Choice)
	}

	for _, d := range cmd.Disclosures {
		if !d.Valid() || d.ResourceID == "" {
			return nil, fmt.Errorf("%w: malformed disclosure for %q", ledger.ErrRejected, d.ResourceID)
		}
	}

	update, err := ledger.ParseUpdate(cmd.Argument)
	if err != nil {
		return nil, err
	}

	p := &planner{ctx: ctx, cfg: cfg, view: view, lineage: target.Lineage, staged: map[string]*Contract{}}
	p.archive(target)

	for _, m := range update.Mutations {
		if err := p.mutate(m); err != nil {
			return nil, err
		}
	}
	if update.Payment != nil {
		if err := p.pay(*update.Payment); err != nil {
			return nil, err
		}
	}

	successor := NewContract(cfg, cfg.AggregateKind)
	successor.Lineage = target.Lineage
	successor.Arguments = target.Arguments
	p.create(successor)

	return &Plan{
		CommandID: cmd.CommandID,
		Archive:   p.archived,
		Create:    p.created,
		Result: &ledger.ExecutionResult{
			TransactionID: id.NewTransactionID().String(),
			CommandID:     cmd.CommandID,
			Events:        p.events,
		},
	}, nil
}

type planner struct {
	ctx     context.Context
	cfg     Config
	view    View
	lineage string

	// staged holds entity state changed earlier in the same command; a nil
	// entry marks an archived entity.
	staged   map[string]*Contract
	consumed map[string]bool

	archived []string
	created  []Contract
	events   []ledger.Event
}

func (p *planner) archive(c *Contract) {
	p.archived = append(p.archived, c.ID)
	p.events = append(p.events, ledger.Event{
		Type:       ledger.EventArchived,
		ContractID: c.ID,
		Kind:       c.Kind,
		EntityID:   c.EntityID,
	})
}

func (p *planner) create(c Contract) {
	p.created = append(p.created, c)
	p.events = append(p.events, c.Event(p.cfg.EmbedProofs))
}

func (p *planner) current(tag, entityID string) (*Contract, error) {
	if c, ok := p.staged[tag+"/"+entityID]; ok {
		return c, nil
	}
	c, ok, err := p.view.ActiveEntity(p.ctx, p.lineage, tag, entityID)
	if err != nil || !ok {
		return nil, err
	}
	return c, nil
}

func (p *planner) mutate(m ledger.Mutation) error {
	cur, err := p.current(m.Tag, m.EntityID)
	if err != nil {
		return err
	}
	key := m.Tag + "/" + m.EntityID

	switch m.Action {
	case ledger.ActionCreate:
		if cur != nil {
			return fmt.Errorf("%w: %s %q already exists", ledger.ErrRejected, m.Tag, m.EntityID)
		}
	case ledger.ActionEdit, ledger.ActionDelete:
		if cur == nil {
			return fmt.Errorf("%w: %s %q does not exist", ledger.ErrRejected, m.Tag, m.EntityID)
		}
		p.archive(cur)
		p.staged[key] = nil
		if m.Action == ledger.ActionDelete {
			return nil
		}
	}

	c := NewContract(p.cfg, m.Tag)
	c.Lineage = p.lineage
	c.EntityID = m.EntityID
	c.Arguments = m.Args
	p.create(c)
	p.staged[key] = &c
	return nil
}

func (p *planner) pay(pay ledger.Payment) error {
	for _, ref := range []string{pay.PricingRules, pay.PricingRound, pay.FeeShare} {
		if ref == "" {
			continue
		}
		c, ok, err := p.view.Contract(p.ctx, ref)
		if err != nil {
			return err
		}
		if !ok || !c.Active {
			return fmt.Errorf("%w: context resource %s", ledger.ErrUnknownContract, ref)
		}
	}
	if pay.Payer == "" {
		return nil
	}

	amount, err := decimal.NewFromString(pay.Amount)
	if err != nil {
		return fmt.Errorf("%w: payment amount %q", ledger.ErrMalformed, pay.Amount)
	}

	if p.consumed == nil {
		p.consumed = map[string]bool{}
	}
	sum := decimal.Zero
	for _, in := range pay.Inputs {
		c, ok, err := p.view.Contract(p.ctx, in)
		switch {
		case err != nil:
			return err
		case !ok:
			return fmt.Errorf("%w: value resource %s", ledger.ErrUnknownContract, in)
		case !c.Active || p.consumed[in]:
			return &types.ConflictError{ContractID: in}
		case c.Kind != p.cfg.ValueKind || c.Owner != pay.Payer:
			return fmt.Errorf("%w: %s is not spendable by %s", ledger.ErrRejected, in, pay.Payer)
		}
		p.consumed[in] = true
		p.archive(c)
		sum = sum.Add(c.ValueResource().EffectiveAmount)
	}

	if sum.LessThan(amount) {
		return fmt.Errorf("%w: inputs cover %s of %s", ledger.ErrRejected, sum, amount)
	}
	if change := sum.Sub(amount); change.IsPositive() {
		c := NewContract(p.cfg, p.cfg.ValueKind)
		c.Owner = pay.Payer
		c.Amount = change.String()
		p.create(c)
	}
	return nil
}
