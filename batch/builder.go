// Package batch compiles accumulated entity mutations into one atomic
// command against a single aggregate version and submits it.
//
// A Builder is owned by one caller for one compile-and-submit cycle. It is
// not safe for concurrent use and must not be shared between logical
// transactions. Operations are validated as they are added; the only check
// deferred to Execute is that the batch is not empty.
package batch

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/xraph/captable/chain"
	"github.com/xraph/captable/disclosure"
	"github.com/xraph/captable/entity"
	"github.com/xraph/captable/id"
	"github.com/xraph/captable/ledger"
	"github.com/xraph/captable/payment"
	"github.com/xraph/captable/types"
)

// ErrExecuted is returned when a builder is reused after a successful
// Execute. The aggregate version it targeted no longer exists.
var ErrExecuted = errors.New("captable: batch already executed")

// DefaultChoice is the aggregate choice exercised by compiled batches.
const DefaultChoice = "UpdateCapTable"

// DefaultAggregateKind is the ledger template of the aggregate.
const DefaultAggregateKind = "CapTable"

// Observer is notified of batch lifecycle events. Implementations must not
// block; they cannot affect the outcome.
type Observer interface {
	BatchCompiled(ctx context.Context, req *Request)
	BatchSubmitted(ctx context.Context, req *Request, res *Result, elapsed time.Duration)
	BatchFailed(ctx context.Context, req *Request, err error)
}

// Builder accumulates operations against one aggregate version.
type Builder struct {
	id        id.BatchID
	client    ledger.Client
	aggregate types.ContractRef
	registry  *entity.Registry
	tracker   *chain.Tracker
	logger    *slog.Logger
	observer  Observer

	choice        string
	aggregateKind string
	actAs         []string
	commandID     string

	ops      []Operation
	payment  *payment.Result
	extra    []types.Disclosure
	executed bool
}

// Option configures a Builder.
type Option func(*Builder)

// WithRegistry sets the conversion registry. Defaults to a registry with
// every built-in kind.
func WithRegistry(r *entity.Registry) Option {
	return func(b *Builder) { b.registry = r }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) { b.logger = logger }
}

// WithObserver sets the lifecycle observer.
func WithObserver(o Observer) Option {
	return func(b *Builder) { b.observer = o }
}

// WithChoice overrides the aggregate choice name.
func WithChoice(choice string) Option {
	return func(b *Builder) { b.choice = choice }
}

// WithAggregateKind overrides the aggregate template tag used to find the
// successor version.
func WithAggregateKind(kind string) Option {
	return func(b *Builder) { b.aggregateKind = kind }
}

// WithActAs sets the submitting parties.
func WithActAs(parties ...string) Option {
	return func(b *Builder) { b.actAs = parties }
}

// WithCommandID fixes the command id, e.g. to resubmit after a transport
// failure without risking a double apply.
func WithCommandID(commandID string) Option {
	return func(b *Builder) { b.commandID = commandID }
}

// New returns a builder targeting aggregate.
func New(client ledger.Client, aggregate types.ContractRef, opts ...Option) *Builder {
	b := &Builder{
		id:            id.NewBatchID(),
		client:        client,
		aggregate:     aggregate,
		logger:        slog.Default(),
		choice:        DefaultChoice,
		aggregateKind: aggregate.Kind,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.registry == nil {
		b.registry = entity.NewRegistry(entity.WithLogger(b.logger))
	}
	if b.aggregateKind == "" {
		b.aggregateKind = DefaultAggregateKind
	}
	b.tracker = chain.NewTracker(client, b.logger)
	return b
}

// Create appends a create operation. It fails without appending when the
// payload has no id.
func (b *Builder) Create(kind entity.Kind, payload entity.Payload) error {
	return b.Add(Create(kind, payload))
}

// Edit appends an edit operation. The entity must exist on the ledger.
func (b *Builder) Edit(kind entity.Kind, payload entity.Payload) error {
	return b.Add(Edit(kind, payload))
}

// Delete appends a delete operation. The entity must exist on the ledger.
func (b *Builder) Delete(kind entity.Kind, entityID string) error {
	return b.Add(Delete(kind, entityID))
}

// Add validates and appends ops. Either all of them are appended or, on the
// first invalid one, none.
func (b *Builder) Add(ops ...Operation) error {
	for _, op := range ops {
		if err := op.validate(b.registry); err != nil {
			return err
		}
	}
	b.ops = append(b.ops, ops...)
	return nil
}

// AttachPayment includes a resolved payment context in the batch.
func (b *Builder) AttachPayment(res *payment.Result) {
	b.payment = res
}

// Disclose adds proofs for further referenced contracts. Invalid proofs are
// dropped at compile time.
func (b *Builder) Disclose(proofs ...types.Disclosure) {
	b.extra = append(b.extra, proofs...)
}

// Len returns the number of accumulated operations.
func (b *Builder) Len() int { return len(b.ops) }

// Operations returns a copy of the accumulated operations.
func (b *Builder) Operations() []Operation { return slices.Clone(b.ops) }

// ID returns the batch id, stable across compile and submit.
func (b *Builder) ID() id.BatchID { return b.id }

// Aggregate returns the targeted aggregate version.
func (b *Builder) Aggregate() types.ContractRef { return b.aggregate }

// Compile encodes every operation and assembles the command without
// submitting it.
func (b *Builder) Compile() (*Request, error) {
	if b.executed {
		return nil, ErrExecuted
	}
	if len(b.ops) == 0 {
		return nil, &types.EmptyBatchError{AggregateID: b.aggregate.ContractID}
	}

	update := ledger.Update{Mutations: make([]ledger.Mutation, 0, len(b.ops))}
	for _, op := range b.ops {
		m := ledger.Mutation{Action: op.Action, Tag: op.Kind.NativeTag(), EntityID: op.ID}
		if op.Action != ledger.ActionDelete {
			args, err := b.registry.Encode(op.Kind, op.Payload)
			if err != nil {
				return nil, withID(err, op.ID)
			}
			m.Args = args
		}
		update.Mutations = append(update.Mutations, m)
	}

	var paymentProofs []types.Disclosure
	if b.payment != nil {
		p := b.payment.Context.Native()
		update.Payment = &p
		paymentProofs = b.payment.Disclosures
	}

	proofs := disclosure.Assemble(b.aggregate.Disclosure, paymentProofs, b.extra)
	if err := disclosure.Validate(proofs); err != nil {
		return nil, err
	}

	commandID := b.commandID
	if commandID == "" {
		commandID = id.NewCommandID().String()
	}

	return &Request{
		BatchID: b.id.String(),
		Command: ledger.Command{
			CommandID:   commandID,
			ActAs:       slices.Clone(b.actAs),
			Target:      b.aggregate,
			Choice:      b.choice,
			Argument:    update.Native(),
			Disclosures: proofs,
		},
		Operations: slices.Clone(b.ops),
	}, nil
}

// Execute compiles and submits the batch. On success every operation has
// landed and the result is complete; on failure nothing has.
//
// Ledger errors, including *types.ConflictError for a superseded aggregate
// version, are returned as-is. Nothing is retried.
func (b *Builder) Execute(ctx context.Context) (*Result, error) {
	req, err := b.Compile()
	if err != nil {
		return nil, err
	}
	digest, err := req.Digest()
	if err != nil {
		return nil, err
	}
	if b.observer != nil {
		b.observer.BatchCompiled(ctx, req)
	}

	start := time.Now()
	exec, err := b.client.Submit(ctx, &req.Command)
	if err != nil {
		b.logger.Warn("batch rejected",
			"batch_id", req.BatchID,
			"command_id", req.Command.CommandID,
			"aggregate_id", b.aggregate.ContractID,
			"operations", len(req.Operations),
			"error", err,
		)
		b.fail(ctx, req, err)
		return nil, err
	}

	res, err := b.collect(ctx, req, exec)
	if err != nil {
		b.logger.Error("unexpected execution result",
			"batch_id", req.BatchID,
			"command_id", req.Command.CommandID,
			"transaction_id", exec.TransactionID,
			"error", err,
		)
		b.fail(ctx, req, err)
		return nil, err
	}
	res.Digest = digest
	b.executed = true

	elapsed := time.Since(start)
	b.logger.Info("batch submitted",
		"batch_id", req.BatchID,
		"command_id", res.CommandID,
		"transaction_id", res.TransactionID,
		"operations", len(req.Operations),
		"aggregate_id", res.UpdatedAggregateID,
		"digest", digest,
		"elapsed", elapsed,
	)
	if b.observer != nil {
		b.observer.BatchSubmitted(ctx, req, res, elapsed)
	}
	return res, nil
}

func (b *Builder) fail(ctx context.Context, req *Request, err error) {
	if b.observer != nil {
		b.observer.BatchFailed(ctx, req, err)
	}
}

// collect maps the execution result back onto the operations. Creates are
// resolved before edits, matching the order the ledger applies them in.
func (b *Builder) collect(ctx context.Context, req *Request, exec *ledger.ExecutionResult) (*Result, error) {
	aggregate, err := b.tracker.Track(ctx, exec, b.aggregateKind)
	if err != nil {
		return nil, err
	}

	idx := chain.IndexEntities(exec)
	res := &Result{
		UpdatedAggregateID: aggregate.ContractID,
		Aggregate:          aggregate,
		CommandID:          req.Command.CommandID,
		TransactionID:      exec.TransactionID,
	}
	for _, action := range []ledger.Action{ledger.ActionCreate, ledger.ActionEdit} {
		for _, op := range req.Operations {
			if op.Action != action {
				continue
			}
			cid, err := idx.Take(op.Kind.NativeTag(), op.ID)
			if err != nil {
				return nil, err
			}
			if action == ledger.ActionCreate {
				res.CreatedIDs = append(res.CreatedIDs, cid)
			} else {
				res.EditedIDs = append(res.EditedIDs, cid)
			}
		}
	}
	return res, nil
}

// withID stamps the entity id on a validation error from the registry.
func withID(err error, entityID string) error {
	var verr *types.ValidationError
	if errors.As(err, &verr) && verr.ID == "" {
		verr.ID = entityID
	}
	return err
}
