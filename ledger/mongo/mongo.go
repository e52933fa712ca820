// Package mongo is a MongoDB-backed sandbox ledger. Each submission runs
// in one multi-document transaction, so it needs a replica set.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/captable/ledger"
	"github.com/xraph/captable/ledger/sandbox"
	"github.com/xraph/captable/types"
)

// Collection name constants.
const (
	colContracts = "captable_contracts"
	colCommands  = "captable_commands"
)

// compile-time interface check
var _ ledger.Client = (*Ledger)(nil)

// Ledger implements ledger.Client on a grove-managed MongoDB database.
type Ledger struct {
	db     *grove.DB
	mdb    *mongodriver.MongoDB
	cfg    sandbox.Config
	logger *slog.Logger
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

// New returns a ledger on db, which must be opened with the grove mongo
// driver.
func New(db *grove.DB, opts ...Option) *Ledger {
	l := &Ledger{db: db, mdb: mongodriver.Unwrap(db), cfg: sandbox.DefaultConfig(), logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// DB returns the underlying grove database for direct access.
func (l *Ledger) DB() *grove.DB { return l.db }

func (l *Ledger) contracts() *mongo.Collection { return l.mdb.Collection(colContracts) }

func (l *Ledger) commands() *mongo.Collection { return l.mdb.Collection(colCommands) }

// Migrate creates indexes for the ledger collections.
func (l *Ledger) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}
		if _, err := l.mdb.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("captable/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (l *Ledger) Ping(ctx context.Context) error {
	return l.db.Ping(ctx)
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// ==================== Seeding ====================

// CreateAggregate creates the genesis version of a capitalization record.
func (l *Ledger) CreateAggregate(ctx context.Context, args bson.D) (types.ContractRef, error) {
	c := sandbox.NewContract(l.cfg, l.cfg.AggregateKind)
	c.Lineage = c.ID
	c.Arguments = args
	if _, err := l.contracts().InsertOne(ctx, c); err != nil {
		return types.ContractRef{}, fmt.Errorf("captable/mongo: create aggregate: %w", err)
	}
	return c.Ref(), nil
}

// Fund creates a value resource of amount owned by owner.
func (l *Ledger) Fund(ctx context.Context, owner string, amount decimal.Decimal) (types.ValueResource, error) {
	if owner == "" || !amount.IsPositive() {
		return types.ValueResource{}, fmt.Errorf("%w: fund %q with %s", ledger.ErrRejected, owner, amount)
	}
	c := sandbox.NewContract(l.cfg, l.cfg.ValueKind)
	c.Owner = owner
	c.Amount = amount.String()
	if _, err := l.contracts().InsertOne(ctx, c); err != nil {
		return types.ValueResource{}, fmt.Errorf("captable/mongo: fund: %w", err)
	}
	return c.ValueResource(), nil
}

// PutContextResource registers a required context resource under key,
// archiving the previous one. When disclose is false the resource is served
// with an empty proof.
func (l *Ledger) PutContextResource(ctx context.Context, key string, args bson.D, disclose bool) (types.Resource, error) {
	return l.putResource(ctx, sandbox.ScopeRequired, key, args, disclose)
}

// PutOptionalResource registers a best-effort context resource under key.
func (l *Ledger) PutOptionalResource(ctx context.Context, key string, args bson.D, disclose bool) (types.Resource, error) {
	return l.putResource(ctx, sandbox.ScopeOptional, key, args, disclose)
}

func (l *Ledger) putResource(ctx context.Context, scope, key string, args bson.D, disclose bool) (types.Resource, error) {
	c := sandbox.NewContract(l.cfg, l.cfg.ContextKind)
	c.Key = key
	c.Scope = scope
	c.Arguments = args
	if !disclose {
		c.Blob = ""
	}

	_, err := l.contracts().UpdateMany(ctx,
		bson.M{"kind": l.cfg.ContextKind, "scope": scope, "key": key, "active": true},
		bson.M{"$set": bson.M{"active": false}},
	)
	if err != nil {
		return types.Resource{}, fmt.Errorf("captable/mongo: put context resource: %w", err)
	}
	if _, err := l.contracts().InsertOne(ctx, c); err != nil {
		return types.Resource{}, fmt.Errorf("captable/mongo: put context resource: %w", err)
	}
	return c.Resource(), nil
}

// ==================== ledger.Client ====================

// Submit implements ledger.Client. The command is compiled and applied in
// one transaction; a concurrent writer on the same aggregate makes one of
// the two fail with a conflict.
func (l *Ledger) Submit(ctx context.Context, cmd *ledger.Command) (*ledger.ExecutionResult, error) {
	sess, err := l.contracts().Database().Client().StartSession()
	if err != nil {
		return nil, fmt.Errorf("captable/mongo: start session: %w", err)
	}
	defer sess.EndSession(ctx)

	out, err := sess.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		plan, err := sandbox.Compile(ctx, l.cfg, view{l}, cmd)
		if err != nil {
			return nil, err
		}
		if err := l.apply(ctx, plan); err != nil {
			return nil, err
		}
		return plan.Result, nil
	})
	if err != nil {
		l.logger.Debug("sandbox rejected command", "error", err)
		return nil, err
	}
	return out.(*ledger.ExecutionResult), nil
}

func (l *Ledger) apply(ctx context.Context, plan *sandbox.Plan) error {
	created := make(map[string]int, len(plan.Create))
	for i, c := range plan.Create {
		created[c.ID] = i
	}

	// Archive first so the partial unique index on active entities never
	// sees two live versions.
	for _, cid := range plan.Archive {
		if i, ok := created[cid]; ok {
			plan.Create[i].Active = false
			continue
		}
		res, err := l.contracts().UpdateOne(ctx,
			bson.M{"_id": cid, "active": true},
			bson.M{"$set": bson.M{"active": false}},
		)
		if err != nil {
			return fmt.Errorf("captable/mongo: archive %s: %w", cid, err)
		}
		if res.MatchedCount == 0 {
			return &types.ConflictError{ContractID: cid}
		}
	}

	docs := make([]any, len(plan.Create))
	for i, c := range plan.Create {
		docs[i] = c
	}
	if len(docs) > 0 {
		if _, err := l.contracts().InsertMany(ctx, docs); err != nil {
			return fmt.Errorf("captable/mongo: insert contracts: %w", err)
		}
	}

	_, err := l.commands().InsertOne(ctx, commandModel{
		ID:            plan.CommandID,
		TransactionID: plan.Result.TransactionID,
	})
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s", ledger.ErrDuplicateCommand, plan.CommandID)
	}
	if err != nil {
		return fmt.Errorf("captable/mongo: record command: %w", err)
	}
	return nil
}

// LookupByID implements ledger.Client.
func (l *Ledger) LookupByID(ctx context.Context, contractID string) (*ledger.Event, bool, error) {
	c, ok, err := view{l}.Contract(ctx, contractID)
	if err != nil || !ok {
		return nil, false, err
	}
	ev := c.Event(true)
	return &ev, true, nil
}

// ListValueResources implements ledger.Client.
func (l *Ledger) ListValueResources(ctx context.Context, principal string) ([]types.ValueResource, error) {
	cur, err := l.contracts().Find(ctx,
		bson.M{"kind": l.cfg.ValueKind, "owner": principal, "active": true},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("captable/mongo: list value resources: %w", err)
	}
	var models []sandbox.Contract
	if err := cur.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("captable/mongo: list value resources: %w", err)
	}

	out := make([]types.ValueResource, len(models))
	for i, m := range models {
		out[i] = m.ValueResource()
	}
	return out, nil
}

// LookupContextResource implements ledger.Client.
func (l *Ledger) LookupContextResource(ctx context.Context, key string) (*types.Resource, bool, error) {
	return l.lookup(ctx, sandbox.ScopeRequired, key)
}

// LookupOptionalResource implements ledger.Client.
func (l *Ledger) LookupOptionalResource(ctx context.Context, key string) (*types.Resource, bool, error) {
	return l.lookup(ctx, sandbox.ScopeOptional, key)
}

func (l *Ledger) lookup(ctx context.Context, scope, key string) (*types.Resource, bool, error) {
	c, ok, err := l.findOne(ctx, bson.M{"kind": l.cfg.ContextKind, "scope": scope, "key": key, "active": true})
	if err != nil || !ok {
		return nil, false, err
	}
	r := c.Resource()
	return &r, true, nil
}

func (l *Ledger) findOne(ctx context.Context, filter bson.M) (*sandbox.Contract, bool, error) {
	var m sandbox.Contract
	err := l.contracts().FindOne(ctx, filter).Decode(&m)
	if isNoDocuments(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("captable/mongo: find contract: %w", err)
	}
	return &m, true, nil
}

// ==================== View ====================

type view struct{ l *Ledger }

func (v view) Contract(ctx context.Context, contractID string) (*sandbox.Contract, bool, error) {
	return v.l.findOne(ctx, bson.M{"_id": contractID})
}

func (v view) ActiveEntity(ctx context.Context, lineage, tag, entityID string) (*sandbox.Contract, bool, error) {
	return v.l.findOne(ctx, bson.M{"lineage": lineage, "kind": tag, "entity_id": entityID, "active": true})
}

func (v view) CommandSeen(ctx context.Context, commandID string) (bool, error) {
	n, err := v.l.commands().CountDocuments(ctx, bson.M{"_id": commandID})
	if err != nil {
		return false, fmt.Errorf("captable/mongo: check command: %w", err)
	}
	return n > 0, nil
}

// ==================== Helpers ====================

type commandModel struct {
	ID            string `bson:"_id"`
	TransactionID string `bson:"transaction_id"`
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for the ledger collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colContracts: {
			{
				Keys: bson.D{{Key: "lineage", Value: 1}, {Key: "kind", Value: 1}, {Key: "entity_id", Value: 1}},
				Options: options.Index().SetUnique(true).SetPartialFilterExpression(bson.D{
					{Key: "active", Value: true},
					{Key: "entity_id", Value: bson.D{{Key: "$exists", Value: true}}},
				}),
			},
			{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "owner", Value: 1}, {Key: "active", Value: 1}}},
			{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "scope", Value: 1}, {Key: "key", Value: 1}, {Key: "active", Value: 1}}},
		},
		colCommands: {},
	}
}
