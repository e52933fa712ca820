package captable_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xraph/captable"
	"github.com/xraph/captable/batch"
	"github.com/xraph/captable/entity"
	"github.com/xraph/captable/ledger/memory"
	"github.com/xraph/captable/types"
)

// TestDocumentationExamples verifies the flows shown in the package docs.
func TestDocumentationExamples(t *testing.T) {
	t.Run("QuickStartExample", func(t *testing.T) {
		l := memory.New()
		client := captable.New(l, captable.WithLogger(slog.Default()))

		ctx := context.Background()
		require.NoError(t, client.Start(ctx))
		defer client.Stop()

		ref, err := l.CreateAggregate(ctx, bson.D{{Key: "issuer", Value: "Acme Inc."}})
		require.NoError(t, err)

		b := client.NewBatch(ref)
		require.NoError(t, b.Create(entity.KindStakeholder, entity.Stakeholder{
			ID:                   "sh-1",
			Name:                 entity.Name{LegalName: "Ada Lovelace"},
			StakeholderType:      "INDIVIDUAL",
			CurrentRelationships: []string{"FOUNDER"},
		}))
		require.NoError(t, b.Create(entity.KindStockClass, entity.StockClass{
			ID:                      "sc-common",
			Name:                    "Common",
			ClassType:               "COMMON",
			DefaultIDPrefix:         "CS-",
			InitialSharesAuthorized: "10000000",
			VotesPerShare:           "1",
			SeniorityRank:           "1",
		}))

		res, err := b.Execute(ctx)
		require.NoError(t, err)
		assert.Len(t, res.CreatedIDs, 2)
		assert.NotEqual(t, ref.ContractID, res.Aggregate.ContractID)

		next := client.NewBatch(res.Aggregate)
		require.NoError(t, next.Delete(entity.KindStakeholder, "sh-1"))
		_, err = next.Execute(ctx)
		require.NoError(t, err)
	})

	t.Run("ConflictExample", func(t *testing.T) {
		l := memory.New()
		client := captable.New(l)
		ctx := context.Background()

		ref, err := l.CreateAggregate(ctx, bson.D{})
		require.NoError(t, err)

		first := client.NewBatch(ref)
		second := client.NewBatch(ref)
		require.NoError(t, first.Delete(entity.KindStakeholder, "unused"))
		require.NoError(t, first.Create(entity.KindStakeholder, entity.Stakeholder{
			ID: "a", Name: entity.Name{LegalName: "A"}, StakeholderType: "INDIVIDUAL",
		}))
		require.NoError(t, second.Create(entity.KindStakeholder, entity.Stakeholder{
			ID: "b", Name: entity.Name{LegalName: "B"}, StakeholderType: "INDIVIDUAL",
		}))

		// first fails: "unused" does not exist; the aggregate is untouched.
		_, err = first.Execute(ctx)
		require.Error(t, err)
		assert.False(t, captable.IsConflict(err))

		_, err = second.Execute(ctx)
		require.NoError(t, err)

		stale := client.NewBatch(ref)
		require.NoError(t, stale.Create(entity.KindStakeholder, entity.Stakeholder{
			ID: "c", Name: entity.Name{LegalName: "C"}, StakeholderType: "INDIVIDUAL",
		}))
		_, err = stale.Execute(ctx)
		assert.True(t, captable.IsConflict(err))
		assert.True(t, captable.IsRetryable(err))
	})

	t.Run("PaymentExample", func(t *testing.T) {
		l := memory.New()
		client := captable.New(l)
		ctx := context.Background()

		ref, err := l.CreateAggregate(ctx, bson.D{})
		require.NoError(t, err)
		_, err = l.PutContextResource(ctx, "pricing-rules", bson.D{{Key: "fee", Value: "1"}}, true)
		require.NoError(t, err)
		_, err = l.PutContextResource(ctx, "pricing-round", bson.D{{Key: "round", Value: int32(1)}}, true)
		require.NoError(t, err)
		_, err = l.Fund(ctx, "alice", decimal.NewFromInt(10))
		require.NoError(t, err)

		pay, err := client.NewFundedPaymentContext(ctx, "alice", decimal.NewFromInt(3), "provider-1")
		require.NoError(t, err)

		b := client.NewBatch(ref)
		require.NoError(t, b.Create(entity.KindStakeholder, entity.Stakeholder{
			ID: "sh-1", Name: entity.Name{LegalName: "Ada"}, StakeholderType: "INDIVIDUAL",
		}))
		b.AttachPayment(pay)
		_, err = b.Execute(ctx)
		require.NoError(t, err)

		left, err := l.ListValueResources(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "7", types.SumEffective(left).String())
	})
}

type recorder struct {
	compiled, submitted, deprecated, missed int
}

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) OnBatchCompiled(context.Context, *batch.Request) error {
	r.compiled++
	return nil
}

func (r *recorder) OnBatchSubmitted(context.Context, *batch.Request, *batch.Result, time.Duration) error {
	r.submitted++
	return nil
}

func (r *recorder) OnDeprecatedField(context.Context, entity.Deprecation) error {
	r.deprecated++
	return nil
}

func (r *recorder) OnOptionalLookupMissed(context.Context, string, error) error {
	r.missed++
	return nil
}

func TestClient_PluginsObserveBatches(t *testing.T) {
	l := memory.New()
	rec := &recorder{}
	client := captable.New(l, captable.WithPlugin(rec))
	ctx := context.Background()

	ref, err := l.CreateAggregate(ctx, bson.D{})
	require.NoError(t, err)
	_, err = l.PutContextResource(ctx, "pricing-rules", bson.D{}, true)
	require.NoError(t, err)
	_, err = l.PutContextResource(ctx, "pricing-round", bson.D{}, true)
	require.NoError(t, err)

	b := client.NewBatch(ref)
	require.NoError(t, b.Create(entity.KindStakeholder, entity.Stakeholder{
		ID:                  "sh-1",
		Name:                entity.Name{LegalName: "Ada"},
		StakeholderType:     "INDIVIDUAL",
		CurrentRelationship: "EMPLOYEE",
	}))
	pay, err := client.NewPaymentContext(ctx, "provider-1")
	require.NoError(t, err)
	b.AttachPayment(pay)
	_, err = b.Execute(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, rec.compiled)
	assert.Equal(t, 1, rec.submitted)
	assert.Equal(t, 1, rec.deprecated)
	assert.Equal(t, 1, rec.missed)
}

func TestClient_ConfigIsApplied(t *testing.T) {
	l := memory.New()
	client := captable.New(l,
		captable.WithConfig(captable.Config{Choice: "UpdateCapTable"}),
		captable.WithActAs("issuer"),
	)

	cfg := client.Config()
	assert.Equal(t, "CapTable", cfg.AggregateKind)
	assert.Equal(t, []string{"issuer"}, cfg.ActAs)
	assert.Equal(t, "pricing-rules", cfg.ContextKeys.PricingRules)

	ref, err := l.CreateAggregate(context.Background(), bson.D{})
	require.NoError(t, err)
	b := client.NewBatch(ref)
	require.NoError(t, b.Delete(entity.KindStakeholder, "x"))
	req, err := b.Compile()
	require.NoError(t, err)
	assert.Equal(t, []string{"issuer"}, req.Command.ActAs)
	assert.Equal(t, "UpdateCapTable", req.Command.Choice)
}

func TestClient_StartRequiresLedger(t *testing.T) {
	client := captable.New(nil)
	assert.Error(t, client.Start(context.Background()))
	assert.NoError(t, client.Stop())
}
