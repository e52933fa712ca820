package observability_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/captable/batch"
	"github.com/xraph/captable/entity"
	"github.com/xraph/captable/observability"
	"github.com/xraph/captable/types"
)

type counter struct {
	mu sync.Mutex
	n  float64
}

func (c *counter) Inc() { c.Add(1) }

func (c *counter) Add(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n += v
}

type histogram struct{ values []float64 }

func (h *histogram) Observe(v float64) { h.values = append(h.values, v) }

type factory struct {
	counters   map[string]*counter
	histograms map[string]*histogram
}

func newFactory() *factory {
	return &factory{counters: map[string]*counter{}, histograms: map[string]*histogram{}}
}

func (f *factory) Counter(name string) observability.Counter {
	c := &counter{}
	f.counters[name] = c
	return c
}

func (f *factory) Histogram(name string) observability.Histogram {
	h := &histogram{}
	f.histograms[name] = h
	return h
}

func TestMetrics_BatchLifecycle(t *testing.T) {
	f := newFactory()
	m := observability.NewMetricsExtension(f)
	ctx := context.Background()

	req := &batch.Request{Operations: []batch.Operation{
		batch.Create(entity.KindStakeholder, entity.Stakeholder{ID: "a"}),
		batch.Create(entity.KindStakeholder, entity.Stakeholder{ID: "b"}),
		batch.Delete(entity.KindStockClass, "c"),
	}}
	require.NoError(t, m.OnBatchCompiled(ctx, req))
	require.NoError(t, m.OnBatchSubmitted(ctx, req, &batch.Result{}, 12*time.Millisecond))
	require.NoError(t, m.OnBatchFailed(ctx, req, errors.New("x")))
	require.NoError(t, m.OnConflict(ctx, "agg", &types.ConflictError{}))

	assert.InDelta(t, 1, f.counters["captable.batch.compiled"].n, 0)
	assert.InDelta(t, 1, f.counters["captable.batch.submitted"].n, 0)
	assert.InDelta(t, 1, f.counters["captable.batch.failed"].n, 0)
	assert.InDelta(t, 1, f.counters["captable.batch.conflicts"].n, 0)
	assert.InDelta(t, 2, f.counters["captable.entity.created"].n, 0)
	assert.InDelta(t, 1, f.counters["captable.entity.deleted"].n, 0)
	assert.Equal(t, []float64{3}, f.histograms["captable.batch.operations"].values)
	assert.Equal(t, []float64{12}, f.histograms["captable.batch.latency_ms"].values)
}

func TestMetrics_Payment(t *testing.T) {
	f := newFactory()
	m := observability.NewMetricsExtension(f)
	ctx := context.Background()

	require.NoError(t, m.OnFundsSelected(ctx, "alice", decimal.NewFromInt(5), make([]types.ValueResource, 2)))
	require.NoError(t, m.OnOptionalLookupMissed(ctx, "fee-share/x", nil))
	require.NoError(t, m.OnOptionalLookupMissed(ctx, "fee-share/x", errors.New("down")))
	require.NoError(t, m.OnDeprecatedField(ctx, entity.Deprecation{}))

	assert.InDelta(t, 1, f.counters["captable.payment.funds_selected"].n, 0)
	assert.Equal(t, []float64{2}, f.histograms["captable.payment.inputs"].values)
	assert.InDelta(t, 1, f.counters["captable.payment.optional_lookup.miss"].n, 0)
	assert.InDelta(t, 1, f.counters["captable.payment.optional_lookup.error"].n, 0)
	assert.InDelta(t, 1, f.counters["captable.entity.deprecated_fields"].n, 0)
}
