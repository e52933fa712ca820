package payment_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/captable/ledger"
	"github.com/xraph/captable/payment"
	"github.com/xraph/captable/types"
)

// stubClient serves canned lookups; submission is unused here.
type stubClient struct {
	resources   map[string]*types.Resource
	optionalErr error
	coins       map[string][]types.ValueResource
	listErr     error
}

func (s *stubClient) Submit(context.Context, *ledger.Command) (*ledger.ExecutionResult, error) {
	return nil, errors.New("not implemented")
}

func (s *stubClient) LookupByID(context.Context, string) (*ledger.Event, bool, error) {
	return nil, false, nil
}

func (s *stubClient) ListValueResources(_ context.Context, principal string) ([]types.ValueResource, error) {
	return s.coins[principal], s.listErr
}

func (s *stubClient) LookupContextResource(_ context.Context, key string) (*types.Resource, bool, error) {
	r, ok := s.resources[key]
	return r, ok, nil
}

func (s *stubClient) LookupOptionalResource(_ context.Context, key string) (*types.Resource, bool, error) {
	if s.optionalErr != nil {
		return nil, false, s.optionalErr
	}
	r, ok := s.resources[key]
	return r, ok, nil
}

func (s *stubClient) Ping(context.Context) error { return nil }
func (s *stubClient) Close() error               { return nil }

func resource(id, blob string) *types.Resource {
	return &types.Resource{ContractRef: types.ContractRef{
		ContractID: id,
		Kind:       "Context",
		Disclosure: types.Disclosure{ResourceKind: "Context", ResourceID: id, ProvenanceBlob: blob},
	}}
}

func newStub() *stubClient {
	return &stubClient{
		resources: map[string]*types.Resource{
			"pricing-rules": resource("rules-1", "r"),
			"pricing-round": resource("round-7", ""),
		},
		coins: map[string][]types.ValueResource{
			"alice": coins(100, 60, 10),
		},
	}
}

func TestBuildContext_OptionalAbsent(t *testing.T) {
	var missed []string
	b := payment.NewBuilder(newStub(), payment.WithMissHandler(func(key string, err error) {
		missed = append(missed, key)
		assert.NoError(t, err)
	}))

	res, err := b.BuildContext(context.Background(), "acme")
	require.NoError(t, err)

	assert.Equal(t, "rules-1", res.Context.PricingRules.ContractID)
	assert.Equal(t, "round-7", res.Context.PricingRound.ContractID)
	assert.Nil(t, res.Context.FeeShare)
	assert.Equal(t, []string{"fee-share/acme"}, missed)

	// round-7 carries a placeholder proof and is filtered out.
	require.Len(t, res.Disclosures, 1)
	assert.Equal(t, "rules-1", res.Disclosures[0].ResourceID)
}

func TestBuildContext_OptionalPresent(t *testing.T) {
	stub := newStub()
	stub.resources["fee-share/acme"] = resource("fee-1", "f")

	res, err := payment.NewBuilder(stub).BuildContext(context.Background(), "acme")
	require.NoError(t, err)

	require.NotNil(t, res.Context.FeeShare)
	assert.Equal(t, "fee-1", res.Context.FeeShare.ContractID)
	assert.Len(t, res.Disclosures, 2)
}

func TestBuildContext_OptionalFailureSwallowed(t *testing.T) {
	stub := newStub()
	stub.optionalErr = errors.New("connection reset")
	var got error
	b := payment.NewBuilder(stub, payment.WithMissHandler(func(_ string, err error) { got = err }))

	res, err := b.BuildContext(context.Background(), "acme")
	require.NoError(t, err)
	assert.Nil(t, res.Context.FeeShare)
	assert.EqualError(t, got, "connection reset")
}

func TestBuildContext_RequiredMissing(t *testing.T) {
	stub := newStub()
	delete(stub.resources, "pricing-round")

	_, err := payment.NewBuilder(stub).BuildContext(context.Background(), "acme")

	var nf *types.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "pricing-round", nf.ID)
}

func TestBuildContext_ProviderRequired(t *testing.T) {
	_, err := payment.NewBuilder(newStub()).BuildContext(context.Background(), "")
	assert.True(t, errors.Is(err, types.ErrValidation))
}

func TestBuildContext_CustomKeys(t *testing.T) {
	stub := newStub()
	stub.resources["rules"] = resource("rules-2", "r")
	stub.resources["round"] = resource("round-2", "o")

	b := payment.NewBuilder(stub, payment.WithKeys(payment.Keys{PricingRules: "rules", PricingRound: "round"}))
	res, err := b.BuildContext(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "rules-2", res.Context.PricingRules.ContractID)
}

func TestBuildContextWithFunding(t *testing.T) {
	var selectedFor string
	b := payment.NewBuilder(newStub(), payment.WithSelectionHandler(
		func(payer string, _ decimal.Decimal, _ []types.ValueResource) { selectedFor = payer },
	))

	res, err := b.BuildContextWithFunding(context.Background(), "alice", decimal.NewFromInt(150), "acme")
	require.NoError(t, err)

	assert.Equal(t, []string{"100", "60"}, amounts(res.Context.Inputs))
	assert.Equal(t, "alice", selectedFor)

	ids := make([]string, 0, len(res.Disclosures))
	for _, d := range res.Disclosures {
		ids = append(ids, d.ResourceID)
	}
	assert.Equal(t, []string{"rules-1", "a", "b"}, ids)

	native := res.Context.Native()
	assert.Equal(t, "150", native.Amount)
	assert.Equal(t, []string{"a", "b"}, native.Inputs)
}

func TestBuildContextWithFunding_Insufficient(t *testing.T) {
	stub := newStub()
	stub.coins["bob"] = coins(30, 20)

	_, err := payment.NewBuilder(stub).BuildContextWithFunding(context.Background(), "bob", decimal.NewFromInt(100), "acme")

	var insufficient *types.InsufficientResourceError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "bob", insufficient.Payer)
	assert.Equal(t, "50", insufficient.Shortfall.String())
}

func TestBuildContextWithFunding_ListFailurePropagates(t *testing.T) {
	stub := newStub()
	stub.listErr = errors.New("ledger unavailable")

	_, err := payment.NewBuilder(stub).BuildContextWithFunding(context.Background(), "alice", decimal.NewFromInt(1), "acme")
	assert.ErrorIs(t, err, stub.listErr)
}
