package ledger_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xraph/captable/ledger"
)

func TestUpdate_NativeAndParse(t *testing.T) {
	u := ledger.Update{
		Mutations: []ledger.Mutation{
			{Action: ledger.ActionCreate, Tag: "Stakeholder", EntityID: "sh-1", Args: bson.D{{Key: "id", Value: "sh-1"}}},
			{Action: ledger.ActionDelete, Tag: "StockClass", EntityID: "sc-1"},
			{Action: ledger.ActionEdit, Tag: "Stakeholder", EntityID: "sh-2", Args: bson.D{{Key: "id", Value: "sh-2"}}},
		},
		Payment: &ledger.Payment{
			Provider: "acme", PricingRules: "r", PricingRound: "o",
			Payer: "alice", Amount: "10", Inputs: []string{"c1"},
		},
	}

	native := u.Native()
	keys := make([]string, len(native))
	for i, e := range native {
		keys[i] = e.Key
	}
	assert.Equal(t, []string{"creates", "edits", "deletes", "payment"}, keys)

	got, err := ledger.ParseUpdate(native)
	require.NoError(t, err)
	require.Len(t, got.Mutations, 3)
	assert.Equal(t, ledger.ActionCreate, got.Mutations[0].Action)
	assert.Equal(t, ledger.ActionEdit, got.Mutations[1].Action)
	assert.Equal(t, "sh-2", got.Mutations[1].EntityID)
	assert.Equal(t, ledger.ActionDelete, got.Mutations[2].Action)
	assert.Equal(t, "StockClass", got.Mutations[2].Tag)
	assert.Equal(t, u.Payment, got.Payment)
}

func TestUpdate_EmptyGroupsPresent(t *testing.T) {
	native := ledger.Update{}.Native()

	require.Len(t, native, 3)
	for _, e := range native {
		assert.Equal(t, bson.A{}, e.Value, e.Key)
	}
}

func TestParseUpdate_Malformed(t *testing.T) {
	tests := []struct {
		name string
		arg  bson.D
	}{
		{name: "missing groups", arg: bson.D{}},
		{name: "wrong tag prefix", arg: bson.D{
			{Key: "creates", Value: bson.A{bson.D{{Key: "tag", Value: "OcfEditStakeholder"}, {Key: "value", Value: bson.D{{Key: "id", Value: "x"}}}}}},
			{Key: "edits", Value: bson.A{}},
			{Key: "deletes", Value: bson.A{}},
		}},
		{name: "delete without id", arg: bson.D{
			{Key: "creates", Value: bson.A{}},
			{Key: "edits", Value: bson.A{}},
			{Key: "deletes", Value: bson.A{bson.D{{Key: "tag", Value: "OcfDeleteStakeholder"}}}},
		}},
		{name: "payment without context", arg: bson.D{
			{Key: "creates", Value: bson.A{}},
			{Key: "edits", Value: bson.A{}},
			{Key: "deletes", Value: bson.A{}},
			{Key: "payment", Value: bson.D{{Key: "provider", Value: "acme"}}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ledger.ParseUpdate(tt.arg)
			assert.True(t, errors.Is(err, ledger.ErrMalformed), "got %v", err)
		})
	}
}

func TestExecutionResult_Created(t *testing.T) {
	res := &ledger.ExecutionResult{Events: []ledger.Event{
		{Type: ledger.EventArchived, ContractID: "a"},
		{Type: ledger.EventCreated, ContractID: "b"},
	}}

	created := res.Created()
	require.Len(t, created, 1)
	assert.Equal(t, "b", created[0].ContractID)
}
