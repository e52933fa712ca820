package payment_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/captable/payment"
	"github.com/xraph/captable/types"
)

func coins(amounts ...int64) []types.ValueResource {
	out := make([]types.ValueResource, len(amounts))
	for i, a := range amounts {
		out[i] = types.ValueResource{
			ID:              string(rune('a' + i)),
			Kind:            "Amulet",
			EffectiveAmount: decimal.NewFromInt(a),
			ProvenanceBlob:  "blob",
		}
	}
	return out
}

func amounts(rs []types.ValueResource) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.EffectiveAmount.String()
	}
	return out
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name     string
		coins    []types.ValueResource
		required int64
		want     []string
	}{
		{name: "largest first", coins: coins(100, 60, 10), required: 150, want: []string{"100", "60"}},
		{name: "unsorted input", coins: coins(10, 100, 60), required: 150, want: []string{"100", "60"}},
		{name: "single coin covers", coins: coins(10, 100, 60), required: 100, want: []string{"100"}},
		{name: "exact total", coins: coins(5, 5, 5), required: 15, want: []string{"5", "5", "5"}},
		{name: "nothing required", coins: coins(1), required: 0, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := payment.Select(tt.coins, decimal.NewFromInt(tt.required))
			require.NoError(t, err)
			assert.Equal(t, tt.want, amounts(got))
		})
	}
}

func TestSelect_StableOnTies(t *testing.T) {
	in := coins(50, 50, 50)

	got, err := payment.Select(in, decimal.NewFromInt(100))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
}

func TestSelect_DoesNotReorderInput(t *testing.T) {
	in := coins(10, 100)

	_, err := payment.Select(in, decimal.NewFromInt(50))
	require.NoError(t, err)
	assert.Equal(t, "10", in[0].EffectiveAmount.String())
}

func TestSelect_Insufficient(t *testing.T) {
	_, err := payment.Select(coins(30, 20), decimal.NewFromInt(100))

	var insufficient *types.InsufficientResourceError
	require.ErrorAs(t, err, &insufficient)
	assert.True(t, insufficient.Shortfall.Equal(decimal.NewFromInt(50)))
	assert.True(t, insufficient.Available.Equal(decimal.NewFromInt(50)))
	assert.True(t, errors.Is(err, types.ErrInsufficientResource))
}

func TestSelect_FractionalShortfall(t *testing.T) {
	in := []types.ValueResource{{ID: "x", EffectiveAmount: decimal.RequireFromString("0.1")}}

	_, err := payment.Select(in, decimal.RequireFromString("0.3"))

	var insufficient *types.InsufficientResourceError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "0.2", insufficient.Shortfall.String())
}

func TestSelect_NegativeRequired(t *testing.T) {
	_, err := payment.Select(coins(1), decimal.NewFromInt(-1))
	assert.True(t, errors.Is(err, types.ErrValidation))
}
