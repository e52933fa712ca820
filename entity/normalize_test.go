package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/captable/entity"
)

func TestNormalizeSingular(t *testing.T) {
	tests := []struct {
		name     string
		singular string
		array    []string
		want     []string
		legacy   bool
	}{
		{name: "singular only", singular: "x", want: []string{"x"}, legacy: true},
		{name: "array wins", singular: "x", array: []string{"y"}, want: []string{"y"}},
		{name: "neither", want: []string{}},
		{name: "both empty", singular: "", array: []string{}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, legacy := entity.NormalizeSingular(tt.singular, tt.array)
			assert.Equal(t, tt.want, got)
			assert.NotNil(t, got)
			assert.Equal(t, tt.legacy, legacy)
		})
	}
}

func TestRegistry_NormalizeEmptyStakeholderRoundTrips(t *testing.T) {
	r := entity.NewRegistry()
	sh := entity.Stakeholder{
		ID:              "sh-2",
		Name:            entity.Name{LegalName: "Grace Hopper"},
		StakeholderType: "INDIVIDUAL",
	}

	normalized := r.NormalizeDeprecatedFields(entity.KindStakeholder, sh)
	assert.Equal(t, []string{}, normalized.(entity.Stakeholder).CurrentRelationships)

	args, err := r.Encode(entity.KindStakeholder, normalized)
	require.NoError(t, err)

	got, err := r.Decode(entity.KindStakeholder, args)
	require.NoError(t, err)
	assert.Equal(t, normalized, got)
}

func TestRegistry_NormalizeStakeholderRelationship(t *testing.T) {
	var seen []entity.Deprecation
	r := entity.NewRegistry(entity.WithDeprecationHandler(func(d entity.Deprecation) {
		seen = append(seen, d)
	}))

	out := r.NormalizeDeprecatedFields(entity.KindStakeholder, entity.Stakeholder{
		ID:                  "sh-1",
		CurrentRelationship: "EMPLOYEE",
	})

	sh := out.(entity.Stakeholder)
	assert.Equal(t, []string{"EMPLOYEE"}, sh.CurrentRelationships)
	assert.Empty(t, sh.CurrentRelationship)
	require.Len(t, seen, 1)
	assert.Equal(t, "current_relationship", seen[0].Field)
	assert.Equal(t, "sh-1", seen[0].EntityID)
}

func TestRegistry_NormalizeStockPlanArrayWins(t *testing.T) {
	var seen []entity.Deprecation
	r := entity.NewRegistry(entity.WithDeprecationHandler(func(d entity.Deprecation) {
		seen = append(seen, d)
	}))

	out := r.NormalizeDeprecatedFields(entity.KindStockPlan, entity.StockPlan{
		ID:            "sp-1",
		StockClassID:  "sc-old",
		StockClassIDs: []string{"sc-1", "sc-2"},
	})

	assert.Equal(t, []string{"sc-1", "sc-2"}, out.(entity.StockPlan).StockClassIDs)
	assert.Empty(t, seen)
}

func TestRegistry_EncodeNormalizesLegacyField(t *testing.T) {
	r := entity.NewRegistry()
	legacy := entity.StockPlan{
		ID:                    "sp-1",
		PlanName:              "Plan",
		InitialSharesReserved: "100",
		StockClassID:          "sc-1",
	}

	args, err := r.Encode(entity.KindStockPlan, legacy)
	require.NoError(t, err)

	got, err := r.Decode(entity.KindStockPlan, args)
	require.NoError(t, err)
	assert.Equal(t, []string{"sc-1"}, got.(entity.StockPlan).StockClassIDs)
	assert.Empty(t, got.(entity.StockPlan).StockClassID)
}

func TestRegistry_NormalizeUnknownKindPassesThrough(t *testing.T) {
	r := entity.NewRegistry()
	doc := entity.Document{ID: "d"}

	assert.Equal(t, entity.Payload(doc), r.NormalizeDeprecatedFields("unknown", doc))
}
