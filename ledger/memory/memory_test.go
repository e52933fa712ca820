package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xraph/captable/ledger"
	"github.com/xraph/captable/ledger/memory"
	"github.com/xraph/captable/types"
)

func command(id string, target types.ContractRef, muts ...ledger.Mutation) *ledger.Command {
	return &ledger.Command{
		CommandID:   id,
		Target:      target,
		Choice:      "UpdateCapTable",
		Argument:    ledger.Update{Mutations: muts}.Native(),
		Disclosures: []types.Disclosure{target.Disclosure},
	}
}

func create(tag, entityID string) ledger.Mutation {
	return ledger.Mutation{Action: ledger.ActionCreate, Tag: tag, EntityID: entityID, Args: bson.D{{Key: "id", Value: entityID}}}
}

func edit(tag, entityID string) ledger.Mutation {
	return ledger.Mutation{Action: ledger.ActionEdit, Tag: tag, EntityID: entityID, Args: bson.D{{Key: "id", Value: entityID}}}
}

func del(tag, entityID string) ledger.Mutation {
	return ledger.Mutation{Action: ledger.ActionDelete, Tag: tag, EntityID: entityID}
}

func TestLedger_Submit(t *testing.T) {
	ctx := context.Background()
	l := memory.New()
	ref, err := l.CreateAggregate(ctx, nil)
	require.NoError(t, err)

	res, err := l.Submit(ctx, command("c1", ref, create("Stakeholder", "a"), create("Stakeholder", "b")))
	require.NoError(t, err)

	var kinds []string
	for _, e := range res.Events {
		kinds = append(kinds, string(e.Type)+":"+e.Kind)
	}
	assert.Equal(t, []string{
		"archived:CapTable", "created:Stakeholder", "created:Stakeholder", "created:CapTable",
	}, kinds)

	successor := res.Events[len(res.Events)-1]
	ev, ok, err := l.LookupByID(ctx, successor.ContractID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEmpty(t, ev.ProvenanceBlob)
}

func TestLedger_RejectsDuplicateNaturalKey(t *testing.T) {
	ctx := context.Background()
	l := memory.New()
	ref, _ := l.CreateAggregate(ctx, nil)

	_, err := l.Submit(ctx, command("c1", ref, create("Stakeholder", "a"), create("Stakeholder", "a")))
	assert.ErrorIs(t, err, ledger.ErrRejected)
	assert.Zero(t, l.Transactions())
}

func TestLedger_CreateEditDeleteInOneCommand(t *testing.T) {
	ctx := context.Background()
	l := memory.New()
	ref, _ := l.CreateAggregate(ctx, nil)

	res, err := l.Submit(ctx, command("c1", ref,
		create("Stakeholder", "a"),
		edit("Stakeholder", "a"),
		create("Stakeholder", "b"),
		del("Stakeholder", "b"),
	))
	require.NoError(t, err)

	succ := res.Events[len(res.Events)-1]
	ents := l.Entities(types.ContractRef{ContractID: succ.ContractID})
	require.Len(t, ents, 1)
	assert.Contains(t, ents, "Stakeholder/a")
}

func TestLedger_Rejections(t *testing.T) {
	ctx := context.Background()
	l := memory.New()
	ref, _ := l.CreateAggregate(ctx, nil)

	unknown := command("c1", types.ContractRef{ContractID: "nope"}, create("Stakeholder", "a"))
	_, err := l.Submit(ctx, unknown)
	assert.ErrorIs(t, err, ledger.ErrUnknownContract)

	wrongChoice := command("c2", ref, create("Stakeholder", "a"))
	wrongChoice.Choice = "Archive"
	_, err = l.Submit(ctx, wrongChoice)
	assert.ErrorIs(t, err, ledger.ErrRejected)

	badProof := command("c3", ref, create("Stakeholder", "a"))
	badProof.Disclosures = append(badProof.Disclosures, types.Disclosure{ResourceID: "x"})
	_, err = l.Submit(ctx, badProof)
	assert.ErrorIs(t, err, ledger.ErrRejected)

	_, err = l.Submit(ctx, command("", ref, create("Stakeholder", "a")))
	assert.ErrorIs(t, err, ledger.ErrMalformed)

	_, err = l.Submit(ctx, command("c4", ref, del("Stakeholder", "ghost")))
	assert.ErrorIs(t, err, ledger.ErrRejected)

	assert.Zero(t, l.Transactions())
}

func TestLedger_StaleTargetConflicts(t *testing.T) {
	ctx := context.Background()
	l := memory.New()
	ref, _ := l.CreateAggregate(ctx, nil)

	_, err := l.Submit(ctx, command("c1", ref, create("Stakeholder", "a")))
	require.NoError(t, err)

	_, err = l.Submit(ctx, command("c2", ref, create("Stakeholder", "b")))
	var conflict *types.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, ref.ContractID, conflict.ContractID)
}

func TestLedger_ValueResources(t *testing.T) {
	ctx := context.Background()
	l := memory.New()

	_, err := l.Fund(ctx, "alice", decimal.Zero)
	assert.ErrorIs(t, err, ledger.ErrRejected)

	coin, err := l.Fund(ctx, "alice", decimal.RequireFromString("12.5"))
	require.NoError(t, err)
	assert.Equal(t, "alice", coin.Owner)
	assert.True(t, coin.Disclosure().Valid())

	list, err := l.ListValueResources(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "12.5", list[0].EffectiveAmount.String())

	none, err := l.ListValueResources(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLedger_ContextResources(t *testing.T) {
	ctx := context.Background()
	l := memory.New()

	_, err := l.PutContextResource(ctx, "pricing-rules", bson.D{{Key: "fee", Value: "0.5"}}, true)
	require.NoError(t, err)
	_, err = l.PutOptionalResource(ctx, "fee-share/acme", nil, false)
	require.NoError(t, err)

	r, ok, err := l.LookupContextResource(ctx, "pricing-rules")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "0.5", r.Arguments["fee"])
	assert.True(t, r.Disclosure.Valid())

	_, ok, err = l.LookupContextResource(ctx, "fee-share/acme")
	require.NoError(t, err)
	assert.False(t, ok, "optional resources are not served as required ones")

	opt, ok, err := l.LookupOptionalResource(ctx, "fee-share/acme")
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, opt.Disclosure.Valid())

	replaced, err := l.PutContextResource(ctx, "pricing-rules", nil, true)
	require.NoError(t, err)
	r, _, _ = l.LookupContextResource(ctx, "pricing-rules")
	assert.Equal(t, replaced.ContractID, r.ContractID)
}

func TestLedger_PaymentChange(t *testing.T) {
	ctx := context.Background()
	l := memory.New()
	ref, _ := l.CreateAggregate(ctx, nil)
	rules, _ := l.PutContextResource(ctx, "pricing-rules", nil, true)
	round, _ := l.PutContextResource(ctx, "pricing-round", nil, true)
	coin, _ := l.Fund(ctx, "alice", decimal.NewFromInt(10))

	cmd := command("c1", ref, create("Stakeholder", "a"))
	cmd.Argument = ledger.Update{
		Mutations: []ledger.Mutation{create("Stakeholder", "a")},
		Payment: &ledger.Payment{
			Provider: "acme", PricingRules: rules.ContractID, PricingRound: round.ContractID,
			Payer: "alice", Amount: "3", Inputs: []string{coin.ID},
		},
	}.Native()

	_, err := l.Submit(ctx, cmd)
	require.NoError(t, err)

	left, err := l.ListValueResources(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.NotEqual(t, coin.ID, left[0].ID)
	assert.Equal(t, "7", left[0].EffectiveAmount.String())
}

func TestLedger_PaymentUnderfunded(t *testing.T) {
	ctx := context.Background()
	l := memory.New()
	ref, _ := l.CreateAggregate(ctx, nil)
	rules, _ := l.PutContextResource(ctx, "pricing-rules", nil, true)
	round, _ := l.PutContextResource(ctx, "pricing-round", nil, true)
	coin, _ := l.Fund(ctx, "alice", decimal.NewFromInt(1))

	cmd := command("c1", ref)
	cmd.Argument = ledger.Update{
		Mutations: []ledger.Mutation{create("Stakeholder", "a")},
		Payment: &ledger.Payment{
			Provider: "acme", PricingRules: rules.ContractID, PricingRound: round.ContractID,
			Payer: "alice", Amount: "3", Inputs: []string{coin.ID},
		},
	}.Native()

	_, err := l.Submit(ctx, cmd)
	assert.True(t, errors.Is(err, ledger.ErrRejected))

	left, _ := l.ListValueResources(ctx, "alice")
	assert.Len(t, left, 1, "inputs are not consumed by a rejected command")
}
