package types

import "github.com/shopspring/decimal"

// ValueResource is a discrete, spendable, amount-bearing contract. It is
// consumed (archived) by the payment that spends it, never mutated.
type ValueResource struct {
	ID              string          `json:"id"`
	Kind            string          `json:"kind"`
	Owner           string          `json:"owner"`
	EffectiveAmount decimal.Decimal `json:"effective_amount"`
	ShardID         string          `json:"shard_id"`
	ProvenanceBlob  string          `json:"provenance_blob"`
}

// Disclosure returns the resource's provenance proof.
func (v ValueResource) Disclosure() Disclosure {
	return Disclosure{
		ResourceKind:   v.Kind,
		ResourceID:     v.ID,
		ProvenanceBlob: v.ProvenanceBlob,
		ShardID:        v.ShardID,
	}
}

// Resource is a context contract fetched from the ledger (pricing rules,
// pricing rounds, fee-share rights and the like).
type Resource struct {
	ContractRef
	Arguments map[string]any `json:"arguments,omitempty"`
}

// SumEffective sums the effective amounts of resources.
func SumEffective(resources []ValueResource) decimal.Decimal {
	total := decimal.Zero
	for _, r := range resources {
		total = total.Add(r.EffectiveAmount)
	}
	return total
}
