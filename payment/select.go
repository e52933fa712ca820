package payment

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/xraph/captable/types"
)

// Select picks value resources covering required, largest first. It stops
// as soon as the running sum reaches required, so it touches few inputs but
// does not minimize change. Equal amounts keep their listing order.
//
// When the resources cannot cover required it returns an
// *types.InsufficientResourceError whose Shortfall is required minus the
// total available.
func Select(resources []types.ValueResource, required decimal.Decimal) ([]types.ValueResource, error) {
	if required.IsNegative() {
		return nil, types.NewValidationError("payment", "required_amount", "must not be negative")
	}

	sorted := make([]types.ValueResource, len(resources))
	copy(sorted, resources)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EffectiveAmount.GreaterThan(sorted[j].EffectiveAmount)
	})

	sum := decimal.Zero
	var selected []types.ValueResource
	for _, r := range sorted {
		if sum.GreaterThanOrEqual(required) {
			break
		}
		selected = append(selected, r)
		sum = sum.Add(r.EffectiveAmount)
	}

	if sum.LessThan(required) {
		return nil, &types.InsufficientResourceError{
			Required:  required,
			Available: sum,
			Shortfall: required.Sub(sum),
		}
	}
	return selected, nil
}
