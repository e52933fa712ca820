package entity

// VestingCondition is one node of a vesting schedule graph. A portion is
// either a fraction of the grant or an absolute quantity.
type VestingCondition struct {
	ID                 string   `json:"id"`
	Description        string   `json:"description,omitempty"`
	PortionNumerator   string   `json:"portion_numerator,omitempty"`
	PortionDenominator string   `json:"portion_denominator,omitempty"`
	Quantity           string   `json:"quantity,omitempty"`
	NextConditionIDs   []string `json:"next_condition_ids,omitempty"`
}

// VestingTerms is a reusable vesting schedule template.
type VestingTerms struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Allocation  string             `json:"allocation_type"`
	Conditions  []VestingCondition `json:"vesting_conditions"`
	Comments    []string           `json:"comments,omitempty"`
}

// EntityID implements Payload.
func (v VestingTerms) EntityID() string { return v.ID }

var allocationTypes = newEnum("OcfAllocation",
	"CUMULATIVE_ROUNDING", "CUMULATIVE_ROUND_DOWN", "FRONT_LOADED",
	"BACK_LOADED", "FRONT_LOADED_TO_SINGLE_TRANCHE", "BACK_LOADED_TO_SINGLE_TRANCHE",
	"FRACTIONAL",
)

func encodeCondition(e *encoder, c VestingCondition) {
	e.id(c.ID)
	e.optional("description", c.Description)
	switch {
	case c.Quantity != "":
		if c.PortionNumerator != "" || c.PortionDenominator != "" {
			e.fail("quantity", "cannot be combined with a portion")
			return
		}
		e.numeric("quantity", "quantity", c.Quantity, true)
	case c.PortionNumerator != "" || c.PortionDenominator != "":
		e.nested("portion", "portion", func(p *encoder) {
			p.numeric("numerator", "numerator", c.PortionNumerator, true)
			p.numeric("denominator", "denominator", c.PortionDenominator, true)
		})
	}
	e.strings("nextConditionIds", c.NextConditionIDs)
}

func decodeCondition(d *decoder) VestingCondition {
	c := VestingCondition{
		ID:               d.id(),
		Description:      d.optional("description"),
		Quantity:         d.optional("quantity"),
		NextConditionIDs: d.strings("nextConditionIds"),
	}
	if _, ok := d.fields["portion"]; ok {
		p := d.nested("portion", "portion")
		c.PortionNumerator = p.required("numerator", "numerator")
		c.PortionDenominator = p.required("denominator", "denominator")
	}
	return c
}

var vestingTermsCodec = typedCodec[VestingTerms]{
	kind: KindVestingTerms,
	encode: func(e *encoder, v VestingTerms) {
		e.id(v.ID)
		e.required("name", "name", v.Name)
		e.required("description", "description", v.Description)
		e.enum("allocation_type", "allocationType", v.Allocation, allocationTypes, true)
		if len(v.Conditions) == 0 {
			e.fail("vesting_conditions", "at least one condition is required")
			return
		}
		e.list("vesting_conditions", "vestingConditions", len(v.Conditions), func(i int, sub *encoder) {
			encodeCondition(sub, v.Conditions[i])
		})
		e.strings("comments", v.Comments)
	},
	decode: func(d *decoder) VestingTerms {
		v := VestingTerms{
			ID:          d.id(),
			Name:        d.required("name", "name"),
			Description: d.required("description", "description"),
			Allocation:  d.enum("allocation_type", "allocationType", allocationTypes, true),
			Comments:    d.strings("comments"),
		}
		for _, sub := range d.list("vesting_conditions", "vestingConditions") {
			v.Conditions = append(v.Conditions, decodeCondition(sub))
		}
		return v
	},
}
