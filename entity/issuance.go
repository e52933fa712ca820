package entity

// Security holds the fields every issuance shares.
type Security struct {
	SecurityID        string `json:"security_id"`
	CustomID          string `json:"custom_id"`
	StakeholderID     string `json:"stakeholder_id"`
	Date              string `json:"date"`
	BoardApprovalDate string `json:"board_approval_date,omitempty"`
}

func (s Security) encode(e *encoder) {
	e.required("security_id", "securityId", s.SecurityID)
	e.required("custom_id", "customId", s.CustomID)
	e.required("stakeholder_id", "stakeholderId", s.StakeholderID)
	e.date("date", "date", s.Date, true)
	e.date("board_approval_date", "boardApprovalDate", s.BoardApprovalDate, false)
}

func decodeSecurity(d *decoder) Security {
	return Security{
		SecurityID:        d.required("security_id", "securityId"),
		CustomID:          d.required("custom_id", "customId"),
		StakeholderID:     d.required("stakeholder_id", "stakeholderId"),
		Date:              d.date("date", "date", true),
		BoardApprovalDate: d.date("board_approval_date", "boardApprovalDate", false),
	}
}

// StockIssuance issues shares of a stock class to a stakeholder.
type StockIssuance struct {
	ID string `json:"id"`
	Security
	StockClassID   string    `json:"stock_class_id"`
	StockPlanID    string    `json:"stock_plan_id,omitempty"`
	Quantity       string    `json:"quantity"`
	SharePrice     *Monetary `json:"share_price"`
	VestingTermsID string    `json:"vesting_terms_id,omitempty"`
	StockLegendIDs []string  `json:"stock_legend_ids,omitempty"`
	IssuanceType   string    `json:"issuance_type,omitempty"`
	Comments       []string  `json:"comments,omitempty"`
}

// EntityID implements Payload.
func (s StockIssuance) EntityID() string { return s.ID }

// ConvertibleIssuance issues a note, SAFE or other convertible instrument.
type ConvertibleIssuance struct {
	ID string `json:"id"`
	Security
	ConvertibleType  string    `json:"convertible_type"`
	InvestmentAmount *Monetary `json:"investment_amount"`
	SeniorityRank    string    `json:"seniority"`
	Comments         []string  `json:"comments,omitempty"`
}

// EntityID implements Payload.
func (c ConvertibleIssuance) EntityID() string { return c.ID }

// WarrantIssuance issues a warrant to purchase shares.
type WarrantIssuance struct {
	ID string `json:"id"`
	Security
	Quantity       string    `json:"quantity,omitempty"`
	PurchasePrice  *Monetary `json:"purchase_price"`
	ExercisePrice  *Monetary `json:"exercise_price,omitempty"`
	ExpirationDate string    `json:"warrant_expiration_date,omitempty"`
	Comments       []string  `json:"comments,omitempty"`
}

// EntityID implements Payload.
func (w WarrantIssuance) EntityID() string { return w.ID }

// EquityCompensationIssuance issues options, RSUs or SARs, usually out of a
// stock plan.
type EquityCompensationIssuance struct {
	ID string `json:"id"`
	Security
	CompensationType string    `json:"compensation_type"`
	StockPlanID      string    `json:"stock_plan_id,omitempty"`
	StockClassID     string    `json:"stock_class_id,omitempty"`
	Quantity         string    `json:"quantity"`
	ExercisePrice    *Monetary `json:"exercise_price,omitempty"`
	ExpirationDate   string    `json:"expiration_date,omitempty"`
	VestingTermsID   string    `json:"vesting_terms_id,omitempty"`
	Comments         []string  `json:"comments,omitempty"`
}

// EntityID implements Payload.
func (c EquityCompensationIssuance) EntityID() string { return c.ID }

var (
	stockIssuanceTypes = newEnum("OcfStockIssuance", "RSA", "FOUNDERS_STOCK")
	convertibleTypes   = newEnum("OcfConvertible", "NOTE", "SAFE", "CONVERTIBLE_SECURITY")
	compensationTypes  = newEnum("OcfCompensation",
		"OPTION_ISO", "OPTION_NSO", "OPTION", "RSU", "CSAR", "SSAR",
	)
)

var stockIssuanceCodec = typedCodec[StockIssuance]{
	kind: KindStockIssuance,
	encode: func(e *encoder, s StockIssuance) {
		e.id(s.ID)
		s.Security.encode(e)
		e.required("stock_class_id", "stockClassId", s.StockClassID)
		e.optional("stockPlanId", s.StockPlanID)
		e.numeric("quantity", "quantity", s.Quantity, true)
		e.monetary("share_price", "sharePrice", s.SharePrice, true)
		e.optional("vestingTermsId", s.VestingTermsID)
		e.strings("stockLegendIds", s.StockLegendIDs)
		e.enum("issuance_type", "issuanceType", s.IssuanceType, stockIssuanceTypes, false)
		e.strings("comments", s.Comments)
	},
	decode: func(d *decoder) StockIssuance {
		return StockIssuance{
			ID:             d.id(),
			Security:       decodeSecurity(d),
			StockClassID:   d.required("stock_class_id", "stockClassId"),
			StockPlanID:    d.optional("stockPlanId"),
			Quantity:       d.required("quantity", "quantity"),
			SharePrice:     d.monetary("share_price", "sharePrice", true),
			VestingTermsID: d.optional("vestingTermsId"),
			StockLegendIDs: d.strings("stockLegendIds"),
			IssuanceType:   d.enum("issuance_type", "issuanceType", stockIssuanceTypes, false),
			Comments:       d.strings("comments"),
		}
	},
}

var convertibleIssuanceCodec = typedCodec[ConvertibleIssuance]{
	kind: KindConvertibleIssuance,
	encode: func(e *encoder, c ConvertibleIssuance) {
		e.id(c.ID)
		c.Security.encode(e)
		e.enum("convertible_type", "convertibleType", c.ConvertibleType, convertibleTypes, true)
		e.monetary("investment_amount", "investmentAmount", c.InvestmentAmount, true)
		e.numeric("seniority", "seniority", c.SeniorityRank, true)
		e.strings("comments", c.Comments)
	},
	decode: func(d *decoder) ConvertibleIssuance {
		return ConvertibleIssuance{
			ID:               d.id(),
			Security:         decodeSecurity(d),
			ConvertibleType:  d.enum("convertible_type", "convertibleType", convertibleTypes, true),
			InvestmentAmount: d.monetary("investment_amount", "investmentAmount", true),
			SeniorityRank:    d.required("seniority", "seniority"),
			Comments:         d.strings("comments"),
		}
	},
}

var warrantIssuanceCodec = typedCodec[WarrantIssuance]{
	kind: KindWarrantIssuance,
	encode: func(e *encoder, w WarrantIssuance) {
		e.id(w.ID)
		w.Security.encode(e)
		e.numeric("quantity", "quantity", w.Quantity, false)
		e.monetary("purchase_price", "purchasePrice", w.PurchasePrice, true)
		e.monetary("exercise_price", "exercisePrice", w.ExercisePrice, false)
		e.date("warrant_expiration_date", "warrantExpirationDate", w.ExpirationDate, false)
		e.strings("comments", w.Comments)
	},
	decode: func(d *decoder) WarrantIssuance {
		return WarrantIssuance{
			ID:             d.id(),
			Security:       decodeSecurity(d),
			Quantity:       d.optional("quantity"),
			PurchasePrice:  d.monetary("purchase_price", "purchasePrice", true),
			ExercisePrice:  d.monetary("exercise_price", "exercisePrice", false),
			ExpirationDate: d.date("warrant_expiration_date", "warrantExpirationDate", false),
			Comments:       d.strings("comments"),
		}
	},
}

var equityCompensationIssuanceCodec = typedCodec[EquityCompensationIssuance]{
	kind: KindEquityCompensationIssuance,
	encode: func(e *encoder, c EquityCompensationIssuance) {
		e.id(c.ID)
		c.Security.encode(e)
		e.enum("compensation_type", "compensationType", c.CompensationType, compensationTypes, true)
		e.optional("stockPlanId", c.StockPlanID)
		e.optional("stockClassId", c.StockClassID)
		e.numeric("quantity", "quantity", c.Quantity, true)
		e.monetary("exercise_price", "exercisePrice", c.ExercisePrice, false)
		e.date("expiration_date", "expirationDate", c.ExpirationDate, false)
		e.optional("vestingTermsId", c.VestingTermsID)
		e.strings("comments", c.Comments)
	},
	decode: func(d *decoder) EquityCompensationIssuance {
		return EquityCompensationIssuance{
			ID:               d.id(),
			Security:         decodeSecurity(d),
			CompensationType: d.enum("compensation_type", "compensationType", compensationTypes, true),
			StockPlanID:      d.optional("stockPlanId"),
			StockClassID:     d.optional("stockClassId"),
			Quantity:         d.required("quantity", "quantity"),
			ExercisePrice:    d.monetary("exercise_price", "exercisePrice", false),
			ExpirationDate:   d.date("expiration_date", "expirationDate", false),
			VestingTermsID:   d.optional("vestingTermsId"),
			Comments:         d.strings("comments"),
		}
	},
}
