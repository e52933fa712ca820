package entity

// Kind tags one business-entity type of the capitalization record.
type Kind string

// Entity kinds.
const (
	KindStakeholder                Kind = "stakeholder"
	KindStockClass                 Kind = "stock_class"
	KindStockPlan                  Kind = "stock_plan"
	KindVestingTerms               Kind = "vesting_terms"
	KindStockLegendTemplate        Kind = "stock_legend_template"
	KindValuation                  Kind = "valuation"
	KindDocument                   Kind = "document"
	KindStockIssuance              Kind = "stock_issuance"
	KindConvertibleIssuance        Kind = "convertible_issuance"
	KindWarrantIssuance            Kind = "warrant_issuance"
	KindEquityCompensationIssuance Kind = "equity_compensation_issuance"
	KindStockTransfer              Kind = "stock_transfer"
	KindStockCancellation          Kind = "stock_cancellation"
)

// nativeTags holds the ledger constructor suffix for each kind. The compiled
// request tags operations as "OcfCreate"+tag, "OcfEdit"+tag, "OcfDelete"+tag.
var nativeTags = map[Kind]string{
	KindStakeholder:                "Stakeholder",
	KindStockClass:                 "StockClass",
	KindStockPlan:                  "StockPlan",
	KindVestingTerms:               "VestingTerms",
	KindStockLegendTemplate:        "StockLegendTemplate",
	KindValuation:                  "Valuation",
	KindDocument:                   "Document",
	KindStockIssuance:              "StockIssuance",
	KindConvertibleIssuance:        "ConvertibleIssuance",
	KindWarrantIssuance:            "WarrantIssuance",
	KindEquityCompensationIssuance: "EquityCompensationIssuance",
	KindStockTransfer:              "StockTransfer",
	KindStockCancellation:          "StockCancellation",
}

// NativeTag returns the ledger constructor suffix for k, or "" if unknown.
func (k Kind) NativeTag() string { return nativeTags[k] }

// Payload is the kind-specific data of one business entity. Every payload
// carries its caller-chosen natural key.
type Payload interface {
	EntityID() string
}
