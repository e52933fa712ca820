package entity

// StockClass is a class of shares the issuer is authorized to issue.
type StockClass struct {
	ID                      string    `json:"id"`
	Name                    string    `json:"name"`
	ClassType               string    `json:"class_type"`
	DefaultIDPrefix         string    `json:"default_id_prefix"`
	InitialSharesAuthorized string    `json:"initial_shares_authorized"`
	VotesPerShare           string    `json:"votes_per_share"`
	SeniorityRank           string    `json:"seniority"`
	ParValue                *Monetary `json:"par_value,omitempty"`
	PricePerShare           *Monetary `json:"price_per_share,omitempty"`
	BoardApprovalDate       string    `json:"board_approval_date,omitempty"`
	Comments                []string  `json:"comments,omitempty"`
}

// EntityID implements Payload.
func (s StockClass) EntityID() string { return s.ID }

// StockPlan is an equity incentive plan reserving shares for issuance.
type StockPlan struct {
	ID                          string `json:"id"`
	PlanName                    string `json:"plan_name"`
	BoardApprovalDate           string `json:"board_approval_date,omitempty"`
	InitialSharesReserved       string `json:"initial_shares_reserved"`
	DefaultCancellationBehavior string `json:"default_cancellation_behavior,omitempty"`

	// Deprecated: use StockClassIDs.
	StockClassID  string   `json:"stock_class_id,omitempty"`
	StockClassIDs []string `json:"stock_class_ids,omitempty"`

	Comments []string `json:"comments,omitempty"`
}

// EntityID implements Payload.
func (s StockPlan) EntityID() string { return s.ID }

var (
	stockClassTypes       = newEnum("OcfStockClassType", "COMMON", "PREFERRED")
	cancellationBehaviors = newEnum("OcfPlanCancel",
		"RETIRE", "RETURN_TO_POOL", "HOLD_AS_CAPITAL_STOCK", "DEFINED_PER_PLAN_SECURITY",
	)
)

// authorizedShares accepts a decimal count or one of the sentinel strings
// the ledger models as constructors.
var authorizedSentinels = map[string]string{
	"UNLIMITED":      "OcfAuthorizedSharesUnlimited",
	"NOT_APPLICABLE": "OcfAuthorizedSharesNotApplicable",
}

func encodeAuthorized(e *encoder, field, key, v string) {
	if native, ok := authorizedSentinels[v]; ok {
		e.set(key, native)
		return
	}
	e.numeric(field, key, v, true)
}

func decodeAuthorized(d *decoder, field, key string) string {
	v := d.required(field, key)
	for plain, native := range authorizedSentinels {
		if v == native {
			return plain
		}
	}
	return v
}

var stockClassCodec = typedCodec[StockClass]{
	kind: KindStockClass,
	encode: func(e *encoder, s StockClass) {
		e.id(s.ID)
		e.required("name", "name", s.Name)
		e.enum("class_type", "classType", s.ClassType, stockClassTypes, true)
		e.required("default_id_prefix", "defaultIdPrefix", s.DefaultIDPrefix)
		encodeAuthorized(e, "initial_shares_authorized", "initialSharesAuthorized", s.InitialSharesAuthorized)
		e.numeric("votes_per_share", "votesPerShare", s.VotesPerShare, true)
		e.numeric("seniority", "seniority", s.SeniorityRank, true)
		e.monetary("par_value", "parValue", s.ParValue, false)
		e.monetary("price_per_share", "pricePerShare", s.PricePerShare, false)
		e.date("board_approval_date", "boardApprovalDate", s.BoardApprovalDate, false)
		e.strings("comments", s.Comments)
	},
	decode: func(d *decoder) StockClass {
		return StockClass{
			ID:                      d.id(),
			Name:                    d.required("name", "name"),
			ClassType:               d.enum("class_type", "classType", stockClassTypes, true),
			DefaultIDPrefix:         d.required("default_id_prefix", "defaultIdPrefix"),
			InitialSharesAuthorized: decodeAuthorized(d, "initial_shares_authorized", "initialSharesAuthorized"),
			VotesPerShare:           d.required("votes_per_share", "votesPerShare"),
			SeniorityRank:           d.required("seniority", "seniority"),
			ParValue:                d.monetary("par_value", "parValue", false),
			PricePerShare:           d.monetary("price_per_share", "pricePerShare", false),
			BoardApprovalDate:       d.date("board_approval_date", "boardApprovalDate", false),
			Comments:                d.strings("comments"),
		}
	},
}

var stockPlanCodec = typedCodec[StockPlan]{
	kind: KindStockPlan,
	encode: func(e *encoder, s StockPlan) {
		e.id(s.ID)
		e.required("plan_name", "planName", s.PlanName)
		e.date("board_approval_date", "boardApprovalDate", s.BoardApprovalDate, false)
		e.numeric("initial_shares_reserved", "initialSharesReserved", s.InitialSharesReserved, true)
		e.enum("default_cancellation_behavior", "defaultCancellationBehavior",
			s.DefaultCancellationBehavior, cancellationBehaviors, false)
		e.strings("stockClassIds", s.StockClassIDs)
		e.strings("comments", s.Comments)
	},
	decode: func(d *decoder) StockPlan {
		return StockPlan{
			ID:                    d.id(),
			PlanName:              d.required("plan_name", "planName"),
			BoardApprovalDate:     d.date("board_approval_date", "boardApprovalDate", false),
			InitialSharesReserved: d.required("initial_shares_reserved", "initialSharesReserved"),
			DefaultCancellationBehavior: d.enum("default_cancellation_behavior", "defaultCancellationBehavior",
				cancellationBehaviors, false),
			StockClassIDs: d.strings("stockClassIds"),
			Comments:      d.strings("comments"),
		}
	},
	normalize: func(s StockPlan) (StockPlan, []Deprecation) {
		ids, legacy := NormalizeSingular(s.StockClassID, s.StockClassIDs)
		s.StockClassID = ""
		s.StockClassIDs = ids
		if !legacy {
			return s, nil
		}
		return s, []Deprecation{{
			Kind:        KindStockPlan,
			EntityID:    s.ID,
			Field:       "stock_class_id",
			Replacement: "stock_class_ids",
		}}
	},
}
