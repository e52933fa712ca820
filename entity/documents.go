package entity

// StockLegendTemplate is legend text printed on share certificates.
type StockLegendTemplate struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Text     string   `json:"text"`
	Comments []string `json:"comments,omitempty"`
}

// EntityID implements Payload.
func (s StockLegendTemplate) EntityID() string { return s.ID }

// Valuation is a price-per-share determination for a stock class.
type Valuation struct {
	ID                string    `json:"id"`
	StockClassID      string    `json:"stock_class_id"`
	Provider          string    `json:"provider,omitempty"`
	BoardApprovalDate string    `json:"board_approval_date,omitempty"`
	PricePerShare     *Monetary `json:"price_per_share"`
	EffectiveDate     string    `json:"effective_date"`
	ValuationType     string    `json:"valuation_type"`
	Comments          []string  `json:"comments,omitempty"`
}

// EntityID implements Payload.
func (v Valuation) EntityID() string { return v.ID }

// Document references an external file attached to the record. Exactly one
// of Path and URI is set.
type Document struct {
	ID       string   `json:"id"`
	Path     string   `json:"path,omitempty"`
	URI      string   `json:"uri,omitempty"`
	MD5      string   `json:"md5"`
	Comments []string `json:"comments,omitempty"`
}

// EntityID implements Payload.
func (d Document) EntityID() string { return d.ID }

var valuationTypes = newEnum("OcfValuationType", "409A")

var stockLegendTemplateCodec = typedCodec[StockLegendTemplate]{
	kind: KindStockLegendTemplate,
	encode: func(e *encoder, s StockLegendTemplate) {
		e.id(s.ID)
		e.required("name", "name", s.Name)
		e.required("text", "text", s.Text)
		e.strings("comments", s.Comments)
	},
	decode: func(d *decoder) StockLegendTemplate {
		return StockLegendTemplate{
			ID:       d.id(),
			Name:     d.required("name", "name"),
			Text:     d.required("text", "text"),
			Comments: d.strings("comments"),
		}
	},
}

var valuationCodec = typedCodec[Valuation]{
	kind: KindValuation,
	encode: func(e *encoder, v Valuation) {
		e.id(v.ID)
		e.required("stock_class_id", "stockClassId", v.StockClassID)
		e.optional("provider", v.Provider)
		e.date("board_approval_date", "boardApprovalDate", v.BoardApprovalDate, false)
		e.monetary("price_per_share", "pricePerShare", v.PricePerShare, true)
		e.date("effective_date", "effectiveDate", v.EffectiveDate, true)
		e.enum("valuation_type", "valuationType", v.ValuationType, valuationTypes, true)
		e.strings("comments", v.Comments)
	},
	decode: func(d *decoder) Valuation {
		return Valuation{
			ID:                d.id(),
			StockClassID:      d.required("stock_class_id", "stockClassId"),
			Provider:          d.optional("provider"),
			BoardApprovalDate: d.date("board_approval_date", "boardApprovalDate", false),
			PricePerShare:     d.monetary("price_per_share", "pricePerShare", true),
			EffectiveDate:     d.date("effective_date", "effectiveDate", true),
			ValuationType:     d.enum("valuation_type", "valuationType", valuationTypes, true),
			Comments:          d.strings("comments"),
		}
	},
}

var documentCodec = typedCodec[Document]{
	kind: KindDocument,
	encode: func(e *encoder, doc Document) {
		e.id(doc.ID)
		switch {
		case doc.Path != "" && doc.URI != "":
			e.fail("uri", "cannot be combined with path")
		case doc.Path == "" && doc.URI == "":
			e.fail("path", "path or uri is required")
		}
		e.optional("path", doc.Path)
		e.optional("uri", doc.URI)
		e.required("md5", "md5", doc.MD5)
		e.strings("comments", doc.Comments)
	},
	decode: func(d *decoder) Document {
		return Document{
			ID:       d.id(),
			Path:     d.optional("path"),
			URI:      d.optional("uri"),
			MD5:      d.required("md5", "md5"),
			Comments: d.strings("comments"),
		}
	},
}
