package entity

// StockTransfer moves some or all shares of a security to new holders.
type StockTransfer struct {
	ID                   string   `json:"id"`
	SecurityID           string   `json:"security_id"`
	Date                 string   `json:"date"`
	Quantity             string   `json:"quantity"`
	ResultingSecurityIDs []string `json:"resulting_security_ids"`
	BalanceSecurityID    string   `json:"balance_security_id,omitempty"`
	Comments             []string `json:"comments,omitempty"`
}

// EntityID implements Payload.
func (t StockTransfer) EntityID() string { return t.ID }

// StockCancellation cancels some or all shares of a security.
type StockCancellation struct {
	ID                string   `json:"id"`
	SecurityID        string   `json:"security_id"`
	Date              string   `json:"date"`
	Quantity          string   `json:"quantity"`
	Reason            string   `json:"reason_text"`
	BalanceSecurityID string   `json:"balance_security_id,omitempty"`
	Comments          []string `json:"comments,omitempty"`
}

// EntityID implements Payload.
func (c StockCancellation) EntityID() string { return c.ID }

var stockTransferCodec = typedCodec[StockTransfer]{
	kind: KindStockTransfer,
	encode: func(e *encoder, t StockTransfer) {
		e.id(t.ID)
		e.required("security_id", "securityId", t.SecurityID)
		e.date("date", "date", t.Date, true)
		e.numeric("quantity", "quantity", t.Quantity, true)
		if len(t.ResultingSecurityIDs) == 0 {
			e.fail("resulting_security_ids", "at least one resulting security is required")
			return
		}
		e.strings("resultingSecurityIds", t.ResultingSecurityIDs)
		e.optional("balanceSecurityId", t.BalanceSecurityID)
		e.strings("comments", t.Comments)
	},
	decode: func(d *decoder) StockTransfer {
		return StockTransfer{
			ID:                   d.id(),
			SecurityID:           d.required("security_id", "securityId"),
			Date:                 d.date("date", "date", true),
			Quantity:             d.required("quantity", "quantity"),
			ResultingSecurityIDs: d.strings("resultingSecurityIds"),
			BalanceSecurityID:    d.optional("balanceSecurityId"),
			Comments:             d.strings("comments"),
		}
	},
}

var stockCancellationCodec = typedCodec[StockCancellation]{
	kind: KindStockCancellation,
	encode: func(e *encoder, c StockCancellation) {
		e.id(c.ID)
		e.required("security_id", "securityId", c.SecurityID)
		e.date("date", "date", c.Date, true)
		e.numeric("quantity", "quantity", c.Quantity, true)
		e.required("reason_text", "reasonText", c.Reason)
		e.optional("balanceSecurityId", c.BalanceSecurityID)
		e.strings("comments", c.Comments)
	},
	decode: func(d *decoder) StockCancellation {
		return StockCancellation{
			ID:                d.id(),
			SecurityID:        d.required("security_id", "securityId"),
			Date:              d.date("date", "date", true),
			Quantity:          d.required("quantity", "quantity"),
			Reason:            d.required("reason_text", "reasonText"),
			BalanceSecurityID: d.optional("balanceSecurityId"),
			Comments:          d.strings("comments"),
		}
	},
}
