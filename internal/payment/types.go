package payment

import (
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// TimeLayout is the fourteen-digit yyyyMMddHHmmss stamp used on the wire.
	TimeLayout = "20060102150405"

	// SuccessCode is the only response code that means money moved.
	SuccessCode = "00"
	// UnknownCode stands in for a callback that carries no response code.
	UnknownCode = "99"

	StatusCompleted = "COMPLETED"
)

// Clock supplies the current time.
type Clock func() time.Time

// Params is a flat gateway parameter set. Empty values count as absent.
type Params map[string]string

// ParamsFromValues keeps the first value of every key.
func ParamsFromValues(values url.Values) Params {
	p := make(Params, len(values))
	for k, v := range values {
		if len(v) > 0 {
			p[k] = v[0]
		}
	}
	return p
}

// Without returns a copy of p with the given keys removed.
func (p Params) Without(keys ...string) Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// CallbackResult is the verified view of a gateway callback. Callers must check
// SignatureValid before trusting any other field.
type CallbackResult struct {
	SignatureValid    bool            `json:"signature_valid"`
	BusinessSuccess   bool            `json:"business_success"`
	ResponseCode      string          `json:"response_code"`
	TransactionStatus string          `json:"transaction_status,omitempty"`
	Amount            decimal.Decimal `json:"amount"` // ledger currency, major unit
	MinorAmount       int64           `json:"minor_amount"`
	TransactionNo     string          `json:"transaction_no,omitempty"`
	OrderRef          string          `json:"order_ref"`
	BankCode          string          `json:"bank_code,omitempty"`
	PayDate           string          `json:"pay_date,omitempty"`
	PaidAt            time.Time       `json:"paid_at,omitempty"`
}
