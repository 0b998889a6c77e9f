package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

// Charge describes what the customer is asked to pay for one attempt.
type Charge struct {
	OrderID     string
	Amount      decimal.Decimal // ledger currency, major unit
	Description string
}

// ClientContext carries request-scoped data about the paying browser.
type ClientContext struct {
	IP       string
	Locale   string
	BankCode string
}

// PaymentRequest is the signed parameter set of one payment attempt.
// It is never persisted; the order remains the durable record.
type PaymentRequest struct {
	MerchantCode string    `json:"merchant_code"`
	Amount       int64     `json:"amount"` // gateway minor unit
	CurrencyCode string    `json:"currency_code"`
	OrderRef     string    `json:"order_ref"`
	OrderInfo    string    `json:"order_info"`
	ReturnURL    string    `json:"return_url"`
	ClientIP     string    `json:"client_ip"`
	Locale       string    `json:"locale"`
	CreatedAt    time.Time `json:"created_at"`
	ExpireAt     time.Time `json:"expire_at,omitempty"`
	Signature    string    `json:"signature"`
	URL          string    `json:"payment_url"`
}

// CreateDate returns the creation stamp in the gateway's fourteen-digit layout.
func (r *PaymentRequest) CreateDate() string {
	return r.CreatedAt.Format(TimeLayout)
}

// Gateway defines the interface for redirect-style payment gateways.
type Gateway interface {
	// Name returns the gateway identifier.
	Name() string

	// BuildPaymentURL signs a new payment attempt and returns the redirect target.
	BuildPaymentURL(charge Charge, client ClientContext) (*PaymentRequest, error)

	// VerifyCallback checks an inbound callback. It never fails; the outcome is
	// reported through the result.
	VerifyCallback(params Params) *CallbackResult
}
