package models

// ErrorResponse is the JSON body of every rejected API request.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// CreatePaymentRequest is the optional body of POST /api/orders/:id/vnpay.
type CreatePaymentRequest struct {
	BankCode string `json:"bankCode,omitempty"`
	Language string `json:"language,omitempty"`
}

// PaymentURLResponse carries the signed redirect target.
type PaymentURLResponse struct {
	PaymentURL string `json:"paymentUrl"`
}

// IPNResponse is the acknowledgement format the gateway expects from the
// server-to-server notification endpoint.
type IPNResponse struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
}

// IPN acknowledgement codes.
const (
	RspConfirmed        = "00"
	RspOrderNotFound    = "01"
	RspAlreadyConfirmed = "02"
	RspInvalidAmount    = "04"
	RspInvalidSignature = "97"
	RspUnknown          = "99"
)
