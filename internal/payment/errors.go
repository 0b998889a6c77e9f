package payment

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrConfiguration          = errors.New("payment gateway is not configured")
	ErrInvalidAmount          = errors.New("invalid payment amount")
	ErrInvalidOrderID         = errors.New("invalid order id")
	ErrInvalidSignature       = errors.New("invalid callback signature")
	ErrPaymentDeclined        = errors.New("payment declined by gateway")
	ErrDuplicateTransaction   = errors.New("transaction already applied")
	ErrMissingTransactionNo   = errors.New("callback carries no transaction number")
	ErrOrderNotFound          = errors.New("order not found")
	ErrOrderReferenceMismatch = errors.New("callback belongs to another order")
	ErrAmountMismatch         = errors.New("paid amount does not match order total")

	// ErrNotApplied is returned by stores when a conditional update matched no row.
	ErrNotApplied = errors.New("conditional update not applied")
)

// DeclinedError carries the gateway response code of a failed payment.
type DeclinedError struct {
	Code string
}

func (e *DeclinedError) Error() string {
	return fmt.Sprintf("payment declined by gateway (code %s)", e.Code)
}

func (e *DeclinedError) Is(target error) bool { return target == ErrPaymentDeclined }

// DuplicateTransactionError reports a transaction number already recorded on an order.
type DuplicateTransactionError struct {
	TransactionNo string
	OrderID       string
}

func (e *DuplicateTransactionError) Error() string {
	return fmt.Sprintf("transaction %s already applied to order %s", e.TransactionNo, e.OrderID)
}

func (e *DuplicateTransactionError) Is(target error) bool { return target == ErrDuplicateTransaction }

// AmountMismatchError reports a callback amount outside the configured tolerance.
type AmountMismatchError struct {
	Expected  decimal.Decimal
	Actual    decimal.Decimal
	Tolerance decimal.Decimal
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("paid amount %s does not match order total %s (tolerance %s)",
		e.Actual.StringFixed(2), e.Expected.StringFixed(2), e.Tolerance.String())
}

func (e *AmountMismatchError) Is(target error) bool { return target == ErrAmountMismatch }
