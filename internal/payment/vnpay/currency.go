package vnpay

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"shoppay/internal/payment"
)

var (
	hundred  = decimal.NewFromInt(100)
	maxMajor = decimal.NewFromInt(math.MaxInt64 / 100)
)

// ToMinor converts a ledger amount into the gateway's integer minor unit:
// round(amount * rate) whole VND, times 100.
func ToMinor(amount, rate decimal.Decimal) (int64, error) {
	if !rate.IsPositive() {
		return 0, fmt.Errorf("%w: exchange rate %s", payment.ErrConfiguration, rate)
	}
	vnd := amount.Mul(rate).Round(0)
	if !vnd.IsPositive() {
		return 0, fmt.Errorf("%w: %s converts to %s VND", payment.ErrInvalidAmount, amount, vnd)
	}
	if vnd.GreaterThan(maxMajor) {
		return 0, fmt.Errorf("%w: %s is out of range", payment.ErrInvalidAmount, amount)
	}
	return vnd.IntPart() * 100, nil
}

// FromMinor inverts ToMinor, rounding half-up to two decimal places.
func FromMinor(minor int64, rate decimal.Decimal) decimal.Decimal {
	if !rate.IsPositive() {
		return decimal.Zero
	}
	return decimal.NewFromInt(minor).Div(hundred).Div(rate).Round(2)
}
