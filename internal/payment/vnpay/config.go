package vnpay

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"shoppay/internal/payment"
)

const (
	DefaultVersion   = "2.1.0"
	DefaultLocale    = "vn"
	DefaultOrderType = "other"
	GatewayCurrency  = "VND"
	DefaultTimeZone  = "Asia/Ho_Chi_Minh"
)

// Config holds merchant settings. It is always passed in explicitly; nothing in
// this package reads the environment.
type Config struct {
	TmnCode    string
	HashSecret string
	PayURL     string
	ReturnURL  string
	QueryURL   string

	Version   string
	Locale    string
	OrderType string

	// LedgerCurrency is the currency order totals are kept in. When it differs
	// from VND, ExchangeRate converts one ledger unit into VND.
	LedgerCurrency string
	ExchangeRate   decimal.Decimal

	ExpireWindow time.Duration
	Location     *time.Location
}

// Validate reports the first missing merchant setting.
func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.TmnCode) == "":
		return fmt.Errorf("%w: merchant code (VNPAY_TMN_CODE) is empty", payment.ErrConfiguration)
	case c.HashSecret == "":
		return fmt.Errorf("%w: hash secret (VNPAY_HASH_SECRET) is empty", payment.ErrConfiguration)
	case strings.TrimSpace(c.PayURL) == "":
		return fmt.Errorf("%w: gateway url (VNPAY_API_URL) is empty", payment.ErrConfiguration)
	case strings.TrimSpace(c.ReturnURL) == "":
		return fmt.Errorf("%w: return url (VNPAY_RETURN_URL) is empty", payment.ErrConfiguration)
	case c.converts() && !c.ExchangeRate.IsPositive():
		return fmt.Errorf("%w: exchange rate must be positive for %s ledgers", payment.ErrConfiguration, c.LedgerCurrency)
	}
	return nil
}

func (c Config) converts() bool {
	return c.LedgerCurrency != "" && !strings.EqualFold(c.LedgerCurrency, GatewayCurrency)
}

// Rate is the number of VND per ledger unit.
func (c Config) Rate() decimal.Decimal {
	if !c.converts() {
		return decimal.NewFromInt(1)
	}
	return c.ExchangeRate
}

func (c Config) version() string {
	if c.Version == "" {
		return DefaultVersion
	}
	return c.Version
}

func (c Config) locale() string {
	if c.Locale == "" {
		return DefaultLocale
	}
	return c.Locale
}

func (c Config) orderType() string {
	if c.OrderType == "" {
		return DefaultOrderType
	}
	return c.OrderType
}

func (c Config) location() *time.Location {
	if c.Location != nil {
		return c.Location
	}
	return gatewayZone
}

// gatewayZone is GMT+7; the gateway interprets all stamps in that zone.
var gatewayZone = loadZone(DefaultTimeZone)

func loadZone(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("ICT", 7*60*60)
	}
	return loc
}

// LoadLocation resolves a zone name, falling back to a fixed GMT+7 offset when
// the host has no tzdata.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return gatewayZone
	}
	return loadZone(name)
}
