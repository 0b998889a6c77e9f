package vnpay

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"shoppay/internal/payment"
)

// Gateway implements payment.Gateway for VNPAY's redirect/return protocol.
type Gateway struct {
	cfg Config
	now payment.Clock
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithClock replaces the wall clock used for request timestamps.
func WithClock(now payment.Clock) Option {
	return func(g *Gateway) { g.now = now }
}

func New(cfg Config, opts ...Option) *Gateway {
	g := &Gateway{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gateway) Name() string {
	return "vnpay"
}

// Config returns the merchant settings the gateway was built with.
func (g *Gateway) Config() Config {
	return g.cfg
}

// BuildPaymentURL signs a payment attempt for charge. Each call stamps the
// current time, so two calls never yield the same URL in practice.
func (g *Gateway) BuildPaymentURL(charge payment.Charge, client payment.ClientContext) (*payment.PaymentRequest, error) {
	if err := g.cfg.Validate(); err != nil {
		return nil, err
	}
	orderID := strings.TrimSpace(charge.OrderID)
	if orderID == "" {
		return nil, fmt.Errorf("%w: order id is empty", payment.ErrInvalidOrderID)
	}
	if !charge.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: %s must be greater than zero", payment.ErrInvalidAmount, charge.Amount)
	}
	minor, err := ToMinor(charge.Amount, g.cfg.Rate())
	if err != nil {
		return nil, err
	}

	info := SanitizeOrderInfo(charge.Description)
	if info == "" {
		info = "Thanh toan don hang " + SanitizeOrderInfo(orderID)
	}
	locale := client.Locale
	if locale == "" {
		locale = g.cfg.locale()
	}

	created := g.now().In(g.cfg.location()).Truncate(time.Second)
	req := &payment.PaymentRequest{
		MerchantCode: g.cfg.TmnCode,
		Amount:       minor,
		CurrencyCode: GatewayCurrency,
		OrderRef:     orderID,
		OrderInfo:    info,
		ReturnURL:    g.cfg.ReturnURL,
		ClientIP:     NormalizeIP(client.IP),
		Locale:       locale,
		CreatedAt:    created,
	}

	params := payment.Params{
		FieldVersion:    g.cfg.version(),
		FieldCommand:    CommandPay,
		FieldTmnCode:    req.MerchantCode,
		FieldAmount:     strconv.FormatInt(req.Amount, 10),
		FieldCreateDate: created.Format(payment.TimeLayout),
		FieldCurrCode:   req.CurrencyCode,
		FieldIPAddr:     req.ClientIP,
		FieldLocale:     req.Locale,
		FieldOrderInfo:  req.OrderInfo,
		FieldOrderType:  g.cfg.orderType(),
		FieldReturnURL:  req.ReturnURL,
		FieldTxnRef:     req.OrderRef,
		FieldBankCode:   client.BankCode,
	}
	if g.cfg.ExpireWindow > 0 {
		req.ExpireAt = created.Add(g.cfg.ExpireWindow)
		params[FieldExpireDate] = req.ExpireAt.Format(payment.TimeLayout)
	}

	data := Encode(params)
	req.Signature = Sign(data, g.cfg.HashSecret)

	sep := "?"
	if strings.Contains(g.cfg.PayURL, "?") {
		sep = "&"
	}
	req.URL = g.cfg.PayURL + sep + data + "&" + FieldSecureHash + "=" + req.Signature
	return req, nil
}

// VerifyCallback classifies a return or IPN callback. Fields are filled in even
// when the signature is bad, but BusinessSuccess is then always false.
func (g *Gateway) VerifyCallback(params payment.Params) *payment.CallbackResult {
	res := &payment.CallbackResult{
		SignatureValid:    Verify(params, g.cfg.HashSecret),
		ResponseCode:      params[FieldResponseCode],
		TransactionStatus: params[FieldTransactionStatus],
		TransactionNo:     params[FieldTransactionNo],
		OrderRef:          params[FieldTxnRef],
		BankCode:          params[FieldBankCode],
		PayDate:           params[FieldPayDate],
	}
	if res.ResponseCode == "" {
		res.ResponseCode = payment.UnknownCode
	}
	res.BusinessSuccess = res.SignatureValid && res.ResponseCode == payment.SuccessCode

	if minor, err := strconv.ParseInt(params[FieldAmount], 10, 64); err == nil && minor > 0 {
		res.MinorAmount = minor
		res.Amount = FromMinor(minor, g.cfg.Rate())
	}
	if t, err := time.ParseInLocation(payment.TimeLayout, res.PayDate, g.cfg.location()); err == nil {
		res.PaidAt = t
	}
	return res
}
