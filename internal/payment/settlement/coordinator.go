package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"shoppay/internal/metrics"
	"shoppay/internal/models"
	"shoppay/internal/payment"
)

const (
	// DefaultPayer is recorded as the payer identity of every gateway payment.
	DefaultPayer = "vnpay@vnpay.vn"
)

// DefaultTolerance absorbs rounding from the ledger/VND conversion.
var DefaultTolerance = decimal.RequireFromString("0.01")

// OrderStore is the persistence the coordinator needs. MarkPaid must be a
// single conditional write: it applies only while the order is unpaid and no
// order holds the transaction number, and returns payment.ErrNotApplied
// otherwise. Lookups return nil, nil for a missing row.
type OrderStore interface {
	FindByID(ctx context.Context, id string) (*models.Order, error)
	FindByTransactionNo(ctx context.Context, transactionNo string) (*models.Order, error)
	MarkPaid(ctx context.Context, id string, paidAt time.Time, result models.PaymentResult) (*models.Order, error)
}

// Notifier is told about orders that were just marked paid.
type Notifier interface {
	PublishOrderPaid(ctx context.Context, order *models.Order) error
}

// Outcome is the result of a successful Settle. Applied is false when the order
// was already paid and nothing was written.
type Outcome struct {
	Order   *models.Order
	Applied bool
}

type Coordinator struct {
	store     OrderStore
	tolerance decimal.Decimal
	payer     string
	now       payment.Clock
	notifier  Notifier
	logger    *zap.Logger
}

type Option func(*Coordinator)

func WithTolerance(d decimal.Decimal) Option {
	return func(c *Coordinator) {
		if !d.IsNegative() {
			c.tolerance = d
		}
	}
}

func WithClock(now payment.Clock) Option {
	return func(c *Coordinator) { c.now = now }
}

func WithNotifier(n Notifier) Option {
	return func(c *Coordinator) { c.notifier = n }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

func WithPayer(p string) Option {
	return func(c *Coordinator) { c.payer = p }
}

func NewCoordinator(store OrderStore, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:     store,
		tolerance: DefaultTolerance,
		payer:     DefaultPayer,
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Settle applies a verified callback to orderID. Every rejection leaves the
// order untouched and is returned as one of the payment package errors.
func (c *Coordinator) Settle(ctx context.Context, res *payment.CallbackResult, orderID string) (*Outcome, error) {
	out, err := c.settle(ctx, res, orderID)
	metrics.Settlement(resultLabel(out, err))

	log := c.logger.With(zap.String("order_id", orderID))
	if res != nil {
		log = log.With(zap.String("transaction_no", res.TransactionNo), zap.String("response_code", res.ResponseCode))
	}
	switch {
	case err == nil && out.Applied:
		log.Info("Order marked paid")
	case err == nil:
		log.Info("Order already paid, callback ignored")
	case errors.Is(err, payment.ErrInvalidSignature), errors.Is(err, payment.ErrAmountMismatch),
		errors.Is(err, payment.ErrDuplicateTransaction), errors.Is(err, payment.ErrOrderReferenceMismatch):
		log.Warn("Settlement rejected", zap.Error(err))
	case errors.Is(err, payment.ErrPaymentDeclined), errors.Is(err, payment.ErrOrderNotFound),
		errors.Is(err, payment.ErrMissingTransactionNo):
		log.Info("Settlement skipped", zap.Error(err))
	default:
		log.Error("Settlement failed", zap.Error(err))
	}
	return out, err
}

func (c *Coordinator) settle(ctx context.Context, res *payment.CallbackResult, orderID string) (*Outcome, error) {
	if res == nil || !res.SignatureValid {
		return nil, payment.ErrInvalidSignature
	}
	if !res.BusinessSuccess {
		return nil, &payment.DeclinedError{Code: res.ResponseCode}
	}
	if res.TransactionNo == "" {
		return nil, payment.ErrMissingTransactionNo
	}

	holder, err := c.store.FindByTransactionNo(ctx, res.TransactionNo)
	if err != nil {
		return nil, fmt.Errorf("look up transaction %s: %w", res.TransactionNo, err)
	}
	if holder != nil && holder.ID != orderID {
		return nil, &payment.DuplicateTransactionError{TransactionNo: res.TransactionNo, OrderID: holder.ID}
	}

	order, err := c.store.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order %s: %w", orderID, err)
	}
	if order == nil {
		return nil, payment.ErrOrderNotFound
	}
	if res.OrderRef != "" && res.OrderRef != order.ID {
		return nil, fmt.Errorf("%w: callback references %s", payment.ErrOrderReferenceMismatch, res.OrderRef)
	}
	if res.Amount.Sub(order.TotalPrice).Abs().GreaterThan(c.tolerance) {
		return nil, &payment.AmountMismatchError{Expected: order.TotalPrice, Actual: res.Amount, Tolerance: c.tolerance}
	}
	if order.IsPaid {
		return &Outcome{Order: order}, nil
	}

	txn := res.TransactionNo
	updateTime := res.PayDate
	if updateTime == "" {
		updateTime = c.now().Format(payment.TimeLayout)
	}
	paid, err := c.store.MarkPaid(ctx, order.ID, c.now(), models.PaymentResult{
		ID:            order.ID,
		Status:        payment.StatusCompleted,
		UpdateTime:    updateTime,
		EmailAddress:  c.payer,
		TransactionNo: &txn,
	})
	if err != nil {
		return c.classifyLostWrite(ctx, order.ID, txn, err)
	}

	if c.notifier != nil {
		if nerr := c.notifier.PublishOrderPaid(ctx, paid); nerr != nil {
			c.logger.Error("Failed to publish order.paid", zap.String("order_id", paid.ID), zap.Error(nerr))
		}
	}
	return &Outcome{Order: paid, Applied: true}, nil
}

// classifyLostWrite explains a conditional write that did not apply: another
// delivery either paid this order first or claimed the transaction number.
func (c *Coordinator) classifyLostWrite(ctx context.Context, orderID, txn string, cause error) (*Outcome, error) {
	holder, err := c.store.FindByTransactionNo(ctx, txn)
	if err == nil && holder != nil && holder.ID != orderID {
		return nil, &payment.DuplicateTransactionError{TransactionNo: txn, OrderID: holder.ID}
	}
	order, err := c.store.FindByID(ctx, orderID)
	if err == nil && order != nil && order.IsPaid {
		return &Outcome{Order: order}, nil
	}
	if errors.Is(cause, payment.ErrNotApplied) && err == nil && order == nil {
		return nil, payment.ErrOrderNotFound
	}
	return nil, fmt.Errorf("mark order %s paid: %w", orderID, cause)
}

func resultLabel(out *Outcome, err error) string {
	switch {
	case err == nil && out.Applied:
		return metrics.ResultApplied
	case err == nil:
		return metrics.ResultNoop
	case errors.Is(err, payment.ErrInvalidSignature):
		return metrics.ResultInvalid
	case errors.Is(err, payment.ErrPaymentDeclined):
		return metrics.ResultDeclined
	case errors.Is(err, payment.ErrDuplicateTransaction):
		return metrics.ResultDuplicate
	case errors.Is(err, payment.ErrOrderNotFound):
		return metrics.ResultNotFound
	case errors.Is(err, payment.ErrAmountMismatch):
		return metrics.ResultAmount
	default:
		return metrics.ResultError
	}
}
