package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"shoppay/internal/models"
	"shoppay/internal/payment"
	"shoppay/internal/pkg/utils"
)

// OrderRepository handles order database operations for the payment flow.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts a new order, assigning an id when none is set.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == "" {
		order.ID = utils.NewRequestID()
	}
	return r.db.WithContext(ctx).Create(order).Error
}

// FindByID returns the order, or nil when it does not exist.
func (r *OrderRepository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByTransactionNo returns the order a gateway transaction was recorded on,
// or nil when the number is unused.
func (r *OrderRepository) FindByTransactionNo(ctx context.Context, transactionNo string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Where("payment_transaction_no = ?", transactionNo).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// MarkPaid flips an unpaid order to paid in one statement. The update only
// matches while the order is unpaid and no row holds the transaction number;
// payment.ErrNotApplied is returned when it matched nothing.
func (r *OrderRepository) MarkPaid(ctx context.Context, id string, paidAt time.Time, result models.PaymentResult) (*models.Order, error) {
	txn := result.TransactionNumber()
	if txn == "" {
		return nil, payment.ErrMissingTransactionNo
	}

	// MySQL refuses a subquery on the table being updated unless it is
	// materialised through a derived table.
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND is_paid = ?", id, false).
		Where("NOT EXISTS (SELECT 1 FROM (SELECT id FROM orders WHERE payment_transaction_no = ?) AS dup)", txn).
		Updates(map[string]interface{}{
			"is_paid":                true,
			"paid_at":                paidAt.UTC(),
			"payment_id":             result.ID,
			"payment_status":         result.Status,
			"payment_update_time":    result.UpdateTime,
			"payment_email_address":  result.EmailAddress,
			"payment_transaction_no": txn,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("mark order %s paid: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, payment.ErrNotApplied
	}
	return r.FindByID(ctx, id)
}

// RecordPaymentRequest stores the stamp of the latest payment attempt.
func (r *OrderRepository) RecordPaymentRequest(ctx context.Context, id, createDate, clientIP string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND is_paid = ?", id, false).
		Updates(map[string]interface{}{
			"payment_requested_at": at.UTC(),
			"payment_create_date":  createDate,
			"payment_client_ip":    clientIP,
		}).Error
}

// FindPendingReconcile returns unpaid orders whose last payment attempt was made
// within [from, to], oldest first.
func (r *OrderRepository) FindPendingReconcile(ctx context.Context, from, to time.Time, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("is_paid = ? AND payment_requested_at IS NOT NULL", false).
		Where("payment_requested_at >= ? AND payment_requested_at <= ?", from.UTC(), to.UTC()).
		Order("payment_requested_at ASC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}
