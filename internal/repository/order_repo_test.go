package repository

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"shoppay/internal/models"
	"shoppay/internal/payment"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.Order{}))
	return db
}

func seedOrder(t *testing.T, repo *OrderRepository, id, total string) *models.Order {
	t.Helper()
	order := &models.Order{ID: id, UserID: "u1", PaymentMethod: "VNPAY", TotalPrice: decimal.RequireFromString(total)}
	require.NoError(t, repo.Create(context.Background(), order))
	return order
}

func completed(txn string) models.PaymentResult {
	return models.PaymentResult{
		ID:            "ref",
		Status:        payment.StatusCompleted,
		UpdateTime:    "20261017094512",
		EmailAddress:  "vnpay@vnpay.vn",
		TransactionNo: &txn,
	}
}

func TestOrderRepository_CreateAndFind(t *testing.T) {
	repo := NewOrderRepository(newTestDB(t))
	ctx := context.Background()

	order := &models.Order{TotalPrice: decimal.RequireFromString("10.50")}
	require.NoError(t, repo.Create(ctx, order))
	assert.Len(t, order.ID, 32)

	got, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, decimal.RequireFromString("10.50").Equal(got.TotalPrice))
	assert.False(t, got.IsPaid)
	assert.Nil(t, got.PaymentResult.TransactionNo)

	missing, err := repo.FindByID(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	none, err := repo.FindByTransactionNo(ctx, "14123456")
	assert.NoError(t, err)
	assert.Nil(t, none)
}

func TestOrderRepository_MarkPaid(t *testing.T) {
	repo := NewOrderRepository(newTestDB(t))
	ctx := context.Background()
	seedOrder(t, repo, "o1", "10.00")
	paidAt := time.Date(2026, 10, 17, 2, 45, 12, 0, time.UTC)

	order, err := repo.MarkPaid(ctx, "o1", paidAt, completed("14123456"))
	require.NoError(t, err)
	assert.True(t, order.IsPaid)
	require.NotNil(t, order.PaidAt)
	assert.True(t, paidAt.Equal(*order.PaidAt))
	assert.Equal(t, payment.StatusCompleted, order.PaymentResult.Status)
	assert.Equal(t, "vnpay@vnpay.vn", order.PaymentResult.EmailAddress)
	assert.Equal(t, "14123456", order.PaymentResult.TransactionNumber())

	byTxn, err := repo.FindByTransactionNo(ctx, "14123456")
	require.NoError(t, err)
	require.NotNil(t, byTxn)
	assert.Equal(t, "o1", byTxn.ID)
}

func TestOrderRepository_MarkPaid_Conditional(t *testing.T) {
	repo := NewOrderRepository(newTestDB(t))
	ctx := context.Background()
	seedOrder(t, repo, "o1", "10.00")
	seedOrder(t, repo, "o2", "10.00")
	now := time.Now()

	_, err := repo.MarkPaid(ctx, "o1", now, completed("T1"))
	require.NoError(t, err)

	_, err = repo.MarkPaid(ctx, "o1", now, completed("T2"))
	assert.ErrorIs(t, err, payment.ErrNotApplied, "already paid")

	_, err = repo.MarkPaid(ctx, "o2", now, completed("T1"))
	assert.ErrorIs(t, err, payment.ErrNotApplied, "transaction held by o1")

	_, err = repo.MarkPaid(ctx, "missing", now, completed("T3"))
	assert.ErrorIs(t, err, payment.ErrNotApplied)

	_, err = repo.MarkPaid(ctx, "o2", now, models.PaymentResult{Status: payment.StatusCompleted})
	assert.ErrorIs(t, err, payment.ErrMissingTransactionNo)

	o2, err := repo.FindByID(ctx, "o2")
	require.NoError(t, err)
	assert.False(t, o2.IsPaid)
}

func TestOrderRepository_PendingReconcile(t *testing.T) {
	repo := NewOrderRepository(newTestDB(t))
	ctx := context.Background()
	base := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "a", "b", "fresh", "paid", "never"} {
		seedOrder(t, repo, id, "5.00")
		if id == "never" {
			continue
		}
		at := base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, repo.RecordPaymentRequest(ctx, id, at.Format(payment.TimeLayout), "127.0.0.1", at))
	}
	_, err := repo.MarkPaid(ctx, "paid", base, completed("TP"))
	require.NoError(t, err)

	orders, err := repo.FindPendingReconcile(ctx, base.Add(30*time.Minute), base.Add(2*time.Hour+30*time.Minute), 10)
	require.NoError(t, err)

	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	assert.Equal(t, []string{"a", "b"}, ids)
	assert.Equal(t, base.Add(time.Hour).Format(payment.TimeLayout), orders[0].PaymentCreateDate)
	assert.Equal(t, "127.0.0.1", orders[0].PaymentClientIP)
}
