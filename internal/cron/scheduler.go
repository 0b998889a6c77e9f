package cron

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"shoppay/internal/config"
	"shoppay/internal/metrics"
	"shoppay/internal/models"
	"shoppay/internal/payment"
	"shoppay/internal/payment/settlement"
	"shoppay/internal/payment/vnpay"
)

// PendingOrders lists orders whose payment outcome is still unknown.
type PendingOrders interface {
	FindPendingReconcile(ctx context.Context, from, to time.Time, limit int) ([]models.Order, error)
}

// TransactionQuerier asks the gateway for the status of a past attempt.
type TransactionQuerier interface {
	QueryTransaction(ctx context.Context, req vnpay.QueryRequest) (*payment.CallbackResult, error)
}

// Settler applies a verified payment result to an order.
type Settler interface {
	Settle(ctx context.Context, res *payment.CallbackResult, orderID string) (*settlement.Outcome, error)
}

// Scheduler manages all cron jobs.
type Scheduler struct {
	cron    *cron.Cron
	cfg     config.ReconcileConfig
	orders  PendingOrders
	querier TransactionQuerier
	settler Settler
	logger  *zap.Logger
	now     payment.Clock

	// guards against a slow pass overlapping the next tick
	running sync.Mutex
}

// New creates a new cron scheduler.
func New(cfg config.ReconcileConfig, orders PendingOrders, querier TransactionQuerier, settler Settler, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		cfg:     cfg,
		orders:  orders,
		querier: querier,
		settler: settler,
		logger:  logger,
		now:     time.Now,
	}
}

// Start registers and starts all cron jobs.
func (s *Scheduler) Start() error {
	s.logger.Info("Starting cron scheduler...")

	// Reconcile payments whose return and IPN never arrived - every 5 minutes by default
	if _, err := s.cron.AddFunc(s.cfg.Spec, func() {
		s.logger.Debug("Running: payment reconcile")
		s.reconcile()
	}); err != nil {
		return fmt.Errorf("schedule reconcile %q: %w", s.cfg.Spec, err)
	}

	s.cron.Start()
	s.logger.Info("Cron scheduler started", zap.String("reconcile", s.cfg.Spec))
	return nil
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) reconcile() {
	defer s.recoverFromPanic("reconcile")

	if !s.running.TryLock() {
		s.logger.Debug("Reconcile still running, skipping tick")
		metrics.ReconcileRun(metrics.ResultSkipped, time.Now())
		return
	}
	defer s.running.Unlock()

	timeout := s.cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if _, err := s.ReconcileOnce(ctx); err != nil {
		s.logger.Error("Payment reconcile failed", zap.Error(err))
	}
}

// ReconcileOnce queries the gateway for every unpaid order whose payment
// attempt has expired within the reconcile window, and settles the ones the
// gateway reports as paid. It returns how many orders were marked paid.
func (s *Scheduler) ReconcileOnce(ctx context.Context) (int, error) {
	started := time.Now()
	now := s.now()

	orders, err := s.orders.FindPendingReconcile(ctx, now.Add(-s.cfg.Window), now.Add(-s.cfg.MinAge), s.cfg.BatchSize)
	if err != nil {
		metrics.ReconcileRun(metrics.ResultError, started)
		return 0, fmt.Errorf("list pending orders: %w", err)
	}

	settled := 0
	for _, order := range orders {
		if ctx.Err() != nil {
			break
		}
		log := s.logger.With(zap.String("order_id", order.ID))

		res, err := s.querier.QueryTransaction(ctx, vnpay.QueryRequest{
			OrderRef:        order.ID,
			TransactionDate: order.PaymentCreateDate,
			ClientIP:        order.PaymentClientIP,
		})
		if err != nil {
			log.Warn("Transaction status query failed", zap.Error(err))
			continue
		}
		if !res.SignatureValid {
			log.Warn("Transaction status response has an invalid signature")
			continue
		}
		if !res.BusinessSuccess {
			log.Debug("Transaction not paid", zap.String("status", res.ResponseCode))
			continue
		}

		out, err := s.settler.Settle(ctx, res, order.ID)
		if err != nil {
			continue
		}
		if out.Applied {
			settled++
		}
	}

	metrics.ReconcileRun(metrics.ResultOK, started)
	s.logger.Info("Payment reconcile completed",
		zap.Int("checked", len(orders)),
		zap.Int("settled", settled),
	)
	return settled, nil
}

func (s *Scheduler) recoverFromPanic(jobName string) {
	if r := recover(); r != nil {
		s.logger.Error("Cron job panicked", zap.String("job", jobName), zap.Any("error", r))
	}
}
