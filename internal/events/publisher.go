package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"shoppay/internal/models"
)

const (
	DefaultTopic        = "order.paid"
	defaultBatchSize    = 100
	defaultBatchTimeout = 100 * time.Millisecond
)

// OrderPaid is the payload published once an order settles.
type OrderPaid struct {
	OrderID       string          `json:"orderId"`
	UserID        string          `json:"userId,omitempty"`
	TransactionNo string          `json:"transactionNo"`
	Amount        decimal.Decimal `json:"amount"`
	PaidAt        time.Time       `json:"paidAt"`
}

// NewOrderPaid builds the event for a freshly settled order.
func NewOrderPaid(order *models.Order) OrderPaid {
	ev := OrderPaid{
		OrderID:       order.ID,
		UserID:        order.UserID,
		TransactionNo: order.PaymentResult.TransactionNumber(),
		Amount:        order.TotalPrice,
	}
	if order.PaidAt != nil {
		ev.PaidAt = *order.PaidAt
	}
	return ev
}

// Publisher announces settled orders to downstream consumers.
type Publisher interface {
	PublishOrderPaid(ctx context.Context, order *models.Order) error
	Close() error
}

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewWriter creates a synchronous writer that waits for all replicas.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	if topic == "" {
		topic = DefaultTopic
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.ReferenceHash{},
		BatchSize:              defaultBatchSize,
		BatchTimeout:           defaultBatchTimeout,
		RequiredAcks:           kafka.RequireAll,
		Async:                  false,
		AllowAutoTopicCreation: false,
	}
}

// KafkaPublisher writes OrderPaid events keyed by order id, so every event of
// one order lands on the same partition.
type KafkaPublisher struct {
	writer MessageWriter
	logger *zap.Logger
}

func NewKafkaPublisher(writer MessageWriter, logger *zap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaPublisher{writer: writer, logger: logger}
}

func (p *KafkaPublisher) PublishOrderPaid(ctx context.Context, order *models.Order) error {
	ev := NewOrderPaid(order)
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal order.paid: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(ev.OrderID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte("order.paid")},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish order.paid %s: %w", ev.OrderID, err)
	}
	p.logger.Debug("Published order.paid",
		zap.String("order_id", ev.OrderID),
		zap.String("transaction_no", ev.TransactionNo),
	)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops every event. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishOrderPaid(context.Context, *models.Order) error { return nil }

func (NopPublisher) Close() error { return nil }
