package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order maps to the `orders` table. Only the fields the payment flow reads or
// writes are modelled here.
type Order struct {
	ID            string          `gorm:"column:id;primaryKey;size:64" json:"id"`
	UserID        string          `gorm:"column:user_id;size:64;index" json:"user"`
	PaymentMethod string          `gorm:"column:payment_method;size:50" json:"paymentMethod"`
	TotalPrice    decimal.Decimal `gorm:"column:total_price;type:decimal(12,2)" json:"totalPrice"`

	IsPaid        bool          `gorm:"column:is_paid;default:false;index" json:"isPaid"`
	PaidAt        *time.Time    `gorm:"column:paid_at" json:"paidAt,omitempty"`
	PaymentResult PaymentResult `gorm:"embedded;embeddedPrefix:payment_" json:"paymentResult"`

	IsDelivered bool       `gorm:"column:is_delivered;default:false" json:"isDelivered"`
	DeliveredAt *time.Time `gorm:"column:delivered_at" json:"deliveredAt,omitempty"`

	// Last payment attempt, kept so the reconcile job can query its status.
	PaymentRequestedAt *time.Time `gorm:"column:payment_requested_at;index" json:"-"`
	PaymentCreateDate  string     `gorm:"column:payment_create_date;size:14" json:"-"`
	PaymentClientIP    string     `gorm:"column:payment_client_ip;size:45" json:"-"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (Order) TableName() string {
	return "orders"
}

// PaymentResult is the gateway's confirmation as recorded on the order.
// TransactionNo is unique across orders; NULL until the order is paid.
type PaymentResult struct {
	ID            string  `gorm:"size:64" json:"id,omitempty"`
	Status        string  `gorm:"size:30" json:"status,omitempty"`
	UpdateTime    string  `gorm:"size:30" json:"updateTime,omitempty"`
	EmailAddress  string  `gorm:"size:255" json:"emailAddress,omitempty"`
	TransactionNo *string `gorm:"size:64;uniqueIndex:idx_orders_payment_transaction_no" json:"transactionNo,omitempty"`
}

// TransactionNumber returns the recorded gateway transaction number, or "".
func (p PaymentResult) TransactionNumber() string {
	if p.TransactionNo == nil {
		return ""
	}
	return *p.TransactionNo
}
