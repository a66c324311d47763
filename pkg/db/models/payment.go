package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jkimani/campus-delivery-backend/pkg/enums"
)

// Payment tracks one STK push attempt for an order. TransactionID holds
// the provider checkout id and is the correlation key for callbacks.
type Payment struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	UserID        uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	Amount        decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	PhoneNumber   string              `gorm:"column:phone_number;not null"`
	Method        enums.PaymentMethod `gorm:"column:method;type:payment_method;not null;default:'mpesa'"`
	Status        enums.PaymentStatus `gorm:"column:status;type:payment_status;not null;default:'PENDING'"`
	TransactionID string              `gorm:"column:transaction_id;not null;uniqueIndex"`
	MpesaReceipt  *string             `gorm:"column:mpesa_receipt"`
	ResultDesc    *string             `gorm:"column:result_desc"`
	PaidAt        *time.Time          `gorm:"column:paid_at"`
	RefundedAt    *time.Time          `gorm:"column:refunded_at"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
