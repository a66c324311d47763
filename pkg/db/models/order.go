package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jkimani/campus-delivery-backend/pkg/enums"
)

// Order is the immutable record produced when a cart is dispatched.
type Order struct {
	ID               uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID           uuid.UUID                `gorm:"column:user_id;type:uuid;not null;index"`
	AgentID          uuid.UUID                `gorm:"column:agent_id;type:uuid;not null;index"`
	Total            decimal.Decimal          `gorm:"column:total;type:numeric(12,2);not null"`
	Status           enums.OrderStatus        `gorm:"column:status;type:order_status;not null;default:'pending'"`
	PaymentStatus    enums.OrderPaymentStatus `gorm:"column:payment_status;type:order_payment_status;not null;default:'UNPAID'"`
	DeliveryStatus   enums.DeliveryStatus     `gorm:"column:delivery_status;type:delivery_status;not null;default:'processing'"`
	DeliveryLocation string                   `gorm:"column:delivery_location;not null"`
	ContactPhone     string                   `gorm:"column:contact_phone;not null"`
	Notes            *string                  `gorm:"column:notes"`
	TrackingNumber   *string                  `gorm:"column:tracking_number"`
	CancelReason     *string                  `gorm:"column:cancel_reason"`
	CancelledAt      *time.Time               `gorm:"column:cancelled_at"`
	DeliveredAt      *time.Time               `gorm:"column:delivered_at"`
	Items            []OrderItem              `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payment          *Payment                 `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
