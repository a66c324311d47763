package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jkimani/campus-delivery-backend/pkg/enums"
)

// OrderPlacedEvent signals that a cart was dispatched into an order.
type OrderPlacedEvent struct {
	OrderID   uuid.UUID       `json:"order_id"`
	UserID    uuid.UUID       `json:"user_id"`
	AgentID   uuid.UUID       `json:"agent_id"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
	PlacedAt  time.Time       `json:"placed_at"`
}

// OrderCancelledEvent is emitted when a customer cancels a pending order.
type OrderCancelledEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	UserID      uuid.UUID `json:"user_id"`
	AgentID     uuid.UUID `json:"agent_id"`
	CancelledAt time.Time `json:"cancelled_at"`
	Reason      string    `json:"reason,omitempty"`
}

// OrderStatusChangedEvent reports an admin lifecycle transition.
type OrderStatusChangedEvent struct {
	OrderID   uuid.UUID         `json:"order_id"`
	UserID    uuid.UUID         `json:"user_id"`
	Status    enums.OrderStatus `json:"status"`
	ChangedAt time.Time         `json:"changed_at"`
}

// DeliveryStateChangedEvent reports an agent updating delivery progress.
type DeliveryStateChangedEvent struct {
	OrderID        uuid.UUID            `json:"order_id"`
	UserID         uuid.UUID            `json:"user_id"`
	AgentID        uuid.UUID            `json:"agent_id"`
	DeliveryStatus enums.DeliveryStatus `json:"delivery_status"`
}

// PaymentInitiatedEvent reports an STK push sent to the customer handset.
type PaymentInitiatedEvent struct {
	PaymentID     uuid.UUID       `json:"payment_id"`
	OrderID       uuid.UUID       `json:"order_id"`
	UserID        uuid.UUID       `json:"user_id"`
	Amount        decimal.Decimal `json:"amount"`
	TransactionID string          `json:"transaction_id"`
}

// PaymentStatusEvent carries settlement outcomes (completed/failed/refunded).
type PaymentStatusEvent struct {
	PaymentID     uuid.UUID           `json:"payment_id"`
	OrderID       uuid.UUID           `json:"order_id"`
	UserID        uuid.UUID           `json:"user_id"`
	Amount        decimal.Decimal     `json:"amount"`
	Status        enums.PaymentStatus `json:"status"`
	TransactionID string              `json:"transaction_id"`
	MpesaReceipt  string              `json:"mpesa_receipt,omitempty"`
	ResultDesc    string              `json:"result_desc,omitempty"`
}
