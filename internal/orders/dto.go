package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jkimani/campus-delivery-backend/pkg/db/models"
	"github.com/jkimani/campus-delivery-backend/pkg/enums"
	"github.com/jkimani/campus-delivery-backend/pkg/pagination"
)

// PlaceOrderRequest dispatches the caller's cart as a new order.
type PlaceOrderRequest struct {
	DeliveryLocation string  `json:"delivery_location" validate:"required"`
	ContactPhone     string  `json:"contact_phone" validate:"required"`
	Notes            *string `json:"notes,omitempty"`
}

// UpdateDeliveryStatusRequest moves an order's delivery state forward
// and/or records a carrier tracking number.
type UpdateDeliveryStatusRequest struct {
	Status         *enums.DeliveryStatus `json:"delivery_status,omitempty"`
	TrackingNumber *string               `json:"tracking_number,omitempty"`
}

// UpdateStatusRequest is the admin order lifecycle transition.
type UpdateStatusRequest struct {
	Status enums.OrderStatus `json:"status" validate:"required"`
}

// CancelRequest soft-cancels an order with an optional reason.
type CancelRequest struct {
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// ItemDTO is one snapshotted order line.
type ItemDTO struct {
	ID        uuid.UUID       `json:"id"`
	ItemKind  enums.ItemKind  `json:"item_kind"`
	ItemID    uuid.UUID       `json:"item_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// OrderDTO is the full order detail including snapshotted items.
type OrderDTO struct {
	ID               uuid.UUID                `json:"id"`
	UserID           uuid.UUID                `json:"user_id"`
	AgentID          uuid.UUID                `json:"agent_id"`
	Total            decimal.Decimal          `json:"total"`
	Status           enums.OrderStatus        `json:"status"`
	PaymentStatus    enums.OrderPaymentStatus `json:"payment_status"`
	DeliveryStatus   enums.DeliveryStatus     `json:"delivery_status"`
	DeliveryLocation string                   `json:"delivery_location"`
	ContactPhone     string                   `json:"contact_phone"`
	Notes            *string                  `json:"notes,omitempty"`
	TrackingNumber   *string                  `json:"tracking_number,omitempty"`
	CancelReason     *string                  `json:"cancel_reason,omitempty"`
	Items            []ItemDTO                `json:"items"`
	CancelledAt      *time.Time               `json:"cancelled_at,omitempty"`
	DeliveredAt      *time.Time               `json:"delivered_at,omitempty"`
	CreatedAt        time.Time                `json:"created_at"`
	UpdatedAt        time.Time                `json:"updated_at"`
}

// Summary is the list shape without item lines.
type Summary struct {
	ID             uuid.UUID            `json:"id"`
	Total          decimal.Decimal      `json:"total"`
	Status         enums.OrderStatus    `json:"status"`
	DeliveryStatus enums.DeliveryStatus `json:"delivery_status"`
	ItemCount      int                  `json:"item_count"`
	CreatedAt      time.Time            `json:"created_at"`
}

// List wraps a page of order summaries.
type List struct {
	Orders     []Summary `json:"orders"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

// TrackingView is the customer-facing delivery progress snapshot.
type TrackingView struct {
	OrderID        uuid.UUID            `json:"order_id"`
	DeliveryStatus enums.DeliveryStatus `json:"delivery_status"`
	TrackingNumber *string              `json:"tracking_number,omitempty"`
	AgentName      string               `json:"agent_name,omitempty"`
	AgentPhone     string               `json:"agent_phone,omitempty"`
	DeliveredAt    *time.Time           `json:"delivered_at,omitempty"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// ListFilters narrows order listings. Nil fields apply no filter.
type ListFilters struct {
	Status         *enums.OrderStatus
	DeliveryStatus *enums.DeliveryStatus
	Pagination     pagination.Params
}

// FromModel converts a loaded order into its detail DTO.
func FromModel(order *models.Order) *OrderDTO {
	if order == nil {
		return nil
	}
	items := make([]ItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, ItemDTO{
			ID:        item.ID,
			ItemKind:  item.ItemKind,
			ItemID:    item.ItemID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal,
		})
	}
	return &OrderDTO{
		ID:               order.ID,
		UserID:           order.UserID,
		AgentID:          order.AgentID,
		Total:            order.Total,
		Status:           order.Status,
		PaymentStatus:    order.PaymentStatus,
		DeliveryStatus:   order.DeliveryStatus,
		DeliveryLocation: order.DeliveryLocation,
		ContactPhone:     order.ContactPhone,
		Notes:            order.Notes,
		TrackingNumber:   order.TrackingNumber,
		CancelReason:     order.CancelReason,
		Items:            items,
		CancelledAt:      order.CancelledAt,
		DeliveredAt:      order.DeliveredAt,
		CreatedAt:        order.CreatedAt,
		UpdatedAt:        order.UpdatedAt,
	}
}
