package payments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jkimani/campus-delivery-backend/pkg/db/models"
	"github.com/jkimani/campus-delivery-backend/pkg/enums"
)

// InitiateRequest starts an STK push for an order.
type InitiateRequest struct {
	OrderID     uuid.UUID `json:"order_id" validate:"required"`
	PhoneNumber string    `json:"phone_number" validate:"required,e164"`
}

// PaymentDTO is the transport shape for payment records.
type PaymentDTO struct {
	ID            uuid.UUID           `json:"id"`
	OrderID       uuid.UUID           `json:"order_id"`
	Amount        decimal.Decimal     `json:"amount"`
	PhoneNumber   string              `json:"phone_number"`
	Method        enums.PaymentMethod `json:"method"`
	Status        enums.PaymentStatus `json:"status"`
	TransactionID string              `json:"transaction_id"`
	MpesaReceipt  *string             `json:"mpesa_receipt,omitempty"`
	ResultDesc    *string             `json:"result_desc,omitempty"`
	PaidAt        *time.Time          `json:"paid_at,omitempty"`
	RefundedAt    *time.Time          `json:"refunded_at,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// InitiateResponse surfaces the provider prompt to the client.
type InitiateResponse struct {
	Payment         *PaymentDTO `json:"payment"`
	CustomerMessage string      `json:"customer_message,omitempty"`
}

// FromModel converts a persisted payment into its transport shape.
func FromModel(p *models.Payment) *PaymentDTO {
	if p == nil {
		return nil
	}
	return &PaymentDTO{
		ID:            p.ID,
		OrderID:       p.OrderID,
		Amount:        p.Amount,
		PhoneNumber:   p.PhoneNumber,
		Method:        p.Method,
		Status:        p.Status,
		TransactionID: p.TransactionID,
		MpesaReceipt:  p.MpesaReceipt,
		ResultDesc:    p.ResultDesc,
		PaidAt:        p.PaidAt,
		RefundedAt:    p.RefundedAt,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
