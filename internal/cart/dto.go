package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jkimani/campus-delivery-backend/pkg/enums"
)

// AddItemRequest puts an item in the cart, merging quantity with any
// existing line for the same item.
type AddItemRequest struct {
	ItemKind enums.ItemKind `json:"item_kind" validate:"required"`
	ItemID   uuid.UUID      `json:"item_id" validate:"required"`
	Quantity int            `json:"quantity" validate:"required,gt=0"`
}

// UpdateQuantityRequest replaces the quantity on an existing cart line.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

// Line is one cart entry with its catalog details resolved at read time.
type Line struct {
	ID          uuid.UUID       `json:"id"`
	ItemKind    enums.ItemKind  `json:"item_kind"`
	ItemID      uuid.UUID       `json:"item_id"`
	Name        string          `json:"name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
	IsAvailable bool            `json:"is_available"`
	AddedAt     time.Time       `json:"added_at"`
}

// View is the full cart with a running total over available lines.
type View struct {
	Items []Line          `json:"items"`
	Total decimal.Decimal `json:"total"`
}
