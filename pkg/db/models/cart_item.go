package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/jkimani/campus-delivery-backend/pkg/enums"
)

// CartItem holds one product or service line in a user's cart. A user
// carries at most one row per (kind, item) pair; adding again bumps the
// quantity instead.
type CartItem struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID      `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_cart_items_user_item"`
	ItemKind  enums.ItemKind `gorm:"column:item_kind;type:item_kind;not null;uniqueIndex:idx_cart_items_user_item"`
	ItemID    uuid.UUID      `gorm:"column:item_id;type:uuid;not null;uniqueIndex:idx_cart_items_user_item"`
	Quantity  int            `gorm:"column:quantity;not null"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
