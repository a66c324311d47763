package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/jkimani/campus-delivery-backend/pkg/enums"
)

// Review is a rating left by a user against a product or service. One
// review per user per item.
type Review struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID      `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_reviews_user_item"`
	ItemKind  enums.ItemKind `gorm:"column:item_kind;type:item_kind;not null;uniqueIndex:idx_reviews_user_item"`
	ItemID    uuid.UUID      `gorm:"column:item_id;type:uuid;not null;uniqueIndex:idx_reviews_user_item"`
	Rating    int            `gorm:"column:rating;not null"`
	Comment   *string        `gorm:"column:comment"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
