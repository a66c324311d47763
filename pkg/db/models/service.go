package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Service is a bookable catalog item, priced per engagement.
type Service struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CategoryID      *uuid.UUID      `gorm:"column:category_id;type:uuid"`
	Name            string          `gorm:"column:name;not null"`
	Description     *string         `gorm:"column:description"`
	Price           decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	DurationMinutes *int            `gorm:"column:duration_minutes"`
	ImageURL        *string         `gorm:"column:image_url"`
	Tags            pq.StringArray  `gorm:"column:tags;type:text[];not null;default:ARRAY[]::text[]"`
	IsAvailable     bool            `gorm:"column:is_available;not null;default:true"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
