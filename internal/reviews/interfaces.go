package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jkimani/campus-delivery-backend/pkg/db/models"
	"github.com/jkimani/campus-delivery-backend/pkg/enums"
	"github.com/jkimani/campus-delivery-backend/pkg/pagination"
)

// Repository persists reviews.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, review *models.Review) (*models.Review, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error)
	ListForItem(ctx context.Context, kind enums.ItemKind, itemID uuid.UUID, filters ListFilters) ([]models.Review, *pagination.Cursor, error)
	AggregateForItem(ctx context.Context, kind enums.ItemKind, itemID uuid.UUID) (*Summary, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
