package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jkimani/campus-delivery-backend/pkg/db/models"
	"github.com/jkimani/campus-delivery-backend/pkg/enums"
)

// Repository exposes cart persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// Upsert inserts a cart line or adds quantity to the existing line
	// for the same (user, kind, item) triple.
	Upsert(ctx context.Context, item *models.CartItem) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	// ListByUserForUpdate locks the user's cart rows for the duration
	// of the surrounding transaction.
	ListByUserForUpdate(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	FindLine(ctx context.Context, userID uuid.UUID, kind enums.ItemKind, itemID uuid.UUID) (*models.CartItem, error)
	UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) error
	Delete(ctx context.Context, userID, id uuid.UUID) (bool, error)
	ClearUser(ctx context.Context, userID uuid.UUID) error
}
