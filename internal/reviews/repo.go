package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jkimani/campus-delivery-backend/pkg/db/models"
	"github.com/jkimani/campus-delivery-backend/pkg/enums"
	"github.com/jkimani/campus-delivery-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a review repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, review *models.Review) (*models.Review, error) {
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		return nil, err
	}
	return review, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).First(&review, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *repository) ListForItem(ctx context.Context, kind enums.ItemKind, itemID uuid.UUID, filters ListFilters) ([]models.Review, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("item_kind = ? AND item_id = ?", kind, itemID)
	if cursor, err := pagination.ParseCursor(filters.Pagination.Cursor); err == nil && cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	limit := pagination.LimitWithBuffer(filters.Pagination.Limit)
	normalized := pagination.NormalizeLimit(filters.Pagination.Limit)

	var reviews []models.Review
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&reviews).Error; err != nil {
		return nil, nil, err
	}

	if len(reviews) > normalized {
		next := reviews[normalized]
		reviews = reviews[:normalized]
		return reviews, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return reviews, nil, nil
}

func (r *repository) AggregateForItem(ctx context.Context, kind enums.ItemKind, itemID uuid.UUID) (*Summary, error) {
	var summary Summary
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS average_rating, COUNT(*) AS review_count").
		Where("item_kind = ? AND item_id = ?", kind, itemID).
		Scan(&summary).Error
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Review{}, "id = ?", id).Error
}
