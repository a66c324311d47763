package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jkimani/campus-delivery-backend/pkg/db/models"
	"github.com/jkimani/campus-delivery-backend/pkg/pagination"
)

// Repository exposes catalog persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error)
	FindCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, updates map[string]any) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	ListProducts(ctx context.Context, filters ListFilters) ([]models.Product, *pagination.Cursor, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]any) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	CreateService(ctx context.Context, service *models.Service) (*models.Service, error)
	FindServiceByID(ctx context.Context, id uuid.UUID) (*models.Service, error)
	FindServicesByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Service, error)
	ListServices(ctx context.Context, filters ListFilters) ([]models.Service, *pagination.Cursor, error)
	UpdateService(ctx context.Context, id uuid.UUID, updates map[string]any) error
	DeleteService(ctx context.Context, id uuid.UUID) error
}
