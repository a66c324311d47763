package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/jkimani/campus-delivery-backend/pkg/db"
	"github.com/jkimani/campus-delivery-backend/pkg/db/models"
	"github.com/jkimani/campus-delivery-backend/pkg/enums"
	pkgerrors "github.com/jkimani/campus-delivery-backend/pkg/errors"
	"github.com/jkimani/campus-delivery-backend/pkg/pagination"
)

// Service defines catalog operations used by the controllers plus item
// resolution for cart and order flows.
type Service interface {
	CreateCategory(ctx context.Context, req CreateCategoryRequest) (*models.Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, req UpdateCategoryRequest) (*models.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	CreateProduct(ctx context.Context, req CreateProductRequest) (*models.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, filters ListFilters) ([]models.Product, *pagination.Cursor, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	CreateService(ctx context.Context, req CreateServiceRequest) (*models.Service, error)
	GetService(ctx context.Context, id uuid.UUID) (*models.Service, error)
	ListServices(ctx context.Context, filters ListFilters) ([]models.Service, *pagination.Cursor, error)
	UpdateService(ctx context.Context, id uuid.UUID, req UpdateServiceRequest) (*models.Service, error)
	DeleteService(ctx context.Context, id uuid.UUID) error

	// ResolveItems loads current catalog state for the given refs. The
	// returned map only contains refs that exist.
	ResolveItems(ctx context.Context, refs []ItemRef) (map[ItemRef]ResolvedItem, error)
}

type service struct {
	repo Repository
}

// NewService constructs a catalog service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateCategory(ctx context.Context, req CreateCategoryRequest) (*models.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name required")
	}
	category, err := s.repo.CreateCategory(ctx, &models.Category{
		Name:        name,
		Description: req.Description,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "ux_categories_name") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create category")
	}
	return category, nil
}

func (s *service) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	category, err := s.repo.FindCategoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load category")
	}
	return category, nil
}

func (s *service) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	return categories, nil
}

func (s *service) UpdateCategory(ctx context.Context, id uuid.UUID, req UpdateCategoryRequest) (*models.Category, error) {
	updates := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name cannot be empty")
		}
		updates["name"] = name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}

	if _, err := s.GetCategory(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateCategory(ctx, id, updates); err != nil {
		if db.IsUniqueViolation(err, "ux_categories_name") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update category")
	}
	return s.GetCategory(ctx, id)
}

func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetCategory(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete category")
	}
	return nil
}

func (s *service) CreateProduct(ctx context.Context, req CreateProductRequest) (*models.Product, error) {
	if err := s.validateItemBase(ctx, req.Name, req.Price.IsPositive(), req.CategoryID); err != nil {
		return nil, err
	}
	if req.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}

	product, err := s.repo.CreateProduct(ctx, &models.Product{
		CategoryID:  req.CategoryID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
		Tags:        tagsOrEmpty(req.Tags),
		IsAvailable: true,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	return product, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return product, nil
}

func (s *service) ListProducts(ctx context.Context, filters ListFilters) ([]models.Product, *pagination.Cursor, error) {
	products, next, err := s.repo.ListProducts(ctx, filters)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	return products, next, nil
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*models.Product, error) {
	if _, err := s.GetProduct(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.CategoryID != nil {
		if err := s.ensureCategory(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
		updates["category_id"] = *req.CategoryID
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be empty")
		}
		updates["name"] = name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		if !req.Price.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		updates["price"] = *req.Price
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		updates["stock"] = *req.Stock
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}
	if req.Tags != nil {
		updates["tags"] = tagsOrEmpty(req.Tags)
	}
	if req.IsAvailable != nil {
		updates["is_available"] = *req.IsAvailable
	}

	if err := s.repo.UpdateProduct(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
	}
	return s.GetProduct(ctx, id)
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetProduct(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
	}
	return nil
}

func (s *service) CreateService(ctx context.Context, req CreateServiceRequest) (*models.Service, error) {
	if err := s.validateItemBase(ctx, req.Name, req.Price.IsPositive(), req.CategoryID); err != nil {
		return nil, err
	}
	if req.DurationMinutes != nil && *req.DurationMinutes <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "duration must be positive")
	}

	created, err := s.repo.CreateService(ctx, &models.Service{
		CategoryID:      req.CategoryID,
		Name:            strings.TrimSpace(req.Name),
		Description:     req.Description,
		Price:           req.Price,
		DurationMinutes: req.DurationMinutes,
		ImageURL:        req.ImageURL,
		Tags:            tagsOrEmpty(req.Tags),
		IsAvailable:     true,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create service")
	}
	return created, nil
}

func (s *service) GetService(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	svc, err := s.repo.FindServiceByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load service")
	}
	return svc, nil
}

func (s *service) ListServices(ctx context.Context, filters ListFilters) ([]models.Service, *pagination.Cursor, error) {
	services, next, err := s.repo.ListServices(ctx, filters)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list services")
	}
	return services, next, nil
}

func (s *service) UpdateService(ctx context.Context, id uuid.UUID, req UpdateServiceRequest) (*models.Service, error) {
	if _, err := s.GetService(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.CategoryID != nil {
		if err := s.ensureCategory(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
		updates["category_id"] = *req.CategoryID
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "service name cannot be empty")
		}
		updates["name"] = name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		if !req.Price.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		updates["price"] = *req.Price
	}
	if req.DurationMinutes != nil {
		if *req.DurationMinutes <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duration must be positive")
		}
		updates["duration_minutes"] = *req.DurationMinutes
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}
	if req.Tags != nil {
		updates["tags"] = tagsOrEmpty(req.Tags)
	}
	if req.IsAvailable != nil {
		updates["is_available"] = *req.IsAvailable
	}

	if err := s.repo.UpdateService(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update service")
	}
	return s.GetService(ctx, id)
}

func (s *service) DeleteService(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetService(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteService(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete service")
	}
	return nil
}

func (s *service) ResolveItems(ctx context.Context, refs []ItemRef) (map[ItemRef]ResolvedItem, error) {
	productIDs := make([]uuid.UUID, 0, len(refs))
	serviceIDs := make([]uuid.UUID, 0, len(refs))
	for _, ref := range refs {
		switch ref.Kind {
		case enums.ItemKindProduct:
			productIDs = append(productIDs, ref.ID)
		case enums.ItemKindService:
			serviceIDs = append(serviceIDs, ref.ID)
		default:
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown item kind")
		}
	}

	resolved := make(map[ItemRef]ResolvedItem, len(refs))

	products, err := s.repo.FindProductsByIDs(ctx, productIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load products")
	}
	for _, p := range products {
		ref := ItemRef{Kind: enums.ItemKindProduct, ID: p.ID}
		resolved[ref] = ResolvedItem{Ref: ref, Name: p.Name, Price: p.Price, Available: p.IsAvailable}
	}

	services, err := s.repo.FindServicesByIDs(ctx, serviceIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load services")
	}
	for _, sv := range services {
		ref := ItemRef{Kind: enums.ItemKindService, ID: sv.ID}
		resolved[ref] = ResolvedItem{Ref: ref, Name: sv.Name, Price: sv.Price, Available: sv.IsAvailable}
	}

	return resolved, nil
}

func (s *service) validateItemBase(ctx context.Context, name string, pricePositive bool, categoryID *uuid.UUID) error {
	if strings.TrimSpace(name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name required")
	}
	if !pricePositive {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if categoryID != nil {
		return s.ensureCategory(ctx, *categoryID)
	}
	return nil
}

func (s *service) ensureCategory(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindCategoryByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, "category does not exist")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load category")
	}
	return nil
}

func tagsOrEmpty(tags []string) pq.StringArray {
	if tags == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(tags)
}
