package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jkimani/campus-delivery-backend/pkg/enums"
	"github.com/jkimani/campus-delivery-backend/pkg/pagination"
)

// ItemRef addresses a product or service by kind and id.
type ItemRef struct {
	Kind enums.ItemKind
	ID   uuid.UUID
}

// ResolvedItem carries the catalog fields cart and order flows need.
type ResolvedItem struct {
	Ref       ItemRef
	Name      string
	Price     decimal.Decimal
	Available bool
}

// CreateCategoryRequest creates a browse category.
type CreateCategoryRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description,omitempty"`
}

// UpdateCategoryRequest patches a category; nil fields are left untouched.
type UpdateCategoryRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// CreateProductRequest creates a physical catalog item.
type CreateProductRequest struct {
	CategoryID  *uuid.UUID      `json:"category_id,omitempty"`
	Name        string          `json:"name" validate:"required"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price" validate:"required"`
	Stock       int             `json:"stock" validate:"gte=0"`
	ImageURL    *string         `json:"image_url,omitempty" validate:"omitempty,url"`
	Tags        []string        `json:"tags,omitempty"`
}

// UpdateProductRequest patches a product; nil fields are left untouched.
type UpdateProductRequest struct {
	CategoryID  *uuid.UUID       `json:"category_id,omitempty"`
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Stock       *int             `json:"stock,omitempty" validate:"omitempty,gte=0"`
	ImageURL    *string          `json:"image_url,omitempty" validate:"omitempty,url"`
	Tags        []string         `json:"tags,omitempty"`
	IsAvailable *bool            `json:"is_available,omitempty"`
}

// CreateServiceRequest creates a bookable catalog item.
type CreateServiceRequest struct {
	CategoryID      *uuid.UUID      `json:"category_id,omitempty"`
	Name            string          `json:"name" validate:"required"`
	Description     *string         `json:"description,omitempty"`
	Price           decimal.Decimal `json:"price" validate:"required"`
	DurationMinutes *int            `json:"duration_minutes,omitempty" validate:"omitempty,gt=0"`
	ImageURL        *string         `json:"image_url,omitempty" validate:"omitempty,url"`
	Tags            []string        `json:"tags,omitempty"`
}

// UpdateServiceRequest patches a service; nil fields are left untouched.
type UpdateServiceRequest struct {
	CategoryID      *uuid.UUID       `json:"category_id,omitempty"`
	Name            *string          `json:"name,omitempty"`
	Description     *string          `json:"description,omitempty"`
	Price           *decimal.Decimal `json:"price,omitempty"`
	DurationMinutes *int             `json:"duration_minutes,omitempty" validate:"omitempty,gt=0"`
	ImageURL        *string          `json:"image_url,omitempty" validate:"omitempty,url"`
	Tags            []string         `json:"tags,omitempty"`
	IsAvailable     *bool            `json:"is_available,omitempty"`
}

// ListFilters narrows catalog listings. Nil fields apply no filter.
type ListFilters struct {
	CategoryID *uuid.UUID
	Search     *string
	Available  *bool
	Pagination pagination.Params
}
