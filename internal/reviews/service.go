package reviews

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jkimani/campus-delivery-backend/internal/catalog"
	"github.com/jkimani/campus-delivery-backend/pkg/db"
	"github.com/jkimani/campus-delivery-backend/pkg/db/models"
	"github.com/jkimani/campus-delivery-backend/pkg/enums"
	pkgerrors "github.com/jkimani/campus-delivery-backend/pkg/errors"
	"github.com/jkimani/campus-delivery-backend/pkg/pagination"
)

type itemResolver interface {
	ResolveItems(ctx context.Context, refs []catalog.ItemRef) (map[catalog.ItemRef]catalog.ResolvedItem, error)
}

// Service exposes review operations over products and services.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, kind enums.ItemKind, itemID uuid.UUID, req CreateRequest) (*ReviewDTO, error)
	ListForItem(ctx context.Context, kind enums.ItemKind, itemID uuid.UUID, filters ListFilters) (*List, error)
	Delete(ctx context.Context, userID, reviewID uuid.UUID, isAdmin bool) error
}

type service struct {
	repo     Repository
	resolver itemResolver
}

// NewService constructs a review service.
func NewService(repo Repository, resolver itemResolver) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reviews repository required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("item resolver required")
	}
	return &service{repo: repo, resolver: resolver}, nil
}

// Create posts a review against an item. Each user gets one review per
// item; a second post is rejected rather than merged.
func (s *service) Create(ctx context.Context, userID uuid.UUID, kind enums.ItemKind, itemID uuid.UUID, req CreateRequest) (*ReviewDTO, error) {
	if !kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown item kind")
	}
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}

	ref := catalog.ItemRef{Kind: kind, ID: itemID}
	resolved, err := s.resolver.ResolveItems(ctx, []catalog.ItemRef{ref})
	if err != nil {
		return nil, err
	}
	if _, ok := resolved[ref]; !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}

	review, err := s.repo.Create(ctx, &models.Review{
		UserID:   userID,
		ItemKind: kind,
		ItemID:   itemID,
		Rating:   req.Rating,
		Comment:  req.Comment,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "idx_reviews_user_item") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "item already reviewed")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
	}
	return FromModel(review), nil
}

func (s *service) ListForItem(ctx context.Context, kind enums.ItemKind, itemID uuid.UUID, filters ListFilters) (*List, error) {
	if !kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown item kind")
	}

	reviews, next, err := s.repo.ListForItem(ctx, kind, itemID, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	summary, err := s.repo.AggregateForItem(ctx, kind, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate reviews")
	}

	list := &List{
		Reviews: make([]ReviewDTO, 0, len(reviews)),
		Summary: *summary,
	}
	for i := range reviews {
		list.Reviews = append(list.Reviews, *FromModel(&reviews[i]))
	}
	if next != nil {
		encoded := pagination.EncodeCursor(*next)
		list.NextCursor = &encoded
	}
	return list, nil
}

// Delete removes a review. Authors can delete their own; admins can
// delete any.
func (s *service) Delete(ctx context.Context, userID, reviewID uuid.UUID, isAdmin bool) error {
	review, err := s.repo.FindByID(ctx, reviewID)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
	}
	if !isAdmin && review.UserID != userID {
		return pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
	}
	if err := s.repo.Delete(ctx, reviewID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete review")
	}
	return nil
}
