package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jkimani/campus-delivery-backend/internal/catalog"
	"github.com/jkimani/campus-delivery-backend/pkg/db/models"
	pkgerrors "github.com/jkimani/campus-delivery-backend/pkg/errors"
)

type itemResolver interface {
	ResolveItems(ctx context.Context, refs []catalog.ItemRef) (map[catalog.ItemRef]catalog.ResolvedItem, error)
}

// Service defines cart operations scoped to the authenticated user.
type Service interface {
	Add(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*View, error)
	Get(ctx context.Context, userID uuid.UUID) (*View, error)
	UpdateQuantity(ctx context.Context, userID, lineID uuid.UUID, req UpdateQuantityRequest) (*View, error)
	Remove(ctx context.Context, userID, lineID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo     Repository
	resolver itemResolver
}

// NewService constructs a cart service.
func NewService(repo Repository, resolver itemResolver) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository is required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("item resolver is required")
	}
	return &service{repo: repo, resolver: resolver}, nil
}

func (s *service) Add(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*View, error) {
	if !req.ItemKind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown item kind")
	}
	if req.ItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	if req.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	ref := catalog.ItemRef{Kind: req.ItemKind, ID: req.ItemID}
	resolved, err := s.resolver.ResolveItems(ctx, []catalog.ItemRef{ref})
	if err != nil {
		return nil, err
	}
	item, ok := resolved[ref]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}
	if !item.Available {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "item is not available")
	}

	if err := s.repo.Upsert(ctx, &models.CartItem{
		UserID:   userID,
		ItemKind: req.ItemKind,
		ItemID:   req.ItemID,
		Quantity: req.Quantity,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add cart item")
	}

	return s.Get(ctx, userID)
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*View, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list cart")
	}
	return s.buildView(ctx, items)
}

func (s *service) UpdateQuantity(ctx context.Context, userID, lineID uuid.UUID, req UpdateQuantityRequest) (*View, error) {
	if req.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	line, err := s.findOwnedLine(ctx, userID, lineID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateQuantity(ctx, line.ID, req.Quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update quantity")
	}
	return s.Get(ctx, userID)
}

func (s *service) Remove(ctx context.Context, userID, lineID uuid.UUID) error {
	removed, err := s.repo.Delete(ctx, userID, lineID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart item")
	}
	if !removed {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return nil
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.ClearUser(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	return nil
}

func (s *service) findOwnedLine(ctx context.Context, userID, lineID uuid.UUID) (*models.CartItem, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list cart")
	}
	for i := range items {
		if items[i].ID == lineID {
			return &items[i], nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
}

func (s *service) buildView(ctx context.Context, items []models.CartItem) (*View, error) {
	refs := make([]catalog.ItemRef, 0, len(items))
	for _, item := range items {
		refs = append(refs, catalog.ItemRef{Kind: item.ItemKind, ID: item.ItemID})
	}
	resolved, err := s.resolver.ResolveItems(ctx, refs)
	if err != nil {
		return nil, err
	}

	view := &View{Items: make([]Line, 0, len(items)), Total: decimal.Zero}
	for _, item := range items {
		ref := catalog.ItemRef{Kind: item.ItemKind, ID: item.ItemID}
		detail, ok := resolved[ref]
		if !ok {
			// Item was deleted from the catalog after being carted.
			continue
		}
		lineTotal := detail.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		view.Items = append(view.Items, Line{
			ID:          item.ID,
			ItemKind:    item.ItemKind,
			ItemID:      item.ItemID,
			Name:        detail.Name,
			UnitPrice:   detail.Price,
			Quantity:    item.Quantity,
			LineTotal:   lineTotal,
			IsAvailable: detail.Available,
			AddedAt:     item.CreatedAt,
		})
		if detail.Available {
			view.Total = view.Total.Add(lineTotal)
		}
	}
	return view, nil
}
