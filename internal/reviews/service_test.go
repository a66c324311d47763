package reviews

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jkimani/campus-delivery-backend/internal/catalog"
	"github.com/jkimani/campus-delivery-backend/pkg/db/models"
	"github.com/jkimani/campus-delivery-backend/pkg/enums"
	pkgerrors "github.com/jkimani/campus-delivery-backend/pkg/errors"
	"github.com/jkimani/campus-delivery-backend/pkg/pagination"
)

func TestCreateRejectsOutOfRangeRating(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubResolver{})

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.Create(context.Background(), uuid.New(), enums.ItemKindProduct, uuid.New(), CreateRequest{Rating: rating})
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("rating %d: expected validation error, got %v", rating, err)
		}
	}
}

func TestCreateRequiresExistingItem(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubResolver{})

	_, err := svc.Create(context.Background(), uuid.New(), enums.ItemKindProduct, uuid.New(), CreateRequest{Rating: 4})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for missing item, got %v", err)
	}
}

func TestCreateStoresReviewForKnownItem(t *testing.T) {
	t.Parallel()

	itemID := uuid.New()
	resolver := &stubResolver{known: map[catalog.ItemRef]catalog.ResolvedItem{
		{Kind: enums.ItemKindService, ID: itemID}: {Name: "Laundry", Price: decimal.NewFromInt(150), Available: true},
	}}
	svc := newTestService(t, resolver)

	comment := "quick turnaround"
	review, err := svc.Create(context.Background(), uuid.New(), enums.ItemKindService, itemID, CreateRequest{
		Rating:  5,
		Comment: &comment,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if review.Rating != 5 || review.ItemID != itemID || review.ItemKind != enums.ItemKindService {
		t.Fatalf("unexpected review %+v", review)
	}
}

func TestCreateRejectsSecondReviewForSameItem(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	itemID := uuid.New()
	resolver := &stubResolver{known: map[catalog.ItemRef]catalog.ResolvedItem{
		{Kind: enums.ItemKindProduct, ID: itemID}: {Name: "Chapati", Price: decimal.NewFromInt(30), Available: true},
	}}
	svc := newTestService(t, resolver)

	if _, err := svc.Create(context.Background(), userID, enums.ItemKindProduct, itemID, CreateRequest{Rating: 4}); err != nil {
		t.Fatalf("first review: %v", err)
	}
	_, err := svc.Create(context.Background(), userID, enums.ItemKindProduct, itemID, CreateRequest{Rating: 2})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict for duplicate review, got %v", err)
	}
}

func TestDeleteScopedToAuthorUnlessAdmin(t *testing.T) {
	t.Parallel()

	author := uuid.New()
	repo := newStubRepo()
	resolver := &stubResolver{}
	svc, err := NewService(repo, resolver)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	review := repo.seed(author, enums.ItemKindProduct, uuid.New(), 3)

	err = svc.Delete(context.Background(), uuid.New(), review.ID, false)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected foreign delete to 404, got %v", err)
	}

	if err := svc.Delete(context.Background(), uuid.New(), review.ID, true); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	if _, ok := repo.records[review.ID]; ok {
		t.Fatalf("expected review to be removed")
	}
}

func newTestService(t *testing.T, resolver *stubResolver) Service {
	t.Helper()
	svc, err := NewService(newStubRepo(), resolver)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

type stubResolver struct {
	known map[catalog.ItemRef]catalog.ResolvedItem
}

func (s *stubResolver) ResolveItems(ctx context.Context, refs []catalog.ItemRef) (map[catalog.ItemRef]catalog.ResolvedItem, error) {
	resolved := map[catalog.ItemRef]catalog.ResolvedItem{}
	for _, ref := range refs {
		if item, ok := s.known[ref]; ok {
			resolved[ref] = item
		}
	}
	return resolved, nil
}

type stubRepo struct {
	records map[uuid.UUID]*models.Review
}

func newStubRepo() *stubRepo {
	return &stubRepo{records: map[uuid.UUID]*models.Review{}}
}

func (s *stubRepo) seed(userID uuid.UUID, kind enums.ItemKind, itemID uuid.UUID, rating int) *models.Review {
	review := &models.Review{
		ID:        uuid.New(),
		UserID:    userID,
		ItemKind:  kind,
		ItemID:    itemID,
		Rating:    rating,
		CreatedAt: time.Now().UTC(),
	}
	s.records[review.ID] = review
	return review
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Create(ctx context.Context, review *models.Review) (*models.Review, error) {
	for _, existing := range s.records {
		if existing.UserID == review.UserID && existing.ItemKind == review.ItemKind && existing.ItemID == review.ItemID {
			return nil, errors.New(`duplicate key value violates unique constraint "idx_reviews_user_item"`)
		}
	}
	review.ID = uuid.New()
	review.CreatedAt = time.Now().UTC()
	s.records[review.ID] = review
	return review, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	review, ok := s.records[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *review
	return &copied, nil
}

func (s *stubRepo) ListForItem(ctx context.Context, kind enums.ItemKind, itemID uuid.UUID, filters ListFilters) ([]models.Review, *pagination.Cursor, error) {
	var reviews []models.Review
	for _, review := range s.records {
		if review.ItemKind == kind && review.ItemID == itemID {
			reviews = append(reviews, *review)
		}
	}
	return reviews, nil, nil
}

func (s *stubRepo) AggregateForItem(ctx context.Context, kind enums.ItemKind, itemID uuid.UUID) (*Summary, error) {
	var sum, count int64
	for _, review := range s.records {
		if review.ItemKind == kind && review.ItemID == itemID {
			sum += int64(review.Rating)
			count++
		}
	}
	summary := &Summary{ReviewCount: count}
	if count > 0 {
		summary.AverageRating = float64(sum) / float64(count)
	}
	return summary, nil
}

func (s *stubRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.records, id)
	return nil
}
