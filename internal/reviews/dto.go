package reviews

import (
	"time"

	"github.com/google/uuid"

	"github.com/jkimani/campus-delivery-backend/pkg/db/models"
	"github.com/jkimani/campus-delivery-backend/pkg/enums"
	"github.com/jkimani/campus-delivery-backend/pkg/pagination"
)

// CreateRequest is the payload for posting a review against an item.
type CreateRequest struct {
	Rating  int     `json:"rating" validate:"required,min=1,max=5"`
	Comment *string `json:"comment" validate:"omitempty,max=2000"`
}

// ReviewDTO is the API representation of a review.
type ReviewDTO struct {
	ID        uuid.UUID      `json:"id"`
	UserID    uuid.UUID      `json:"user_id"`
	ItemKind  enums.ItemKind `json:"item_kind"`
	ItemID    uuid.UUID      `json:"item_id"`
	Rating    int            `json:"rating"`
	Comment   *string        `json:"comment,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Summary aggregates the ratings posted against a single item.
type Summary struct {
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int64   `json:"review_count"`
}

// List is a cursor-paginated page of reviews plus the item aggregate.
type List struct {
	Reviews    []ReviewDTO `json:"reviews"`
	Summary    Summary     `json:"summary"`
	NextCursor *string     `json:"next_cursor,omitempty"`
}

// ListFilters narrows a review listing.
type ListFilters struct {
	Pagination pagination.Params
}

// FromModel maps a stored review to its API shape.
func FromModel(review *models.Review) *ReviewDTO {
	return &ReviewDTO{
		ID:        review.ID,
		UserID:    review.UserID,
		ItemKind:  review.ItemKind,
		ItemID:    review.ItemID,
		Rating:    review.Rating,
		Comment:   review.Comment,
		CreatedAt: review.CreatedAt,
	}
}
