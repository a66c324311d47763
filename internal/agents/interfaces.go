package agents

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jkimani/campus-delivery-backend/pkg/db/models"
)

// Repository exposes delivery agent persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, agent *models.DeliveryAgent) (*models.DeliveryAgent, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.DeliveryAgent, error)
	FindByEmail(ctx context.Context, email string) (*models.DeliveryAgent, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	// FindLeastLoaded returns the active agent with the fewest open
	// deliveries, breaking ties on the lowest agent id. A nil agent
	// with a nil error means no active agent exists.
	FindLeastLoaded(ctx context.Context) (*models.DeliveryAgent, error)
	List(ctx context.Context) ([]models.DeliveryAgent, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}
