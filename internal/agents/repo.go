package agents

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jkimani/campus-delivery-backend/pkg/db/models"
	"github.com/jkimani/campus-delivery-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an agents repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, agent *models.DeliveryAgent) (*models.DeliveryAgent, error) {
	if err := r.db.WithContext(ctx).Create(agent).Error; err != nil {
		return nil, err
	}
	return agent, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.DeliveryAgent, error) {
	var agent models.DeliveryAgent
	if err := r.db.WithContext(ctx).First(&agent, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &agent, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*models.DeliveryAgent, error) {
	var agent models.DeliveryAgent
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&agent).Error; err != nil {
		return nil, err
	}
	return &agent, nil
}

func (r *repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.DeliveryAgent{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

func (r *repository) FindLeastLoaded(ctx context.Context) (*models.DeliveryAgent, error) {
	var agent models.DeliveryAgent
	err := r.db.WithContext(ctx).
		Model(&models.DeliveryAgent{}).
		Select("delivery_agents.*").
		Joins(
			"LEFT JOIN orders ON orders.agent_id = delivery_agents.id AND orders.delivery_status <> ?",
			enums.DeliveryStatusDelivered,
		).
		Where("delivery_agents.is_active = ?", true).
		Group("delivery_agents.id").
		Order("COUNT(orders.id) ASC, delivery_agents.id ASC").
		Limit(1).
		Take(&agent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &agent, nil
}

func (r *repository) List(ctx context.Context) ([]models.DeliveryAgent, error) {
	var list []models.DeliveryAgent
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.db.WithContext(ctx).
		Model(&models.DeliveryAgent{}).
		Where("id = ?", id).
		UpdateColumn("is_active", active).Error
}
