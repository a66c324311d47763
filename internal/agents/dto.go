package agents

import (
	"time"

	"github.com/google/uuid"

	"github.com/jkimani/campus-delivery-backend/pkg/db/models"
)

// AgentDTO is the transport shape for delivery agent accounts.
type AgentDTO struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Phone       string     `json:"phone"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// RegisterRequest captures a new agent signup.
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Phone     string `json:"phone" validate:"required,e164"`
}

// LoginRequest captures credentials posted to the agent login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned from agent logins.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	Agent       *AgentDTO `json:"agent"`
}

// RegisterResponse returns the created agent account.
type RegisterResponse struct {
	Agent *AgentDTO `json:"agent"`
}

// FromModel converts a persisted agent into its transport shape.
func FromModel(a *models.DeliveryAgent) *AgentDTO {
	if a == nil {
		return nil
	}
	return &AgentDTO{
		ID:          a.ID,
		Email:       a.Email,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		Phone:       a.Phone,
		IsActive:    a.IsActive,
		LastLoginAt: a.LastLoginAt,
		CreatedAt:   a.CreatedAt,
	}
}
