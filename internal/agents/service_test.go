package agents

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/jkimani/campus-delivery-backend/pkg/auth"
	"github.com/jkimani/campus-delivery-backend/pkg/config"
	"github.com/jkimani/campus-delivery-backend/pkg/db/models"
	"github.com/jkimani/campus-delivery-backend/pkg/enums"
	pkgerrors "github.com/jkimani/campus-delivery-backend/pkg/errors"
	"github.com/jkimani/campus-delivery-backend/pkg/security"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "campus-delivery",
		ExpirationMinutes: 30,
	}
}

func TestServiceLoginMintsAgentToken(t *testing.T) {
	t.Parallel()

	password := "rider-secret"
	agent := &models.DeliveryAgent{
		ID:           uuid.New(),
		Email:        "rider@campus.test",
		PasswordHash: mustHashPassword(t, password),
		FirstName:    "Brian",
		LastName:     "Otieno",
		Phone:        "+254700000001",
		IsActive:     true,
	}
	svc := buildTestService(t, agent)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: agent.Email, Password: password})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.Role != enums.UserRoleAgent {
		t.Fatalf("expected agent role claim, got %s", claims.Role)
	}
	if claims.SubjectID != agent.ID {
		t.Fatalf("expected subject %s, got %s", agent.ID, claims.SubjectID)
	}
}

func TestServiceLoginRejectsDeactivatedAgent(t *testing.T) {
	t.Parallel()

	password := "rider-secret"
	agent := &models.DeliveryAgent{
		ID:           uuid.New(),
		Email:        "rider@campus.test",
		PasswordHash: mustHashPassword(t, password),
		IsActive:     false,
	}
	svc := buildTestService(t, agent)

	_, err := svc.Login(context.Background(), LoginRequest{Email: agent.Email, Password: password})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func TestServiceLoginRejectsUnknownEmail(t *testing.T) {
	t.Parallel()

	svc := buildTestService(t, nil)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "ghost@campus.test", Password: "anything"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func buildTestService(t *testing.T, agent *models.DeliveryAgent) Service {
	t.Helper()
	svc, err := NewService(&stubRepo{agent: agent}, testJWTConfig(), config.PasswordConfig{})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

type stubRepo struct {
	agent *models.DeliveryAgent
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Create(ctx context.Context, agent *models.DeliveryAgent) (*models.DeliveryAgent, error) {
	agent.ID = uuid.New()
	s.agent = agent
	return agent, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.DeliveryAgent, error) {
	if s.agent == nil || s.agent.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.agent, nil
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*models.DeliveryAgent, error) {
	if s.agent == nil || s.agent.Email != email {
		return nil, gorm.ErrRecordNotFound
	}
	return s.agent, nil
}

func (s *stubRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	if s.agent != nil && s.agent.ID == id {
		s.agent.LastLoginAt = &at
	}
	return nil
}

func (s *stubRepo) FindLeastLoaded(ctx context.Context) (*models.DeliveryAgent, error) {
	return s.agent, nil
}

func (s *stubRepo) List(ctx context.Context) ([]models.DeliveryAgent, error) {
	if s.agent == nil {
		return nil, nil
	}
	return []models.DeliveryAgent{*s.agent}, nil
}

func (s *stubRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if s.agent != nil && s.agent.ID == id {
		s.agent.IsActive = active
	}
	return nil
}
