package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jkimani/campus-delivery-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	SubjectID uuid.UUID
	Role      enums.UserRole
	JTI       string
}

// AccessTokenClaims represents the typed JWT issued to clients. The
// subject is a user id for customer/admin tokens and a delivery agent
// id for agent realm tokens.
type AccessTokenClaims struct {
	SubjectID uuid.UUID      `json:"sub_id"`
	Role      enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}
