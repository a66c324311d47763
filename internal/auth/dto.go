package auth

import (
	"github.com/jkimani/campus-delivery-backend/internal/users"
)

// RegisterRequest captures a new customer signup.
type RegisterRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=8"`
	FirstName string  `json:"first_name" validate:"required"`
	LastName  string  `json:"last_name" validate:"required"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,e164"`
}

// RegisterResponse returns the created account pending verification.
type RegisterResponse struct {
	User *users.UserDTO `json:"user"`
}

// VerifyRequest carries the OTP sent to a freshly registered email.
type VerifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6"`
}

// LoginRequest captures the credentials posted to the login endpoints.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned from customer and admin logins.
type LoginResponse struct {
	AccessToken string         `json:"access_token"`
	User        *users.UserDTO `json:"user"`
}
