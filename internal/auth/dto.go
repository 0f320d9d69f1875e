package auth

import (
	"github.com/seojindev/idhub-backend/internal/identity"
	"github.com/seojindev/idhub-backend/internal/users"
)

// RegisterRequest captures the payload for local account sign-up.
type RegisterRequest struct {
	Username string  `json:"username" validate:"required,min=3,max=64"`
	Password string  `json:"password" validate:"required,min=8,max=128"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
}

// LoginRequest captures the credentials sent to the local login endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResult carries the established session and the resolved principal.
// The controller turns SessionID into a cookie; it never reaches the body.
type LoginResult struct {
	SessionID string
	Principal *identity.Principal
	User      *users.UserDTO
}
