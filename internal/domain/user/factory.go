package user

import (
	"time"

	"github.com/google/uuid"
)

// NewFromCreateRequest builds an active user; the caller supplies the password hash.
func NewFromCreateRequest(req CreateUserRequest, passwordHash string) User {
	now := time.Now().UTC()

	return User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Country:      req.Country,
		Role:         req.Role,
		Status:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
