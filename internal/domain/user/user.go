package user

import (
	"errors"
	"time"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already in use")
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Country      string    `json:"country"`
	Role         Role      `json:"role"`
	Status       bool      `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Profile is the subset of a user returned to the user themselves.
type Profile struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Country string `json:"country"`
	Role    Role   `json:"role"`
}

func (u User) Profile() Profile {
	return Profile{
		Name:    u.Name,
		Email:   u.Email,
		Country: u.Country,
		Role:    u.Role,
	}
}

type RoleCount struct {
	Role  Role `json:"role"`
	Count int  `json:"count"`
}

type CreateUserRequest struct {
	Name     string `json:"name" binding:"required,max=120"`
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,max_bytes=72"`
	Country  string `json:"country" binding:"required,max=80"`
	Role     Role   `json:"role" binding:"required,user_role"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}
