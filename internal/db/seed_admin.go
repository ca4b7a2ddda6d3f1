package db

import (
	"context"
	"errors"

	"github.com/geocoder89/userhub/internal/config"
	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/geocoder89/userhub/internal/security"
)

type AdminStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, u user.User) (user.User, error)
}

// EnsureAdminUser creates the configured Admin once. It is a no-op when
// ADMIN_EMAIL/ADMIN_PASSWORD are unset or the email already exists.
func EnsureAdminUser(ctx context.Context, store AdminStore, hasher *security.Hasher, cfg config.Config) (bool, error) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return false, nil
	}

	// check if the user exists
	_, err := store.GetByEmail(ctx, cfg.AdminEmail)

	if err == nil {
		return false, nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return false, err
	}

	hash, err := hasher.Hash(cfg.AdminPassword)

	if err != nil {
		return false, err
	}

	u := user.NewFromCreateRequest(user.CreateUserRequest{
		Name:    cfg.AdminName,
		Email:   cfg.AdminEmail,
		Country: cfg.AdminCountry,
		Role:    user.RoleAdmin,
	}, hash)

	_, err = store.Create(ctx, u)
	if errors.Is(err, user.ErrEmailTaken) {
		// another instance seeded it first
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}
