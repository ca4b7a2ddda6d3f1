package actorctx

import (
	"context"

	"github.com/geocoder89/userhub/internal/domain/user"
)

type ctxKey struct{}

// Identity is the authenticated caller attached to a request.
type Identity struct {
	UserID string
	Role   user.Role
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	v, ok := ctx.Value(ctxKey{}).(Identity)

	return v, ok && v.UserID != ""
}

func UserIDFrom(ctx context.Context) (string, bool) {
	id, ok := IdentityFrom(ctx)

	return id.UserID, ok
}
