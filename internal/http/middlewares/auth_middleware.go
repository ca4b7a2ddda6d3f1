package middlewares

import (
	"net/http"
	"strings"

	"github.com/geocoder89/userhub/internal/actorctx"
	"github.com/geocoder89/userhub/internal/auth"
	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/geocoder89/userhub/internal/observability"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	jwt  TokenVerifier
	prom *observability.Prom
}

// prom may be nil.
func NewAuthMiddleware(jwt TokenVerifier, prom *observability.Prom) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, prom: prom}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			m.prom.RejectAuth("token_required")
			abortWithError(c, http.StatusUnauthorized, "token_required", "Token required")
			return
		}

		claims, err := m.jwt.Verify(raw)
		if err != nil {
			m.prom.RejectAuth("invalid_token")
			abortWithError(c, http.StatusForbidden, "invalid_token", "Invalid token")
			return
		}

		// Stash identity on both contexts so handlers and stores can read it
		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxRole, claims.Role)

		identity := actorctx.Identity{UserID: claims.UserID, Role: claims.Role}
		c.Request = c.Request.WithContext(actorctx.WithIdentity(c.Request.Context(), identity))

		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}

	return token, true
}

// Optional helpers so handlers don't need to know the magic keys.

func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxUserID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

func RoleFromContext(c *gin.Context) (user.Role, bool) {
	v, ok := c.Get(CtxRole)
	if !ok {
		return "", false
	}
	role, ok := v.(user.Role)
	return role, ok && role.Valid()
}
