package middlewares

import (
	"net/http"

	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// RequireRole must run after RequireAuth. A request without identity is denied.
func (m *AuthMiddleware) RequireRole(roles ...user.Role) gin.HandlerFunc {
	allowed := make(map[user.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role, ok := RoleFromContext(c)
		if !ok {
			m.prom.RejectAuth("access_denied")
			abortWithError(c, http.StatusForbidden, "access_denied", "Access denied")
			return
		}

		if _, ok := allowed[role]; !ok {
			m.prom.RejectAuth("access_denied")
			abortWithError(c, http.StatusForbidden, "access_denied", "Access denied")
			return
		}

		c.Next()
	}
}
