package policy

import (
	"net/http"

	"github.com/retailbuddy/retailbuddy/internal/auth"
	"github.com/retailbuddy/retailbuddy/internal/httpx"
	"github.com/retailbuddy/retailbuddy/internal/models"
)

// IsAdmin reports whether the request carries an admin principal.
func IsAdmin(r *http.Request) bool {
	p, ok := auth.PrincipalFromContext(r.Context())
	return ok && p.Role == models.RoleAdmin
}

// RequireRole returns middleware blocking principals without the given role.
// Use after auth.RequireAuth so an authenticated principal is guaranteed.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := auth.PrincipalFromContext(r.Context())
			if !ok || p.Role != role {
				httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin guards the category and user management routes.
func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(models.RoleAdmin)(next)
}
