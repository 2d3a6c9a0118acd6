package middleware

import (
	"net/http"

	"github.com/elhueso/huesobot/pkg/utils"
)

// AdminGuard protects a route subtree with the admin password. The
// caller provides the password via the x-admin-password header or the
// key query parameter. An unset password rejects every request.
func AdminGuard(password string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if password == "" {
				utils.RespondError(w, http.StatusUnauthorized, "admin password is not configured on the server")
				return
			}

			provided := r.Header.Get("x-admin-password")
			if provided == "" {
				provided = r.URL.Query().Get("key")
			}
			if provided != password {
				utils.RespondError(w, http.StatusUnauthorized, "invalid password")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
