package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/frahmantamala/license-portal/internal"
	"github.com/frahmantamala/license-portal/internal/role"
	"github.com/frahmantamala/license-portal/pkg/logger"
)

// RequireRoles lets the request through when the principal holds any of the
// given roles. Only stored grants count; a dashboard view_as selection is
// never consulted.
func RequireRoles(roles ...role.AppRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := internal.PrincipalFromContext(r.Context())
			if !ok {
				writeAppError(w, internal.ErrInvalidToken)
				return
			}

			if !p.Roles.HasAny(roles...) {
				logger.From(r.Context()).Warn("access denied: missing role",
					"user_id", p.ID,
					"required_roles", roles,
					"granted_roles", p.Roles.Strings())
				writeAppError(w, internal.ErrUnauthorizedAccess)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeAppError(w http.ResponseWriter, appErr *internal.AppError) {
	status, body := appErr.ToHTTPResponse()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
