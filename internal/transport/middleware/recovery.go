package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/frahmantamala/license-portal/internal"
)

// RecoveryMiddleware turns a panic into a 500 AppError response. The panic
// value and stack are logged only.
func RecoveryMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Error("panic recovered",
						"error", rec,
						"method", r.Method,
						"path", r.URL.Path,
						"request_id", middlewareReqID(r),
						"stack", string(debug.Stack()))

					writeAppError(w, internal.NewInternalError("internal server error", nil))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
