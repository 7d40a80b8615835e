package middleware

import (
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/google/uuid"

	"github.com/frahmantamala/license-portal/pkg/logger"
)

// RequestID runs after chi's RequestID. It falls back to a fresh uuid when
// chi produced none, echoes the id back and scopes the request logger with it.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := middleware.GetReqID(r.Context())
		if reqID == "" {
			reqID = uuid.NewString()
		}

		ctx := logger.WithRequestID(r.Context(), reqID)
		w.Header().Set(middleware.RequestIDHeader, reqID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
