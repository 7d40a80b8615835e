package auth

import (
	"context"
	"net/http"

	"github.com/frahmantamala/license-portal/internal"
	"github.com/frahmantamala/license-portal/internal/transport"
	"github.com/frahmantamala/license-portal/pkg/logger"
)

type ServiceAPI interface {
	Login(ctx context.Context, dto LoginDTO) (AuthTokens, error)
	Refresh(ctx context.Context, dto RefreshTokenDTO) (AuthTokens, error)
	Logout(ctx context.Context, accessToken string, dto LogoutDTO) error
	Authenticate(ctx context.Context, accessToken string) (*internal.Principal, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err, "Login")
		return
	}

	tokens, err := h.Service.Login(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, r, err, "Login")
		return
	}
	h.WriteJSON(w, http.StatusOK, tokens)
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err, "RefreshToken")
		return
	}

	tokens, err := h.Service.Refresh(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, r, err, "RefreshToken")
		return
	}
	h.WriteJSON(w, http.StatusOK, tokens)
}

// Logout takes the access token from the header and an optional refresh
// token in the body.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := h.ExtractTokenFromHeader(r)
	if token == "" {
		h.HandleServiceError(w, r, internal.ErrInvalidToken, "Logout")
		return
	}

	var dto LogoutDTO
	if r.ContentLength != 0 {
		if err := h.DecodeJSON(r, &dto); err != nil {
			h.HandleServiceError(w, r, err, "Logout")
			return
		}
	}

	if err := h.Service.Logout(r.Context(), token, dto); err != nil {
		h.HandleServiceError(w, r, err, "Logout")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AuthMiddleware puts the authenticated principal and a user-scoped logger in
// the request context.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.HandleServiceError(w, r, internal.ErrInvalidToken, "AuthMiddleware")
			return
		}

		p, err := h.Service.Authenticate(r.Context(), token)
		if err != nil {
			h.HandleServiceError(w, r, err, "AuthMiddleware")
			return
		}

		ctx := internal.ContextWithPrincipal(r.Context(), p)
		ctx = logger.With(ctx, "user_id", p.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
