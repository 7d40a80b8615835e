package user

import (
	"context"
	"net/http"
	"strconv"

	"github.com/frahmantamala/license-portal/internal"
	"github.com/frahmantamala/license-portal/internal/transport"
)

type ServiceAPI interface {
	Register(ctx context.Context, dto RegisterDTO) (*User, error)
	Get(ctx context.Context, actor *internal.Principal, id int64) (*User, error)
	List(ctx context.Context, actor *internal.Principal, filter ListFilter) ([]*User, error)
	Me(ctx context.Context, p *internal.Principal, viewAs string) (*MeResponse, error)
	Approve(ctx context.Context, id int64, actor *internal.Principal) (*User, error)
	Reject(ctx context.Context, id int64, actor *internal.Principal) (*User, error)
	Disable(ctx context.Context, id int64, dto DisableDTO, actor *internal.Principal) (*User, error)
	Enable(ctx context.Context, id int64, actor *internal.Principal) (*User, error)
	SetRoles(ctx context.Context, id int64, dto RolesDTO, actor *internal.Principal) (*User, error)
	Delete(ctx context.Context, id int64, actor *internal.Principal) error
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

// Register handles POST /auth/register. It is public.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var dto RegisterDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err, "Register")
		return
	}

	u, err := h.Service.Register(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, r, err, "Register")
		return
	}
	h.WriteJSON(w, http.StatusCreated, u)
}

// GetCurrentUser handles GET /me.
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}

	u, err := h.Service.Get(r.Context(), p, p.ID)
	if err != nil {
		h.HandleServiceError(w, r, err, "GetCurrentUser")
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

// Dashboard handles GET /me/dashboard?view_as=<role>.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}

	me, err := h.Service.Me(r.Context(), p, r.URL.Query().Get("view_as"))
	if err != nil {
		h.HandleServiceError(w, r, err, "Dashboard")
		return
	}
	h.WriteJSON(w, http.StatusOK, me)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := ListFilter{Search: q.Get("search")}
	if raw := q.Get("approved"); raw != "" {
		approved, err := strconv.ParseBool(raw)
		if err != nil {
			h.HandleServiceError(w, r, internal.NewValidationFieldError("approved", "must be true or false", internal.ErrCodeValidationFailed), "ListUsers")
			return
		}
		filter.Approved = &approved
	}

	users, err := h.Service.List(r.Context(), p, filter)
	if err != nil {
		h.HandleServiceError(w, r, err, "ListUsers")
		return
	}
	h.WriteJSON(w, http.StatusOK, UsersResponse{Users: users})
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, "GetUser", h.Service.Get)
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, "Approve", func(ctx context.Context, p *internal.Principal, id int64) (*User, error) {
		return h.Service.Approve(ctx, id, p)
	})
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, "Reject", func(ctx context.Context, p *internal.Principal, id int64) (*User, error) {
		return h.Service.Reject(ctx, id, p)
	})
}

func (h *Handler) Enable(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, "Enable", func(ctx context.Context, p *internal.Principal, id int64) (*User, error) {
		return h.Service.Enable(ctx, id, p)
	})
}

// Disable takes an optional {"until": "..."} body; an empty body disables
// indefinitely.
func (h *Handler) Disable(w http.ResponseWriter, r *http.Request) {
	var dto DisableDTO
	if r.ContentLength != 0 {
		if err := h.DecodeJSON(r, &dto); err != nil {
			h.HandleServiceError(w, r, err, "Disable")
			return
		}
	}
	h.act(w, r, "Disable", func(ctx context.Context, p *internal.Principal, id int64) (*User, error) {
		return h.Service.Disable(ctx, id, dto, p)
	})
}

func (h *Handler) SetRoles(w http.ResponseWriter, r *http.Request) {
	var dto RolesDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err, "SetRoles")
		return
	}
	h.act(w, r, "SetRoles", func(ctx context.Context, p *internal.Principal, id int64) (*User, error) {
		return h.Service.SetRoles(ctx, id, dto, p)
	})
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err, "DeleteUser")
		return
	}
	if err := h.Service.Delete(r.Context(), id, p); err != nil {
		h.HandleServiceError(w, r, err, "DeleteUser")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) act(w http.ResponseWriter, r *http.Request, op string, fn func(ctx context.Context, p *internal.Principal, id int64) (*User, error)) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err, op)
		return
	}

	u, err := fn(r.Context(), p, id)
	if err != nil {
		h.HandleServiceError(w, r, err, op)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}
