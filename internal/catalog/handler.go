package catalog

import (
	"context"
	"net/http"

	"github.com/frahmantamala/license-portal/internal"
	"github.com/frahmantamala/license-portal/internal/role"
	"github.com/frahmantamala/license-portal/internal/transport"
)

type ServiceAPI interface {
	ListItems(ctx context.Context, includeInactive bool) ([]*CatalogItem, error)
	GetItem(ctx context.Context, id int64) (*CatalogItem, error)
	CreateItem(ctx context.Context, dto CatalogItemDTO, actor *internal.Principal) (*CatalogItem, error)
	UpdateItem(ctx context.Context, id int64, dto CatalogItemDTO, actor *internal.Principal) (*CatalogItem, error)
	DeleteItem(ctx context.Context, id int64, actor *internal.Principal) error
	ListTiers(ctx context.Context) ([]*LicenseTier, error)
	CreateTier(ctx context.Context, dto TierDTO) (*LicenseTier, error)
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

// ListItems handles GET /catalog. Admins may pass ?all=true to include
// inactive items.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	includeInactive := r.URL.Query().Get("all") == "true" && role.NewChecker(p.Roles).CanManageCatalog()

	items, err := h.Service.ListItems(r.Context(), includeInactive)
	if err != nil {
		h.HandleServiceError(w, r, err, "ListItems")
		return
	}

	h.WriteJSON(w, http.StatusOK, CatalogResponse{Items: items})
}

func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err, "GetItem")
		return
	}

	item, err := h.Service.GetItem(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, r, err, "GetItem")
		return
	}
	h.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}

	var dto CatalogItemDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err, "CreateItem")
		return
	}

	item, err := h.Service.CreateItem(r.Context(), dto, p)
	if err != nil {
		h.HandleServiceError(w, r, err, "CreateItem")
		return
	}
	h.WriteJSON(w, http.StatusCreated, item)
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err, "UpdateItem")
		return
	}

	var dto CatalogItemDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err, "UpdateItem")
		return
	}

	item, err := h.Service.UpdateItem(r.Context(), id, dto, p)
	if err != nil {
		h.HandleServiceError(w, r, err, "UpdateItem")
		return
	}
	h.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err, "DeleteItem")
		return
	}

	if err := h.Service.DeleteItem(r.Context(), id, p); err != nil {
		h.HandleServiceError(w, r, err, "DeleteItem")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListTiers(w http.ResponseWriter, r *http.Request) {
	tiers, err := h.Service.ListTiers(r.Context())
	if err != nil {
		h.HandleServiceError(w, r, err, "ListTiers")
		return
	}
	h.WriteJSON(w, http.StatusOK, TiersResponse{Tiers: tiers})
}

func (h *Handler) CreateTier(w http.ResponseWriter, r *http.Request) {
	var dto TierDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err, "CreateTier")
		return
	}

	tier, err := h.Service.CreateTier(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, r, err, "CreateTier")
		return
	}
	h.WriteJSON(w, http.StatusCreated, tier)
}
