package audit

import (
	"context"
	"net/http"
	"strconv"

	"github.com/frahmantamala/license-portal/internal/transport"
)

type ServiceAPI interface {
	ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]*Entry, error)
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

// ListEntries handles GET /audit?entity_type=&entity_id=&limit=
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	entries, err := h.Service.ListByEntity(r.Context(), q.Get("entity_type"), q.Get("entity_id"), limit)
	if err != nil {
		h.HandleServiceError(w, r, err, "ListEntries")
		return
	}

	h.WriteJSON(w, http.StatusOK, EntriesResponse{Entries: entries})
}
