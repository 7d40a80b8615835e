package license

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/frahmantamala/license-portal/internal"
	"github.com/frahmantamala/license-portal/internal/transport"
)

type ServiceAPI interface {
	IssueDemo(ctx context.Context, catalogItemID int64, p *internal.Principal) (*License, error)
	HasLicenseForProduct(ctx context.Context, productName, email string) (bool, error)
	List(ctx context.Context, p *internal.Principal, filter ListFilter) (*ListResponse, error)
	Get(ctx context.Context, p *internal.Principal, id int64) (*License, error)
	Create(ctx context.Context, dto CreateLicenseDTO, actor *internal.Principal) (*License, error)
	Edit(ctx context.Context, id int64, dto EditLicenseDTO, actor *internal.Principal) (*License, error)
	ChangeStatus(ctx context.Context, id int64, dto StatusDTO, actor *internal.Principal) (*License, error)
	Bulk(ctx context.Context, dto BulkDTO, actor *internal.Principal) (*BulkResponse, error)
	ExportLicenses(ctx context.Context, ids []int64, actor *internal.Principal) ([]*License, error)
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

// ListLicenses handles GET /licenses?status=&product=&assigned_to=&account_id=
func (h *Handler) ListLicenses(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := ListFilter{
		Status:      q.Get("status"),
		ProductName: q.Get("product"),
		AssignedTo:  q.Get("assigned_to"),
	}
	if raw := q.Get("account_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.HandleServiceError(w, r, internal.NewValidationFieldError("account_id", "must be an integer", internal.ErrCodeValidationFailed), "ListLicenses")
			return
		}
		filter.AccountID = &id
	}

	resp, err := h.Service.List(r.Context(), p, filter)
	if err != nil {
		h.HandleServiceError(w, r, err, "ListLicenses")
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

// CheckProduct handles GET /licenses/check?product=
func (h *Handler) CheckProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	product := r.URL.Query().Get("product")
	if product == "" {
		h.HandleServiceError(w, r, internal.NewValidationFieldError("product", "product is required", internal.ErrCodeValidationFailed), "CheckProduct")
		return
	}

	has, err := h.Service.HasLicenseForProduct(r.Context(), product, p.Email)
	if err != nil {
		h.HandleServiceError(w, r, err, "CheckProduct")
		return
	}
	h.WriteJSON(w, http.StatusOK, ProductCheckResponse{ProductName: product, HasLicense: has})
}

// IssueDemo handles POST /licenses/demo
func (h *Handler) IssueDemo(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}

	var dto IssueDemoDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err, "IssueDemo")
		return
	}

	l, err := h.Service.IssueDemo(r.Context(), dto.CatalogItemID, p)
	if err != nil {
		h.HandleServiceError(w, r, err, "IssueDemo")
		return
	}
	h.WriteJSON(w, http.StatusCreated, l)
}

func (h *Handler) GetLicense(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err, "GetLicense")
		return
	}

	l, err := h.Service.Get(r.Context(), p, id)
	if err != nil {
		h.HandleServiceError(w, r, err, "GetLicense")
		return
	}
	h.WriteJSON(w, http.StatusOK, l)
}

func (h *Handler) CreateLicense(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}

	var dto CreateLicenseDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err, "CreateLicense")
		return
	}

	l, err := h.Service.Create(r.Context(), dto, p)
	if err != nil {
		h.HandleServiceError(w, r, err, "CreateLicense")
		return
	}
	h.WriteJSON(w, http.StatusCreated, l)
}

// EditLicense handles PATCH /licenses/{id}
func (h *Handler) EditLicense(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err, "EditLicense")
		return
	}

	var dto EditLicenseDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err, "EditLicense")
		return
	}

	l, err := h.Service.Edit(r.Context(), id, dto, p)
	if err != nil {
		h.HandleServiceError(w, r, err, "EditLicense")
		return
	}
	h.WriteJSON(w, http.StatusOK, l)
}

// ChangeStatus handles PUT /licenses/{id}/status
func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err, "ChangeStatus")
		return
	}

	var dto StatusDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err, "ChangeStatus")
		return
	}

	l, err := h.Service.ChangeStatus(r.Context(), id, dto, p)
	if err != nil {
		h.HandleServiceError(w, r, err, "ChangeStatus")
		return
	}
	h.WriteJSON(w, http.StatusOK, l)
}

// Bulk handles POST /licenses/bulk. The export action answers with CSV.
func (h *Handler) Bulk(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}

	var dto BulkDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err, "Bulk")
		return
	}

	if Action(dto.Action) == ActionExport {
		h.export(w, r, dto.IDs, p)
		return
	}

	resp, err := h.Service.Bulk(r.Context(), dto, p)
	if err != nil {
		h.HandleServiceError(w, r, err, "Bulk")
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request, ids []int64, p *internal.Principal) {
	licenses, err := h.Service.ExportLicenses(r.Context(), ids, p)
	if err != nil {
		h.HandleServiceError(w, r, err, "ExportLicenses")
		return
	}

	filename := fmt.Sprintf("licenses-%s.csv", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if err := WriteCSV(w, licenses); err != nil {
		h.Logger.Error("failed to write license export", "error", err)
	}
}

func (h *Handler) DeleteLicense(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err, "DeleteLicense")
		return
	}

	if err := h.Service.Delete(r.Context(), id, p); err != nil {
		h.HandleServiceError(w, r, err, "DeleteLicense")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
