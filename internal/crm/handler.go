package crm

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/frahmantamala/license-portal/internal"
	"github.com/frahmantamala/license-portal/internal/core/bulk"
	"github.com/frahmantamala/license-portal/internal/license"
	"github.com/frahmantamala/license-portal/internal/transport"
)

// maxImportBytes caps the contact CSV upload.
const maxImportBytes = 5 << 20

type ServiceAPI interface {
	ListAccounts(ctx context.Context, p *internal.Principal, search string) ([]*Account, error)
	GetAccount(ctx context.Context, p *internal.Principal, id int64) (*Account, error)
	CreateAccount(ctx context.Context, dto AccountDTO, actor *internal.Principal) (*Account, error)
	UpdateAccount(ctx context.Context, id int64, dto AccountDTO, actor *internal.Principal) (*Account, error)
	DeleteAccount(ctx context.Context, id int64, actor *internal.Principal) error
	Overview(ctx context.Context, p *internal.Principal, id int64) (*AccountOverview, error)

	ListContacts(ctx context.Context, p *internal.Principal, filter ListFilter) ([]*Contact, error)
	GetContact(ctx context.Context, p *internal.Principal, id int64) (*Contact, error)
	CreateContact(ctx context.Context, dto ContactDTO, actor *internal.Principal) (*Contact, error)
	UpdateContact(ctx context.Context, id int64, dto ContactDTO, actor *internal.Principal) (*Contact, error)
	DeleteContact(ctx context.Context, id int64, actor *internal.Principal) error
	ImportContacts(ctx context.Context, r io.Reader, accountID *int64, actor *internal.Principal) (*bulk.Result, error)

	ListDeals(ctx context.Context, p *internal.Principal, filter ListFilter) ([]*Deal, error)
	GetDeal(ctx context.Context, p *internal.Principal, id int64) (*Deal, error)
	CreateDeal(ctx context.Context, dto DealDTO, actor *internal.Principal) (*Deal, error)
	UpdateDeal(ctx context.Context, id int64, dto DealDTO, actor *internal.Principal) (*Deal, error)
	DeleteDeal(ctx context.Context, id int64, actor *internal.Principal) error

	ListActivities(ctx context.Context, p *internal.Principal, filter ListFilter) ([]*Activity, error)
	GetActivity(ctx context.Context, p *internal.Principal, id int64) (*Activity, error)
	CreateActivity(ctx context.Context, dto ActivityDTO, actor *internal.Principal) (*Activity, error)
	UpdateActivity(ctx context.Context, id int64, dto ActivityDTO, actor *internal.Principal) (*Activity, error)
	DeleteActivity(ctx context.Context, id int64, actor *internal.Principal) error

	ListOnboarding(ctx context.Context, p *internal.Principal, filter ListFilter) ([]*Onboarding, error)
	Timeline(ctx context.Context, p *internal.Principal, id int64) (*Onboarding, error)
	LinkOnboarding(ctx context.Context, id int64, accountID *int64, actor *internal.Principal) (*Onboarding, error)
	LinkLicense(ctx context.Context, licenseID int64, accountID *int64, actor *internal.Principal) (*license.License, error)
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

// filterFromQuery reads ?account_id=.
func filterFromQuery(r *http.Request) (ListFilter, error) {
	var f ListFilter
	raw := strings.TrimSpace(r.URL.Query().Get("account_id"))
	if raw == "" {
		return f, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return f, internal.NewValidationFieldError("account_id", "must be a positive integer", internal.ErrCodeValidationFailed)
	}
	f.AccountID = &id
	return f, nil
}

// serve writes the result of fn with status, or the mapped error.
func serve[T any](h *Handler, w http.ResponseWriter, r *http.Request, op string, status int, fn func(ctx context.Context, p *internal.Principal) (T, error)) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	out, err := fn(r.Context(), p)
	if err != nil {
		h.HandleServiceError(w, r, err, op)
		return
	}
	h.WriteJSON(w, status, out)
}

// serveID is serve for routes with an {id} parameter.
func serveID[T any](h *Handler, w http.ResponseWriter, r *http.Request, op string, fn func(ctx context.Context, p *internal.Principal, id int64) (T, error)) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err, op)
		return
	}
	serve(h, w, r, op, http.StatusOK, func(ctx context.Context, p *internal.Principal) (T, error) {
		return fn(ctx, p, id)
	})
}

// decodeAnd decodes the body into dto before calling serve.
func decodeAnd[T any](h *Handler, w http.ResponseWriter, r *http.Request, op string, status int, dto interface{}, fn func(ctx context.Context, p *internal.Principal) (T, error)) {
	if err := h.DecodeJSON(r, dto); err != nil {
		h.HandleServiceError(w, r, err, op)
		return
	}
	serve(h, w, r, op, status, fn)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request, op string, fn func(ctx context.Context, id int64, p *internal.Principal) error) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err, op)
		return
	}
	if err := fn(r.Context(), id, p); err != nil {
		h.HandleServiceError(w, r, err, op)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ----------------- ACCOUNTS -----------------

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, "ListAccounts", http.StatusOK, func(ctx context.Context, p *internal.Principal) (AccountsResponse, error) {
		accounts, err := h.Service.ListAccounts(ctx, p, r.URL.Query().Get("search"))
		return AccountsResponse{Accounts: accounts}, err
	})
}

func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	serveID(h, w, r, "GetAccount", h.Service.GetAccount)
}

// AccountOverview handles GET /crm/accounts/{id}/overview.
func (h *Handler) AccountOverview(w http.ResponseWriter, r *http.Request) {
	serveID(h, w, r, "AccountOverview", h.Service.Overview)
}

func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var dto AccountDTO
	decodeAnd(h, w, r, "CreateAccount", http.StatusCreated, &dto, func(ctx context.Context, p *internal.Principal) (*Account, error) {
		return h.Service.CreateAccount(ctx, dto, p)
	})
}

func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	var dto AccountDTO
	h.update(w, r, "UpdateAccount", &dto, func(ctx context.Context, id int64, p *internal.Principal) (interface{}, error) {
		return h.Service.UpdateAccount(ctx, id, dto, p)
	})
}

func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, "DeleteAccount", h.Service.DeleteAccount)
}

// ----------------- CONTACTS -----------------

func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "ListContacts", func(ctx context.Context, p *internal.Principal, f ListFilter) (interface{}, error) {
		contacts, err := h.Service.ListContacts(ctx, p, f)
		return ContactsResponse{Contacts: contacts}, err
	})
}

func (h *Handler) GetContact(w http.ResponseWriter, r *http.Request) {
	serveID(h, w, r, "GetContact", h.Service.GetContact)
}

func (h *Handler) CreateContact(w http.ResponseWriter, r *http.Request) {
	var dto ContactDTO
	decodeAnd(h, w, r, "CreateContact", http.StatusCreated, &dto, func(ctx context.Context, p *internal.Principal) (*Contact, error) {
		return h.Service.CreateContact(ctx, dto, p)
	})
}

func (h *Handler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	var dto ContactDTO
	h.update(w, r, "UpdateContact", &dto, func(ctx context.Context, id int64, p *internal.Principal) (interface{}, error) {
		return h.Service.UpdateContact(ctx, id, dto, p)
	})
}

func (h *Handler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, "DeleteContact", h.Service.DeleteContact)
}

// ImportContacts handles POST /crm/contacts/import. The CSV arrives either as
// a multipart "file" part or as the raw request body.
func (h *Handler) ImportContacts(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	filter, err := filterFromQuery(r)
	if err != nil {
		h.HandleServiceError(w, r, err, "ImportContacts")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	var body io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			h.HandleServiceError(w, r, internal.NewValidationFieldError("file", "a CSV file is required", internal.ErrCodeValidationFailed), "ImportContacts")
			return
		}
		defer file.Close()
		body = file
	}

	res, err := h.Service.ImportContacts(r.Context(), body, filter.AccountID, p)
	if err != nil {
		h.HandleServiceError(w, r, err, "ImportContacts")
		return
	}
	h.WriteJSON(w, http.StatusOK, ImportResponse{Result: *res})
}

// ----------------- DEALS -----------------

func (h *Handler) ListDeals(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "ListDeals", func(ctx context.Context, p *internal.Principal, f ListFilter) (interface{}, error) {
		deals, err := h.Service.ListDeals(ctx, p, f)
		return DealsResponse{Deals: deals}, err
	})
}

func (h *Handler) GetDeal(w http.ResponseWriter, r *http.Request) {
	serveID(h, w, r, "GetDeal", h.Service.GetDeal)
}

func (h *Handler) CreateDeal(w http.ResponseWriter, r *http.Request) {
	var dto DealDTO
	decodeAnd(h, w, r, "CreateDeal", http.StatusCreated, &dto, func(ctx context.Context, p *internal.Principal) (*Deal, error) {
		return h.Service.CreateDeal(ctx, dto, p)
	})
}

func (h *Handler) UpdateDeal(w http.ResponseWriter, r *http.Request) {
	var dto DealDTO
	h.update(w, r, "UpdateDeal", &dto, func(ctx context.Context, id int64, p *internal.Principal) (interface{}, error) {
		return h.Service.UpdateDeal(ctx, id, dto, p)
	})
}

func (h *Handler) DeleteDeal(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, "DeleteDeal", h.Service.DeleteDeal)
}

// ----------------- ACTIVITIES -----------------

func (h *Handler) ListActivities(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "ListActivities", func(ctx context.Context, p *internal.Principal, f ListFilter) (interface{}, error) {
		activities, err := h.Service.ListActivities(ctx, p, f)
		return ActivitiesResponse{Activities: activities}, err
	})
}

func (h *Handler) GetActivity(w http.ResponseWriter, r *http.Request) {
	serveID(h, w, r, "GetActivity", h.Service.GetActivity)
}

func (h *Handler) CreateActivity(w http.ResponseWriter, r *http.Request) {
	var dto ActivityDTO
	decodeAnd(h, w, r, "CreateActivity", http.StatusCreated, &dto, func(ctx context.Context, p *internal.Principal) (*Activity, error) {
		return h.Service.CreateActivity(ctx, dto, p)
	})
}

func (h *Handler) UpdateActivity(w http.ResponseWriter, r *http.Request) {
	var dto ActivityDTO
	h.update(w, r, "UpdateActivity", &dto, func(ctx context.Context, id int64, p *internal.Principal) (interface{}, error) {
		return h.Service.UpdateActivity(ctx, id, dto, p)
	})
}

func (h *Handler) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, "DeleteActivity", h.Service.DeleteActivity)
}

// ----------------- ONBOARDING & LINKS -----------------

func (h *Handler) ListOnboarding(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "ListOnboarding", func(ctx context.Context, p *internal.Principal, f ListFilter) (interface{}, error) {
		onboarding, err := h.Service.ListOnboarding(ctx, p, f)
		return OnboardingResponse{Onboarding: onboarding}, err
	})
}

// OnboardingTimeline handles GET /crm/onboarding/{id}.
func (h *Handler) OnboardingTimeline(w http.ResponseWriter, r *http.Request) {
	serveID(h, w, r, "OnboardingTimeline", h.Service.Timeline)
}

// LinkOnboarding handles PUT /crm/onboarding/{id}/account.
func (h *Handler) LinkOnboarding(w http.ResponseWriter, r *http.Request) {
	var dto LinkDTO
	h.update(w, r, "LinkOnboarding", &dto, func(ctx context.Context, id int64, p *internal.Principal) (interface{}, error) {
		return h.Service.LinkOnboarding(ctx, id, dto.AccountID, p)
	})
}

// LinkLicense handles PUT /licenses/{id}/account.
func (h *Handler) LinkLicense(w http.ResponseWriter, r *http.Request) {
	var dto LinkDTO
	h.update(w, r, "LinkLicense", &dto, func(ctx context.Context, id int64, p *internal.Principal) (interface{}, error) {
		return h.Service.LinkLicense(ctx, id, dto.AccountID, p)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, op string, fn func(ctx context.Context, p *internal.Principal, f ListFilter) (interface{}, error)) {
	filter, err := filterFromQuery(r)
	if err != nil {
		h.HandleServiceError(w, r, err, op)
		return
	}
	serve(h, w, r, op, http.StatusOK, func(ctx context.Context, p *internal.Principal) (interface{}, error) {
		return fn(ctx, p, filter)
	})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, op string, dto interface{}, fn func(ctx context.Context, id int64, p *internal.Principal) (interface{}, error)) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err, op)
		return
	}
	decodeAnd(h, w, r, op, http.StatusOK, dto, func(ctx context.Context, p *internal.Principal) (interface{}, error) {
		return fn(ctx, id, p)
	})
}
