package ticket

import (
	"context"
	"net/http"

	"github.com/frahmantamala/license-portal/internal"
	"github.com/frahmantamala/license-portal/internal/role"
	"github.com/frahmantamala/license-portal/internal/transport"
)

type ServiceAPI interface {
	Create(ctx context.Context, dto CreateTicketDTO, p *internal.Principal) (*Ticket, error)
	List(ctx context.Context, p *internal.Principal, filter ListFilter) ([]*Ticket, error)
	StaffView(ctx context.Context, p *internal.Principal, id int64) (*StaffView, error)
	RequesterView(ctx context.Context, p *internal.Principal, id int64) (*RequesterView, error)
	ListComments(ctx context.Context, p *internal.Principal, id int64) ([]*Comment, error)
	AddComment(ctx context.Context, id int64, dto CommentDTO, p *internal.Principal) (*Comment, error)
	UpdateStatus(ctx context.Context, id int64, dto StatusDTO, actor *internal.Principal) (*Ticket, error)
	UpdatePriority(ctx context.Context, id int64, dto PriorityDTO, actor *internal.Principal) (*Ticket, error)
	SetModeration(ctx context.Context, id int64, dto ModerationDTO, actor *internal.Principal) (*Ticket, error)
	Flag(ctx context.Context, id int64, reason string, actor *internal.Principal) (*Ticket, error)
	Escalate(ctx context.Context, id int64, reason string, actor *internal.Principal) (*Ticket, error)
	ClearFlag(ctx context.Context, id int64, actor *internal.Principal) (*Ticket, error)
	ClearEscalation(ctx context.Context, id int64, actor *internal.Principal) (*Ticket, error)
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

func (h *Handler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}

	var dto CreateTicketDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err, "CreateTicket")
		return
	}

	t, err := h.Service.Create(r.Context(), dto, p)
	if err != nil {
		h.HandleServiceError(w, r, err, "CreateTicket")
		return
	}
	if !role.NewChecker(p.Roles).CanManageTickets() {
		h.WriteJSON(w, http.StatusCreated, NewRequesterView(t, nil))
		return
	}
	h.WriteJSON(w, http.StatusCreated, t)
}

// ListTickets handles GET /tickets. Requesters receive the reduced view.
func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := ListFilter{
		Status:           q.Get("status"),
		Priority:         q.Get("priority"),
		ModerationStatus: q.Get("moderation_status"),
		FlaggedOnly:      q.Get("flagged") == "true",
		EscalatedOnly:    q.Get("escalated") == "true",
	}

	tickets, err := h.Service.List(r.Context(), p, filter)
	if err != nil {
		h.HandleServiceError(w, r, err, "ListTickets")
		return
	}

	if !role.NewChecker(p.Roles).CanManageTickets() {
		views := make([]*RequesterView, 0, len(tickets))
		for _, t := range tickets {
			views = append(views, NewRequesterView(t, nil))
		}
		h.WriteJSON(w, http.StatusOK, map[string]interface{}{"tickets": views})
		return
	}
	h.WriteJSON(w, http.StatusOK, TicketsResponse{Tickets: tickets})
}

// GetTicket handles GET /tickets/{id}.
func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err, "GetTicket")
		return
	}

	if role.NewChecker(p.Roles).CanManageTickets() {
		view, err := h.Service.StaffView(r.Context(), p, id)
		if err != nil {
			h.HandleServiceError(w, r, err, "GetTicket")
			return
		}
		h.WriteJSON(w, http.StatusOK, view)
		return
	}

	view, err := h.Service.RequesterView(r.Context(), p, id)
	if err != nil {
		h.HandleServiceError(w, r, err, "GetTicket")
		return
	}
	h.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err, "ListComments")
		return
	}

	comments, err := h.Service.ListComments(r.Context(), p, id)
	if err != nil {
		h.HandleServiceError(w, r, err, "ListComments")
		return
	}
	h.WriteJSON(w, http.StatusOK, CommentsResponse{Comments: comments})
}

func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err, "AddComment")
		return
	}

	var dto CommentDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err, "AddComment")
		return
	}

	c, err := h.Service.AddComment(r.Context(), id, dto, p)
	if err != nil {
		h.HandleServiceError(w, r, err, "AddComment")
		return
	}
	h.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var dto StatusDTO
	h.update(w, r, "UpdateStatus", &dto, func(ctx context.Context, id int64, p *internal.Principal) (*Ticket, error) {
		return h.Service.UpdateStatus(ctx, id, dto, p)
	})
}

func (h *Handler) UpdatePriority(w http.ResponseWriter, r *http.Request) {
	var dto PriorityDTO
	h.update(w, r, "UpdatePriority", &dto, func(ctx context.Context, id int64, p *internal.Principal) (*Ticket, error) {
		return h.Service.UpdatePriority(ctx, id, dto, p)
	})
}

func (h *Handler) SetModeration(w http.ResponseWriter, r *http.Request) {
	var dto ModerationDTO
	h.update(w, r, "SetModeration", &dto, func(ctx context.Context, id int64, p *internal.Principal) (*Ticket, error) {
		return h.Service.SetModeration(ctx, id, dto, p)
	})
}

func (h *Handler) Flag(w http.ResponseWriter, r *http.Request) {
	var dto ReasonDTO
	h.update(w, r, "Flag", &dto, func(ctx context.Context, id int64, p *internal.Principal) (*Ticket, error) {
		return h.Service.Flag(ctx, id, dto.Reason, p)
	})
}

func (h *Handler) Escalate(w http.ResponseWriter, r *http.Request) {
	var dto ReasonDTO
	h.update(w, r, "Escalate", &dto, func(ctx context.Context, id int64, p *internal.Principal) (*Ticket, error) {
		return h.Service.Escalate(ctx, id, dto.Reason, p)
	})
}

func (h *Handler) ClearFlag(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, "ClearFlag", nil, h.Service.ClearFlag)
}

func (h *Handler) ClearEscalation(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, "ClearEscalation", nil, h.Service.ClearEscalation)
}

// update decodes body into dto when given, then runs fn for the path id.
func (h *Handler) update(w http.ResponseWriter, r *http.Request, op string, dto interface{},
	fn func(ctx context.Context, id int64, p *internal.Principal) (*Ticket, error)) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err, op)
		return
	}
	if dto != nil {
		if err := h.DecodeJSON(r, dto); err != nil {
			h.HandleServiceError(w, r, err, op)
			return
		}
	}

	t, err := fn(r.Context(), id, p)
	if err != nil {
		h.HandleServiceError(w, r, err, op)
		return
	}
	h.WriteJSON(w, http.StatusOK, t)
}
