package ticket

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/license-portal/internal"
	"github.com/frahmantamala/license-portal/internal/audit"
	ticketDatamodel "github.com/frahmantamala/license-portal/internal/core/datamodel/ticket"
	"github.com/frahmantamala/license-portal/internal/core/events"
	"github.com/frahmantamala/license-portal/internal/core/keygen"
	"github.com/frahmantamala/license-portal/internal/role"
)

const numberRetryAttempts = 5

var (
	ErrTicketNotFound     = internal.NewNotFoundError("ticket not found", internal.ErrCodeTicketNotFound)
	ErrReasonRequired     = internal.NewValidationFieldError("reason", "a reason is required", internal.ErrCodeReasonRequired)
	ErrAlreadyFlagged     = internal.NewConflictError("ticket is already flagged for review", internal.ErrCodeAlreadyFlagged)
	ErrAlreadyEscalated   = internal.NewConflictError("ticket is already escalated", internal.ErrCodeAlreadyEscalated)
	ErrInternalNoteDenied = internal.NewForbiddenError("only staff can post internal notes", internal.ErrCodeUnauthorizedView)

	// ErrDuplicateNumber is returned by repositories when a ticket number collides.
	ErrDuplicateNumber = errors.New("duplicate ticket number")
)

type RepositoryAPI interface {
	Create(ctx context.Context, t *ticketDatamodel.SupportTicket) error
	GetByID(ctx context.Context, id int64) (*ticketDatamodel.SupportTicket, error)
	List(ctx context.Context, filter ListFilter) ([]*ticketDatamodel.SupportTicket, error)
	Update(ctx context.Context, t *ticketDatamodel.SupportTicket, expectedVersion int64) error
	AddComment(ctx context.Context, c *ticketDatamodel.TicketComment) error
	ListComments(ctx context.Context, ticketID int64, includeInternal bool) ([]*ticketDatamodel.TicketComment, error)
}

type Service struct {
	repo   RepositoryAPI
	audit  audit.Recorder
	events events.Publisher
	now    func() time.Time
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, recorder audit.Recorder, publisher events.Publisher, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		repo:   repo,
		audit:  recorder,
		events: publisher,
		now:    time.Now,
		logger: logger,
	}
}

func (s *Service) clock() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func isStaff(p *internal.Principal) bool {
	return p != nil && role.NewChecker(p.Roles).CanManageTickets()
}

func (s *Service) Create(ctx context.Context, dto CreateTicketDTO, p *internal.Principal) (*Ticket, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	now := s.clock()
	t := &Ticket{
		Subject:          strings.TrimSpace(dto.Subject),
		Description:      dto.Description,
		RequesterID:      p.ID,
		RequesterEmail:   p.Email,
		RequesterName:    p.Name,
		AccountID:        dto.AccountID,
		Status:           StatusOpen,
		Priority:         Priority(dto.Priority),
		ModerationStatus: ModerationNone,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}

	for attempt := 1; attempt <= numberRetryAttempts; attempt++ {
		number, err := keygen.TicketNumber(now)
		if err != nil {
			return nil, internal.NewInternalError("failed to generate ticket number", err)
		}
		t.TicketNumber = number

		row := ToDataModel(t)
		err = s.repo.Create(ctx, row)
		if errors.Is(err, ErrDuplicateNumber) {
			s.logger.Warn("ticket number collision, retrying", "attempt", attempt)
			continue
		}
		if err != nil {
			s.logger.Error("failed to create ticket", "requester_id", p.ID, "error", err)
			return nil, internal.NewInternalError("failed to create ticket", err)
		}

		created := FromDataModel(row)
		s.audit.Record(ctx, audit.EntityTicket, created.ID, "created", p, nil, created)
		s.publish(ctx, events.NewTicketEvent(events.EventTypeTicketUpdated, created.ID, created.TicketNumber, "created", p.ID))
		s.logger.Info("ticket created", "ticket_id", created.ID, "ticket_number", created.TicketNumber)
		return created, nil
	}
	return nil, internal.NewInternalError("could not allocate a unique ticket number", nil)
}

// List returns every ticket matching filter for staff; everyone else only
// sees tickets they requested.
func (s *Service) List(ctx context.Context, p *internal.Principal, filter ListFilter) ([]*Ticket, error) {
	if !isStaff(p) {
		id := p.ID
		filter = ListFilter{Status: filter.Status, RequesterID: &id}
	}
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list tickets", "error", err)
		return nil, internal.NewInternalError("failed to list tickets", err)
	}
	out := make([]*Ticket, 0, len(rows))
	for _, r := range rows {
		out = append(out, FromDataModel(r))
	}
	return out, nil
}

func (s *Service) load(ctx context.Context, id int64) (*Ticket, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get ticket", "ticket_id", id, "error", err)
		return nil, internal.NewInternalError("failed to get ticket", err)
	}
	if row == nil {
		return nil, ErrTicketNotFound
	}
	return FromDataModel(row), nil
}

// Get returns the ticket if p may read it.
func (s *Service) Get(ctx context.Context, p *internal.Principal, id int64) (*Ticket, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isStaff(p) && t.RequesterID != p.ID {
		return nil, ErrTicketNotFound
	}
	return t, nil
}

// StaffView returns the ticket with internal notes included.
func (s *Service) StaffView(ctx context.Context, p *internal.Principal, id int64) (*StaffView, error) {
	if !isStaff(p) {
		return nil, internal.ErrUnauthorizedAccess
	}
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments(ctx, id, true)
	if err != nil {
		return nil, err
	}
	return &StaffView{Ticket: t, Comments: comments}, nil
}

// RequesterView returns the customer-facing rendering. Internal comments are
// excluded by the query and again by the view.
func (s *Service) RequesterView(ctx context.Context, p *internal.Principal, id int64) (*RequesterView, error) {
	t, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments(ctx, id, false)
	if err != nil {
		return nil, err
	}
	return NewRequesterView(t, comments), nil
}

func (s *Service) ListComments(ctx context.Context, p *internal.Principal, id int64) ([]*Comment, error) {
	if _, err := s.Get(ctx, p, id); err != nil {
		return nil, err
	}
	return s.comments(ctx, id, isStaff(p))
}

func (s *Service) comments(ctx context.Context, id int64, includeInternal bool) ([]*Comment, error) {
	rows, err := s.repo.ListComments(ctx, id, includeInternal)
	if err != nil {
		s.logger.Error("failed to list comments", "ticket_id", id, "error", err)
		return nil, internal.NewInternalError("failed to list comments", err)
	}
	out := make([]*Comment, 0, len(rows))
	for _, r := range rows {
		out = append(out, CommentFromDataModel(r))
	}
	return out, nil
}

func (s *Service) AddComment(ctx context.Context, id int64, dto CommentDTO, p *internal.Principal) (*Comment, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if dto.IsInternal && !isStaff(p) {
		return nil, ErrInternalNoteDenied
	}
	t, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}

	c := &Comment{
		TicketID:    id,
		AuthorID:    p.ID,
		AuthorEmail: p.Email,
		Body:        strings.TrimSpace(dto.Body),
		IsInternal:  dto.IsInternal,
		CreatedAt:   s.clock(),
	}
	row := CommentToDataModel(c)
	if err := s.repo.AddComment(ctx, row); err != nil {
		s.logger.Error("failed to add comment", "ticket_id", id, "error", err)
		return nil, internal.NewInternalError("failed to add comment", err)
	}
	c = CommentFromDataModel(row)

	action := "comment_added"
	if c.IsInternal {
		action = "internal_note_added"
	}
	s.audit.Record(ctx, audit.EntityTicket, id, action, p, nil, map[string]interface{}{"comment_id": c.ID, "is_internal": c.IsInternal})
	s.publish(ctx, events.NewTicketEvent(events.EventTypeTicketUpdated, id, t.TicketNumber, action, p.ID))
	return c, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id int64, dto StatusDTO, actor *internal.Principal) (*Ticket, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if !isStaff(actor) {
		return nil, internal.ErrUnauthorizedAccess
	}
	return s.mutate(ctx, id, dto.Version, actor, "status_changed", events.EventTypeTicketUpdated, func(t *Ticket) error {
		t.SetStatus(Status(dto.Status), s.clock())
		return nil
	})
}

func (s *Service) UpdatePriority(ctx context.Context, id int64, dto PriorityDTO, actor *internal.Principal) (*Ticket, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if !isStaff(actor) {
		return nil, internal.ErrUnauthorizedAccess
	}
	return s.mutate(ctx, id, dto.Version, actor, "priority_changed", events.EventTypeTicketUpdated, func(t *Ticket) error {
		t.Priority = Priority(dto.Priority)
		return nil
	})
}

func (s *Service) SetModeration(ctx context.Context, id int64, dto ModerationDTO, actor *internal.Principal) (*Ticket, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if actor == nil || !role.NewChecker(actor.Roles).CanModerateTickets() {
		return nil, internal.ErrUnauthorizedAccess
	}
	return s.mutate(ctx, id, dto.Version, actor, "moderation_changed", events.EventTypeTicketUpdated, func(t *Ticket) error {
		t.ModerationStatus = Moderation(dto.ModerationStatus)
		return nil
	})
}

// Flag marks the ticket for review. The reason is checked before anything
// is read or written.
func (s *Service) Flag(ctx context.Context, id int64, reason string, actor *internal.Principal) (*Ticket, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	if !isStaff(actor) {
		return nil, internal.ErrUnauthorizedAccess
	}
	return s.mutate(ctx, id, nil, actor, "flagged", events.EventTypeTicketFlagged, func(t *Ticket) error {
		if t.FlaggedForReview {
			return ErrAlreadyFlagged
		}
		t.Flag(reason)
		return nil
	})
}

func (s *Service) Escalate(ctx context.Context, id int64, reason string, actor *internal.Principal) (*Ticket, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	if !isStaff(actor) {
		return nil, internal.ErrUnauthorizedAccess
	}
	return s.mutate(ctx, id, nil, actor, "escalated", events.EventTypeTicketEscalated, func(t *Ticket) error {
		if t.Escalated {
			return ErrAlreadyEscalated
		}
		t.Escalate(reason)
		return nil
	})
}

func (s *Service) ClearFlag(ctx context.Context, id int64, actor *internal.Principal) (*Ticket, error) {
	if actor == nil || !role.NewChecker(actor.Roles).IsAdmin() {
		return nil, internal.ErrUnauthorizedAccess
	}
	return s.mutate(ctx, id, nil, actor, "flag_cleared", events.EventTypeTicketUpdated, func(t *Ticket) error {
		t.ClearFlag()
		return nil
	})
}

func (s *Service) ClearEscalation(ctx context.Context, id int64, actor *internal.Principal) (*Ticket, error) {
	if actor == nil || !role.NewChecker(actor.Roles).IsAdmin() {
		return nil, internal.ErrUnauthorizedAccess
	}
	return s.mutate(ctx, id, nil, actor, "escalation_cleared", events.EventTypeTicketUpdated, func(t *Ticket) error {
		t.ClearEscalation()
		return nil
	})
}

// mutate loads the ticket, applies fn, writes it back version-checked and
// records the audit entry and event.
func (s *Service) mutate(ctx context.Context, id int64, version *int64, actor *internal.Principal, action, eventType string, fn func(t *Ticket) error) (*Ticket, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if version != nil && *version != t.Version {
		return nil, internal.ErrVersionConflict
	}

	before := *t
	if err := fn(t); err != nil {
		s.logger.Warn("ticket mutation rejected", "ticket_id", id, "action", action, "error", err)
		return nil, err
	}
	t.UpdatedAt = s.clock()

	row := ToDataModel(t)
	if err := s.repo.Update(ctx, row, before.Version); err != nil {
		if errors.Is(err, internal.ErrVersionConflict) {
			return nil, internal.ErrVersionConflict
		}
		s.logger.Error("failed to update ticket", "ticket_id", id, "action", action, "error", err)
		return nil, internal.NewInternalError("failed to update ticket", err)
	}
	t.Version = row.Version

	s.audit.Record(ctx, audit.EntityTicket, id, action, actor, &before, t)
	s.publish(ctx, events.NewTicketEvent(eventType, id, t.TicketNumber, action, actor.ID))
	s.logger.Info("ticket updated", "ticket_id", id, "action", action, "actor_id", actor.ID)
	return t, nil
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if err := s.events.Publish(ctx, e); err != nil {
		s.logger.Warn("failed to publish event", "event_type", e.EventType(), "error", err)
	}
}
