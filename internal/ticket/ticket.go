package ticket

import (
	"time"

	ticketDatamodel "github.com/frahmantamala/license-portal/internal/core/datamodel/ticket"
)

type Status string

const (
	StatusOpen            Status = "open"
	StatusInProgress      Status = "in_progress"
	StatusWaitingCustomer Status = "waiting_customer"
	StatusWaitingInternal Status = "waiting_internal"
	StatusResolved        Status = "resolved"
	StatusClosed          Status = "closed"
)

func Statuses() []string {
	return []string{
		string(StatusOpen), string(StatusInProgress), string(StatusWaitingCustomer),
		string(StatusWaitingInternal), string(StatusResolved), string(StatusClosed),
	}
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func Priorities() []string {
	return []string{string(PriorityLow), string(PriorityMedium), string(PriorityHigh), string(PriorityUrgent)}
}

type Moderation string

const (
	ModerationNone        Moderation = "none"
	ModerationUnderReview Moderation = "under_review"
	ModerationApproved    Moderation = "approved"
	ModerationRejected    Moderation = "rejected"
	ModerationSpam        Moderation = "spam"
)

func Moderations() []string {
	return []string{
		string(ModerationNone), string(ModerationUnderReview), string(ModerationApproved),
		string(ModerationRejected), string(ModerationSpam),
	}
}

type Ticket struct {
	ID               int64      `json:"id"`
	TicketNumber     string     `json:"ticket_number"`
	Subject          string     `json:"subject"`
	Description      string     `json:"description"`
	RequesterID      int64      `json:"requester_id"`
	RequesterEmail   string     `json:"requester_email"`
	RequesterName    string     `json:"requester_name"`
	AccountID        *int64     `json:"account_id"`
	Status           Status     `json:"status"`
	Priority         Priority   `json:"priority"`
	ModerationStatus Moderation `json:"moderation_status"`
	FlaggedForReview bool       `json:"flagged_for_review"`
	FlagReason       *string    `json:"flag_reason"`
	Escalated        bool       `json:"escalated"`
	EscalationReason *string    `json:"escalation_reason"`
	Version          int64      `json:"version"`
	ResolvedAt       *time.Time `json:"resolved_at"`
	ClosedAt         *time.Time `json:"closed_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// SetStatus moves the ticket to any status. Reaching resolved or closed
// stamps the matching timestamp once; reopening clears both.
func (t *Ticket) SetStatus(s Status, now time.Time) {
	t.Status = s
	switch s {
	case StatusResolved:
		if t.ResolvedAt == nil {
			t.ResolvedAt = &now
		}
	case StatusClosed:
		if t.ResolvedAt == nil {
			t.ResolvedAt = &now
		}
		if t.ClosedAt == nil {
			t.ClosedAt = &now
		}
	default:
		t.ResolvedAt = nil
		t.ClosedAt = nil
	}
}

func (t *Ticket) Flag(reason string) {
	t.FlaggedForReview = true
	t.FlagReason = &reason
}

func (t *Ticket) ClearFlag() {
	t.FlaggedForReview = false
	t.FlagReason = nil
}

func (t *Ticket) Escalate(reason string) {
	t.Escalated = true
	t.EscalationReason = &reason
}

func (t *Ticket) ClearEscalation() {
	t.Escalated = false
	t.EscalationReason = nil
}

type Comment struct {
	ID          int64     `json:"id"`
	TicketID    int64     `json:"ticket_id"`
	AuthorID    int64     `json:"author_id"`
	AuthorEmail string    `json:"author_email"`
	Body        string    `json:"body"`
	IsInternal  bool      `json:"is_internal"`
	CreatedAt   time.Time `json:"created_at"`
}

// RequesterView is the customer-facing rendering of a ticket. It never
// carries internal notes or moderation details.
type RequesterView struct {
	ID           int64      `json:"id"`
	TicketNumber string     `json:"ticket_number"`
	Subject      string     `json:"subject"`
	Description  string     `json:"description"`
	Status       Status     `json:"status"`
	Priority     Priority   `json:"priority"`
	ResolvedAt   *time.Time `json:"resolved_at"`
	ClosedAt     *time.Time `json:"closed_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Comments     []*Comment `json:"comments"`
}

func NewRequesterView(t *Ticket, comments []*Comment) *RequesterView {
	v := &RequesterView{
		ID:           t.ID,
		TicketNumber: t.TicketNumber,
		Subject:      t.Subject,
		Description:  t.Description,
		Status:       t.Status,
		Priority:     t.Priority,
		ResolvedAt:   t.ResolvedAt,
		ClosedAt:     t.ClosedAt,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
		Comments:     []*Comment{},
	}
	for _, c := range comments {
		if c.IsInternal {
			continue
		}
		v.Comments = append(v.Comments, c)
	}
	return v
}

// StaffView is the full ticket with every comment.
type StaffView struct {
	*Ticket
	Comments []*Comment `json:"comments"`
}

func ToDataModel(t *Ticket) *ticketDatamodel.SupportTicket {
	return &ticketDatamodel.SupportTicket{
		ID:               t.ID,
		TicketNumber:     t.TicketNumber,
		Subject:          t.Subject,
		Description:      t.Description,
		RequesterID:      t.RequesterID,
		RequesterEmail:   t.RequesterEmail,
		RequesterName:    t.RequesterName,
		AccountID:        t.AccountID,
		Status:           string(t.Status),
		Priority:         string(t.Priority),
		ModerationStatus: string(t.ModerationStatus),
		FlaggedForReview: t.FlaggedForReview,
		FlagReason:       t.FlagReason,
		Escalated:        t.Escalated,
		EscalationReason: t.EscalationReason,
		Version:          t.Version,
		ResolvedAt:       t.ResolvedAt,
		ClosedAt:         t.ClosedAt,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

func FromDataModel(m *ticketDatamodel.SupportTicket) *Ticket {
	return &Ticket{
		ID:               m.ID,
		TicketNumber:     m.TicketNumber,
		Subject:          m.Subject,
		Description:      m.Description,
		RequesterID:      m.RequesterID,
		RequesterEmail:   m.RequesterEmail,
		RequesterName:    m.RequesterName,
		AccountID:        m.AccountID,
		Status:           Status(m.Status),
		Priority:         Priority(m.Priority),
		ModerationStatus: Moderation(m.ModerationStatus),
		FlaggedForReview: m.FlaggedForReview,
		FlagReason:       m.FlagReason,
		Escalated:        m.Escalated,
		EscalationReason: m.EscalationReason,
		Version:          m.Version,
		ResolvedAt:       m.ResolvedAt,
		ClosedAt:         m.ClosedAt,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func CommentToDataModel(c *Comment) *ticketDatamodel.TicketComment {
	return &ticketDatamodel.TicketComment{
		ID:          c.ID,
		TicketID:    c.TicketID,
		AuthorID:    c.AuthorID,
		AuthorEmail: c.AuthorEmail,
		Body:        c.Body,
		IsInternal:  c.IsInternal,
		CreatedAt:   c.CreatedAt,
	}
}

func CommentFromDataModel(m *ticketDatamodel.TicketComment) *Comment {
	return &Comment{
		ID:          m.ID,
		TicketID:    m.TicketID,
		AuthorID:    m.AuthorID,
		AuthorEmail: m.AuthorEmail,
		Body:        m.Body,
		IsInternal:  m.IsInternal,
		CreatedAt:   m.CreatedAt,
	}
}
