package ticket

import "time"

type SupportTicket struct {
	ID               int64      `gorm:"primaryKey"`
	TicketNumber     string     `gorm:"column:ticket_number;uniqueIndex;not null"`
	Subject          string     `gorm:"column:subject;not null"`
	Description      string     `gorm:"column:description"`
	RequesterID      int64      `gorm:"column:requester_id;index"`
	RequesterEmail   string     `gorm:"column:requester_email;index;not null"`
	RequesterName    string     `gorm:"column:requester_name"`
	AccountID        *int64     `gorm:"column:account_id;index"`
	Status           string     `gorm:"column:status;not null"`
	Priority         string     `gorm:"column:priority;not null"`
	ModerationStatus string     `gorm:"column:moderation_status;not null"`
	FlaggedForReview bool       `gorm:"column:flagged_for_review;not null"`
	FlagReason       *string    `gorm:"column:flag_reason"`
	Escalated        bool       `gorm:"column:escalated;not null"`
	EscalationReason *string    `gorm:"column:escalation_reason"`
	Version          int64      `gorm:"column:version;not null"`
	ResolvedAt       *time.Time `gorm:"column:resolved_at"`
	ClosedAt         *time.Time `gorm:"column:closed_at"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (SupportTicket) TableName() string { return "support_tickets" }

type TicketComment struct {
	ID          int64     `gorm:"primaryKey"`
	TicketID    int64     `gorm:"column:ticket_id;index;not null"`
	AuthorID    int64     `gorm:"column:author_id"`
	AuthorEmail string    `gorm:"column:author_email"`
	Body        string    `gorm:"column:body;not null"`
	IsInternal  bool      `gorm:"column:is_internal;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (TicketComment) TableName() string { return "ticket_comments" }
