package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/license-portal/internal"
	ticketDatamodel "github.com/frahmantamala/license-portal/internal/core/datamodel/ticket"
	"github.com/frahmantamala/license-portal/internal/ticket"
	"gorm.io/gorm"
)

type TicketRepository struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) ticket.RepositoryAPI {
	return &TicketRepository{db: db}
}

func (r *TicketRepository) Create(ctx context.Context, t *ticketDatamodel.SupportTicket) error {
	err := r.db.WithContext(ctx).Create(t).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ticket.ErrDuplicateNumber
	}
	return err
}

func (r *TicketRepository) GetByID(ctx context.Context, id int64) (*ticketDatamodel.SupportTicket, error) {
	var t ticketDatamodel.SupportTicket
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *TicketRepository) List(ctx context.Context, filter ticket.ListFilter) ([]*ticketDatamodel.SupportTicket, error) {
	var rows []*ticketDatamodel.SupportTicket
	q := r.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		q = q.Where("priority = ?", filter.Priority)
	}
	if filter.ModerationStatus != "" {
		q = q.Where("moderation_status = ?", filter.ModerationStatus)
	}
	if filter.FlaggedOnly {
		q = q.Where("flagged_for_review = ?", true)
	}
	if filter.EscalatedOnly {
		q = q.Where("escalated = ?", true)
	}
	if filter.RequesterID != nil {
		q = q.Where("requester_id = ?", *filter.RequesterID)
	}
	if filter.AccountID != nil {
		q = q.Where("account_id = ?", *filter.AccountID)
	}
	err := q.Find(&rows).Error
	return rows, err
}

// Update writes every column when the stored version still matches.
func (r *TicketRepository) Update(ctx context.Context, t *ticketDatamodel.SupportTicket, expectedVersion int64) error {
	t.Version = expectedVersion + 1
	res := r.db.WithContext(ctx).Model(t).
		Where("version = ?", expectedVersion).
		Select("*").
		Omit("id", "ticket_number", "created_at").
		Updates(t)
	if res.Error != nil {
		t.Version = expectedVersion
		return res.Error
	}
	if res.RowsAffected == 0 {
		t.Version = expectedVersion
		return internal.ErrVersionConflict
	}
	return nil
}

func (r *TicketRepository) AddComment(ctx context.Context, c *ticketDatamodel.TicketComment) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// ListComments filters internal notes in the query when includeInternal is
// false, so requester paths never load them.
func (r *TicketRepository) ListComments(ctx context.Context, ticketID int64, includeInternal bool) ([]*ticketDatamodel.TicketComment, error) {
	var rows []*ticketDatamodel.TicketComment
	q := r.db.WithContext(ctx).Where("ticket_id = ?", ticketID)
	if !includeInternal {
		q = q.Where("is_internal = ?", false)
	}
	err := q.Order("created_at ASC, id ASC").Find(&rows).Error
	return rows, err
}
