package ticket

import (
	"github.com/frahmantamala/license-portal/internal"
	"github.com/frahmantamala/license-portal/internal/core/common/validation"
)

type CreateTicketDTO struct {
	Subject     string `json:"subject" validate:"required,max=300"`
	Description string `json:"description" validate:"max=10000"`
	Priority    string `json:"priority"`
	AccountID   *int64 `json:"account_id"`
}

func (dto CreateTicketDTO) Validate() error {
	if err := validation.Struct(dto); err != nil {
		return err
	}
	v := validation.NewValidator()
	v.Field("subject", dto.Subject).Required()
	v.Field("priority", dto.Priority).OneOf(internal.ErrCodeValidationFailed, Priorities()...)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type StatusDTO struct {
	Status  string `json:"status"`
	Version *int64 `json:"version"`
}

func (dto StatusDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("status", dto.Status).Required().OneOf(internal.ErrCodeInvalidStatus, Statuses()...)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type PriorityDTO struct {
	Priority string `json:"priority"`
	Version  *int64 `json:"version"`
}

func (dto PriorityDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("priority", dto.Priority).Required().OneOf(internal.ErrCodeValidationFailed, Priorities()...)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type ModerationDTO struct {
	ModerationStatus string `json:"moderation_status"`
	Version          *int64 `json:"version"`
}

func (dto ModerationDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("moderation_status", dto.ModerationStatus).Required().OneOf(internal.ErrCodeInvalidStatus, Moderations()...)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type ReasonDTO struct {
	Reason string `json:"reason"`
}

type CommentDTO struct {
	Body       string `json:"body" validate:"max=10000"`
	IsInternal bool   `json:"is_internal"`
}

func (dto CommentDTO) Validate() error {
	if err := validation.Struct(dto); err != nil {
		return err
	}
	v := validation.NewValidator()
	v.Field("body", dto.Body).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type ListFilter struct {
	Status           string `json:"status,omitempty"`
	Priority         string `json:"priority,omitempty"`
	ModerationStatus string `json:"moderation_status,omitempty"`
	FlaggedOnly      bool   `json:"flagged_only,omitempty"`
	EscalatedOnly    bool   `json:"escalated_only,omitempty"`
	RequesterID      *int64 `json:"requester_id,omitempty"`
	AccountID        *int64 `json:"account_id,omitempty"`
}

type TicketsResponse struct {
	Tickets []*Ticket `json:"tickets"`
}

type CommentsResponse struct {
	Comments []*Comment `json:"comments"`
}
