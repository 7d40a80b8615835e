package crm

import (
	"time"

	"github.com/frahmantamala/license-portal/internal"
	"github.com/frahmantamala/license-portal/internal/core/bulk"
	"github.com/frahmantamala/license-portal/internal/core/common/validation"
	"github.com/frahmantamala/license-portal/internal/license"
)

type AccountDTO struct {
	Name     string `json:"name" validate:"required,max=200"`
	Industry string `json:"industry" validate:"max=100"`
	Website  string `json:"website" validate:"max=255"`
	Phone    string `json:"phone" validate:"max=50"`
	Status   string `json:"status"`
	OwnerID  *int64 `json:"owner_id"`
}

func (dto AccountDTO) Validate() error {
	if err := validation.Struct(dto); err != nil {
		return err
	}
	v := validation.NewValidator()
	v.Field("status", dto.Status).OneOf(internal.ErrCodeInvalidStatus, AccountStatuses()...)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type ContactDTO struct {
	AccountID *int64 `json:"account_id"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone" validate:"max=50"`
	Title     string `json:"title" validate:"max=100"`
	IsPrimary bool   `json:"is_primary"`
}

func (dto ContactDTO) Validate() error {
	if err := validation.Struct(dto); err != nil {
		return err
	}
	return nil
}

type DealDTO struct {
	AccountID         *int64     `json:"account_id"`
	ContactID         *int64     `json:"contact_id"`
	Title             string     `json:"title" validate:"required,max=200"`
	Stage             string     `json:"stage"`
	Amount            float64    `json:"amount" validate:"min=0"`
	Probability       int        `json:"probability"`
	ExpectedCloseDate *time.Time `json:"expected_close_date"`
}

func (dto DealDTO) Validate() error {
	if err := validation.Struct(dto); err != nil {
		return err
	}
	v := validation.NewValidator()
	v.Field("stage", dto.Stage).Required().OneOf(internal.ErrCodeValidationFailed, DealStages()...)
	v.Field("probability", dto.Probability).
		MinInt(0, internal.ErrCodeValidationFailed).
		MaxInt(100, internal.ErrCodeValidationFailed)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type ActivityDTO struct {
	AccountID    *int64     `json:"account_id"`
	ContactID    *int64     `json:"contact_id"`
	DealID       *int64     `json:"deal_id"`
	ActivityType string     `json:"activity_type"`
	Subject      string     `json:"subject" validate:"required,max=200"`
	Description  string     `json:"description" validate:"max=4000"`
	DueDate      *time.Time `json:"due_date"`
	Status       string     `json:"status"`
}

func (dto ActivityDTO) Validate() error {
	if err := validation.Struct(dto); err != nil {
		return err
	}
	v := validation.NewValidator()
	v.Field("activity_type", dto.ActivityType).Required().OneOf(internal.ErrCodeValidationFailed, ActivityTypes()...)
	v.Field("status", dto.Status).OneOf(internal.ErrCodeInvalidStatus, ActivityStatuses()...)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// LinkDTO carries the account to link to; a null account_id unlinks.
type LinkDTO struct {
	AccountID *int64 `json:"account_id"`
}

type ListFilter struct {
	AccountID *int64
	Search    string
}

type AccountOverview struct {
	Account    *Account           `json:"account"`
	Contacts   []*Contact         `json:"contacts"`
	Deals      []*Deal            `json:"deals"`
	Activities []*Activity        `json:"activities"`
	Licenses   []*license.License `json:"licenses"`
	Onboarding []*Onboarding      `json:"onboarding"`
	Pipeline   PipelineSummary    `json:"pipeline"`
}

// PipelineSummary totals the open deals of an account.
type PipelineSummary struct {
	OpenDeals     int     `json:"open_deals"`
	OpenAmount    float64 `json:"open_amount"`
	WeightedValue float64 `json:"weighted_value"`
	WonAmount     float64 `json:"won_amount"`
}

type AccountsResponse struct {
	Accounts []*Account `json:"accounts"`
}

type ContactsResponse struct {
	Contacts []*Contact `json:"contacts"`
}

type DealsResponse struct {
	Deals []*Deal `json:"deals"`
}

type ActivitiesResponse struct {
	Activities []*Activity `json:"activities"`
}

type OnboardingResponse struct {
	Onboarding []*Onboarding `json:"onboarding"`
}

type ImportResponse struct {
	bulk.Result
}
