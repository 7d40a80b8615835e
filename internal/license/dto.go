package license

import (
	"time"

	"github.com/frahmantamala/license-portal/internal"
	"github.com/frahmantamala/license-portal/internal/core/bulk"
	"github.com/frahmantamala/license-portal/internal/core/common/validation"
)

type IssueDemoDTO struct {
	CatalogItemID int64 `json:"catalog_item_id" validate:"required,min=1"`
}

func (dto IssueDemoDTO) Validate() error {
	if err := validation.Struct(dto); err != nil {
		return err
	}
	return nil
}

type CreateLicenseDTO struct {
	ProductName        string    `json:"product_name" validate:"required,max=200"`
	TierID             *int64    `json:"tier_id"`
	AssignedTo         string    `json:"assigned_to" validate:"omitempty,email"`
	Seats              int       `json:"seats" validate:"min=1"`
	ExpiryDate         time.Time `json:"expiry_date" validate:"required"`
	Status             string    `json:"status"`
	Features           []string  `json:"features"`
	Addons             []string  `json:"addons"`
	MaxHosts           *int      `json:"max_hosts" validate:"omitempty,min=1"`
	AllowedNetworks    string    `json:"allowed_networks"`
	ConcurrentSessions int       `json:"concurrent_sessions" validate:"omitempty,min=1"`
	UsageHoursLimit    *int      `json:"usage_hours_limit" validate:"omitempty,min=1"`
	AccountID          *int64    `json:"account_id"`
}

func (dto CreateLicenseDTO) Validate() error {
	if err := validation.Struct(dto); err != nil {
		return err
	}
	v := validation.NewValidator()
	v.Field("status", dto.Status).OneOf(internal.ErrCodeInvalidStatus, Statuses()...)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// EditLicenseDTO is a patch: nil fields are left unchanged. AssignedTo ""
// unassigns the license; MaxHosts and UsageHoursLimit 0 clear the limit.
type EditLicenseDTO struct {
	TierID             *int64     `json:"tier_id"`
	Seats              *int       `json:"seats" validate:"omitempty,min=1"`
	Status             *string    `json:"status"`
	Features           *[]string  `json:"features"`
	Addons             *[]string  `json:"addons"`
	ExpiryDate         *time.Time `json:"expiry_date"`
	AssignedTo         *string    `json:"assigned_to"`
	MaxHosts           *int       `json:"max_hosts"`
	AllowedNetworks    *string    `json:"allowed_networks"`
	ConcurrentSessions *int       `json:"concurrent_sessions" validate:"omitempty,min=1"`
	UsageHoursLimit    *int       `json:"usage_hours_limit"`
	Version            *int64     `json:"version"`
}

func (dto EditLicenseDTO) Validate() error {
	if err := validation.Struct(dto); err != nil {
		return err
	}
	v := validation.NewValidator()
	v.Field("status", dto.Status).OneOf(internal.ErrCodeInvalidStatus, Statuses()...)
	v.Field("max_hosts", dto.MaxHosts).MinInt(0, internal.ErrCodeValidationFailed)
	v.Field("usage_hours_limit", dto.UsageHoursLimit).MinInt(0, internal.ErrCodeValidationFailed)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type StatusDTO struct {
	Status  string `json:"status" validate:"required"`
	Version *int64 `json:"version"`
}

func (dto StatusDTO) Validate() error {
	if err := validation.Struct(dto); err != nil {
		return err
	}
	v := validation.NewValidator()
	v.Field("status", dto.Status).OneOf(internal.ErrCodeInvalidStatus, Statuses()...)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type BulkDTO struct {
	IDs    []int64 `json:"ids"`
	Action string  `json:"action"`
}

func (dto BulkDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("ids", dto.IDs).Required()
	v.Field("action", dto.Action).Required().OneOf(internal.ErrCodeInvalidAction, Actions()...)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// ListFilter narrows the license list. Customer callers always get
// AssignedTo forced to their own email.
type ListFilter struct {
	Status      string `json:"status,omitempty"`
	ProductName string `json:"product_name,omitempty"`
	AssignedTo  string `json:"assigned_to,omitempty"`
	AccountID   *int64 `json:"account_id,omitempty"`
}

type ListResponse struct {
	Licenses []*License `json:"licenses"`
	Expiring []*License `json:"expiring"`
	Expired  []*License `json:"expired"`
	Notice   *Notice    `json:"notice"`
}

type BulkResponse struct {
	Action string   `json:"action"`
	bulk.Result
	Preview bulk.Summary `json:"preview"`
}

type ProductCheckResponse struct {
	ProductName string `json:"product_name"`
	HasLicense  bool   `json:"has_license"`
}
