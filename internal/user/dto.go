package user

import (
	"time"

	"github.com/frahmantamala/license-portal/internal"
	"github.com/frahmantamala/license-portal/internal/core/common/validation"
	"github.com/frahmantamala/license-portal/internal/role"
)

type RegisterDTO struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Name     string `json:"name" validate:"required,max=200"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

func (dto RegisterDTO) Validate() error {
	if err := validation.Struct(dto); err != nil {
		return err
	}
	return nil
}

// DisableDTO bans the user until the given time; a nil Until bans
// indefinitely.
type DisableDTO struct {
	Until *time.Time `json:"until"`
}

type RolesDTO struct {
	Roles []string `json:"roles"`
}

func (dto RolesDTO) Grants() (role.Grants, error) {
	grants, err := role.ParseGrants(dto.Roles)
	if err != nil {
		return nil, internal.NewValidationFieldError("roles", err.Error(), internal.ErrCodeInvalidRole)
	}
	if len(grants) == 0 {
		return nil, internal.NewValidationFieldError("roles", "at least one role is required", internal.ErrCodeInvalidRole)
	}
	return grants, nil
}

type ListFilter struct {
	Approved *bool
	Search   string
}

type UsersResponse struct {
	Users []*User `json:"users"`
}

// MeResponse is the dashboard view of the caller. ActiveRole and
// Capabilities only shape presentation.
type MeResponse struct {
	User         *User             `json:"user"`
	ActiveRole   string            `json:"active_role"`
	Preview      bool              `json:"preview"`
	Capabilities role.Capabilities `json:"capabilities"`
}
