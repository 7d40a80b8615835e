package user

import (
	"time"

	"github.com/frahmantamala/license-portal/internal"
	userDatamodel "github.com/frahmantamala/license-portal/internal/core/datamodel/user"
	"github.com/frahmantamala/license-portal/internal/role"
)

type User struct {
	ID           int64       `json:"id"`
	Email        string      `json:"email"`
	Name         string      `json:"name"`
	PasswordHash string      `json:"-"`
	Approved     bool        `json:"approved"`
	BannedUntil  *time.Time  `json:"banned_until"`
	Roles        role.Grants `json:"roles"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// IsBanned reports whether the account is disabled at now.
func (u *User) IsBanned(now time.Time) bool {
	return u.BannedUntil != nil && now.Before(*u.BannedUntil)
}

// CanLogin returns the reason the user may not sign in, or nil.
func (u *User) CanLogin(now time.Time) error {
	if u.IsBanned(now) {
		return internal.ErrUserInactive
	}
	if !u.Approved {
		return internal.ErrUserNotApproved
	}
	return nil
}

// Principal is the authenticated view of the user carried in the request
// context.
func (u *User) Principal() *internal.Principal {
	return &internal.Principal{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Roles: u.Roles,
	}
}

func ToDataModel(u *User) *userDatamodel.User {
	m := &userDatamodel.User{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Approved:     u.Approved,
		BannedUntil:  u.BannedUntil,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	for _, r := range u.Roles {
		m.Roles = append(m.Roles, userDatamodel.UserRole{UserID: u.ID, Role: string(r)})
	}
	return m
}

// FromDataModel skips stored roles that are no longer known.
func FromDataModel(m *userDatamodel.User) *User {
	u := &User{
		ID:           m.ID,
		Email:        m.Email,
		Name:         m.Name,
		PasswordHash: m.PasswordHash,
		Approved:     m.Approved,
		BannedUntil:  m.BannedUntil,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
		Roles:        role.Grants{},
	}
	values := make([]string, 0, len(m.Roles))
	for _, r := range m.Roles {
		if role.AppRole(r.Role).Valid() {
			values = append(values, r.Role)
		}
	}
	if grants, err := role.ParseGrants(values); err == nil && grants != nil {
		u.Roles = grants
	}
	return u
}
