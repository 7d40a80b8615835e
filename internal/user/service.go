package user

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/license-portal/internal"
	"github.com/frahmantamala/license-portal/internal/audit"
	userDatamodel "github.com/frahmantamala/license-portal/internal/core/datamodel/user"
	"github.com/frahmantamala/license-portal/internal/role"
)

var (
	ErrUserNotFound = internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)
	ErrEmailTaken   = internal.NewConflictError("an account with this email already exists", internal.ErrCodeEmailTaken)
	ErrSelfAction   = internal.NewValidationError("administrators cannot apply this action to their own account", internal.ErrCodeValidationFailed)
	ErrViewAsDenied = internal.NewForbiddenError("cannot view the dashboard as this role", internal.ErrCodeInvalidRole)

	// ErrDuplicateEmail is returned by repositories on the users.email
	// unique constraint.
	ErrDuplicateEmail = errors.New("duplicate email")
)

// permanentBan is stored as banned_until for rejected users and indefinite
// disables.
var permanentBan = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

type RepositoryAPI interface {
	Create(ctx context.Context, u *userDatamodel.User) error
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	List(ctx context.Context, filter ListFilter) ([]*userDatamodel.User, error)
	UpdateAccess(ctx context.Context, id int64, approved bool, bannedUntil *time.Time) error
	ReplaceRoles(ctx context.Context, userID int64, roles []string, grantedBy *int64) error
	Delete(ctx context.Context, id int64) error
}

type Service struct {
	repo       RepositoryAPI
	audit      audit.Recorder
	bcryptCost int
	now        func() time.Time
	logger     *slog.Logger
}

func NewService(repo RepositoryAPI, recorder audit.Recorder, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		audit:      recorder,
		bcryptCost: bcryptCost,
		now:        time.Now,
		logger:     logger,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) clock() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func requireAdmin(actor *internal.Principal) error {
	if actor == nil || !role.NewChecker(actor.Roles).CanManageUsers() {
		return internal.ErrUnauthorizedAccess
	}
	return nil
}

// Register creates an unapproved account holding only the user role.
func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	email := normalizeEmail(dto.Email)
	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		s.logger.Error("failed to look up email", "error", err)
		return nil, internal.NewInternalError("failed to register user", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	now := s.clock()
	u := &User{
		Email:        email,
		Name:         strings.TrimSpace(dto.Name),
		PasswordHash: string(hash),
		Roles:        role.Grants{role.User},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	row := ToDataModel(u)
	if err := s.repo.Create(ctx, row); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		s.logger.Error("failed to create user", "email", email, "error", err)
		return nil, internal.NewInternalError("failed to register user", err)
	}
	u.ID = row.ID

	s.audit.Record(ctx, audit.EntityUser, u.ID, "registered", u.Principal(), nil, u)
	s.logger.Info("user registered", "user_id", u.ID)
	return u, nil
}

// FindByEmail is the credential lookup used by login.
func (s *Service) FindByEmail(ctx context.Context, email string) (*User, error) {
	row, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		s.logger.Error("failed to get user by email", "error", err)
		return nil, internal.NewInternalError("failed to get user", err)
	}
	if row == nil {
		return nil, ErrUserNotFound
	}
	return FromDataModel(row), nil
}

func (s *Service) FindByID(ctx context.Context, id int64) (*User, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get user", "user_id", id, "error", err)
		return nil, internal.NewInternalError("failed to get user", err)
	}
	if row == nil {
		return nil, ErrUserNotFound
	}
	return FromDataModel(row), nil
}

// Get returns the caller's own record, or any record for user managers.
func (s *Service) Get(ctx context.Context, actor *internal.Principal, id int64) (*User, error) {
	if actor == nil {
		return nil, internal.ErrUnauthorizedAccess
	}
	if actor.ID != id && !role.NewChecker(actor.Roles).CanManageUsers() {
		return nil, ErrUserNotFound
	}
	return s.FindByID(ctx, id)
}

func (s *Service) List(ctx context.Context, actor *internal.Principal, filter ListFilter) ([]*User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	filter.Search = strings.TrimSpace(filter.Search)
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		return nil, internal.NewInternalError("failed to list users", err)
	}
	out := make([]*User, 0, len(rows))
	for _, r := range rows {
		out = append(out, FromDataModel(r))
	}
	return out, nil
}

// Me resolves the dashboard persona. viewAs is a presentation choice; the
// principal's grants are untouched.
func (s *Service) Me(ctx context.Context, p *internal.Principal, viewAs string) (*MeResponse, error) {
	if p == nil {
		return nil, internal.ErrUnauthorizedAccess
	}
	u, err := s.FindByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	active, err := role.SelectActiveRole(u.Roles, role.AppRole(strings.ToLower(strings.TrimSpace(viewAs))))
	if err != nil {
		return nil, ErrViewAsDenied
	}
	return &MeResponse{
		User:         u,
		ActiveRole:   string(active.Role()),
		Preview:      active.IsPreview(),
		Capabilities: role.Resolve(u.Roles, active),
	}, nil
}

func (s *Service) Approve(ctx context.Context, id int64, actor *internal.Principal) (*User, error) {
	return s.setAccess(ctx, id, actor, "approved", false, func(u *User) {
		u.Approved = true
		u.BannedUntil = nil
	})
}

// Reject leaves the account unapproved and disabled.
func (s *Service) Reject(ctx context.Context, id int64, actor *internal.Principal) (*User, error) {
	return s.setAccess(ctx, id, actor, "rejected", true, func(u *User) {
		u.Approved = false
		until := permanentBan
		u.BannedUntil = &until
	})
}

func (s *Service) Disable(ctx context.Context, id int64, dto DisableDTO, actor *internal.Principal) (*User, error) {
	until := permanentBan
	if dto.Until != nil {
		if !dto.Until.After(s.clock()) {
			return nil, internal.NewValidationFieldError("until", "until must be in the future", internal.ErrCodeValidationFailed)
		}
		until = dto.Until.UTC()
	}
	return s.setAccess(ctx, id, actor, "disabled", true, func(u *User) {
		u.BannedUntil = &until
	})
}

func (s *Service) Enable(ctx context.Context, id int64, actor *internal.Principal) (*User, error) {
	return s.setAccess(ctx, id, actor, "enabled", false, func(u *User) {
		u.BannedUntil = nil
	})
}

type accessSnapshot struct {
	Approved    bool       `json:"approved"`
	BannedUntil *time.Time `json:"banned_until"`
}

func (s *Service) setAccess(ctx context.Context, id int64, actor *internal.Principal, action string, notSelf bool, fn func(*User)) (*User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if notSelf && actor.ID == id {
		return nil, ErrSelfAction
	}
	u, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	before := accessSnapshot{Approved: u.Approved, BannedUntil: u.BannedUntil}
	fn(u)
	if err := s.repo.UpdateAccess(ctx, id, u.Approved, u.BannedUntil); err != nil {
		s.logger.Error("failed to update user access", "user_id", id, "action", action, "error", err)
		return nil, internal.NewInternalError("failed to update user", err)
	}

	s.audit.Record(ctx, audit.EntityUser, id, action, actor, before, accessSnapshot{Approved: u.Approved, BannedUntil: u.BannedUntil})
	s.logger.Info("user access changed", "user_id", id, "action", action, "actor_id", actor.ID)
	return u, nil
}

// SetRoles replaces the user's grants. An admin cannot drop their own admin
// grant.
func (s *Service) SetRoles(ctx context.Context, id int64, dto RolesDTO, actor *internal.Principal) (*User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	grants, err := dto.Grants()
	if err != nil {
		return nil, err
	}
	if actor.ID == id && !grants.Has(role.Admin) {
		return nil, ErrSelfAction
	}

	u, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := u.Roles

	grantedBy := actor.ID
	if err := s.repo.ReplaceRoles(ctx, id, grants.Strings(), &grantedBy); err != nil {
		s.logger.Error("failed to replace roles", "user_id", id, "error", err)
		return nil, internal.NewInternalError("failed to update roles", err)
	}
	u.Roles = grants

	s.audit.Record(ctx, audit.EntityUser, id, "roles_changed", actor,
		map[string]role.Grants{"roles": before}, map[string]role.Grants{"roles": grants})
	return u, nil
}

// Delete removes the user and their grants.
func (s *Service) Delete(ctx context.Context, id int64, actor *internal.Principal) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if actor.ID == id {
		return ErrSelfAction
	}
	u, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete user", "user_id", id, "error", err)
		return internal.NewInternalError("failed to delete user", err)
	}
	s.audit.Record(ctx, audit.EntityUser, id, "deleted", actor, u, nil)
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
