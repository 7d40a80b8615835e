package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	userDatamodel "github.com/frahmantamala/license-portal/internal/core/datamodel/user"
	"github.com/frahmantamala/license-portal/internal/user"
)

// UserRepository reads and writes users with plain SQL through sqlx. Queries
// use ? placeholders and are rebound for the connection's driver.
type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) user.RepositoryAPI {
	return &UserRepository{db: db}
}

type userRow struct {
	ID           int64      `db:"id"`
	Email        string     `db:"email"`
	Name         string     `db:"name"`
	PasswordHash string     `db:"password_hash"`
	Approved     bool       `db:"approved"`
	BannedUntil  *time.Time `db:"banned_until"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

type roleRow struct {
	UserID int64  `db:"user_id"`
	Role   string `db:"role"`
}

const userColumns = `id, email, name, password_hash, approved, banned_until, created_at, updated_at`

func (r userRow) toDataModel() *userDatamodel.User {
	return &userDatamodel.User{
		ID:           r.ID,
		Email:        r.Email,
		Name:         r.Name,
		PasswordHash: r.PasswordHash,
		Approved:     r.Approved,
		BannedUntil:  r.BannedUntil,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *UserRepository) Create(ctx context.Context, u *userDatamodel.User) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	query := tx.Rebind(`INSERT INTO users (email, name, password_hash, approved, banned_until, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	err = tx.QueryRowxContext(ctx, query,
		u.Email, u.Name, u.PasswordHash, u.Approved, u.BannedUntil, u.CreatedAt, u.UpdatedAt,
	).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return user.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}

	for i := range u.Roles {
		u.Roles[i].UserID = u.ID
		if err := insertRole(ctx, tx, u.ID, u.Roles[i].Role, u.Roles[i].GrantedBy); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func insertRole(ctx context.Context, tx *sqlx.Tx, userID int64, role string, grantedBy *int64) error {
	query := tx.Rebind(`INSERT INTO user_roles (user_id, role, granted_by, created_at) VALUES (?, ?, ?, ?)`)
	if _, err := tx.ExecContext(ctx, query, userID, role, grantedBy, time.Now().UTC()); err != nil {
		return fmt.Errorf("insert role %s: %w", role, err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER(?)`, email)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg interface{}) (*userDatamodel.User, error) {
	var row userRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(query), arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u := row.toDataModel()
	if err := r.attachRoles(ctx, []*userDatamodel.User{u}); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) List(ctx context.Context, filter user.ListFilter) ([]*userDatamodel.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE 1 = 1`
	var args []interface{}
	if filter.Approved != nil {
		query += ` AND approved = ?`
		args = append(args, *filter.Approved)
	}
	if filter.Search != "" {
		query += ` AND (LOWER(email) LIKE LOWER(?) OR LOWER(name) LIKE LOWER(?))`
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	users := make([]*userDatamodel.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toDataModel())
	}
	if err := r.attachRoles(ctx, users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) attachRoles(ctx context.Context, users []*userDatamodel.User) error {
	if len(users) == 0 {
		return nil
	}
	byID := make(map[int64]*userDatamodel.User, len(users))
	ids := make([]int64, 0, len(users))
	for _, u := range users {
		byID[u.ID] = u
		ids = append(ids, u.ID)
	}

	query, args, err := sqlx.In(`SELECT user_id, role FROM user_roles WHERE user_id IN (?) ORDER BY id`, ids)
	if err != nil {
		return err
	}
	var roles []roleRow
	if err := r.db.SelectContext(ctx, &roles, r.db.Rebind(query), args...); err != nil {
		return err
	}
	for _, rr := range roles {
		if u, ok := byID[rr.UserID]; ok {
			u.Roles = append(u.Roles, userDatamodel.UserRole{UserID: rr.UserID, Role: rr.Role})
		}
	}
	return nil
}

func (r *UserRepository) UpdateAccess(ctx context.Context, id int64, approved bool, bannedUntil *time.Time) error {
	query := r.db.Rebind(`UPDATE users SET approved = ?, banned_until = ?, updated_at = ? WHERE id = ?`)
	_, err := r.db.ExecContext(ctx, query, approved, bannedUntil, time.Now().UTC(), id)
	return err
}

// ReplaceRoles swaps the full grant set in one transaction.
func (r *UserRepository) ReplaceRoles(ctx context.Context, userID int64, roles []string, grantedBy *int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM user_roles WHERE user_id = ?`), userID); err != nil {
		return err
	}
	for _, role := range roles {
		if err := insertRole(ctx, tx, userID, role, grantedBy); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM user_roles WHERE user_id = ?`), id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM users WHERE id = ?`), id); err != nil {
		return err
	}
	return tx.Commit()
}
