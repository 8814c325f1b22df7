package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-api/internal/model"
)

type UserRepository struct {
	BaseRepository
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{BaseRepository: NewBaseRepository(db)}
}

const userColumns = `id, email, password_hash, first_name, last_name, clinic_id, role,
	contact_number, secondary_contact_number, address, degree,
	is_active, is_superuser, is_deleted, created_by, updated_by, created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (
			id, email, password_hash, first_name, last_name, clinic_id, role,
			contact_number, secondary_contact_number, address, degree,
			is_active, is_superuser, created_by, updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at`

	user.ID = uuid.New()
	err := r.db.QueryRowxContext(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.ClinicID,
		user.Role,
		user.ContactNumber,
		user.SecondaryContactNumber,
		user.Address,
		user.Degree,
		user.IsActive,
		user.IsSuperuser,
		user.CreatedBy,
		user.UpdatedBy,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UserRepository) Get(ctx context.Context, scope model.Scope, id uuid.UUID, mode model.ScopeMode) (*model.User, error) {
	q := &scopeQuery{}
	if err := tenantScope(q, scope, mode, "clinic_id"); err != nil {
		return nil, err
	}
	q.where("id = $?", id)
	clause, args := q.clause()

	var user model.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users`+clause, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetByEmail serves the login path and therefore runs unscoped, but it never
// returns soft-deleted accounts.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1) AND is_deleted = FALSE`
	err := r.db.GetContext(ctx, &user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

// EmailExists checks against all rows including soft-deleted accounts so a
// deleted user's email cannot be re-registered.
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE LOWER(email) = LOWER($1))`
	if err := r.db.GetContext(ctx, &exists, query, email); err != nil {
		return false, fmt.Errorf("failed to check user email: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) List(ctx context.Context, scope model.Scope, filters *model.UserFilters) ([]*model.User, int, error) {
	filters.Normalize()

	q := &scopeQuery{}
	if err := tenantScope(q, scope, model.ScopeActive, "clinic_id"); err != nil {
		return nil, 0, err
	}
	if filters.Role != "" {
		q.where("role = $?", filters.Role)
	}
	if filters.IsActive != nil {
		q.where("is_active = $?", *filters.IsActive)
	}
	if filters.SearchTerm != "" {
		term := "%" + filters.SearchTerm + "%"
		q.where("(first_name ILIKE $? OR last_name ILIKE $? OR email ILIKE $?)", term, term, term)
	}
	clause, args := q.clause()

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users`+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM users%s ORDER BY first_name, last_name LIMIT $%d OFFSET $%d`,
		userColumns, clause, q.next(), q.next()+1)
	args = append(args, filters.PageSize, filters.Offset())

	users := []*model.User{}
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	// clinic_id is intentionally absent: clinic assignment never changes
	// after creation.
	query := `
		UPDATE users SET
			first_name = $2,
			last_name = $3,
			role = $4,
			contact_number = $5,
			secondary_contact_number = $6,
			address = $7,
			degree = $8,
			is_active = $9,
			updated_by = $10,
			updated_at = NOW()
		WHERE id = $1 AND is_deleted = FALSE
		RETURNING updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		user.ID,
		user.FirstName,
		user.LastName,
		user.Role,
		user.ContactNumber,
		user.SecondaryContactNumber,
		user.Address,
		user.Degree,
		user.IsActive,
		user.UpdatedBy,
	).Scan(&user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return sql.ErrNoRows
	}
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1 AND is_deleted = FALSE`
	res, err := r.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *UserRepository) SetDeleted(ctx context.Context, id uuid.UUID, actor uuid.UUID, deleted bool) error {
	query := `
		UPDATE users SET is_deleted = $2, updated_by = $3, updated_at = NOW()
		WHERE id = $1 AND is_deleted = $4`

	res, err := r.db.ExecContext(ctx, query, id, deleted, actor, !deleted)
	if err != nil {
		return fmt.Errorf("failed to update user deletion state: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
