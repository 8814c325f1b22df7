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

type ClinicRepository struct {
	BaseRepository
}

func NewClinicRepository(db *sqlx.DB) *ClinicRepository {
	return &ClinicRepository{BaseRepository: NewBaseRepository(db)}
}

const clinicColumns = `id, name, contact_number, address, description, is_active, is_deleted, created_at, updated_at`

func (r *ClinicRepository) Create(ctx context.Context, clinic *model.Clinic) error {
	query := `
		INSERT INTO clinics (id, name, contact_number, address, description, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	clinic.ID = uuid.New()
	err := r.db.QueryRowxContext(ctx, query,
		clinic.ID,
		clinic.Name,
		clinic.ContactNumber,
		clinic.Address,
		clinic.Description,
		clinic.IsActive,
	).Scan(&clinic.CreatedAt, &clinic.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create clinic: %w", err)
	}
	return nil
}

func (r *ClinicRepository) Get(ctx context.Context, scope model.Scope, id uuid.UUID, mode model.ScopeMode) (*model.Clinic, error) {
	// A clinic's tenant is itself, so the scope column is the primary key.
	q := &scopeQuery{}
	if err := tenantScope(q, scope, mode, "id"); err != nil {
		return nil, err
	}
	q.where("id = $?", id)
	clause, args := q.clause()

	var clinic model.Clinic
	err := r.db.GetContext(ctx, &clinic, `SELECT `+clinicColumns+` FROM clinics`+clause, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get clinic: %w", err)
	}
	return &clinic, nil
}

func (r *ClinicRepository) List(ctx context.Context, scope model.Scope, filters *model.ClinicFilters) ([]*model.Clinic, int, error) {
	filters.Normalize()

	q := &scopeQuery{}
	if err := tenantScope(q, scope, model.ScopeActive, "id"); err != nil {
		return nil, 0, err
	}
	if filters.IsActive != nil {
		q.where("is_active = $?", *filters.IsActive)
	}
	if filters.SearchTerm != "" {
		q.where("(name ILIKE $? OR address ILIKE $?)",
			"%"+filters.SearchTerm+"%", "%"+filters.SearchTerm+"%")
	}
	clause, args := q.clause()

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM clinics`+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count clinics: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM clinics%s ORDER BY name LIMIT $%d OFFSET $%d`,
		clinicColumns, clause, q.next(), q.next()+1)
	args = append(args, filters.PageSize, filters.Offset())

	clinics := []*model.Clinic{}
	if err := r.db.SelectContext(ctx, &clinics, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list clinics: %w", err)
	}
	return clinics, total, nil
}

func (r *ClinicRepository) Update(ctx context.Context, clinic *model.Clinic) error {
	query := `
		UPDATE clinics SET
			name = $2,
			contact_number = $3,
			address = $4,
			description = $5,
			is_active = $6,
			updated_at = NOW()
		WHERE id = $1 AND is_deleted = FALSE
		RETURNING updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		clinic.ID,
		clinic.Name,
		clinic.ContactNumber,
		clinic.Address,
		clinic.Description,
		clinic.IsActive,
	).Scan(&clinic.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return sql.ErrNoRows
	}
	if err != nil {
		return fmt.Errorf("failed to update clinic: %w", err)
	}
	return nil
}

func (r *ClinicRepository) SetDeleted(ctx context.Context, id uuid.UUID, deleted bool) error {
	query := `
		UPDATE clinics SET is_deleted = $2, updated_at = NOW()
		WHERE id = $1 AND is_deleted = $3`

	res, err := r.db.ExecContext(ctx, query, id, deleted, !deleted)
	if err != nil {
		return fmt.Errorf("failed to update clinic deletion state: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// NameExists checks name uniqueness against all rows including soft-deleted
// ones so a deleted clinic's name cannot be silently reused.
func (r *ClinicRepository) NameExists(ctx context.Context, name string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM clinics WHERE LOWER(name) = LOWER($1) AND id != $2)`
	if err := r.db.GetContext(ctx, &exists, query, name, excludeID); err != nil {
		return false, fmt.Errorf("failed to check clinic name: %w", err)
	}
	return exists, nil
}

func (r *ClinicRepository) Statistics(ctx context.Context, id uuid.UUID) (*model.ClinicStatistics, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users WHERE clinic_id = $1 AND is_deleted = FALSE) AS total_users,
			(SELECT COUNT(*) FROM users WHERE clinic_id = $1 AND is_deleted = FALSE AND role = 'DOCTOR') AS total_doctors,
			(SELECT COUNT(*) FROM patients WHERE clinic_id = $1 AND is_deleted = FALSE) AS total_patients,
			(SELECT COUNT(*) FROM treatments WHERE clinic_id = $1 AND is_deleted = FALSE
				AND status IN ('SCHEDULED', 'ONGOING')) AS active_treatments`

	var stats model.ClinicStatistics
	if err := r.db.GetContext(ctx, &stats, query, id); err != nil {
		return nil, fmt.Errorf("failed to get clinic statistics: %w", err)
	}
	return &stats, nil
}
