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

type TreatmentRepository struct {
	BaseRepository
}

func NewTreatmentRepository(db *sqlx.DB) *TreatmentRepository {
	return &TreatmentRepository{BaseRepository: NewBaseRepository(db)}
}

const treatmentColumns = `t.id, t.clinic_id, t.patient_id, t.doctor_id,
	t.treatment_type, t.treatment_information, t.treatment_findings,
	t.image_path, t.next_visit_date, t.status,
	t.is_deleted, t.created_by, t.updated_by, t.created_at, t.updated_at,
	p.first_name || ' ' || p.last_name AS patient_name,
	p.email AS patient_email,
	CASE WHEN d.id IS NULL THEN NULL ELSE d.first_name || ' ' || d.last_name END AS doctor_name,
	c.name AS clinic_name`

const treatmentJoins = ` FROM treatments t
	JOIN patients p ON p.id = t.patient_id
	LEFT JOIN users d ON d.id = t.doctor_id
	JOIN clinics c ON c.id = t.clinic_id`

// Create inserts the treatment and reads the joined row back in the same
// transaction, so the returned record carries patient, doctor and clinic
// display names.
func (r *TreatmentRepository) Create(ctx context.Context, treatment *model.Treatment) error {
	insert := `
		INSERT INTO treatments (
			id, clinic_id, patient_id, doctor_id,
			treatment_type, treatment_information, treatment_findings,
			image_path, next_visit_date, status, created_by, updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	treatment.ID = uuid.New()
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, insert,
			treatment.ID,
			treatment.ClinicID,
			treatment.PatientID,
			treatment.DoctorID,
			treatment.TreatmentType,
			treatment.TreatmentInformation,
			treatment.TreatmentFindings,
			treatment.ImagePath,
			treatment.NextVisitDate,
			treatment.Status,
			treatment.CreatedBy,
			treatment.UpdatedBy,
		)
		if err != nil {
			return fmt.Errorf("failed to create treatment: %w", err)
		}

		readBack := `SELECT ` + treatmentColumns + treatmentJoins + ` WHERE t.id = $1`
		if err := tx.GetContext(ctx, treatment, readBack, treatment.ID); err != nil {
			return fmt.Errorf("failed to read back created treatment: %w", err)
		}
		return nil
	})
}

func (r *TreatmentRepository) Get(ctx context.Context, scope model.Scope, id uuid.UUID, mode model.ScopeMode) (*model.Treatment, error) {
	q := &scopeQuery{}
	if err := tenantScope(q, scope, mode, "t.clinic_id"); err != nil {
		return nil, err
	}
	q.where("t.id = $?", id)
	clause, args := q.clause()

	var treatment model.Treatment
	err := r.db.GetContext(ctx, &treatment, `SELECT `+treatmentColumns+treatmentJoins+clause, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get treatment: %w", err)
	}
	return &treatment, nil
}

func (r *TreatmentRepository) List(ctx context.Context, scope model.Scope, filters *model.TreatmentFilters) ([]*model.Treatment, int, error) {
	filters.Normalize()

	q := &scopeQuery{}
	if err := tenantScope(q, scope, model.ScopeActive, "t.clinic_id"); err != nil {
		return nil, 0, err
	}
	if filters.Status != "" {
		q.where("t.status = $?", filters.Status)
	}
	if filters.TreatmentType != "" {
		q.where("t.treatment_type = $?", filters.TreatmentType)
	}
	if filters.PatientID != nil {
		q.where("t.patient_id = $?", *filters.PatientID)
	}
	if filters.DoctorID != nil {
		q.where("t.doctor_id = $?", *filters.DoctorID)
	}
	if filters.NextVisitAfter != nil {
		q.where("t.next_visit_date >= $?", *filters.NextVisitAfter)
	}
	if filters.NextVisitUntil != nil {
		q.where("t.next_visit_date <= $?", *filters.NextVisitUntil)
	}
	if filters.SearchTerm != "" {
		term := "%" + filters.SearchTerm + "%"
		q.where("(t.treatment_information ILIKE $? OR p.first_name ILIKE $? OR p.last_name ILIKE $?)",
			term, term, term)
	}
	clause, args := q.clause()

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*)`+treatmentJoins+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count treatments: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s%s%s ORDER BY t.next_visit_date NULLS LAST, t.created_at DESC LIMIT $%d OFFSET $%d`,
		treatmentColumns, treatmentJoins, clause, q.next(), q.next()+1)
	args = append(args, filters.PageSize, filters.Offset())

	treatments := []*model.Treatment{}
	if err := r.db.SelectContext(ctx, &treatments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list treatments: %w", err)
	}
	return treatments, total, nil
}

func (r *TreatmentRepository) ListByPatient(ctx context.Context, scope model.Scope, patientID uuid.UUID) ([]*model.Treatment, error) {
	q := &scopeQuery{}
	if err := tenantScope(q, scope, model.ScopeActive, "t.clinic_id"); err != nil {
		return nil, err
	}
	q.where("t.patient_id = $?", patientID)
	clause, args := q.clause()

	treatments := []*model.Treatment{}
	query := `SELECT ` + treatmentColumns + treatmentJoins + clause + ` ORDER BY t.created_at DESC`
	if err := r.db.SelectContext(ctx, &treatments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list patient treatments: %w", err)
	}
	return treatments, nil
}

func (r *TreatmentRepository) Update(ctx context.Context, treatment *model.Treatment) error {
	query := `
		UPDATE treatments SET
			doctor_id = $2,
			treatment_information = $3,
			treatment_findings = $4,
			image_path = $5,
			next_visit_date = $6,
			status = $7,
			updated_by = $8,
			updated_at = NOW()
		WHERE id = $1 AND is_deleted = FALSE
		RETURNING updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		treatment.ID,
		treatment.DoctorID,
		treatment.TreatmentInformation,
		treatment.TreatmentFindings,
		treatment.ImagePath,
		treatment.NextVisitDate,
		treatment.Status,
		treatment.UpdatedBy,
	).Scan(&treatment.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return sql.ErrNoRows
	}
	if err != nil {
		return fmt.Errorf("failed to update treatment: %w", err)
	}
	return nil
}

func (r *TreatmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.TreatmentStatus, actor uuid.UUID) error {
	query := `
		UPDATE treatments SET status = $2, updated_by = $3, updated_at = NOW()
		WHERE id = $1 AND is_deleted = FALSE`

	res, err := r.db.ExecContext(ctx, query, id, status, actor)
	if err != nil {
		return fmt.Errorf("failed to update treatment status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *TreatmentRepository) SetDeleted(ctx context.Context, id uuid.UUID, actor uuid.UUID, deleted bool) error {
	query := `
		UPDATE treatments SET is_deleted = $2, updated_by = $3, updated_at = NOW()
		WHERE id = $1 AND is_deleted = $4`

	res, err := r.db.ExecContext(ctx, query, id, deleted, actor, !deleted)
	if err != nil {
		return fmt.Errorf("failed to update treatment deletion state: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
