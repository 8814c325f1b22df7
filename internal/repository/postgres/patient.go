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

type PatientRepository struct {
	BaseRepository
}

func NewPatientRepository(db *sqlx.DB) *PatientRepository {
	return &PatientRepository{BaseRepository: NewBaseRepository(db)}
}

const patientColumns = `p.id, p.clinic_id, p.first_name, p.last_name, p.email,
	p.contact_number, p.secondary_contact_number, p.address, p.gender, p.date_of_birth,
	p.assigned_doctor_id, p.clinical_history, p.allergies, p.notes,
	p.is_active, p.is_deleted, p.created_by, p.updated_by, p.created_at, p.updated_at,
	CASE WHEN d.id IS NULL THEN NULL ELSE d.first_name || ' ' || d.last_name END AS doctor_name,
	c.name AS clinic_name`

const patientJoins = ` FROM patients p
	LEFT JOIN users d ON d.id = p.assigned_doctor_id
	JOIN clinics c ON c.id = p.clinic_id`

// Create inserts the patient and reads the joined row back in the same
// transaction, so the returned record carries doctor and clinic display
// names.
func (r *PatientRepository) Create(ctx context.Context, patient *model.Patient) error {
	insert := `
		INSERT INTO patients (
			id, clinic_id, first_name, last_name, email,
			contact_number, secondary_contact_number, address, gender, date_of_birth,
			assigned_doctor_id, clinical_history, allergies, notes,
			is_active, created_by, updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	patient.ID = uuid.New()
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, insert,
			patient.ID,
			patient.ClinicID,
			patient.FirstName,
			patient.LastName,
			patient.Email,
			patient.ContactNumber,
			patient.SecondaryContactNumber,
			patient.Address,
			patient.Gender,
			patient.DateOfBirth,
			patient.AssignedDoctorID,
			patient.ClinicalHistory,
			patient.Allergies,
			patient.Notes,
			patient.IsActive,
			patient.CreatedBy,
			patient.UpdatedBy,
		)
		if err != nil {
			return fmt.Errorf("failed to create patient: %w", err)
		}

		readBack := `SELECT ` + patientColumns + patientJoins + ` WHERE p.id = $1`
		if err := tx.GetContext(ctx, patient, readBack, patient.ID); err != nil {
			return fmt.Errorf("failed to read back created patient: %w", err)
		}
		return nil
	})
}

func (r *PatientRepository) Get(ctx context.Context, scope model.Scope, id uuid.UUID, mode model.ScopeMode) (*model.Patient, error) {
	q := &scopeQuery{}
	if err := tenantScope(q, scope, mode, "p.clinic_id"); err != nil {
		return nil, err
	}
	q.where("p.id = $?", id)
	clause, args := q.clause()

	var patient model.Patient
	err := r.db.GetContext(ctx, &patient, `SELECT `+patientColumns+patientJoins+clause, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &patient, nil
}

func (r *PatientRepository) List(ctx context.Context, scope model.Scope, filters *model.PatientFilters) ([]*model.Patient, int, error) {
	filters.Normalize()

	q := &scopeQuery{}
	if err := tenantScope(q, scope, model.ScopeActive, "p.clinic_id"); err != nil {
		return nil, 0, err
	}
	if filters.Gender != "" {
		q.where("p.gender = $?", filters.Gender)
	}
	if filters.AssignedDoctorID != nil {
		q.where("p.assigned_doctor_id = $?", *filters.AssignedDoctorID)
	}
	if filters.IsActive != nil {
		q.where("p.is_active = $?", *filters.IsActive)
	}
	if filters.SearchTerm != "" {
		term := "%" + filters.SearchTerm + "%"
		q.where("(p.first_name ILIKE $? OR p.last_name ILIKE $? OR p.email ILIKE $? OR p.contact_number ILIKE $?)",
			term, term, term, term)
	}
	clause, args := q.clause()

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*)`+patientJoins+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count patients: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s%s%s ORDER BY p.first_name, p.last_name LIMIT $%d OFFSET $%d`,
		patientColumns, patientJoins, clause, q.next(), q.next()+1)
	args = append(args, filters.PageSize, filters.Offset())

	patients := []*model.Patient{}
	if err := r.db.SelectContext(ctx, &patients, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, total, nil
}

func (r *PatientRepository) Update(ctx context.Context, patient *model.Patient) error {
	query := `
		UPDATE patients SET
			first_name = $2,
			last_name = $3,
			email = $4,
			contact_number = $5,
			secondary_contact_number = $6,
			address = $7,
			gender = $8,
			date_of_birth = $9,
			assigned_doctor_id = $10,
			clinical_history = $11,
			allergies = $12,
			notes = $13,
			is_active = $14,
			updated_by = $15,
			updated_at = NOW()
		WHERE id = $1 AND is_deleted = FALSE
		RETURNING updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		patient.ID,
		patient.FirstName,
		patient.LastName,
		patient.Email,
		patient.ContactNumber,
		patient.SecondaryContactNumber,
		patient.Address,
		patient.Gender,
		patient.DateOfBirth,
		patient.AssignedDoctorID,
		patient.ClinicalHistory,
		patient.Allergies,
		patient.Notes,
		patient.IsActive,
		patient.UpdatedBy,
	).Scan(&patient.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return sql.ErrNoRows
	}
	if err != nil {
		return fmt.Errorf("failed to update patient: %w", err)
	}
	return nil
}

func (r *PatientRepository) SetDeleted(ctx context.Context, id uuid.UUID, actor uuid.UUID, deleted bool) error {
	query := `
		UPDATE patients SET is_deleted = $2, updated_by = $3, updated_at = NOW()
		WHERE id = $1 AND is_deleted = $4`

	res, err := r.db.ExecContext(ctx, query, id, deleted, actor, !deleted)
	if err != nil {
		return fmt.Errorf("failed to update patient deletion state: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *PatientRepository) CountActiveTreatments(ctx context.Context, patientID uuid.UUID) (int, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM treatments
		WHERE patient_id = $1 AND is_deleted = FALSE AND status IN ('SCHEDULED', 'ONGOING')`
	if err := r.db.GetContext(ctx, &count, query, patientID); err != nil {
		return 0, fmt.Errorf("failed to count active treatments: %w", err)
	}
	return count, nil
}
