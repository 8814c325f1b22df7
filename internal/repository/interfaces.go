package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
)

// Tenant-scoped reads take the caller scope and a scope mode; implementations
// must never return rows outside the caller's clinic for non-superusers and
// must exclude soft-deleted rows unless the mode says otherwise.

type ClinicRepository interface {
	Create(ctx context.Context, clinic *model.Clinic) error
	Get(ctx context.Context, scope model.Scope, id uuid.UUID, mode model.ScopeMode) (*model.Clinic, error)
	List(ctx context.Context, scope model.Scope, filters *model.ClinicFilters) ([]*model.Clinic, int, error)
	Update(ctx context.Context, clinic *model.Clinic) error
	SetDeleted(ctx context.Context, id uuid.UUID, deleted bool) error
	NameExists(ctx context.Context, name string, excludeID uuid.UUID) (bool, error)
	Statistics(ctx context.Context, id uuid.UUID) (*model.ClinicStatistics, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Get(ctx context.Context, scope model.Scope, id uuid.UUID, mode model.ScopeMode) (*model.User, error)
	// GetByEmail is unscoped: it serves the login path, which runs before any
	// caller scope exists. Soft-deleted users are still excluded.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, scope model.Scope, filters *model.UserFilters) ([]*model.User, int, error)
	Update(ctx context.Context, user *model.User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	SetDeleted(ctx context.Context, id uuid.UUID, actor uuid.UUID, deleted bool) error
}

type PatientRepository interface {
	Create(ctx context.Context, patient *model.Patient) error
	Get(ctx context.Context, scope model.Scope, id uuid.UUID, mode model.ScopeMode) (*model.Patient, error)
	List(ctx context.Context, scope model.Scope, filters *model.PatientFilters) ([]*model.Patient, int, error)
	Update(ctx context.Context, patient *model.Patient) error
	SetDeleted(ctx context.Context, id uuid.UUID, actor uuid.UUID, deleted bool) error
	CountActiveTreatments(ctx context.Context, patientID uuid.UUID) (int, error)
}

type TreatmentRepository interface {
	Create(ctx context.Context, treatment *model.Treatment) error
	Get(ctx context.Context, scope model.Scope, id uuid.UUID, mode model.ScopeMode) (*model.Treatment, error)
	List(ctx context.Context, scope model.Scope, filters *model.TreatmentFilters) ([]*model.Treatment, int, error)
	ListByPatient(ctx context.Context, scope model.Scope, patientID uuid.UUID) ([]*model.Treatment, error)
	Update(ctx context.Context, treatment *model.Treatment) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.TreatmentStatus, actor uuid.UUID) error
	SetDeleted(ctx context.Context, id uuid.UUID, actor uuid.UUID, deleted bool) error
}

type AuditLogRepository interface {
	Create(ctx context.Context, log *model.AuditLog) error
	List(ctx context.Context, scope model.Scope, filters *model.AuditLogFilters) ([]*model.AuditLog, int, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// TokenStore blacklists refresh tokens until their natural expiry.
type TokenStore interface {
	Blacklist(ctx context.Context, tokenID string, until time.Time) error
	IsBlacklisted(ctx context.Context, tokenID string) (bool, error)
}
