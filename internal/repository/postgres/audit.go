package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-api/internal/model"
)

type AuditLogRepository struct {
	BaseRepository
}

func NewAuditLogRepository(db *sqlx.DB) *AuditLogRepository {
	return &AuditLogRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *AuditLogRepository) Create(ctx context.Context, log *model.AuditLog) error {
	query := `
		INSERT INTO audit_logs (id, actor_id, clinic_id, action, resource, resource_id, changes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	log.ID = uuid.New()
	log.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, query,
		log.ID,
		log.ActorID,
		log.ClinicID,
		log.Action,
		log.Resource,
		log.ResourceID,
		log.Changes,
		log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

func (r *AuditLogRepository) List(ctx context.Context, scope model.Scope, filters *model.AuditLogFilters) ([]*model.AuditLog, int, error) {
	filters.Normalize()

	// Audit rows have no soft delete; only the tenant rule applies.
	q := &scopeQuery{}
	if !scope.Superuser {
		if !scope.HasClinic() {
			return nil, 0, ErrNoTenant
		}
		q.where("clinic_id = $?", scope.ClinicID)
	}
	if filters.Resource != "" {
		q.where("resource = $?", filters.Resource)
	}
	if filters.Action != "" {
		q.where("action = $?", filters.Action)
	}
	clause, args := q.clause()

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM audit_logs`+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, actor_id, clinic_id, action, resource, resource_id, changes, created_at
		FROM audit_logs%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		clause, q.next(), q.next()+1)
	args = append(args, filters.PageSize, filters.Offset())

	logs := []*model.AuditLog{}
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, total, nil
}

// DeleteOlderThan removes entries past the retention window.
func (r *AuditLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM audit_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old audit logs: %w", err)
	}
	return res.RowsAffected()
}
