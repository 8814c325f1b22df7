package audit

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/policy"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/pkg/logger"
)

// Service records and queries audit trail entries. Writes are best effort:
// a failed audit write is logged but never fails the originating request.
type Service struct {
	repo   repository.AuditLogRepository
	logger *logger.Logger
}

func NewService(repo repository.AuditLogRepository, logger *logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Record writes an audit entry for an action performed by the scoped caller.
// changes is marshaled as the entry payload and may be nil.
func (s *Service) Record(ctx context.Context, scope model.Scope, action, resource string, resourceID uuid.UUID, changes interface{}) {
	entry := &model.AuditLog{
		ActorID:    scope.UserID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
	}
	if scope.HasClinic() {
		clinicID := scope.ClinicID
		entry.ClinicID = &clinicID
	}
	if changes != nil {
		payload, err := json.Marshal(changes)
		if err != nil {
			s.logger.Error(err, "failed to marshal audit changes", "resource", resource)
		} else {
			entry.Changes = payload
		}
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Error(err, "failed to write audit log",
			"action", action, "resource", resource, "resource_id", resourceID)
	}
}

func (s *Service) List(ctx context.Context, scope model.Scope, filters *model.AuditLogFilters) ([]*model.AuditLog, int, error) {
	if err := policy.Require(scope, policy.ResourceAuditLog, policy.ActionRead); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, scope, filters)
}
