package worker

import (
	"context"
	"time"

	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/pkg/logger"
)

// AuditCleanupWorker deletes audit entries past the retention window.
type AuditCleanupWorker struct {
	repo          repository.AuditLogRepository
	retentionDays int
	interval      time.Duration
	logger        *logger.Logger
}

func NewAuditCleanupWorker(repo repository.AuditLogRepository, retentionDays int, interval time.Duration, logger *logger.Logger) *AuditCleanupWorker {
	return &AuditCleanupWorker{
		repo:          repo,
		retentionDays: retentionDays,
		interval:      interval,
		logger:        logger,
	}
}

// Start blocks until the context is cancelled.
func (w *AuditCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.cleanup(ctx)
		}
	}
}

func (w *AuditCleanupWorker) cleanup(ctx context.Context) {
	cutoff := time.Now().AddDate(0, 0, -w.retentionDays)
	rows, err := w.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		w.logger.Error(err, "failed to clean up audit logs")
		return
	}
	if rows > 0 {
		w.logger.Info("cleaned up audit logs", "rows", rows, "cutoff", cutoff)
	}
}
