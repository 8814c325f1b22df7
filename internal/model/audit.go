package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditLog records who did what to which resource. Writes are best effort
// and never fail the originating request.
type AuditLog struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	ActorID    uuid.UUID       `db:"actor_id" json:"actor_id"`
	ClinicID   *uuid.UUID      `db:"clinic_id" json:"clinic_id"`
	Action     string          `db:"action" json:"action"`
	Resource   string          `db:"resource" json:"resource"`
	ResourceID uuid.UUID       `db:"resource_id" json:"resource_id"`
	Changes    json.RawMessage `db:"changes" json:"changes,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

type AuditLogFilters struct {
	Pagination
	Resource string `form:"resource"`
	Action   string `form:"action"`
}
