package model

import "github.com/google/uuid"

// Role governs coarse-grained permissions. Patients have no login
// credentials and therefore no role.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleDoctor Role = "DOCTOR"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleDoctor
}

// ScopeMode selects which rows a query may see. The default everywhere is
// ScopeActive; ScopeAll exists for administrative restore and audit paths.
type ScopeMode int

const (
	ScopeActive ScopeMode = iota
	ScopeAll
	ScopeDeleted
)

// Scope is the caller identity threaded through every service and repository
// call. It replaces any ambient "current user" state: tenant isolation is
// enforced from this value and nothing else.
type Scope struct {
	UserID    uuid.UUID
	ClinicID  uuid.UUID
	Role      Role
	Superuser bool
}

// HasClinic reports whether the caller is bound to a tenant.
func (s Scope) HasClinic() bool {
	return s.ClinicID != uuid.Nil
}

// CanSee reports whether a row belonging to clinicID is visible to the
// caller. Callers without a clinic see nothing unless they are superusers.
func (s Scope) CanSee(clinicID uuid.UUID) bool {
	if s.Superuser {
		return true
	}
	return s.HasClinic() && s.ClinicID == clinicID
}
