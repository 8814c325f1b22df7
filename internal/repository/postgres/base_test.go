package postgres

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
)

func TestScopeQueryClause(t *testing.T) {
	q := &scopeQuery{}
	q.where("is_deleted = FALSE")
	q.where("clinic_id = $?", "c1")
	q.where("(name ILIKE $? OR email ILIKE $?)", "%x%", "%x%")

	clause, args := q.clause()
	assert.Equal(t, " WHERE is_deleted = FALSE AND clinic_id = $1 AND (name ILIKE $2 OR email ILIKE $3)", clause)
	assert.Equal(t, []interface{}{"c1", "%x%", "%x%"}, args)
	assert.Equal(t, 4, q.next())
}

func TestScopeQueryEmpty(t *testing.T) {
	q := &scopeQuery{}
	clause, args := q.clause()
	assert.Empty(t, clause)
	assert.Nil(t, args)
	assert.Equal(t, 1, q.next())
}

func TestTenantScopeClinicUser(t *testing.T) {
	clinicID := uuid.New()
	scope := model.Scope{UserID: uuid.New(), ClinicID: clinicID, Role: model.RoleDoctor}

	q := &scopeQuery{}
	require.NoError(t, tenantScope(q, scope, model.ScopeActive, "clinic_id"))

	clause, args := q.clause()
	assert.Equal(t, " WHERE is_deleted = FALSE AND clinic_id = $1", clause)
	assert.Equal(t, []interface{}{clinicID}, args)
}

// Joined queries alias their tables, and patients, treatments, users and
// clinics all carry is_deleted. The soft-delete condition must use the same
// alias as the clinic column or postgres rejects it as ambiguous.
func TestTenantScopeQualifiesJoinedColumns(t *testing.T) {
	clinicID := uuid.New()
	scope := model.Scope{UserID: uuid.New(), ClinicID: clinicID, Role: model.RoleDoctor}

	q := &scopeQuery{}
	require.NoError(t, tenantScope(q, scope, model.ScopeActive, "t.clinic_id"))
	q.where("t.id = $?", uuid.New())

	clause, _ := q.clause()
	assert.Equal(t, " WHERE t.is_deleted = FALSE AND t.clinic_id = $1 AND t.id = $2", clause)

	q = &scopeQuery{}
	require.NoError(t, tenantScope(q, scope, model.ScopeDeleted, "p.clinic_id"))

	clause, _ = q.clause()
	assert.Equal(t, " WHERE p.is_deleted = TRUE AND p.clinic_id = $1", clause)
}

func TestTenantScopeDeletedMode(t *testing.T) {
	scope := model.Scope{UserID: uuid.New(), ClinicID: uuid.New(), Role: model.RoleAdmin}

	q := &scopeQuery{}
	require.NoError(t, tenantScope(q, scope, model.ScopeDeleted, "clinic_id"))

	clause, _ := q.clause()
	assert.Contains(t, clause, "is_deleted = TRUE")
}

func TestTenantScopeSuperuserUnfiltered(t *testing.T) {
	scope := model.Scope{UserID: uuid.New(), Superuser: true}

	q := &scopeQuery{}
	require.NoError(t, tenantScope(q, scope, model.ScopeAll, "clinic_id"))

	clause, args := q.clause()
	assert.Empty(t, clause)
	assert.Empty(t, args)
}

// A caller without a clinic must never produce an unfiltered query.
func TestTenantScopeFailsClosed(t *testing.T) {
	scope := model.Scope{UserID: uuid.New(), Role: model.RoleAdmin}

	q := &scopeQuery{}
	err := tenantScope(q, scope, model.ScopeActive, "clinic_id")
	assert.ErrorIs(t, err, ErrNoTenant)
}
