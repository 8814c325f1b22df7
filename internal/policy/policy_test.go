package policy

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/errors"
)

func adminScope(clinicID uuid.UUID) model.Scope {
	return model.Scope{UserID: uuid.New(), ClinicID: clinicID, Role: model.RoleAdmin}
}

func doctorScope(clinicID uuid.UUID) model.Scope {
	return model.Scope{UserID: uuid.New(), ClinicID: clinicID, Role: model.RoleDoctor}
}

func TestAllows(t *testing.T) {
	clinicID := uuid.New()
	admin := adminScope(clinicID)
	doctor := doctorScope(clinicID)

	tests := []struct {
		name     string
		scope    model.Scope
		resource Resource
		action   Action
		want     bool
	}{
		{"admin creates clinic", admin, ResourceClinic, ActionCreate, true},
		{"doctor cannot create clinic", doctor, ResourceClinic, ActionCreate, false},
		{"doctor reads clinic", doctor, ResourceClinic, ActionRead, true},
		{"doctor cannot delete patient", doctor, ResourcePatient, ActionDelete, false},
		{"doctor creates patient", doctor, ResourcePatient, ActionCreate, true},
		{"doctor deletes treatment", doctor, ResourceTreatment, ActionDelete, true},
		{"doctor cannot restore treatment", doctor, ResourceTreatment, ActionRestore, false},
		{"admin restores treatment", admin, ResourceTreatment, ActionRestore, true},
		{"doctor cannot read audit logs", doctor, ResourceAuditLog, ActionRead, false},
		{"admin reads audit logs", admin, ResourceAuditLog, ActionRead, true},
		{"unknown resource denied", admin, Resource("widget"), ActionRead, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Allows(tt.scope, tt.resource, tt.action))
		})
	}
}

func TestAllowsSuperuserBypass(t *testing.T) {
	su := model.Scope{UserID: uuid.New(), Superuser: true}
	assert.True(t, Allows(su, ResourceClinic, ActionDelete))
	assert.True(t, Allows(su, Resource("widget"), ActionRead))
}

func TestRequire(t *testing.T) {
	doctor := doctorScope(uuid.New())

	err := Require(doctor, ResourceClinic, ActionDelete)
	require.Error(t, err)
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, 403, appErr.Status)

	assert.NoError(t, Require(doctor, ResourcePatient, ActionCreate))
}

func TestRequireSameClinic(t *testing.T) {
	clinicID := uuid.New()
	otherClinic := uuid.New()

	assert.NoError(t, RequireSameClinic(adminScope(clinicID), clinicID))
	assert.Error(t, RequireSameClinic(adminScope(clinicID), otherClinic))

	// Callers without a clinic see nothing.
	noClinic := model.Scope{UserID: uuid.New(), Role: model.RoleAdmin}
	assert.Error(t, RequireSameClinic(noClinic, clinicID))

	su := model.Scope{UserID: uuid.New(), Superuser: true}
	assert.NoError(t, RequireSameClinic(su, otherClinic))
}

func TestCanModifyTreatment(t *testing.T) {
	clinicID := uuid.New()
	doctor := doctorScope(clinicID)
	admin := adminScope(clinicID)

	ownDoctorID := doctor.UserID
	otherDoctorID := uuid.New()

	own := &model.Treatment{ClinicID: clinicID, DoctorID: &ownDoctorID}
	others := &model.Treatment{ClinicID: clinicID, DoctorID: &otherDoctorID}
	unassigned := &model.Treatment{ClinicID: clinicID}
	foreign := &model.Treatment{ClinicID: uuid.New(), DoctorID: &ownDoctorID}

	assert.NoError(t, CanModifyTreatment(doctor, own))
	assert.Error(t, CanModifyTreatment(doctor, others))
	assert.Error(t, CanModifyTreatment(doctor, unassigned))
	assert.Error(t, CanModifyTreatment(doctor, foreign))

	// Admins are bound only by the tenant gate.
	assert.NoError(t, CanModifyTreatment(admin, others))
	assert.Error(t, CanModifyTreatment(admin, foreign))
}
