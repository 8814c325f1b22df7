package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPaginationNormalize(t *testing.T) {
	tests := []struct {
		name     string
		in       Pagination
		wantPage int
		wantSize int
	}{
		{"zero values", Pagination{}, 1, DefaultPageSize},
		{"negative page", Pagination{Page: -3, PageSize: 10}, 1, 10},
		{"oversized page size", Pagination{Page: 2, PageSize: 500}, 2, MaxPageSize},
		{"valid untouched", Pagination{Page: 4, PageSize: 50}, 4, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.Normalize()
			assert.Equal(t, tt.wantPage, tt.in.Page)
			assert.Equal(t, tt.wantSize, tt.in.PageSize)
		})
	}
}

func TestPaginationOffset(t *testing.T) {
	p := Pagination{Page: 3, PageSize: 20}
	assert.Equal(t, 40, p.Offset())
}

func TestPatientAge(t *testing.T) {
	now := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)

	var p Patient
	assert.Nil(t, p.Age(now))

	dob := time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC)
	p.DateOfBirth = &dob
	assert.Equal(t, 36, *p.Age(now))

	// Birthday not yet reached this year.
	dob = time.Date(1990, 6, 16, 0, 0, 0, 0, time.UTC)
	p.DateOfBirth = &dob
	assert.Equal(t, 35, *p.Age(now))
}

func TestTreatmentScheduleFlags(t *testing.T) {
	now := time.Now()
	future := now.Add(48 * time.Hour)
	past := now.Add(-48 * time.Hour)

	upcoming := Treatment{NextVisitDate: &future, Status: TreatmentStatusScheduled}
	assert.True(t, upcoming.IsUpcoming(now))
	assert.False(t, upcoming.IsOverdue(now))

	overdue := Treatment{NextVisitDate: &past, Status: TreatmentStatusOngoing}
	assert.False(t, overdue.IsUpcoming(now))
	assert.True(t, overdue.IsOverdue(now))

	// A past visit on a completed treatment is not overdue.
	completed := Treatment{NextVisitDate: &past, Status: TreatmentStatusCompleted}
	assert.False(t, completed.IsOverdue(now))

	none := Treatment{Status: TreatmentStatusOngoing}
	assert.False(t, none.IsUpcoming(now))
	assert.False(t, none.IsOverdue(now))
}

func TestScopeCanSee(t *testing.T) {
	clinicID := uuid.New()
	other := uuid.New()

	scoped := Scope{UserID: uuid.New(), ClinicID: clinicID, Role: RoleDoctor}
	assert.True(t, scoped.CanSee(clinicID))
	assert.False(t, scoped.CanSee(other))

	unscoped := Scope{UserID: uuid.New(), Role: RoleAdmin}
	assert.False(t, unscoped.CanSee(clinicID))

	su := Scope{UserID: uuid.New(), Superuser: true}
	assert.True(t, su.CanSee(other))
}

func TestUserFullName(t *testing.T) {
	u := User{FirstName: "Jane", LastName: "Doe", Email: "jane@clinic.test"}
	assert.Equal(t, "Jane Doe", u.FullName())

	empty := User{Email: "jane@clinic.test"}
	assert.Equal(t, "jane@clinic.test", empty.FullName())
}

func TestUserScope(t *testing.T) {
	clinicID := uuid.New()
	u := User{Role: RoleDoctor, ClinicID: &clinicID}
	u.ID = uuid.New()

	s := u.Scope()
	assert.Equal(t, u.ID, s.UserID)
	assert.Equal(t, clinicID, s.ClinicID)
	assert.Equal(t, RoleDoctor, s.Role)
	assert.False(t, s.Superuser)

	su := User{Role: RoleAdmin, IsSuperuser: true}
	su.ID = uuid.New()
	assert.True(t, su.Scope().Superuser)
	assert.False(t, su.Scope().HasClinic())
}
