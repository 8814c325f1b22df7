package user

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/internal/email"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/audit"
	"github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/security"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *fakeUserRepo) add(clinicID uuid.UUID, role model.Role) *model.User {
	u := &model.User{ClinicID: &clinicID, Role: role, IsActive: true}
	u.ID = uuid.New()
	r.users[u.ID] = u
	return u
}

func (r *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	u.ID = uuid.New()
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) Get(_ context.Context, scope model.Scope, id uuid.UUID, mode model.ScopeMode) (*model.User, error) {
	u, ok := r.users[id]
	if !ok || u.ClinicID == nil || !scope.CanSee(*u.ClinicID) {
		return nil, nil
	}
	switch mode {
	case model.ScopeActive:
		if u.IsDeleted {
			return nil, nil
		}
	case model.ScopeDeleted:
		if !u.IsDeleted {
			return nil, nil
		}
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) && !u.IsDeleted {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) EmailExists(_ context.Context, email string) (bool, error) {
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) List(_ context.Context, scope model.Scope, filters *model.UserFilters) ([]*model.User, int, error) {
	var out []*model.User
	for _, u := range r.users {
		if u.IsDeleted || u.ClinicID == nil || !scope.CanSee(*u.ClinicID) {
			continue
		}
		if filters.Role != "" && u.Role != filters.Role {
			continue
		}
		out = append(out, u)
	}
	return out, len(out), nil
}

func (r *fakeUserRepo) Update(_ context.Context, u *model.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	r.users[id].PasswordHash = hash
	return nil
}

func (r *fakeUserRepo) SetDeleted(_ context.Context, id uuid.UUID, _ uuid.UUID, deleted bool) error {
	r.users[id].IsDeleted = deleted
	return nil
}

type fakeClinicRepo struct{}

func (fakeClinicRepo) Create(context.Context, *model.Clinic) error { return nil }
func (fakeClinicRepo) Get(context.Context, model.Scope, uuid.UUID, model.ScopeMode) (*model.Clinic, error) {
	return &model.Clinic{Name: "Bright Smiles", IsActive: true}, nil
}
func (fakeClinicRepo) List(context.Context, model.Scope, *model.ClinicFilters) ([]*model.Clinic, int, error) {
	return nil, 0, nil
}
func (fakeClinicRepo) Update(context.Context, *model.Clinic) error       { return nil }
func (fakeClinicRepo) SetDeleted(context.Context, uuid.UUID, bool) error { return nil }
func (fakeClinicRepo) NameExists(context.Context, string, uuid.UUID) (bool, error) {
	return false, nil
}
func (fakeClinicRepo) Statistics(context.Context, uuid.UUID) (*model.ClinicStatistics, error) {
	return nil, nil
}

type fakeAuditRepo struct{}

func (fakeAuditRepo) Create(context.Context, *model.AuditLog) error { return nil }
func (fakeAuditRepo) List(context.Context, model.Scope, *model.AuditLogFilters) ([]*model.AuditLog, int, error) {
	return nil, 0, nil
}
func (fakeAuditRepo) DeleteOlderThan(context.Context, time.Time) (int64, error) { return 0, nil }

type fixture struct {
	svc  *Service
	repo *fakeUserRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newFakeUserRepo()
	appLogger := logger.NewLogger(nil)
	svc := NewService(
		repo,
		fakeClinicRepo{},
		security.NewBcryptHasher(bcrypt.MinCost),
		email.NewService(config.SMTPConfig{}),
		audit.NewService(fakeAuditRepo{}, appLogger),
		appLogger,
	)
	return &fixture{svc: svc, repo: repo}
}

func createRequest(email string) *model.CreateUserRequest {
	return &model.CreateUserRequest{
		Email:         email,
		Password:      "s3cretpass",
		FirstName:     "John",
		LastName:      "Smith",
		Role:          model.RoleDoctor,
		ContactNumber: "+15551234567",
	}
}

func TestCreateLandsInCallersClinic(t *testing.T) {
	f := newFixture(t)
	clinicID := uuid.New()
	admin := f.repo.add(clinicID, model.RoleAdmin)

	created, err := f.svc.Create(context.Background(), admin.Scope(), createRequest("doc@example.com"))
	require.NoError(t, err)
	require.NotNil(t, created.ClinicID)
	assert.Equal(t, clinicID, *created.ClinicID)
	assert.True(t, created.IsActive)
	require.NotNil(t, created.CreatedBy)
	assert.Equal(t, admin.ID, *created.CreatedBy)
}

func TestCreateRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	doctor := f.repo.add(uuid.New(), model.RoleDoctor)

	_, err := f.svc.Create(context.Background(), doctor.Scope(), createRequest("doc@example.com"))
	require.Error(t, err)
	appErr, _ := errors.As(err)
	assert.Equal(t, 403, appErr.Status)
}

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	admin := f.repo.add(uuid.New(), model.RoleAdmin)

	_, err := f.svc.Create(context.Background(), admin.Scope(), createRequest("doc@example.com"))
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), admin.Scope(), createRequest("doc@example.com"))
	require.Error(t, err)
	appErr, _ := errors.As(err)
	assert.Equal(t, "Email already registered.", appErr.Fields["email"])
}

func TestGetHidesOtherClinics(t *testing.T) {
	f := newFixture(t)
	admin := f.repo.add(uuid.New(), model.RoleAdmin)
	foreign := f.repo.add(uuid.New(), model.RoleDoctor)

	_, err := f.svc.Get(context.Background(), admin.Scope(), foreign.ID)
	require.Error(t, err)
	appErr, _ := errors.As(err)
	assert.Equal(t, 404, appErr.Status)
}

func TestDeleteRejectsSelf(t *testing.T) {
	f := newFixture(t)
	admin := f.repo.add(uuid.New(), model.RoleAdmin)

	err := f.svc.Delete(context.Background(), admin.Scope(), admin.ID)
	require.Error(t, err)
	appErr, _ := errors.As(err)
	assert.Equal(t, "cannot_delete_self", appErr.Code)
}

func TestDeleteAndRestore(t *testing.T) {
	f := newFixture(t)
	clinicID := uuid.New()
	admin := f.repo.add(clinicID, model.RoleAdmin)
	doctor := f.repo.add(clinicID, model.RoleDoctor)

	require.NoError(t, f.svc.Delete(context.Background(), admin.Scope(), doctor.ID))

	_, err := f.svc.Get(context.Background(), admin.Scope(), doctor.ID)
	require.Error(t, err)

	restored, err := f.svc.Restore(context.Background(), admin.Scope(), doctor.ID)
	require.NoError(t, err)
	assert.False(t, restored.IsDeleted)
}

func TestListDoctorsFiltersByRole(t *testing.T) {
	f := newFixture(t)
	clinicID := uuid.New()
	admin := f.repo.add(clinicID, model.RoleAdmin)
	f.repo.add(clinicID, model.RoleDoctor)
	f.repo.add(clinicID, model.RoleDoctor)

	doctors, total, err := f.svc.ListDoctors(context.Background(), admin.Scope(), &model.UserFilters{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	for _, d := range doctors {
		assert.Equal(t, model.RoleDoctor, d.Role)
	}
}

func TestUpdateDeactivatesUser(t *testing.T) {
	f := newFixture(t)
	clinicID := uuid.New()
	admin := f.repo.add(clinicID, model.RoleAdmin)
	doctor := f.repo.add(clinicID, model.RoleDoctor)

	inactive := false
	updated, err := f.svc.Update(context.Background(), admin.Scope(), doctor.ID, &model.UpdateUserRequest{
		IsActive: &inactive,
	})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	require.NotNil(t, updated.UpdatedBy)
	assert.Equal(t, admin.ID, *updated.UpdatedBy)
}
