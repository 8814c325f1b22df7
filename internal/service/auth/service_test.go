package auth

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
	pkgauth "github.com/jwalitptl/clinic-api/pkg/auth"
	"github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
	"github.com/jwalitptl/clinic-api/pkg/security"
)

var testMetrics = metrics.NewMetrics("clinic_api_test", "auth")

type fakeUserRepo struct {
	users   map[uuid.UUID]*model.User
	byEmail map[string]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:   make(map[uuid.UUID]*model.User),
		byEmail: make(map[string]*model.User),
	}
}

func (r *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	u.ID = uuid.New()
	r.users[u.ID] = u
	r.byEmail[strings.ToLower(u.Email)] = u
	return nil
}

func (r *fakeUserRepo) Get(_ context.Context, scope model.Scope, id uuid.UUID, _ model.ScopeMode) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	if u.ClinicID != nil && !scope.CanSee(*u.ClinicID) {
		return nil, nil
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	return r.byEmail[strings.ToLower(email)], nil
}

func (r *fakeUserRepo) EmailExists(_ context.Context, email string) (bool, error) {
	_, ok := r.byEmail[strings.ToLower(email)]
	return ok, nil
}

func (r *fakeUserRepo) List(context.Context, model.Scope, *model.UserFilters) ([]*model.User, int, error) {
	return nil, 0, nil
}

func (r *fakeUserRepo) Update(_ context.Context, u *model.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	r.users[id].PasswordHash = hash
	return nil
}

func (r *fakeUserRepo) SetDeleted(context.Context, uuid.UUID, uuid.UUID, bool) error {
	return nil
}

type fakeClinicRepo struct {
	clinics map[uuid.UUID]*model.Clinic
}

func newFakeClinicRepo() *fakeClinicRepo {
	return &fakeClinicRepo{clinics: make(map[uuid.UUID]*model.Clinic)}
}

func (r *fakeClinicRepo) add(active bool) *model.Clinic {
	c := &model.Clinic{Name: "Bright Smiles", IsActive: active}
	c.ID = uuid.New()
	r.clinics[c.ID] = c
	return c
}

func (r *fakeClinicRepo) Create(_ context.Context, c *model.Clinic) error {
	c.ID = uuid.New()
	r.clinics[c.ID] = c
	return nil
}

func (r *fakeClinicRepo) Get(_ context.Context, _ model.Scope, id uuid.UUID, _ model.ScopeMode) (*model.Clinic, error) {
	return r.clinics[id], nil
}

func (r *fakeClinicRepo) List(context.Context, model.Scope, *model.ClinicFilters) ([]*model.Clinic, int, error) {
	return nil, 0, nil
}
func (r *fakeClinicRepo) Update(context.Context, *model.Clinic) error       { return nil }
func (r *fakeClinicRepo) SetDeleted(context.Context, uuid.UUID, bool) error { return nil }
func (r *fakeClinicRepo) NameExists(context.Context, string, uuid.UUID) (bool, error) {
	return false, nil
}
func (r *fakeClinicRepo) Statistics(context.Context, uuid.UUID) (*model.ClinicStatistics, error) {
	return nil, nil
}

type fakeTokenStore struct {
	revoked map[string]time.Time
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{revoked: make(map[string]time.Time)}
}

func (s *fakeTokenStore) Blacklist(_ context.Context, tokenID string, until time.Time) error {
	s.revoked[tokenID] = until
	return nil
}

func (s *fakeTokenStore) IsBlacklisted(_ context.Context, tokenID string) (bool, error) {
	_, ok := s.revoked[tokenID]
	return ok, nil
}

type fakeAuditRepo struct{}

func (fakeAuditRepo) Create(context.Context, *model.AuditLog) error { return nil }
func (fakeAuditRepo) List(context.Context, model.Scope, *model.AuditLogFilters) ([]*model.AuditLog, int, error) {
	return nil, 0, nil
}
func (fakeAuditRepo) DeleteOlderThan(context.Context, time.Time) (int64, error) { return 0, nil }

type fixture struct {
	svc     *Service
	users   *fakeUserRepo
	clinics *fakeClinicRepo
	tokens  *fakeTokenStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users := newFakeUserRepo()
	clinics := newFakeClinicRepo()
	tokens := newFakeTokenStore()
	jwtSvc := pkgauth.NewJWTService(pkgauth.Config{
		Secret:        "test-access-secret",
		RefreshSecret: "test-refresh-secret",
		Expiry:        time.Minute,
		RefreshExpiry: time.Hour,
	})
	appLogger := logger.NewLogger(nil)
	svc := NewService(
		users,
		clinics,
		tokens,
		jwtSvc,
		security.NewBcryptHasher(bcrypt.MinCost),
		email.NewService(config.SMTPConfig{}),
		audit.NewService(fakeAuditRepo{}, appLogger),
		testMetrics,
		appLogger,
	)
	return &fixture{svc: svc, users: users, clinics: clinics, tokens: tokens}
}

func registerRequest(clinicID uuid.UUID) *model.RegisterRequest {
	return &model.RegisterRequest{
		Email:           "doc@example.com",
		Password:        "s3cretpass",
		PasswordConfirm: "s3cretpass",
		FirstName:       "Jane",
		LastName:        "Doe",
		ContactNumber:   "+15551234567",
		ClinicID:        clinicID,
		Role:            model.RoleDoctor,
	}
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	clinic := f.clinics.add(true)

	user, err := f.svc.Register(context.Background(), registerRequest(clinic.ID))
	require.NoError(t, err)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "s3cretpass", user.PasswordHash)

	resp, err := f.svc.Login(context.Background(), &model.LoginRequest{
		Email:    "doc@example.com",
		Password: "s3cretpass",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Access)
	assert.NotEmpty(t, resp.Refresh)
	assert.Equal(t, user.ID, resp.User.ID)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	clinic := f.clinics.add(true)

	_, err := f.svc.Register(context.Background(), registerRequest(clinic.ID))
	require.NoError(t, err)

	_, err = f.svc.Register(context.Background(), registerRequest(clinic.ID))
	require.Error(t, err)
	appErr, _ := errors.As(err)
	assert.Equal(t, "Email already registered.", appErr.Fields["email"])
}

func TestRegisterRejectsMissingOrInactiveClinic(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Register(context.Background(), registerRequest(uuid.New()))
	require.Error(t, err)
	appErr, _ := errors.As(err)
	assert.Equal(t, "clinic not found", appErr.Fields["clinic_id"])

	inactive := f.clinics.add(false)
	_, err = f.svc.Register(context.Background(), registerRequest(inactive.ID))
	require.Error(t, err)
	appErr, _ = errors.As(err)
	assert.Equal(t, "clinic is not active", appErr.Fields["clinic_id"])
}

func TestLoginFailures(t *testing.T) {
	f := newFixture(t)
	clinic := f.clinics.add(true)
	user, err := f.svc.Register(context.Background(), registerRequest(clinic.ID))
	require.NoError(t, err)

	// Unknown email and wrong password yield the same message.
	_, err = f.svc.Login(context.Background(), &model.LoginRequest{Email: "nobody@example.com", Password: "whatever1"})
	appErr, _ := errors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, 401, appErr.Status)
	assert.Equal(t, "invalid email or password", appErr.Message)

	_, err = f.svc.Login(context.Background(), &model.LoginRequest{Email: user.Email, Password: "wrongpassword"})
	appErr, _ = errors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "invalid email or password", appErr.Message)

	user.IsActive = false
	_, err = f.svc.Login(context.Background(), &model.LoginRequest{Email: user.Email, Password: "s3cretpass"})
	appErr, _ = errors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "account is inactive", appErr.Message)
}

func TestRefreshRotatesToken(t *testing.T) {
	f := newFixture(t)
	clinic := f.clinics.add(true)
	_, err := f.svc.Register(context.Background(), registerRequest(clinic.ID))
	require.NoError(t, err)

	resp, err := f.svc.Login(context.Background(), &model.LoginRequest{
		Email:    "doc@example.com",
		Password: "s3cretpass",
	})
	require.NoError(t, err)

	pair, err := f.svc.Refresh(context.Background(), resp.Refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.Access)
	assert.NotEqual(t, resp.Refresh, pair.Refresh)

	// The spent token is now revoked.
	_, err = f.svc.Refresh(context.Background(), resp.Refresh)
	require.Error(t, err)
	appErr, _ := errors.As(err)
	assert.Equal(t, "refresh token has been revoked", appErr.Message)

	// The rotated token still works.
	_, err = f.svc.Refresh(context.Background(), pair.Refresh)
	require.NoError(t, err)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	f := newFixture(t)
	clinic := f.clinics.add(true)
	_, err := f.svc.Register(context.Background(), registerRequest(clinic.ID))
	require.NoError(t, err)

	resp, err := f.svc.Login(context.Background(), &model.LoginRequest{
		Email:    "doc@example.com",
		Password: "s3cretpass",
	})
	require.NoError(t, err)

	_, err = f.svc.Refresh(context.Background(), resp.Access)
	require.Error(t, err)
	appErr, _ := errors.As(err)
	assert.Equal(t, "invalid refresh token", appErr.Message)
}

func TestRefreshRejectsDeactivatedUser(t *testing.T) {
	f := newFixture(t)
	clinic := f.clinics.add(true)
	user, err := f.svc.Register(context.Background(), registerRequest(clinic.ID))
	require.NoError(t, err)

	resp, err := f.svc.Login(context.Background(), &model.LoginRequest{
		Email:    "doc@example.com",
		Password: "s3cretpass",
	})
	require.NoError(t, err)

	user.IsActive = false
	_, err = f.svc.Refresh(context.Background(), resp.Refresh)
	require.Error(t, err)
	appErr, _ := errors.As(err)
	assert.Equal(t, "account is no longer active", appErr.Message)
}

func TestLogoutBlacklistsRefreshToken(t *testing.T) {
	f := newFixture(t)
	clinic := f.clinics.add(true)
	_, err := f.svc.Register(context.Background(), registerRequest(clinic.ID))
	require.NoError(t, err)

	resp, err := f.svc.Login(context.Background(), &model.LoginRequest{
		Email:    "doc@example.com",
		Password: "s3cretpass",
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(context.Background(), resp.Refresh))
	assert.Len(t, f.tokens.revoked, 1)

	_, err = f.svc.Refresh(context.Background(), resp.Refresh)
	require.Error(t, err)

	// Empty and garbage tokens are accepted silently.
	require.NoError(t, f.svc.Logout(context.Background(), ""))
	require.NoError(t, f.svc.Logout(context.Background(), "not-a-token"))
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	clinic := f.clinics.add(true)
	user, err := f.svc.Register(context.Background(), registerRequest(clinic.ID))
	require.NoError(t, err)

	err = f.svc.ChangePassword(context.Background(), user.Scope(), &model.ChangePasswordRequest{
		OldPassword:        "wrongpassword",
		NewPassword:        "newsecret1",
		NewPasswordConfirm: "newsecret1",
	})
	require.Error(t, err)
	appErr, _ := errors.As(err)
	assert.Equal(t, "incorrect password", appErr.Fields["old_password"])

	err = f.svc.ChangePassword(context.Background(), user.Scope(), &model.ChangePasswordRequest{
		OldPassword:        "s3cretpass",
		NewPassword:        "newsecret1",
		NewPasswordConfirm: "newsecret1",
	})
	require.NoError(t, err)

	_, err = f.svc.Login(context.Background(), &model.LoginRequest{Email: user.Email, Password: "newsecret1"})
	require.NoError(t, err)
	_, err = f.svc.Login(context.Background(), &model.LoginRequest{Email: user.Email, Password: "s3cretpass"})
	require.Error(t, err)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	clinic := f.clinics.add(true)
	user, err := f.svc.Register(context.Background(), registerRequest(clinic.ID))
	require.NoError(t, err)

	first := "Janet"
	degree := "BDS"
	updated, err := f.svc.UpdateProfile(context.Background(), user.Scope(), &model.UpdateProfileRequest{
		FirstName: &first,
		Degree:    &degree,
	})
	require.NoError(t, err)
	assert.Equal(t, "Janet", updated.FirstName)
	require.NotNil(t, updated.Degree)
	assert.Equal(t, "BDS", *updated.Degree)
	assert.Equal(t, "Doe", updated.LastName)
}
