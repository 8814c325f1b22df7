package auth

import (
	"context"
	"fmt"

	"github.com/jwalitptl/clinic-api/internal/email"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/audit"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	"github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
	"github.com/jwalitptl/clinic-api/pkg/security"
)

type AuthService interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*model.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	Profile(ctx context.Context, scope model.Scope) (*model.User, error)
	UpdateProfile(ctx context.Context, scope model.Scope, req *model.UpdateProfileRequest) (*model.User, error)
	ChangePassword(ctx context.Context, scope model.Scope, req *model.ChangePasswordRequest) error
}

type Service struct {
	users   repository.UserRepository
	clinics repository.ClinicRepository
	tokens  repository.TokenStore
	jwt     auth.JWTService
	hasher  security.PasswordHasher
	email   email.Service
	auditor *audit.Service
	metrics *metrics.Metrics
	logger  *logger.Logger
}

func NewService(
	users repository.UserRepository,
	clinics repository.ClinicRepository,
	tokens repository.TokenStore,
	jwt auth.JWTService,
	hasher security.PasswordHasher,
	email email.Service,
	auditor *audit.Service,
	m *metrics.Metrics,
	logger *logger.Logger,
) *Service {
	return &Service{
		users:   users,
		clinics: clinics,
		tokens:  tokens,
		jwt:     jwt,
		hasher:  hasher,
		email:   email,
		auditor: auditor,
		metrics: m,
		logger:  logger,
	}
}

// systemScope is used for internal lookups that run before or outside any
// caller scope, like validating the clinic during registration.
var systemScope = model.Scope{Superuser: true}

func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	exists, err := s.users.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if exists {
		return nil, errors.Validation("email", "Email already registered.")
	}

	clinic, err := s.clinics.Get(ctx, systemScope, req.ClinicID, model.ScopeActive)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if clinic == nil {
		return nil, errors.Validation("clinic_id", "clinic not found")
	}
	if !clinic.IsActive {
		return nil, errors.Validation("clinic_id", "clinic is not active")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to hash password: %w", err))
	}

	clinicID := req.ClinicID
	user := &model.User{
		Email:                  req.Email,
		PasswordHash:           hash,
		FirstName:              req.FirstName,
		LastName:               req.LastName,
		ClinicID:               &clinicID,
		Role:                   req.Role,
		ContactNumber:          &req.ContactNumber,
		SecondaryContactNumber: req.SecondaryContactNumber,
		Address:                req.Address,
		Degree:                 req.Degree,
		IsActive:               true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, errors.Internal(err)
	}

	if err := s.email.SendWelcome(ctx, user.Email, user.FullName(), clinic.Name); err != nil {
		s.logger.Error(err, "failed to send welcome email", "email", user.Email)
	}

	s.auditor.Record(ctx, user.Scope(), "register", "user", user.ID, nil)
	return user, nil
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if user == nil {
		s.metrics.LoginAttempts.WithLabelValues("failure").Inc()
		return nil, errors.Unauthorized("invalid email or password")
	}
	if !user.IsActive {
		s.metrics.LoginAttempts.WithLabelValues("failure").Inc()
		return nil, errors.Unauthorized("account is inactive")
	}
	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		s.metrics.LoginAttempts.WithLabelValues("failure").Inc()
		return nil, errors.Unauthorized("invalid email or password")
	}

	pair, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	s.metrics.LoginAttempts.WithLabelValues("success").Inc()
	s.auditor.Record(ctx, user.Scope(), "login", "user", user.ID, nil)
	return &model.LoginResponse{User: user, Access: pair.Access, Refresh: pair.Refresh}, nil
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (*model.TokenPair, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, errors.Unauthorized("invalid refresh token")
	}

	revoked, err := s.tokens.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if revoked {
		return nil, errors.Unauthorized("refresh token has been revoked")
	}

	user, err := s.users.Get(ctx, systemScope, claims.UserID, model.ScopeActive)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if user == nil || !user.IsActive {
		return nil, errors.Unauthorized("account is no longer active")
	}

	// Rotate: the presented refresh token is spent.
	if err := s.tokens.Blacklist(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return nil, errors.Internal(err)
	}
	s.metrics.TokensRevoked.Inc()

	return s.issueTokens(user)
}

func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		// An invalid token cannot be replayed, logout still succeeds.
		return nil
	}
	if err := s.tokens.Blacklist(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return errors.Internal(err)
	}
	s.metrics.TokensRevoked.Inc()
	return nil
}

func (s *Service) Profile(ctx context.Context, scope model.Scope) (*model.User, error) {
	user, err := s.users.Get(ctx, systemScope, scope.UserID, model.ScopeActive)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if user == nil {
		return nil, errors.NotFound("user")
	}
	return user, nil
}

func (s *Service) UpdateProfile(ctx context.Context, scope model.Scope, req *model.UpdateProfileRequest) (*model.User, error) {
	user, err := s.Profile(ctx, scope)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.ContactNumber != nil {
		user.ContactNumber = req.ContactNumber
	}
	if req.SecondaryContactNumber != nil {
		user.SecondaryContactNumber = req.SecondaryContactNumber
	}
	if req.Address != nil {
		user.Address = req.Address
	}
	if req.Degree != nil {
		user.Degree = req.Degree
	}
	userID := scope.UserID
	user.UpdatedBy = &userID

	if err := s.users.Update(ctx, user); err != nil {
		return nil, errors.Internal(err)
	}

	s.auditor.Record(ctx, scope, "update_profile", "user", user.ID, req)
	return user, nil
}

func (s *Service) ChangePassword(ctx context.Context, scope model.Scope, req *model.ChangePasswordRequest) error {
	user, err := s.Profile(ctx, scope)
	if err != nil {
		return err
	}

	if err := s.hasher.Compare(user.PasswordHash, req.OldPassword); err != nil {
		return errors.Validation("old_password", "incorrect password")
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return errors.Internal(fmt.Errorf("failed to hash password: %w", err))
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return errors.Internal(err)
	}

	if err := s.email.SendPasswordChanged(ctx, user.Email, user.FullName()); err != nil {
		s.logger.Error(err, "failed to send password change email", "email", user.Email)
	}

	s.auditor.Record(ctx, scope, "change_password", "user", user.ID, nil)
	return nil
}

func (s *Service) issueTokens(user *model.User) (*model.TokenPair, error) {
	access, err := s.jwt.GenerateAccessToken(user)
	if err != nil {
		return nil, errors.Internal(err)
	}
	refresh, err := s.jwt.GenerateRefreshToken(user)
	if err != nil {
		return nil, errors.Internal(err)
	}
	s.metrics.TokensIssued.WithLabelValues("access").Inc()
	s.metrics.TokensIssued.WithLabelValues("refresh").Inc()
	return &model.TokenPair{Access: access, Refresh: refresh}, nil
}
