package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/email"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/policy"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/audit"
	"github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/security"
)

type UserService interface {
	Create(ctx context.Context, scope model.Scope, req *model.CreateUserRequest) (*model.User, error)
	Get(ctx context.Context, scope model.Scope, id uuid.UUID) (*model.User, error)
	List(ctx context.Context, scope model.Scope, filters *model.UserFilters) ([]*model.User, int, error)
	ListDoctors(ctx context.Context, scope model.Scope, filters *model.UserFilters) ([]*model.User, int, error)
	Update(ctx context.Context, scope model.Scope, id uuid.UUID, req *model.UpdateUserRequest) (*model.User, error)
	Delete(ctx context.Context, scope model.Scope, id uuid.UUID) error
	Restore(ctx context.Context, scope model.Scope, id uuid.UUID) (*model.User, error)
}

type Service struct {
	repo    repository.UserRepository
	clinics repository.ClinicRepository
	hasher  security.PasswordHasher
	email   email.Service
	auditor *audit.Service
	logger  *logger.Logger
}

func NewService(
	repo repository.UserRepository,
	clinics repository.ClinicRepository,
	hasher security.PasswordHasher,
	email email.Service,
	auditor *audit.Service,
	logger *logger.Logger,
) *Service {
	return &Service{
		repo:    repo,
		clinics: clinics,
		hasher:  hasher,
		email:   email,
		auditor: auditor,
		logger:  logger,
	}
}

// Create adds a staff account to the caller's clinic. The new user always
// lands in the creating admin's clinic; there is no cross-clinic creation.
func (s *Service) Create(ctx context.Context, scope model.Scope, req *model.CreateUserRequest) (*model.User, error) {
	if err := policy.Require(scope, policy.ResourceUser, policy.ActionCreate); err != nil {
		return nil, err
	}
	if !scope.HasClinic() {
		return nil, errors.BadRequest("no_clinic", "caller has no clinic to create users in")
	}

	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if exists {
		return nil, errors.Validation("email", "Email already registered.")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to hash password: %w", err))
	}

	clinicID := scope.ClinicID
	actorID := scope.UserID
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
	user.CreatedBy = &actorID
	user.UpdatedBy = &actorID

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, errors.Internal(err)
	}

	if clinic, err := s.clinics.Get(ctx, scope, clinicID, model.ScopeActive); err == nil && clinic != nil {
		if err := s.email.SendWelcome(ctx, user.Email, user.FullName(), clinic.Name); err != nil {
			s.logger.Error(err, "failed to send welcome email", "email", user.Email)
		}
	}

	s.auditor.Record(ctx, scope, "create", "user", user.ID, user)
	return user, nil
}

func (s *Service) Get(ctx context.Context, scope model.Scope, id uuid.UUID) (*model.User, error) {
	user, err := s.repo.Get(ctx, scope, id, model.ScopeActive)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if user == nil {
		return nil, errors.NotFound("user")
	}
	return user, nil
}

func (s *Service) List(ctx context.Context, scope model.Scope, filters *model.UserFilters) ([]*model.User, int, error) {
	users, total, err := s.repo.List(ctx, scope, filters)
	if err != nil {
		return nil, 0, errors.Internal(err)
	}
	return users, total, nil
}

// ListDoctors is the doctor directory used by patient assignment pickers.
func (s *Service) ListDoctors(ctx context.Context, scope model.Scope, filters *model.UserFilters) ([]*model.User, int, error) {
	filters.Role = model.RoleDoctor
	return s.List(ctx, scope, filters)
}

func (s *Service) Update(ctx context.Context, scope model.Scope, id uuid.UUID, req *model.UpdateUserRequest) (*model.User, error) {
	if err := policy.Require(scope, policy.ResourceUser, policy.ActionUpdate); err != nil {
		return nil, err
	}
	user, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Role != nil {
		user.Role = *req.Role
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
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	actorID := scope.UserID
	user.UpdatedBy = &actorID

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, errors.Internal(err)
	}

	s.auditor.Record(ctx, scope, "update", "user", user.ID, req)
	return user, nil
}

func (s *Service) Delete(ctx context.Context, scope model.Scope, id uuid.UUID) error {
	if err := policy.Require(scope, policy.ResourceUser, policy.ActionDelete); err != nil {
		return err
	}
	if id == scope.UserID {
		return errors.BadRequest("cannot_delete_self", "you cannot delete your own account")
	}
	if _, err := s.Get(ctx, scope, id); err != nil {
		return err
	}

	if err := s.repo.SetDeleted(ctx, id, scope.UserID, true); err != nil {
		return errors.Internal(err)
	}

	s.auditor.Record(ctx, scope, "delete", "user", id, nil)
	return nil
}

func (s *Service) Restore(ctx context.Context, scope model.Scope, id uuid.UUID) (*model.User, error) {
	if err := policy.Require(scope, policy.ResourceUser, policy.ActionRestore); err != nil {
		return nil, err
	}

	deleted, err := s.repo.Get(ctx, scope, id, model.ScopeDeleted)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if deleted == nil {
		return nil, errors.NotFound("user")
	}

	if err := s.repo.SetDeleted(ctx, id, scope.UserID, false); err != nil {
		return nil, errors.Internal(err)
	}

	s.auditor.Record(ctx, scope, "restore", "user", id, nil)
	return s.Get(ctx, scope, id)
}
