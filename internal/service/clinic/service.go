package clinic

import (
	"context"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/policy"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/audit"
	"github.com/jwalitptl/clinic-api/pkg/errors"
)

const (
	statsCacheTTL     = 5 * time.Minute
	statsCacheCleanup = 10 * time.Minute
)

type ClinicService interface {
	Create(ctx context.Context, scope model.Scope, req *model.CreateClinicRequest) (*model.Clinic, error)
	Get(ctx context.Context, scope model.Scope, id uuid.UUID) (*model.Clinic, error)
	List(ctx context.Context, scope model.Scope, filters *model.ClinicFilters) ([]*model.Clinic, int, error)
	Update(ctx context.Context, scope model.Scope, id uuid.UUID, req *model.UpdateClinicRequest) (*model.Clinic, error)
	Delete(ctx context.Context, scope model.Scope, id uuid.UUID) error
	Restore(ctx context.Context, scope model.Scope, id uuid.UUID) (*model.Clinic, error)
	Statistics(ctx context.Context, scope model.Scope, id uuid.UUID) (*model.ClinicStatistics, error)
}

type Service struct {
	repo    repository.ClinicRepository
	auditor *audit.Service
	stats   *gocache.Cache
}

func NewService(repo repository.ClinicRepository, auditor *audit.Service) *Service {
	return &Service{
		repo:    repo,
		auditor: auditor,
		stats:   gocache.New(statsCacheTTL, statsCacheCleanup),
	}
}

func (s *Service) Create(ctx context.Context, scope model.Scope, req *model.CreateClinicRequest) (*model.Clinic, error) {
	if err := policy.Require(scope, policy.ResourceClinic, policy.ActionCreate); err != nil {
		return nil, err
	}

	taken, err := s.repo.NameExists(ctx, req.Name, uuid.Nil)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if taken {
		return nil, errors.Validation("name", "a clinic with this name already exists")
	}

	clinic := &model.Clinic{
		Name:          req.Name,
		ContactNumber: req.ContactNumber,
		Address:       req.Address,
		Description:   req.Description,
		IsActive:      true,
	}
	if err := s.repo.Create(ctx, clinic); err != nil {
		return nil, errors.Internal(err)
	}

	s.auditor.Record(ctx, scope, "create", "clinic", clinic.ID, clinic)
	return clinic, nil
}

func (s *Service) Get(ctx context.Context, scope model.Scope, id uuid.UUID) (*model.Clinic, error) {
	clinic, err := s.repo.Get(ctx, scope, id, model.ScopeActive)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if clinic == nil {
		return nil, errors.NotFound("clinic")
	}
	return clinic, nil
}

func (s *Service) List(ctx context.Context, scope model.Scope, filters *model.ClinicFilters) ([]*model.Clinic, int, error) {
	clinics, total, err := s.repo.List(ctx, scope, filters)
	if err != nil {
		return nil, 0, errors.Internal(err)
	}
	return clinics, total, nil
}

func (s *Service) Update(ctx context.Context, scope model.Scope, id uuid.UUID, req *model.UpdateClinicRequest) (*model.Clinic, error) {
	if err := policy.Require(scope, policy.ResourceClinic, policy.ActionUpdate); err != nil {
		return nil, err
	}
	clinic, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != clinic.Name {
		taken, err := s.repo.NameExists(ctx, *req.Name, clinic.ID)
		if err != nil {
			return nil, errors.Internal(err)
		}
		if taken {
			return nil, errors.Validation("name", "a clinic with this name already exists")
		}
		clinic.Name = *req.Name
	}
	if req.ContactNumber != nil {
		clinic.ContactNumber = *req.ContactNumber
	}
	if req.Address != nil {
		clinic.Address = *req.Address
	}
	if req.Description != nil {
		clinic.Description = req.Description
	}
	if req.IsActive != nil {
		clinic.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, clinic); err != nil {
		return nil, errors.Internal(err)
	}

	s.stats.Delete(id.String())
	s.auditor.Record(ctx, scope, "update", "clinic", clinic.ID, req)
	return clinic, nil
}

// Delete soft-deletes the clinic only. Its users, patients and treatments
// stay untouched and become unreachable through tenant-scoped queries until
// the clinic is restored.
func (s *Service) Delete(ctx context.Context, scope model.Scope, id uuid.UUID) error {
	if err := policy.Require(scope, policy.ResourceClinic, policy.ActionDelete); err != nil {
		return err
	}
	if _, err := s.Get(ctx, scope, id); err != nil {
		return err
	}

	if err := s.repo.SetDeleted(ctx, id, true); err != nil {
		return errors.Internal(err)
	}

	s.stats.Delete(id.String())
	s.auditor.Record(ctx, scope, "delete", "clinic", id, nil)
	return nil
}

func (s *Service) Restore(ctx context.Context, scope model.Scope, id uuid.UUID) (*model.Clinic, error) {
	if err := policy.Require(scope, policy.ResourceClinic, policy.ActionRestore); err != nil {
		return nil, err
	}

	deleted, err := s.repo.Get(ctx, scope, id, model.ScopeDeleted)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if deleted == nil {
		return nil, errors.NotFound("clinic")
	}

	if err := s.repo.SetDeleted(ctx, id, false); err != nil {
		return nil, errors.Internal(err)
	}

	s.auditor.Record(ctx, scope, "restore", "clinic", id, nil)
	return s.Get(ctx, scope, id)
}

func (s *Service) Statistics(ctx context.Context, scope model.Scope, id uuid.UUID) (*model.ClinicStatistics, error) {
	clinic, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	if cached, ok := s.stats.Get(id.String()); ok {
		return cached.(*model.ClinicStatistics), nil
	}

	stats, err := s.repo.Statistics(ctx, id)
	if err != nil {
		return nil, errors.Internal(err)
	}
	stats.IsActive = clinic.IsActive

	s.stats.SetDefault(id.String(), stats)
	return stats, nil
}
