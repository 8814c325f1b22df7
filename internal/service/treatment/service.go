package treatment

import (
	"context"
	"mime/multipart"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/policy"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/audit"
	"github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
	"github.com/jwalitptl/clinic-api/pkg/upload"
)

type TreatmentService interface {
	Create(ctx context.Context, scope model.Scope, req *model.CreateTreatmentRequest) (*model.TreatmentView, error)
	Get(ctx context.Context, scope model.Scope, id uuid.UUID) (*model.TreatmentView, error)
	List(ctx context.Context, scope model.Scope, filters *model.TreatmentFilters) ([]*model.TreatmentView, int, error)
	Update(ctx context.Context, scope model.Scope, id uuid.UUID, req *model.UpdateTreatmentRequest) (*model.TreatmentView, error)
	Delete(ctx context.Context, scope model.Scope, id uuid.UUID) error
	Restore(ctx context.Context, scope model.Scope, id uuid.UUID) (*model.TreatmentView, error)
	MarkCompleted(ctx context.Context, scope model.Scope, id uuid.UUID) (*model.TreatmentView, error)
	MarkCancelled(ctx context.Context, scope model.Scope, id uuid.UUID) (*model.TreatmentView, error)
	Upcoming(ctx context.Context, scope model.Scope, filters *model.TreatmentFilters) ([]*model.TreatmentView, int, error)
	Overdue(ctx context.Context, scope model.Scope, filters *model.TreatmentFilters) ([]*model.TreatmentView, int, error)
	SaveImage(fh *multipart.FileHeader) (string, error)
}

type Service struct {
	repo     repository.TreatmentRepository
	patients repository.PatientRepository
	users    repository.UserRepository
	images   *upload.ImageStore
	auditor  *audit.Service
	metrics  *metrics.Metrics
}

func NewService(
	repo repository.TreatmentRepository,
	patients repository.PatientRepository,
	users repository.UserRepository,
	images *upload.ImageStore,
	auditor *audit.Service,
	m *metrics.Metrics,
) *Service {
	return &Service{
		repo:     repo,
		patients: patients,
		users:    users,
		images:   images,
		auditor:  auditor,
		metrics:  m,
	}
}

func (s *Service) validateDoctor(ctx context.Context, scope model.Scope, doctorID uuid.UUID) error {
	doctor, err := s.users.Get(ctx, scope, doctorID, model.ScopeActive)
	if err != nil {
		return errors.Internal(err)
	}
	if doctor == nil {
		return errors.Validation("doctor", "doctor not found in your clinic")
	}
	if doctor.Role != model.RoleDoctor {
		return errors.Validation("doctor", "assigned user is not a doctor")
	}
	if !doctor.IsActive {
		return errors.Validation("doctor", "doctor is not active")
	}
	return nil
}

// SaveImage stores a multipart treatment image and returns its relative path.
func (s *Service) SaveImage(fh *multipart.FileHeader) (string, error) {
	path, err := s.images.SaveMultipart(fh)
	if err != nil {
		s.metrics.UploadsProcessed.WithLabelValues("failure").Inc()
		return "", errors.Validation("image", err.Error())
	}
	s.metrics.UploadsProcessed.WithLabelValues("success").Inc()
	return path, nil
}

func (s *Service) saveDataURI(uri string) (*string, error) {
	path, err := s.images.SaveDataURI(uri)
	if err != nil {
		s.metrics.UploadsProcessed.WithLabelValues("failure").Inc()
		return nil, errors.Validation("image", err.Error())
	}
	s.metrics.UploadsProcessed.WithLabelValues("success").Inc()
	return &path, nil
}

func (s *Service) Create(ctx context.Context, scope model.Scope, req *model.CreateTreatmentRequest) (*model.TreatmentView, error) {
	if err := policy.Require(scope, policy.ResourceTreatment, policy.ActionCreate); err != nil {
		return nil, err
	}
	if !scope.HasClinic() {
		return nil, errors.BadRequest("no_clinic", "caller has no clinic to create treatments in")
	}

	patient, err := s.patients.Get(ctx, scope, req.PatientID, model.ScopeActive)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if patient == nil {
		return nil, errors.Validation("patient", "patient not found in your clinic")
	}

	doctorID := req.DoctorID
	if doctorID == nil && scope.Role == model.RoleDoctor {
		id := scope.UserID
		doctorID = &id
	}
	if doctorID != nil {
		if err := s.validateDoctor(ctx, scope, *doctorID); err != nil {
			return nil, err
		}
	}

	status := req.Status
	if status == "" {
		status = model.TreatmentStatusScheduled
	}

	imagePath := req.ImagePath
	if imagePath == nil && req.Image != nil && *req.Image != "" {
		if imagePath, err = s.saveDataURI(*req.Image); err != nil {
			return nil, err
		}
	}

	actorID := scope.UserID
	treatment := &model.Treatment{
		ClinicID:             scope.ClinicID,
		PatientID:            req.PatientID,
		DoctorID:             doctorID,
		TreatmentType:        req.TreatmentType,
		TreatmentInformation: req.TreatmentInformation,
		TreatmentFindings:    req.TreatmentFindings,
		ImagePath:            imagePath,
		NextVisitDate:        req.NextVisitDate,
		Status:               status,
	}
	treatment.CreatedBy = &actorID
	treatment.UpdatedBy = &actorID

	if err := s.repo.Create(ctx, treatment); err != nil {
		return nil, errors.Internal(err)
	}

	s.auditor.Record(ctx, scope, "create", "treatment", treatment.ID, treatment)
	return model.NewTreatmentView(treatment, time.Now()), nil
}

func (s *Service) get(ctx context.Context, scope model.Scope, id uuid.UUID) (*model.Treatment, error) {
	treatment, err := s.repo.Get(ctx, scope, id, model.ScopeActive)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if treatment == nil {
		return nil, errors.NotFound("treatment")
	}
	return treatment, nil
}

func (s *Service) Get(ctx context.Context, scope model.Scope, id uuid.UUID) (*model.TreatmentView, error) {
	treatment, err := s.get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	return model.NewTreatmentView(treatment, time.Now()), nil
}

func (s *Service) List(ctx context.Context, scope model.Scope, filters *model.TreatmentFilters) ([]*model.TreatmentView, int, error) {
	treatments, total, err := s.repo.List(ctx, scope, filters)
	if err != nil {
		return nil, 0, errors.Internal(err)
	}
	now := time.Now()
	views := make([]*model.TreatmentView, len(treatments))
	for i, t := range treatments {
		views[i] = model.NewTreatmentView(t, now)
	}
	return views, total, nil
}

func (s *Service) Update(ctx context.Context, scope model.Scope, id uuid.UUID, req *model.UpdateTreatmentRequest) (*model.TreatmentView, error) {
	if err := policy.Require(scope, policy.ResourceTreatment, policy.ActionUpdate); err != nil {
		return nil, err
	}
	treatment, err := s.get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanModifyTreatment(scope, treatment); err != nil {
		return nil, err
	}

	if req.DoctorID != nil {
		if err := s.validateDoctor(ctx, scope, *req.DoctorID); err != nil {
			return nil, err
		}
		treatment.DoctorID = req.DoctorID
	}
	if req.TreatmentInformation != nil {
		treatment.TreatmentInformation = *req.TreatmentInformation
	}
	if req.TreatmentFindings != nil {
		treatment.TreatmentFindings = req.TreatmentFindings
	}
	if req.NextVisitDate != nil {
		treatment.NextVisitDate = req.NextVisitDate
	}
	if req.Status != nil {
		treatment.Status = *req.Status
	}
	if req.ImagePath != nil {
		treatment.ImagePath = req.ImagePath
	} else if req.Image != nil && *req.Image != "" {
		imagePath, err := s.saveDataURI(*req.Image)
		if err != nil {
			return nil, err
		}
		treatment.ImagePath = imagePath
	}
	actorID := scope.UserID
	treatment.UpdatedBy = &actorID

	if err := s.repo.Update(ctx, treatment); err != nil {
		return nil, errors.Internal(err)
	}

	s.auditor.Record(ctx, scope, "update", "treatment", treatment.ID, req)
	return model.NewTreatmentView(treatment, time.Now()), nil
}

func (s *Service) Delete(ctx context.Context, scope model.Scope, id uuid.UUID) error {
	if err := policy.Require(scope, policy.ResourceTreatment, policy.ActionDelete); err != nil {
		return err
	}
	treatment, err := s.get(ctx, scope, id)
	if err != nil {
		return err
	}
	if err := policy.CanModifyTreatment(scope, treatment); err != nil {
		return err
	}

	if err := s.repo.SetDeleted(ctx, id, scope.UserID, true); err != nil {
		return errors.Internal(err)
	}

	s.auditor.Record(ctx, scope, "delete", "treatment", id, nil)
	return nil
}

func (s *Service) Restore(ctx context.Context, scope model.Scope, id uuid.UUID) (*model.TreatmentView, error) {
	if err := policy.Require(scope, policy.ResourceTreatment, policy.ActionRestore); err != nil {
		return nil, err
	}

	deleted, err := s.repo.Get(ctx, scope, id, model.ScopeDeleted)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if deleted == nil {
		return nil, errors.NotFound("treatment")
	}

	if err := s.repo.SetDeleted(ctx, id, scope.UserID, false); err != nil {
		return nil, errors.Internal(err)
	}

	s.auditor.Record(ctx, scope, "restore", "treatment", id, nil)
	return s.Get(ctx, scope, id)
}

func (s *Service) setStatus(ctx context.Context, scope model.Scope, id uuid.UUID, status model.TreatmentStatus, action string) (*model.TreatmentView, error) {
	if err := policy.Require(scope, policy.ResourceTreatment, policy.ActionUpdate); err != nil {
		return nil, err
	}
	treatment, err := s.get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanModifyTreatment(scope, treatment); err != nil {
		return nil, err
	}
	if treatment.Status == model.TreatmentStatusCompleted || treatment.Status == model.TreatmentStatusCancelled {
		return nil, errors.BadRequest("invalid_status_transition",
			"treatment is already "+string(treatment.Status))
	}

	if err := s.repo.UpdateStatus(ctx, id, status, scope.UserID); err != nil {
		return nil, errors.Internal(err)
	}
	treatment.Status = status

	s.auditor.Record(ctx, scope, action, "treatment", id, nil)
	return model.NewTreatmentView(treatment, time.Now()), nil
}

func (s *Service) MarkCompleted(ctx context.Context, scope model.Scope, id uuid.UUID) (*model.TreatmentView, error) {
	return s.setStatus(ctx, scope, id, model.TreatmentStatusCompleted, "mark_completed")
}

func (s *Service) MarkCancelled(ctx context.Context, scope model.Scope, id uuid.UUID) (*model.TreatmentView, error) {
	return s.setStatus(ctx, scope, id, model.TreatmentStatusCancelled, "mark_cancelled")
}

// Upcoming lists treatments whose next visit lies in the future.
func (s *Service) Upcoming(ctx context.Context, scope model.Scope, filters *model.TreatmentFilters) ([]*model.TreatmentView, int, error) {
	now := time.Now()
	filters.NextVisitAfter = &now
	return s.List(ctx, scope, filters)
}

// Overdue lists ongoing treatments whose next visit has passed.
func (s *Service) Overdue(ctx context.Context, scope model.Scope, filters *model.TreatmentFilters) ([]*model.TreatmentView, int, error) {
	now := time.Now()
	filters.Status = model.TreatmentStatusOngoing
	filters.NextVisitUntil = &now
	return s.List(ctx, scope, filters)
}
