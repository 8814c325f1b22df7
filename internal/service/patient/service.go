package patient

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/policy"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/audit"
	"github.com/jwalitptl/clinic-api/pkg/errors"
)

type PatientService interface {
	Create(ctx context.Context, scope model.Scope, req *model.CreatePatientRequest) (*model.Patient, error)
	Get(ctx context.Context, scope model.Scope, id uuid.UUID) (*model.PatientDetail, error)
	List(ctx context.Context, scope model.Scope, filters *model.PatientFilters) ([]*model.Patient, int, error)
	Update(ctx context.Context, scope model.Scope, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error)
	Delete(ctx context.Context, scope model.Scope, id uuid.UUID) error
	Restore(ctx context.Context, scope model.Scope, id uuid.UUID) (*model.Patient, error)
	AssignDoctor(ctx context.Context, scope model.Scope, id uuid.UUID, req *model.AssignDoctorRequest) (*model.Patient, error)
	MedicalSummary(ctx context.Context, scope model.Scope, id uuid.UUID) (*model.MedicalSummary, error)
}

type Service struct {
	repo       repository.PatientRepository
	users      repository.UserRepository
	treatments repository.TreatmentRepository
	auditor    *audit.Service
}

func NewService(
	repo repository.PatientRepository,
	users repository.UserRepository,
	treatments repository.TreatmentRepository,
	auditor *audit.Service,
) *Service {
	return &Service{
		repo:       repo,
		users:      users,
		treatments: treatments,
		auditor:    auditor,
	}
}

// validateDoctor checks that the assigned doctor is an active doctor in the
// caller's clinic. The scoped lookup already hides other clinics' users, so
// a cross-clinic assignment surfaces as "not found".
func (s *Service) validateDoctor(ctx context.Context, scope model.Scope, doctorID uuid.UUID) error {
	doctor, err := s.users.Get(ctx, scope, doctorID, model.ScopeActive)
	if err != nil {
		return errors.Internal(err)
	}
	if doctor == nil {
		return errors.Validation("assigned_doctor", "doctor not found in your clinic")
	}
	if doctor.Role != model.RoleDoctor {
		return errors.Validation("assigned_doctor", "assigned user is not a doctor")
	}
	if !doctor.IsActive {
		return errors.Validation("assigned_doctor", "doctor is not active")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, scope model.Scope, req *model.CreatePatientRequest) (*model.Patient, error) {
	if err := policy.Require(scope, policy.ResourcePatient, policy.ActionCreate); err != nil {
		return nil, err
	}
	if !scope.HasClinic() {
		return nil, errors.BadRequest("no_clinic", "caller has no clinic to create patients in")
	}

	assignedDoctor := req.AssignedDoctorID
	if assignedDoctor == nil && scope.Role == model.RoleDoctor {
		// A doctor creating a patient becomes the assigned doctor.
		doctorID := scope.UserID
		assignedDoctor = &doctorID
	}
	if assignedDoctor != nil {
		if err := s.validateDoctor(ctx, scope, *assignedDoctor); err != nil {
			return nil, err
		}
	}

	actorID := scope.UserID
	patient := &model.Patient{
		ClinicID:               scope.ClinicID,
		FirstName:              req.FirstName,
		LastName:               req.LastName,
		Email:                  req.Email,
		ContactNumber:          req.ContactNumber,
		SecondaryContactNumber: req.SecondaryContactNumber,
		Address:                req.Address,
		Gender:                 req.Gender,
		DateOfBirth:            req.DateOfBirth,
		AssignedDoctorID:       assignedDoctor,
		ClinicalHistory:        req.ClinicalHistory,
		Allergies:              req.Allergies,
		Notes:                  req.Notes,
		IsActive:               true,
	}
	patient.CreatedBy = &actorID
	patient.UpdatedBy = &actorID

	if err := s.repo.Create(ctx, patient); err != nil {
		return nil, errors.Internal(err)
	}

	s.auditor.Record(ctx, scope, "create", "patient", patient.ID, patient)
	return patient, nil
}

func (s *Service) get(ctx context.Context, scope model.Scope, id uuid.UUID) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, scope, id, model.ScopeActive)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if patient == nil {
		return nil, errors.NotFound("patient")
	}
	return patient, nil
}

func (s *Service) Get(ctx context.Context, scope model.Scope, id uuid.UUID) (*model.PatientDetail, error) {
	patient, err := s.get(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	treatments, err := s.treatments.ListByPatient(ctx, scope, id)
	if err != nil {
		return nil, errors.Internal(err)
	}
	activeCount, err := s.repo.CountActiveTreatments(ctx, id)
	if err != nil {
		return nil, errors.Internal(err)
	}

	return &model.PatientDetail{
		Patient:               *patient,
		Age:                   patient.Age(time.Now()),
		ActiveTreatmentsCount: activeCount,
		Treatments:            treatments,
	}, nil
}

func (s *Service) List(ctx context.Context, scope model.Scope, filters *model.PatientFilters) ([]*model.Patient, int, error) {
	patients, total, err := s.repo.List(ctx, scope, filters)
	if err != nil {
		return nil, 0, errors.Internal(err)
	}
	return patients, total, nil
}

func (s *Service) Update(ctx context.Context, scope model.Scope, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error) {
	if err := policy.Require(scope, policy.ResourcePatient, policy.ActionUpdate); err != nil {
		return nil, err
	}
	patient, err := s.get(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	if req.AssignedDoctorID != nil {
		if err := s.validateDoctor(ctx, scope, *req.AssignedDoctorID); err != nil {
			return nil, err
		}
		patient.AssignedDoctorID = req.AssignedDoctorID
	}
	if req.FirstName != nil {
		patient.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		patient.LastName = *req.LastName
	}
	if req.Email != nil {
		patient.Email = *req.Email
	}
	if req.ContactNumber != nil {
		patient.ContactNumber = req.ContactNumber
	}
	if req.SecondaryContactNumber != nil {
		patient.SecondaryContactNumber = req.SecondaryContactNumber
	}
	if req.Address != nil {
		patient.Address = req.Address
	}
	if req.Gender != nil {
		patient.Gender = req.Gender
	}
	if req.DateOfBirth != nil {
		patient.DateOfBirth = req.DateOfBirth
	}
	if req.ClinicalHistory != nil {
		patient.ClinicalHistory = req.ClinicalHistory
	}
	if req.Allergies != nil {
		patient.Allergies = req.Allergies
	}
	if req.Notes != nil {
		patient.Notes = req.Notes
	}
	if req.IsActive != nil {
		patient.IsActive = *req.IsActive
	}
	actorID := scope.UserID
	patient.UpdatedBy = &actorID

	if err := s.repo.Update(ctx, patient); err != nil {
		return nil, errors.Internal(err)
	}

	s.auditor.Record(ctx, scope, "update", "patient", patient.ID, req)
	return patient, nil
}

func (s *Service) Delete(ctx context.Context, scope model.Scope, id uuid.UUID) error {
	if err := policy.Require(scope, policy.ResourcePatient, policy.ActionDelete); err != nil {
		return err
	}
	if _, err := s.get(ctx, scope, id); err != nil {
		return err
	}

	if err := s.repo.SetDeleted(ctx, id, scope.UserID, true); err != nil {
		return errors.Internal(err)
	}

	s.auditor.Record(ctx, scope, "delete", "patient", id, nil)
	return nil
}

func (s *Service) Restore(ctx context.Context, scope model.Scope, id uuid.UUID) (*model.Patient, error) {
	if err := policy.Require(scope, policy.ResourcePatient, policy.ActionRestore); err != nil {
		return nil, err
	}

	deleted, err := s.repo.Get(ctx, scope, id, model.ScopeDeleted)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if deleted == nil {
		return nil, errors.NotFound("patient")
	}

	if err := s.repo.SetDeleted(ctx, id, scope.UserID, false); err != nil {
		return nil, errors.Internal(err)
	}

	s.auditor.Record(ctx, scope, "restore", "patient", id, nil)
	return s.get(ctx, scope, id)
}

func (s *Service) AssignDoctor(ctx context.Context, scope model.Scope, id uuid.UUID, req *model.AssignDoctorRequest) (*model.Patient, error) {
	if err := policy.Require(scope, policy.ResourcePatient, policy.ActionUpdate); err != nil {
		return nil, err
	}
	patient, err := s.get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateDoctor(ctx, scope, req.DoctorID); err != nil {
		return nil, err
	}

	doctorID := req.DoctorID
	actorID := scope.UserID
	patient.AssignedDoctorID = &doctorID
	patient.UpdatedBy = &actorID

	if err := s.repo.Update(ctx, patient); err != nil {
		return nil, errors.Internal(err)
	}

	s.auditor.Record(ctx, scope, "assign_doctor", "patient", patient.ID, req)
	return patient, nil
}

func (s *Service) MedicalSummary(ctx context.Context, scope model.Scope, id uuid.UUID) (*model.MedicalSummary, error) {
	patient, err := s.get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	return &model.MedicalSummary{
		Age:             patient.Age(time.Now()),
		Gender:          patient.Gender,
		ClinicalHistory: patient.ClinicalHistory,
		Allergies:       patient.Allergies,
	}, nil
}
