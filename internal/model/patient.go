package model

import (
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale         Gender = "MALE"
	GenderFemale       Gender = "FEMALE"
	GenderOther        Gender = "OTHER"
	GenderNotSpecified Gender = "NOT_SPECIFIED"
)

// Patient is a standalone clinical record scoped to a clinic. Patients do
// not log in; they are managed by clinic staff.
type Patient struct {
	Base
	AuditFields
	ClinicID               uuid.UUID  `db:"clinic_id" json:"clinic_id"`
	FirstName              string     `db:"first_name" json:"first_name"`
	LastName               string     `db:"last_name" json:"last_name"`
	Email                  string     `db:"email" json:"email"`
	ContactNumber          *string    `db:"contact_number" json:"contact_number"`
	SecondaryContactNumber *string    `db:"secondary_contact_number" json:"secondary_contact_number"`
	Address                *string    `db:"address" json:"address"`
	Gender                 *Gender    `db:"gender" json:"gender"`
	DateOfBirth            *time.Time `db:"date_of_birth" json:"date_of_birth"`
	AssignedDoctorID       *uuid.UUID `db:"assigned_doctor_id" json:"assigned_doctor_id"`
	ClinicalHistory        *string    `db:"clinical_history" json:"clinical_history"`
	Allergies              *string    `db:"allergies" json:"allergies"`
	Notes                  *string    `db:"notes" json:"notes"`
	IsActive               bool       `db:"is_active" json:"is_active"`

	// Joined, not stored.
	DoctorName *string `db:"doctor_name" json:"doctor_name,omitempty"`
	ClinicName string  `db:"clinic_name" json:"clinic_name,omitempty"`
}

// Age computes the patient's age in full years, nil without a birth date.
func (p *Patient) Age(now time.Time) *int {
	if p.DateOfBirth == nil {
		return nil
	}
	dob := *p.DateOfBirth
	years := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	return &years
}

// PatientDetail is the retrieve representation with computed fields and the
// patient's non-deleted treatments.
type PatientDetail struct {
	Patient
	Age                   *int         `json:"age"`
	ActiveTreatmentsCount int          `json:"active_treatments_count"`
	Treatments            []*Treatment `json:"treatments"`
}

// MedicalSummary is the compact clinical view used by the
// medical-summary endpoint.
type MedicalSummary struct {
	Age             *int    `json:"age"`
	Gender          *Gender `json:"gender"`
	ClinicalHistory *string `json:"clinical_history"`
	Allergies       *string `json:"allergies"`
}

type CreatePatientRequest struct {
	FirstName              string     `json:"first_name" binding:"required,max=100"`
	LastName               string     `json:"last_name" binding:"required,max=100"`
	Email                  string     `json:"email" binding:"required,email"`
	ContactNumber          *string    `json:"contact_number" binding:"omitempty,phone"`
	SecondaryContactNumber *string    `json:"secondary_contact_number" binding:"omitempty,phone"`
	Address                *string    `json:"address"`
	Gender                 *Gender    `json:"gender" binding:"omitempty,oneof=MALE FEMALE OTHER NOT_SPECIFIED"`
	DateOfBirth            *time.Time `json:"date_of_birth"`
	AssignedDoctorID       *uuid.UUID `json:"assigned_doctor_id"`
	ClinicalHistory        *string    `json:"clinical_history"`
	Allergies              *string    `json:"allergies"`
	Notes                  *string    `json:"notes"`
}

type UpdatePatientRequest struct {
	FirstName              *string    `json:"first_name" binding:"omitempty,max=100"`
	LastName               *string    `json:"last_name" binding:"omitempty,max=100"`
	Email                  *string    `json:"email" binding:"omitempty,email"`
	ContactNumber          *string    `json:"contact_number" binding:"omitempty,phone"`
	SecondaryContactNumber *string    `json:"secondary_contact_number" binding:"omitempty,phone"`
	Address                *string    `json:"address"`
	Gender                 *Gender    `json:"gender" binding:"omitempty,oneof=MALE FEMALE OTHER NOT_SPECIFIED"`
	DateOfBirth            *time.Time `json:"date_of_birth"`
	AssignedDoctorID       *uuid.UUID `json:"assigned_doctor_id"`
	ClinicalHistory        *string    `json:"clinical_history"`
	Allergies              *string    `json:"allergies"`
	Notes                  *string    `json:"notes"`
	IsActive               *bool      `json:"is_active"`
}

type AssignDoctorRequest struct {
	DoctorID uuid.UUID `json:"doctor_id" binding:"required"`
}

type PatientFilters struct {
	Pagination
	Gender           Gender     `form:"gender"`
	AssignedDoctorID *uuid.UUID `form:"assigned_doctor_id"`
	IsActive         *bool      `form:"is_active"`
	SearchTerm       string     `form:"search"`
}
