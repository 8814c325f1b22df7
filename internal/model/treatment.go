package model

import (
	"time"

	"github.com/google/uuid"
)

type TreatmentType string

const (
	TreatmentTypeBraces       TreatmentType = "BRACES"
	TreatmentTypeAligners     TreatmentType = "ALIGNERS"
	TreatmentTypeRetainer     TreatmentType = "RETAINER"
	TreatmentTypeExtraction   TreatmentType = "EXTRACTION"
	TreatmentTypeScaling      TreatmentType = "SCALING"
	TreatmentTypeOrthognathic TreatmentType = "ORTHOGNATHIC"
	TreatmentTypeProphylaxis  TreatmentType = "PROPHYLAXIS"
	TreatmentTypeOther        TreatmentType = "OTHER"
)

type TreatmentStatus string

const (
	TreatmentStatusScheduled TreatmentStatus = "SCHEDULED"
	TreatmentStatusOngoing   TreatmentStatus = "ONGOING"
	TreatmentStatusOnHold    TreatmentStatus = "ON_HOLD"
	TreatmentStatusCompleted TreatmentStatus = "COMPLETED"
	TreatmentStatusCancelled TreatmentStatus = "CANCELLED"
)

type Treatment struct {
	Base
	AuditFields
	ClinicID             uuid.UUID       `db:"clinic_id" json:"clinic_id"`
	PatientID            uuid.UUID       `db:"patient_id" json:"patient_id"`
	DoctorID             *uuid.UUID      `db:"doctor_id" json:"doctor_id"`
	TreatmentType        TreatmentType   `db:"treatment_type" json:"treatment_type"`
	TreatmentInformation string          `db:"treatment_information" json:"treatment_information"`
	TreatmentFindings    *string         `db:"treatment_findings" json:"treatment_findings"`
	ImagePath            *string         `db:"image_path" json:"image_path"`
	NextVisitDate        *time.Time      `db:"next_visit_date" json:"next_visit_date"`
	Status               TreatmentStatus `db:"status" json:"status"`

	// Joined, not stored.
	PatientName  string  `db:"patient_name" json:"patient_name,omitempty"`
	PatientEmail string  `db:"patient_email" json:"patient_email,omitempty"`
	DoctorName   *string `db:"doctor_name" json:"doctor_name,omitempty"`
	ClinicName   string  `db:"clinic_name" json:"clinic_name,omitempty"`
}

// IsUpcoming reports whether the next visit lies in the future.
func (t *Treatment) IsUpcoming(now time.Time) bool {
	return t.NextVisitDate != nil && t.NextVisitDate.After(now)
}

// IsOverdue reports whether an ongoing treatment has a next visit in the past.
func (t *Treatment) IsOverdue(now time.Time) bool {
	return t.NextVisitDate != nil && t.NextVisitDate.Before(now) && t.Status == TreatmentStatusOngoing
}

// TreatmentView decorates a treatment with its schedule flags for responses.
type TreatmentView struct {
	*Treatment
	Upcoming bool `json:"is_upcoming"`
	Overdue  bool `json:"is_overdue"`
}

// NewTreatmentView computes the schedule flags as of now.
func NewTreatmentView(t *Treatment, now time.Time) *TreatmentView {
	return &TreatmentView{
		Treatment: t,
		Upcoming:  t.IsUpcoming(now),
		Overdue:   t.IsOverdue(now),
	}
}

type CreateTreatmentRequest struct {
	PatientID            uuid.UUID       `json:"patient_id" form:"patient_id" binding:"required"`
	DoctorID             *uuid.UUID      `json:"doctor_id" form:"doctor_id"`
	TreatmentType        TreatmentType   `json:"treatment_type" form:"treatment_type" binding:"required,oneof=BRACES ALIGNERS RETAINER EXTRACTION SCALING ORTHOGNATHIC PROPHYLAXIS OTHER"`
	TreatmentInformation string          `json:"treatment_information" form:"treatment_information" binding:"required"`
	TreatmentFindings    *string         `json:"treatment_findings" form:"treatment_findings"`
	NextVisitDate        *time.Time      `json:"next_visit_date" form:"next_visit_date"`
	Status               TreatmentStatus `json:"status" form:"status" binding:"omitempty,oneof=SCHEDULED ONGOING ON_HOLD COMPLETED CANCELLED"`

	// Image is an optional base64 data URI. Multipart uploads are stored by
	// the handler, which sets ImagePath instead.
	Image     *string `json:"image" form:"-"`
	ImagePath *string `json:"-" form:"-"`
}

type UpdateTreatmentRequest struct {
	DoctorID             *uuid.UUID       `json:"doctor_id"`
	TreatmentInformation *string          `json:"treatment_information"`
	TreatmentFindings    *string          `json:"treatment_findings"`
	NextVisitDate        *time.Time       `json:"next_visit_date"`
	Status               *TreatmentStatus `json:"status" binding:"omitempty,oneof=SCHEDULED ONGOING ON_HOLD COMPLETED CANCELLED"`
	Image                *string          `json:"image"`
	ImagePath            *string          `json:"-" form:"-"`
}

type TreatmentFilters struct {
	Pagination
	Status         TreatmentStatus `form:"status"`
	TreatmentType  TreatmentType   `form:"treatment_type"`
	PatientID      *uuid.UUID      `form:"patient_id"`
	DoctorID       *uuid.UUID      `form:"doctor_id"`
	NextVisitAfter *time.Time      `form:"next_visit_after" time_format:"2006-01-02"`
	NextVisitUntil *time.Time      `form:"next_visit_until" time_format:"2006-01-02"`
	SearchTerm     string          `form:"search"`
}
