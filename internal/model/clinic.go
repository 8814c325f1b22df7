package model

type Clinic struct {
	Base
	Name          string  `db:"name" json:"name"`
	ContactNumber string  `db:"contact_number" json:"contact_number"`
	Address       string  `db:"address" json:"address"`
	Description   *string `db:"description" json:"description,omitempty"`
	IsActive      bool    `db:"is_active" json:"is_active"`
}

// ClinicStatistics summarizes the active population of a clinic.
type ClinicStatistics struct {
	TotalUsers       int  `db:"total_users" json:"total_users"`
	TotalDoctors     int  `db:"total_doctors" json:"total_doctors"`
	TotalPatients    int  `db:"total_patients" json:"total_patients"`
	ActiveTreatments int  `db:"active_treatments" json:"active_treatments"`
	IsActive         bool `json:"is_active"`
}

type CreateClinicRequest struct {
	Name          string  `json:"name" binding:"required,max=255"`
	ContactNumber string  `json:"contact_number" binding:"required,phone"`
	Address       string  `json:"address" binding:"required"`
	Description   *string `json:"description"`
}

type UpdateClinicRequest struct {
	Name          *string `json:"name" binding:"omitempty,max=255"`
	ContactNumber *string `json:"contact_number" binding:"omitempty,phone"`
	Address       *string `json:"address"`
	Description   *string `json:"description"`
	IsActive      *bool   `json:"is_active"`
}

type ClinicFilters struct {
	Pagination
	IsActive   *bool  `form:"is_active"`
	SearchTerm string `form:"search"`
}
