package model

import (
	"strings"

	"github.com/google/uuid"
)

// User represents a clinic staff account (admin or doctor). Patients are
// standalone records without credentials, see Patient.
type User struct {
	Base
	AuditFields
	Email                  string     `json:"email" db:"email"`
	PasswordHash           string     `json:"-" db:"password_hash"`
	FirstName              string     `json:"first_name" db:"first_name"`
	LastName               string     `json:"last_name" db:"last_name"`
	ClinicID               *uuid.UUID `json:"clinic_id" db:"clinic_id"`
	Role                   Role       `json:"role" db:"role"`
	ContactNumber          *string    `json:"contact_number" db:"contact_number"`
	SecondaryContactNumber *string    `json:"secondary_contact_number" db:"secondary_contact_number"`
	Address                *string    `json:"address" db:"address"`
	Degree                 *string    `json:"degree" db:"degree"`
	IsActive               bool       `json:"is_active" db:"is_active"`
	IsSuperuser            bool       `json:"is_superuser" db:"is_superuser"`
}

// FullName returns "First Last", falling back to the email when both names
// are empty.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// Scope derives the caller scope carried in tokens and request context.
func (u *User) Scope() Scope {
	s := Scope{
		UserID:    u.ID,
		Role:      u.Role,
		Superuser: u.IsSuperuser,
	}
	if u.ClinicID != nil {
		s.ClinicID = *u.ClinicID
	}
	return s
}

type CreateUserRequest struct {
	Email                  string  `json:"email" binding:"required,email"`
	Password               string  `json:"password" binding:"required,min=8"`
	FirstName              string  `json:"first_name" binding:"required,max=150"`
	LastName               string  `json:"last_name" binding:"required,max=150"`
	Role                   Role    `json:"role" binding:"required,oneof=ADMIN DOCTOR"`
	ContactNumber          string  `json:"contact_number" binding:"required,phone"`
	SecondaryContactNumber *string `json:"secondary_contact_number" binding:"omitempty,phone"`
	Address                *string `json:"address"`
	Degree                 *string `json:"degree"`
}

// UpdateUserRequest deliberately omits clinic_id: clinic assignment is
// immutable after creation.
type UpdateUserRequest struct {
	FirstName              *string `json:"first_name" binding:"omitempty,max=150"`
	LastName               *string `json:"last_name" binding:"omitempty,max=150"`
	Role                   *Role   `json:"role" binding:"omitempty,oneof=ADMIN DOCTOR"`
	ContactNumber          *string `json:"contact_number" binding:"omitempty,phone"`
	SecondaryContactNumber *string `json:"secondary_contact_number" binding:"omitempty,phone"`
	Address                *string `json:"address"`
	Degree                 *string `json:"degree"`
	IsActive               *bool   `json:"is_active"`
}

type UserFilters struct {
	Pagination
	Role       Role   `form:"role"`
	IsActive   *bool  `form:"is_active"`
	SearchTerm string `form:"search"`
}
