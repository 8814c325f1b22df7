package model

import "github.com/google/uuid"

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Email                  string    `json:"email" binding:"required,email"`
	Password               string    `json:"password" binding:"required,min=8"`
	PasswordConfirm        string    `json:"password_confirm" binding:"required,eqfield=Password"`
	FirstName              string    `json:"first_name" binding:"required,max=150"`
	LastName               string    `json:"last_name" binding:"required,max=150"`
	ContactNumber          string    `json:"contact_number" binding:"required,phone"`
	ClinicID               uuid.UUID `json:"clinic_id" binding:"required"`
	Role                   Role      `json:"role" binding:"required,oneof=ADMIN DOCTOR"`
	Degree                 *string   `json:"degree"`
	SecondaryContactNumber *string   `json:"secondary_contact_number" binding:"omitempty,phone"`
	Address                *string   `json:"address"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh" binding:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh"`
}

type ChangePasswordRequest struct {
	OldPassword        string `json:"old_password" binding:"required"`
	NewPassword        string `json:"new_password" binding:"required,min=8"`
	NewPasswordConfirm string `json:"new_password_confirm" binding:"required,eqfield=NewPassword"`
}

type UpdateProfileRequest struct {
	FirstName              *string `json:"first_name" binding:"omitempty,max=150"`
	LastName               *string `json:"last_name" binding:"omitempty,max=150"`
	ContactNumber          *string `json:"contact_number" binding:"omitempty,phone"`
	SecondaryContactNumber *string `json:"secondary_contact_number" binding:"omitempty,phone"`
	Address                *string `json:"address"`
	Degree                 *string `json:"degree"`
}

// TokenPair is returned on login and refresh, alongside the user payload.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type LoginResponse struct {
	User    *User  `json:"user"`
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}
