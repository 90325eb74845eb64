package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

type CreatePatientRequest struct {
	Name       string  `json:"name" validate:"required,min=2"`
	LastName   string  `json:"lastname" validate:"required,min=2"`
	Birthdate  string  `json:"birthdate" validate:"required,datetime=2006-01-02"`
	NationalID *string `json:"national_id,omitempty"`
	Email      *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone      *string `json:"phone,omitempty"`
}

type UpdatePatientRequest struct {
	Name       string  `json:"name" validate:"required,min=2"`
	LastName   string  `json:"lastname" validate:"required,min=2"`
	Birthdate  string  `json:"birthdate" validate:"required,datetime=2006-01-02"`
	NationalID *string `json:"national_id,omitempty"`
	Email      *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone      *string `json:"phone,omitempty"`
}

// Response DTOs

type PatientResponse struct {
	ID          uuid.UUID       `json:"id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	LastName    string          `json:"lastname"`
	Birthdate   string          `json:"birthdate,omitempty"`
	Age         int             `json:"age"`
	NationalID  *string         `json:"national_id,omitempty"`
	Email       *string         `json:"email,omitempty"`
	Phone       *string         `json:"phone,omitempty"`
	LastVisit   *time.Time      `json:"last_visit,omitempty"`
	TotalSpent  decimal.Decimal `json:"total_spent"`
	SyncPending bool            `json:"sync_pending,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type PatientListResponse struct {
	Patients  []PatientResponse `json:"patients"`
	Total     int               `json:"total"`
	FromCache bool              `json:"from_cache,omitempty"`
}
