package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

type CreateServiceRequest struct {
	Name  string          `json:"name" validate:"required,min=2"`
	Price decimal.Decimal `json:"price" validate:"required"`
}

type UpdateServiceRequest struct {
	Name  string          `json:"name" validate:"required,min=2"`
	Price decimal.Decimal `json:"price" validate:"required"`
}

// Response DTOs

type ServiceResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	SyncPending bool            `json:"sync_pending,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type ServiceListResponse struct {
	Services  []ServiceResponse `json:"services"`
	Total     int               `json:"total"`
	FromCache bool              `json:"from_cache,omitempty"`
}
