package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

type InvoiceLineRequest struct {
	ServiceID uuid.UUID `json:"service_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"omitempty,gte=1"`
}

type GenerateInvoiceRequest struct {
	PatientID uuid.UUID            `json:"patient_id" validate:"required"`
	Lines     []InvoiceLineRequest `json:"lines" validate:"required,min=1,dive"`
	Discount  decimal.Decimal      `json:"discount"`
	ApplyTax  bool                 `json:"apply_tax"`
}

type EmailInvoiceRequest struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Response DTOs

type InvoiceLineResponse struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Total    decimal.Decimal `json:"total"`
}

type InvoiceResponse struct {
	ID          uuid.UUID             `json:"id"`
	PatientID   *uuid.UUID            `json:"patient_id,omitempty"`
	PatientCode string                `json:"patient_code"`
	PatientName string                `json:"patient_name"`
	Lines       []InvoiceLineResponse `json:"lines"`
	Subtotal    decimal.Decimal       `json:"subtotal"`
	Discount    decimal.Decimal       `json:"discount"`
	Tax         decimal.Decimal       `json:"tax"`
	Total       decimal.Decimal       `json:"total"`
	SyncPending bool                  `json:"sync_pending,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
}

type InvoiceListResponse struct {
	Invoices []InvoiceResponse `json:"invoices"`
	Total    int               `json:"total"`
}

type StatsResponse struct {
	TotalPatients    int64           `json:"total_patients"`
	TotalServices    int64           `json:"total_services"`
	InvoicesToday    int64           `json:"invoices_today"`
	RevenueThisMonth decimal.Decimal `json:"revenue_this_month"`
	PendingSync      int64           `json:"pending_sync"`
}
