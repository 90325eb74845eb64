package repository

import (
	"context"
	"time"

	"dental-clinic-api/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InvoiceRepository interface {
	// CreateWithPatient persists the invoice and the patient's updated
	// last-visit/total-spent fields as a single transaction. Either both
	// land in the store or neither does.
	CreateWithPatient(ctx context.Context, invoice *entity.Invoice, patient *entity.Patient) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error)
	FindByPatientID(ctx context.Context, patientID uuid.UUID) ([]entity.Invoice, error)
	// DeleteByPatientID removes all invoices of a patient; the cascade step
	// of patient deletion.
	DeleteByPatientID(ctx context.Context, patientID uuid.UUID) error
	CountSince(ctx context.Context, since time.Time) (int64, error)
	RevenueSince(ctx context.Context, since time.Time) (decimal.Decimal, error)
}
