package repository

import (
	"context"
	"errors"
	"time"

	"dental-clinic-api/internal/domain/entity"
	domainRepo "dental-clinic-api/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type invoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) domainRepo.InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) CreateWithPatient(ctx context.Context, invoice *entity.Invoice, patient *entity.Patient) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(invoice).Error; err != nil {
			return err
		}
		return tx.Model(&entity.Patient{}).
			Where("id = ?", patient.ID).
			Updates(map[string]interface{}{
				"last_visit":  patient.LastVisit,
				"total_spent": patient.TotalSpent,
			}).Error
	})
}

func (r *invoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	var invoice entity.Invoice
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) FindByPatientID(ctx context.Context, patientID uuid.UUID) ([]entity.Invoice, error) {
	var invoices []entity.Invoice
	err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("created_at DESC").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *invoiceRepository) DeleteByPatientID(ctx context.Context, patientID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("patient_id = ?", patientID).Delete(&entity.Invoice{}).Error
}

func (r *invoiceRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&entity.Invoice{}).
		Where("created_at >= ?", since).
		Count(&total).Error
	return total, err
}

func (r *invoiceRepository) RevenueSince(ctx context.Context, since time.Time) (decimal.Decimal, error) {
	var result struct {
		Revenue decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&entity.Invoice{}).
		Select("COALESCE(SUM(total), 0) as revenue").
		Where("created_at >= ?", since).
		Scan(&result).Error
	if err != nil {
		return decimal.Zero, err
	}
	return result.Revenue, nil
}
