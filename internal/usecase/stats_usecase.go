package usecase

import (
	"context"
	"time"

	"dental-clinic-api/internal/delivery/dto"
	"dental-clinic-api/internal/domain/repository"
	"dental-clinic-api/internal/service"

	"github.com/sirupsen/logrus"
)

// StatsUsecase aggregates the dashboard figures. Each figure is best-effort:
// a failed count is logged and reported as zero rather than failing the
// whole dashboard.
type StatsUsecase interface {
	GetStats(ctx context.Context) (*dto.StatsResponse, error)
}

type statsUsecase struct {
	log         *logrus.Logger
	patientRepo repository.PatientRepository
	serviceRepo repository.ServiceRepository
	invoiceRepo repository.InvoiceRepository
	cache       service.CacheMirror
}

func NewStatsUsecase(
	log *logrus.Logger,
	patientRepo repository.PatientRepository,
	serviceRepo repository.ServiceRepository,
	invoiceRepo repository.InvoiceRepository,
	cache service.CacheMirror,
) StatsUsecase {
	return &statsUsecase{
		log:         log,
		patientRepo: patientRepo,
		serviceRepo: serviceRepo,
		invoiceRepo: invoiceRepo,
		cache:       cache,
	}
}

func (u *statsUsecase) GetStats(ctx context.Context) (*dto.StatsResponse, error) {
	statsCtx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	stats := &dto.StatsResponse{}

	if n, err := u.patientRepo.Count(statsCtx); err != nil {
		u.log.Warnf("Failed to count patients: %+v", err)
	} else {
		stats.TotalPatients = n
	}

	if n, err := u.serviceRepo.Count(statsCtx); err != nil {
		u.log.Warnf("Failed to count services: %+v", err)
	} else {
		stats.TotalServices = n
	}

	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	if n, err := u.invoiceRepo.CountSince(statsCtx, startOfDay); err != nil {
		u.log.Warnf("Failed to count today's invoices: %+v", err)
	} else {
		stats.InvoicesToday = n
	}

	if revenue, err := u.invoiceRepo.RevenueSince(statsCtx, startOfMonth); err != nil {
		u.log.Warnf("Failed to sum monthly revenue: %+v", err)
	} else {
		stats.RevenueThisMonth = revenue
	}

	if n, err := u.cache.PendingInvoiceCount(ctx); err != nil {
		u.log.Warnf("Failed to read pending sync queue: %+v", err)
	} else {
		stats.PendingSync = n
	}

	return stats, nil
}
