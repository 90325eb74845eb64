package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dental-clinic-api/config"
	"dental-clinic-api/internal/billing"
	"dental-clinic-api/internal/converter"
	"dental-clinic-api/internal/delivery/dto"
	"dental-clinic-api/internal/domain/entity"
	"dental-clinic-api/internal/domain/repository"
	"dental-clinic-api/internal/renderer"
	"dental-clinic-api/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvoiceNotFound      = errors.New("invoice not found")
	ErrNoServicesSelected   = errors.New("at least one service must be selected")
	ErrNegativeDiscount     = errors.New("discount cannot be negative")
	ErrGenerationInProgress = errors.New("an invoice is already being generated for this patient")
	ErrPatientHasNoEmail    = errors.New("patient has no email address on file")
)

// Mailer dispatches a rendered invoice document to a recipient.
type Mailer interface {
	Send(ctx context.Context, to, toName, subject, body, attachmentName string, attachment []byte) error
}

type InvoiceUsecase interface {
	Generate(ctx context.Context, req *dto.GenerateInvoiceRequest) (*dto.InvoiceResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) (*dto.InvoiceListResponse, error)
	RenderPreview(ctx context.Context, id uuid.UUID) (string, error)
	RenderPDF(ctx context.Context, id uuid.UUID) (string, []byte, error)
	EmailPDF(ctx context.Context, id uuid.UUID, req *dto.EmailInvoiceRequest) error
}

type invoiceUsecase struct {
	log         *logrus.Logger
	patientRepo repository.PatientRepository
	serviceRepo repository.ServiceRepository
	invoiceRepo repository.InvoiceRepository
	cache       service.CacheMirror
	mailer      Mailer
	clinic      config.ClinicConfig
}

func NewInvoiceUsecase(
	log *logrus.Logger,
	patientRepo repository.PatientRepository,
	serviceRepo repository.ServiceRepository,
	invoiceRepo repository.InvoiceRepository,
	cache service.CacheMirror,
	mailer Mailer,
	clinic config.ClinicConfig,
) InvoiceUsecase {
	return &invoiceUsecase{
		log:         log,
		patientRepo: patientRepo,
		serviceRepo: serviceRepo,
		invoiceRepo: invoiceRepo,
		cache:       cache,
		mailer:      mailer,
		clinic:      clinic,
	}
}

// Generate runs the invoice pipeline.
//
// Flow:
//  1. Precondition checks (patient selected, at least one line, discount >= 0)
//  2. Per-patient in-flight guard against double submission
//  3. Resolve selected services to price snapshots
//  4. billing.Calculate produces the breakdown
//  5. Invoice insert + patient last-visit/total update, one transaction
//  6. If the store is unreachable -> sync-pending queue + mirror, the
//     computed invoice is returned anyway and never lost
func (u *invoiceUsecase) Generate(ctx context.Context, req *dto.GenerateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if len(req.Lines) == 0 {
		return nil, ErrNoServicesSelected
	}
	if req.Discount.IsNegative() {
		return nil, ErrNegativeDiscount
	}

	findCtx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	patient, err := u.patientRepo.FindByID(findCtx, req.PatientID)
	if err != nil {
		return nil, err
	}
	if patient == nil {
		return nil, ErrPatientNotFound
	}

	if !u.cache.BeginGeneration(patient.ID) {
		return nil, ErrGenerationInProgress
	}
	defer u.cache.EndGeneration(patient.ID)

	inputs := make([]billing.LineInput, 0, len(req.Lines))
	for _, line := range req.Lines {
		svc, err := u.serviceRepo.FindByID(findCtx, line.ServiceID)
		if err != nil {
			return nil, err
		}
		if svc == nil {
			return nil, ErrServiceNotFound
		}

		quantity := line.Quantity
		if quantity < 1 {
			quantity = 1
		}
		inputs = append(inputs, billing.LineInput{
			Name:      svc.Name,
			UnitPrice: svc.Price,
			Quantity:  quantity,
		})
	}

	breakdown := billing.Calculate(inputs, req.Discount, req.ApplyTax)

	now := time.Now()
	patient.LastVisit = &now
	patient.TotalSpent = patient.TotalSpent.Add(breakdown.Total)

	lines := make(entity.InvoiceLines, 0, len(breakdown.Lines))
	for _, line := range breakdown.Lines {
		lines = append(lines, entity.InvoiceLine{
			Name:     line.Name,
			Price:    line.UnitPrice,
			Quantity: line.Quantity,
			Total:    line.Total,
		})
	}

	invoice := &entity.Invoice{
		ID:          uuid.New(),
		PatientID:   &patient.ID,
		PatientCode: patient.Code,
		PatientName: patient.FullName(),
		Lines:       lines,
		Subtotal:    breakdown.Subtotal,
		Discount:    breakdown.Discount,
		Tax:         breakdown.Tax,
		Total:       breakdown.Total,
		CreatedAt:   now,
	}

	saveCtx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	if err := u.invoiceRepo.CreateWithPatient(saveCtx, invoice, patient); err != nil {
		u.log.Warnf("Failed to persist invoice for %s, falling back to local tier: %+v", patient.Code, err)

		invoice.SyncPending = true
		u.cache.EnqueuePendingInvoice(ctx, invoice)
		u.cache.RemovePatient(ctx, patient.ID)
		u.cache.AppendPatient(ctx, patient)

		return converter.InvoiceToResponse(invoice), nil
	}

	u.refreshPatientMirror(ctx)
	u.log.Infof("Invoice generated: id=%s, patient=%s, total=%s", invoice.ID, patient.Code, invoice.Total.StringFixed(2))
	return converter.InvoiceToResponse(invoice), nil
}

func (u *invoiceUsecase) GetByID(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error) {
	invoice, err := u.findInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	return converter.InvoiceToResponse(invoice), nil
}

func (u *invoiceUsecase) ListByPatient(ctx context.Context, patientID uuid.UUID) (*dto.InvoiceListResponse, error) {
	findCtx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	invoices, err := u.invoiceRepo.FindByPatientID(findCtx, patientID)
	if err != nil {
		return nil, err
	}

	return &dto.InvoiceListResponse{
		Invoices: converter.InvoicesToResponses(invoices),
		Total:    len(invoices),
	}, nil
}

// RenderPreview produces the HTML preview from the stored breakdown.
func (u *invoiceUsecase) RenderPreview(ctx context.Context, id uuid.UUID) (string, error) {
	invoice, err := u.findInvoice(ctx, id)
	if err != nil {
		return "", err
	}

	return renderer.RenderPreview(invoice, u.patientInfo(ctx, invoice), u.clinicInfo())
}

// RenderPDF produces the downloadable document from the stored breakdown.
func (u *invoiceUsecase) RenderPDF(ctx context.Context, id uuid.UUID) (string, []byte, error) {
	invoice, err := u.findInvoice(ctx, id)
	if err != nil {
		return "", nil, err
	}

	data, err := renderer.RenderDocument(invoice, u.patientInfo(ctx, invoice), u.clinicInfo())
	if err != nil {
		return "", nil, err
	}

	return pdfFileName(invoice), data, nil
}

// EmailPDF renders the document and dispatches it to the patient. The action
// is refused outright when the patient has no usable email; a dispatch
// failure never touches the already-persisted invoice.
func (u *invoiceUsecase) EmailPDF(ctx context.Context, id uuid.UUID, req *dto.EmailInvoiceRequest) error {
	invoice, err := u.findInvoice(ctx, id)
	if err != nil {
		return err
	}

	if invoice.PatientID == nil {
		return ErrPatientHasNoEmail
	}

	findCtx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	patient, err := u.patientRepo.FindByID(findCtx, *invoice.PatientID)
	if err != nil {
		return err
	}
	if patient == nil || !patient.HasEmail() {
		return ErrPatientHasNoEmail
	}

	data, err := renderer.RenderDocument(invoice, renderer.PatientInfoFrom(patient), u.clinicInfo())
	if err != nil {
		return err
	}

	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		subject = "Presupuesto - " + u.clinic.Name
	}
	body := strings.TrimSpace(req.Message)
	if body == "" {
		body = fmt.Sprintf(
			"Estimado/a %s,\n\nAdjunto encontrara su presupuesto dental. Si tiene alguna pregunta o desea agendar una cita, no dude en contactarnos.\n\nSaludos cordiales,\n%s\n%s",
			patient.FullName(), u.clinic.Name, u.clinic.Tagline,
		)
	}

	if err := u.mailer.Send(ctx, *patient.Email, patient.FullName(), subject, body, pdfFileName(invoice), data); err != nil {
		u.log.Errorf("Failed to email invoice %s to %s: %+v", invoice.ID, *patient.Email, err)
		return err
	}

	u.log.Infof("Invoice %s emailed to %s", invoice.ID, *patient.Email)
	return nil
}

func (u *invoiceUsecase) findInvoice(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	findCtx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	invoice, err := u.invoiceRepo.FindByID(findCtx, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, ErrInvoiceNotFound
	}
	return invoice, nil
}

// patientInfo resolves the live patient record for display, degrading to the
// invoice's denormalized snapshot when the patient is gone.
func (u *invoiceUsecase) patientInfo(ctx context.Context, invoice *entity.Invoice) renderer.PatientInfo {
	if invoice.PatientID == nil {
		return renderer.PatientInfoFromSnapshot(invoice)
	}

	findCtx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	patient, err := u.patientRepo.FindByID(findCtx, *invoice.PatientID)
	if err != nil {
		u.log.Warnf("Failed to load patient for invoice %s, using snapshot: %+v", invoice.ID, err)
		return renderer.PatientInfoFromSnapshot(invoice)
	}
	if patient == nil {
		return renderer.PatientInfoFromSnapshot(invoice)
	}
	return renderer.PatientInfoFrom(patient)
}

func (u *invoiceUsecase) clinicInfo() renderer.ClinicInfo {
	return renderer.ClinicInfo{
		Name:    u.clinic.Name,
		Tagline: u.clinic.Tagline,
		Phone:   u.clinic.Phone,
	}
}

func (u *invoiceUsecase) refreshPatientMirror(ctx context.Context) {
	mirrorCtx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	patients, err := u.patientRepo.FindAll(mirrorCtx)
	if err != nil {
		u.log.Warnf("Skipping patient mirror refresh: %+v", err)
		return
	}
	u.cache.MirrorPatients(ctx, patients)
}

func pdfFileName(invoice *entity.Invoice) string {
	name := strings.ReplaceAll(invoice.PatientName, " ", "_")
	return fmt.Sprintf("Presupuesto_%s_%d.pdf", name, invoice.CreatedAt.Unix())
}
