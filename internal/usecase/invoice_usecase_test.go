package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"dental-clinic-api/config"
	"dental-clinic-api/internal/delivery/dto"
	"dental-clinic-api/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type invoiceFixture struct {
	uc          InvoiceUsecase
	patientRepo *fakePatientRepo
	serviceRepo *fakeServiceRepo
	invoiceRepo *fakeInvoiceRepo
	cache       *fakeCacheMirror
	mailer      *fakeMailer

	patient  *entity.Patient
	cleaning *entity.Service
	checkup  *entity.Service
}

func newInvoiceFixture(t *testing.T) *invoiceFixture {
	t.Helper()

	f := &invoiceFixture{
		patientRepo: newFakePatientRepo(),
		serviceRepo: newFakeServiceRepo(),
		invoiceRepo: newFakeInvoiceRepo(),
		cache:       newFakeCacheMirror(),
		mailer:      &fakeMailer{},
	}
	f.invoiceRepo.patientRows = f.patientRepo.patients

	f.patient = &entity.Patient{
		ID:         uuid.New(),
		Code:       "P00001",
		Name:       "Maria",
		LastName:   "Perez",
		Email:      strPtr("maria@example.com"),
		TotalSpent: decimal.Zero,
	}
	f.patientRepo.patients[f.patient.ID] = f.patient

	f.cleaning = &entity.Service{ID: uuid.New(), Name: "Limpieza dental", Price: decimal.RequireFromString("60.00")}
	f.checkup = &entity.Service{ID: uuid.New(), Name: "Consulta", Price: decimal.RequireFromString("20.00")}
	f.serviceRepo.services[f.cleaning.ID] = f.cleaning
	f.serviceRepo.services[f.checkup.ID] = f.checkup

	clinic := config.ClinicConfig{Name: "Clinica Dental", Tagline: "Periodoncia e Implantes", Phone: "809-555-0100"}
	f.uc = NewInvoiceUsecase(testLogger(), f.patientRepo, f.serviceRepo, f.invoiceRepo, f.cache, f.mailer, clinic)
	return f
}

func (f *invoiceFixture) generateRequest() *dto.GenerateInvoiceRequest {
	return &dto.GenerateInvoiceRequest{
		PatientID: f.patient.ID,
		Lines: []dto.InvoiceLineRequest{
			{ServiceID: f.cleaning.ID, Quantity: 1},
			{ServiceID: f.checkup.ID, Quantity: 2},
		},
		Discount: decimal.RequireFromString("10.00"),
		ApplyTax: true,
	}
}

func TestInvoiceGenerate(t *testing.T) {
	f := newInvoiceFixture(t)
	ctx := context.Background()

	resp, err := f.uc.Generate(ctx, f.generateRequest())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if !resp.Subtotal.Equal(decimal.RequireFromString("100.00")) {
		t.Errorf("Subtotal = %s, want 100.00", resp.Subtotal)
	}
	if !resp.Tax.Equal(decimal.RequireFromString("4.50")) {
		t.Errorf("Tax = %s, want 4.50", resp.Tax)
	}
	if !resp.Total.Equal(decimal.RequireFromString("94.50")) {
		t.Errorf("Total = %s, want 94.50", resp.Total)
	}
	if resp.SyncPending {
		t.Error("SyncPending = true, want false")
	}
	if resp.PatientCode != "P00001" || resp.PatientName != "Maria Perez" {
		t.Errorf("patient snapshot = %q %q", resp.PatientCode, resp.PatientName)
	}
	if len(resp.Lines) != 2 {
		t.Fatalf("len(Lines) = %d, want 2", len(resp.Lines))
	}
	if !resp.Lines[1].Total.Equal(decimal.RequireFromString("40.00")) {
		t.Errorf("Lines[1].Total = %s, want 40.00", resp.Lines[1].Total)
	}

	// The invoice and the patient visit fields land in one write.
	if len(f.invoiceRepo.invoices) != 1 {
		t.Fatalf("stored invoices = %d, want 1", len(f.invoiceRepo.invoices))
	}
	stored := f.patientRepo.patients[f.patient.ID]
	if !stored.TotalSpent.Equal(decimal.RequireFromString("94.50")) {
		t.Errorf("TotalSpent = %s, want 94.50", stored.TotalSpent)
	}
	if stored.LastVisit == nil {
		t.Error("LastVisit not set")
	}
}

func TestInvoiceGenerateAccumulatesTotalSpent(t *testing.T) {
	f := newInvoiceFixture(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := f.uc.Generate(ctx, f.generateRequest()); err != nil {
			t.Fatalf("Generate #%d: %v", i+1, err)
		}
	}

	stored := f.patientRepo.patients[f.patient.ID]
	if !stored.TotalSpent.Equal(decimal.RequireFromString("189.00")) {
		t.Errorf("TotalSpent = %s, want 189.00", stored.TotalSpent)
	}
}

func TestInvoiceGenerateDefaultsQuantity(t *testing.T) {
	f := newInvoiceFixture(t)

	resp, err := f.uc.Generate(context.Background(), &dto.GenerateInvoiceRequest{
		PatientID: f.patient.ID,
		Lines:     []dto.InvoiceLineRequest{{ServiceID: f.cleaning.ID}},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.Lines[0].Quantity != 1 {
		t.Errorf("Quantity = %d, want 1", resp.Lines[0].Quantity)
	}
}

func TestInvoiceGeneratePreconditions(t *testing.T) {
	f := newInvoiceFixture(t)
	ctx := context.Background()

	_, err := f.uc.Generate(ctx, &dto.GenerateInvoiceRequest{PatientID: f.patient.ID})
	if !errors.Is(err, ErrNoServicesSelected) {
		t.Errorf("no lines: err = %v, want ErrNoServicesSelected", err)
	}

	req := f.generateRequest()
	req.Discount = decimal.RequireFromString("-1")
	if _, err := f.uc.Generate(ctx, req); !errors.Is(err, ErrNegativeDiscount) {
		t.Errorf("negative discount: err = %v, want ErrNegativeDiscount", err)
	}

	req = f.generateRequest()
	req.PatientID = uuid.New()
	if _, err := f.uc.Generate(ctx, req); !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("unknown patient: err = %v, want ErrPatientNotFound", err)
	}

	req = f.generateRequest()
	req.Lines[0].ServiceID = uuid.New()
	if _, err := f.uc.Generate(ctx, req); !errors.Is(err, ErrServiceNotFound) {
		t.Errorf("unknown service: err = %v, want ErrServiceNotFound", err)
	}
}

func TestInvoiceGenerateRejectsDoubleSubmission(t *testing.T) {
	f := newInvoiceFixture(t)

	// A generation is already in flight for this patient.
	f.cache.BeginGeneration(f.patient.ID)

	_, err := f.uc.Generate(context.Background(), f.generateRequest())
	if !errors.Is(err, ErrGenerationInProgress) {
		t.Errorf("err = %v, want ErrGenerationInProgress", err)
	}

	// Once it finishes, generation proceeds again.
	f.cache.EndGeneration(f.patient.ID)
	if _, err := f.uc.Generate(context.Background(), f.generateRequest()); err != nil {
		t.Errorf("after release: err = %v, want nil", err)
	}
}

func TestInvoiceGenerateStoreDownIsSyncPending(t *testing.T) {
	f := newInvoiceFixture(t)
	f.invoiceRepo.err = errors.New("connection refused")

	resp, err := f.uc.Generate(context.Background(), f.generateRequest())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if !resp.SyncPending {
		t.Error("SyncPending = false, want true")
	}
	// The breakdown is computed and returned even though nothing persisted.
	if !resp.Total.Equal(decimal.RequireFromString("94.50")) {
		t.Errorf("Total = %s, want 94.50", resp.Total)
	}
	if len(f.cache.pending) != 1 {
		t.Fatalf("pending queue = %d, want 1", len(f.cache.pending))
	}
	if !f.cache.pending[0].SyncPending {
		t.Error("queued invoice not flagged sync-pending")
	}
}

func TestInvoiceGetByIDNotFound(t *testing.T) {
	f := newInvoiceFixture(t)

	_, err := f.uc.GetByID(context.Background(), uuid.New())
	if !errors.Is(err, ErrInvoiceNotFound) {
		t.Errorf("err = %v, want ErrInvoiceNotFound", err)
	}
}

func TestInvoiceRenderPreview(t *testing.T) {
	f := newInvoiceFixture(t)
	ctx := context.Background()

	resp, err := f.uc.Generate(ctx, f.generateRequest())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	html, err := f.uc.RenderPreview(ctx, resp.ID)
	if err != nil {
		t.Fatalf("RenderPreview: %v", err)
	}
	for _, want := range []string{"$94.50", "Maria Perez", "Limpieza dental"} {
		if !strings.Contains(html, want) {
			t.Errorf("preview missing %q", want)
		}
	}
}

func TestInvoiceRenderPreviewSurvivesDeletedPatient(t *testing.T) {
	f := newInvoiceFixture(t)
	ctx := context.Background()

	resp, err := f.uc.Generate(ctx, f.generateRequest())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	// The patient is gone; the denormalized snapshot carries the render.
	delete(f.patientRepo.patients, f.patient.ID)

	html, err := f.uc.RenderPreview(ctx, resp.ID)
	if err != nil {
		t.Fatalf("RenderPreview: %v", err)
	}
	if !strings.Contains(html, "Maria Perez") || !strings.Contains(html, "P00001") {
		t.Error("snapshot fields missing from preview")
	}
}

func TestInvoiceRenderPDF(t *testing.T) {
	f := newInvoiceFixture(t)
	ctx := context.Background()

	resp, err := f.uc.Generate(ctx, f.generateRequest())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	filename, data, err := f.uc.RenderPDF(ctx, resp.ID)
	if err != nil {
		t.Fatalf("RenderPDF: %v", err)
	}
	if !strings.HasPrefix(filename, "Presupuesto_Maria_Perez_") || !strings.HasSuffix(filename, ".pdf") {
		t.Errorf("filename = %q", filename)
	}
	if !strings.HasPrefix(string(data[:8]), "%PDF-") {
		t.Error("output is not a PDF")
	}
}

func TestInvoiceEmailPDF(t *testing.T) {
	f := newInvoiceFixture(t)
	ctx := context.Background()

	resp, err := f.uc.Generate(ctx, f.generateRequest())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if err := f.uc.EmailPDF(ctx, resp.ID, &dto.EmailInvoiceRequest{}); err != nil {
		t.Fatalf("EmailPDF: %v", err)
	}

	if len(f.mailer.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(f.mailer.sent))
	}
	mail := f.mailer.sent[0]
	if mail.to != "maria@example.com" {
		t.Errorf("to = %q", mail.to)
	}
	if mail.subject != "Presupuesto - Clinica Dental" {
		t.Errorf("default subject = %q", mail.subject)
	}
	if !strings.Contains(mail.body, "Maria Perez") {
		t.Error("default body does not address the patient")
	}
	if !strings.HasPrefix(mail.attachmentName, "Presupuesto_") {
		t.Errorf("attachment name = %q", mail.attachmentName)
	}
	if !strings.HasPrefix(string(mail.attachment[:8]), "%PDF-") {
		t.Error("attachment is not a PDF")
	}
}

func TestInvoiceEmailPDFCustomSubject(t *testing.T) {
	f := newInvoiceFixture(t)
	ctx := context.Background()

	resp, err := f.uc.Generate(ctx, f.generateRequest())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	req := &dto.EmailInvoiceRequest{Subject: "Su presupuesto", Message: "Adjunto."}
	if err := f.uc.EmailPDF(ctx, resp.ID, req); err != nil {
		t.Fatalf("EmailPDF: %v", err)
	}
	if f.mailer.sent[0].subject != "Su presupuesto" || f.mailer.sent[0].body != "Adjunto." {
		t.Errorf("sent = %+v", f.mailer.sent[0])
	}
}

func TestInvoiceEmailPDFRequiresEmail(t *testing.T) {
	f := newInvoiceFixture(t)
	ctx := context.Background()

	f.patient.Email = nil
	resp, err := f.uc.Generate(ctx, f.generateRequest())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	err = f.uc.EmailPDF(ctx, resp.ID, &dto.EmailInvoiceRequest{})
	if !errors.Is(err, ErrPatientHasNoEmail) {
		t.Errorf("err = %v, want ErrPatientHasNoEmail", err)
	}
	if len(f.mailer.sent) != 0 {
		t.Error("mail dispatched despite missing address")
	}
}

func TestInvoiceEmailPDFDispatchFailure(t *testing.T) {
	f := newInvoiceFixture(t)
	ctx := context.Background()

	resp, err := f.uc.Generate(ctx, f.generateRequest())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	f.mailer.err = errors.New("smtp unreachable")
	if err := f.uc.EmailPDF(ctx, resp.ID, &dto.EmailInvoiceRequest{}); err == nil {
		t.Fatal("expected dispatch error")
	}

	// The stored invoice is untouched by the failed dispatch.
	if _, getErr := f.uc.GetByID(ctx, resp.ID); getErr != nil {
		t.Errorf("GetByID after failed dispatch: %v", getErr)
	}
}

func TestInvoiceListByPatient(t *testing.T) {
	f := newInvoiceFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := f.uc.Generate(ctx, f.generateRequest()); err != nil {
			t.Fatalf("Generate #%d: %v", i+1, err)
		}
	}

	list, err := f.uc.ListByPatient(ctx, f.patient.ID)
	if err != nil {
		t.Fatalf("ListByPatient: %v", err)
	}
	if list.Total != 3 {
		t.Errorf("Total = %d, want 3", list.Total)
	}
}
