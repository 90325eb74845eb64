package usecase

import (
	"context"
	"io"
	"time"

	"dental-clinic-api/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// In-memory doubles for the repository and mirror interfaces. Every fake
// takes an injectable err that, when set, fails all its operations, standing
// in for an unreachable store.

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type fakePatientRepo struct {
	patients map[uuid.UUID]*entity.Patient
	err      error
}

func newFakePatientRepo() *fakePatientRepo {
	return &fakePatientRepo{patients: make(map[uuid.UUID]*entity.Patient)}
}

func (f *fakePatientRepo) Create(_ context.Context, patient *entity.Patient) error {
	if f.err != nil {
		return f.err
	}
	copied := *patient
	f.patients[patient.ID] = &copied
	return nil
}

func (f *fakePatientRepo) FindAll(_ context.Context) ([]entity.Patient, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]entity.Patient, 0, len(f.patients))
	for _, p := range f.patients {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakePatientRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Patient, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.patients[id]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (f *fakePatientRepo) ListCodes(_ context.Context) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	codes := make([]string, 0, len(f.patients))
	for _, p := range f.patients {
		codes = append(codes, p.Code)
	}
	return codes, nil
}

func (f *fakePatientRepo) Update(_ context.Context, patient *entity.Patient) error {
	if f.err != nil {
		return f.err
	}
	copied := *patient
	f.patients[patient.ID] = &copied
	return nil
}

func (f *fakePatientRepo) Delete(_ context.Context, id uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	delete(f.patients, id)
	return nil
}

func (f *fakePatientRepo) Count(_ context.Context) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return int64(len(f.patients)), nil
}

type fakeServiceRepo struct {
	services map[uuid.UUID]*entity.Service
	err      error
}

func newFakeServiceRepo() *fakeServiceRepo {
	return &fakeServiceRepo{services: make(map[uuid.UUID]*entity.Service)}
}

func (f *fakeServiceRepo) Create(_ context.Context, svc *entity.Service) error {
	if f.err != nil {
		return f.err
	}
	copied := *svc
	f.services[svc.ID] = &copied
	return nil
}

func (f *fakeServiceRepo) FindAll(_ context.Context) ([]entity.Service, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]entity.Service, 0, len(f.services))
	for _, s := range f.services {
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeServiceRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Service, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.services[id]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (f *fakeServiceRepo) Update(_ context.Context, svc *entity.Service) error {
	if f.err != nil {
		return f.err
	}
	copied := *svc
	f.services[svc.ID] = &copied
	return nil
}

func (f *fakeServiceRepo) Delete(_ context.Context, id uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	delete(f.services, id)
	return nil
}

func (f *fakeServiceRepo) Count(_ context.Context) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return int64(len(f.services)), nil
}

type fakeInvoiceRepo struct {
	invoices map[uuid.UUID]*entity.Invoice
	// patientRows points at the patient fake's storage so the transactional
	// write lands in the same place, as it does against one database.
	patientRows map[uuid.UUID]*entity.Patient
	err         error
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{
		invoices:    make(map[uuid.UUID]*entity.Invoice),
		patientRows: make(map[uuid.UUID]*entity.Patient),
	}
}

func (f *fakeInvoiceRepo) CreateWithPatient(_ context.Context, invoice *entity.Invoice, patient *entity.Patient) error {
	if f.err != nil {
		return f.err
	}
	invCopy := *invoice
	patCopy := *patient
	f.invoices[invoice.ID] = &invCopy
	f.patientRows[patient.ID] = &patCopy
	return nil
}

func (f *fakeInvoiceRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Invoice, error) {
	if f.err != nil {
		return nil, f.err
	}
	inv, ok := f.invoices[id]
	if !ok {
		return nil, nil
	}
	copied := *inv
	return &copied, nil
}

func (f *fakeInvoiceRepo) FindByPatientID(_ context.Context, patientID uuid.UUID) ([]entity.Invoice, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []entity.Invoice
	for _, inv := range f.invoices {
		if inv.PatientID != nil && *inv.PatientID == patientID {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (f *fakeInvoiceRepo) DeleteByPatientID(_ context.Context, patientID uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	for id, inv := range f.invoices {
		if inv.PatientID != nil && *inv.PatientID == patientID {
			delete(f.invoices, id)
		}
	}
	return nil
}

func (f *fakeInvoiceRepo) CountSince(_ context.Context, since time.Time) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	var n int64
	for _, inv := range f.invoices {
		if !inv.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (f *fakeInvoiceRepo) RevenueSince(_ context.Context, since time.Time) (decimal.Decimal, error) {
	if f.err != nil {
		return decimal.Zero, f.err
	}
	sum := decimal.Zero
	for _, inv := range f.invoices {
		if !inv.CreatedAt.Before(since) {
			sum = sum.Add(inv.Total)
		}
	}
	return sum, nil
}

type fakeCacheMirror struct {
	patients []entity.Patient
	services []entity.Service
	pending  []entity.Invoice
	inflight map[uuid.UUID]bool
	loadErr  error
}

func newFakeCacheMirror() *fakeCacheMirror {
	return &fakeCacheMirror{inflight: make(map[uuid.UUID]bool)}
}

func (f *fakeCacheMirror) MirrorPatients(_ context.Context, patients []entity.Patient) {
	f.patients = append([]entity.Patient(nil), patients...)
}

func (f *fakeCacheMirror) MirrorServices(_ context.Context, services []entity.Service) {
	f.services = append([]entity.Service(nil), services...)
}

func (f *fakeCacheMirror) LoadPatients(_ context.Context) ([]entity.Patient, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.patients, nil
}

func (f *fakeCacheMirror) LoadServices(_ context.Context) ([]entity.Service, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.services, nil
}

func (f *fakeCacheMirror) AppendPatient(_ context.Context, patient *entity.Patient) {
	f.patients = append(f.patients, *patient)
}

func (f *fakeCacheMirror) RemovePatient(_ context.Context, id uuid.UUID) {
	kept := f.patients[:0]
	for _, p := range f.patients {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	f.patients = kept
}

func (f *fakeCacheMirror) AppendService(_ context.Context, svc *entity.Service) {
	f.services = append(f.services, *svc)
}

func (f *fakeCacheMirror) RemoveService(_ context.Context, id uuid.UUID) {
	kept := f.services[:0]
	for _, s := range f.services {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	f.services = kept
}

func (f *fakeCacheMirror) EnqueuePendingInvoice(_ context.Context, invoice *entity.Invoice) {
	f.pending = append(f.pending, *invoice)
}

func (f *fakeCacheMirror) PendingInvoiceCount(_ context.Context) (int64, error) {
	return int64(len(f.pending)), nil
}

func (f *fakeCacheMirror) BeginGeneration(patientID uuid.UUID) bool {
	if f.inflight[patientID] {
		return false
	}
	f.inflight[patientID] = true
	return true
}

func (f *fakeCacheMirror) EndGeneration(patientID uuid.UUID) {
	delete(f.inflight, patientID)
}

func (f *fakeCacheMirror) Stop() {}

type sentMail struct {
	to             string
	subject        string
	body           string
	attachmentName string
	attachment     []byte
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (f *fakeMailer) Send(_ context.Context, to, _, subject, body, attachmentName string, attachment []byte) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: body, attachmentName: attachmentName, attachment: attachment})
	return nil
}
