package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"dental-clinic-api/internal/billing"
	"dental-clinic-api/internal/converter"
	"dental-clinic-api/internal/delivery/dto"
	"dental-clinic-api/internal/domain/entity"
	"dental-clinic-api/internal/domain/repository"
	"dental-clinic-api/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Every repository call runs under this deadline; a timeout is treated
// exactly like any other persistence failure and takes the local-cache
// fallback path instead of blocking the operator.
const repoTimeout = 5 * time.Second

var (
	ErrPatientNotFound    = errors.New("patient not found")
	ErrNationalIDRequired = errors.New("national id is required for adult patients")
	ErrInvalidBirthdate   = errors.New("birthdate is invalid")
)

type PatientUsecase interface {
	Create(ctx context.Context, req *dto.CreatePatientRequest) (*dto.PatientResponse, error)
	GetAll(ctx context.Context) (*dto.PatientListResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*dto.PatientResponse, error)
	Update(ctx context.Context, id uuid.UUID, req *dto.UpdatePatientRequest) (*dto.PatientResponse, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type patientUsecase struct {
	log         *logrus.Logger
	patientRepo repository.PatientRepository
	invoiceRepo repository.InvoiceRepository
	cache       service.CacheMirror
}

func NewPatientUsecase(
	log *logrus.Logger,
	patientRepo repository.PatientRepository,
	invoiceRepo repository.InvoiceRepository,
	cache service.CacheMirror,
) PatientUsecase {
	return &patientUsecase{
		log:         log,
		patientRepo: patientRepo,
		invoiceRepo: invoiceRepo,
		cache:       cache,
	}
}

// Create registers a patient. The sequential code is derived from the codes
// already assigned; the national ID is mandatory once the derived age
// reaches 18. On a persistence failure the record still lands in the local
// mirror and the response is flagged sync-pending.
func (u *patientUsecase) Create(ctx context.Context, req *dto.CreatePatientRequest) (*dto.PatientResponse, error) {
	birthdate, err := time.Parse("2006-01-02", req.Birthdate)
	if err != nil {
		return nil, ErrInvalidBirthdate
	}

	age := billing.AgeNow(birthdate)
	nationalID := normalizeOptional(req.NationalID)
	if age >= 18 && nationalID == nil {
		return nil, ErrNationalIDRequired
	}

	patient := &entity.Patient{
		ID:         uuid.New(),
		Code:       u.nextCode(ctx),
		Name:       req.Name,
		LastName:   req.LastName,
		Birthdate:  &birthdate,
		Age:        age,
		NationalID: nationalID,
		Email:      normalizeOptional(req.Email),
		Phone:      normalizeOptional(req.Phone),
		TotalSpent: decimal.Zero,
	}

	createCtx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	if err := u.patientRepo.Create(createCtx, patient); err != nil {
		u.log.Warnf("Failed to persist patient %s, keeping local copy: %+v", patient.Code, err)
		u.cache.AppendPatient(ctx, patient)

		resp := converter.PatientToResponse(patient)
		resp.SyncPending = true
		return resp, nil
	}

	u.refreshPatientMirror(ctx)
	u.log.Infof("Patient created: code=%s, age=%d", patient.Code, age)
	return converter.PatientToResponse(patient), nil
}

// GetAll lists patients from the primary store, falling back to the local
// mirror when it is unreachable.
func (u *patientUsecase) GetAll(ctx context.Context) (*dto.PatientListResponse, error) {
	findCtx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	patients, err := u.patientRepo.FindAll(findCtx)
	if err != nil {
		u.log.Warnf("Primary store unreachable, reading patient mirror: %+v", err)

		cached, cacheErr := u.cache.LoadPatients(ctx)
		if cacheErr != nil {
			return nil, err
		}
		return &dto.PatientListResponse{
			Patients:  converter.PatientsToResponses(cached),
			Total:     len(cached),
			FromCache: true,
		}, nil
	}

	return &dto.PatientListResponse{
		Patients: converter.PatientsToResponses(patients),
		Total:    len(patients),
	}, nil
}

func (u *patientUsecase) GetByID(ctx context.Context, id uuid.UUID) (*dto.PatientResponse, error) {
	findCtx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	patient, err := u.patientRepo.FindByID(findCtx, id)
	if err != nil {
		return nil, err
	}
	if patient == nil {
		return nil, ErrPatientNotFound
	}

	return converter.PatientToResponse(patient), nil
}

// Update edits every patient field except the code and the identifier. The
// adult national-ID invariant is re-checked against the new birthdate.
func (u *patientUsecase) Update(ctx context.Context, id uuid.UUID, req *dto.UpdatePatientRequest) (*dto.PatientResponse, error) {
	findCtx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	patient, err := u.patientRepo.FindByID(findCtx, id)
	if err != nil {
		return nil, err
	}
	if patient == nil {
		return nil, ErrPatientNotFound
	}

	birthdate, err := time.Parse("2006-01-02", req.Birthdate)
	if err != nil {
		return nil, ErrInvalidBirthdate
	}

	age := billing.AgeNow(birthdate)
	nationalID := normalizeOptional(req.NationalID)
	if age >= 18 && nationalID == nil {
		return nil, ErrNationalIDRequired
	}

	patient.Name = req.Name
	patient.LastName = req.LastName
	patient.Birthdate = &birthdate
	patient.Age = age
	patient.NationalID = nationalID
	patient.Email = normalizeOptional(req.Email)
	patient.Phone = normalizeOptional(req.Phone)

	updateCtx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	if err := u.patientRepo.Update(updateCtx, patient); err != nil {
		u.log.Warnf("Failed to persist patient update %s, keeping local copy: %+v", patient.Code, err)
		u.cache.RemovePatient(ctx, patient.ID)
		u.cache.AppendPatient(ctx, patient)

		resp := converter.PatientToResponse(patient)
		resp.SyncPending = true
		return resp, nil
	}

	u.refreshPatientMirror(ctx)
	return converter.PatientToResponse(patient), nil
}

// Delete removes a patient and cascades to their invoices, invoices first so
// no orphan rows survive a partial failure. Returns true when the deletion
// only reached the local tier.
func (u *patientUsecase) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	findCtx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	patient, err := u.patientRepo.FindByID(findCtx, id)
	if err != nil {
		return false, err
	}
	if patient == nil {
		return false, ErrPatientNotFound
	}

	deleteCtx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	err = u.invoiceRepo.DeleteByPatientID(deleteCtx, id)
	if err == nil {
		err = u.patientRepo.Delete(deleteCtx, id)
	}
	if err != nil {
		u.log.Warnf("Failed to delete patient %s from primary store: %+v", patient.Code, err)
		u.cache.RemovePatient(ctx, id)
		return true, nil
	}

	u.cache.RemovePatient(ctx, id)
	u.refreshPatientMirror(ctx)
	u.log.Infof("Patient deleted: code=%s", patient.Code)
	return false, nil
}

// nextCode computes the next sequential patient code. When the primary store
// cannot list codes the mirror is consulted so registration keeps working in
// degraded mode.
func (u *patientUsecase) nextCode(ctx context.Context) string {
	listCtx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	codes, err := u.patientRepo.ListCodes(listCtx)
	if err != nil {
		u.log.Warnf("Failed to list patient codes, using mirror: %+v", err)
		cached, cacheErr := u.cache.LoadPatients(ctx)
		if cacheErr == nil {
			codes = codes[:0]
			for _, p := range cached {
				codes = append(codes, p.Code)
			}
		}
	}

	return billing.NextPatientCode(codes)
}

func (u *patientUsecase) refreshPatientMirror(ctx context.Context) {
	mirrorCtx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	patients, err := u.patientRepo.FindAll(mirrorCtx)
	if err != nil {
		u.log.Warnf("Skipping patient mirror refresh: %+v", err)
		return
	}
	u.cache.MirrorPatients(ctx, patients)
}

// normalizeOptional maps empty strings and the legacy '0' sentinel to a true
// absent value.
func normalizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" || trimmed == "0" {
		return nil
	}
	return &trimmed
}
