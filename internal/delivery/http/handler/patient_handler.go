package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"dental-clinic-api/internal/delivery/dto"
	"dental-clinic-api/internal/usecase"
	"dental-clinic-api/pkg/response"
	"dental-clinic-api/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type PatientHandler struct {
	patientUsecase usecase.PatientUsecase
	invoiceUsecase usecase.InvoiceUsecase
	validator      *validator.CustomValidator
}

func NewPatientHandler(patientUsecase usecase.PatientUsecase, invoiceUsecase usecase.InvoiceUsecase, validator *validator.CustomValidator) *PatientHandler {
	return &PatientHandler{
		patientUsecase: patientUsecase,
		invoiceUsecase: invoiceUsecase,
		validator:      validator,
	}
}

// Create handles patient registration
func (h *PatientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	patient, err := h.patientUsecase.Create(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrNationalIDRequired), errors.Is(err, usecase.ErrInvalidBirthdate):
			response.Error(w, http.StatusBadRequest, err.Error(), nil)
		default:
			response.InternalServerError(w, "Failed to create patient")
		}
		return
	}

	if patient.SyncPending {
		response.Accepted(w, "Patient registered locally, sync pending", patient)
		return
	}
	response.Success(w, http.StatusCreated, "Patient created successfully", patient)
}

// GetAll handles listing all patients
func (h *PatientHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	patients, err := h.patientUsecase.GetAll(r.Context())
	if err != nil {
		response.InternalServerError(w, "Failed to get patients")
		return
	}

	message := "Patients retrieved successfully"
	if patients.FromCache {
		message = "Patients retrieved from local cache, sync pending"
	}
	response.Success(w, http.StatusOK, message, patients)
}

// GetByID handles getting a patient by ID
func (h *PatientHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid patient ID", nil)
		return
	}

	patient, err := h.patientUsecase.GetByID(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrPatientNotFound):
			response.NotFound(w, "Patient not found")
		default:
			response.InternalServerError(w, "Failed to get patient")
		}
		return
	}

	response.Success(w, http.StatusOK, "Patient retrieved successfully", patient)
}

// Update handles patient edits; the code and identifier are immutable
func (h *PatientHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid patient ID", nil)
		return
	}

	var req dto.UpdatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	patient, err := h.patientUsecase.Update(r.Context(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrPatientNotFound):
			response.NotFound(w, "Patient not found")
		case errors.Is(err, usecase.ErrNationalIDRequired), errors.Is(err, usecase.ErrInvalidBirthdate):
			response.Error(w, http.StatusBadRequest, err.Error(), nil)
		default:
			response.InternalServerError(w, "Failed to update patient")
		}
		return
	}

	if patient.SyncPending {
		response.Accepted(w, "Patient updated locally, sync pending", patient)
		return
	}
	response.Success(w, http.StatusOK, "Patient updated successfully", patient)
}

// Delete handles patient removal, cascading to the patient's invoices
func (h *PatientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid patient ID", nil)
		return
	}

	syncPending, err := h.patientUsecase.Delete(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrPatientNotFound):
			response.NotFound(w, "Patient not found")
		default:
			response.InternalServerError(w, "Failed to delete patient")
		}
		return
	}

	if syncPending {
		response.Accepted(w, "Patient deleted locally, sync pending", nil)
		return
	}
	response.Success(w, http.StatusOK, "Patient deleted successfully", nil)
}

// GetInvoices lists the invoices generated for a patient
func (h *PatientHandler) GetInvoices(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid patient ID", nil)
		return
	}

	invoices, err := h.invoiceUsecase.ListByPatient(r.Context(), id)
	if err != nil {
		response.InternalServerError(w, "Failed to get invoices")
		return
	}

	response.Success(w, http.StatusOK, "Invoices retrieved successfully", invoices)
}
