package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"dental-clinic-api/internal/delivery/dto"
	"dental-clinic-api/internal/usecase"
	"dental-clinic-api/pkg/response"
	"dental-clinic-api/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type InvoiceHandler struct {
	invoiceUsecase usecase.InvoiceUsecase
	validator      *validator.CustomValidator
}

func NewInvoiceHandler(invoiceUsecase usecase.InvoiceUsecase, validator *validator.CustomValidator) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceUsecase: invoiceUsecase,
		validator:      validator,
	}
}

// Generate handles invoice generation
func (h *InvoiceHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req dto.GenerateInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	invoice, err := h.invoiceUsecase.Generate(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrPatientNotFound):
			response.NotFound(w, "Patient not found")
		case errors.Is(err, usecase.ErrServiceNotFound):
			response.NotFound(w, "Service not found")
		case errors.Is(err, usecase.ErrNoServicesSelected), errors.Is(err, usecase.ErrNegativeDiscount):
			response.Error(w, http.StatusBadRequest, err.Error(), nil)
		case errors.Is(err, usecase.ErrGenerationInProgress):
			response.Conflict(w, err.Error())
		default:
			response.InternalServerError(w, "Failed to generate invoice")
		}
		return
	}

	if invoice.SyncPending {
		response.Accepted(w, "Invoice generated locally, sync pending", invoice)
		return
	}
	response.Success(w, http.StatusCreated, "Invoice generated successfully", invoice)
}

// GetByID handles getting an invoice by ID
func (h *InvoiceHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid invoice ID", nil)
		return
	}

	invoice, err := h.invoiceUsecase.GetByID(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvoiceNotFound):
			response.NotFound(w, "Invoice not found")
		default:
			response.InternalServerError(w, "Failed to get invoice")
		}
		return
	}

	response.Success(w, http.StatusOK, "Invoice retrieved successfully", invoice)
}

// Preview serves the HTML preview of a stored invoice
func (h *InvoiceHandler) Preview(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid invoice ID", nil)
		return
	}

	html, err := h.invoiceUsecase.RenderPreview(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvoiceNotFound):
			response.NotFound(w, "Invoice not found")
		default:
			response.InternalServerError(w, "Failed to render preview")
		}
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(html))
}

// DownloadPDF serves the invoice document as a PDF download
func (h *InvoiceHandler) DownloadPDF(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid invoice ID", nil)
		return
	}

	filename, data, err := h.invoiceUsecase.RenderPDF(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvoiceNotFound):
			response.NotFound(w, "Invoice not found")
		default:
			response.InternalServerError(w, "Failed to render PDF")
		}
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Email dispatches the invoice PDF to the patient's email address
func (h *InvoiceHandler) Email(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid invoice ID", nil)
		return
	}

	var req dto.EmailInvoiceRequest
	if r.Body != nil {
		// Subject and message are optional; an empty body means defaults.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if err := h.invoiceUsecase.EmailPDF(r.Context(), id, &req); err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvoiceNotFound):
			response.NotFound(w, "Invoice not found")
		case errors.Is(err, usecase.ErrPatientHasNoEmail):
			response.Conflict(w, "Patient has no email address on file")
		default:
			response.InternalServerError(w, "Failed to send invoice email")
		}
		return
	}

	response.Success(w, http.StatusOK, "Invoice emailed successfully", nil)
}
