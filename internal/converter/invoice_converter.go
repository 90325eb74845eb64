package converter

import (
	"dental-clinic-api/internal/delivery/dto"
	"dental-clinic-api/internal/domain/entity"
)

func InvoiceToResponse(invoice *entity.Invoice) *dto.InvoiceResponse {
	if invoice == nil {
		return nil
	}

	lines := make([]dto.InvoiceLineResponse, 0, len(invoice.Lines))
	for _, line := range invoice.Lines {
		lines = append(lines, dto.InvoiceLineResponse{
			Name:     line.Name,
			Price:    line.Price,
			Quantity: line.Quantity,
			Total:    line.Total,
		})
	}

	return &dto.InvoiceResponse{
		ID:          invoice.ID,
		PatientID:   invoice.PatientID,
		PatientCode: invoice.PatientCode,
		PatientName: invoice.PatientName,
		Lines:       lines,
		Subtotal:    invoice.Subtotal,
		Discount:    invoice.Discount,
		Tax:         invoice.Tax,
		Total:       invoice.Total,
		SyncPending: invoice.SyncPending,
		CreatedAt:   invoice.CreatedAt,
	}
}

func InvoicesToResponses(invoices []entity.Invoice) []dto.InvoiceResponse {
	responses := make([]dto.InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		responses = append(responses, *InvoiceToResponse(&invoices[i]))
	}
	return responses
}
