// Package renderer turns a persisted invoice into its two output
// representations: the on-screen HTML preview and the paginated PDF
// document. Both consume the same invoiceView built from the stored
// breakdown, so their monetary figures cannot diverge; neither recomputes
// totals.
package renderer

import (
	"dental-clinic-api/internal/domain/entity"

	"github.com/shopspring/decimal"
)

// Money formats a monetary value for display. Single formatting rule shared
// by the preview and the document.
func Money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// ClinicInfo is the practice identity printed in the invoice header.
type ClinicInfo struct {
	Name    string
	Tagline string
	Phone   string
}

// PatientInfo is the patient block as displayed: absent optionals come in as
// "N/A" already, so the renderers hold no sentinel logic.
type PatientInfo struct {
	Code       string
	FullName   string
	NationalID string
	Email      string
	Phone      string
	LastVisit  string
	HasEmail   bool
}

type lineView struct {
	Name     string
	Price    string
	Quantity int
	Total    string
}

// invoiceView is the fully formatted model both renderers draw from.
type invoiceView struct {
	Clinic  ClinicInfo
	Patient PatientInfo
	Date    string

	Lines []lineView

	Subtotal     string
	Discount     string
	Tax          string
	Total        string
	ShowDiscount bool
	ShowTax      bool
}

func buildView(invoice *entity.Invoice, patient PatientInfo, clinic ClinicInfo) invoiceView {
	lines := make([]lineView, 0, len(invoice.Lines))
	for _, line := range invoice.Lines {
		lines = append(lines, lineView{
			Name:     line.Name,
			Price:    Money(line.Price),
			Quantity: line.Quantity,
			Total:    Money(line.Total),
		})
	}

	return invoiceView{
		Clinic:       clinic,
		Patient:      patient,
		Date:         invoice.CreatedAt.Format("02/01/2006"),
		Lines:        lines,
		Subtotal:     Money(invoice.Subtotal),
		Discount:     "-" + Money(invoice.Discount),
		Tax:          Money(invoice.Tax),
		Total:        Money(invoice.Total),
		ShowDiscount: invoice.Discount.IsPositive(),
		ShowTax:      !invoice.Tax.IsZero(),
	}
}

// PatientInfoFrom builds the display block from a live patient record.
func PatientInfoFrom(patient *entity.Patient) PatientInfo {
	info := PatientInfo{
		Code:       patient.Code,
		FullName:   patient.FullName(),
		NationalID: orNA(patient.NationalID),
		Email:      orNA(patient.Email),
		Phone:      orNA(patient.Phone),
		LastVisit:  "No registrada",
		HasEmail:   patient.HasEmail(),
	}
	if patient.LastVisit != nil {
		info.LastVisit = patient.LastVisit.Format("02/01/2006")
	}
	return info
}

// PatientInfoFromSnapshot builds the display block from the denormalized
// invoice fields alone, for invoices whose patient was later deleted.
func PatientInfoFromSnapshot(invoice *entity.Invoice) PatientInfo {
	return PatientInfo{
		Code:       invoice.PatientCode,
		FullName:   invoice.PatientName,
		NationalID: "N/A",
		Email:      "N/A",
		Phone:      "N/A",
		LastVisit:  invoice.CreatedAt.Format("02/01/2006"),
	}
}

func orNA(s *string) string {
	if s == nil || *s == "" {
		return "N/A"
	}
	return *s
}
