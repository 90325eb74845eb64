package renderer

import (
	"bytes"
	"fmt"

	"dental-clinic-api/internal/domain/entity"

	"github.com/jung-kurt/gofpdf"
)

// Fixed layout coordinates (mm on A4 portrait), mirroring the in-page
// document: patient block at y=60, table header at y=110, totals column at
// x=130/170.
const (
	colServiceX  = 20.0
	colPriceX    = 100.0
	colQuantityX = 130.0
	colTotalX    = 170.0
	totalsLabelX = 130.0
)

// RenderDocument produces the paginated PDF for a stored invoice. The layout
// uses deterministic absolute positioning; every monetary figure comes from
// the same formatted view the HTML preview consumes.
func RenderDocument(invoice *entity.Invoice, patient PatientInfo, clinic ClinicInfo) ([]byte, error) {
	view := buildView(invoice, patient, clinic)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	// Header
	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetTextColor(156, 39, 176)
	pdf.SetXY(0, 22)
	pdf.CellFormat(210, 10, "PRESUPUESTO", "", 0, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	pdf.SetXY(0, 34)
	pdf.CellFormat(210, 8, fmt.Sprintf("%s - %s", clinic.Name, clinic.Tagline), "", 0, "C", false, 0, "")
	pdf.SetXY(0, 44)
	pdf.CellFormat(210, 8, "Fecha: "+view.Date, "", 0, "C", false, 0, "")

	// Patient information block
	pdf.SetFillColor(245, 245, 255)
	pdf.Rect(15, 60, 180, 40, "F")

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(156, 39, 176)
	pdf.Text(20, 70, "Informacion del Paciente")

	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(80, 80, 80)
	pdf.Text(20, 80, "Codigo: "+view.Patient.Code)
	pdf.Text(20, 87, "Nombre: "+view.Patient.FullName)
	pdf.Text(20, 94, "Cedula: "+view.Patient.NationalID)
	pdf.Text(110, 80, "Email: "+view.Patient.Email)
	pdf.Text(110, 87, "Telefono: "+view.Patient.Phone)
	pdf.Text(110, 94, "Ultima Visita: "+view.Patient.LastVisit)

	// Services table header
	pdf.SetFillColor(156, 39, 176)
	pdf.SetTextColor(255, 255, 255)
	pdf.Rect(15, 110, 180, 10, "F")
	pdf.Text(colServiceX, 117, "Servicio")
	pdf.Text(colPriceX, 117, "Precio")
	pdf.Text(colQuantityX, 117, "Cantidad")
	pdf.Text(colTotalX, 117, "Total")

	// Service rows, striped
	y := 130.0
	pdf.SetTextColor(80, 80, 80)
	for i, line := range view.Lines {
		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 255)
			pdf.Rect(15, y-7, 180, 10, "F")
		}
		pdf.Text(colServiceX, y, line.Name)
		pdf.Text(colPriceX, y, line.Price)
		pdf.Text(colQuantityX, y, fmt.Sprintf("%d", line.Quantity))
		pdf.Text(colTotalX, y, line.Total)
		y += 10
	}

	// Totals
	y += 10
	pdf.Line(15, y, 195, y)
	y += 10

	pdf.Text(totalsLabelX, y, "Subtotal:")
	pdf.Text(colTotalX, y, view.Subtotal)
	y += 10

	if view.ShowDiscount {
		pdf.Text(totalsLabelX, y, "Descuento:")
		pdf.Text(colTotalX, y, view.Discount)
		y += 10
	}

	if view.ShowTax {
		pdf.Text(totalsLabelX, y, "ITBIS (5%):")
		pdf.Text(colTotalX, y, view.Tax)
		y += 10
	}

	pdf.SetFillColor(156, 39, 176)
	pdf.Rect(110, y, 85, 12, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(totalsLabelX, y+8, "TOTAL:")
	pdf.Text(colTotalX, y+8, view.Total)

	// Footer
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(156, 39, 176)
	pdf.SetXY(0, 266)
	pdf.CellFormat(210, 8, "Gracias por su preferencia", "", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
