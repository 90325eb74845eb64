package renderer

import (
	"bytes"
	"html/template"

	"dental-clinic-api/internal/domain/entity"
)

// previewTmpl replicates the in-page invoice preview: header with clinic
// identity and date, patient block, services table, totals column with
// discount/tax rows only when non-zero, and the export actions. The email
// action is rendered disabled, not hidden, when the patient has no email.
var previewTmpl = template.Must(template.New("invoice-preview").Parse(`<div class="invoice-preview">
  <div class="invoice-header">
    <div>
      <div class="invoice-title">PRESUPUESTO</div>
      <div class="invoice-date">Fecha: {{.Date}}</div>
    </div>
    <div class="invoice-company">
      <h3>{{.Clinic.Name}}</h3>
      <p>{{.Clinic.Tagline}}</p>
      <p>Tel: {{.Clinic.Phone}}</p>
    </div>
  </div>

  <div class="invoice-customer">
    <h4>Informaci&oacute;n del Paciente</h4>
    <div class="form-row">
      <div>
        <p><strong>C&oacute;digo:</strong> {{.Patient.Code}}</p>
        <p><strong>Nombre:</strong> {{.Patient.FullName}}</p>
      </div>
      <div>
        <p><strong>C&eacute;dula:</strong> {{.Patient.NationalID}}</p>
        <p><strong>Email:</strong> {{.Patient.Email}}</p>
      </div>
      <div>
        <p><strong>Tel&eacute;fono:</strong> {{.Patient.Phone}}</p>
        <p><strong>&Uacute;ltima Visita:</strong> {{.Patient.LastVisit}}</p>
      </div>
    </div>
  </div>

  <div class="invoice-services">
    <h4>Servicios</h4>
    <table class="table">
      <thead>
        <tr><th>Servicio</th><th>Precio</th><th>Cantidad</th><th>Total</th></tr>
      </thead>
      <tbody>
        {{range .Lines}}<tr>
          <td>{{.Name}}</td>
          <td>{{.Price}}</td>
          <td>{{.Quantity}}</td>
          <td>{{.Total}}</td>
        </tr>
        {{end}}
      </tbody>
    </table>
  </div>

  <div class="invoice-totals">
    <div class="invoice-total-row">
      <span>Subtotal:</span>
      <span>{{.Subtotal}}</span>
    </div>
    {{if .ShowDiscount}}<div class="invoice-total-row">
      <span>Descuento:</span>
      <span>{{.Discount}}</span>
    </div>
    {{end}}{{if .ShowTax}}<div class="invoice-total-row">
      <span>ITBIS (5%):</span>
      <span>{{.Tax}}</span>
    </div>
    {{end}}<div class="invoice-total-row grand-total">
      <span>TOTAL:</span>
      <span>{{.Total}}</span>
    </div>
  </div>

  <div class="invoice-actions">
    <button class="button primary-button" data-action="download-pdf">Descargar PDF</button>
    <button class="button secondary-button{{if not .Patient.HasEmail}} disabled{{end}}" data-action="send-email"{{if not .Patient.HasEmail}} disabled title="El paciente no tiene correo electr&oacute;nico"{{end}}>Enviar por Email</button>
  </div>
</div>
`))

// RenderPreview produces the HTML preview for a stored invoice.
func RenderPreview(invoice *entity.Invoice, patient PatientInfo, clinic ClinicInfo) (string, error) {
	var buf bytes.Buffer
	if err := previewTmpl.Execute(&buf, buildView(invoice, patient, clinic)); err != nil {
		return "", err
	}
	return buf.String(), nil
}
