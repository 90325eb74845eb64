package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceLine is one billed service on an invoice. Lines are not entities of
// their own; they live embedded in the invoice row as a JSON column.
type InvoiceLine struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Total    decimal.Decimal `json:"total"`
}

// InvoiceLines is the ordered set of lines, stored as jsonb.
type InvoiceLines []InvoiceLine

func (l InvoiceLines) Value() (driver.Value, error) {
	return json.Marshal(l)
}

func (l *InvoiceLines) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	case nil:
		*l = nil
		return nil
	default:
		return errors.New("invoice lines: unsupported column type")
	}
}

// Invoice is an immutable record of one generated budget. The patient code
// and name are denormalized so the invoice stays readable after the patient
// is edited or deleted.
//
// SyncPending marks rows that could only be written to the local cache tier
// because the primary store was unreachable at generation time.
type Invoice struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PatientID   *uuid.UUID      `gorm:"type:uuid;index" json:"patient_id,omitempty"`
	PatientCode string          `gorm:"type:varchar(10);not null" json:"patient_code"`
	PatientName string          `gorm:"type:varchar(200);not null" json:"patient_name"`
	Lines       InvoiceLines    `gorm:"type:jsonb;not null" json:"lines"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	Discount    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"discount"`
	Tax         decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"tax"`
	Total       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	SyncPending bool            `gorm:"-" json:"sync_pending,omitempty"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (Invoice) TableName() string {
	return "invoices"
}
