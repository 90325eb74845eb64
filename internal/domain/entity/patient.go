package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Patient represents a registered patient of the practice.
//
// Code is the human-facing sequential identifier (P00001, P00002, ...). It is
// assigned once at registration and never reused, independent of the
// repository-assigned ID.
//
// Birthdate is nullable for legacy records that were registered before the
// field existed; Age is the stored fallback for those rows. Whenever a
// birthdate is present the current age is derived from it, never read from
// the column.
type Patient struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Code       string          `gorm:"type:varchar(10);uniqueIndex;not null" json:"code"`
	Name       string          `gorm:"type:varchar(100);not null" json:"name"`
	LastName   string          `gorm:"type:varchar(100);not null" json:"lastname"`
	Birthdate  *time.Time      `gorm:"type:date" json:"birthdate,omitempty"`
	Age        int             `gorm:"default:0" json:"age"`
	NationalID *string         `gorm:"type:varchar(30)" json:"national_id,omitempty"`
	Email      *string         `gorm:"type:varchar(255)" json:"email,omitempty"`
	Phone      *string         `gorm:"type:varchar(30)" json:"phone,omitempty"`
	LastVisit  *time.Time      `json:"last_visit,omitempty"`
	TotalSpent decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_spent"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Invoices []Invoice `gorm:"foreignKey:PatientID" json:"invoices,omitempty"`
}

func (Patient) TableName() string {
	return "patients"
}

// FullName returns the display name used on invoices.
func (p *Patient) FullName() string {
	return p.Name + " " + p.LastName
}

// HasEmail reports whether the patient has a usable email address on file.
func (p *Patient) HasEmail() bool {
	return p.Email != nil && *p.Email != ""
}
