package invoice

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	StatusGenerated = "generated"
	StatusPartial   = "partial"
	StatusPaid      = "paid"
)

// Invoice is the monthly bill of one school. Lines are frozen at
// generation; only the payment fields change afterwards.
type Invoice struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	InvoiceNumber string    `gorm:"type:varchar(30);not null;uniqueIndex:uq_invoices_number"`
	SchoolID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_invoices_school_period,priority:1;index:idx_invoices_school_pending,priority:1"`
	Month         int       `gorm:"not null;uniqueIndex:uq_invoices_school_period,priority:2"`
	Year          int       `gorm:"not null;uniqueIndex:uq_invoices_school_period,priority:3"`

	Subtotal         decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	GSTAmount        decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	CurrentBillTotal decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	PreviousDue      decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Adjustment       decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	GrandTotal       decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	PaidAmount       decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	PendingAmount    decimal.Decimal `gorm:"type:numeric(14,2);not null;index:idx_invoices_school_pending,priority:2"`

	// PreviousInvoiceID points at the invoice whose pending balance was carried in.
	PreviousInvoiceID *uuid.UUID `gorm:"type:uuid"`
	Status            string     `gorm:"type:varchar(20);not null;index"`
	DocumentURL       *string    `gorm:"type:text"`

	CreatedBy *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time  `gorm:"index"`
	UpdatedAt time.Time

	Lines    []InvoiceLine    `gorm:"foreignKey:InvoiceID"`
	Payments []InvoicePayment `gorm:"foreignKey:InvoiceID"`
}

func (Invoice) TableName() string {
	return "invoices"
}

// InvoiceLine snapshots one billed posting.
type InvoiceLine struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	InvoiceID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	PostingID      uuid.UUID       `gorm:"type:uuid;not null"`
	EmployeeID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	EmployeeName   string          `gorm:"type:varchar(150)"`
	BillingSalary  decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	TDSPercent     decimal.Decimal `gorm:"type:numeric(5,2);not null"`
	UnpaidLeave    int             `gorm:"not null"`
	DaysWorked     int             `gorm:"not null"`
	LeaveDeduction decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	GrossAmount    decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	TDSAmount      decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	FinalAmount    decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Position       int             `gorm:"not null"`
}

func (InvoiceLine) TableName() string {
	return "invoice_lines"
}

// InvoicePayment is append-only.
type InvoicePayment struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	InvoiceID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount     decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Note       string          `gorm:"type:text"`
	PaidAt     time.Time       `gorm:"not null"`
	RecordedBy *uuid.UUID      `gorm:"type:uuid"`
	CreatedAt  time.Time
}

func (InvoicePayment) TableName() string {
	return "invoice_payments"
}
