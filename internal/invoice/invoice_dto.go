package invoice

import (
	"github.com/shopspring/decimal"
)

type GenerateInvoiceRequest struct {
	SchoolID   string           `json:"school_id" binding:"required,uuid"`
	Month      int              `json:"month" binding:"required,min=1,max=12"`
	Year       int              `json:"year" binding:"required,min=2000,max=2100"`
	Adjustment *decimal.Decimal `json:"adjustment"`
}

type GenerateMonthlyRequest struct {
	Month int `json:"month" binding:"omitempty,min=1,max=12"`
	Year  int `json:"year" binding:"omitempty,min=2000,max=2100"`
}

type RecordPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note" binding:"max=500"`
}

type ListInvoicesFilter struct {
	SchoolID string `form:"school_id" binding:"omitempty,uuid"`
	Month    int    `form:"month" binding:"omitempty,min=1,max=12"`
	Year     int    `form:"year" binding:"omitempty,min=2000,max=2100"`
	Status   string `form:"status" binding:"omitempty,oneof=generated partial paid"`
}

type InvoiceLineResponse struct {
	PostingID      string          `json:"posting_id"`
	EmployeeID     string          `json:"employee_id"`
	EmployeeName   string          `json:"employee_name,omitempty"`
	BillingSalary  decimal.Decimal `json:"billing_salary"`
	TDSPercent     decimal.Decimal `json:"tds_percent"`
	UnpaidLeave    int             `json:"unpaid_leave"`
	DaysWorked     int             `json:"days_worked"`
	LeaveDeduction decimal.Decimal `json:"leave_deduction"`
	GrossAmount    decimal.Decimal `json:"gross_amount"`
	TDSAmount      decimal.Decimal `json:"tds_amount"`
	FinalAmount    decimal.Decimal `json:"final_amount"`
}

type PaymentResponse struct {
	ID     string          `json:"id"`
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note,omitempty"`
	PaidAt string          `json:"paid_at"`
}

type InvoiceResponse struct {
	ID                string                `json:"id"`
	InvoiceNumber     string                `json:"invoice_number"`
	SchoolID          string                `json:"school_id"`
	Month             int                   `json:"month"`
	Year              int                   `json:"year"`
	Lines             []InvoiceLineResponse `json:"employees"`
	Subtotal          decimal.Decimal       `json:"subtotal"`
	GSTAmount         decimal.Decimal       `json:"gst_amount"`
	CurrentBillTotal  decimal.Decimal       `json:"current_bill_total"`
	PreviousDue       decimal.Decimal       `json:"previous_due"`
	PreviousInvoiceID *string               `json:"previous_invoice_id,omitempty"`
	Adjustment        decimal.Decimal       `json:"adjustment"`
	GrandTotal        decimal.Decimal       `json:"grand_total"`
	PaidAmount        decimal.Decimal       `json:"paid_amount"`
	PendingAmount     decimal.Decimal       `json:"pending_amount"`
	Payments          []PaymentResponse     `json:"payment_history"`
	Status            string                `json:"status"`
	DocumentURL       *string               `json:"document_url,omitempty"`
	CreatedAt         string                `json:"created_at"`
}

type OutstandingInvoice struct {
	ID            string          `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	Month         int             `json:"month"`
	Year          int             `json:"year"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	PendingAmount decimal.Decimal `json:"pending_amount"`
	Status        string          `json:"status"`
}

type OutstandingResponse struct {
	SchoolID string               `json:"school_id"`
	TotalDue decimal.Decimal      `json:"total_due"`
	Invoices []OutstandingInvoice `json:"invoices"`
}

type BatchResult struct {
	SchoolID  string `json:"school_id"`
	InvoiceID string `json:"invoice_id,omitempty"`
	Skipped   bool   `json:"skipped,omitempty"`
	Error     string `json:"error,omitempty"`
}

type BatchReport struct {
	Month     int           `json:"month"`
	Year      int           `json:"year"`
	Generated int           `json:"generated"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Results   []BatchResult `json:"results"`
}
