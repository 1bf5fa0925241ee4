package events

import "time"

const (
	InvoicePaymentRecordedTopic = "schoolops.invoice.payment_recorded.v1"
	InvoicePaymentRecordedType  = "invoice.payment_recorded"
)

type InvoicePaymentRecordedEvent struct {
	EventType     string    `json:"event_type"`
	InvoiceID     string    `json:"invoice_id"`
	PaymentID     string    `json:"payment_id"`
	SchoolID      string    `json:"school_id"`
	Amount        string    `json:"amount"`
	PendingAmount string    `json:"pending_amount"`
	Status        string    `json:"status"`
	RecordedBy    string    `json:"recorded_by,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}
