package events

import "time"

const (
	InvoiceGeneratedTopic = "schoolops.invoice.generated.v1"
	InvoiceGeneratedType  = "invoice.generated"
)

type InvoiceGeneratedEvent struct {
	EventType     string    `json:"event_type"`
	InvoiceID     string    `json:"invoice_id"`
	InvoiceNumber string    `json:"invoice_number"`
	SchoolID      string    `json:"school_id"`
	Month         int       `json:"month"`
	Year          int       `json:"year"`
	GrandTotal    string    `json:"grand_total"`
	OccurredAt    time.Time `json:"occurred_at"`
}
