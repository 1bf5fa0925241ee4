package events

import "time"

const (
	PostingChangedTopic = "schoolops.posting.lifecycle.v1"
	PostingCreatedType  = "posting.created"
	PostingUpdatedType  = "posting.updated"
)

// PostingChangedEvent carries the settled state of a posting after roster sync.
type PostingChangedEvent struct {
	EventType  string    `json:"event_type"`
	PostingID  string    `json:"posting_id"`
	EmployeeID string    `json:"employee_id"`
	SchoolID   string    `json:"school_id"`
	Status     string    `json:"status"`
	IsActive   bool      `json:"is_active"`
	ActorID    string    `json:"actor_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
