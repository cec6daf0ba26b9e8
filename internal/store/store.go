package store

import "time"

// Record is the latest known state of one poll run.
//
// Record is the storage representation, shaped for JSON (REST API and SSE).
// It is decoupled from the pollstate types so either can evolve alone.
type Record struct {
	// ID identifies the poll run. Updates with the same ID replace each other.
	ID string `json:"id"`

	// Kind names the call site, e.g. "signer", "deployment" or "login".
	Kind string `json:"kind"`

	// ResourceID is the polled resource.
	ResourceID string `json:"resource_id"`

	// Status is the last status observed.
	Status string `json:"status"`

	// Attempt is the number of checks made so far.
	Attempt int `json:"attempt"`

	// ConsecutiveErrors is the current run of failed checks.
	ConsecutiveErrors int `json:"consecutive_errors"`

	// Outcome is empty while the poll runs and holds the outcome kind after.
	Outcome string `json:"outcome,omitempty"`

	// Error is the last error message, nil if the last check succeeded.
	Error *string `json:"error"`

	// StartedAt is when the poll run began.
	StartedAt time.Time `json:"started_at"`

	// UpdatedAt is when this record was last written.
	UpdatedAt time.Time `json:"updated_at"`
}

// Done reports whether the poll run has reached an outcome.
func (r Record) Done() bool {
	return r.Outcome != ""
}

// Store defines storage and subscription for poll records.
//
// Implementations must be safe for concurrent access.
type Store interface {
	// Update stores a record and notifies all subscribers.
	Update(record Record)

	// Get returns the record with the given ID.
	Get(id string) (Record, bool)

	// GetAll returns a snapshot of all records, oldest run first.
	GetAll() []Record

	// Subscribe returns a buffered channel of updates. Slow consumers may
	// miss updates. Callers must Unsubscribe when done.
	Subscribe() <-chan Record

	// Unsubscribe removes a subscription and closes its channel.
	// Safe to call with an unknown or already removed channel.
	Unsubscribe(ch <-chan Record)
}
