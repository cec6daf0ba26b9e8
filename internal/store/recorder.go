package store

import (
	"sync"
	"time"

	"github.com/jpalmerr/pollstate"
)

// Recorder writes the progress of a single poll run into a [Store].
//
// Pass [Recorder.Attempt] to pollstate.WithAttemptCallback and call
// [Recorder.Finish] with the outcome once Poll returns.
type Recorder struct {
	store Store
	now   func() time.Time

	mu     sync.Mutex
	record Record
}

// NewRecorder creates a [Recorder] for a poll run and stores its initial
// record.
func NewRecorder(s Store, id, kind, resourceID string) *Recorder {
	r := &Recorder{store: s, now: time.Now}
	now := r.now()
	r.record = Record{
		ID:         id,
		Kind:       kind,
		ResourceID: resourceID,
		StartedAt:  now,
		UpdatedAt:  now,
	}
	s.Update(r.record)
	return r
}

// Attempt records a settled check.
func (r *Recorder) Attempt(a pollstate.Attempt) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.record.Attempt = a.Number
	r.record.ConsecutiveErrors = a.ConsecutiveErrors
	if a.Err != nil {
		msg := a.Err.Error()
		r.record.Error = &msg
	} else {
		r.record.Status = a.Status.String()
		r.record.Error = nil
	}
	r.record.UpdatedAt = a.CheckedAt
	if r.record.UpdatedAt.IsZero() {
		r.record.UpdatedAt = r.now()
	}
	r.store.Update(r.record)
}

// Finish records the outcome of the run.
func (r *Recorder) Finish(o pollstate.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.record.Outcome = o.Kind.String()
	r.record.Status = o.Status.String()
	r.record.Attempt = o.Attempts
	if o.Err != nil {
		msg := o.Err.Error()
		r.record.Error = &msg
	}
	r.record.UpdatedAt = r.now()
	r.store.Update(r.record)
}

// Record returns the current record.
func (r *Recorder) Record() Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.record
}
