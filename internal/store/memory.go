package store

import (
	"sort"
	"sync"
)

const subscriberBuffer = 100

// MemoryStore is an in-memory [Store] with non-blocking pub/sub.
//
// Subscribers receive updates via channels buffered to 100 records. When a
// subscriber's buffer is full the update is dropped for that subscriber.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record

	subMu       sync.RWMutex
	subscribers map[chan Record]struct{}
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:     make(map[string]Record),
		subscribers: make(map[chan Record]struct{}),
	}
}

// Update stores record under its ID and notifies subscribers.
func (m *MemoryStore) Update(record Record) {
	m.mu.Lock()
	m.records[record.ID] = record
	m.mu.Unlock()

	m.notifySubscribers(record)
}

// Get returns the record with the given ID.
func (m *MemoryStore) Get(id string) (Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.records[id]
	return r, ok
}

// GetAll returns a copy of all records ordered by start time, then ID.
func (m *MemoryStore) GetAll() []Record {
	m.mu.RLock()
	results := make([]Record, 0, len(m.records))
	for _, r := range m.records {
		results = append(results, r)
	}
	m.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		if !results[i].StartedAt.Equal(results[j].StartedAt) {
			return results[i].StartedAt.Before(results[j].StartedAt)
		}
		return results[i].ID < results[j].ID
	})
	return results
}

// Subscribe registers a subscriber and returns its channel.
func (m *MemoryStore) Subscribe() <-chan Record {
	ch := make(chan Record, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (m *MemoryStore) Unsubscribe(ch <-chan Record) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// notifySubscribers sends without blocking; full subscribers miss the update.
func (m *MemoryStore) notifySubscribers(record Record) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- record:
		default:
		}
	}
}
