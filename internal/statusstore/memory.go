// Package statusstore provides step status persistence backends.
package statusstore

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gridflow/gridflow/internal/step/core"
)

// Record is one persisted step status update.
type Record struct {
	Status    core.Status
	Msg       string
	UpdatedAt time.Time
}

// InMemoryStore keeps step statuses and serialized details in memory. It is
// safe for concurrent use.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string][]Record
	details map[string][]core.ItemDetail
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[string][]Record),
		details: make(map[string][]core.ItemDetail),
	}
}

func (s *InMemoryStore) Update(stepID uuid.UUID, status core.Status, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := stepID.String()
	s.records[key] = append(s.records[key], Record{
		Status:    status,
		Msg:       msg,
		UpdatedAt: time.Now().UTC(),
	})
	return nil
}

func (s *InMemoryStore) SaveDetail(stepID uuid.UUID, detail []core.ItemDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.details[stepID.String()] = detail
	return nil
}

// Latest returns the most recent status update for a step.
func (s *InMemoryStore) Latest(stepID uuid.UUID) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := s.records[stepID.String()]
	if len(records) == 0 {
		return Record{}, false
	}
	return records[len(records)-1], true
}

// History returns all status updates for a step, oldest first.
func (s *InMemoryStore) History(stepID uuid.UUID) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[stepID.String()]
}

// Detail returns the last saved serialized detail for a step.
func (s *InMemoryStore) Detail(stepID uuid.UUID) []core.ItemDetail {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.details[stepID.String()]
}
