package session

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is a lightweight Store for tests and the CLI. Writes are
// serialized by a mutex, which doubles as the single-writer guarantee the
// engine assumes from real stores. Utterance timestamps are stamped on
// persist, matching the contract that timestamps are absent until stored.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	now     func() time.Time
}

// NewMemoryStore constructs an in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record), now: time.Now}
}

// WithNow injects a deterministic clock for tests.
func (s *MemoryStore) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return record, nil
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if existing, ok := s.records[record.ID]; ok {
		record.CreatedAt = existing.CreatedAt
	} else if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	for i := range record.History {
		if record.History[i].Timestamp == nil {
			stamped := now
			record.History[i].Timestamp = &stamped
		}
	}
	s.records[record.ID] = record
	return nil
}

// List implements Store, returning records ordered by creation time.
func (s *MemoryStore) List(_ context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.records))
	for _, record := range s.records {
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
