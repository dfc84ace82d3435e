package notification

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory implementation of the Store interface.
// Suitable for development and testing.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*memoryRecord
	seq     uint64
}

type memoryRecord struct {
	Record
	seq uint64
}

// NewMemoryStore creates a new in-memory record store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*memoryRecord),
	}
}

func (s *MemoryStore) Create(ctx context.Context, recipientID string, channel Channel, content string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	id := uuid.NewString()
	s.records[id] = &memoryRecord{
		Record: Record{
			ID:          id,
			RecipientID: recipientID,
			Channel:     channel,
			Content:     content,
			Status:      StatusPending,
			CreatedAt:   time.Now(),
		},
		seq: s.seq,
	}
	return id, nil
}

func (s *MemoryStore) UpdateStatus(ctx context.Context, id string, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Unknown ids are tolerated so redelivered tasks stay harmless.
	if rec, ok := s.records[id]; ok {
		rec.Status = status
	}
	return nil
}

func (s *MemoryStore) ListByRecipient(ctx context.Context, recipientID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*memoryRecord, 0)
	for _, rec := range s.records {
		if rec.RecipientID == recipientID {
			matched = append(matched, rec)
		}
	}

	// Newest first; insertion order breaks timestamp ties.
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].seq > matched[j].seq
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	out := make([]Record, 0, len(matched))
	for _, rec := range matched {
		out = append(out, rec.Record)
	}
	return out, nil
}

// Get returns a copy of the record with the given id, or false if absent.
// Test helper; not part of the Store contract.
func (s *MemoryStore) Get(id string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return Record{}, false
	}
	return rec.Record, true
}

// Len returns the number of stored records. Test helper.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
