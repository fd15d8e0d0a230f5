package land

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps records in memory. Used by tests and as the reference
// implementation of the Store contract.
type MemoryStore struct {
	mu   sync.Mutex
	recs map[string]*Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{recs: map[string]*Record{}}
}

func (s *MemoryStore) Insert(rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	clone := *rec
	clone.Documents = append([]string(nil), rec.Documents...)
	s.recs[rec.ID] = &clone
	return nil
}

func (s *MemoryStore) FindByOwner(ownerID string, q Query) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Record{}
	for _, r := range s.recs {
		if r.OwnerID != ownerID {
			continue
		}
		if q.Type != "" && r.Type != q.Type {
			continue
		}
		if q.Status != "" && r.Status != q.Status {
			continue
		}
		clone := *r
		clone.Documents = append([]string(nil), r.Documents...)
		out = append(out, clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) FindByIDAndOwner(id, ownerID string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recs[id]
	if !ok || r.OwnerID != ownerID {
		return nil, ErrRecordNotFound
	}
	clone := *r
	clone.Documents = append([]string(nil), r.Documents...)
	return &clone, nil
}

// Count reports the number of stored records; test helper.
func (s *MemoryStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.recs)
}
