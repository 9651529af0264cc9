package memory

import (
	"context"
	"sync"

	"github.com/FilipeSCampos/GameSphere/internal/domain/search"
)

// DefaultCapacity is the number of records kept when New is given a non-positive capacity.
const DefaultCapacity = 100

// SearchLog is a thread-safe in-memory ports.SearchLog that keeps the most
// recent records in a fixed-size ring.
type SearchLog struct {
	mu sync.Mutex

	// ring holds up to cap(ring) records; next is the slot written next.
	ring []search.Record
	next int
	full bool
}

// New creates a SearchLog holding at most capacity records.
func New(capacity int) *SearchLog {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &SearchLog{ring: make([]search.Record, capacity)}
}

func (s *SearchLog) Append(_ context.Context, rec search.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ring[s.next] = rec
	s.next = (s.next + 1) % len(s.ring)
	if s.next == 0 {
		s.full = true
	}
	return nil
}

func (s *SearchLog) Recent(_ context.Context, limit int) ([]search.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	size := s.next
	if s.full {
		size = len(s.ring)
	}
	if limit <= 0 || limit > size {
		limit = size
	}

	out := make([]search.Record, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (s.next - i + len(s.ring)) % len(s.ring)
		out = append(out, s.ring[idx])
	}
	return out, nil
}

// Ping always succeeds; the in-memory log has nothing to connect to.
func (s *SearchLog) Ping(_ context.Context) error { return nil }
