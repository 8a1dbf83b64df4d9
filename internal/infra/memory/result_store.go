package memory

import (
	"context"
	"sync"
	"time"

	"classroom-game-service/internal/domain"
)

// ResultStore keeps settled results until they are read once or expire.
type ResultStore struct {
	ttl   time.Duration
	clock func() time.Time

	mu      sync.Mutex
	results map[string]storedResults
}

type storedResults struct {
	results   domain.RoomResults
	expiresAt time.Time
}

func NewResultStore(ttl time.Duration) *ResultStore {
	return &ResultStore{
		ttl:     ttl,
		clock:   time.Now,
		results: make(map[string]storedResults),
	}
}

func (s *ResultStore) Save(_ context.Context, results domain.RoomResults) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock()
	for code, r := range s.results {
		if !r.expiresAt.After(now) {
			delete(s.results, code)
		}
	}
	s.results[results.Code] = storedResults{results: results, expiresAt: now.Add(s.ttl)}
	return nil
}

func (s *ResultStore) Take(_ context.Context, code string) (domain.RoomResults, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.results[code]
	delete(s.results, code)
	if !ok || !r.expiresAt.After(s.clock()) {
		return domain.RoomResults{}, domain.ErrResultsNotFound
	}
	return r.results, nil
}
