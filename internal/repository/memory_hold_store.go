package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/charliebuilding/fnl-website/internal/domain"
)

// MemoryHoldStore implements HoldStore with in-memory storage.
// This is useful for testing and development.
type MemoryHoldStore struct {
	holds map[string]*domain.PendingReservation
	mu    sync.RWMutex
}

// NewMemoryHoldStore creates a new in-memory hold store
func NewMemoryHoldStore() *MemoryHoldStore {
	return &MemoryHoldStore{
		holds: make(map[string]*domain.PendingReservation),
	}
}

// Create stores the hold
func (s *MemoryHoldStore) Create(ctx context.Context, hold *domain.PendingReservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Clone to avoid external modifications
	h := *hold
	h.Runners = append([]domain.Runner(nil), hold.Runners...)
	s.holds[hold.Token] = &h
	return nil
}

// Get fetches a hold by token
func (s *MemoryHoldStore) Get(ctx context.Context, token string) (*domain.PendingReservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hold, ok := s.holds[token]
	if !ok {
		return nil, domain.ErrHoldNotFound
	}
	h := *hold
	h.Runners = append([]domain.Runner(nil), hold.Runners...)
	return &h, nil
}

// Delete removes a hold; deleting an unknown token is a no-op
func (s *MemoryHoldStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.holds, token)
	return nil
}

// ExpiredTokens lists tokens whose expiry has passed, oldest first
func (s *MemoryHoldStore) ExpiredTokens(ctx context.Context, now time.Time, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var expired []*domain.PendingReservation
	for _, hold := range s.holds {
		if hold.Expired(now) {
			expired = append(expired, hold)
		}
	}
	sort.Slice(expired, func(i, j int) bool {
		return expired[i].ExpiresAt.Before(expired[j].ExpiresAt)
	})

	tokens := make([]string, 0, len(expired))
	for _, hold := range expired {
		if len(tokens) == limit {
			break
		}
		tokens = append(tokens, hold.Token)
	}
	return tokens, nil
}

var _ HoldStore = (*MemoryHoldStore)(nil)
