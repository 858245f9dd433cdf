package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/charliebuilding/fnl-website/internal/domain"
)

// MemoryRegistrationRepository implements RegistrationRepository with in-memory storage.
// This is useful for testing and development.
type MemoryRegistrationRepository struct {
	registrations map[string]*domain.Registration
	mu            sync.RWMutex
}

// NewMemoryRegistrationRepository creates a new in-memory registration repository
func NewMemoryRegistrationRepository() *MemoryRegistrationRepository {
	return &MemoryRegistrationRepository{
		registrations: make(map[string]*domain.Registration),
	}
}

// Put inserts or replaces a registration keyed by its ID
func (r *MemoryRegistrationRepository) Put(ctx context.Context, reg *domain.Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *reg
	r.registrations[reg.ID] = &clone
	return nil
}

// ListBySession returns the registrations for a checkout session ordered by runner index
func (r *MemoryRegistrationRepository) ListBySession(ctx context.Context, sessionID string) ([]*domain.Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*domain.Registration
	for _, reg := range r.registrations {
		if reg.SessionID == sessionID {
			clone := *reg
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].RunnerIndex < result[j].RunnerIndex
	})
	return result, nil
}

var _ RegistrationRepository = (*MemoryRegistrationRepository)(nil)
