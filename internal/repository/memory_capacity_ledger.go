package repository

import (
	"context"
	"sync"
)

type tierCounters struct {
	sold     int
	reserved int
}

// Token resolution states mirroring the Redis resolution markers
const (
	resolvedConfirmed = "confirmed"
	resolvedReleased  = "released"
)

// MemoryCapacityLedger implements CapacityLedger with in-process state.
// Useful for tests and single-process deployments; the mutex gives the
// same linearizability per tier that the Lua scripts give on Redis, and
// the resolved map plays the role of the per-token resolution markers.
type MemoryCapacityLedger struct {
	counters map[string]*tierCounters // capacity key -> counters
	resolved map[string]string        // token -> confirmed | released
	mu       sync.Mutex
}

// NewMemoryCapacityLedger creates a new in-memory capacity ledger
func NewMemoryCapacityLedger() *MemoryCapacityLedger {
	return &MemoryCapacityLedger{
		counters: make(map[string]*tierCounters),
		resolved: make(map[string]string),
	}
}

func (l *MemoryCapacityLedger) tier(eventID, tierID string) *tierCounters {
	key := capacityKey(eventID, tierID)
	c, ok := l.counters[key]
	if !ok {
		c = &tierCounters{}
		l.counters[key] = c
	}
	return c
}

// TryReserve atomically checks availability and holds qty on success
func (l *MemoryCapacityLedger) TryReserve(ctx context.Context, eventID, tierID string, qty, totalCapacity int) (*ReserveOutcome, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c := l.tier(eventID, tierID)
	available := totalCapacity - c.sold - c.reserved
	if available < qty {
		return &ReserveOutcome{Granted: false, Available: available}, nil
	}

	c.reserved += qty
	return &ReserveOutcome{Granted: true, Available: available - qty}, nil
}

// Confirm moves qty from reserved to sold, at most once per token
func (l *MemoryCapacityLedger) Confirm(ctx context.Context, eventID, tierID, token string, qty int) (ConfirmStatus, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.resolved[token] {
	case resolvedReleased:
		return ConfirmLost, nil
	case resolvedConfirmed:
		return ConfirmReplayed, nil
	}
	l.resolved[token] = resolvedConfirmed

	c := l.tier(eventID, tierID)
	c.sold += qty
	if c.reserved < qty {
		c.reserved = 0
	} else {
		c.reserved -= qty
	}
	return ConfirmApplied, nil
}

// Release returns qty to the pool, at most once per token
func (l *MemoryCapacityLedger) Release(ctx context.Context, eventID, tierID, token string, qty int) (ReleaseStatus, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.resolved[token] {
	case resolvedConfirmed:
		return ReleaseLost, nil
	case resolvedReleased:
		return ReleaseReplayed, nil
	}
	l.resolved[token] = resolvedReleased

	c := l.tier(eventID, tierID)
	if c.reserved < qty {
		c.reserved = 0
	} else {
		c.reserved -= qty
	}
	return ReleaseApplied, nil
}

// Counters reads the sold and reserved counts for a tier
func (l *MemoryCapacityLedger) Counters(ctx context.Context, eventID, tierID string) (int, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c := l.tier(eventID, tierID)
	return c.sold, c.reserved, nil
}

var _ CapacityLedger = (*MemoryCapacityLedger)(nil)
