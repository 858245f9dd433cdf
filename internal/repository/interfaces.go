package repository

import (
	"context"
	"time"

	"github.com/charliebuilding/fnl-website/internal/domain"
)

// ReserveOutcome is the result of an atomic reserve attempt. On a grant,
// Available is the remaining availability after the hold; on a refusal it
// is the availability that was observed.
type ReserveOutcome struct {
	Granted   bool
	Available int
}

// ConfirmStatus reports how a confirm attempt resolved against the
// ledger's per-token arbitration.
type ConfirmStatus int

const (
	// ConfirmApplied means this call moved qty from reserved to sold.
	ConfirmApplied ConfirmStatus = iota
	// ConfirmReplayed means an earlier confirm already moved the
	// counters; the sale stands and registrations may be (re)written.
	ConfirmReplayed
	// ConfirmLost means a release already resolved the token; nothing
	// moved and no sale exists for it.
	ConfirmLost
)

// ReleaseStatus reports how a release attempt resolved against the
// ledger's per-token arbitration.
type ReleaseStatus int

const (
	// ReleaseApplied means this call returned qty to the pool.
	ReleaseApplied ReleaseStatus = iota
	// ReleaseReplayed means an earlier release already returned the
	// quantity; the hold record is safe to clean up.
	ReleaseReplayed
	// ReleaseLost means a confirm already resolved the token; the hold
	// record must be left for the confirm path to settle.
	ReleaseLost
)

// CapacityLedger is the strongly-consistent counter store for a tier's
// sold and reserved counts. All three mutations are atomic per
// (eventID, tierID); tiers are fully independent of each other.
// Confirm and Release arbitrate per token in the same atomic step that
// moves the counters, so concurrent resolution of one hold settles as
// exactly one of confirmed or released.
type CapacityLedger interface {
	// TryReserve checks available >= qty and increments reserved in one
	// atomic step. It never grants more than totalCapacity allows.
	TryReserve(ctx context.Context, eventID, tierID string, qty, totalCapacity int) (*ReserveOutcome, error)

	// Confirm moves qty from reserved to sold at most once per token.
	// A replayed confirm reports ConfirmReplayed and leaves the counters
	// untouched, which makes webhook redelivery after a partial confirm
	// safe; a token already resolved by Release reports ConfirmLost.
	Confirm(ctx context.Context, eventID, tierID, token string, qty int) (ConfirmStatus, error)

	// Release returns qty from reserved to the pool at most once per
	// token, clamped at zero so a double release can never drive the
	// counter negative. A token already resolved leaves the counters
	// untouched and reports which side won.
	Release(ctx context.Context, eventID, tierID, token string, qty int) (ReleaseStatus, error)

	// Counters reads the current sold and reserved counts.
	Counters(ctx context.Context, eventID, tierID string) (sold, reserved int, err error)
}

// HoldStore keeps pending capacity holds keyed by token. Records are
// created by Reserve and deleted exactly once by Confirm or Release;
// they are never updated in place.
type HoldStore interface {
	Create(ctx context.Context, hold *domain.PendingReservation) error

	// Get returns domain.ErrHoldNotFound for an unknown or already
	// resolved token.
	Get(ctx context.Context, token string) (*domain.PendingReservation, error)

	Delete(ctx context.Context, token string) error

	// ExpiredTokens lists up to limit tokens whose expiry has passed,
	// for the reaper to release.
	ExpiredTokens(ctx context.Context, now time.Time, limit int) ([]string, error)
}

// RegistrationRepository stores permanent per-runner sale records.
// Put is an upsert keyed by registration ID so a replayed confirmation
// writes the same rows again instead of duplicating them.
type RegistrationRepository interface {
	Put(ctx context.Context, reg *domain.Registration) error
	ListBySession(ctx context.Context, sessionID string) ([]*domain.Registration, error)
}
