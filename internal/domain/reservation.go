package domain

import "time"

// MaxGroupSize is the most runners one checkout may register
const MaxGroupSize = 6

// Runner is one participant in a group checkout
type Runner struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email,omitempty"`
}

// HoldStatus is the lifecycle state of a capacity hold.
// A hold moves NONE -> RESERVED -> {CONFIRMED | RELEASED}; the two
// terminal states are represented by the hold record being gone.
type HoldStatus string

const (
	HoldStatusReserved  HoldStatus = "reserved"
	HoldStatusConfirmed HoldStatus = "confirmed"
	HoldStatusReleased  HoldStatus = "released"
)

// PendingReservation is an ephemeral capacity hold created at checkout
// start. It is consumed exactly once, by Confirm or Release, and is the
// single source of truth for "not yet resolved".
type PendingReservation struct {
	Token     string    `json:"token"`
	EventID   string    `json:"event_id"`
	TierID    string    `json:"tier_id"`
	Quantity  int       `json:"quantity"`
	Runners   []Runner  `json:"runners"`
	LeadEmail string    `json:"lead_email"`
	UnitPrice int64     `json:"unit_price"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the hold has outlived its TTL
func (r *PendingReservation) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// Registration is a permanent, immutable per-runner sale record. One is
// materialized per runner when a hold is confirmed; it is never deleted.
type Registration struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	RunnerIndex int       `json:"runner_index"`
	EventID     string    `json:"event_id"`
	TierID      string    `json:"tier_id"`
	Runner      Runner    `json:"runner"`
	LeadEmail   string    `json:"lead_email"`
	AmountPaid  int64     `json:"amount_paid"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}
