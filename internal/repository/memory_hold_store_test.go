package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/charliebuilding/fnl-website/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHold(token string, expiresAt time.Time) *domain.PendingReservation {
	now := time.Now().UTC()
	return &domain.PendingReservation{
		Token:   token,
		EventID: "battersea-5k",
		TierID:  "general",
		Runners: []domain.Runner{
			{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"},
			{FirstName: "Alan", LastName: "Turing"},
		},
		Quantity:  2,
		LeadEmail: "ada@example.com",
		UnitPrice: 1999,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}
}

func TestMemoryHoldStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryHoldStore()

	hold := testHold("tok-1", time.Now().Add(time.Hour))
	require.NoError(t, store.Create(ctx, hold))

	got, err := store.Get(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, hold.EventID, got.EventID)
	assert.Equal(t, hold.Quantity, got.Quantity)
	assert.Equal(t, hold.Runners, got.Runners)
	assert.Equal(t, hold.UnitPrice, got.UnitPrice)

	// Mutating the returned copy must not leak into the store
	got.Runners[0].FirstName = "changed"
	again, err := store.Get(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", again.Runners[0].FirstName)
}

func TestMemoryHoldStore_GetUnknownToken(t *testing.T) {
	store := NewMemoryHoldStore()

	_, err := store.Get(context.Background(), "no-such-token")
	assert.True(t, errors.Is(err, domain.ErrHoldNotFound))
}

func TestMemoryHoldStore_DeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryHoldStore()

	require.NoError(t, store.Create(ctx, testHold("tok-1", time.Now().Add(time.Hour))))
	require.NoError(t, store.Delete(ctx, "tok-1"))

	_, err := store.Get(ctx, "tok-1")
	assert.True(t, errors.Is(err, domain.ErrHoldNotFound))

	// Second delete is a no-op
	assert.NoError(t, store.Delete(ctx, "tok-1"))
}

func TestMemoryHoldStore_ExpiredTokens(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryHoldStore()
	now := time.Now().UTC()

	require.NoError(t, store.Create(ctx, testHold("old", now.Add(-2*time.Hour))))
	require.NoError(t, store.Create(ctx, testHold("older", now.Add(-3*time.Hour))))
	require.NoError(t, store.Create(ctx, testHold("live", now.Add(time.Hour))))

	tokens, err := store.ExpiredTokens(ctx, now, 10)
	require.NoError(t, err)
	// Oldest first, live hold excluded
	assert.Equal(t, []string{"older", "old"}, tokens)

	// The limit caps the batch
	tokens, err = store.ExpiredTokens(ctx, now, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"older"}, tokens)
}
