package repository

import (
	"context"
	"testing"
	"time"

	"github.com/charliebuilding/fnl-website/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRegistrationRepository_PutIsUpsert(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRegistrationRepository()

	reg := &domain.Registration{
		ID:          "reg-1",
		SessionID:   "cs_test_1",
		RunnerIndex: 0,
		EventID:     "battersea-5k",
		TierID:      "general",
		Runner:      domain.Runner{FirstName: "Ada", LastName: "Lovelace"},
		AmountPaid:  1999,
		ConfirmedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Put(ctx, reg))

	// Replaying the same write must not duplicate the row
	require.NoError(t, repo.Put(ctx, reg))

	regs, err := repo.ListBySession(ctx, "cs_test_1")
	require.NoError(t, err)
	assert.Len(t, regs, 1)
}

func TestMemoryRegistrationRepository_ListBySessionOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRegistrationRepository()

	for _, idx := range []int{2, 0, 1} {
		require.NoError(t, repo.Put(ctx, &domain.Registration{
			ID:          string(rune('a' + idx)),
			SessionID:   "cs_test_1",
			RunnerIndex: idx,
		}))
	}
	require.NoError(t, repo.Put(ctx, &domain.Registration{
		ID:          "other",
		SessionID:   "cs_test_2",
		RunnerIndex: 0,
	}))

	regs, err := repo.ListBySession(ctx, "cs_test_1")
	require.NoError(t, err)
	require.Len(t, regs, 3)
	for i, reg := range regs {
		assert.Equal(t, i, reg.RunnerIndex)
	}

	regs, err = repo.ListBySession(ctx, "cs_test_unknown")
	require.NoError(t, err)
	assert.Empty(t, regs)
}
