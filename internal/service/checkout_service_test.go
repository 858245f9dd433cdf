package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charliebuilding/fnl-website/internal/domain"
	"github.com/charliebuilding/fnl-website/internal/dto"
	"github.com/charliebuilding/fnl-website/internal/gateway"
	"github.com/charliebuilding/fnl-website/internal/repository"
)

func newCheckoutFixture(t *testing.T, capacity int) (CheckoutService, *gateway.MockGateway, *repository.MemoryCapacityLedger) {
	t.Helper()
	cat := testCatalog(t, capacity)
	ledger := repository.NewMemoryCapacityLedger()
	reservations := NewReservationService(cat, ledger,
		repository.NewMemoryHoldStore(), repository.NewMemoryRegistrationRepository(), nil, nil)
	gw := gateway.NewMockGateway()
	svc := NewCheckoutService(cat, reservations, gw, nil)
	return svc, gw, ledger
}

func checkoutRunners(n int) []dto.RunnerInput {
	out := make([]dto.RunnerInput, n)
	for i := range out {
		out[i] = dto.RunnerInput{FirstName: "Runner", LastName: string(rune('A' + i))}
	}
	return out
}

func TestCheckoutService_StartCheckout(t *testing.T) {
	svc, gw, ledger := newCheckoutFixture(t, 10)
	ctx := context.Background()

	resp, err := svc.StartCheckout(ctx, &dto.CheckoutRequest{
		EventID:   "test-5k",
		TierID:    "general",
		Runners:   checkoutRunners(4),
		LeadEmail: "lead@example.com",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.Token)
	assert.NotEmpty(t, resp.SessionID)
	assert.Contains(t, resp.CheckoutURL, resp.SessionID)
	assert.Equal(t, 4, resp.Quantity)
	assert.Equal(t, int64(1800), resp.UnitPrice, "group of 4 pays the discounted rate")
	assert.Equal(t, int64(7200), resp.TotalPrice)
	assert.True(t, resp.Discounted)
	assert.False(t, resp.ExpiresAt.IsZero())

	// Capacity is held while the buyer sits on the payment page
	sold, reserved, err := ledger.Counters(ctx, "test-5k", "general")
	require.NoError(t, err)
	assert.Equal(t, 0, sold)
	assert.Equal(t, 4, reserved)

	// The gateway saw the hold token, so the webhook can settle it
	recorded, ok := gw.Session(resp.SessionID)
	require.True(t, ok)
	assert.Equal(t, resp.Token, recorded.Token)
	assert.Equal(t, "test-5k", recorded.EventID)
	assert.Equal(t, int64(1800), recorded.UnitPrice)
}

func TestCheckoutService_StartCheckoutReleasesOnGatewayFailure(t *testing.T) {
	svc, gw, ledger := newCheckoutFixture(t, 5)
	ctx := context.Background()

	gw.FailNext = true
	_, err := svc.StartCheckout(ctx, &dto.CheckoutRequest{
		EventID:   "test-5k",
		TierID:    "general",
		Runners:   checkoutRunners(2),
		LeadEmail: "lead@example.com",
	})
	require.Error(t, err)

	// The compensating release put the two units back
	sold, reserved, err := ledger.Counters(ctx, "test-5k", "general")
	require.NoError(t, err)
	assert.Equal(t, 0, sold)
	assert.Equal(t, 0, reserved)

	// A retry gets the full tier again
	resp, err := svc.StartCheckout(ctx, &dto.CheckoutRequest{
		EventID:   "test-5k",
		TierID:    "general",
		Runners:   checkoutRunners(5),
		LeadEmail: "lead@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, 5, resp.Quantity)
}

func TestCheckoutService_StartCheckoutSoldOut(t *testing.T) {
	svc, _, _ := newCheckoutFixture(t, 1)
	ctx := context.Background()

	_, err := svc.StartCheckout(ctx, &dto.CheckoutRequest{
		EventID:   "test-5k",
		TierID:    "general",
		Runners:   checkoutRunners(1),
		LeadEmail: "first@example.com",
	})
	require.NoError(t, err)

	_, err = svc.StartCheckout(ctx, &dto.CheckoutRequest{
		EventID:   "test-5k",
		TierID:    "general",
		Runners:   checkoutRunners(1),
		LeadEmail: "second@example.com",
	})
	assert.ErrorIs(t, err, domain.ErrSoldOut)
}

func TestCheckoutService_Quote(t *testing.T) {
	svc, _, _ := newCheckoutFixture(t, 10)
	ctx := context.Background()

	t.Run("single runner pays base price", func(t *testing.T) {
		quote, err := svc.Quote(ctx, "test-5k", "general", 1)
		require.NoError(t, err)
		assert.Equal(t, int64(2000), quote.BasePrice)
		assert.Equal(t, int64(2000), quote.UnitPrice)
		assert.Equal(t, int64(2000), quote.TotalPrice)
		assert.False(t, quote.Discounted)
	})

	t.Run("group of four gets the discount", func(t *testing.T) {
		quote, err := svc.Quote(ctx, "test-5k", "general", 4)
		require.NoError(t, err)
		assert.Equal(t, int64(1800), quote.UnitPrice)
		assert.Equal(t, int64(7200), quote.TotalPrice)
		assert.True(t, quote.Discounted)
	})

	t.Run("rejects oversized group", func(t *testing.T) {
		_, err := svc.Quote(ctx, "test-5k", "general", 7)
		assert.ErrorIs(t, err, domain.ErrInvalidGroupSize)
	})

	t.Run("unknown tier", func(t *testing.T) {
		_, err := svc.Quote(ctx, "test-5k", "nope", 2)
		assert.ErrorIs(t, err, domain.ErrTierNotFound)
	})
}
