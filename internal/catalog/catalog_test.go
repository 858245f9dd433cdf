package catalog

import (
	"errors"
	"testing"

	"github.com/charliebuilding/fnl-website/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	cat, err := Load()
	require.NoError(t, err)

	events := cat.Events()
	require.Len(t, events, 3)

	// Events come back ordered by date
	assert.Equal(t, "battersea-5k", events[0].ID)
	assert.Equal(t, "hackney-10k", events[1].ID)
	assert.Equal(t, "run-the-wharf", events[2].ID)
}

func TestGetEvent(t *testing.T) {
	cat, err := Load()
	require.NoError(t, err)

	ev, err := cat.GetEvent("battersea-5k")
	require.NoError(t, err)
	assert.Equal(t, "FNL Battersea Park 5K", ev.Name)
	assert.Len(t, ev.Tiers, 3)

	_, err = cat.GetEvent("no-such-event")
	assert.True(t, errors.Is(err, domain.ErrEventNotFound))
}

func TestGetTier(t *testing.T) {
	cat, err := Load()
	require.NoError(t, err)

	tier, err := cat.GetTier("hackney-10k", "vip")
	require.NoError(t, err)
	assert.Equal(t, int64(5999), tier.Price)
	assert.Equal(t, 400, tier.TotalCapacity)

	_, err = cat.GetTier("hackney-10k", "no-such-tier")
	assert.True(t, errors.Is(err, domain.ErrTierNotFound))

	_, err = cat.GetTier("no-such-event", "vip")
	assert.True(t, errors.Is(err, domain.ErrEventNotFound))
}

func TestParseRejectsBadCatalog(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{
			name: "key does not match event id",
			data: `{"a": {"id": "b", "tiers": [{"id": "t", "total_capacity": 1}]}}`,
		},
		{
			name: "event with no tiers",
			data: `{"a": {"id": "a", "tiers": []}}`,
		},
		{
			name: "duplicate tier id",
			data: `{"a": {"id": "a", "tiers": [{"id": "t", "total_capacity": 1}, {"id": "t", "total_capacity": 2}]}}`,
		},
		{
			name: "negative capacity",
			data: `{"a": {"id": "a", "tiers": [{"id": "t", "total_capacity": -1}]}}`,
		},
		{
			name: "not json",
			data: `nope`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}
