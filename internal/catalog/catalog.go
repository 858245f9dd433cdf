// Package catalog holds the static event and tier configuration for the
// FNL night-run series. The catalog is loaded once at process start and
// is read-only at runtime; capacity counters live in the ledger, not here.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/charliebuilding/fnl-website/internal/domain"
)

//go:embed events.json
var eventsJSON []byte

// Tier is a priced ticket category within an event
type Tier struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Price         int64  `json:"price"` // pence GBP
	Description   string `json:"description"`
	TotalCapacity int    `json:"total_capacity"`
	Color         string `json:"color"`
}

// Event is one night run with its ticket tiers
type Event struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ShortName     string `json:"short_name"`
	Date          string `json:"date"`
	DateISO       string `json:"date_iso"`
	Time          string `json:"time"`
	City          string `json:"city"`
	Location      string `json:"location"`
	TotalCapacity int    `json:"total_capacity"`
	Description   string `json:"description"`
	Emoji         string `json:"emoji"`
	NeonColor     string `json:"neon_color"`
	Tiers         []Tier `json:"tiers"`
}

// Catalog is the immutable set of events on sale
type Catalog struct {
	events map[string]*Event
}

// Load parses the embedded event configuration
func Load() (*Catalog, error) {
	return parse(eventsJSON)
}

func parse(data []byte) (*Catalog, error) {
	events := map[string]*Event{}
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("failed to parse event catalog: %w", err)
	}
	return validate(events)
}

// New builds a catalog from already-constructed events, applying the
// same validation as Load. Intended for fixtures and tests.
func New(evs ...*Event) (*Catalog, error) {
	events := map[string]*Event{}
	for _, ev := range evs {
		events[ev.ID] = ev
	}
	return validate(events)
}

func validate(events map[string]*Event) (*Catalog, error) {
	for id, ev := range events {
		if ev.ID != id {
			return nil, fmt.Errorf("event %q keyed under %q", ev.ID, id)
		}
		if len(ev.Tiers) == 0 {
			return nil, fmt.Errorf("event %q has no tiers", id)
		}
		seen := map[string]bool{}
		for _, tier := range ev.Tiers {
			if tier.TotalCapacity < 0 {
				return nil, fmt.Errorf("event %q tier %q has negative capacity", id, tier.ID)
			}
			if seen[tier.ID] {
				return nil, fmt.Errorf("event %q has duplicate tier %q", id, tier.ID)
			}
			seen[tier.ID] = true
		}
	}

	return &Catalog{events: events}, nil
}

// GetEvent looks up an event by ID
func (c *Catalog) GetEvent(eventID string) (*Event, error) {
	ev, ok := c.events[eventID]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	return ev, nil
}

// GetTier looks up a tier within an event
func (c *Catalog) GetTier(eventID, tierID string) (*Tier, error) {
	ev, err := c.GetEvent(eventID)
	if err != nil {
		return nil, err
	}
	for i := range ev.Tiers {
		if ev.Tiers[i].ID == tierID {
			return &ev.Tiers[i], nil
		}
	}
	return nil, domain.ErrTierNotFound
}

// Events returns all events ordered by date
func (c *Catalog) Events() []*Event {
	out := make([]*Event, 0, len(c.events))
	for _, ev := range c.events {
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateISO < out[j].DateISO })
	return out
}
