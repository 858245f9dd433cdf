package dto

import (
	"github.com/charliebuilding/fnl-website/internal/catalog"
)

// TierResponse represents a ticket tier with live availability
type TierResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	Description string `json:"description"`
	Total       int    `json:"total"`
	Available   int    `json:"available"`
	SoldOut     bool   `json:"sold_out"`
	Color       string `json:"color,omitempty"`
}

// EventResponse represents an event in API responses
type EventResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	ShortName string          `json:"short_name,omitempty"`
	Date      string          `json:"date"`
	DateISO   string          `json:"date_iso"`
	Time      string          `json:"time,omitempty"`
	City      string          `json:"city"`
	Location  string          `json:"location"`
	Emoji     string          `json:"emoji,omitempty"`
	NeonColor string          `json:"neon_color,omitempty"`
	Tiers     []*TierResponse `json:"tiers"`
}

// EventFromCatalog converts a catalog event, leaving availability for
// the caller to fill in
func EventFromCatalog(ev *catalog.Event) *EventResponse {
	resp := &EventResponse{
		ID:        ev.ID,
		Name:      ev.Name,
		ShortName: ev.ShortName,
		Date:      ev.Date,
		DateISO:   ev.DateISO,
		Time:      ev.Time,
		City:      ev.City,
		Location:  ev.Location,
		Emoji:     ev.Emoji,
		NeonColor: ev.NeonColor,
	}
	for i := range ev.Tiers {
		tier := &ev.Tiers[i]
		resp.Tiers = append(resp.Tiers, &TierResponse{
			ID:          tier.ID,
			Name:        tier.Name,
			Price:       tier.Price,
			Description: tier.Description,
			Total:       tier.TotalCapacity,
			Available:   tier.TotalCapacity,
			Color:       tier.Color,
		})
	}
	return resp
}
