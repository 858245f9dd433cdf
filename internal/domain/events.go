package domain

import (
	"fmt"
	"time"
)

// ReservationEventType identifies the lifecycle transition an event records
type ReservationEventType string

const (
	ReservationEventReserved  ReservationEventType = "reservation.reserved"
	ReservationEventConfirmed ReservationEventType = "reservation.confirmed"
	ReservationEventReleased  ReservationEventType = "reservation.released"
	ReservationEventExpired   ReservationEventType = "reservation.expired"
)

// ReservationEvent is the message published to Kafka on each hold transition
type ReservationEvent struct {
	EventID   string               `json:"event_id"`
	Type      ReservationEventType `json:"type"`
	Token     string               `json:"token"`
	RunEvent  string               `json:"run_event_id"`
	TierID    string               `json:"tier_id"`
	Quantity  int                  `json:"quantity"`
	LeadEmail string               `json:"lead_email,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}

// NewReservationEvent builds an event envelope from a hold
func NewReservationEvent(eventType ReservationEventType, hold *PendingReservation, eventID string) *ReservationEvent {
	return &ReservationEvent{
		EventID:   eventID,
		Type:      eventType,
		Token:     hold.Token,
		RunEvent:  hold.EventID,
		TierID:    hold.TierID,
		Quantity:  hold.Quantity,
		LeadEmail: hold.LeadEmail,
		Timestamp: time.Now().UTC(),
	}
}

// Key returns the partition key so events for one tier stay ordered
func (e *ReservationEvent) Key() string {
	return fmt.Sprintf("%s:%s", e.RunEvent, e.TierID)
}
