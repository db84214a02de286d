// Package events publishes ticket lifecycle notifications. Publishing is
// best effort: the parking service logs failures and carries on.
package events

import (
	"context"
	"time"

	"github.com/segmentio/ksuid"

	"parking_tickets/internal/domain"
)

const (
	TypeTicketCreated = "ticket.created"
	TypeTicketClosed  = "ticket.closed"
)

type Event struct {
	ID               string    `json:"event_id"`
	Type             string    `json:"type"`
	TicketID         string    `json:"ticket_id"`
	Plate            string    `json:"plate"`
	ParkingLot       int       `json:"parking_lot"`
	OccurredAt       time.Time `json:"occurred_at"`
	TotalTimeMinutes *int      `json:"total_time_minutes,omitempty"`
	ChargeUSD        *float64  `json:"charge_usd,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func TicketCreated(t *domain.Ticket) Event {
	return Event{
		ID:         ksuid.New().String(),
		Type:       TypeTicketCreated,
		TicketID:   t.ID,
		Plate:      t.Plate,
		ParkingLot: t.ParkingLot,
		OccurredAt: t.EntryTime,
	}
}

func TicketClosed(t *domain.Ticket, summary *domain.ExitSummary) Event {
	minutes := summary.TotalTimeMinutes
	charge := summary.ChargeUSD
	return Event{
		ID:               ksuid.New().String(),
		Type:             TypeTicketClosed,
		TicketID:         t.ID,
		Plate:            t.Plate,
		ParkingLot:       t.ParkingLot,
		OccurredAt:       t.ExitTime.Time,
		TotalTimeMinutes: &minutes,
		ChargeUSD:        &charge,
	}
}
