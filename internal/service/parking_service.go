package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"parking_tickets/internal/domain"
	"parking_tickets/internal/events"
	"parking_tickets/internal/metrics"
	"parking_tickets/internal/repository"
)

type ParkingService struct {
	ticketRepo repository.TicketRepository
	fees       *FeeCalculator
	publisher  events.Publisher
	now        func() time.Time
	logger     *slog.Logger
}

type Option func(*ParkingService)

// WithClock replaces time.Now as the source of entry and exit timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *ParkingService) { s.now = now }
}

func WithPublisher(p events.Publisher) Option {
	return func(s *ParkingService) { s.publisher = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *ParkingService) { s.logger = l }
}

func NewParkingService(ticketRepo repository.TicketRepository, fees *FeeCalculator, opts ...Option) *ParkingService {
	s := &ParkingService{
		ticketRepo: ticketRepo,
		fees:       fees,
		publisher:  events.NopPublisher{},
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateEntry opens a ticket and stores it with a single unconditional
// write. Calling it twice opens two tickets.
func (s *ParkingService) CreateEntry(ctx context.Context, plate string, parkingLot int) (string, error) {
	ticket := domain.NewTicket(plate, parkingLot, s.now())
	rec := ticket.ToRecord()

	if err := s.ticketRepo.Put(ctx, &rec); err != nil {
		return "", domain.Persistence("failed to create parking entry", err)
	}

	metrics.EntryCreated()
	s.logger.InfoContext(ctx, "created parking entry",
		"ticket_id", ticket.ID, "plate", ticket.Plate, "parking_lot", ticket.ParkingLot)
	s.publish(ctx, events.TicketCreated(ticket))
	return ticket.ID, nil
}

// ProcessExit closes the ticket and charges for the stay. The exit time
// is written with a compare-and-swap on exit_time, so of two racing exits
// for one ticket exactly one succeeds; the other sees ErrInvalidState.
func (s *ParkingService) ProcessExit(ctx context.Context, ticketID string) (*domain.ExitSummary, error) {
	rec, err := s.ticketRepo.Get(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFoundf("ticket %s not found", ticketID)
		}
		return nil, domain.Persistence("failed to process exit", err)
	}

	ticket, err := domain.TicketFromRecord(*rec)
	if err != nil {
		return nil, fmt.Errorf("decode stored ticket: %w", err)
	}
	if ticket.IsClosed() {
		return nil, domain.InvalidStatef("ticket %s already processed", ticketID)
	}

	if err := ticket.MarkExit(s.now()); err != nil {
		return nil, err
	}
	duration, err := ticket.DurationMinutes()
	if err != nil {
		return nil, err
	}
	charge := s.fees.CalculateFee(duration)

	err = s.ticketRepo.UpdateField(ctx, ticketID, repository.FieldUpdate{
		Field:        domain.FieldExitTime,
		Value:        domain.FormatRecordTime(ticket.ExitTime.Time),
		RequireUnset: true,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrConditionFailed):
			return nil, domain.InvalidStatef("ticket %s already processed", ticketID)
		case errors.Is(err, repository.ErrNotFound):
			return nil, domain.NotFoundf("ticket %s not found", ticketID)
		}
		return nil, domain.Persistence("failed to process exit", err)
	}

	summary := &domain.ExitSummary{
		Plate:            ticket.Plate,
		TotalTimeMinutes: duration,
		ParkingLot:       ticket.ParkingLot,
		ChargeUSD:        charge,
	}
	metrics.ExitProcessed(duration, charge)
	s.logger.InfoContext(ctx, "processed parking exit",
		"ticket_id", ticketID, "total_time_minutes", duration, "charge_usd", charge)
	s.publish(ctx, events.TicketClosed(ticket, summary))
	return summary, nil
}

// GetTicket is an advisory lookup: a missing ticket and a store failure
// both come back as nil.
func (s *ParkingService) GetTicket(ctx context.Context, ticketID string) *domain.Ticket {
	rec, err := s.ticketRepo.Get(ctx, ticketID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.WarnContext(ctx, "ticket lookup failed", "ticket_id", ticketID, "error", err)
		}
		return nil
	}
	ticket, err := domain.TicketFromRecord(*rec)
	if err != nil {
		s.logger.WarnContext(ctx, "stored ticket is unreadable", "ticket_id", ticketID, "error", err)
		return nil
	}
	return ticket
}

func (s *ParkingService) BillingInfo() BillingInfo {
	return s.fees.BillingInfo()
}

func (s *ParkingService) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish ticket event",
			"type", event.Type, "ticket_id", event.TicketID, "error", err)
	}
}
