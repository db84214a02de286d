package memory

import (
	"context"
	"strconv"
	"sync"

	"parking_tickets/internal/domain"
	"parking_tickets/internal/repository"
)

// TicketRepository keeps tickets in process memory. It backs local runs
// with STORE_BACKEND=memory and the service tests.
type TicketRepository struct {
	mu      sync.RWMutex
	records map[string]domain.TicketRecord
}

func NewTicketRepository() *TicketRepository {
	return &TicketRepository{records: make(map[string]domain.TicketRecord)}
}

func (r *TicketRepository) Get(_ context.Context, id string) (*domain.TicketRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (r *TicketRepository) Put(_ context.Context, rec *domain.TicketRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.TicketID] = *cloneRecord(*rec)
	return nil
}

func (r *TicketRepository) UpdateField(_ context.Context, id string, upd repository.FieldUpdate) error {
	if err := repository.CheckUpdatableField(upd.Field); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return repository.ErrNotFound
	}
	switch upd.Field {
	case domain.FieldExitTime:
		if upd.RequireUnset && rec.ExitTime != nil && *rec.ExitTime != "" {
			return repository.ErrConditionFailed
		}
		v := upd.Value
		rec.ExitTime = &v
	case domain.FieldPlate:
		if upd.RequireUnset && rec.Plate != "" {
			return repository.ErrConditionFailed
		}
		rec.Plate = upd.Value
	case domain.FieldEntryTime:
		if upd.RequireUnset && rec.EntryTime != "" {
			return repository.ErrConditionFailed
		}
		rec.EntryTime = upd.Value
	case domain.FieldParkingLot:
		if upd.RequireUnset && rec.ParkingLot != 0 {
			return repository.ErrConditionFailed
		}
		lot, err := strconv.Atoi(upd.Value)
		if err != nil {
			return err
		}
		rec.ParkingLot = lot
	}
	r.records[id] = rec
	return nil
}

// Len reports how many tickets are stored.
func (r *TicketRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

func cloneRecord(rec domain.TicketRecord) *domain.TicketRecord {
	out := rec
	if rec.ExitTime != nil {
		v := *rec.ExitTime
		out.ExitTime = &v
	}
	return &out
}
