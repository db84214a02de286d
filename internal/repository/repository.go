package repository

import (
	"context"
	"errors"
	"fmt"

	"parking_tickets/internal/domain"
)

var ErrNotFound = errors.New("record not found")
var ErrConditionFailed = errors.New("conditional update failed")

// FieldUpdate sets a single attribute of a stored ticket. With RequireUnset
// the write only lands if the field is still absent or null at write time.
type FieldUpdate struct {
	Field        string
	Value        string
	RequireUnset bool
}

// TicketRepository is the keyed record store, keyed by ticket id.
type TicketRepository interface {
	// Get returns ErrNotFound when no record exists for id.
	Get(ctx context.Context, id string) (*domain.TicketRecord, error)
	Put(ctx context.Context, rec *domain.TicketRecord) error
	// UpdateField returns ErrNotFound for a missing id and
	// ErrConditionFailed when RequireUnset is violated.
	UpdateField(ctx context.Context, id string, upd FieldUpdate) error
}

// Only these record fields may be targeted by UpdateField.
var updatableFields = map[string]bool{
	domain.FieldPlate:      true,
	domain.FieldParkingLot: true,
	domain.FieldEntryTime:  true,
	domain.FieldExitTime:   true,
}

func CheckUpdatableField(field string) error {
	if !updatableFields[field] {
		return fmt.Errorf("field %q cannot be updated", field)
	}
	return nil
}
