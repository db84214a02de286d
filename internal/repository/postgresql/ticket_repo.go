package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"parking_tickets/internal/domain"
	"parking_tickets/internal/repository"
)

type pgTicketRepository struct {
	db    *sql.DB
	table string
}

func NewPgTicketRepository(db *sql.DB, table string) repository.TicketRepository {
	return &pgTicketRepository{db: db, table: quoteTable(table)}
}

func (r *pgTicketRepository) Get(ctx context.Context, id string) (*domain.TicketRecord, error) {
	query := fmt.Sprintf(`SELECT ticket_id, plate, parking_lot, entry_time, exit_time
	           FROM %s WHERE ticket_id = $1`, r.table)

	var (
		rec      domain.TicketRecord
		entry    time.Time
		exitTime sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(&rec.TicketID, &rec.Plate, &rec.ParkingLot, &entry, &exitTime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("TicketRepository.Get: %w", err)
	}
	rec.EntryTime = domain.FormatRecordTime(entry)
	if exitTime.Valid {
		exit := domain.FormatRecordTime(exitTime.Time)
		rec.ExitTime = &exit
	}
	return &rec, nil
}

func (r *pgTicketRepository) Put(ctx context.Context, rec *domain.TicketRecord) error {
	query := fmt.Sprintf(`INSERT INTO %s (ticket_id, plate, parking_lot, entry_time, exit_time)
	           VALUES ($1, $2, $3, $4, $5)
	           ON CONFLICT (ticket_id) DO UPDATE
	           SET plate = EXCLUDED.plate, parking_lot = EXCLUDED.parking_lot,
	               entry_time = EXCLUDED.entry_time, exit_time = EXCLUDED.exit_time`, r.table)

	entry, err := domain.ParseRecordTime(rec.EntryTime)
	if err != nil {
		return fmt.Errorf("TicketRepository.Put: %w", err)
	}
	var exitTime sql.NullTime
	if rec.ExitTime != nil && *rec.ExitTime != "" {
		t, err := domain.ParseRecordTime(*rec.ExitTime)
		if err != nil {
			return fmt.Errorf("TicketRepository.Put: %w", err)
		}
		exitTime = sql.NullTime{Time: t, Valid: true}
	}

	_, err = r.db.ExecContext(ctx, query, rec.TicketID, rec.Plate, rec.ParkingLot, entry, exitTime)
	if err != nil {
		return fmt.Errorf("TicketRepository.Put: %w", err)
	}
	return nil
}

func (r *pgTicketRepository) UpdateField(ctx context.Context, id string, upd repository.FieldUpdate) error {
	if err := repository.CheckUpdatableField(upd.Field); err != nil {
		return fmt.Errorf("TicketRepository.UpdateField: %w", err)
	}
	value, err := columnValue(upd)
	if err != nil {
		return fmt.Errorf("TicketRepository.UpdateField: %w", err)
	}

	// upd.Field has passed the allowlist above, so it is safe to splice in.
	query := fmt.Sprintf(`UPDATE %s SET %s = $1 WHERE ticket_id = $2`, r.table, upd.Field)
	if upd.RequireUnset {
		query += fmt.Sprintf(` AND %s IS NULL`, upd.Field)
	}
	query += ` RETURNING ticket_id`

	var updated string
	err = r.db.QueryRowContext(ctx, query, value, id).Scan(&updated)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("TicketRepository.UpdateField: %w", err)
	}

	var exists bool
	existsQuery := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE ticket_id = $1)`, r.table)
	if err := r.db.QueryRowContext(ctx, existsQuery, id).Scan(&exists); err != nil {
		return fmt.Errorf("TicketRepository.UpdateField (exists check): %w", err)
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrConditionFailed
}

func columnValue(upd repository.FieldUpdate) (any, error) {
	switch upd.Field {
	case domain.FieldEntryTime, domain.FieldExitTime:
		return domain.ParseRecordTime(upd.Value)
	case domain.FieldParkingLot:
		return strconv.Atoi(upd.Value)
	default:
		return upd.Value, nil
	}
}
