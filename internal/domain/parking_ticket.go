package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/guregu/null.v4"
)

// Field names of the persisted ticket record. They double as DynamoDB
// attribute names, Postgres column names and Redis hash fields.
const (
	FieldTicketID   = "ticket_id"
	FieldPlate      = "plate"
	FieldParkingLot = "parking_lot"
	FieldEntryTime  = "entry_time"
	FieldExitTime   = "exit_time"
)

const recordTimeLayout = time.RFC3339Nano

type TicketStatus string

const (
	TicketOpen   TicketStatus = "open"
	TicketClosed TicketStatus = "closed"
)

// Ticket is one parking session, from entry to exit.
type Ticket struct {
	ID         string    `json:"ticket_id"`
	Plate      string    `json:"plate"`
	ParkingLot int       `json:"parking_lot"`
	EntryTime  time.Time `json:"entry_time"`
	ExitTime   null.Time `json:"exit_time"`
}

// TicketRecord is the value stored under the ticket id.
type TicketRecord struct {
	TicketID   string  `json:"ticket_id" dynamodbav:"ticket_id"`
	Plate      string  `json:"plate" dynamodbav:"plate"`
	ParkingLot int     `json:"parking_lot" dynamodbav:"parking_lot"`
	EntryTime  string  `json:"entry_time" dynamodbav:"entry_time"`
	ExitTime   *string `json:"exit_time" dynamodbav:"exit_time"`
}

// ExitSummary is returned by a successful exit.
type ExitSummary struct {
	Plate            string  `json:"plate"`
	TotalTimeMinutes int     `json:"totalTimeMinutes"`
	ParkingLot       int     `json:"parkingLot"`
	ChargeUSD        float64 `json:"chargeUSD"`
}

// NormalizePlate trims surrounding whitespace and upper-cases the plate.
func NormalizePlate(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}

// NewTicket opens a session for plate in lot, entered at now.
func NewTicket(plate string, lot int, now time.Time) *Ticket {
	return &Ticket{
		ID:         uuid.NewString(),
		Plate:      NormalizePlate(plate),
		ParkingLot: lot,
		EntryTime:  now.UTC(),
	}
}

func (t *Ticket) Status() TicketStatus {
	if t.ExitTime.Valid {
		return TicketClosed
	}
	return TicketOpen
}

func (t *Ticket) IsClosed() bool { return t.ExitTime.Valid }

// MarkExit closes the session. A ticket closes exactly once.
func (t *Ticket) MarkExit(now time.Time) error {
	if t.ExitTime.Valid {
		return InvalidStatef("ticket %s already processed", t.ID)
	}
	now = now.UTC()
	if now.Before(t.EntryTime) {
		return InvalidStatef("ticket %s: exit time %s precedes entry time %s",
			t.ID, now.Format(time.RFC3339), t.EntryTime.Format(time.RFC3339))
	}
	t.ExitTime = null.TimeFrom(now)
	return nil
}

// DurationMinutes is the whole number of minutes between entry and exit,
// truncated toward zero.
func (t *Ticket) DurationMinutes() (int, error) {
	if !t.ExitTime.Valid {
		return 0, InvalidStatef("ticket %s has no exit time", t.ID)
	}
	return int(t.ExitTime.Time.Sub(t.EntryTime) / time.Minute), nil
}

func (t *Ticket) ToRecord() TicketRecord {
	rec := TicketRecord{
		TicketID:   t.ID,
		Plate:      t.Plate,
		ParkingLot: t.ParkingLot,
		EntryTime:  FormatRecordTime(t.EntryTime),
	}
	if t.ExitTime.Valid {
		exit := FormatRecordTime(t.ExitTime.Time)
		rec.ExitTime = &exit
	}
	return rec
}

func TicketFromRecord(rec TicketRecord) (*Ticket, error) {
	entry, err := ParseRecordTime(rec.EntryTime)
	if err != nil {
		return nil, fmt.Errorf("ticket %s: parse %s: %w", rec.TicketID, FieldEntryTime, err)
	}
	t := &Ticket{
		ID:         rec.TicketID,
		Plate:      rec.Plate,
		ParkingLot: rec.ParkingLot,
		EntryTime:  entry,
	}
	if rec.ExitTime != nil && *rec.ExitTime != "" {
		exit, err := ParseRecordTime(*rec.ExitTime)
		if err != nil {
			return nil, fmt.Errorf("ticket %s: parse %s: %w", rec.TicketID, FieldExitTime, err)
		}
		t.ExitTime = null.TimeFrom(exit)
	}
	return t, nil
}

func FormatRecordTime(t time.Time) string {
	return t.UTC().Format(recordTimeLayout)
}

func ParseRecordTime(s string) (time.Time, error) {
	t, err := time.Parse(recordTimeLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
