package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v4"
)

var entry = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func TestNewTicket(t *testing.T) {
	ticket := NewTicket("  abc123  ", 1, entry)

	_, err := uuid.Parse(ticket.ID)
	assert.NoError(t, err)
	assert.Equal(t, "ABC123", ticket.Plate)
	assert.Equal(t, 1, ticket.ParkingLot)
	assert.Equal(t, entry, ticket.EntryTime)
	assert.False(t, ticket.ExitTime.Valid)
	assert.Equal(t, TicketOpen, ticket.Status())
}

func TestNewTicket_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewTicket("ABC123", 1, entry).ID
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestTicket_MarkExit(t *testing.T) {
	ticket := NewTicket("ABC123", 1, entry)

	require.NoError(t, ticket.MarkExit(entry.Add(45*time.Minute)))
	assert.True(t, ticket.IsClosed())
	assert.Equal(t, TicketClosed, ticket.Status())

	err := ticket.MarkExit(entry.Add(50 * time.Minute))
	assert.True(t, errors.Is(err, ErrInvalidState))
	assert.Contains(t, err.Error(), "already processed")
	assert.Equal(t, entry.Add(45*time.Minute), ticket.ExitTime.Time)
}

func TestTicket_MarkExitBeforeEntry(t *testing.T) {
	ticket := NewTicket("ABC123", 1, entry)

	err := ticket.MarkExit(entry.Add(-time.Second))
	assert.True(t, errors.Is(err, ErrInvalidState))
	assert.False(t, ticket.IsClosed())
}

func TestTicket_DurationMinutes(t *testing.T) {
	tests := []struct {
		stay time.Duration
		want int
	}{
		{stay: 0, want: 0},
		{stay: 59 * time.Second, want: 0},
		{stay: 15 * time.Minute, want: 15},
		{stay: 15*time.Minute + 59*time.Second, want: 15},
		{stay: 24 * time.Hour, want: 1440},
	}
	for _, test := range tests {
		ticket := NewTicket("ABC123", 1, entry)
		require.NoError(t, ticket.MarkExit(entry.Add(test.stay)))

		got, err := ticket.DurationMinutes()
		assert.NoError(t, err)
		assert.Equal(t, test.want, got, "stay %s", test.stay)
	}
}

func TestTicket_DurationMinutesOpen(t *testing.T) {
	_, err := NewTicket("ABC123", 1, entry).DurationMinutes()
	assert.True(t, errors.Is(err, ErrInvalidState))
}

func TestTicket_RecordRoundTrip(t *testing.T) {
	open := NewTicket("XYZ-9", 9999, entry.Add(123456789*time.Nanosecond))
	closed := NewTicket("AB", 1, entry)
	closed.ExitTime = null.TimeFrom(entry.Add(2*time.Hour + 7*time.Second))

	for _, ticket := range []*Ticket{open, closed} {
		got, err := TicketFromRecord(ticket.ToRecord())
		require.NoError(t, err)
		assert.Equal(t, ticket, got)
	}
}

func TestTicket_ToRecord(t *testing.T) {
	ticket := &Ticket{ID: "a1b2c3d4-e5f6-7890-abcd-ef1234567890", Plate: "ABC123", ParkingLot: 7, EntryTime: entry}

	rec := ticket.ToRecord()
	assert.Equal(t, "2025-03-14T09:00:00Z", rec.EntryTime)
	assert.Nil(t, rec.ExitTime)

	ticket.ExitTime = null.TimeFrom(entry.Add(30 * time.Minute))
	rec = ticket.ToRecord()
	require.NotNil(t, rec.ExitTime)
	assert.Equal(t, "2025-03-14T09:30:00Z", *rec.ExitTime)
}

func TestTicketFromRecord_BadTimestamp(t *testing.T) {
	_, err := TicketFromRecord(TicketRecord{TicketID: "x", EntryTime: "yesterday"})
	assert.Error(t, err)

	bad := "later"
	_, err = TicketFromRecord(TicketRecord{TicketID: "x", EntryTime: "2025-03-14T09:00:00Z", ExitTime: &bad})
	assert.Error(t, err)
}

func TestTicketFromRecord_EmptyExitIsOpen(t *testing.T) {
	empty := ""
	ticket, err := TicketFromRecord(TicketRecord{TicketID: "x", EntryTime: "2025-03-14T09:00:00Z", ExitTime: &empty})
	require.NoError(t, err)
	assert.False(t, ticket.IsClosed())
}
