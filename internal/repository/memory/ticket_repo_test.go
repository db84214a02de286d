package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking_tickets/internal/domain"
	"parking_tickets/internal/repository"
)

func newRecord() *domain.TicketRecord {
	return &domain.TicketRecord{
		TicketID:   "a1b2c3d4-e5f6-7890-abcd-ef1234567890",
		Plate:      "ABC123",
		ParkingLot: 1,
		EntryTime:  "2025-03-14T09:00:00Z",
	}
}

func TestTicketRepository_PutGet(t *testing.T) {
	ctx := context.Background()
	repo := NewTicketRepository()

	_, err := repo.Get(ctx, "missing")
	assert.True(t, errors.Is(err, repository.ErrNotFound))

	require.NoError(t, repo.Put(ctx, newRecord()))
	got, err := repo.Get(ctx, newRecord().TicketID)
	require.NoError(t, err)
	assert.Equal(t, newRecord(), got)
	assert.Equal(t, 1, repo.Len())
}

func TestTicketRepository_UpdateFieldRequireUnset(t *testing.T) {
	ctx := context.Background()
	repo := NewTicketRepository()
	rec := newRecord()
	require.NoError(t, repo.Put(ctx, rec))

	upd := repository.FieldUpdate{Field: domain.FieldExitTime, Value: "2025-03-14T10:00:00Z", RequireUnset: true}
	require.NoError(t, repo.UpdateField(ctx, rec.TicketID, upd))

	upd.Value = "2025-03-14T11:00:00Z"
	err := repo.UpdateField(ctx, rec.TicketID, upd)
	assert.True(t, errors.Is(err, repository.ErrConditionFailed))

	got, err := repo.Get(ctx, rec.TicketID)
	require.NoError(t, err)
	require.NotNil(t, got.ExitTime)
	assert.Equal(t, "2025-03-14T10:00:00Z", *got.ExitTime)
	assert.Equal(t, "ABC123", got.Plate)
}

func TestTicketRepository_EmptyExitTimeIsUnset(t *testing.T) {
	ctx := context.Background()
	repo := NewTicketRepository()
	rec := newRecord()
	empty := ""
	rec.ExitTime = &empty
	require.NoError(t, repo.Put(ctx, rec))

	upd := repository.FieldUpdate{Field: domain.FieldExitTime, Value: "2025-03-14T10:00:00Z", RequireUnset: true}
	require.NoError(t, repo.UpdateField(ctx, rec.TicketID, upd))

	got, err := repo.Get(ctx, rec.TicketID)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-14T10:00:00Z", *got.ExitTime)
}

func TestTicketRepository_UpdateFieldErrors(t *testing.T) {
	ctx := context.Background()
	repo := NewTicketRepository()

	err := repo.UpdateField(ctx, "missing", repository.FieldUpdate{Field: domain.FieldExitTime, Value: "x"})
	assert.True(t, errors.Is(err, repository.ErrNotFound))

	err = repo.UpdateField(ctx, "missing", repository.FieldUpdate{Field: domain.FieldTicketID, Value: "x"})
	assert.Error(t, err)
	assert.False(t, errors.Is(err, repository.ErrNotFound))
}

func TestTicketRepository_ConcurrentExitOnlyOneWins(t *testing.T) {
	ctx := context.Background()
	repo := NewTicketRepository()
	rec := newRecord()
	require.NoError(t, repo.Put(ctx, rec))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.UpdateField(ctx, rec.TicketID, repository.FieldUpdate{
				Field: domain.FieldExitTime, Value: "2025-03-14T10:00:00Z", RequireUnset: true,
			})
			if err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}
