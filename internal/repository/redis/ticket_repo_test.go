package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking_tickets/internal/domain"
	"parking_tickets/internal/repository"
)

func newTestRepository(t *testing.T) (repository.TicketRepository, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisTicketRepository(client, "parking-tickets"), srv
}

func openRecord() *domain.TicketRecord {
	return &domain.TicketRecord{
		TicketID:   "a1b2c3d4-e5f6-7890-abcd-ef1234567890",
		Plate:      "ABC123",
		ParkingLot: 12,
		EntryTime:  "2025-03-14T09:00:00Z",
	}
}

func TestNewClient(t *testing.T) {
	srv := miniredis.RunT(t)
	client, err := NewClient(context.Background(), Config{Addr: srv.Addr()})
	require.NoError(t, err)
	client.Close()
}

func TestTicketRepository_PutGet(t *testing.T) {
	ctx := context.Background()
	repo, srv := newTestRepository(t)

	require.NoError(t, repo.Put(ctx, openRecord()))
	assert.Equal(t, "ABC123", srv.HGet("parking-tickets:"+openRecord().TicketID, domain.FieldPlate))

	got, err := repo.Get(ctx, openRecord().TicketID)
	require.NoError(t, err)
	assert.Equal(t, openRecord(), got)

	_, err = repo.Get(ctx, "missing")
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestTicketRepository_PutReplacesClosedTicket(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)

	closed := openRecord()
	exit := "2025-03-14T10:00:00Z"
	closed.ExitTime = &exit
	require.NoError(t, repo.Put(ctx, closed))
	require.NoError(t, repo.Put(ctx, openRecord()))

	got, err := repo.Get(ctx, openRecord().TicketID)
	require.NoError(t, err)
	assert.Nil(t, got.ExitTime)
}

func TestTicketRepository_UpdateExitTimeOnce(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)
	require.NoError(t, repo.Put(ctx, openRecord()))
	id := openRecord().TicketID

	upd := repository.FieldUpdate{Field: domain.FieldExitTime, Value: "2025-03-14T09:45:00Z", RequireUnset: true}
	require.NoError(t, repo.UpdateField(ctx, id, upd))

	upd.Value = "2025-03-14T10:00:00Z"
	assert.True(t, errors.Is(repo.UpdateField(ctx, id, upd), repository.ErrConditionFailed))

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got.ExitTime)
	assert.Equal(t, "2025-03-14T09:45:00Z", *got.ExitTime)
}

func TestTicketRepository_EmptyExitTimeIsUnset(t *testing.T) {
	ctx := context.Background()
	repo, srv := newTestRepository(t)
	require.NoError(t, repo.Put(ctx, openRecord()))
	id := openRecord().TicketID
	srv.HSet("parking-tickets:"+id, domain.FieldExitTime, "")

	upd := repository.FieldUpdate{Field: domain.FieldExitTime, Value: "2025-03-14T09:45:00Z", RequireUnset: true}
	require.NoError(t, repo.UpdateField(ctx, id, upd))
	assert.Equal(t, "2025-03-14T09:45:00Z", srv.HGet("parking-tickets:"+id, domain.FieldExitTime))
}

func TestTicketRepository_UpdateUnconditionalAndMissing(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)
	require.NoError(t, repo.Put(ctx, openRecord()))

	require.NoError(t, repo.UpdateField(ctx, openRecord().TicketID, repository.FieldUpdate{Field: domain.FieldPlate, Value: "XYZ9"}))
	got, err := repo.Get(ctx, openRecord().TicketID)
	require.NoError(t, err)
	assert.Equal(t, "XYZ9", got.Plate)

	err = repo.UpdateField(ctx, "missing", repository.FieldUpdate{Field: domain.FieldExitTime, Value: "x", RequireUnset: true})
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestTicketRepository_StoreDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	repo := NewRedisTicketRepository(client, "parking-tickets")

	_, err := repo.Get(context.Background(), "id")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, repository.ErrNotFound))
}
