package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"parking_tickets/internal/domain"
	"parking_tickets/internal/repository"
)

// Each ticket is a hash under "<table>:<ticket id>". An open ticket has no
// exit_time field at all.
type redisTicketRepository struct {
	client redis.UniversalClient
	prefix string
}

// updateFieldScript: -1 missing key, 0 field already set, 1 written.
// An empty field value counts as unset.
var updateFieldScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
if ARGV[3] == '1' then
	local current = redis.call('HGET', KEYS[1], ARGV[1])
	if current and current ~= '' then
		return 0
	end
end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
return 1
`)

func NewRedisTicketRepository(client redis.UniversalClient, table string) repository.TicketRepository {
	return &redisTicketRepository{client: client, prefix: table + ":"}
}

func (r *redisTicketRepository) key(id string) string {
	return r.prefix + id
}

func (r *redisTicketRepository) Get(ctx context.Context, id string) (*domain.TicketRecord, error) {
	fields, err := r.client.HGetAll(ctx, r.key(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("TicketRepository.Get: %w", err)
	}
	if len(fields) == 0 {
		return nil, repository.ErrNotFound
	}

	lot, err := strconv.Atoi(fields[domain.FieldParkingLot])
	if err != nil {
		return nil, fmt.Errorf("TicketRepository.Get: parse %s: %w", domain.FieldParkingLot, err)
	}
	rec := &domain.TicketRecord{
		TicketID:   fields[domain.FieldTicketID],
		Plate:      fields[domain.FieldPlate],
		ParkingLot: lot,
		EntryTime:  fields[domain.FieldEntryTime],
	}
	if exit, ok := fields[domain.FieldExitTime]; ok {
		rec.ExitTime = &exit
	}
	return rec, nil
}

func (r *redisTicketRepository) Put(ctx context.Context, rec *domain.TicketRecord) error {
	values := map[string]any{
		domain.FieldTicketID:   rec.TicketID,
		domain.FieldPlate:      rec.Plate,
		domain.FieldParkingLot: rec.ParkingLot,
		domain.FieldEntryTime:  rec.EntryTime,
	}
	if rec.ExitTime != nil {
		values[domain.FieldExitTime] = *rec.ExitTime
	}

	key := r.key(rec.TicketID)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, values)
		return nil
	})
	if err != nil {
		return fmt.Errorf("TicketRepository.Put: %w", err)
	}
	return nil
}

func (r *redisTicketRepository) UpdateField(ctx context.Context, id string, upd repository.FieldUpdate) error {
	if err := repository.CheckUpdatableField(upd.Field); err != nil {
		return fmt.Errorf("TicketRepository.UpdateField: %w", err)
	}
	requireUnset := "0"
	if upd.RequireUnset {
		requireUnset = "1"
	}

	res, err := updateFieldScript.Run(ctx, r.client, []string{r.key(id)}, upd.Field, upd.Value, requireUnset).Int()
	if err != nil {
		return fmt.Errorf("TicketRepository.UpdateField: %w", err)
	}
	switch res {
	case -1:
		return repository.ErrNotFound
	case 0:
		return repository.ErrConditionFailed
	}
	return nil
}
