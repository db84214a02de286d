package iot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking_tickets/internal/api/handler"
	"parking_tickets/internal/api/response"
	"parking_tickets/internal/repository/memory"
	"parking_tickets/internal/service"
)

type fakeSQS struct {
	mu       sync.Mutex
	batches  [][]sqstypes.Message
	err      error
	deleted  []string
	received int
}

func (f *fakeSQS) ReceiveMessage(_ context.Context, _ *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.received++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.batches) == 0 {
		return &sqs.ReceiveMessageOutput{}, nil
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	return &sqs.ReceiveMessageOutput{Messages: batch}, nil
}

func (f *fakeSQS) DeleteMessage(_ context.Context, in *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, aws.ToString(in.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

type recordingHandler struct {
	entries []map[string]string
	exits   []map[string]string
}

func (h *recordingHandler) HandleEntry(_ context.Context, params map[string]string) response.Result {
	h.entries = append(h.entries, params)
	return response.Created(map[string]string{"ticketId": "t-1"})
}

func (h *recordingHandler) HandleExit(_ context.Context, params map[string]string) response.Result {
	h.exits = append(h.exits, params)
	return response.NotFound("ticket not found")
}

func message(receipt, body string) sqstypes.Message {
	return sqstypes.Message{
		MessageId:     aws.String("m-" + receipt),
		ReceiptHandle: aws.String(receipt),
		Body:          aws.String(body),
	}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGateConsumer_Poll(t *testing.T) {
	client := &fakeSQS{batches: [][]sqstypes.Message{{
		message("r1", `{"action":"entry","plate":"ABC123","parkingLot":4}`),
		message("r2", `{"action":"exit","plate":null,"parkingLot":null,"ticketId":"9f1b7c3e-2d4a-4e8b-9c6d-1a2b3c4d5e6f"}`),
		message("r3", `not json`),
		message("r4", `{"action":"open_barrier"}`),
	}}}
	h := &recordingHandler{}
	c := NewGateConsumer(client, "https://sqs.local/gate", h, discard())

	n, err := c.poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	require.Len(t, h.entries, 1)
	assert.Equal(t, map[string]string{"plate": "ABC123", "parkingLot": "4", "ticketId": ""}, h.entries[0])
	require.Len(t, h.exits, 1)
	assert.Equal(t, map[string]string{"plate": "", "parkingLot": "", "ticketId": "9f1b7c3e-2d4a-4e8b-9c6d-1a2b3c4d5e6f"}, h.exits[0])
	assert.Equal(t, []string{"r1", "r2", "r3", "r4"}, client.deleted)
}

func TestGateConsumer_PollError(t *testing.T) {
	client := &fakeSQS{err: errors.New("access denied")}
	c := NewGateConsumer(client, "https://sqs.local/gate", &recordingHandler{}, discard())

	_, err := c.poll(context.Background())
	assert.Error(t, err)
}

func TestGateConsumer_StartStopsOnCancel(t *testing.T) {
	client := &fakeSQS{err: errors.New("throttled")}
	c := NewGateConsumer(client, "https://sqs.local/gate", &recordingHandler{}, discard())
	c.retryDelay = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		client.mu.Lock()
		defer client.mu.Unlock()
		return client.received >= 2
	}, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestGateConsumer_NullFieldsReachParkingHandler(t *testing.T) {
	repo := memory.NewTicketRepository()
	ps := service.NewParkingService(repo, service.DefaultFeeCalculator(), service.WithLogger(discard()))
	client := &fakeSQS{batches: [][]sqstypes.Message{{
		message("r1", `{"action":"entry","plate":"abc123","parkingLot":9,"ticketId":null}`),
		message("r2", `{"action":"entry","plate":null,"parkingLot":9}`),
	}}}
	c := NewGateConsumer(client, "https://sqs.local/gate", handler.NewParkingHandler(ps, discard()), discard())

	n, err := c.poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, repo.Len())
	assert.Equal(t, []string{"r1", "r2"}, client.deleted)
}
