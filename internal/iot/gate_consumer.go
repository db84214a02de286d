// Package iot consumes requests sent by gate devices over SQS.
package iot

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"parking_tickets/internal/api/response"
	"parking_tickets/internal/validation"
)

const (
	ActionEntry = "entry"
	ActionExit  = "exit"
)

type SQSAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// GateHandler runs the entry and exit flows. *handler.ParkingHandler
// satisfies it.
type GateHandler interface {
	HandleEntry(ctx context.Context, params map[string]string) response.Result
	HandleExit(ctx context.Context, params map[string]string) response.Result
}

// GateRequest is the message body a gate controller sends. Controllers
// send null for fields that do not apply to the action.
type GateRequest struct {
	Action     string  `json:"action"`
	Plate      *string `json:"plate"`
	ParkingLot *int    `json:"parkingLot"`
	TicketID   *string `json:"ticketId"`
}

// params flattens the request into the same parameter set the HTTP and
// Lambda boundaries receive; absent or null fields become "".
func (r GateRequest) params() map[string]string {
	var lot *string
	if r.ParkingLot != nil {
		s := strconv.Itoa(*r.ParkingLot)
		lot = &s
	}
	return validation.ExtractNullableQueryParams(map[string]*string{
		"plate":      r.Plate,
		"parkingLot": lot,
		"ticketId":   r.TicketID,
	})
}

type GateConsumer struct {
	sqsClient  SQSAPI
	queueURL   string
	handler    GateHandler
	logger     *slog.Logger
	retryDelay time.Duration
}

func NewGateConsumer(client SQSAPI, queueURL string, handler GateHandler, logger *slog.Logger) *GateConsumer {
	return &GateConsumer{
		sqsClient:  client,
		queueURL:   queueURL,
		handler:    handler,
		logger:     logger.With("component", "gate_consumer"),
		retryDelay: 5 * time.Second,
	}
}

// Start long-polls the queue until ctx is cancelled.
func (c *GateConsumer) Start(ctx context.Context) {
	c.logger.Info("listening for gate requests", "queue_url", c.queueURL)
	for {
		if ctx.Err() != nil {
			c.logger.Info("gate consumer stopped")
			return
		}
		if _, err := c.poll(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			c.logger.Error("failed to receive gate requests", "error", err)
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
			}
		}
	}
}

// poll receives one batch and processes it. Every received message is
// deleted once handled: a failed entry or exit is logged, never replayed.
func (c *GateConsumer) poll(ctx context.Context) (int, error) {
	out, err := c.sqsClient.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(c.queueURL),
		MaxNumberOfMessages: 10,
		WaitTimeSeconds:     20,
		VisibilityTimeout:   60,
	})
	if err != nil {
		return 0, err
	}
	for _, msg := range out.Messages {
		c.process(ctx, msg)
		c.deleteMessage(ctx, msg.ReceiptHandle)
	}
	return len(out.Messages), nil
}

func (c *GateConsumer) process(ctx context.Context, msg sqstypes.Message) {
	logger := c.logger.With("message_id", aws.ToString(msg.MessageId))
	if msg.Body == nil {
		logger.Warn("dropping gate request with empty body")
		return
	}

	var req GateRequest
	if err := json.Unmarshal([]byte(*msg.Body), &req); err != nil {
		logger.Warn("dropping malformed gate request", "error", err)
		return
	}

	var res response.Result
	switch req.Action {
	case ActionEntry:
		res = c.handler.HandleEntry(ctx, req.params())
	case ActionExit:
		res = c.handler.HandleExit(ctx, req.params())
	default:
		logger.Warn("dropping gate request with unknown action", "action", req.Action)
		return
	}

	status, body := res.Encode()
	if status >= 400 {
		logger.Warn("gate request failed", "action", req.Action, "status", status, "body", body)
		return
	}
	logger.Info("gate request handled", "action", req.Action, "status", status, "body", body)
}

func (c *GateConsumer) deleteMessage(ctx context.Context, receiptHandle *string) {
	if receiptHandle == nil {
		c.logger.Warn("gate request has no receipt handle; cannot delete")
		return
	}
	_, err := c.sqsClient.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: receiptHandle,
	})
	if err != nil {
		c.logger.Error("failed to delete gate request", "error", err)
	}
}
