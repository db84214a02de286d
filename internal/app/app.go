// Package app assembles the parking service from configuration. Both the
// HTTP server and the Lambda functions start from New.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"parking_tickets/internal/config"
	"parking_tickets/internal/events"
	"parking_tickets/internal/iot"
	"parking_tickets/internal/repository"
	"parking_tickets/internal/repository/dynamo"
	"parking_tickets/internal/repository/memory"
	"parking_tickets/internal/repository/postgresql"
	redisrepo "parking_tickets/internal/repository/redis"
	"parking_tickets/internal/service"
)

type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Tickets repository.TicketRepository
	Parking *service.ParkingService
	// LPR is nil unless LPR_ENABLED is set.
	LPR *service.LPRService

	awsCfg  *aws.Config
	closers []func() error
}

// NewLogger builds the process logger. Lambdas log JSON for CloudWatch,
// the HTTP server logs text.
func NewLogger(cfg *config.Config, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if json {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}
	// Release whatever was opened before the failure.
	fail := func(err error) (*App, error) {
		return nil, errors.Join(err, a.Close())
	}

	tickets, err := a.ticketRepository(ctx)
	if err != nil {
		return fail(err)
	}
	a.Tickets = tickets

	publisher, err := a.publisher(ctx)
	if err != nil {
		return fail(err)
	}

	fees, err := service.NewFeeCalculator(cfg.HourlyRate, cfg.BillingIncrementMinutes)
	if err != nil {
		return fail(err)
	}
	a.Parking = service.NewParkingService(tickets, fees,
		service.WithPublisher(publisher),
		service.WithLogger(logger))

	if cfg.LPREnabled {
		awsCfg, err := a.aws(ctx)
		if err != nil {
			return fail(err)
		}
		a.LPR = service.NewLPRService(rekognition.NewFromConfig(awsCfg), logger)
	}

	logger.Info("parking service ready",
		"store", cfg.StoreBackend, "events", cfg.EventsBackend, "lpr", cfg.LPREnabled,
		"hourly_rate", cfg.HourlyRate, "billing_increment_minutes", cfg.BillingIncrementMinutes)
	return a, nil
}

// GateConsumer returns the SQS consumer for gate requests, or nil when
// GATE_QUEUE_URL is not set.
func (a *App) GateConsumer(ctx context.Context, h iot.GateHandler) (*iot.GateConsumer, error) {
	if a.Config.GateQueueURL == "" {
		return nil, nil
	}
	awsCfg, err := a.aws(ctx)
	if err != nil {
		return nil, err
	}
	return iot.NewGateConsumer(sqs.NewFromConfig(awsCfg), a.Config.GateQueueURL, h, a.Logger), nil
}

// Close releases store connections and event writers in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) ticketRepository(ctx context.Context) (repository.TicketRepository, error) {
	cfg := a.Config
	switch cfg.StoreBackend {
	case config.StoreDynamoDB:
		awsCfg, err := a.aws(ctx)
		if err != nil {
			return nil, err
		}
		return dynamo.NewDdbTicketRepository(dynamo.NewClient(awsCfg, cfg.DynamoDBEndpoint), cfg.TableName), nil

	case config.StorePostgres:
		db, err := postgresql.NewDB(cfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		if err := postgresql.EnsureSchema(ctx, db, cfg.TableName); err != nil {
			return nil, err
		}
		return postgresql.NewPgTicketRepository(db, cfg.TableName), nil

	case config.StoreRedis:
		client, err := redisrepo.NewClient(ctx, redisrepo.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		return redisrepo.NewRedisTicketRepository(client, cfg.TableName), nil

	case config.StoreMemory:
		a.Logger.Warn("using in-memory ticket store; tickets are lost on restart")
		return memory.NewTicketRepository(), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

func (a *App) publisher(ctx context.Context) (events.Publisher, error) {
	cfg := a.Config
	switch cfg.EventsBackend {
	case config.EventsSQS:
		awsCfg, err := a.aws(ctx)
		if err != nil {
			return nil, err
		}
		return events.NewSQSPublisher(sqs.NewFromConfig(awsCfg), cfg.SQSEventsQueueURL), nil

	case config.EventsKafka:
		p := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		a.closers = append(a.closers, p.Close)
		return p, nil
	}
	return events.NopPublisher{}, nil
}

// aws loads the shared AWS configuration once.
func (a *App) aws(ctx context.Context) (aws.Config, error) {
	if a.awsCfg != nil {
		return *a.awsCfg, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(a.Config.AWSRegion))
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	a.awsCfg = &awsCfg
	return awsCfg, nil
}
