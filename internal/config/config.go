package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	StoreDynamoDB = "dynamodb"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreMemory   = "memory"

	EventsNone  = "none"
	EventsSQS   = "sqs"
	EventsKafka = "kafka"
)

type Config struct {
	ServerPort string `env:"SERVER_PORT" env-default:"8080"`
	LogLevel   string `env:"LOG_LEVEL" env-default:"info"`

	HourlyRate              float64 `env:"HOURLY_RATE" env-default:"10.0"`
	BillingIncrementMinutes int     `env:"BILLING_INCREMENT_MINUTES" env-default:"15"`

	StoreBackend string `env:"STORE_BACKEND" env-default:"dynamodb"`
	TableName    string `env:"PARKING_TABLE_NAME" env-default:"parking-tickets"`

	AWSRegion        string `env:"AWS_REGION" env-default:"us-east-1"`
	DynamoDBEndpoint string `env:"DYNAMODB_ENDPOINT"`

	DBHost     string `env:"DB_HOST" env-default:"localhost"`
	DBPort     int    `env:"DB_PORT" env-default:"5432"`
	DBUser     string `env:"DB_USER" env-default:"parking"`
	DBPassword string `env:"DB_PASSWORD" env-default:"parking"`
	DBName     string `env:"DB_NAME" env-default:"parking_db"`
	DBSslMode  string `env:"DB_SSLMODE" env-default:"disable"`

	RedisAddr     string `env:"REDIS_ADDR" env-default:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" env-default:"0"`

	EventsBackend     string   `env:"EVENTS_BACKEND" env-default:"none"`
	SQSEventsQueueURL string   `env:"SQS_EVENTS_QUEUE_URL"`
	KafkaBrokers      []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaTopic        string   `env:"KAFKA_TOPIC" env-default:"parking-ticket-events"`

	LPREnabled bool `env:"LPR_ENABLED" env-default:"false"`

	// Gate controllers post entry/exit requests here; empty disables the consumer.
	GateQueueURL string `env:"GATE_QUEUE_URL"`
}

// Load reads an optional .env file, then binds the environment onto Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env file", "error", err)
	}

	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.HourlyRate <= 0 {
		return fmt.Errorf("config error: HOURLY_RATE must be positive, got %v", c.HourlyRate)
	}
	if c.BillingIncrementMinutes <= 0 {
		return fmt.Errorf("config error: BILLING_INCREMENT_MINUTES must be positive, got %d", c.BillingIncrementMinutes)
	}
	switch c.StoreBackend {
	case StoreDynamoDB, StorePostgres, StoreRedis, StoreMemory:
	default:
		return fmt.Errorf("config error: unknown STORE_BACKEND %q", c.StoreBackend)
	}
	switch c.EventsBackend {
	case EventsNone, EventsSQS, EventsKafka:
	default:
		return fmt.Errorf("config error: unknown EVENTS_BACKEND %q", c.EventsBackend)
	}
	if c.EventsBackend == EventsSQS && c.SQSEventsQueueURL == "" {
		return fmt.Errorf("config error: SQS_EVENTS_QUEUE_URL is required when EVENTS_BACKEND=sqs")
	}
	return nil
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
