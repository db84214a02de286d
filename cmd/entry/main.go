package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"parking_tickets/internal/api/handler"
	"parking_tickets/internal/app"
	"parking_tickets/internal/config"
)

var parkingHandler *handler.ParkingHandler

func init() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := app.NewLogger(cfg, true).With("function", "entry")
	slog.SetDefault(logger)

	a, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to initialise parking service", "error", err)
		os.Exit(1)
	}
	parkingHandler = handler.NewParkingHandler(a.Parking, logger)
}

func main() {
	lambda.Start(parkingHandler.LambdaEntry)
}
