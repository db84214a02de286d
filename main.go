package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"parking_tickets/internal/api"
	"parking_tickets/internal/api/handler"
	"parking_tickets/internal/app"
	"parking_tickets/internal/config"
)

func main() {
	// 1. Configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := app.NewLogger(cfg, false)
	slog.SetDefault(logger)

	// 2. Store, event publisher and services
	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	a, err := app.New(initCtx, cfg, logger)
	cancelInit()
	if err != nil {
		logger.Error("failed to initialise parking service", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("failed to release resources", "error", err)
		}
	}()

	// 3. HTTP router
	parkingHandler := handler.NewParkingHandler(a.Parking, logger)
	var lprHandler *handler.LPRHandler
	if a.LPR != nil {
		lprHandler = handler.NewLPRHandler(a.LPR, parkingHandler)
	}
	router := api.SetupRouter(parkingHandler, lprHandler, logger)

	// 4. Gate request consumer
	gateConsumer, err := a.GateConsumer(context.Background(), parkingHandler)
	if err != nil {
		logger.Error("failed to set up gate consumer", "error", err)
		if cerr := a.Close(); cerr != nil {
			logger.Error("failed to release resources", "error", cerr)
		}
		os.Exit(1)
	}
	if gateConsumer == nil {
		logger.Info("GATE_QUEUE_URL not set; gate consumer disabled")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 5. Run until SIGINT/SIGTERM or until the server fails
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server listening", "port", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if gateConsumer != nil {
		g.Go(func() error {
			gateConsumer.Start(gctx)
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", "error", err)
	}
	logger.Info("server exited")
}
