package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"finova/internal/amqp"
	"finova/internal/auth"
	"finova/internal/config"
	"finova/internal/feed"
	httpserver "finova/internal/http"
	"finova/internal/log"
	"finova/internal/services"
	"finova/internal/storage"
)

func main() {
	// .env is for local development; absence is not an error.
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	logger.Info("Starting finova")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.DatabasePath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err, "path", cfg.DatabasePath)
		os.Exit(1)
	}

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing in single-instance mode", "error", err)
			amqpClient = nil
		} else {
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange)
		}
	} else {
		logger.Info("AMQP disabled, feed updates stay instance-local")
	}

	hub := feed.NewHub(repo)
	defer hub.Close()

	authSvc, err := auth.NewService(repo, []byte(cfg.JWTSecret), cfg.TokenTTL)
	if err != nil {
		logger.Error("Failed to initialize auth service", "error", err)
		os.Exit(1)
	}
	defer authSvc.Close()

	var publisher services.EventPublisher
	if amqpClient != nil {
		publisher = amqpClient
	}
	txSvc := services.NewTransactionService(repo, hub, publisher)
	defer func() {
		if err := txSvc.Close(); err != nil {
			logger.Error("Failed to close transaction service", "error", err)
		}
	}()

	server := httpserver.NewServer(httpserver.Config{
		Addr:              ":" + cfg.Port,
		RequestsPerMinute: cfg.RequestsPerMinute,
	}, authSvc, txSvc, hub, repo, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(server.Start)

	if amqpClient != nil {
		g.Go(func() error {
			// Mutations on other instances land here; refreshing the hub
			// pushes fresh snapshots to local subscribers.
			err := amqpClient.ConsumeTransactionEvents(ctx, func(msg *amqp.TransactionEventMessage) error {
				hub.Notify(ctx, msg.OwnerID)
				return nil
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Event consumer stopped", "error", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Shutdown complete")
}
