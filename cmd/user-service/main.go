package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/ordersync/ordersync/internal/config"
	"github.com/ordersync/ordersync/internal/db"
	"github.com/ordersync/ordersync/internal/events"
	"github.com/ordersync/ordersync/internal/logging"
	"github.com/ordersync/ordersync/internal/user"
	"github.com/ordersync/ordersync/internal/web"
)

const serviceName = "user-service"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		slog.Error("User service stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("could not load .env: %w", err)
	}

	cfg, err := config.Load(serviceName)
	if err != nil {
		return err
	}

	logging.Setup(cfg.LogLevel)
	logger := logging.NewWatermillLogger()

	var dbConn *sqlx.DB
	if cfg.NeedsPostgres() {
		dbConn, err = db.Open(ctx, cfg.PostgresURL)
		if err != nil {
			return err
		}
		defer dbConn.Close()
	}

	var store user.Store = user.NewMemoryStore()
	if cfg.StoreBackend == config.StoreBackendPostgres {
		if err := db.Migrate(ctx, dbConn, user.Schema); err != nil {
			return err
		}
		store = user.NewPostgresStore(dbConn)
	}

	channel, err := events.NewChannel(cfg.Events, dbConn, logger)
	if err != nil {
		return err
	}
	defer channel.Close()

	publisher, err := events.NewPublisher(channel.Publisher, logger)
	if err != nil {
		return err
	}

	echoRouter := web.NewEcho(cfg.RequestTimeout)
	user.RegisterRoutes(echoRouter, user.NewService(store, publisher))

	slog.Info("Starting service", "service", serviceName, "addr", cfg.HTTPAddr,
		"store", cfg.StoreBackend, "events", cfg.Events.Backend)

	errgrp, ctx := errgroup.WithContext(ctx)

	errgrp.Go(func() error {
		err := echoRouter.Start(cfg.HTTPAddr)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	errgrp.Go(func() error {
		<-ctx.Done()
		return echoRouter.Shutdown(context.Background())
	})

	return errgrp.Wait()
}
