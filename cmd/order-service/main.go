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

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/ordersync/ordersync/internal/config"
	"github.com/ordersync/ordersync/internal/db"
	"github.com/ordersync/ordersync/internal/events"
	"github.com/ordersync/ordersync/internal/logging"
	"github.com/ordersync/ordersync/internal/order"
	"github.com/ordersync/ordersync/internal/web"
)

const serviceName = "order-service"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		slog.Error("Order service stopped", "error", err)
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
	useNumericPrices()
	logger := logging.NewWatermillLogger()

	var dbConn *sqlx.DB
	if cfg.NeedsPostgres() {
		dbConn, err = db.Open(ctx, cfg.PostgresURL)
		if err != nil {
			return err
		}
		defer dbConn.Close()
	}

	var store order.Store = order.NewMemoryStore()
	if cfg.StoreBackend == config.StoreBackendPostgres {
		if err := db.Migrate(ctx, dbConn, order.Schema); err != nil {
			return err
		}
		store = order.NewPostgresStore(dbConn)
	}

	channel, err := events.NewChannel(cfg.Events, dbConn, logger)
	if err != nil {
		return err
	}
	defer channel.Close()

	service := order.NewService(store)

	watermillRouter, err := events.NewRouter(events.RouterConfig{
		HandlerTimeout:  cfg.Events.HandlerTimeout,
		PoisonPublisher: channel.Publisher,
	}, logger)
	if err != nil {
		return err
	}
	order.NewUserChangeHandler(service).Register(watermillRouter, channel.Subscriber)

	echoRouter := web.NewEcho(cfg.RequestTimeout)
	order.RegisterRoutes(echoRouter, service)

	slog.Info("Starting service", "service", serviceName, "addr", cfg.HTTPAddr,
		"store", cfg.StoreBackend, "events", cfg.Events.Backend)

	return serve(ctx, watermillRouter, echoRouter, cfg.HTTPAddr)
}

// useNumericPrices writes order prices as JSON numbers, the same type
// clients post.
func useNumericPrices() {
	decimal.MarshalJSONWithoutQuotes = true
}

// serve runs the consumer router and the HTTP server until ctx is done or
// either of them fails.
func serve(ctx context.Context, watermillRouter *message.Router, echoRouter *echo.Echo, addr string) error {
	errgrp, ctx := errgroup.WithContext(ctx)

	errgrp.Go(func() error {
		return watermillRouter.Run(ctx)
	})

	errgrp.Go(func() error {
		// Not healthy until the consumer is subscribed. Running never closes
		// when Run fails first.
		select {
		case <-watermillRouter.Running():
		case <-ctx.Done():
			return nil
		}

		err := echoRouter.Start(addr)
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
