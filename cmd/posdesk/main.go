// Package main is the entry point of the posdesk daemon: the session manager
// behind one point-of-sale terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"posdesk/internal/config"
	"posdesk/internal/domain/checkout"
	"posdesk/internal/domain/draft"
	"posdesk/internal/domain/editor"
	"posdesk/internal/domain/refdata"
	"posdesk/internal/domain/session"
	"posdesk/internal/infrastructure/backend"
	v1 "posdesk/internal/infrastructure/http/v1"
	"posdesk/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.Development(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	log.Infow("starting posdesk", "terminal_id", cfg.App.TerminalID, "backend", cfg.Backend.URL)

	// --- Backend and reference data ---
	client := backend.New(backend.Config{
		BaseURL: cfg.Backend.URL,
		Timeout: cfg.Backend.Timeout,
		Token:   cfg.Backend.Token,
	})

	cache := refdata.New(client, refdata.Config{
		Interval: cfg.RefData.Interval,
		MinGap:   cfg.RefData.MinGap,
		Timeout:  cfg.Backend.Timeout,
	}, log)
	cache.Start(ctx)
	defer cache.Stop()

	// --- Session ---
	factory := draft.NewFactory(cfg.Defaults.Draft(), draft.WithStock(cache.Stock))

	persister, closePersister, err := openPersister(ctx, cfg.Store, log)
	if err != nil {
		log.Fatalw("failed to open session storage", "driver", cfg.Store.Driver, "error", err)
	}
	defer closePersister()

	codec, err := session.NewCodec(cfg.Store.CompressThreshold)
	if err != nil {
		log.Fatalw("failed to create session codec", "error", err)
	}
	defer codec.Close()

	store := session.NewStore(factory, persister, codec, log)
	store.Load(ctx)

	// --- Edit requests ---
	inbox := editor.NewInbox()
	bridge := editor.NewBridge(inbox, store, factory, cache.Customer, log)
	go bridge.Run(ctx)

	// --- Checkout ---
	printer := openPrinter(cfg.Printer, client, log)
	controller := checkout.New(store, factory, client, cache, printer,
		checkout.NewFeed(checkout.DefaultFeedSize),
		checkout.Config{
			PrintTimeout:  cfg.Printer.Timeout,
			ReceiptHeader: cfg.Receipt.Header(),
		},
		log,
	)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:         log,
		Store:          store,
		Inbox:          inbox,
		Bridge:         bridge,
		Checkout:       controller,
		RefData:        cache,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		TerminalID:     cfg.App.TerminalID,
		PrintMode:      cfg.Printer.Mode,
		Debug:          cfg.App.Development(),
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Backend.Timeout + cfg.Printer.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 30*time.Second)
	defer stop()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}
	cancel()

	log.Info("server stopped")
}
