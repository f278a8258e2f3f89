package main

import (
	"context"
	"fmt"

	"posdesk/internal/config"
	"posdesk/internal/domain/receipt"
	"posdesk/internal/domain/session"
	"posdesk/internal/infrastructure/backend"
	"posdesk/internal/infrastructure/printer"
	"posdesk/internal/infrastructure/storage/gormstore"
	"posdesk/internal/infrastructure/storage/redisstore"
	"posdesk/pkg/logger"
)

// openPersister picks the session storage for the configured driver. The
// returned func releases it.
func openPersister(ctx context.Context, cfg config.StoreConfig, log *logger.Logger) (session.Persister, func(), error) {
	switch cfg.Driver {
	case "memory":
		log.Warn("session storage is in memory, open tabs will not survive a restart")
		return &session.MemoryPersister{}, func() {}, nil

	case "redis":
		rdb, err := redisstore.Dial(ctx, cfg.RedisAddress, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		log.Infow("session storage ready", "driver", "redis", "address", cfg.RedisAddress, "key", cfg.Key)
		return redisstore.New(rdb, cfg.Key, cfg.TTL), func() { _ = rdb.Close() }, nil

	case gormstore.DriverSQLite, gormstore.DriverPostgres:
		db, err := gormstore.Open(gormstore.DefaultConfig(cfg.Driver, cfg.DSN))
		if err != nil {
			return nil, nil, err
		}
		st := gormstore.New(db, cfg.Key)
		log.Infow("session storage ready", "driver", cfg.Driver, "key", cfg.Key)
		return st, func() {
			if err := st.Close(); err != nil {
				log.Warnw("close session storage", "error", err)
			}
		}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// openPrinter builds the receipt printer. "backend" renders HTML and hands it
// to the shop backend; usb and network drive an ESC/POS device directly. A
// device that cannot be set up disables printing instead of stopping the till.
func openPrinter(cfg config.PrinterConfig, client *backend.Client, log *logger.Logger) receipt.Printer {
	switch cfg.Type {
	case "backend":
		return receipt.NewDocumentPrinter(client)
	case "none":
		return nil
	}

	dev, err := printer.Open(printer.Type(cfg.Type), cfg.USBPath, cfg.Address)
	if err != nil {
		log.Warnw("failed to initialize printer, printing disabled", "type", cfg.Type, "error", err)
		return nil
	}
	if !dev.Ready() {
		log.Warnw("receipt printer not reachable yet", "type", cfg.Type)
	}
	width := cfg.Width
	if width <= 0 {
		width = printer.Width80mm
	}
	return receipt.NewDevicePrinter(dev, printer.Encoder(width))
}
