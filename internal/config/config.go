// Package config loads daemon settings from a .env file and the environment.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"posdesk/internal/domain/draft"
	"posdesk/internal/domain/receipt"
	"posdesk/internal/domain/sales"
)

type Config struct {
	App      AppConfig
	Backend  BackendConfig
	Store    StoreConfig
	Defaults DefaultsConfig
	Printer  PrinterConfig
	RefData  RefDataConfig
	CORS     CORSConfig
	Receipt  ReceiptConfig
}

type AppConfig struct {
	Env        string
	Port       string
	LogLevel   string
	TerminalID string
}

// Development reports whether the daemon runs on a developer machine.
func (a AppConfig) Development() bool { return a.Env == "development" }

type BackendConfig struct {
	URL     string
	Timeout time.Duration
	Token   string
}

type StoreConfig struct {
	// Driver is sqlite, postgres, redis or memory.
	Driver        string
	DSN           string
	Key           string
	RedisAddress  string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
	// CompressThreshold is the snapshot size above which zstd kicks in.
	CompressThreshold int
}

type DefaultsConfig struct {
	SaleType      sales.SaleType
	WarehouseID   *int64
	PaymentMethod string
}

// Draft converts the defaults for the draft factory.
func (d DefaultsConfig) Draft() draft.Defaults {
	return draft.Defaults{
		SaleType:      d.SaleType,
		WarehouseID:   d.WarehouseID,
		PaymentMethod: d.PaymentMethod,
	}
}

type PrinterConfig struct {
	// Type is backend, usb, network or none.
	Type    string
	USBPath string
	Address string
	Width   int
	Timeout time.Duration
	Mode    sales.PrintMode
}

type RefDataConfig struct {
	Interval time.Duration
	MinGap   time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type ReceiptConfig struct {
	StoreName string
	Address   string
	Phone     string
}

// Header returns the receipt header.
func (r ReceiptConfig) Header() receipt.Header {
	return receipt.Header{StoreName: r.StoreName, Address: r.Address, Phone: r.Phone}
}

// Load reads .env from the working directory (optional) and the environment.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit env file. A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()
	setDefaults(v)

	// Environment alone is a valid setup for a packaged till.
	_ = v.ReadInConfig()

	cfg := &Config{
		App: AppConfig{
			Env:        v.GetString("APP_ENV"),
			Port:       v.GetString("APP_PORT"),
			LogLevel:   v.GetString("LOG_LEVEL"),
			TerminalID: v.GetString("TERMINAL_ID"),
		},
		Backend: BackendConfig{
			URL:     strings.TrimRight(v.GetString("BACKEND_URL"), "/"),
			Timeout: v.GetDuration("BACKEND_TIMEOUT"),
			Token:   v.GetString("BACKEND_TOKEN"),
		},
		Store: StoreConfig{
			Driver:            strings.ToLower(v.GetString("STORE_DRIVER")),
			DSN:               v.GetString("STORE_DSN"),
			Key:               v.GetString("STORE_KEY"),
			RedisAddress:      v.GetString("REDIS_ADDRESS"),
			RedisPassword:     v.GetString("REDIS_PASSWORD"),
			RedisDB:           v.GetInt("REDIS_DB"),
			TTL:               v.GetDuration("STORE_TTL"),
			CompressThreshold: v.GetInt("STORE_COMPRESS_THRESHOLD"),
		},
		Defaults: DefaultsConfig{
			SaleType:      sales.SaleType(strings.ToLower(v.GetString("DEFAULT_SALE_TYPE"))),
			PaymentMethod: v.GetString("DEFAULT_PAYMENT_METHOD"),
		},
		Printer: PrinterConfig{
			Type:    strings.ToLower(v.GetString("PRINTER_TYPE")),
			USBPath: v.GetString("PRINTER_USB_PATH"),
			Address: v.GetString("PRINTER_ADDRESS"),
			Width:   v.GetInt("PRINTER_WIDTH"),
			Timeout: v.GetDuration("PRINT_TIMEOUT"),
			Mode:    sales.PrintMode(strings.ToLower(v.GetString("PRINT_MODE"))),
		},
		RefData: RefDataConfig{
			Interval: v.GetDuration("REFRESH_INTERVAL"),
			MinGap:   v.GetDuration("REFRESH_MIN_GAP"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Receipt: ReceiptConfig{
			StoreName: v.GetString("STORE_NAME"),
			Address:   v.GetString("STORE_ADDRESS"),
			Phone:     v.GetString("STORE_PHONE"),
		},
	}

	if raw := strings.TrimSpace(v.GetString("DEFAULT_WAREHOUSE_ID")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("DEFAULT_WAREHOUSE_ID: invalid warehouse id %q", raw)
		}
		cfg.Defaults.WarehouseID = &id
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("APP_PORT", "8765")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("TERMINAL_ID", "till-1")
	v.SetDefault("BACKEND_URL", "http://localhost:3000")
	v.SetDefault("BACKEND_TIMEOUT", "15s")
	v.SetDefault("STORE_DRIVER", "sqlite")
	v.SetDefault("STORE_DSN", "posdesk.db")
	v.SetDefault("STORE_KEY", "pos-drafts")
	v.SetDefault("REDIS_ADDRESS", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("STORE_TTL", "0s")
	v.SetDefault("STORE_COMPRESS_THRESHOLD", 0)
	v.SetDefault("DEFAULT_SALE_TYPE", "cash")
	v.SetDefault("DEFAULT_PAYMENT_METHOD", "")
	v.SetDefault("PRINTER_TYPE", "backend")
	v.SetDefault("PRINTER_WIDTH", 48)
	v.SetDefault("PRINT_TIMEOUT", "10s")
	v.SetDefault("PRINT_MODE", "silent")
	v.SetDefault("REFRESH_INTERVAL", "5m")
	v.SetDefault("REFRESH_MIN_GAP", "2s")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
	v.SetDefault("STORE_NAME", "")
}

// Validate checks values that would otherwise fail deep inside wiring.
func (c *Config) Validate() error {
	if !c.Defaults.SaleType.Valid() {
		return fmt.Errorf("DEFAULT_SALE_TYPE: unknown sale type %q", c.Defaults.SaleType)
	}
	switch c.Store.Driver {
	case "sqlite", "postgres", "redis", "memory":
	default:
		return fmt.Errorf("STORE_DRIVER: unknown driver %q", c.Store.Driver)
	}
	switch c.Printer.Type {
	case "backend", "usb", "network", "none":
	default:
		return fmt.Errorf("PRINTER_TYPE: unknown printer %q", c.Printer.Type)
	}
	switch c.Printer.Mode {
	case sales.PrintNone, sales.PrintSilent, sales.PrintPreview:
	default:
		return fmt.Errorf("PRINT_MODE: unknown mode %q", c.Printer.Mode)
	}
	if c.Backend.URL == "" {
		return fmt.Errorf("BACKEND_URL is required")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
