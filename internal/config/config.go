package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Shop      ShopConfig
	Service   ServiceConfig
	Inventory InventoryConfig
	Printer   PrinterConfig
	Email     EmailConfig
	Cron      CronConfig
	Log       LogConfig
	Admin     AdminConfig
}

type AppConfig struct {
	Name  string
	Env   string
	Port  string
	Debug bool
}

type DatabaseConfig struct {
	Driver   string // postgres or sqlite
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	Timezone string
	Path     string // sqlite file, ignored for postgres
	LogLevel string
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type RateLimitConfig struct {
	Requests int
	Duration int
}

// ShopConfig is printed on receipts and drives the service code calendar.
type ShopConfig struct {
	Name     string
	Address  string
	Phone    string
	Timezone string
}

// Location resolves the shop timezone, falling back to UTC.
func (s ShopConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type ServiceConfig struct {
	// PricingMode selects which part prices a ticket total uses:
	// "snapshot" (prices captured when the part was consumed) or "live".
	PricingMode string
}

type InventoryConfig struct {
	LowStockThreshold int
}

type PrinterConfig struct {
	Type    string // usb, network or none
	USBPath string
	Address string
	Width   int
}

type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// Enabled reports whether an SMTP relay is configured.
func (e EmailConfig) Enabled() bool {
	return e.Host != "" && e.From != ""
}

type CronConfig struct {
	IdempotencyPurge string
	LowStockDigest   string
}

type LogConfig struct {
	Level string
}

type AdminConfig struct {
	Name     string
	Email    string
	Password string
}

// defaults apply to every key that is neither in .env nor the environment.
var defaults = map[string]any{
	"APP_NAME":               "repairshop-api",
	"APP_ENV":                "development",
	"APP_PORT":               "8080",
	"APP_DEBUG":              true,
	"DB_DRIVER":              "postgres",
	"DB_HOST":                "localhost",
	"DB_PORT":                "5432",
	"DB_NAME":                "repairshop",
	"DB_USER":                "postgres",
	"DB_PASSWORD":            "postgres",
	"DB_SSL_MODE":            "disable",
	"DB_TIMEZONE":            "Asia/Jakarta",
	"DB_PATH":                "repairshop.db",
	"DB_LOG_LEVEL":           "warn",
	"JWT_SECRET":             insecureSecret,
	"JWT_EXPIRY_HOURS":       24,
	"CORS_ALLOWED_ORIGINS":   "http://localhost:3000",
	"CORS_ALLOWED_HEADERS":   []string{},
	"RATE_LIMIT_REQUESTS":    100,
	"RATE_LIMIT_DURATION":    60,
	"SHOP_NAME":              "Phone Repair Shop",
	"SHOP_TIMEZONE":          "Asia/Jakarta",
	"SERVICE_PRICING_MODE":   "snapshot",
	"LOW_STOCK_THRESHOLD":    3,
	"PRINTER_TYPE":           "none",
	"PRINTER_USB_PATH":       "/dev/usb/lp0",
	"PRINTER_WIDTH":          32,
	"SMTP_PORT":              587,
	"SMTP_FROM_NAME":         "Phone Repair Shop",
	"CRON_IDEMPOTENCY_PURGE": "@every 1h",
	"CRON_LOW_STOCK_DIGEST":  "0 8 * * *",
	"LOG_LEVEL":              "info",
	"ADMIN_NAME":             "Administrator",
}

const insecureSecret = "change-this-secret-in-production"

// Load reads .env from the working directory, then the environment, which
// wins over the file.
func Load() *Config {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables: %v", err)
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	return build(v)
}

func build(v *viper.Viper) *Config {
	return &Config{
		App: AppConfig{
			Name:  v.GetString("APP_NAME"),
			Env:   v.GetString("APP_ENV"),
			Port:  v.GetString("APP_PORT"),
			Debug: v.GetBool("APP_DEBUG"),
		},
		Database: DatabaseConfig{
			Driver:   strings.ToLower(v.GetString("DB_DRIVER")),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			SSLMode:  v.GetString("DB_SSL_MODE"),
			Timezone: v.GetString("DB_TIMEZONE"),
			Path:     v.GetString("DB_PATH"),
			LogLevel: v.GetString("DB_LOG_LEVEL"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
			TTL:    time.Duration(v.GetInt("JWT_EXPIRY_HOURS")) * time.Hour,
		},
		CORS: CORSConfig{
			AllowedOrigins: v.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods: v.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders: v.GetStringSlice("CORS_ALLOWED_HEADERS"),
		},
		RateLimit: RateLimitConfig{
			Requests: v.GetInt("RATE_LIMIT_REQUESTS"),
			Duration: v.GetInt("RATE_LIMIT_DURATION"),
		},
		Shop: ShopConfig{
			Name:     v.GetString("SHOP_NAME"),
			Address:  v.GetString("SHOP_ADDRESS"),
			Phone:    v.GetString("SHOP_PHONE"),
			Timezone: v.GetString("SHOP_TIMEZONE"),
		},
		Service: ServiceConfig{
			PricingMode: strings.ToLower(v.GetString("SERVICE_PRICING_MODE")),
		},
		Inventory: InventoryConfig{
			LowStockThreshold: v.GetInt("LOW_STOCK_THRESHOLD"),
		},
		Printer: PrinterConfig{
			Type:    strings.ToLower(v.GetString("PRINTER_TYPE")),
			USBPath: v.GetString("PRINTER_USB_PATH"),
			Address: v.GetString("PRINTER_ADDRESS"),
			Width:   v.GetInt("PRINTER_WIDTH"),
		},
		Email: EmailConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			Username: v.GetString("SMTP_USERNAME"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("SMTP_FROM"),
			FromName: v.GetString("SMTP_FROM_NAME"),
		},
		Cron: CronConfig{
			IdempotencyPurge: v.GetString("CRON_IDEMPOTENCY_PURGE"),
			LowStockDigest:   v.GetString("CRON_LOW_STOCK_DIGEST"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Admin: AdminConfig{
			Name:     v.GetString("ADMIN_NAME"),
			Email:    v.GetString("ADMIN_EMAIL"),
			Password: v.GetString("ADMIN_PASSWORD"),
		},
	}
}

// Validate rejects settings the server cannot start with. Every problem is
// reported, not only the first.
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER %q: want postgres or sqlite", c.Database.Driver))
	}
	switch c.Service.PricingMode {
	case "snapshot", "live":
	default:
		errs = append(errs, fmt.Errorf("SERVICE_PRICING_MODE %q: want snapshot or live", c.Service.PricingMode))
	}
	switch c.Printer.Type {
	case "usb", "network", "none", "":
	default:
		errs = append(errs, fmt.Errorf("PRINTER_TYPE %q: want usb, network or none", c.Printer.Type))
	}
	if c.Printer.Type == "network" && c.Printer.Address == "" {
		errs = append(errs, errors.New("PRINTER_ADDRESS is required for a network printer"))
	}
	if c.JWT.TTL <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRY_HOURS must be positive"))
	}
	if c.App.Env == "production" && (c.JWT.Secret == insecureSecret || len(c.JWT.Secret) < 32) {
		errs = append(errs, errors.New("JWT_SECRET must be set to at least 32 characters in production"))
	}
	if c.Inventory.LowStockThreshold < 0 {
		errs = append(errs, errors.New("LOW_STOCK_THRESHOLD must not be negative"))
	}
	return errors.Join(errs...)
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.Timezone
}
