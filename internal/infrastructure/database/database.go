package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/sangkips/repairshop-api/internal/config"
	"github.com/sangkips/repairshop-api/internal/domain/entity"
	"github.com/sangkips/repairshop-api/internal/domain/enum"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the configured database driver
func Open(cfg *config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	switch cfg.Driver {
	case "sqlite":
		return NewSQLiteDB(cfg.Path, cfg.LogLevel, log)
	case "", "postgres":
		return NewPostgresDB(cfg, log)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(cfg *config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true, // disables implicit prepared statement usage
	}), gormConfig(cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying SQL DB to set connection pool settings
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	log.Info("connected to database", zap.String("driver", "postgres"), zap.String("host", cfg.Host), zap.String("name", cfg.Name))
	return db, nil
}

// NewSQLiteDB opens a SQLite database. dsn may be a file path or a
// "file:...?mode=memory" URI.
func NewSQLiteDB(dsn, logLevel string, log *zap.Logger) (*gorm.DB, error) {
	if !strings.Contains(dsn, "?") {
		dsn += "?_foreign_keys=on&_busy_timeout=5000"
	}
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig(logLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	// SQLite has a single writer; one connection serialises access.
	sqlDB.SetMaxOpenConns(1)

	log.Info("connected to database", zap.String("driver", "sqlite"), zap.String("dsn", dsn))
	return db, nil
}

func gormConfig(level string) *gorm.Config {
	return &gorm.Config{
		Logger:  logger.Default.LogMode(gormLogLevel(level)),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}
}

func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// AutoMigrate runs GORM auto-migration for all entities
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&entity.User{},

		// Inventory
		&entity.StockItem{},

		// Transactions
		&entity.Sale{},
		&entity.SaleLineItem{},
		&entity.ServiceTicket{},
		&entity.ServicePart{},
		&entity.ServiceSequence{},

		// System entities
		&entity.IdempotencyKey{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// SeedDefaultData creates the admin account configured through ADMIN_* if
// it does not exist yet.
func SeedDefaultData(db *gorm.DB, admin config.AdminConfig, log *zap.Logger) error {
	if admin.Email == "" || admin.Password == "" {
		log.Info("no admin account configured, skipping seed")
		return nil
	}

	email := strings.ToLower(admin.Email)
	var existing entity.User
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		log.Info("admin user already exists", zap.String("email", email))
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	name := admin.Name
	if name == "" {
		name = "Administrator"
	}
	user := entity.User{
		Name:     name,
		Email:    email,
		Password: string(hashedPassword),
		Role:     enum.RoleAdmin,
	}
	if err := db.Create(&user).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	log.Info("admin user created", zap.String("email", email))
	return nil
}
