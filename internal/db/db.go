package db

import (
	"fmt"
	"log/slog"
	"time"

	"site-content-store/internal/config"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the SQL backend selected by cfg.StoreDriver.
func Connect(cfg *config.Config, log *slog.Logger) (*gorm.DB, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		dsn := fmt.Sprintf("host=%v user=%v password=%v dbname=%v port=%v sslmode=disable",
			cfg.DBHost,
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBName,
			cfg.DBPort,
		)
		return Open(postgres.Open(dsn), cfg.Environment, log)
	case config.DriverSQLite:
		return OpenSQLite(cfg.SQLitePath, cfg.Environment, log)
	default:
		return nil, fmt.Errorf("store driver %q is not a SQL backend", cfg.StoreDriver)
	}
}

// OpenSQLite opens a SQLite database. SQLite serialises writers anyway, and
// a single connection keeps ":memory:" databases alive across calls.
func OpenSQLite(path, environment string, log *slog.Logger) (*gorm.DB, error) {
	db, err := Open(sqlite.Open(path), environment, log)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

func Open(dialector gorm.Dialector, environment string, log *slog.Logger) (*gorm.DB, error) {
	level := logger.Info
	if environment == "production" {
		level = logger.Error
	}
	if log == nil {
		level = logger.Silent
		log = slog.New(slog.DiscardHandler)
	}
	newLogger := logger.New(
		slog.NewLogLogger(log.Handler(), slog.LevelInfo), // io writer
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  level,       // Log level
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: newLogger,
		// duplicate keys surface as gorm.ErrDuplicatedKey on every driver
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("error connecting to db: %w", err)
	}
	log.Info("connected to db", slog.String("dialect", dialector.Name()))

	return db, nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
