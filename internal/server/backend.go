package server

import (
	"context"
	"fmt"
	"log/slog"

	"site-content-store/internal/config"
	"site-content-store/internal/db"
	"site-content-store/internal/document"
	"site-content-store/internal/event"
	"site-content-store/internal/logging"
	"site-content-store/internal/story"
	"site-content-store/redis"

	"gorm.io/gorm"
)

// Backend is the set of repositories behind the three stores, all bound to
// one storage engine.
type Backend struct {
	Documents document.DocumentRepository
	Stories   story.StoryRepository
	Events    event.EventRepository

	ping  func(ctx context.Context) error
	close func() error
}

func (b *Backend) Ping(ctx context.Context) error { return b.ping(ctx) }

func (b *Backend) Close() error { return b.close() }

// OpenBackend connects to the engine named by cfg.StoreDriver. SQL engines are
// migrated before use.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backend, error) {
	if cfg.StoreDriver == config.DriverRedis {
		client, err := redis.NewClient(ctx, cfg.RedisAddress, logging.For(logger, logging.ChannelDatabase))
		if err != nil {
			return nil, err
		}
		return &Backend{
			Documents: redis.NewDocumentRepository(client),
			Stories:   redis.NewStoryRepository(client),
			Events:    redis.NewEventRepository(client),
			ping:      func(ctx context.Context) error { return client.Ping(ctx).Err() },
			close:     client.Close,
		}, nil
	}

	conn, err := db.Connect(cfg, logging.For(logger, logging.ChannelDatabase))
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(conn); err != nil {
		_ = db.Close(conn)
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return NewSQLBackend(conn), nil
}

// NewSQLBackend wraps an open, migrated gorm connection.
func NewSQLBackend(conn *gorm.DB) *Backend {
	return &Backend{
		Documents: document.NewRepository(conn),
		Stories:   story.NewRepository(conn),
		Events:    event.NewRepository(conn),
		ping: func(ctx context.Context) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		close: func() error { return db.Close(conn) },
	}
}
