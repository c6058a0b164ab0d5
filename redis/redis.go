// Package redis is the Redis backend for the document, story and event
// stores. Each parent record lives under one key, so every write touches a
// single key (plus an index set) and runs atomically on the server.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key layout.
const (
	documentPrefix = "document:"
	storyPrefix    = "story:"
	eventPrefix    = "event:"
	storyIndex     = "stories:slugs"
	eventIndex     = "events:slugs"

	variantPrefix = "variant:"
	fieldViews    = "views"
	fieldID       = "id"
	fieldCreated  = "created_at"
	fieldUpdated  = "updated_at"
)

// NewClient connects to addr and pings it once. Unlike the SQL backends
// there is no schema to migrate.
func NewClient(ctx context.Context, addr string, logger *slog.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}

	if logger != nil {
		logger.Info("redis connected", slog.String("addr", addr))
	}
	return client, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
