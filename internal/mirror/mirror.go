// Package mirror maintains a Redis copy of the latest quote values so that
// operators and sidecar tooling can inspect the feed without attaching a
// WebSocket client. Only current values are written — no history.
package mirror

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"quotefeed/internal/feed"
	"quotefeed/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

const keyPrefix = "quote:"

// Config configures the Redis mirror.
type Config struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
}

// Mirror writes each published batch's quotes to Redis hashes.
type Mirror struct {
	client *goredis.Client
}

// Client returns the underlying Redis client for health checks.
func (m *Mirror) Client() *goredis.Client { return m.client }

// New connects to Redis and pings it.
func New(cfg Config) (*Mirror, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	log.Printf("[mirror] connected to %s", cfg.Addr)
	return &Mirror{client: client}, nil
}

// Seed writes the full current catalog, so the mirror is complete before the
// first mutation tick.
func (m *Mirror) Seed(ctx context.Context, quotes []model.Quote) error {
	pipe := m.client.Pipeline()
	for i := range quotes {
		m.hset(ctx, pipe, &quotes[i])
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Run consumes a raw topic feed and mirrors every batch. Blocks until ctx is
// cancelled or the feed is detached. The caller owns the feed handle.
func (m *Mirror) Run(ctx context.Context, f *feed.Feed) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch, ok := <-f.C():
			if !ok {
				return
			}
			m.writeBatch(ctx, batch)
		}
	}
}

func (m *Mirror) writeBatch(ctx context.Context, batch model.Batch) {
	pipe := m.client.Pipeline()
	for i := range batch {
		m.hset(ctx, pipe, &batch[i])
	}
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[mirror] write batch: %v", err)
	}
}

func (m *Mirror) hset(ctx context.Context, pipe goredis.Pipeliner, q *model.Quote) {
	pipe.HSet(ctx, keyPrefix+q.ID,
		"symbol", q.Symbol,
		"name", q.Name,
		"price", strconv.FormatFloat(q.Price, 'f', 2, 64),
		"change_pct", strconv.FormatFloat(q.ChangePercent, 'f', 2, 64),
	)
}

// Close releases the Redis connection.
func (m *Mirror) Close() error {
	return m.client.Close()
}
