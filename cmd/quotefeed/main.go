// cmd/quotefeed — Live quote broadcast server.
//
// Holds an in-memory catalog of quotes, mutates a random subset on a fixed
// interval, and broadcasts each mutation batch to WebSocket subscribers
// filtered by their requested identity set. REST endpoints serve point-in-time
// snapshots of the same records, carrying the same stable IDs.
//
// Config (env vars):
//
//	QUOTE_ADDR           — HTTP listen address               (default ":8080")
//	METRICS_ADDR         — metrics/health listen address     (default ":9090")
//	MUTATE_INTERVAL_MS   — mutation tick interval            (default "2000")
//	SUB_QUEUE_SIZE       — per-subscriber queue bound        (default "16")
//	CATALOG_SQLITE_PATH  — optional SQLite catalog
//	REDIS_ADDR           — optional latest-quote Redis mirror
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"quotefeed/config"
	"quotefeed/internal/catalog"
	"quotefeed/internal/feed"
	"quotefeed/internal/gateway"
	"quotefeed/internal/logger"
	"quotefeed/internal/metrics"
	"quotefeed/internal/mirror"
	"quotefeed/internal/model"
	"quotefeed/internal/quotes"
	"quotefeed/internal/store"

	goredis "github.com/go-redis/redis/v8"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	slogger := logger.Init("quotefeed", slog.LevelInfo)

	cfg := config.Load()

	// Seed catalog: SQLite when configured, built-in defaults otherwise.
	var seed []model.Quote
	if cfg.CatalogSQLitePath != "" {
		var err error
		seed, err = catalog.LoadSQLite(cfg.CatalogSQLitePath)
		if err != nil {
			log.Fatalf("[quotefeed] load catalog: %v", err)
		}
	} else {
		seed = catalog.Default()
	}

	st, err := store.New(seed)
	if err != nil {
		log.Fatalf("[quotefeed] seed store: %v", err)
	}
	slogger.Info("store seeded", slog.Int("quotes", st.Len()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.NewMetrics()

	topic := feed.NewTopic(cfg.SubQueueSize)
	topic.OnDrop = func(feedID uint64) {
		m.FanoutDropsTotal.WithLabelValues(strconv.FormatUint(feedID, 10)).Inc()
	}

	health := metrics.NewHealthStatus(cfg.RedisAddr != "")

	mutator := feed.NewMutator(st, topic, cfg.MutateInterval())
	mutator.OnPublish = func(batch model.Batch) {
		m.BatchesPublished.Inc()
		m.QuotesMutated.Add(float64(len(batch)))
		m.BatchSize.Observe(float64(len(batch)))
		m.Subscribers.Set(float64(topic.FeedCount()))
		health.SetLastBatchTime(time.Now())
	}
	go mutator.Run(ctx)

	// Optional Redis mirror of the latest quote values.
	var rdb *goredis.Client
	if cfg.RedisAddr != "" {
		mir, err := mirror.New(mirror.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			log.Fatalf("[quotefeed] redis mirror: %v", err)
		}
		rdb = mir.Client()
		if err := mir.Seed(ctx, st.List()); err != nil {
			log.Printf("[quotefeed] mirror seed failed: %v", err)
		}
		mirrorFeed := topic.Attach()
		go mir.Run(ctx, mirrorFeed)
		defer mir.Close()
	}

	// Metrics + health server.
	health.StartLivenessChecker(ctx, rdb, 10*time.Second)
	msrv := metrics.NewServer(cfg.MetricsAddr, health)
	msrv.Start()

	// Query + subscribe boundaries.
	resolver := quotes.NewResolver(st)
	hub := gateway.NewHub(st, topic, resolver)
	hub.OnClientCount = func(n int) { m.WSClients.Set(float64(n)) }

	mux := http.NewServeMux()
	gateway.RegisterRoutes(mux, hub, resolver, time.Now())

	srv := &http.Server{Addr: cfg.QuoteAddr, Handler: mux}
	go func() {
		slogger.Info("gateway listening", slog.String("addr", cfg.QuoteAddr))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[quotefeed] server error: %v", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	slogger.Info("shutting down")

	cancel()
	hub.Shutdown()
	topic.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)
	msrv.Stop(shutdownCtx)
}
