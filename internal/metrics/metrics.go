package metrics

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the quote feed.
type Metrics struct {
	BatchesPublished prometheus.Counter
	QuotesMutated    prometheus.Counter
	FanoutDropsTotal *prometheus.CounterVec // labels: feed
	Subscribers      prometheus.Gauge
	WSClients        prometheus.Gauge
	BatchSize        prometheus.Histogram
}

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		BatchesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quotefeed_batches_published_total",
			Help: "Total mutation batches published to the topic",
		}),
		QuotesMutated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quotefeed_quotes_mutated_total",
			Help: "Total individual quote mutations applied",
		}),
		FanoutDropsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quotefeed_fanout_drops_total",
			Help: "Batches evicted from full subscriber queues (drop-oldest)",
		}, []string{"feed"}),
		Subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quotefeed_topic_feeds",
			Help: "Currently attached topic feeds",
		}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quotefeed_ws_clients",
			Help: "Currently connected WebSocket clients",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "quotefeed_batch_size",
			Help:    "Quotes per published batch",
			Buckets: []float64{1, 2, 3, 5, 8},
		}),
	}

	prometheus.MustRegister(
		m.BatchesPublished,
		m.QuotesMutated,
		m.FanoutDropsTotal,
		m.Subscribers,
		m.WSClients,
		m.BatchSize,
	)
	return m
}

// HealthStatus represents the system health.
type HealthStatus struct {
	mu sync.RWMutex

	LastBatchTime  time.Time
	RedisMirror    bool // whether a mirror is configured at all
	RedisConnected bool
	RedisLatencyMs float64
	LastCheckAt    time.Time
	StartedAt      time.Time
}

// NewHealthStatus returns a default health status.
func NewHealthStatus(redisMirror bool) *HealthStatus {
	return &HealthStatus{
		StartedAt:   time.Now(),
		RedisMirror: redisMirror,
	}
}

// SetLastBatchTime records when the most recent batch was published.
func (h *HealthStatus) SetLastBatchTime(t time.Time) {
	h.mu.Lock()
	h.LastBatchTime = t
	h.mu.Unlock()
}

// CheckRedis pings the mirror's Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks. rdb may be nil when
// no mirror is configured.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if rdb == nil {
					continue
				}
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				h.CheckRedis(probeCtx, rdb)
				cancel()
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overallStatus := "healthy"
	httpCode := http.StatusOK
	if h.RedisMirror && !h.RedisConnected {
		overallStatus = "degraded"
		httpCode = http.StatusServiceUnavailable
	}

	batchAge := ""
	if !h.LastBatchTime.IsZero() {
		batchAge = time.Since(h.LastBatchTime).Round(time.Millisecond).String()
	}

	status := struct {
		Status         string  `json:"status"`
		Uptime         string  `json:"uptime"`
		LastBatchTime  string  `json:"last_batch_time"`
		BatchAge       string  `json:"batch_age"`
		RedisMirror    bool    `json:"redis_mirror"`
		RedisConnected bool    `json:"redis_connected"`
		RedisLatencyMs float64 `json:"redis_latency_ms"`
		LastCheckAt    string  `json:"last_check_at"`
	}{
		Status:         overallStatus,
		Uptime:         time.Since(h.StartedAt).Round(time.Second).String(),
		LastBatchTime:  h.LastBatchTime.Format(time.RFC3339),
		BatchAge:       batchAge,
		RedisMirror:    h.RedisMirror,
		RedisConnected: h.RedisConnected,
		RedisLatencyMs: h.RedisLatencyMs,
		LastCheckAt:    h.LastCheckAt.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
