package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command, excluding cache misses.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "facegram_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// CacheLookups counts cache-aside lookups by keyspace and result.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "facegram_cache_lookups_total",
		Help: "Cache-aside lookups by keyspace and result (hit, miss, error)",
	}, []string{"keyspace", "result"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "facegram_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// WebSocketConnections is the gauge of open realtime connections.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "facegram_websocket_connections",
		Help: "Number of active websocket connections",
	})

	// WebSocketEventsTotal counts inbound realtime events by type.
	WebSocketEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "facegram_websocket_events_total",
		Help: "Total websocket events by type",
	}, []string{"event_type"})

	// RelayDeliveries counts frames delivered to connections by event.
	RelayDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "facegram_relay_deliveries_total",
		Help: "Frames delivered to local connections by event",
	}, []string{"event"})

	// RelayDrops counts frames that were not delivered, by reason.
	RelayDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "facegram_relay_drops_total",
		Help: "Frames dropped by the relay by reason",
	}, []string{"reason"})

	// MessagesSent counts chat messages persisted through the API.
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "facegram_chat_messages_sent_total",
		Help: "Total chat messages persisted",
	})
)

