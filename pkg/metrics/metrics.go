package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// World metrics
	ZonesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "shard_zones_total",
			Help: "Total number of live zones by kind (regular or instance)",
		},
		[]string{"kind"},
	)

	EntitiesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "shard_entities_total",
			Help: "Total number of entities by kind",
		},
		[]string{"kind"},
	)

	TicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shard_ticks_total",
			Help: "Total zone ticks executed by zone",
		},
		[]string{"zone"},
	)

	TickDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shard_tick_duration_seconds",
			Help:    "Zone tick duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	OrderFaults = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shard_order_faults_total",
			Help: "Total recovered panics inside order handlers",
		},
	)

	// Command metrics
	CommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shard_commands_total",
			Help: "Total commands by action and status",
		},
		[]string{"action", "status"},
	)

	// Ledger metrics
	LedgerOpsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shard_ledger_ops_total",
			Help: "Total ledger operations settled successfully",
		},
	)

	LedgerOpsFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shard_ledger_ops_failed_total",
			Help: "Total ledger operations that failed, after any retries",
		},
	)

	LedgerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "shard_ledger_queue_depth",
			Help: "Pending operations in the transaction serializer",
		},
	)

	// Gate metrics
	GatesOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "shard_gates_open",
			Help: "Dungeon gates currently standing",
		},
	)

	InstancesActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "shard_instances_active",
			Help: "Dungeon instances currently live",
		},
	)

	// Session metrics
	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "shard_sessions_active",
			Help: "Unexpired bearer sessions",
		},
	)

	// API metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shard_api_requests_total",
			Help: "Total API requests by route and status",
		},
		[]string{"route", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shard_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)

func init() {
	prometheus.MustRegister(
		ZonesTotal,
		EntitiesTotal,
		TicksTotal,
		TickDuration,
		OrderFaults,
		CommandsTotal,
		LedgerOpsTotal,
		LedgerOpsFailed,
		LedgerQueueDepth,
		GatesOpen,
		InstancesActive,
		SessionsActive,
		APIRequestsTotal,
		APIRequestDuration,
	)
}

// Handler returns the HTTP handler for the /metrics endpoint
func Handler() http.Handler {
	return promhttp.Handler()
}
