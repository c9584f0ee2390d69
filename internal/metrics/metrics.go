package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Graph metrics
	PoolCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "poolgraph_pool_count",
		Help: "Total number of pools in the route graph",
	})

	TokenCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "poolgraph_token_count",
		Help: "Total number of distinct token mints in the route graph",
	})

	GraphSnapshotRebuilds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "poolgraph_graph_snapshot_rebuilds_total",
		Help: "Total number of route graph snapshot rebuilds",
	})

	PoolUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "poolgraph_pool_updates_total",
		Help: "Total number of pool account updates received from the stream",
	})

	// Route metrics
	RouteQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poolgraph_route_queries_total",
			Help: "Total number of route queries",
		},
		[]string{"kind"},
	)

	RoutesFound = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "poolgraph_routes_found",
		Help:    "Number of routes returned per single-pair query",
		Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
	})

	// Price metrics
	PriceCalculationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "poolgraph_price_calculation_duration_seconds",
		Help:    "Duration of a full price calculation including account fetches",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})

	PricedMints = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poolgraph_priced_mints_total",
			Help: "Mints evaluated by the price engine by outcome",
		},
		[]string{"outcome"},
	)

	LiquidityChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poolgraph_liquidity_checks_total",
			Help: "Liquidity sufficiency checks by result",
		},
		[]string{"result"},
	)

	PriceImpact = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "poolgraph_price_impact_bps",
		Help:    "Simulated price impact of the threshold trade in basis points",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 300, 500, 1000},
	})

	// Fetch metrics
	AccountFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poolgraph_account_fetches_total",
			Help: "getMultipleAccounts requests by account kind and status",
		},
		[]string{"kind", "status"},
	)

	AccountCacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "poolgraph_account_cache_size",
			Help: "Current number of entries in the account caches",
		},
		[]string{"kind"},
	)

	TickArrayPDACacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "poolgraph_tick_array_pda_cache_size",
		Help: "Current number of entries in tick array PDA cache",
	})

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poolgraph_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poolgraph_http_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
