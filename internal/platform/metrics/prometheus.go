package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsManager holds the marketplace Prometheus metrics.
type MetricsManager struct {
	Registry             *prometheus.Registry
	ItemsCreatedTotal    prometheus.Counter
	ListingsCreatedTotal prometheus.Counter
	SalesTotal           prometheus.Counter
	BidsPlacedTotal      prometheus.Counter
	AuctionsSettledTotal prometheus.Counter
	APIErrorsTotal       *prometheus.CounterVec
	APILatency           *prometheus.HistogramVec
}

// NewMetricsManager initializes and registers the marketplace metrics on a
// dedicated registry.
func NewMetricsManager(serviceName string) *MetricsManager {
	registry := prometheus.NewRegistry()

	itemsCreatedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "items_created_total",
		Help:      "Total number of items minted through the marketplace.",
	})
	listingsCreatedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "listings_created_total",
		Help:      "Total number of fixed-price listings and auctions opened.",
	})
	salesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "sales_total",
		Help:      "Total number of fixed-price purchases settled.",
	})
	bidsPlacedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "bids_placed_total",
		Help:      "Total number of accepted auction bids.",
	})
	auctionsSettledTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "auctions_settled_total",
		Help:      "Total number of auctions claimed by their winner.",
	})
	apiErrorsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "api_errors_total",
		Help:      "Total number of API errors by method.",
	}, []string{"method", "error_type"})
	apiLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: serviceName,
		Name:      "api_request_latency_seconds",
		Help:      "Latency of API requests by method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	registry.MustRegister(
		itemsCreatedTotal,
		listingsCreatedTotal,
		salesTotal,
		bidsPlacedTotal,
		auctionsSettledTotal,
		apiErrorsTotal,
		apiLatency,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	return &MetricsManager{
		Registry:             registry,
		ItemsCreatedTotal:    itemsCreatedTotal,
		ListingsCreatedTotal: listingsCreatedTotal,
		SalesTotal:           salesTotal,
		BidsPlacedTotal:      bidsPlacedTotal,
		AuctionsSettledTotal: auctionsSettledTotal,
		APIErrorsTotal:       apiErrorsTotal,
		APILatency:           apiLatency,
	}
}

// StartMetricsServer exposes the registry over HTTP. An empty port disables
// the server.
func StartMetricsServer(port string, appLogger *zap.Logger, registry *prometheus.Registry) error {
	if port == "" {
		appLogger.Info("Prometheus metrics server port not configured, server will not start.")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	appLogger.Info("Prometheus metrics server starting", zap.String("port", port), zap.String("path", "/metrics"))

	server := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}
	return server.ListenAndServe()
}
