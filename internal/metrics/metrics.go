package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iptvhub_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "iptvhub_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method", "route"})

	StreamBytesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iptvhub_stream_bytes_total",
		Help: "Bytes relayed from the upstream provider",
	}, []string{"kind"})

	UpstreamErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iptvhub_upstream_errors_total",
		Help: "Upstream request failures by reason",
	}, []string{"kind", "reason"})

	StoreReadFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iptvhub_store_read_failures_total",
		Help: "Store reads that degraded to an empty result",
	}, []string{"op", "reason"})

	ImportedItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iptvhub_imported_items_total",
		Help: "Catalog rows written by the importer",
	}, []string{"entity"})
)
