package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/warp/inventory-optimizer/demand"
)

// Prometheus metrics
var (
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"route", "method", "status"},
	)

	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	computationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_policy_computations_total",
			Help: "Policy recomputations by kind (sku, table)",
		},
		[]string{"kind"},
	)

	selectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_sku_selections_total",
			Help: "SKU selections by outcome (ok, empty)",
		},
		[]string{"outcome"},
	)

	exportsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inventory_policy_exports_total",
			Help: "CSV exports served",
		},
	)

	datasetRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "inventory_dataset_rows",
			Help: "Rows in the loaded source tables",
		},
		[]string{"table"},
	)
)

// RecordDataset publishes the size of the loaded dataset.
func RecordDataset(ds *demand.Dataset) {
	datasetRows.WithLabelValues("forecasts").Set(float64(len(ds.Forecasts)))
	datasetRows.WithLabelValues("policies").Set(float64(len(ds.Policies)))
}

// instrument records request count and latency per route pattern.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		labels := []string{route, r.Method, strconv.Itoa(status)}

		requestsTotal.WithLabelValues(labels...).Inc()
		requestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
	})
}
