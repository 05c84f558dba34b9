// Package metrics exposes the Prometheus collectors for the API and the
// balance ledger. Collectors are package-level so services can record
// without plumbing a registry through every constructor.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "loanbook"

var (
	// LedgerOps counts balance-affecting operations by kind and outcome.
	// Operations: create, update, delete, seed, reconcile.
	LedgerOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_operations_total",
			Help:      "Balance ledger operations by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	// BalanceDrift counts reconciliations that found a persisted balance
	// disagreeing with the payment history. Should stay at zero.
	BalanceDrift = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "balance_drift_total",
			Help:      "Reconciliations that detected balance drift",
		},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method, route and status",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// Middleware records request latency per chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}

		requestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).
			Observe(time.Since(start).Seconds())
	})
}
