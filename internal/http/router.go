package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	clienthttp "github.com/rmacedo/loanbook/internal/http/client"
	loanhttp "github.com/rmacedo/loanbook/internal/http/loan"
	paymenthttp "github.com/rmacedo/loanbook/internal/http/payment"
	reporthttp "github.com/rmacedo/loanbook/internal/http/report"
	"github.com/rmacedo/loanbook/internal/metrics"
)

type Options struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
}

func New(
	clientsV1 *clienthttp.Handler,
	loansV1 *loanhttp.Handler,
	paymentsV1 *paymenthttp.Handler,
	reportsV1 *reporthttp.Handler,
	opts Options,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(metrics.Middleware)
	router.Use(middleware.Timeout(opts.RequestTimeout))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/clients", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			clientsV1.Routes(r)
		})

		r.Route("/loans", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			loansV1.Routes(r)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			paymentsV1.Routes(r)
		})

		r.Route("/reports", func(r chi.Router) {
			reportsV1.Routes(r)
		})
	})

	return router
}
