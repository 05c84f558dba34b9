package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/rmacedo/loanbook/internal/client"
	"github.com/rmacedo/loanbook/internal/config"
	"github.com/rmacedo/loanbook/internal/database"
	loanbookHttp "github.com/rmacedo/loanbook/internal/http"
	clientHandler "github.com/rmacedo/loanbook/internal/http/client"
	loanHandler "github.com/rmacedo/loanbook/internal/http/loan"
	paymentHandler "github.com/rmacedo/loanbook/internal/http/payment"
	reportHandler "github.com/rmacedo/loanbook/internal/http/report"
	"github.com/rmacedo/loanbook/internal/loan"
	"github.com/rmacedo/loanbook/internal/payment"
	"github.com/rmacedo/loanbook/internal/report"

	clientStore "github.com/rmacedo/loanbook/internal/client/store"
	loanStore "github.com/rmacedo/loanbook/internal/loan/store"
	paymentStore "github.com/rmacedo/loanbook/internal/payment/store"
	reportStore "github.com/rmacedo/loanbook/internal/report/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	var (
		clientService  = client.NewService(clientStore.New(db))
		loanService    = loan.NewService(loanStore.New(db))
		paymentService = payment.NewService(paymentStore.New(db))
		reportService  = report.NewService(reportStore.New(db))
	)

	var (
		clientH  = clientHandler.NewHandler(clientService)
		loanH    = loanHandler.NewHandler(loanService, paymentService)
		paymentH = paymentHandler.NewHandler(paymentService)
		reportH  = reportHandler.NewHandler(reportService)
	)

	router := loanbookHttp.New(clientH, loanH, paymentH, reportH, loanbookHttp.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		RequestTimeout: cfg.Server.Timeout,
	})

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "port", port)

	if err := http.ListenAndServe(port, router); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
