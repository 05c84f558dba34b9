package report

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rmacedo/loanbook/internal/http/httperr"
	"github.com/rmacedo/loanbook/internal/report"
)

type Handler struct {
	svc *report.Service
}

func NewHandler(svc *report.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/summary", h.summary)
	r.Get("/drift", h.drift)
}

type summaryResponse struct {
	TotalClients         int            `json:"total_clients"`
	LoansByStatus        map[string]int `json:"loans_by_status"`
	OutstandingBalance   string         `json:"outstanding_balance"`
	CompletedPaymentsSum string         `json:"completed_payments_sum"`
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Summary(r.Context())
	if err != nil {
		httperr.Write(w, err)
		return
	}

	resp := summaryResponse{
		TotalClients:         s.TotalClients,
		LoansByStatus:        s.LoansByStatus,
		OutstandingBalance:   s.OutstandingBalance.StringFixed(2),
		CompletedPaymentsSum: s.CompletedPaymentsSum.StringFixed(2),
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type driftResponse struct {
	LoanID           uuid.UUID `json:"loan_id"`
	RemainingBalance string    `json:"remaining_balance"`
	ExpectedBalance  string    `json:"expected_balance"`
	Drift            string    `json:"drift"`
}

func (h *Handler) drift(w http.ResponseWriter, r *http.Request) {
	drifted, err := h.svc.CheckDrift(r.Context())
	if err != nil {
		httperr.Write(w, err)
		return
	}

	resp := make([]driftResponse, len(drifted))
	for i, d := range drifted {
		resp[i] = driftResponse{
			LoanID:           d.LoanID,
			RemainingBalance: d.RemainingBalance.StringFixed(2),
			ExpectedBalance:  d.ExpectedBalance.StringFixed(2),
			Drift:            d.Drift.StringFixed(2),
		}
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
