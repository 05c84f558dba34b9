package payment

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmacedo/loanbook/internal/http/httperr"
	"github.com/rmacedo/loanbook/internal/ledger"
	"github.com/rmacedo/loanbook/internal/payment"
)

type Handler struct {
	svc *payment.Service
}

func NewHandler(svc *payment.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

type createPaymentRequest struct {
	LoanID      uuid.UUID       `json:"loan_id"`
	ClientID    uuid.UUID       `json:"client_id"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate string          `json:"payment_date"`
	Method      payment.Method  `json:"method"`
	Status      ledger.Status   `json:"status"`
	Notes       string          `json:"notes"`
	ProcessedBy *uuid.UUID      `json:"processed_by"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	params := payment.CreateParams{
		LoanID:      req.LoanID,
		ClientID:    req.ClientID,
		Amount:      req.Amount,
		Method:      req.Method,
		Status:      req.Status,
		Notes:       req.Notes,
		ProcessedBy: req.ProcessedBy,
	}

	if req.PaymentDate != "" {
		date, err := time.Parse(time.DateOnly, req.PaymentDate)
		if err != nil {
			http.Error(w, "invalid payment_date", http.StatusBadRequest)
			return
		}

		params.PaymentDate = date
	}

	res, err := h.svc.Create(r.Context(), params)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toMutationResponse(res)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := payment.ListFilter{}

	if s := r.URL.Query().Get("loan_id"); s != "" {
		if id, err := uuid.Parse(s); err == nil {
			filter.LoanID = &id
		}
	}

	if s := r.URL.Query().Get("client_id"); s != "" {
		if id, err := uuid.Parse(s); err == nil {
			filter.ClientID = &id
		}
	}

	if s := r.URL.Query().Get("status"); s != "" {
		status := ledger.Status(s)
		filter.Status = &status
	}

	payments, err := h.svc.List(r.Context(), filter)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(ToResponseList(payments)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	p, err := h.svc.Get(r.Context(), id)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(p)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type updatePaymentRequest struct {
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	PaymentDate *string          `json:"payment_date,omitempty"`
	Method      *payment.Method  `json:"method,omitempty"`
	Status      *ledger.Status   `json:"status,omitempty"`
	Notes       *string          `json:"notes,omitempty"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req updatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	params := payment.UpdateParams{
		Amount: req.Amount,
		Method: req.Method,
		Status: req.Status,
		Notes:  req.Notes,
	}

	if req.PaymentDate != nil {
		date, err := time.Parse(time.DateOnly, *req.PaymentDate)
		if err != nil {
			http.Error(w, "invalid payment_date", http.StatusBadRequest)
			return
		}

		params.PaymentDate = &date
	}

	res, err := h.svc.Update(r.Context(), id, params)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toMutationResponse(res)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	res, err := h.svc.Delete(r.Context(), id)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toMutationResponse(res)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
