package payment_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	paymenthttp "github.com/rmacedo/loanbook/internal/http/payment"
	"github.com/rmacedo/loanbook/internal/ledger"
	"github.com/rmacedo/loanbook/internal/loan"
	"github.com/rmacedo/loanbook/internal/payment"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}

	return d
}

func newRouter(svc *payment.Service) http.Handler {
	r := chi.NewRouter()
	paymenthttp.NewHandler(svc).Routes(r)

	return r
}

func TestHandler_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := payment.NewMockRepository(ctrl)
	tx := payment.NewMockMutationTx(ctrl)

	loanID := uuid.New()
	clientID := uuid.New()

	repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	tx.EXPECT().
		AdjustBalance(gomock.Any(), loanID, gomock.Any()).
		DoAndReturn(func(_ context.Context, id uuid.UUID, delta decimal.Decimal) (*payment.LoanState, error) {
			assert.True(t, delta.Equal(dec("-2500.00")))

			return &payment.LoanState{
				LoanID:           id,
				RemainingBalance: dec("7500.00"),
				Status:           loan.StatusActive,
			}, nil
		})
	tx.EXPECT().
		InsertPayment(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, p *payment.Payment) error {
			p.ID = uuid.New()
			return nil
		})
	tx.EXPECT().Commit().Return(nil)
	tx.EXPECT().Rollback().Return(nil)

	body := `{
		"loan_id": "` + loanID.String() + `",
		"client_id": "` + clientID.String() + `",
		"amount": "2500.00",
		"method": "bank_transfer"
	}`

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	newRouter(payment.NewService(repo)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "2500.00", resp["amount"])
	assert.Equal(t, "7500.00", resp["new_remaining_balance"])
	assert.Equal(t, "active", resp["new_status"])
	assert.Equal(t, "completed", resp["status"])
}

func TestHandler_Create_MissingLoan(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := payment.NewMockRepository(ctrl)
	tx := payment.NewMockMutationTx(ctrl)

	repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	tx.EXPECT().
		AdjustBalance(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, ledger.ErrLoanNotFound)
	tx.EXPECT().Rollback().Return(nil)

	body := `{
		"loan_id": "` + uuid.NewString() + `",
		"client_id": "` + uuid.NewString() + `",
		"amount": "2500.00",
		"method": "cash"
	}`

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	newRouter(payment.NewService(repo)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_Create_InvalidAmount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := payment.NewMockRepository(ctrl)

	body := `{
		"loan_id": "` + uuid.NewString() + `",
		"client_id": "` + uuid.NewString() + `",
		"amount": "-5.00",
		"method": "cash"
	}`

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	newRouter(payment.NewService(repo)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Create_Overpayment(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := payment.NewMockRepository(ctrl)
	tx := payment.NewMockMutationTx(ctrl)

	repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	tx.EXPECT().
		AdjustBalance(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, ledger.ErrExceedsBalance)
	tx.EXPECT().Rollback().Return(nil)

	body := `{
		"loan_id": "` + uuid.NewString() + `",
		"client_id": "` + uuid.NewString() + `",
		"amount": "999999.00",
		"method": "cash"
	}`

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	newRouter(payment.NewService(repo)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandler_Delete_ReturnsNewBalance(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := payment.NewMockRepository(ctrl)
	tx := payment.NewMockMutationTx(ctrl)

	loanID := uuid.New()
	paymentID := uuid.New()

	repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	tx.EXPECT().LockPayment(gomock.Any(), paymentID).Return(&payment.Payment{
		ID:     paymentID,
		LoanID: loanID,
		Amount: dec("2500.00"),
		Status: ledger.StatusCompleted,
		Method: payment.MethodCash,
	}, nil)
	tx.EXPECT().
		AdjustBalance(gomock.Any(), loanID, gomock.Any()).
		Return(&payment.LoanState{
			LoanID:           loanID,
			RemainingBalance: dec("10000.00"),
			Status:           loan.StatusActive,
		}, nil)
	tx.EXPECT().DeletePayment(gomock.Any(), paymentID).Return(nil)
	tx.EXPECT().Commit().Return(nil)
	tx.EXPECT().Rollback().Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/"+paymentID.String(), nil)

	rec := httptest.NewRecorder()
	newRouter(payment.NewService(repo)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "10000.00", resp["new_remaining_balance"])
}

func TestHandler_Get_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := payment.NewMockRepository(ctrl)
	repo.EXPECT().
		GetPayment(gomock.Any(), gomock.Any()).
		Return(nil, ledger.ErrPaymentNotFound)

	req := httptest.NewRequest(http.MethodGet, "/"+uuid.NewString(), nil)

	rec := httptest.NewRecorder()
	newRouter(payment.NewService(repo)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
