package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"bizops_billing/internal/adapter/http/handlers/mocks"
	"bizops_billing/internal/domain/entities"
	"bizops_billing/internal/usecase"
	"bizops_billing/internal/usecase/interfaces"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"
)

func TestTransactionHandler_CreateTransaction(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("invalid json", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockITransactionUseCase(ctrl)
		h := NewTransactionHandler(uc)

		r := gin.New()
		r.POST("/v1/transactions", h.CreateTransaction)

		req := httptest.NewRequest(http.MethodPost, "/v1/transactions", bytes.NewBufferString("{"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("refund type maps to 409", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockITransactionUseCase(ctrl)
		h := NewTransactionHandler(uc)

		r := gin.New()
		r.POST("/v1/transactions", h.CreateTransaction)

		uc.EXPECT().Create(gomock.Any(), gomock.Any()).Return(entities.Transaction{}, usecase.ErrRefundReserved)

		body := `{"invoiceId":"inv-1","type":"REFUND","amount":50}`
		req := httptest.NewRequest(http.MethodPost, "/v1/transactions", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", w.Code)
		}
	})

	t.Run("success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockITransactionUseCase(ctrl)
		h := NewTransactionHandler(uc)

		r := gin.New()
		r.POST("/v1/transactions", h.CreateTransaction)

		uc.EXPECT().Create(gomock.Any(), gomock.Any()).Return(entities.Transaction{
			ID:        "t-1",
			Reference: "TRX-20260115-A1B2C",
			InvoiceID: "inv-1",
			Type:      entities.TransactionTypePayment,
			Amount:    decimal.NewFromInt(100),
			Status:    entities.TransactionStatusPending,
		}, nil)

		body := `{"invoiceId":"inv-1","type":"PAYMENT","amount":100,"paymentMethod":"pix"}`
		req := httptest.NewRequest(http.MethodPost, "/v1/transactions", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", w.Code)
		}
		var resp map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
		if resp["id"] != "t-1" || resp["status"] != "PENDING" {
			t.Fatalf("unexpected response body: %s", w.Body.String())
		}
	})
}

func TestTransactionHandler_RefundTransaction(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("success returns refund entry", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockITransactionUseCase(ctrl)
		h := NewTransactionHandler(uc)

		r := gin.New()
		r.POST("/v1/transactions/:id/refund", h.RefundTransaction)

		uc.EXPECT().Refund(gomock.Any(), "t-1", "duplicate charge").Return(entities.Transaction{
			ID:        "t-2",
			InvoiceID: "inv-1",
			Type:      entities.TransactionTypeRefund,
			Status:    entities.TransactionStatusCompleted,
		}, nil)

		req := httptest.NewRequest(http.MethodPost, "/v1/transactions/t-1/refund", bytes.NewBufferString(`{"reason":"duplicate charge"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var resp struct {
			Message string `json:"message"`
			Refund  struct {
				Type string `json:"type"`
			} `json:"refund"`
		}
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
		if resp.Message != "Refund processed successfully" || resp.Refund.Type != "REFUND" {
			t.Fatalf("unexpected response body: %s", w.Body.String())
		}
	})

	t.Run("not refundable maps to 409", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockITransactionUseCase(ctrl)
		h := NewTransactionHandler(uc)

		r := gin.New()
		r.POST("/v1/transactions/:id/refund", h.RefundTransaction)

		uc.EXPECT().Refund(gomock.Any(), "t-1", "").Return(entities.Transaction{}, usecase.ErrNotRefundable)

		req := httptest.NewRequest(http.MethodPost, "/v1/transactions/t-1/refund", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", w.Code)
		}
	})
}

func TestTransactionHandler_CaptureTransaction(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("empty body forwarded as empty object", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockITransactionUseCase(ctrl)
		h := NewTransactionHandler(uc)

		r := gin.New()
		r.POST("/v1/transactions/:id/capture", h.CaptureTransaction)

		uc.EXPECT().Capture(gomock.Any(), "t-1", json.RawMessage("{}")).Return(entities.Transaction{
			ID:     "t-1",
			Status: entities.TransactionStatusCompleted,
		}, nil)

		req := httptest.NewRequest(http.MethodPost, "/v1/transactions/t-1/capture", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})

	t.Run("invalid body maps to 400", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockITransactionUseCase(ctrl)
		h := NewTransactionHandler(uc)

		r := gin.New()
		r.POST("/v1/transactions/:id/capture", h.CaptureTransaction)

		req := httptest.NewRequest(http.MethodPost, "/v1/transactions/t-1/capture", bytes.NewBufferString("{"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("gateway missing maps to 503", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockITransactionUseCase(ctrl)
		h := NewTransactionHandler(uc)

		r := gin.New()
		r.POST("/v1/transactions/:id/capture", h.CaptureTransaction)

		uc.EXPECT().Capture(gomock.Any(), "t-1", gomock.Any()).Return(entities.Transaction{}, usecase.ErrGatewayNotConfigured)

		req := httptest.NewRequest(http.MethodPost, "/v1/transactions/t-1/capture", bytes.NewBufferString(`{"payment_method_id":"pix"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", w.Code)
		}
	})
}

func TestMapTransactionError(t *testing.T) {
	if got := mapTransactionError(usecase.ErrTransactionValidation); got.HTTPStatus != http.StatusBadRequest {
		t.Fatalf("expected 400")
	}
	if got := mapTransactionError(usecase.ErrTransactionNotFound); got.HTTPStatus != http.StatusNotFound {
		t.Fatalf("expected 404")
	}
	if got := mapTransactionError(usecase.ErrInvoiceNotFound); got.HTTPStatus != http.StatusNotFound {
		t.Fatalf("expected 404")
	}
	if got := mapTransactionError(usecase.ErrInvoiceCancelled); got.HTTPStatus != http.StatusConflict {
		t.Fatalf("expected 409")
	}
	if got := mapTransactionError(usecase.ErrInvoiceAlreadyPaid); got.HTTPStatus != http.StatusConflict {
		t.Fatalf("expected 409")
	}
	if got := mapTransactionError(usecase.ErrTransactionImmutable); got.HTTPStatus != http.StatusConflict {
		t.Fatalf("expected 409")
	}
	if got := mapTransactionError(usecase.ErrGatewayNotConfigured); got.HTTPStatus != http.StatusServiceUnavailable {
		t.Fatalf("expected 503")
	}
	if got := mapTransactionError(interfaces.ErrStaleEntity); got.HTTPStatus != http.StatusConflict {
		t.Fatalf("expected 409")
	}
	if got := mapTransactionError(errors.New("x")); got.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected 500")
	}
}
