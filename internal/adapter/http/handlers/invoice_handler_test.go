package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bizops_billing/internal/adapter/http/handlers/mocks"
	"bizops_billing/internal/domain/entities"
	"bizops_billing/internal/usecase"
	"bizops_billing/internal/usecase/interfaces"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"
)

func TestInvoiceHandler_CreateInvoice(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("invalid json", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIInvoiceUseCase(ctrl)
		tx := mocks.NewMockITransactionUseCase(ctrl)
		h := NewInvoiceHandler(uc, tx)

		r := gin.New()
		r.POST("/v1/invoices", h.CreateInvoice)

		req := httptest.NewRequest(http.MethodPost, "/v1/invoices", bytes.NewBufferString("{"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("derived status maps to 400", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIInvoiceUseCase(ctrl)
		tx := mocks.NewMockITransactionUseCase(ctrl)
		h := NewInvoiceHandler(uc, tx)

		r := gin.New()
		r.POST("/v1/invoices", h.CreateInvoice)

		uc.EXPECT().Create(gomock.Any(), gomock.Any()).Return(entities.Invoice{}, usecase.ErrInvoiceStatusDerived)

		body := `{"clientId":"client-1","subtotal":100,"tax":10,"status":"PAID","dueDate":"2026-03-01T00:00:00Z"}`
		req := httptest.NewRequest(http.MethodPost, "/v1/invoices", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIInvoiceUseCase(ctrl)
		tx := mocks.NewMockITransactionUseCase(ctrl)
		h := NewInvoiceHandler(uc, tx)

		r := gin.New()
		r.POST("/v1/invoices", h.CreateInvoice)

		now := time.Now().UTC()
		uc.EXPECT().Create(gomock.Any(), gomock.Any()).Return(entities.Invoice{
			ID:        "inv-1",
			Reference: "INV-20260115-A1B2C",
			ClientID:  "client-1",
			Amount:    decimal.NewFromInt(110),
			Subtotal:  decimal.NewFromInt(100),
			Tax:       decimal.NewFromInt(10),
			Status:    entities.InvoiceStatusDraft,
			IssuedAt:  now,
			DueDate:   now.Add(30 * 24 * time.Hour),
			CreatedAt: now,
			UpdatedAt: now,
		}, nil)

		body := `{"clientId":"client-1","subtotal":100,"tax":10,"dueDate":"2026-03-01T00:00:00Z"}`
		req := httptest.NewRequest(http.MethodPost, "/v1/invoices", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", w.Code)
		}
		var resp map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
		if resp["id"] != "inv-1" || resp["status"] != "DRAFT" {
			t.Fatalf("unexpected response body: %s", w.Body.String())
		}
	})
}

func TestInvoiceHandler_GetInvoice(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("includes transaction ledger", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIInvoiceUseCase(ctrl)
		tx := mocks.NewMockITransactionUseCase(ctrl)
		h := NewInvoiceHandler(uc, tx)

		r := gin.New()
		r.GET("/v1/invoices/:id", h.GetInvoice)

		uc.EXPECT().GetByID(gomock.Any(), "inv-1").Return(entities.Invoice{ID: "inv-1", Status: entities.InvoiceStatusSent}, nil)
		tx.EXPECT().ListByInvoiceID(gomock.Any(), "inv-1").Return([]entities.Transaction{
			{ID: "t-1", InvoiceID: "inv-1", Type: entities.TransactionTypePayment, Status: entities.TransactionStatusCompleted},
		}, nil)

		req := httptest.NewRequest(http.MethodGet, "/v1/invoices/inv-1", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var resp struct {
			ID           string           `json:"id"`
			Transactions []map[string]any `json:"transactions"`
		}
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
		if resp.ID != "inv-1" || len(resp.Transactions) != 1 || resp.Transactions[0]["id"] != "t-1" {
			t.Fatalf("unexpected response body: %s", w.Body.String())
		}
	})

	t.Run("not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIInvoiceUseCase(ctrl)
		tx := mocks.NewMockITransactionUseCase(ctrl)
		h := NewInvoiceHandler(uc, tx)

		r := gin.New()
		r.GET("/v1/invoices/:id", h.GetInvoice)

		uc.EXPECT().GetByID(gomock.Any(), "missing").Return(entities.Invoice{}, usecase.ErrInvoiceNotFound)

		req := httptest.NewRequest(http.MethodGet, "/v1/invoices/missing", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	})
}

func TestInvoiceHandler_UpdateInvoice(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("paid lock maps to 409", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIInvoiceUseCase(ctrl)
		tx := mocks.NewMockITransactionUseCase(ctrl)
		h := NewInvoiceHandler(uc, tx)

		r := gin.New()
		r.PATCH("/v1/invoices/:id", h.UpdateInvoice)

		uc.EXPECT().Update(gomock.Any(), "inv-1", gomock.Any()).Return(entities.Invoice{}, usecase.ErrInvoicePaidLocked)

		req := httptest.NewRequest(http.MethodPatch, "/v1/invoices/inv-1", bytes.NewBufferString(`{"status":"SENT"}`))
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
		uc := mocks.NewMockIInvoiceUseCase(ctrl)
		tx := mocks.NewMockITransactionUseCase(ctrl)
		h := NewInvoiceHandler(uc, tx)

		r := gin.New()
		r.PATCH("/v1/invoices/:id", h.UpdateInvoice)

		uc.EXPECT().Update(gomock.Any(), "inv-1", gomock.Any()).Return(entities.Invoice{ID: "inv-1", Status: entities.InvoiceStatusSent}, nil)

		req := httptest.NewRequest(http.MethodPatch, "/v1/invoices/inv-1", bytes.NewBufferString(`{"status":"SENT"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})
}

func TestMapInvoiceError(t *testing.T) {
	if got := mapInvoiceError(usecase.ErrInvoiceValidation); got.HTTPStatus != http.StatusBadRequest {
		t.Fatalf("expected 400")
	}
	if got := mapInvoiceError(usecase.ErrInvoiceStatusDerived); got.HTTPStatus != http.StatusBadRequest {
		t.Fatalf("expected 400")
	}
	if got := mapInvoiceError(usecase.ErrInvoiceNotFound); got.HTTPStatus != http.StatusNotFound {
		t.Fatalf("expected 404")
	}
	if got := mapInvoiceError(usecase.ErrInvoicePaidLocked); got.HTTPStatus != http.StatusConflict {
		t.Fatalf("expected 409")
	}
	if got := mapInvoiceError(usecase.ErrInvoiceNotDraft); got.HTTPStatus != http.StatusConflict {
		t.Fatalf("expected 409")
	}
	if got := mapInvoiceError(interfaces.ErrStaleEntity); got.HTTPStatus != http.StatusConflict {
		t.Fatalf("expected 409")
	}
	if got := mapInvoiceError(errors.New("x")); got.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected 500")
	}
}
