package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"bizops_billing/internal/domain/entities"
	"bizops_billing/internal/usecase/interfaces"
	mock_interfaces "bizops_billing/internal/usecase/interfaces/mocks"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"
)

func paymentInput(invoiceID string, amount int64, status entities.TransactionStatus) TransactionInput {
	return TransactionInput{
		InvoiceID: invoiceID,
		Type:      entities.TransactionTypePayment,
		Amount:    decimal.NewFromInt(amount),
		Status:    status,
	}
}

func TestTransactionUseCase_Create(t *testing.T) {
	t.Run("invoice not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		invoices := mock_interfaces.NewMockIInvoiceRepository(ctrl)
		uc := NewTransactionUseCase(nil, invoices, nil, nil)

		invoices.EXPECT().GetByID(gomock.Any(), "missing").Return(entities.Invoice{}, nil)

		_, err := uc.Create(context.Background(), paymentInput("missing", 100, ""))
		if !errors.Is(err, ErrInvoiceNotFound) {
			t.Fatalf("expected ErrInvoiceNotFound, got %v", err)
		}
	})

	t.Run("cancelled invoice rejects transactions", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		invoices := mock_interfaces.NewMockIInvoiceRepository(ctrl)
		uc := NewTransactionUseCase(nil, invoices, nil, nil)

		invoices.EXPECT().GetByID(gomock.Any(), "i-1").Return(entities.Invoice{ID: "i-1", Status: entities.InvoiceStatusCancelled}, nil)

		_, err := uc.Create(context.Background(), paymentInput("i-1", 100, ""))
		if !errors.Is(err, ErrInvoiceCancelled) {
			t.Fatalf("expected ErrInvoiceCancelled, got %v", err)
		}
	})

	t.Run("second payment against paid invoice conflicts", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		invoices := mock_interfaces.NewMockIInvoiceRepository(ctrl)
		uc := NewTransactionUseCase(nil, invoices, nil, nil)

		invoices.EXPECT().GetByID(gomock.Any(), "i-1").Return(entities.Invoice{ID: "i-1", Status: entities.InvoiceStatusPaid}, nil)

		_, err := uc.Create(context.Background(), paymentInput("i-1", 100, ""))
		if !errors.Is(err, ErrInvoiceAlreadyPaid) {
			t.Fatalf("expected ErrInvoiceAlreadyPaid, got %v", err)
		}
	})

	t.Run("credit against paid invoice is allowed", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		invoices := mock_interfaces.NewMockIInvoiceRepository(ctrl)
		repo := mock_interfaces.NewMockITransactionRepository(ctrl)
		uc := NewTransactionUseCase(repo, invoices, nil, nil)

		invoices.EXPECT().GetByID(gomock.Any(), "i-1").Return(entities.Invoice{ID: "i-1", Status: entities.InvoiceStatusPaid}, nil)
		repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, tx entities.Transaction) (entities.Transaction, error) { return tx, nil },
		)

		in := paymentInput("i-1", 50, "")
		in.Type = entities.TransactionTypeCredit
		if _, err := uc.Create(context.Background(), in); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("refund type reserved for refund operation", func(t *testing.T) {
		uc := NewTransactionUseCase(nil, nil, nil, nil)
		in := paymentInput("i-1", 100, "")
		in.Type = entities.TransactionTypeRefund
		_, err := uc.Create(context.Background(), in)
		if !errors.Is(err, ErrRefundReserved) {
			t.Fatalf("expected ErrRefundReserved, got %v", err)
		}
	})

	t.Run("defaults to pending and generates reference", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		invoices := mock_interfaces.NewMockIInvoiceRepository(ctrl)
		repo := mock_interfaces.NewMockITransactionRepository(ctrl)
		uc := NewTransactionUseCase(repo, invoices, nil, nil)

		invoices.EXPECT().GetByID(gomock.Any(), "i-1").Return(entities.Invoice{ID: "i-1", Status: entities.InvoiceStatusSent}, nil)
		repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, tx entities.Transaction) (entities.Transaction, error) {
				if tx.Status != entities.TransactionStatusPending {
					t.Fatalf("expected PENDING default, got %s", tx.Status)
				}
				if !strings.HasPrefix(tx.Reference, "TRX-") {
					t.Fatalf("expected generated reference, got %q", tx.Reference)
				}
				return tx, nil
			},
		)

		if _, err := uc.Create(context.Background(), paymentInput("i-1", 100, "")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestTransactionUseCase_Settlement(t *testing.T) {
	t.Run("partial payment leaves invoice unsettled", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		invoices := mock_interfaces.NewMockIInvoiceRepository(ctrl)
		repo := mock_interfaces.NewMockITransactionRepository(ctrl)
		uc := NewTransactionUseCase(repo, invoices, nil, nil)

		invoice := entities.Invoice{ID: "i-1", Status: entities.InvoiceStatusSent, Amount: decimal.NewFromInt(500), Version: 3}
		invoices.EXPECT().GetByID(gomock.Any(), "i-1").Return(invoice, nil).Times(2)
		repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, tx entities.Transaction) (entities.Transaction, error) { return tx, nil },
		)
		repo.EXPECT().SumCompletedPayments(gomock.Any(), "i-1").Return(decimal.NewFromInt(300), nil)
		// 300 < 500: UpdateStatus must not be called.

		if _, err := uc.Create(context.Background(), paymentInput("i-1", 300, entities.TransactionStatusCompleted)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("covering payment settles invoice", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		invoices := mock_interfaces.NewMockIInvoiceRepository(ctrl)
		repo := mock_interfaces.NewMockITransactionRepository(ctrl)
		uc := NewTransactionUseCase(repo, invoices, nil, nil)

		invoice := entities.Invoice{ID: "i-1", Status: entities.InvoiceStatusSent, Amount: decimal.NewFromInt(500), Version: 3}
		invoices.EXPECT().GetByID(gomock.Any(), "i-1").Return(invoice, nil).Times(2)
		repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, tx entities.Transaction) (entities.Transaction, error) { return tx, nil },
		)
		repo.EXPECT().SumCompletedPayments(gomock.Any(), "i-1").Return(decimal.NewFromInt(500), nil)
		invoices.EXPECT().UpdateStatus(gomock.Any(), "i-1", entities.InvoiceStatusPaid, int64(3)).Return(entities.Invoice{ID: "i-1", Status: entities.InvoiceStatusPaid}, nil)

		if _, err := uc.Create(context.Background(), paymentInput("i-1", 200, entities.TransactionStatusCompleted)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("version conflict retries with re-read", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		invoices := mock_interfaces.NewMockIInvoiceRepository(ctrl)
		repo := mock_interfaces.NewMockITransactionRepository(ctrl)
		uc := NewTransactionUseCase(repo, invoices, nil, nil)

		repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, tx entities.Transaction) (entities.Transaction, error) { return tx, nil },
		)

		sent := entities.Invoice{ID: "i-1", Status: entities.InvoiceStatusSent, Amount: decimal.NewFromInt(500), Version: 3}
		bumped := sent
		bumped.Version = 4
		gomock.InOrder(
			invoices.EXPECT().GetByID(gomock.Any(), "i-1").Return(sent, nil),  // create pre-check
			invoices.EXPECT().GetByID(gomock.Any(), "i-1").Return(sent, nil),  // settle attempt 1
			invoices.EXPECT().GetByID(gomock.Any(), "i-1").Return(bumped, nil), // settle attempt 2
		)
		repo.EXPECT().SumCompletedPayments(gomock.Any(), "i-1").Return(decimal.NewFromInt(500), nil).Times(2)
		invoices.EXPECT().UpdateStatus(gomock.Any(), "i-1", entities.InvoiceStatusPaid, int64(3)).Return(entities.Invoice{}, interfaces.ErrStaleEntity)
		invoices.EXPECT().UpdateStatus(gomock.Any(), "i-1", entities.InvoiceStatusPaid, int64(4)).Return(entities.Invoice{ID: "i-1", Status: entities.InvoiceStatusPaid}, nil)

		if _, err := uc.Create(context.Background(), paymentInput("i-1", 500, entities.TransactionStatusCompleted)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("already paid invoice short-circuits settlement", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		invoices := mock_interfaces.NewMockIInvoiceRepository(ctrl)
		repo := mock_interfaces.NewMockITransactionRepository(ctrl)
		uc := NewTransactionUseCase(repo, invoices, nil, nil)

		sent := entities.Invoice{ID: "i-1", Status: entities.InvoiceStatusSent, Amount: decimal.NewFromInt(500)}
		paid := entities.Invoice{ID: "i-1", Status: entities.InvoiceStatusPaid, Amount: decimal.NewFromInt(500)}
		gomock.InOrder(
			invoices.EXPECT().GetByID(gomock.Any(), "i-1").Return(sent, nil),
			invoices.EXPECT().GetByID(gomock.Any(), "i-1").Return(paid, nil),
		)
		repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, tx entities.Transaction) (entities.Transaction, error) { return tx, nil },
		)

		if _, err := uc.Create(context.Background(), paymentInput("i-1", 500, entities.TransactionStatusCompleted)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("cancelled invoice is never settled", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		invoices := mock_interfaces.NewMockIInvoiceRepository(ctrl)
		repo := mock_interfaces.NewMockITransactionRepository(ctrl)
		uc := NewTransactionUseCase(repo, invoices, nil, nil)

		// A payment left PENDING through a refund: completing it afterwards
		// must not flip the cancelled invoice to PAID, even though its
		// ledger now covers the amount.
		pending := entities.Transaction{
			ID:        "t-1",
			InvoiceID: "i-1",
			Type:      entities.TransactionTypePayment,
			Amount:    decimal.NewFromInt(200),
			Status:    entities.TransactionStatusPending,
		}
		cancelled := entities.Invoice{ID: "i-1", Status: entities.InvoiceStatusCancelled, Amount: decimal.NewFromInt(100), Version: 5}

		repo.EXPECT().GetByID(gomock.Any(), "t-1").Return(pending, nil)
		repo.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, tx entities.Transaction) (entities.Transaction, error) { return tx, nil },
		)
		// Settlement reads the invoice, sees CANCELLED and stops without
		// summing the ledger or touching the status.
		invoices.EXPECT().GetByID(gomock.Any(), "i-1").Return(cancelled, nil)

		completed := entities.TransactionStatusCompleted
		if _, err := uc.Update(context.Background(), "t-1", TransactionUpdateInput{Status: &completed}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestTransactionUseCase_Update(t *testing.T) {
	t.Run("completed transactions are immutable", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockITransactionRepository(ctrl)
		uc := NewTransactionUseCase(repo, nil, nil, nil)

		repo.EXPECT().GetByID(gomock.Any(), "t-1").Return(entities.Transaction{ID: "t-1", Status: entities.TransactionStatusCompleted}, nil)

		notes := "edit"
		_, err := uc.Update(context.Background(), "t-1", TransactionUpdateInput{Notes: &notes})
		if !errors.Is(err, ErrTransactionImmutable) {
			t.Fatalf("expected ErrTransactionImmutable, got %v", err)
		}
	})

	t.Run("completing a pending payment triggers settlement", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		invoices := mock_interfaces.NewMockIInvoiceRepository(ctrl)
		repo := mock_interfaces.NewMockITransactionRepository(ctrl)
		uc := NewTransactionUseCase(repo, invoices, nil, nil)

		pending := entities.Transaction{
			ID:        "t-1",
			InvoiceID: "i-1",
			Type:      entities.TransactionTypePayment,
			Amount:    decimal.NewFromInt(500),
			Status:    entities.TransactionStatusPending,
		}
		repo.EXPECT().GetByID(gomock.Any(), "t-1").Return(pending, nil)
		repo.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, tx entities.Transaction) (entities.Transaction, error) { return tx, nil },
		)
		invoices.EXPECT().GetByID(gomock.Any(), "i-1").Return(entities.Invoice{ID: "i-1", Status: entities.InvoiceStatusSent, Amount: decimal.NewFromInt(500), Version: 1}, nil)
		repo.EXPECT().SumCompletedPayments(gomock.Any(), "i-1").Return(decimal.NewFromInt(500), nil)
		invoices.EXPECT().UpdateStatus(gomock.Any(), "i-1", entities.InvoiceStatusPaid, int64(1)).Return(entities.Invoice{ID: "i-1", Status: entities.InvoiceStatusPaid}, nil)

		completed := entities.TransactionStatusCompleted
		if _, err := uc.Update(context.Background(), "t-1", TransactionUpdateInput{Status: &completed}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestTransactionUseCase_Refund(t *testing.T) {
	t.Run("only completed payments refund", func(t *testing.T) {
		cases := []entities.Transaction{
			{ID: "t-1", Type: entities.TransactionTypePayment, Status: entities.TransactionStatusPending},
			{ID: "t-1", Type: entities.TransactionTypeCredit, Status: entities.TransactionStatusCompleted},
			{ID: "t-1", Type: entities.TransactionTypeRefund, Status: entities.TransactionStatusCompleted},
		}
		for _, src := range cases {
			ctrl := gomock.NewController(t)
			repo := mock_interfaces.NewMockITransactionRepository(ctrl)
			uc := NewTransactionUseCase(repo, nil, nil, nil)

			repo.EXPECT().GetByID(gomock.Any(), "t-1").Return(src, nil)

			if _, err := uc.Refund(context.Background(), "t-1", "x"); !errors.Is(err, ErrNotRefundable) {
				t.Fatalf("%s/%s: expected ErrNotRefundable, got %v", src.Type, src.Status, err)
			}
			ctrl.Finish()
		}
	})

	t.Run("round-trip refund cancels invoice", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockITransactionRepository(ctrl)
		uow := mock_interfaces.NewMockIBillingUnitOfWork(ctrl)
		uc := NewTransactionUseCase(repo, nil, uow, nil)

		src := entities.Transaction{
			ID:            "t-1",
			Reference:     "TRX-20260101-AAAAA",
			InvoiceID:     "i-1",
			Type:          entities.TransactionTypePayment,
			Amount:        decimal.NewFromInt(100),
			Status:        entities.TransactionStatusCompleted,
			PaymentMethod: "card",
		}
		repo.EXPECT().GetByID(gomock.Any(), "t-1").Return(src, nil)
		uow.EXPECT().RefundTransaction(gomock.Any(), gomock.Any(), "i-1").DoAndReturn(
			func(_ context.Context, refund entities.Transaction, _ string) error {
				if refund.Type != entities.TransactionTypeRefund {
					t.Fatalf("expected REFUND, got %s", refund.Type)
				}
				if refund.Status != entities.TransactionStatusCompleted {
					t.Fatalf("expected COMPLETED, got %s", refund.Status)
				}
				if !refund.Amount.Equal(src.Amount) {
					t.Fatalf("expected amount %s, got %s", src.Amount, refund.Amount)
				}
				if refund.PaymentDetails["originalTransactionId"] != "t-1" || refund.PaymentDetails["reason"] != "duplicate charge" {
					t.Fatalf("unexpected payment details: %v", refund.PaymentDetails)
				}
				if !strings.Contains(refund.Notes, src.Reference) {
					t.Fatalf("expected notes to reference source, got %q", refund.Notes)
				}
				return nil
			},
		)

		refund, err := uc.Refund(context.Background(), "t-1", "duplicate charge")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if refund.InvoiceID != "i-1" {
			t.Fatalf("expected invoice linkage, got %s", refund.InvoiceID)
		}
	})
}

func TestTransactionUseCase_Capture(t *testing.T) {
	t.Run("gateway not configured", func(t *testing.T) {
		uc := NewTransactionUseCase(nil, nil, nil, nil)
		_, err := uc.Capture(context.Background(), "t-1", nil)
		if !errors.Is(err, ErrGatewayNotConfigured) {
			t.Fatalf("expected ErrGatewayNotConfigured, got %v", err)
		}
	})

	t.Run("only pending payments capture", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockITransactionRepository(ctrl)
		gateway := mock_interfaces.NewMockIPaymentGateway(ctrl)
		uc := NewTransactionUseCase(repo, nil, nil, gateway)

		repo.EXPECT().GetByID(gomock.Any(), "t-1").Return(entities.Transaction{ID: "t-1", Type: entities.TransactionTypePayment, Status: entities.TransactionStatusCompleted}, nil)

		_, err := uc.Capture(context.Background(), "t-1", nil)
		if !errors.Is(err, ErrNotCapturable) {
			t.Fatalf("expected ErrNotCapturable, got %v", err)
		}
	})

	t.Run("approved capture completes and settles", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockITransactionRepository(ctrl)
		invoices := mock_interfaces.NewMockIInvoiceRepository(ctrl)
		gateway := mock_interfaces.NewMockIPaymentGateway(ctrl)
		uc := NewTransactionUseCase(repo, invoices, nil, gateway)

		pending := entities.Transaction{
			ID:        "t-1",
			Reference: "TRX-20260101-AAAAA",
			InvoiceID: "i-1",
			Type:      entities.TransactionTypePayment,
			Amount:    decimal.NewFromFloat(99.90),
			Status:    entities.TransactionStatusPending,
		}
		repo.EXPECT().GetByID(gomock.Any(), "t-1").Return(pending, nil)
		gateway.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, payload json.RawMessage) (string, string, json.RawMessage, error) {
				var req map[string]interface{}
				if err := json.Unmarshal(payload, &req); err != nil {
					t.Fatalf("invalid enriched payload: %v", err)
				}
				if req["transaction_amount"] != 99.90 {
					t.Fatalf("expected ledger amount in payload, got %v", req["transaction_amount"])
				}
				if req["external_reference"] != "t-1" {
					t.Fatalf("expected external reference, got %v", req["external_reference"])
				}
				return "mp-123", "approved", json.RawMessage(`{"id":"mp-123","status":"approved"}`), nil
			},
		)
		repo.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, tx entities.Transaction) (entities.Transaction, error) {
				if tx.Status != entities.TransactionStatusCompleted {
					t.Fatalf("expected COMPLETED, got %s", tx.Status)
				}
				if tx.PaymentDetails["providerPaymentId"] != "mp-123" {
					t.Fatalf("expected provider id, got %v", tx.PaymentDetails)
				}
				return tx, nil
			},
		)
		invoices.EXPECT().GetByID(gomock.Any(), "i-1").Return(entities.Invoice{ID: "i-1", Status: entities.InvoiceStatusSent, Amount: decimal.NewFromFloat(99.90), Version: 1}, nil)
		repo.EXPECT().SumCompletedPayments(gomock.Any(), "i-1").Return(decimal.NewFromFloat(99.90), nil)
		invoices.EXPECT().UpdateStatus(gomock.Any(), "i-1", entities.InvoiceStatusPaid, int64(1)).Return(entities.Invoice{ID: "i-1", Status: entities.InvoiceStatusPaid}, nil)

		if _, err := uc.Capture(context.Background(), "t-1", json.RawMessage(`{"payment_method_id":"pix"}`)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("denied capture marks failed without settlement", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockITransactionRepository(ctrl)
		gateway := mock_interfaces.NewMockIPaymentGateway(ctrl)
		uc := NewTransactionUseCase(repo, nil, nil, gateway)

		pending := entities.Transaction{
			ID:        "t-1",
			InvoiceID: "i-1",
			Type:      entities.TransactionTypePayment,
			Amount:    decimal.NewFromInt(100),
			Status:    entities.TransactionStatusPending,
		}
		repo.EXPECT().GetByID(gomock.Any(), "t-1").Return(pending, nil)
		gateway.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).Return("mp-9", "rejected", json.RawMessage(`{"status":"rejected"}`), nil)
		repo.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, tx entities.Transaction) (entities.Transaction, error) {
				if tx.Status != entities.TransactionStatusFailed {
					t.Fatalf("expected FAILED, got %s", tx.Status)
				}
				return tx, nil
			},
		)

		res, err := uc.Capture(context.Background(), "t-1", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Status != entities.TransactionStatusFailed {
			t.Fatalf("expected FAILED, got %s", res.Status)
		}
	})
}
