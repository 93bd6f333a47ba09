package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"bizops_billing/internal/domain/entities"
	mock_interfaces "bizops_billing/internal/usecase/interfaces/mocks"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"
)

func validInvoiceInput() InvoiceInput {
	issued := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	return InvoiceInput{
		ClientID: "client-1",
		Subtotal: decimal.NewFromInt(400),
		Tax:      decimal.NewFromInt(100),
		IssuedAt: issued,
		DueDate:  issued.Add(30 * 24 * time.Hour),
	}
}

func TestInvoiceUseCase_Create(t *testing.T) {
	t.Run("due date equal to issued at fails", func(t *testing.T) {
		uc := NewInvoiceUseCase(nil)
		in := validInvoiceInput()
		in.DueDate = in.IssuedAt
		_, err := uc.Create(context.Background(), in)
		if !errors.Is(err, ErrInvoiceValidation) {
			t.Fatalf("expected ErrInvoiceValidation, got %v", err)
		}
	})

	t.Run("due date one millisecond after issued at succeeds", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIInvoiceRepository(ctrl)
		uc := NewInvoiceUseCase(repo)

		repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, inv entities.Invoice) (entities.Invoice, error) { return inv, nil },
		)

		in := validInvoiceInput()
		in.DueDate = in.IssuedAt.Add(time.Millisecond)
		if _, err := uc.Create(context.Background(), in); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("negative subtotal fails", func(t *testing.T) {
		uc := NewInvoiceUseCase(nil)
		in := validInvoiceInput()
		in.Subtotal = decimal.NewFromInt(-1)
		_, err := uc.Create(context.Background(), in)
		if !errors.Is(err, ErrInvoiceValidation) {
			t.Fatalf("expected ErrInvoiceValidation, got %v", err)
		}
	})

	t.Run("amount defaults to subtotal plus tax", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIInvoiceRepository(ctrl)
		uc := NewInvoiceUseCase(repo)

		repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, inv entities.Invoice) (entities.Invoice, error) {
				if !inv.Amount.Equal(decimal.NewFromInt(500)) {
					t.Fatalf("expected amount 500, got %s", inv.Amount)
				}
				if inv.Status != entities.InvoiceStatusDraft {
					t.Fatalf("expected DRAFT default, got %s", inv.Status)
				}
				return inv, nil
			},
		)

		if _, err := uc.Create(context.Background(), validInvoiceInput()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("derived statuses rejected on create", func(t *testing.T) {
		uc := NewInvoiceUseCase(nil)
		for _, status := range []entities.InvoiceStatus{
			entities.InvoiceStatusPaid,
			entities.InvoiceStatusOverdue,
			entities.InvoiceStatusCancelled,
		} {
			in := validInvoiceInput()
			in.Status = status
			if _, err := uc.Create(context.Background(), in); !errors.Is(err, ErrInvoiceStatusDerived) {
				t.Fatalf("status %s: expected ErrInvoiceStatusDerived, got %v", status, err)
			}
		}
	})

	t.Run("sent may be supplied", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIInvoiceRepository(ctrl)
		uc := NewInvoiceUseCase(repo)

		repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, inv entities.Invoice) (entities.Invoice, error) {
				if inv.Status != entities.InvoiceStatusSent {
					t.Fatalf("expected SENT, got %s", inv.Status)
				}
				return inv, nil
			},
		)

		in := validInvoiceInput()
		in.Status = entities.InvoiceStatusSent
		if _, err := uc.Create(context.Background(), in); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestInvoiceUseCase_Update(t *testing.T) {
	t.Run("paid invoice cannot change status", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIInvoiceRepository(ctrl)
		uc := NewInvoiceUseCase(repo)

		repo.EXPECT().GetByID(gomock.Any(), "i-1").Return(entities.Invoice{ID: "i-1", Status: entities.InvoiceStatusPaid}, nil)

		sent := entities.InvoiceStatusSent
		_, err := uc.Update(context.Background(), "i-1", InvoiceUpdateInput{Status: &sent})
		if !errors.Is(err, ErrInvoicePaidLocked) {
			t.Fatalf("expected ErrInvoicePaidLocked, got %v", err)
		}
	})

	t.Run("paid-to-paid is a no-op guard", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIInvoiceRepository(ctrl)
		uc := NewInvoiceUseCase(repo)

		existing := entities.Invoice{
			ID:       "i-1",
			ClientID: "client-1",
			Amount:   decimal.NewFromInt(100),
			Subtotal: decimal.NewFromInt(100),
			Status:   entities.InvoiceStatusPaid,
			IssuedAt: time.Now().UTC().Add(-time.Hour),
			DueDate:  time.Now().UTC().Add(24 * time.Hour),
		}
		repo.EXPECT().GetByID(gomock.Any(), "i-1").Return(existing, nil)
		repo.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, inv entities.Invoice) (entities.Invoice, error) { return inv, nil },
		)

		paid := entities.InvoiceStatusPaid
		if _, err := uc.Update(context.Background(), "i-1", InvoiceUpdateInput{Status: &paid}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIInvoiceRepository(ctrl)
		uc := NewInvoiceUseCase(repo)

		repo.EXPECT().GetByID(gomock.Any(), "missing").Return(entities.Invoice{}, nil)

		_, err := uc.Update(context.Background(), "missing", InvoiceUpdateInput{})
		if !errors.Is(err, ErrInvoiceNotFound) {
			t.Fatalf("expected ErrInvoiceNotFound, got %v", err)
		}
	})
}

func TestInvoiceUseCase_Delete(t *testing.T) {
	t.Run("sent invoice cannot be deleted", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIInvoiceRepository(ctrl)
		uc := NewInvoiceUseCase(repo)

		repo.EXPECT().GetByID(gomock.Any(), "i-1").Return(entities.Invoice{ID: "i-1", Status: entities.InvoiceStatusSent}, nil)

		if err := uc.Delete(context.Background(), "i-1"); !errors.Is(err, ErrInvoiceNotDraft) {
			t.Fatalf("expected ErrInvoiceNotDraft, got %v", err)
		}
	})

	t.Run("draft invoice deletes", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIInvoiceRepository(ctrl)
		uc := NewInvoiceUseCase(repo)

		repo.EXPECT().GetByID(gomock.Any(), "i-1").Return(entities.Invoice{ID: "i-1", Reference: "INV-20260101-AAAAA", Status: entities.InvoiceStatusDraft}, nil)
		repo.EXPECT().Delete(gomock.Any(), "i-1", "INV-20260101-AAAAA").Return(nil)

		if err := uc.Delete(context.Background(), "i-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}
