package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bizops_billing/internal/domain/entities"
	"bizops_billing/internal/usecase/interfaces"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvoiceNotFound      = errors.New("invoice not found")
	ErrInvalidInvoiceID     = errors.New("invalid invoice id")
	ErrInvoiceValidation    = errors.New("invalid invoice")
	ErrInvoicePaidLocked    = errors.New("cannot update status of paid invoice")
	ErrInvoiceNotDraft      = errors.New("only draft invoices can be deleted")
	ErrInvoiceStatusDerived = errors.New("paid, overdue and cancelled are derived statuses")
)

// InvoiceInput carries the caller-supplied fields for invoice creation.
// Amount defaults to Subtotal+Tax when nil; IssuedAt defaults to now.
type InvoiceInput struct {
	Reference string
	ClientID  string
	Amount    *decimal.Decimal
	Subtotal  decimal.Decimal
	Tax       decimal.Decimal
	Status    entities.InvoiceStatus
	IssuedAt  time.Time
	DueDate   time.Time
	Notes     string
}

// InvoiceUpdateInput is a partial update; nil fields are left unchanged.
type InvoiceUpdateInput struct {
	ClientID *string
	Amount   *decimal.Decimal
	Subtotal *decimal.Decimal
	Tax      *decimal.Decimal
	Status   *entities.InvoiceStatus
	IssuedAt *time.Time
	DueDate  *time.Time
	Notes    *string
}

// IInvoiceUseCase exposes invoice CRUD. PAID and OVERDUE are never set
// here: settlement and the overdue sweep own those transitions.

type IInvoiceUseCase interface {
	Create(ctx context.Context, in InvoiceInput) (entities.Invoice, error)
	GetByID(ctx context.Context, id string) (entities.Invoice, error)
	List(ctx context.Context, f interfaces.InvoiceFilter) ([]entities.Invoice, string, error)
	Update(ctx context.Context, id string, in InvoiceUpdateInput) (entities.Invoice, error)
	Delete(ctx context.Context, id string) error
}

type InvoiceUseCase struct {
	repo interfaces.IInvoiceRepository
}

var _ IInvoiceUseCase = (*InvoiceUseCase)(nil)

func NewInvoiceUseCase(repo interfaces.IInvoiceRepository) *InvoiceUseCase {
	return &InvoiceUseCase{repo: repo}
}

func (u *InvoiceUseCase) Create(ctx context.Context, in InvoiceInput) (entities.Invoice, error) {
	now := time.Now().UTC()

	status := in.Status
	if status == "" {
		status = entities.InvoiceStatusDraft
	}
	if !status.Valid() {
		return entities.Invoice{}, fmt.Errorf("%w: status %q", ErrInvoiceValidation, in.Status)
	}
	if status.Derived() {
		return entities.Invoice{}, ErrInvoiceStatusDerived
	}

	issuedAt := in.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = now
	}

	amount := in.Subtotal.Add(in.Tax)
	if in.Amount != nil {
		amount = *in.Amount
	}

	inv := entities.Invoice{
		ID:        uuid.NewString(),
		Reference: strings.TrimSpace(in.Reference),
		ClientID:  strings.TrimSpace(in.ClientID),
		Amount:    amount,
		Subtotal:  in.Subtotal,
		Tax:       in.Tax,
		Status:    status,
		IssuedAt:  issuedAt,
		DueDate:   in.DueDate,
		Notes:     in.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := validateInvoice(inv); err != nil {
		return entities.Invoice{}, err
	}

	return u.createWithReference(ctx, inv)
}

func (u *InvoiceUseCase) createWithReference(ctx context.Context, inv entities.Invoice) (entities.Invoice, error) {
	supplied := inv.Reference != ""

	var err error
	for attempt := 0; attempt < referenceMaxAttempts; attempt++ {
		if !supplied {
			inv.Reference = entities.NewReference(entities.ReferencePrefixInvoice, time.Now().UTC())
		}
		var created entities.Invoice
		created, err = u.repo.Create(ctx, inv)
		if err == nil {
			return created, nil
		}
		if supplied || !errors.Is(err, interfaces.ErrReferenceTaken) {
			return entities.Invoice{}, err
		}
	}
	return entities.Invoice{}, err
}

func (u *InvoiceUseCase) GetByID(ctx context.Context, id string) (entities.Invoice, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return entities.Invoice{}, ErrInvalidInvoiceID
	}

	inv, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return entities.Invoice{}, err
	}
	if inv.ID == "" {
		return entities.Invoice{}, ErrInvoiceNotFound
	}
	return inv, nil
}

func (u *InvoiceUseCase) List(ctx context.Context, f interfaces.InvoiceFilter) ([]entities.Invoice, string, error) {
	return u.repo.List(ctx, f)
}

func (u *InvoiceUseCase) Update(ctx context.Context, id string, in InvoiceUpdateInput) (entities.Invoice, error) {
	inv, err := u.GetByID(ctx, id)
	if err != nil {
		return entities.Invoice{}, err
	}

	// A settled invoice never drifts to another status; everything else on
	// it may still be touched (notes fixes etc).
	if inv.Status == entities.InvoiceStatusPaid && in.Status != nil && *in.Status != entities.InvoiceStatusPaid {
		return entities.Invoice{}, ErrInvoicePaidLocked
	}

	if in.ClientID != nil {
		inv.ClientID = strings.TrimSpace(*in.ClientID)
	}
	if in.Amount != nil {
		inv.Amount = *in.Amount
	}
	if in.Subtotal != nil {
		inv.Subtotal = *in.Subtotal
	}
	if in.Tax != nil {
		inv.Tax = *in.Tax
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return entities.Invoice{}, fmt.Errorf("%w: status %q", ErrInvoiceValidation, *in.Status)
		}
		inv.Status = *in.Status
	}
	if in.IssuedAt != nil {
		inv.IssuedAt = *in.IssuedAt
	}
	if in.DueDate != nil {
		inv.DueDate = *in.DueDate
	}
	if in.Notes != nil {
		inv.Notes = *in.Notes
	}
	inv.UpdatedAt = time.Now().UTC()

	if err := validateInvoice(inv); err != nil {
		return entities.Invoice{}, err
	}

	return u.repo.Update(ctx, inv)
}

func (u *InvoiceUseCase) Delete(ctx context.Context, id string) error {
	inv, err := u.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if inv.Status != entities.InvoiceStatusDraft {
		return ErrInvoiceNotDraft
	}

	err = u.repo.Delete(ctx, inv.ID, inv.Reference)
	if errors.Is(err, interfaces.ErrStaleEntity) {
		return ErrInvoiceNotDraft
	}
	return err
}

func validateInvoice(inv entities.Invoice) error {
	if inv.ClientID == "" {
		return fmt.Errorf("%w: clientId is required", ErrInvoiceValidation)
	}
	if inv.Amount.IsNegative() {
		return fmt.Errorf("%w: amount must be non-negative", ErrInvoiceValidation)
	}
	if inv.Subtotal.IsNegative() {
		return fmt.Errorf("%w: subtotal must be non-negative", ErrInvoiceValidation)
	}
	if inv.Tax.IsNegative() {
		return fmt.Errorf("%w: tax must be non-negative", ErrInvoiceValidation)
	}
	if !inv.DueDate.After(inv.IssuedAt) {
		return fmt.Errorf("%w: dueDate must be after issuedAt", ErrInvoiceValidation)
	}
	return nil
}
