package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"bizops_billing/internal/domain/entities"
	"bizops_billing/internal/usecase/interfaces"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrTransactionNotFound   = errors.New("transaction not found")
	ErrInvalidTransactionID  = errors.New("invalid transaction id")
	ErrTransactionValidation = errors.New("invalid transaction")
	ErrInvoiceCancelled      = errors.New("cannot record transactions against a cancelled invoice")
	ErrInvoiceAlreadyPaid    = errors.New("invoice is already paid")
	ErrRefundReserved        = errors.New("refund transactions are created through the refund operation")
	ErrTransactionImmutable  = errors.New("cannot update completed transactions")
	ErrNotRefundable         = errors.New("can only refund completed payments")
	ErrNotCapturable         = errors.New("can only capture pending payments")
	ErrGatewayNotConfigured  = errors.New("payment gateway not configured")
	ErrSettlementContention  = errors.New("settlement lost repeatedly against concurrent invoice updates")
)

// How many times settlement retries the version-checked invoice write.
const settleMaxAttempts = 3

// TransactionInput carries the caller-supplied fields for ledger entries.
type TransactionInput struct {
	Reference      string
	InvoiceID      string
	Type           entities.TransactionType
	Amount         decimal.Decimal
	Status         entities.TransactionStatus
	PaymentMethod  string
	PaymentDetails map[string]interface{}
	Notes          string
}

// TransactionUpdateInput is a partial update; nil fields are left unchanged.
type TransactionUpdateInput struct {
	Type           *entities.TransactionType
	Amount         *decimal.Decimal
	Status         *entities.TransactionStatus
	PaymentMethod  *string
	PaymentDetails map[string]interface{}
	Notes          *string
}

// ITransactionUseCase exposes the ledger: create/update entries, refund a
// completed payment, capture a pending payment through the external
// gateway. Completed payments drive invoice settlement.

type ITransactionUseCase interface {
	Create(ctx context.Context, in TransactionInput) (entities.Transaction, error)
	GetByID(ctx context.Context, id string) (entities.Transaction, error)
	List(ctx context.Context, f interfaces.TransactionFilter) ([]entities.Transaction, string, error)
	ListByInvoiceID(ctx context.Context, invoiceID string) ([]entities.Transaction, error)
	Update(ctx context.Context, id string, in TransactionUpdateInput) (entities.Transaction, error)
	Refund(ctx context.Context, id, reason string) (entities.Transaction, error)
	Capture(ctx context.Context, id string, payload json.RawMessage) (entities.Transaction, error)
}

type TransactionUseCase struct {
	repo     interfaces.ITransactionRepository
	invoices interfaces.IInvoiceRepository
	uow      interfaces.IBillingUnitOfWork
	gateway  interfaces.IPaymentGateway
}

var _ ITransactionUseCase = (*TransactionUseCase)(nil)

func NewTransactionUseCase(
	repo interfaces.ITransactionRepository,
	invoices interfaces.IInvoiceRepository,
	uow interfaces.IBillingUnitOfWork,
	gateway interfaces.IPaymentGateway,
) *TransactionUseCase {
	return &TransactionUseCase{repo: repo, invoices: invoices, uow: uow, gateway: gateway}
}

func (u *TransactionUseCase) Create(ctx context.Context, in TransactionInput) (entities.Transaction, error) {
	now := time.Now().UTC()

	status := in.Status
	if status == "" {
		status = entities.TransactionStatusPending
	}

	t := entities.Transaction{
		ID:             uuid.NewString(),
		Reference:      strings.TrimSpace(in.Reference),
		InvoiceID:      strings.TrimSpace(in.InvoiceID),
		Type:           in.Type,
		Amount:         in.Amount,
		Status:         status,
		PaymentMethod:  in.PaymentMethod,
		PaymentDetails: in.PaymentDetails,
		Notes:          in.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := validateTransaction(t); err != nil {
		return entities.Transaction{}, err
	}
	if t.Type == entities.TransactionTypeRefund {
		return entities.Transaction{}, ErrRefundReserved
	}

	inv, err := u.invoices.GetByID(ctx, t.InvoiceID)
	if err != nil {
		return entities.Transaction{}, err
	}
	if inv.ID == "" {
		return entities.Transaction{}, ErrInvoiceNotFound
	}
	if inv.Status == entities.InvoiceStatusCancelled {
		return entities.Transaction{}, ErrInvoiceCancelled
	}
	if inv.Status == entities.InvoiceStatusPaid && t.Type == entities.TransactionTypePayment {
		return entities.Transaction{}, ErrInvoiceAlreadyPaid
	}

	created, err := u.createWithReference(ctx, t)
	if err != nil {
		return entities.Transaction{}, err
	}

	if created.SettlesInvoice() {
		if err := u.settle(ctx, created.InvoiceID); err != nil {
			return entities.Transaction{}, err
		}
	}
	return created, nil
}

func (u *TransactionUseCase) createWithReference(ctx context.Context, t entities.Transaction) (entities.Transaction, error) {
	supplied := t.Reference != ""

	var err error
	for attempt := 0; attempt < referenceMaxAttempts; attempt++ {
		if !supplied {
			t.Reference = entities.NewReference(entities.ReferencePrefixTransaction, time.Now().UTC())
		}
		var created entities.Transaction
		created, err = u.repo.Create(ctx, t)
		if err == nil {
			return created, nil
		}
		if supplied || !errors.Is(err, interfaces.ErrReferenceTaken) {
			return entities.Transaction{}, err
		}
	}
	return entities.Transaction{}, err
}

func (u *TransactionUseCase) GetByID(ctx context.Context, id string) (entities.Transaction, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return entities.Transaction{}, ErrInvalidTransactionID
	}

	t, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return entities.Transaction{}, err
	}
	if t.ID == "" {
		return entities.Transaction{}, ErrTransactionNotFound
	}
	return t, nil
}

func (u *TransactionUseCase) List(ctx context.Context, f interfaces.TransactionFilter) ([]entities.Transaction, string, error) {
	return u.repo.List(ctx, f)
}

func (u *TransactionUseCase) ListByInvoiceID(ctx context.Context, invoiceID string) ([]entities.Transaction, error) {
	invoiceID = strings.TrimSpace(invoiceID)
	if invoiceID == "" {
		return nil, ErrInvalidInvoiceID
	}
	return u.repo.ListByInvoiceID(ctx, invoiceID)
}

func (u *TransactionUseCase) Update(ctx context.Context, id string, in TransactionUpdateInput) (entities.Transaction, error) {
	t, err := u.GetByID(ctx, id)
	if err != nil {
		return entities.Transaction{}, err
	}
	if t.Status == entities.TransactionStatusCompleted {
		return entities.Transaction{}, ErrTransactionImmutable
	}

	if in.Type != nil {
		if *in.Type == entities.TransactionTypeRefund && t.Type != entities.TransactionTypeRefund {
			return entities.Transaction{}, ErrRefundReserved
		}
		t.Type = *in.Type
	}
	if in.Amount != nil {
		t.Amount = *in.Amount
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return entities.Transaction{}, fmt.Errorf("%w: status %q", ErrTransactionValidation, *in.Status)
		}
		t.Status = *in.Status
	}
	if in.PaymentMethod != nil {
		t.PaymentMethod = *in.PaymentMethod
	}
	if in.PaymentDetails != nil {
		t.PaymentDetails = in.PaymentDetails
	}
	if in.Notes != nil {
		t.Notes = *in.Notes
	}
	t.UpdatedAt = time.Now().UTC()

	if err := validateTransaction(t); err != nil {
		return entities.Transaction{}, err
	}

	updated, err := u.repo.Update(ctx, t)
	if err != nil {
		return entities.Transaction{}, err
	}

	if updated.SettlesInvoice() {
		if err := u.settle(ctx, updated.InvoiceID); err != nil {
			return entities.Transaction{}, err
		}
	}
	return updated, nil
}

// Refund derives a COMPLETED REFUND entry from a completed payment and
// cancels the source invoice. Full-invoice cancellation on any refund is the
// authoritative policy, even for refunds smaller than the invoice total.
func (u *TransactionUseCase) Refund(ctx context.Context, id, reason string) (entities.Transaction, error) {
	src, err := u.GetByID(ctx, id)
	if err != nil {
		return entities.Transaction{}, err
	}
	if src.Type != entities.TransactionTypePayment || src.Status != entities.TransactionStatusCompleted {
		return entities.Transaction{}, ErrNotRefundable
	}

	now := time.Now().UTC()
	refund := entities.Transaction{
		ID:            uuid.NewString(),
		InvoiceID:     src.InvoiceID,
		Type:          entities.TransactionTypeRefund,
		Amount:        src.Amount,
		Status:        entities.TransactionStatusCompleted,
		PaymentMethod: src.PaymentMethod,
		PaymentDetails: map[string]interface{}{
			"originalTransactionId": src.ID,
			"reason":                reason,
		},
		Notes:     fmt.Sprintf("Refund for transaction %s\nReason: %s", src.Reference, reason),
		CreatedAt: now,
		UpdatedAt: now,
	}

	for attempt := 0; attempt < referenceMaxAttempts; attempt++ {
		refund.Reference = entities.NewReference(entities.ReferencePrefixTransaction, time.Now().UTC())
		err = u.uow.RefundTransaction(ctx, refund, src.InvoiceID)
		if err == nil || !errors.Is(err, interfaces.ErrReferenceTaken) {
			break
		}
	}
	if err != nil {
		return entities.Transaction{}, err
	}
	return refund, nil
}

// Capture processes a PENDING PAYMENT through the external gateway. On
// approval the transaction completes and settlement runs; on denial it is
// marked FAILED and the decline detail is kept in paymentDetails.
func (u *TransactionUseCase) Capture(ctx context.Context, id string, payload json.RawMessage) (entities.Transaction, error) {
	if u.gateway == nil {
		return entities.Transaction{}, ErrGatewayNotConfigured
	}

	t, err := u.GetByID(ctx, id)
	if err != nil {
		return entities.Transaction{}, err
	}
	if t.Type != entities.TransactionTypePayment || t.Status != entities.TransactionStatusPending {
		return entities.Transaction{}, ErrNotCapturable
	}

	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	if !json.Valid(payload) {
		return entities.Transaction{}, fmt.Errorf("%w: capture payload is not valid JSON", ErrTransactionValidation)
	}

	// The ledger entry is the source of truth for the amount; the provider
	// payload only carries method/payer detail.
	var req map[string]interface{}
	if err := json.Unmarshal(payload, &req); err != nil {
		return entities.Transaction{}, fmt.Errorf("%w: %v", ErrTransactionValidation, err)
	}
	if _, ok := req["external_reference"]; !ok {
		req["external_reference"] = t.ID
	}
	if _, ok := req["description"]; !ok {
		req["description"] = fmt.Sprintf("Invoice %s transaction %s", t.InvoiceID, t.Reference)
	}
	req["transaction_amount"] = t.Amount.InexactFloat64()
	if b, err := json.Marshal(req); err == nil {
		payload = b
	}

	providerID, providerStatus, providerResp, err := u.gateway.CreatePayment(ctx, payload)
	if err != nil {
		log.Printf("[transaction][usecase] gateway capture failed transaction_id=%s err=%v", t.ID, err)
		return entities.Transaction{}, err
	}

	if t.PaymentDetails == nil {
		t.PaymentDetails = map[string]interface{}{}
	}
	t.PaymentDetails["providerPaymentId"] = providerID
	t.PaymentDetails["providerStatus"] = providerStatus
	var parsed map[string]interface{}
	if err := json.Unmarshal(providerResp, &parsed); err == nil {
		t.PaymentDetails["providerResponse"] = parsed
	}

	if providerStatus == "approved" {
		t.Status = entities.TransactionStatusCompleted
	} else {
		t.Status = entities.TransactionStatusFailed
	}
	t.UpdatedAt = time.Now().UTC()

	updated, err := u.repo.Update(ctx, t)
	if err != nil {
		return entities.Transaction{}, err
	}

	if updated.SettlesInvoice() {
		if err := u.settle(ctx, updated.InvoiceID); err != nil {
			return entities.Transaction{}, err
		}
	}
	return updated, nil
}

// settle recomputes the paid total for the invoice and flips it to PAID once
// completed payments cover the full amount. The write is version-checked and
// retried so two racing completions cannot both read-then-miss. PAID is
// never reverted here, and a CANCELLED invoice stays cancelled no matter
// what its ledger sums to.
func (u *TransactionUseCase) settle(ctx context.Context, invoiceID string) error {
	for attempt := 0; attempt < settleMaxAttempts; attempt++ {
		inv, err := u.invoices.GetByID(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv.ID == "" {
			return ErrInvoiceNotFound
		}
		if inv.Status == entities.InvoiceStatusPaid {
			return nil
		}
		if inv.Status == entities.InvoiceStatusCancelled {
			// A refund closed this invoice; a late completion never reopens it.
			log.Printf("[transaction][usecase] skipping settlement of cancelled invoice invoice_id=%s", invoiceID)
			return nil
		}

		totalPaid, err := u.repo.SumCompletedPayments(ctx, invoiceID)
		if err != nil {
			return err
		}
		if totalPaid.LessThan(inv.Amount) {
			return nil
		}

		_, err = u.invoices.UpdateStatus(ctx, inv.ID, entities.InvoiceStatusPaid, inv.Version)
		if err == nil {
			log.Printf("[transaction][usecase] invoice settled invoice_id=%s total_paid=%s amount=%s", invoiceID, totalPaid, inv.Amount)
			return nil
		}
		if !errors.Is(err, interfaces.ErrStaleEntity) {
			return err
		}
	}
	return ErrSettlementContention
}

func validateTransaction(t entities.Transaction) error {
	if t.InvoiceID == "" {
		return fmt.Errorf("%w: invoiceId is required", ErrTransactionValidation)
	}
	if !t.Type.Valid() {
		return fmt.Errorf("%w: type %q", ErrTransactionValidation, t.Type)
	}
	if !t.Status.Valid() {
		return fmt.Errorf("%w: status %q", ErrTransactionValidation, t.Status)
	}
	if t.Amount.IsNegative() {
		return fmt.Errorf("%w: amount must be non-negative", ErrTransactionValidation)
	}
	return nil
}
