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
	ErrQuoteNotFound   = errors.New("quote not found")
	ErrInvalidQuoteID  = errors.New("invalid quote id")
	ErrQuoteValidation = errors.New("invalid quote")
	ErrQuoteLocked     = errors.New("cannot update accepted or rejected quotes")
	ErrQuoteNotSent    = errors.New("only sent quotes can be accepted or rejected")
	ErrQuoteNotDraft   = errors.New("only draft quotes can be deleted")
)

// How long a quote-spawned invoice has until it is due.
const invoiceDueTerm = 30 * 24 * time.Hour

// How many times creation retries when the generated reference collides.
const referenceMaxAttempts = 3

// QuoteInput carries the caller-supplied fields for quote creation.
// Status is deliberately absent: quotes always start in DRAFT.
type QuoteInput struct {
	Reference       string
	ClientID        string
	EstimatedAmount decimal.Decimal
	ValidUntil      time.Time
	ProjectScope    string
	Terms           string
	Notes           string
}

// QuoteUpdateInput is a partial update; nil fields are left unchanged.
type QuoteUpdateInput struct {
	ClientID        *string
	EstimatedAmount *decimal.Decimal
	Status          *entities.QuoteStatus
	ValidUntil      *time.Time
	ProjectScope    *string
	Terms           *string
	Notes           *string
}

// IQuoteUseCase exposes the quote lifecycle:
// draft -> sent -> accepted/rejected, with accept spawning a draft invoice.

type IQuoteUseCase interface {
	Create(ctx context.Context, in QuoteInput) (entities.Quote, error)
	GetByID(ctx context.Context, id string) (entities.Quote, error)
	List(ctx context.Context, f interfaces.QuoteFilter) ([]entities.Quote, string, error)
	Update(ctx context.Context, id string, in QuoteUpdateInput) (entities.Quote, error)
	Accept(ctx context.Context, id string) (entities.Quote, entities.Invoice, error)
	Reject(ctx context.Context, id, reason string) (entities.Quote, error)
	Delete(ctx context.Context, id string) error
}

type QuoteUseCase struct {
	repo interfaces.IQuoteRepository
	uow  interfaces.IBillingUnitOfWork
}

var _ IQuoteUseCase = (*QuoteUseCase)(nil)

func NewQuoteUseCase(repo interfaces.IQuoteRepository, uow interfaces.IBillingUnitOfWork) *QuoteUseCase {
	return &QuoteUseCase{repo: repo, uow: uow}
}

func (u *QuoteUseCase) Create(ctx context.Context, in QuoteInput) (entities.Quote, error) {
	now := time.Now().UTC()

	q := entities.Quote{
		ID:              uuid.NewString(),
		Reference:       strings.TrimSpace(in.Reference),
		ClientID:        strings.TrimSpace(in.ClientID),
		EstimatedAmount: in.EstimatedAmount,
		// Creation always starts the lifecycle in DRAFT, regardless of
		// anything the caller sent; SENT gates accept/reject later.
		Status:       entities.QuoteStatusDraft,
		CreatedAt:    now,
		ValidUntil:   in.ValidUntil,
		ProjectScope: strings.TrimSpace(in.ProjectScope),
		Terms:        in.Terms,
		Notes:        in.Notes,
		UpdatedAt:    now,
	}

	if err := validateQuote(q); err != nil {
		return entities.Quote{}, err
	}

	return u.createWithReference(ctx, q)
}

// createWithReference persists the quote, regenerating the reference when a
// generated one collides. A caller-supplied reference is never regenerated;
// its collision surfaces as a conflict.
func (u *QuoteUseCase) createWithReference(ctx context.Context, q entities.Quote) (entities.Quote, error) {
	supplied := q.Reference != ""

	var err error
	for attempt := 0; attempt < referenceMaxAttempts; attempt++ {
		if !supplied {
			q.Reference = entities.NewReference(entities.ReferencePrefixQuote, time.Now().UTC())
		}
		var created entities.Quote
		created, err = u.repo.Create(ctx, q)
		if err == nil {
			return created, nil
		}
		if supplied || !errors.Is(err, interfaces.ErrReferenceTaken) {
			return entities.Quote{}, err
		}
	}
	return entities.Quote{}, err
}

func (u *QuoteUseCase) GetByID(ctx context.Context, id string) (entities.Quote, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return entities.Quote{}, ErrInvalidQuoteID
	}

	q, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return entities.Quote{}, err
	}
	if q.ID == "" {
		return entities.Quote{}, ErrQuoteNotFound
	}
	return q, nil
}

func (u *QuoteUseCase) List(ctx context.Context, f interfaces.QuoteFilter) ([]entities.Quote, string, error) {
	return u.repo.List(ctx, f)
}

func (u *QuoteUseCase) Update(ctx context.Context, id string, in QuoteUpdateInput) (entities.Quote, error) {
	q, err := u.GetByID(ctx, id)
	if err != nil {
		return entities.Quote{}, err
	}
	if !q.Mutable() {
		return entities.Quote{}, ErrQuoteLocked
	}

	if in.ClientID != nil {
		q.ClientID = strings.TrimSpace(*in.ClientID)
	}
	if in.EstimatedAmount != nil {
		q.EstimatedAmount = *in.EstimatedAmount
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return entities.Quote{}, fmt.Errorf("%w: status %q", ErrQuoteValidation, *in.Status)
		}
		q.Status = *in.Status
	}
	if in.ValidUntil != nil {
		q.ValidUntil = *in.ValidUntil
	}
	if in.ProjectScope != nil {
		q.ProjectScope = strings.TrimSpace(*in.ProjectScope)
	}
	if in.Terms != nil {
		q.Terms = *in.Terms
	}
	if in.Notes != nil {
		q.Notes = *in.Notes
	}
	q.UpdatedAt = time.Now().UTC()

	if err := validateQuote(q); err != nil {
		return entities.Quote{}, err
	}
	return u.repo.Update(ctx, q)
}

// Accept flips a SENT quote to ACCEPTED and spawns a DRAFT invoice carrying
// the quote's client and estimated amount. Both writes commit atomically.
func (u *QuoteUseCase) Accept(ctx context.Context, id string) (entities.Quote, entities.Invoice, error) {
	q, err := u.GetByID(ctx, id)
	if err != nil {
		return entities.Quote{}, entities.Invoice{}, err
	}
	if q.Status != entities.QuoteStatusSent {
		return entities.Quote{}, entities.Invoice{}, ErrQuoteNotSent
	}

	now := time.Now().UTC()
	inv := entities.Invoice{
		ID:       uuid.NewString(),
		ClientID: q.ClientID,
		Amount:   q.EstimatedAmount,
		Subtotal: q.EstimatedAmount,
		Tax:      decimal.Zero,
		Status:   entities.InvoiceStatusDraft,
		IssuedAt: now,
		DueDate:  now.Add(invoiceDueTerm),
		// The invoice does not own the quote; the note back-reference is
		// the only link between them.
		Notes:     fmt.Sprintf("Generated from Quote %s\n\n%s", q.Reference, q.ProjectScope),
		CreatedAt: now,
		UpdatedAt: now,
	}

	for attempt := 0; attempt < referenceMaxAttempts; attempt++ {
		inv.Reference = entities.NewReference(entities.ReferencePrefixInvoice, time.Now().UTC())
		err = u.uow.AcceptQuote(ctx, q.ID, inv)
		if err == nil {
			break
		}
		if errors.Is(err, interfaces.ErrStaleEntity) {
			// Someone else moved the quote out of SENT between our read and
			// the commit.
			return entities.Quote{}, entities.Invoice{}, ErrQuoteNotSent
		}
		if !errors.Is(err, interfaces.ErrReferenceTaken) {
			return entities.Quote{}, entities.Invoice{}, err
		}
	}
	if err != nil {
		return entities.Quote{}, entities.Invoice{}, err
	}

	q.Status = entities.QuoteStatusAccepted
	q.UpdatedAt = now
	return q, inv, nil
}

func (u *QuoteUseCase) Reject(ctx context.Context, id, reason string) (entities.Quote, error) {
	q, err := u.GetByID(ctx, id)
	if err != nil {
		return entities.Quote{}, err
	}
	if q.Status != entities.QuoteStatusSent {
		return entities.Quote{}, ErrQuoteNotSent
	}

	q.Status = entities.QuoteStatusRejected
	if reason = strings.TrimSpace(reason); reason != "" {
		q.Notes = appendNote(q.Notes, "Rejection Reason: "+reason)
	}
	q.UpdatedAt = time.Now().UTC()

	return u.repo.Update(ctx, q)
}

func (u *QuoteUseCase) Delete(ctx context.Context, id string) error {
	q, err := u.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if q.Status != entities.QuoteStatusDraft {
		return ErrQuoteNotDraft
	}

	err = u.repo.Delete(ctx, q.ID, q.Reference)
	if errors.Is(err, interfaces.ErrStaleEntity) {
		return ErrQuoteNotDraft
	}
	return err
}

func validateQuote(q entities.Quote) error {
	if q.ClientID == "" {
		return fmt.Errorf("%w: clientId is required", ErrQuoteValidation)
	}
	if q.EstimatedAmount.IsNegative() {
		return fmt.Errorf("%w: estimatedAmount must be non-negative", ErrQuoteValidation)
	}
	if q.ProjectScope == "" {
		return fmt.Errorf("%w: projectScope is required", ErrQuoteValidation)
	}
	if !q.ValidUntil.After(q.CreatedAt) {
		return fmt.Errorf("%w: validUntil must be after createdAt", ErrQuoteValidation)
	}
	return nil
}

func appendNote(notes, line string) string {
	if notes == "" {
		return line
	}
	return notes + "\n\n" + line
}
