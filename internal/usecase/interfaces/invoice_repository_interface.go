package interfaces

import (
	"context"
	"time"

	"bizops_billing/internal/domain/entities"
)

// InvoiceFilter narrows invoice listings. Zero values mean "no filter".
type InvoiceFilter struct {
	Status   entities.InvoiceStatus
	ClientID string
	Cursor   string
	Limit    int32
}

// IInvoiceRepository abstracts DynamoDB persistence for Invoice.
//
// Invoice rows carry a version counter. Update and UpdateStatus are
// conditioned on the version the caller read and return ErrStaleEntity when
// a concurrent writer got there first; TransitionStatus is conditioned on
// the current status instead, which makes the overdue sweep idempotent.

type IInvoiceRepository interface {
	Create(ctx context.Context, inv entities.Invoice) (entities.Invoice, error)
	GetByID(ctx context.Context, id string) (entities.Invoice, error)
	Update(ctx context.Context, inv entities.Invoice) (entities.Invoice, error)
	UpdateStatus(ctx context.Context, id string, status entities.InvoiceStatus, expectedVersion int64) (entities.Invoice, error)
	// TransitionStatus flips status from->to and reports whether the write
	// happened. A row no longer in the from status is not an error.
	TransitionStatus(ctx context.Context, id string, from, to entities.InvoiceStatus) (bool, error)
	Delete(ctx context.Context, id, reference string) error
	List(ctx context.Context, f InvoiceFilter) ([]entities.Invoice, string, error)
	// ListPastDueSent returns every SENT invoice with a due date strictly
	// before now, for the overdue sweep.
	ListPastDueSent(ctx context.Context, now time.Time) ([]entities.Invoice, error)
}
