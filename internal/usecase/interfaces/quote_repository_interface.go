package interfaces

import (
	"context"
	"errors"

	"bizops_billing/internal/domain/entities"
)

// Sentinel errors shared by the persistence ports.
var (
	// ErrReferenceTaken signals the storage-level unique constraint on the
	// human-readable reference fired; callers regenerate and retry.
	ErrReferenceTaken = errors.New("reference already taken")

	// ErrStaleEntity signals a conditional write lost against a concurrent
	// mutation (version or status precondition failed).
	ErrStaleEntity = errors.New("entity changed concurrently")
)

// QuoteFilter narrows quote listings. Zero values mean "no filter".
type QuoteFilter struct {
	Status   entities.QuoteStatus
	ClientID string
	Cursor   string
	Limit    int32
}

// IQuoteRepository abstracts DynamoDB persistence for Quote.
//
// Lookup methods return a zero-value entity (ID == "") when nothing matches;
// the use case maps that to a not-found error.

type IQuoteRepository interface {
	Create(ctx context.Context, q entities.Quote) (entities.Quote, error)
	GetByID(ctx context.Context, id string) (entities.Quote, error)
	Update(ctx context.Context, q entities.Quote) (entities.Quote, error)
	// Delete removes the quote and its reference guard, conditioned on the
	// quote still being DRAFT. Returns ErrStaleEntity when the condition
	// fails.
	Delete(ctx context.Context, id, reference string) error
	List(ctx context.Context, f QuoteFilter) ([]entities.Quote, string, error)
}
