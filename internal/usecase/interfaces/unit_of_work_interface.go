package interfaces

import (
	"context"

	"bizops_billing/internal/domain/entities"
)

// IBillingUnitOfWork groups the two multi-entity writes of the billing
// lifecycle into single atomic commits (DynamoDB TransactWriteItems), so a
// partial failure can never leave an orphan invoice or refund behind.

type IBillingUnitOfWork interface {
	// AcceptQuote creates the invoice (with its reference guard) and flips
	// the quote SENT -> ACCEPTED in one transaction. Returns ErrStaleEntity
	// when the quote is no longer SENT, ErrReferenceTaken when the invoice
	// reference collides.
	AcceptQuote(ctx context.Context, quoteID string, inv entities.Invoice) error

	// RefundTransaction records the refund ledger entry (with its reference
	// guard) and cancels the invoice in one transaction. Returns
	// ErrReferenceTaken when the refund reference collides.
	RefundTransaction(ctx context.Context, refund entities.Transaction, invoiceID string) error
}
