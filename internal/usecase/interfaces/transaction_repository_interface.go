package interfaces

import (
	"context"

	"bizops_billing/internal/domain/entities"

	"github.com/shopspring/decimal"
)

// TransactionFilter narrows ledger listings. Zero values mean "no filter".
type TransactionFilter struct {
	Status    entities.TransactionStatus
	Type      entities.TransactionType
	InvoiceID string
	Cursor    string
	Limit     int32
}

// ITransactionRepository abstracts DynamoDB persistence for Transaction.
//
// The ledger is keyed by invoice_id so SumCompletedPayments can run as a
// strongly consistent single-partition query; settlement depends on reading
// its own writes.

type ITransactionRepository interface {
	Create(ctx context.Context, t entities.Transaction) (entities.Transaction, error)
	GetByID(ctx context.Context, id string) (entities.Transaction, error)
	Update(ctx context.Context, t entities.Transaction) (entities.Transaction, error)
	List(ctx context.Context, f TransactionFilter) ([]entities.Transaction, string, error)
	ListByInvoiceID(ctx context.Context, invoiceID string) ([]entities.Transaction, error)
	// SumCompletedPayments returns the total amount of COMPLETED PAYMENT
	// transactions recorded against the invoice.
	SumCompletedPayments(ctx context.Context, invoiceID string) (decimal.Decimal, error)
}
