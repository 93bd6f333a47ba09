package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypePayment TransactionType = "PAYMENT"
	TransactionTypeRefund  TransactionType = "REFUND"
	TransactionTypeCredit  TransactionType = "CREDIT"
	TransactionTypeDebit   TransactionType = "DEBIT"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypePayment, TransactionTypeRefund, TransactionTypeCredit, TransactionTypeDebit:
		return true
	}
	return false
}

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
	TransactionStatusCancelled TransactionStatus = "CANCELLED"
)

func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusCompleted, TransactionStatusFailed, TransactionStatusCancelled:
		return true
	}
	return false
}

// Transaction is a ledger entry recorded against an invoice.
//
// Storage model (DynamoDB):
//   - PK: invoice_id, SK: id
//   - GSI1 (id-index): id
//
// The partition key choice keeps the whole ledger of one invoice in a single
// partition so settlement can sum completed payments with a consistent query.
//
// PaymentDetails is a free-form structured payload; refund transactions use
// it to link back to the original payment.
type Transaction struct {
	ID             string                 `json:"id"`
	Reference      string                 `json:"reference"`
	InvoiceID      string                 `json:"invoiceId"`
	Type           TransactionType        `json:"type"`
	Amount         decimal.Decimal        `json:"amount"`
	Status         TransactionStatus      `json:"status"`
	PaymentMethod  string                 `json:"paymentMethod,omitempty"`
	PaymentDetails map[string]interface{} `json:"paymentDetails,omitempty"`
	Notes          string                 `json:"notes,omitempty"`
	CreatedAt      time.Time              `json:"createdAt"`
	UpdatedAt      time.Time              `json:"updatedAt"`
}

// SettlesInvoice reports whether persisting this transaction must trigger
// settlement recomputation on its invoice.
func (t Transaction) SettlesInvoice() bool {
	return t.Type == TransactionTypePayment && t.Status == TransactionStatusCompleted
}
