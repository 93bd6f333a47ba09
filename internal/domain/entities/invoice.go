package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the settlement lifecycle of an invoice.
//
// PAID and OVERDUE are derived states: PAID is reached only through
// settlement of completed payment transactions, OVERDUE only through the
// periodic past-due sweep. CANCELLED is reached through refund processing.

type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"
	InvoiceStatusSent      InvoiceStatus = "SENT"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusOverdue   InvoiceStatus = "OVERDUE"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	}
	return false
}

// Derived reports whether the status may only be reached through
// settlement, the overdue sweep or refund processing, never supplied
// directly on creation.
func (s InvoiceStatus) Derived() bool {
	switch s {
	case InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	}
	return false
}

// Invoice is a billable document issued to a client.
//
// Storage model (DynamoDB): a single table keyed by id.
//
// Version backs optimistic concurrency on status writes: settlement and
// field updates are conditioned on the version they read, so two racing
// writers cannot both win on the same row.
type Invoice struct {
	ID        string          `json:"id"`
	Reference string          `json:"reference"`
	ClientID  string          `json:"clientId"`
	Amount    decimal.Decimal `json:"amount"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Tax       decimal.Decimal `json:"tax"`
	Status    InvoiceStatus   `json:"status"`
	IssuedAt  time.Time       `json:"issuedAt"`
	DueDate   time.Time       `json:"dueDate"`
	Notes     string          `json:"notes,omitempty"`
	Version   int64           `json:"-"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// PastDue reports whether a sent invoice has crossed its due date.
func (i Invoice) PastDue(now time.Time) bool {
	return i.Status == InvoiceStatusSent && i.DueDate.Before(now)
}
