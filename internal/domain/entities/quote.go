package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuoteStatus represents the lifecycle of a billing quote.
//
// Domain notes:
//   - Quotes are created in DRAFT and sent to the client (SENT).
//   - Only SENT quotes can be accepted or rejected.
//   - Accepting a quote spawns an independent DRAFT invoice.

type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "DRAFT"
	QuoteStatusSent     QuoteStatus = "SENT"
	QuoteStatusAccepted QuoteStatus = "ACCEPTED"
	QuoteStatusRejected QuoteStatus = "REJECTED"
	QuoteStatusExpired  QuoteStatus = "EXPIRED"
)

func (s QuoteStatus) Valid() bool {
	switch s {
	case QuoteStatusDraft, QuoteStatusSent, QuoteStatusAccepted, QuoteStatusRejected, QuoteStatusExpired:
		return true
	}
	return false
}

// Quote is a project estimate offered to a client.
//
// Storage model (DynamoDB): a single table keyed by id.
//
// Reference is the human-readable business identifier (QUO-YYYYMMDD-XXXXX),
// unique per record and distinct from the primary key.
type Quote struct {
	ID              string          `json:"id"`
	Reference       string          `json:"reference"`
	ClientID        string          `json:"clientId"`
	EstimatedAmount decimal.Decimal `json:"estimatedAmount"`
	Status          QuoteStatus     `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
	ValidUntil      time.Time       `json:"validUntil"`
	ProjectScope    string          `json:"projectScope"`
	Terms           string          `json:"terms,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Mutable reports whether the quote still accepts field updates.
// Accepted and rejected quotes are frozen.
func (q Quote) Mutable() bool {
	return q.Status != QuoteStatusAccepted && q.Status != QuoteStatusRejected
}
