package response

import (
	"time"

	"bizops_billing/internal/domain/entities"

	"github.com/shopspring/decimal"
)

type QuoteResponse struct {
	ID              string          `json:"id"`
	Reference       string          `json:"reference"`
	ClientID        string          `json:"clientId"`
	EstimatedAmount decimal.Decimal `json:"estimatedAmount"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
	ValidUntil      time.Time       `json:"validUntil"`
	ProjectScope    string          `json:"projectScope"`
	Terms           string          `json:"terms,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func FromQuote(q entities.Quote) QuoteResponse {
	return QuoteResponse{
		ID:              q.ID,
		Reference:       q.Reference,
		ClientID:        q.ClientID,
		EstimatedAmount: q.EstimatedAmount,
		Status:          string(q.Status),
		CreatedAt:       q.CreatedAt,
		ValidUntil:      q.ValidUntil,
		ProjectScope:    q.ProjectScope,
		Terms:           q.Terms,
		Notes:           q.Notes,
		UpdatedAt:       q.UpdatedAt,
	}
}

type QuoteListResponse struct {
	Items      []QuoteResponse `json:"items"`
	NextCursor string          `json:"nextCursor,omitempty"`
}

func FromQuotes(quotes []entities.Quote, nextCursor string) QuoteListResponse {
	items := make([]QuoteResponse, 0, len(quotes))
	for _, q := range quotes {
		items = append(items, FromQuote(q))
	}
	return QuoteListResponse{Items: items, NextCursor: nextCursor}
}

// AcceptQuoteResponse carries both sides of a successful accept: the flipped
// quote and the invoice it spawned.
type AcceptQuoteResponse struct {
	Message string          `json:"message"`
	Quote   QuoteResponse   `json:"quote"`
	Invoice InvoiceResponse `json:"invoice"`
}

func FromAcceptedQuote(q entities.Quote, inv entities.Invoice) AcceptQuoteResponse {
	return AcceptQuoteResponse{
		Message: "Quote accepted and invoice created successfully",
		Quote:   FromQuote(q),
		Invoice: FromInvoice(inv),
	}
}
