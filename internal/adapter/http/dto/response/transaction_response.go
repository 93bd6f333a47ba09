package response

import (
	"time"

	"bizops_billing/internal/domain/entities"

	"github.com/shopspring/decimal"
)

type TransactionResponse struct {
	ID             string                 `json:"id"`
	Reference      string                 `json:"reference"`
	InvoiceID      string                 `json:"invoiceId"`
	Type           string                 `json:"type"`
	Amount         decimal.Decimal        `json:"amount"`
	Status         string                 `json:"status"`
	PaymentMethod  string                 `json:"paymentMethod,omitempty"`
	PaymentDetails map[string]interface{} `json:"paymentDetails,omitempty"`
	Notes          string                 `json:"notes,omitempty"`
	CreatedAt      time.Time              `json:"createdAt"`
	UpdatedAt      time.Time              `json:"updatedAt"`
}

func FromTransaction(t entities.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:             t.ID,
		Reference:      t.Reference,
		InvoiceID:      t.InvoiceID,
		Type:           string(t.Type),
		Amount:         t.Amount,
		Status:         string(t.Status),
		PaymentMethod:  t.PaymentMethod,
		PaymentDetails: t.PaymentDetails,
		Notes:          t.Notes,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

// RefundTransactionResponse wraps the refund entry the way the accept
// endpoint wraps its quote/invoice pair.
type RefundTransactionResponse struct {
	Message string              `json:"message"`
	Refund  TransactionResponse `json:"refund"`
}

func FromRefundedTransaction(refund entities.Transaction) RefundTransactionResponse {
	return RefundTransactionResponse{
		Message: "Refund processed successfully",
		Refund:  FromTransaction(refund),
	}
}

type TransactionListResponse struct {
	Items      []TransactionResponse `json:"items"`
	NextCursor string                `json:"nextCursor,omitempty"`
}

func FromTransactions(transactions []entities.Transaction, nextCursor string) TransactionListResponse {
	items := make([]TransactionResponse, 0, len(transactions))
	for _, t := range transactions {
		items = append(items, FromTransaction(t))
	}
	return TransactionListResponse{Items: items, NextCursor: nextCursor}
}
