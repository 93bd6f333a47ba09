package response

import (
	"time"

	"bizops_billing/internal/domain/entities"

	"github.com/shopspring/decimal"
)

type InvoiceResponse struct {
	ID        string          `json:"id"`
	Reference string          `json:"reference"`
	ClientID  string          `json:"clientId"`
	Amount    decimal.Decimal `json:"amount"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Tax       decimal.Decimal `json:"tax"`
	Status    string          `json:"status"`
	IssuedAt  time.Time       `json:"issuedAt"`
	DueDate   time.Time       `json:"dueDate"`
	Notes     string          `json:"notes,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func FromInvoice(inv entities.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:        inv.ID,
		Reference: inv.Reference,
		ClientID:  inv.ClientID,
		Amount:    inv.Amount,
		Subtotal:  inv.Subtotal,
		Tax:       inv.Tax,
		Status:    string(inv.Status),
		IssuedAt:  inv.IssuedAt,
		DueDate:   inv.DueDate,
		Notes:     inv.Notes,
		CreatedAt: inv.CreatedAt,
		UpdatedAt: inv.UpdatedAt,
	}
}

type InvoiceListResponse struct {
	Items      []InvoiceResponse `json:"items"`
	NextCursor string            `json:"nextCursor,omitempty"`
}

func FromInvoices(invoices []entities.Invoice, nextCursor string) InvoiceListResponse {
	items := make([]InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		items = append(items, FromInvoice(inv))
	}
	return InvoiceListResponse{Items: items, NextCursor: nextCursor}
}

// InvoiceDetailResponse is the GET /v1/invoices/:id shape: the invoice plus
// its full transaction ledger.
type InvoiceDetailResponse struct {
	InvoiceResponse
	Transactions []TransactionResponse `json:"transactions"`
}

func FromInvoiceWithTransactions(inv entities.Invoice, transactions []entities.Transaction) InvoiceDetailResponse {
	items := make([]TransactionResponse, 0, len(transactions))
	for _, t := range transactions {
		items = append(items, FromTransaction(t))
	}
	return InvoiceDetailResponse{
		InvoiceResponse: FromInvoice(inv),
		Transactions:    items,
	}
}
