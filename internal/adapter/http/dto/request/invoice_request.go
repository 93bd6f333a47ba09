package request

import (
	"time"

	"bizops_billing/internal/domain/entities"
	"bizops_billing/internal/usecase"

	"github.com/shopspring/decimal"
)

// InvoiceCreateRequest is the payload accepted by POST /v1/invoices.
//
// Amount is optional and defaults to subtotal+tax. Status may only be DRAFT
// or SENT; the derived statuses are owned by settlement, the overdue sweep
// and refund processing.
type InvoiceCreateRequest struct {
	Reference string           `json:"reference"`
	ClientID  string           `json:"clientId" binding:"required"`
	Amount    *decimal.Decimal `json:"amount"`
	Subtotal  decimal.Decimal  `json:"subtotal"`
	Tax       decimal.Decimal  `json:"tax"`
	Status    string           `json:"status"`
	IssuedAt  time.Time        `json:"issuedAt"`
	DueDate   time.Time        `json:"dueDate" binding:"required"`
	Notes     string           `json:"notes"`
}

func (r InvoiceCreateRequest) ToInput() usecase.InvoiceInput {
	return usecase.InvoiceInput{
		Reference: r.Reference,
		ClientID:  r.ClientID,
		Amount:    r.Amount,
		Subtotal:  r.Subtotal,
		Tax:       r.Tax,
		Status:    entities.InvoiceStatus(r.Status),
		IssuedAt:  r.IssuedAt,
		DueDate:   r.DueDate,
		Notes:     r.Notes,
	}
}

// InvoiceUpdateRequest is the partial-update payload for PATCH /v1/invoices/:id.
// Absent fields are left untouched.
type InvoiceUpdateRequest struct {
	ClientID *string          `json:"clientId"`
	Amount   *decimal.Decimal `json:"amount"`
	Subtotal *decimal.Decimal `json:"subtotal"`
	Tax      *decimal.Decimal `json:"tax"`
	Status   *string          `json:"status"`
	IssuedAt *time.Time       `json:"issuedAt"`
	DueDate  *time.Time       `json:"dueDate"`
	Notes    *string          `json:"notes"`
}

func (r InvoiceUpdateRequest) ToInput() usecase.InvoiceUpdateInput {
	in := usecase.InvoiceUpdateInput{
		ClientID: r.ClientID,
		Amount:   r.Amount,
		Subtotal: r.Subtotal,
		Tax:      r.Tax,
		IssuedAt: r.IssuedAt,
		DueDate:  r.DueDate,
		Notes:    r.Notes,
	}
	if r.Status != nil {
		s := entities.InvoiceStatus(*r.Status)
		in.Status = &s
	}
	return in
}
