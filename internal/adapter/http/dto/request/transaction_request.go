package request

import (
	"bizops_billing/internal/domain/entities"
	"bizops_billing/internal/usecase"

	"github.com/shopspring/decimal"
)

// TransactionCreateRequest is the payload accepted by POST /v1/transactions.
//
// Type REFUND is not accepted here; refunds are derived from a completed
// payment through POST /v1/transactions/:id/refund.
type TransactionCreateRequest struct {
	Reference      string                 `json:"reference"`
	InvoiceID      string                 `json:"invoiceId" binding:"required"`
	Type           string                 `json:"type" binding:"required"`
	Amount         decimal.Decimal        `json:"amount"`
	Status         string                 `json:"status"`
	PaymentMethod  string                 `json:"paymentMethod"`
	PaymentDetails map[string]interface{} `json:"paymentDetails"`
	Notes          string                 `json:"notes"`
}

func (r TransactionCreateRequest) ToInput() usecase.TransactionInput {
	return usecase.TransactionInput{
		Reference:      r.Reference,
		InvoiceID:      r.InvoiceID,
		Type:           entities.TransactionType(r.Type),
		Amount:         r.Amount,
		Status:         entities.TransactionStatus(r.Status),
		PaymentMethod:  r.PaymentMethod,
		PaymentDetails: r.PaymentDetails,
		Notes:          r.Notes,
	}
}

// TransactionUpdateRequest is the partial-update payload for
// PATCH /v1/transactions/:id. Absent fields are left untouched.
type TransactionUpdateRequest struct {
	Type           *string                `json:"type"`
	Amount         *decimal.Decimal       `json:"amount"`
	Status         *string                `json:"status"`
	PaymentMethod  *string                `json:"paymentMethod"`
	PaymentDetails map[string]interface{} `json:"paymentDetails"`
	Notes          *string                `json:"notes"`
}

func (r TransactionUpdateRequest) ToInput() usecase.TransactionUpdateInput {
	in := usecase.TransactionUpdateInput{
		Amount:         r.Amount,
		PaymentMethod:  r.PaymentMethod,
		PaymentDetails: r.PaymentDetails,
		Notes:          r.Notes,
	}
	if r.Type != nil {
		t := entities.TransactionType(*r.Type)
		in.Type = &t
	}
	if r.Status != nil {
		s := entities.TransactionStatus(*r.Status)
		in.Status = &s
	}
	return in
}

// TransactionRefundRequest carries the optional reason for
// POST /v1/transactions/:id/refund.
type TransactionRefundRequest struct {
	Reason string `json:"reason"`
}
