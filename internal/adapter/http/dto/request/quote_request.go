package request

import (
	"time"

	"bizops_billing/internal/domain/entities"
	"bizops_billing/internal/usecase"

	"github.com/shopspring/decimal"
)

// QuoteCreateRequest is the payload accepted by POST /v1/quotes.
//
// Status is not part of the payload: every quote starts in DRAFT and moves
// through the lifecycle via PATCH and the accept/reject endpoints.
type QuoteCreateRequest struct {
	Reference       string          `json:"reference"`
	ClientID        string          `json:"clientId" binding:"required"`
	EstimatedAmount decimal.Decimal `json:"estimatedAmount"`
	ValidUntil      time.Time       `json:"validUntil" binding:"required"`
	ProjectScope    string          `json:"projectScope" binding:"required"`
	Terms           string          `json:"terms"`
	Notes           string          `json:"notes"`
}

func (r QuoteCreateRequest) ToInput() usecase.QuoteInput {
	return usecase.QuoteInput{
		Reference:       r.Reference,
		ClientID:        r.ClientID,
		EstimatedAmount: r.EstimatedAmount,
		ValidUntil:      r.ValidUntil,
		ProjectScope:    r.ProjectScope,
		Terms:           r.Terms,
		Notes:           r.Notes,
	}
}

// QuoteUpdateRequest is the partial-update payload for PATCH /v1/quotes/:id.
// Absent fields are left untouched.
type QuoteUpdateRequest struct {
	ClientID        *string          `json:"clientId"`
	EstimatedAmount *decimal.Decimal `json:"estimatedAmount"`
	Status          *string          `json:"status"`
	ValidUntil      *time.Time       `json:"validUntil"`
	ProjectScope    *string          `json:"projectScope"`
	Terms           *string          `json:"terms"`
	Notes           *string          `json:"notes"`
}

func (r QuoteUpdateRequest) ToInput() usecase.QuoteUpdateInput {
	in := usecase.QuoteUpdateInput{
		ClientID:        r.ClientID,
		EstimatedAmount: r.EstimatedAmount,
		ValidUntil:      r.ValidUntil,
		ProjectScope:    r.ProjectScope,
		Terms:           r.Terms,
		Notes:           r.Notes,
	}
	if r.Status != nil {
		s := entities.QuoteStatus(*r.Status)
		in.Status = &s
	}
	return in
}

// QuoteRejectRequest carries the optional rejection reason for
// POST /v1/quotes/:id/reject.
type QuoteRejectRequest struct {
	RejectionReason string `json:"rejectionReason"`
}
