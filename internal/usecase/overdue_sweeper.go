package usecase

import (
	"context"
	"log"
	"time"

	"bizops_billing/internal/domain/entities"
	"bizops_billing/internal/usecase/interfaces"
)

// OverdueSweeper moves SENT invoices past their due date into OVERDUE.
//
// The sweep is best effort: every error is logged and swallowed so the
// recurring schedule survives transient persistence failures. It is also
// idempotent: the per-invoice write is conditioned on the row still being
// SENT, so re-runs and races with settlement are harmless.
type OverdueSweeper struct {
	invoices interfaces.IInvoiceRepository
	now      func() time.Time
}

func NewOverdueSweeper(invoices interfaces.IInvoiceRepository) *OverdueSweeper {
	return &OverdueSweeper{invoices: invoices, now: time.Now}
}

// WithClock substitutes the time source, for deterministic tests.
func (s *OverdueSweeper) WithClock(now func() time.Time) *OverdueSweeper {
	s.now = now
	return s
}

// Sweep runs one pass and returns how many invoices it transitioned.
func (s *OverdueSweeper) Sweep(ctx context.Context) int {
	now := s.now().UTC()

	overdue, err := s.invoices.ListPastDueSent(ctx, now)
	if err != nil {
		log.Printf("[sweep][usecase] listing past-due invoices failed err=%v", err)
		return 0
	}

	transitioned := 0
	for _, inv := range overdue {
		ok, err := s.invoices.TransitionStatus(ctx, inv.ID, entities.InvoiceStatusSent, entities.InvoiceStatusOverdue)
		if err != nil {
			log.Printf("[sweep][usecase] marking invoice overdue failed invoice_id=%s err=%v", inv.ID, err)
			continue
		}
		if ok {
			transitioned++
		}
	}

	log.Printf("[sweep][usecase] updated %d overdue invoices", transitioned)
	return transitioned
}
