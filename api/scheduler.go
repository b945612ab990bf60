/*
scheduler.go - Scheduled invoice and dunning sweeps

PURPOSE:
  Runs the two recurring jobs on cron schedules:
  - invoice sweep: generate invoices for contributions that are due
  - dunning sweep: walk the reminder ladder over open invoices

DESIGN:
  Both jobs call the same Handler methods as the manual HTTP triggers
  (POST /api/billing/run, POST /api/dunning/run), so a manually fired
  run and a scheduled run are indistinguishable. Both sweeps are
  idempotent, making overlapping or repeated runs harmless: the store's
  transactional guards decide what actually gets written.

CONFIGURATION:
  Cron specs come from the config file (scheduler.invoice_spec,
  scheduler.dunning_spec). Defaults run both jobs daily at 06:00/06:30.

USAGE:
  scheduler := NewBillingScheduler(handler, "0 6 * * *", "30 6 * * *")
  scheduler.Start()
  // ... later
  scheduler.Stop()
*/
package api

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"
)

// BillingScheduler triggers the invoice and dunning sweeps on cron
// schedules.
type BillingScheduler struct {
	Handler *Handler

	invoiceSpec string
	dunningSpec string
	cron        *cron.Cron
}

// NewBillingScheduler creates a scheduler with the given cron specs.
func NewBillingScheduler(handler *Handler, invoiceSpec, dunningSpec string) *BillingScheduler {
	return &BillingScheduler{
		Handler:     handler,
		invoiceSpec: invoiceSpec,
		dunningSpec: dunningSpec,
	}
}

// Start registers the jobs and begins the scheduler.
func (s *BillingScheduler) Start() error {
	s.cron = cron.New()

	if _, err := s.cron.AddFunc(s.invoiceSpec, s.runInvoices); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.dunningSpec, s.runDunning); err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("[Scheduler] Started (invoices: %q, dunning: %q)", s.invoiceSpec, s.dunningSpec)
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *BillingScheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
		log.Println("[Scheduler] Stopped")
	}
}

// RunNow triggers both sweeps immediately (for admin/testing).
func (s *BillingScheduler) RunNow() {
	s.runInvoices()
	s.runDunning()
}

func (s *BillingScheduler) runInvoices() {
	result := s.Handler.runInvoiceSweep(context.Background(), s.Handler.today())
	log.Printf("[Scheduler] Invoice sweep: %d generated, %d errors", result.Processed, len(result.Errors))
	for _, e := range result.Errors {
		log.Printf("[Scheduler] Invoice sweep error: %s", e)
	}
}

func (s *BillingScheduler) runDunning() {
	result := s.Handler.runDunningSweep(context.Background(), s.Handler.today())
	log.Printf("[Scheduler] Dunning sweep: %d reminders, %d skipped, %d errors",
		result.Processed, result.Skipped, len(result.Errors))
	for _, e := range result.Errors {
		log.Printf("[Scheduler] Dunning sweep error: %s", e)
	}
}
