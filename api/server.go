/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the admin frontend

ROUTE GROUPS:
  /api/members/*        Member and mandate management
  /api/definitions/*    Fee plan management
  /api/contributions/*  Plan assignment
  /api/billing/*        Invoice generation
  /api/invoices/*       Invoices, payments, reminders
  /api/dunning/*        Reminder ladder
  /api/sepa/*           Direct-debit batches and pain.008 files
  /api/statistics       Revenue summary

SECURITY NOTE:
  No authentication middleware. The service is meant to run behind the
  association's reverse proxy, which terminates auth.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Member routes
		r.Route("/members", func(r chi.Router) {
			r.Get("/", h.ListMembers)
			r.Post("/", h.CreateMember)
			r.Get("/{id}", h.GetMember)
			r.Post("/{id}/mandate", h.ActivateMandate)
			r.Get("/{id}/contributions", h.ListMemberContributions)
			r.Get("/{id}/invoices", h.ListMemberInvoices)
		})

		// Fee plan routes
		r.Route("/definitions", func(r chi.Router) {
			r.Get("/", h.ListDefinitions)
			r.Post("/", h.CreateDefinition)
		})

		r.Post("/contributions", h.CreateContribution)

		// Billing routes
		r.Post("/billing/run", h.RunInvoiceSweep)

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", h.ListInvoices)
			r.Get("/{id}", h.GetInvoice)
			r.Post("/{id}/payments", h.RecordPayment)
			r.Get("/{id}/reminders", h.ListInvoiceReminders)
		})

		// Dunning routes
		r.Post("/dunning/run", h.RunDunningSweep)

		// SEPA routes
		r.Route("/sepa/batches", func(r chi.Router) {
			r.Get("/", h.ListBatches)
			r.Post("/", h.CreateSepaBatch)
			r.Get("/{id}", h.GetBatch)
			r.Get("/{id}/xml", h.GetBatchXML)
		})

		r.Get("/statistics", h.GetStatistics)
	})

	return r
}
