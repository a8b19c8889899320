/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the kiosk/admin frontends

SECURITY NOTE:
  No authentication middleware. Staff auth lives in the frontend gateway;
  deploy this behind it.
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/rules", func(r chi.Router) {
			r.Get("/", h.ListRules)
			r.Post("/", h.CreateRule)
			r.Get("/simulate", h.SimulateDueDate)
			r.Put("/{id}", h.UpdateRule)
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", h.ListEvents)
			r.Post("/", h.CreateEvent)
			r.Delete("/{id}", h.DeleteEvent)
		})

		r.Route("/patrons", func(r chi.Router) {
			r.Get("/", h.ListPatrons)
			r.Post("/", h.CreatePatron)
			r.Get("/{id}", h.GetPatron)
			r.Get("/{id}/transactions", h.GetPatronTransactions)
			r.Post("/{id}/ledger/assess", h.AssessCharge)
			r.Post("/{id}/ledger/pay", h.CollectPayment)
			r.Post("/{id}/ledger/waive", h.WaiveCharge)
		})

		r.Route("/circulation", func(r chi.Router) {
			r.Post("/checkout", h.Checkout)
			r.Post("/return", h.Return)
			r.Post("/renew", h.Renew)
			r.Get("/loans", h.ListActiveLoans)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/financial-summary", h.FinancialSummary)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}
