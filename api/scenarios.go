/*
scenarios.go - Demo scenario loaders

PURPOSE:
  Pre-built datasets for demos and manual testing. Each scenario seeds
  rules, patrons, calendar events, and - where relevant - loans and
  ledger history that demonstrate a specific behavior.

AVAILABLE SCENARIOS:
  fresh-term:     Default matrix, a handful of patrons, clean ledgers
  winter-break:   Closure events stacked after the student due date, for
                  demoing the due-date walk and its extension reasons
  overdue-crunch: Patrons with overdue loans and fines in flight

NOTE:
  Scenario records use fixed IDs so rules, patrons, and events upsert
  idempotently. Ledger history is seeded through the recorder so patron
  balances and the transaction log stay consistent; load scenarios onto a
  fresh store to avoid duplicate ledger entries.
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/thomian/circulation-engine/circulation"
	"github.com/thomian/circulation-engine/factory"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "fresh-term",
		Name:        "Fresh Term",
		Description: "Default circulation matrix with a clean patron roster",
	},
	{
		ID:          "winter-break",
		Name:        "Winter Break",
		Description: "Holiday closures stacked after the student due date",
	},
	{
		ID:          "overdue-crunch",
		Name:        "Overdue Crunch",
		Description: "Patrons with overdue loans and fines in flight",
	},
}

// ListScenarios returns the available demo scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the most recently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeError(w, http.StatusNotFound, "No scenario loaded", nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeError(w, http.StatusNotFound, "No scenario loaded", nil)
}

// LoadScenario seeds the store with the requested scenario's data.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	var err error
	switch req.ScenarioID {
	case "fresh-term":
		err = h.loadFreshTerm(ctx)
	case "winter-break":
		err = h.loadWinterBreak(ctx)
	case "overdue-crunch":
		err = h.loadOverdueCrunch(ctx)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown scenario %q", req.ScenarioID), nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.currentScenario = req.ScenarioID
	writeJSON(w, http.StatusOK, map[string]string{"loaded": req.ScenarioID})
}

// =============================================================================
// LOADERS
// =============================================================================

func (h *Handler) seedMatrix(ctx context.Context) error {
	for _, rule := range factory.DefaultMatrix() {
		if err := h.Store.SaveRule(ctx, rule); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) seedRoster(ctx context.Context) error {
	patrons := []circulation.Patron{
		{ID: "ST-2026-001", FullName: "John Doe", PatronGroup: circulation.GroupStudent,
			ClassName: "Grade 10-A", Fines: circulation.ZeroMoney()},
		{ID: "ST-2026-002", FullName: "Jane Smith", PatronGroup: circulation.GroupStudent,
			ClassName: "Grade 12-B", Fines: circulation.ZeroMoney()},
		{ID: "TE-2026-001", FullName: "Sam Rivera", PatronGroup: circulation.GroupTeacher,
			Fines: circulation.ZeroMoney()},
	}
	for _, p := range patrons {
		if err := h.Store.SavePatron(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadFreshTerm(ctx context.Context) error {
	if err := h.seedMatrix(ctx); err != nil {
		return err
	}
	return h.seedRoster(ctx)
}

func (h *Handler) loadWinterBreak(ctx context.Context) error {
	if err := h.loadFreshTerm(ctx); err != nil {
		return err
	}

	// Closure block starting 14 days out so the STUDENT/REGULAR pair walks
	// through it in the simulator.
	start := circulation.Today().AddDays(14)
	events := []circulation.LibraryEvent{
		{ID: "EV-WB-1", Title: "Winter Break", Date: start, Type: circulation.EventHoliday},
		{ID: "EV-WB-2", Title: "Winter Break", Date: start.AddDays(1), Type: circulation.EventHoliday},
		{ID: "EV-WB-3", Title: "Winter Break", Date: start.AddDays(2), Type: circulation.EventHoliday},
		{ID: "EV-WB-4", Title: "Book Club", Date: start.AddDays(3), Type: circulation.EventClub,
			Description: "Informational only; never moves a due date"},
	}
	for _, ev := range events {
		if err := h.Store.SaveEvent(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadOverdueCrunch(ctx context.Context) error {
	if err := h.loadFreshTerm(ctx); err != nil {
		return err
	}

	// A loan already three weeks past due.
	issued := circulation.Today().AddDays(-35)
	due := issued.AddDays(14)
	loan := circulation.Loan{
		ID:           "LN-OC-1",
		ItemID:       "BC-1001",
		BookTitle:    "A Wrinkle in Time",
		PatronID:     "ST-2026-002",
		MaterialType: circulation.MaterialRegular,
		IssuedAt:     issued,
		RawDueDate:   due,
		DueDate:      due,
	}
	if err := h.Store.SaveLoan(ctx, loan); err != nil {
		return err
	}

	// Ledger history through the recorder so balance and log agree.
	if _, err := h.Ledger.Assess(ctx, "ST-2026-002", circulation.MustParseMoney("12.50"),
		circulation.TxFineAssessment, "LB-001", "Prior term overdue", "The Giver"); err != nil {
		return err
	}
	if _, err := h.Ledger.Pay(ctx, "ST-2026-002", circulation.MustParseMoney("2.50"), "LB-001"); err != nil {
		return err
	}
	return nil
}
