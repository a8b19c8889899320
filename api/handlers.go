/*
handlers.go - HTTP API handlers for the circulation engine

PURPOSE:
  Exposes the circulation engine via REST. Handles HTTP request/response
  and JSON serialization, and delegates to the domain logic.

ENDPOINTS:
  Rules:
    GET    /api/rules                       List the circulation matrix
    POST   /api/rules                       Create a rule (validated)
    PUT    /api/rules/{id}                  Update a rule (validated)
    GET    /api/rules/simulate              Due-date preview for a pair

  Calendar:
    GET    /api/events                      List events
    POST   /api/events                      Create event
    DELETE /api/events/{id}                 Delete event

  Patrons & ledger:
    GET    /api/patrons                     List patrons
    POST   /api/patrons                     Create patron
    GET    /api/patrons/{id}                Get patron
    GET    /api/patrons/{id}/transactions   Ledger history
    POST   /api/patrons/{id}/ledger/assess  Assess a charge
    POST   /api/patrons/{id}/ledger/pay     Collect a payment
    POST   /api/patrons/{id}/ledger/waive   Waive a balance

  Desk:
    POST   /api/circulation/checkout
    POST   /api/circulation/return
    POST   /api/circulation/renew
    GET    /api/circulation/loans

  Reports & scenarios:
    GET    /api/reports/financial-summary
    GET    /api/scenarios
    GET    /api/scenarios/current
    POST   /api/scenarios/load

ERROR HANDLING:
  Errors are returned as a JSON envelope with the appropriate status:
  400 for validation failures (invalid rules, amounts, enums, disabled
  pairs, quota), 404 for missing records, 500 otherwise.
*/
package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/thomian/circulation-engine/circulation"
	"github.com/thomian/circulation-engine/factory"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  circulation.TxStore
	Desk   *circulation.Desk
	Ledger *circulation.LedgerRecorder

	currentScenario string
}

// NewHandler creates a handler over a transactional store.
func NewHandler(store circulation.TxStore) *Handler {
	desk := circulation.NewDesk(store)
	return &Handler{
		Store:  store,
		Desk:   desk,
		Ledger: desk.Ledger(),
	}
}

// =============================================================================
// RULE HANDLERS
// =============================================================================

// ListRules returns the full circulation matrix.
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.Store.ListRules(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list rules", err)
		return
	}

	dtos := make([]RuleDTO, len(rules))
	for i, rule := range rules {
		dtos[i] = factory.FromRule(rule)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateRule adds a matrix row. The store validates independently of
// whatever the form clamped.
func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var req RuleDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" {
		req.ID = "R-" + uuid.NewString()
	}

	rule, err := req.ToRule()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid rule", err)
		return
	}
	if err := h.Store.SaveRule(r.Context(), rule); err != nil {
		writeDomainError(w, "Failed to save rule", err)
		return
	}
	writeJSON(w, http.StatusCreated, factory.FromRule(rule))
}

// UpdateRule replaces a rule in full, keyed by path id. The store upserts
// by (group, material) pair, so when the body moves the rule to a new pair
// the old pair's row must go in the same transaction or it lingers as a
// stale matrix entry.
func (h *Handler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	var req RuleDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	req.ID = chi.URLParam(r, "id")

	rule, err := req.ToRule()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid rule", err)
		return
	}

	err = h.Store.WithTx(r.Context(), func(s circulation.Store) error {
		existing, err := s.ListRules(r.Context())
		if err != nil {
			return err
		}
		for _, old := range existing {
			if old.ID == rule.ID && old.Pair() != rule.Pair() {
				if err := s.DeleteRule(r.Context(), old.ID); err != nil {
					return err
				}
			}
		}
		return s.SaveRule(r.Context(), rule)
	})
	if err != nil {
		writeDomainError(w, "Failed to save rule", err)
		return
	}
	writeJSON(w, http.StatusOK, factory.FromRule(rule))
}

// SimulateDueDate runs the calculator for ?patron_group=&material_type=
// without touching any loan - the matrix UI's live preview.
func (h *Handler) SimulateDueDate(w http.ResponseWriter, r *http.Request) {
	group, err := circulation.ParsePatronGroup(r.URL.Query().Get("patron_group"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid patron_group", err)
		return
	}
	material, err := circulation.ParseMaterialType(r.URL.Query().Get("material_type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid material_type", err)
		return
	}

	result, err := h.Desk.Simulate(r.Context(), group, material)
	if err != nil {
		writeDomainError(w, "Simulation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toSimulationDTO(result))
}

// =============================================================================
// EVENT HANDLERS
// =============================================================================

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.Store.ListEvents(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list events", err)
		return
	}

	dtos := make([]EventDTO, len(events))
	for i, ev := range events {
		dtos[i] = toEventDTO(ev)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	evType, err := circulation.ParseEventType(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid event type", err)
		return
	}
	date, err := circulation.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	ev := circulation.LibraryEvent{
		ID:          "EV-" + uuid.NewString(),
		Title:       req.Title,
		Date:        date,
		Type:        evType,
		Description: req.Description,
	}
	if err := h.Store.SaveEvent(r.Context(), ev); err != nil {
		writeDomainError(w, "Failed to save event", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEventDTO(ev))
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteEvent(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete event", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PATRON HANDLERS
// =============================================================================

func (h *Handler) ListPatrons(w http.ResponseWriter, r *http.Request) {
	patrons, err := h.Store.ListPatrons(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list patrons", err)
		return
	}

	dtos := make([]PatronDTO, len(patrons))
	for i, p := range patrons {
		dtos[i] = toPatronDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetPatron(w http.ResponseWriter, r *http.Request) {
	patron, err := h.Store.GetPatron(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get patron", err)
		return
	}
	if patron == nil {
		writeError(w, http.StatusNotFound, "Patron not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toPatronDTO(*patron))
}

func (h *Handler) CreatePatron(w http.ResponseWriter, r *http.Request) {
	var req CreatePatronRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	group, err := circulation.ParsePatronGroup(req.PatronGroup)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid patron_group", err)
		return
	}
	if req.ID == "" || req.FullName == "" {
		writeError(w, http.StatusBadRequest, "student_id and full_name are required", nil)
		return
	}

	// Creating over an existing ID would reset the stored balance while the
	// transaction history survives; reject instead.
	existing, err := h.Store.GetPatron(r.Context(), req.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check patron", err)
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "Patron already exists", nil)
		return
	}

	p := circulation.Patron{
		ID:          req.ID,
		FullName:    req.FullName,
		PatronGroup: group,
		ClassName:   req.ClassName,
		Fines:       circulation.ZeroMoney(),
		Email:       req.Email,
		Phone:       req.Phone,
	}
	if err := h.Store.SavePatron(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save patron", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPatronDTO(p))
}

func (h *Handler) GetPatronTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.Store.TransactionsByPatron(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list transactions", err)
		return
	}

	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = toTransactionDTO(tx)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// LEDGER HANDLERS
// =============================================================================

func (h *Handler) AssessCharge(w http.ResponseWriter, r *http.Request) {
	var req LedgerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	txType, err := circulation.ParseTransactionType(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid transaction type", err)
		return
	}

	tx, err := h.Ledger.Assess(r.Context(), chi.URLParam(r, "id"),
		circulation.NewMoney(req.Amount), txType, req.LibrarianID, req.Note, req.BookTitle)
	if err != nil {
		writeDomainError(w, "Assessment failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionDTO(tx))
}

func (h *Handler) CollectPayment(w http.ResponseWriter, r *http.Request) {
	var req LedgerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	tx, err := h.Ledger.Pay(r.Context(), chi.URLParam(r, "id"),
		circulation.NewMoney(req.Amount), req.LibrarianID)
	if err != nil {
		writeDomainError(w, "Payment failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionDTO(tx))
}

func (h *Handler) WaiveCharge(w http.ResponseWriter, r *http.Request) {
	var req LedgerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	tx, err := h.Ledger.Waive(r.Context(), chi.URLParam(r, "id"),
		circulation.NewMoney(req.Amount), req.LibrarianID, req.Note)
	if err != nil {
		writeDomainError(w, "Waive failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionDTO(tx))
}

// =============================================================================
// DESK HANDLERS
// =============================================================================

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	material, err := circulation.ParseMaterialType(req.MaterialType)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid material_type", err)
		return
	}

	result, err := h.Desk.Checkout(r.Context(), req.PatronID, req.ItemID, req.BookTitle, material)
	if err != nil {
		writeDomainError(w, "Checkout failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, CheckoutDTO{
		Loan:            toLoanDTO(result.Loan),
		ExtensionReason: result.ExtensionReason,
	})
}

func (h *Handler) Return(w http.ResponseWriter, r *http.Request) {
	var req ReturnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.Desk.Return(r.Context(), req.ItemID)
	if err != nil {
		writeDomainError(w, "Return failed", err)
		return
	}
	dto := CheckInDTO{
		Loan:        toLoanDTO(result.Loan),
		DaysOverdue: result.DaysOverdue,
		FineAmount:  result.FineAmount.Float64(),
	}
	if result.FineTx != nil {
		tx := toTransactionDTO(*result.FineTx)
		dto.FineTx = &tx
	}
	writeJSON(w, http.StatusOK, dto)
}

func (h *Handler) Renew(w http.ResponseWriter, r *http.Request) {
	var req RenewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	loan, err := h.Desk.Renew(r.Context(), req.ItemID)
	if err != nil {
		writeDomainError(w, "Renewal failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toLoanDTO(loan))
}

func (h *Handler) ListActiveLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.Store.ListActiveLoans(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list loans", err)
		return
	}

	dtos := make([]LoanDTO, len(loans))
	for i, l := range loans {
		dtos[i] = toLoanDTO(l)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// FinancialSummary reports flows from the transaction log plus the
// outstanding balance summed over patrons.
func (h *Handler) FinancialSummary(w http.ResponseWriter, r *http.Request) {
	txs, err := h.Store.ListTransactions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list transactions", err)
		return
	}
	patrons, err := h.Store.ListPatrons(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list patrons", err)
		return
	}

	summary := circulation.Summarize(txs)
	outstanding := circulation.ZeroMoney()
	for _, p := range patrons {
		outstanding = outstanding.Add(p.Fines)
	}

	writeJSON(w, http.StatusOK, FinancialSummaryDTO{
		TotalAssessed:  summary.TotalAssessed.Float64(),
		TotalCollected: summary.TotalCollected.Float64(),
		TotalWaived:    summary.TotalWaived.Float64(),
		Outstanding:    outstanding.Float64(),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	dto := ErrorDTO{Error: message}
	if err != nil {
		dto.Details = err.Error()
	}
	writeJSON(w, status, dto)
}

// writeDomainError maps engine errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case circulation.IsNotFound(err):
		status = http.StatusNotFound
	case circulation.IsClientError(err):
		status = http.StatusBadRequest
	}
	writeError(w, status, message, err)
}
