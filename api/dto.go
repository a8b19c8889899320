/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupling the domain model from
  the external contract. Money fields travel as JSON numbers rounded to
  cents at this boundary; dates as ISO "2006-01-02" strings; enums as
  their string names.

NAMING CONVENTION:
  - *DTO:     Response types returned to clients
  - *Request: Request body types from clients
*/
package api

import (
	"github.com/thomian/circulation-engine/circulation"
	"github.com/thomian/circulation-engine/factory"
)

// =============================================================================
// RULES
// =============================================================================

// RuleDTO reuses the factory wire schema; the matrix UI round-trips it.
type RuleDTO = factory.RuleJSON

// SimulationDTO is the due-date preview for one policy pair.
type SimulationDTO struct {
	Disabled        bool   `json:"disabled"`
	RawDueDate      string `json:"raw_due_date,omitempty"`
	FinalDueDate    string `json:"final_due_date,omitempty"`
	ExtensionReason string `json:"extension_reason,omitempty"`
}

func toSimulationDTO(r circulation.DueDateResult) SimulationDTO {
	if r.Disabled {
		return SimulationDTO{Disabled: true}
	}
	return SimulationDTO{
		RawDueDate:      r.RawDueDate.String(),
		FinalDueDate:    r.FinalDueDate.String(),
		ExtensionReason: r.ExtensionReason,
	}
}

// =============================================================================
// EVENTS
// =============================================================================

type EventDTO struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

type CreateEventRequest struct {
	Title       string `json:"title"`
	Date        string `json:"date"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

func toEventDTO(ev circulation.LibraryEvent) EventDTO {
	return EventDTO{
		ID:          ev.ID,
		Title:       ev.Title,
		Date:        ev.Date.String(),
		Type:        string(ev.Type),
		Description: ev.Description,
	}
}

// =============================================================================
// PATRONS & LEDGER
// =============================================================================

type PatronDTO struct {
	ID          string  `json:"student_id"`
	FullName    string  `json:"full_name"`
	PatronGroup string  `json:"patron_group"`
	ClassName   string  `json:"class_name,omitempty"`
	IsBlocked   bool    `json:"is_blocked"`
	Fines       float64 `json:"fines"`
	Email       string  `json:"email,omitempty"`
	Phone       string  `json:"phone,omitempty"`
}

type CreatePatronRequest struct {
	ID          string `json:"student_id"`
	FullName    string `json:"full_name"`
	PatronGroup string `json:"patron_group"`
	ClassName   string `json:"class_name,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

func toPatronDTO(p circulation.Patron) PatronDTO {
	return PatronDTO{
		ID:          p.ID,
		FullName:    p.FullName,
		PatronGroup: string(p.PatronGroup),
		ClassName:   p.ClassName,
		IsBlocked:   p.IsBlocked,
		Fines:       p.Fines.Float64(),
		Email:       p.Email,
		Phone:       p.Phone,
	}
}

type TransactionDTO struct {
	ID          string  `json:"id"`
	PatronID    string  `json:"patron_id"`
	Amount      float64 `json:"amount"`
	Type        string  `json:"type"`
	Method      string  `json:"method"`
	Timestamp   string  `json:"timestamp"`
	LibrarianID string  `json:"librarian_id"`
	Note        string  `json:"note,omitempty"`
	BookTitle   string  `json:"book_title,omitempty"`
}

func toTransactionDTO(tx circulation.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:          tx.ID,
		PatronID:    tx.PatronID,
		Amount:      tx.Amount.Float64(),
		Type:        string(tx.Type),
		Method:      string(tx.Method),
		Timestamp:   tx.Timestamp,
		LibrarianID: tx.LibrarianID,
		Note:        tx.Note,
		BookTitle:   tx.BookTitle,
	}
}

// LedgerRequest covers assess, pay, and waive. Type is only read for
// assessments.
type LedgerRequest struct {
	Amount      float64 `json:"amount"`
	Type        string  `json:"type,omitempty"`
	LibrarianID string  `json:"librarian_id"`
	Note        string  `json:"note,omitempty"`
	BookTitle   string  `json:"book_title,omitempty"`
}

// =============================================================================
// CIRCULATION DESK
// =============================================================================

type CheckoutRequest struct {
	PatronID     string `json:"patron_id"`
	ItemID       string `json:"item_id"`
	BookTitle    string `json:"book_title,omitempty"`
	MaterialType string `json:"material_type"`
}

type ReturnRequest struct {
	ItemID string `json:"item_id"`
}

type RenewRequest struct {
	ItemID string `json:"item_id"`
}

type LoanDTO struct {
	ID           string `json:"id"`
	ItemID       string `json:"item_id"`
	BookTitle    string `json:"book_title,omitempty"`
	PatronID     string `json:"patron_id"`
	MaterialType string `json:"material_type"`
	IssuedAt     string `json:"issued_at"`
	RawDueDate   string `json:"raw_due_date"`
	DueDate      string `json:"due_date"`
	ReturnedAt   string `json:"returned_at,omitempty"`
	RenewalCount int    `json:"renewal_count"`
}

func toLoanDTO(l circulation.Loan) LoanDTO {
	dto := LoanDTO{
		ID:           l.ID,
		ItemID:       l.ItemID,
		BookTitle:    l.BookTitle,
		PatronID:     l.PatronID,
		MaterialType: string(l.MaterialType),
		IssuedAt:     l.IssuedAt.String(),
		RawDueDate:   l.RawDueDate.String(),
		DueDate:      l.DueDate.String(),
		RenewalCount: l.RenewalCount,
	}
	if l.ReturnedAt != nil {
		dto.ReturnedAt = l.ReturnedAt.String()
	}
	return dto
}

type CheckoutDTO struct {
	Loan            LoanDTO `json:"loan"`
	ExtensionReason string  `json:"extension_reason,omitempty"`
}

type CheckInDTO struct {
	Loan        LoanDTO         `json:"loan"`
	DaysOverdue int             `json:"days_overdue"`
	FineAmount  float64         `json:"fine_amount"`
	FineTx      *TransactionDTO `json:"fine_transaction,omitempty"`
}

// =============================================================================
// REPORTS & SCENARIOS
// =============================================================================

type FinancialSummaryDTO struct {
	TotalAssessed  float64 `json:"total_assessed"`
	TotalCollected float64 `json:"total_collected"`
	TotalWaived    float64 `json:"total_waived"`
	Outstanding    float64 `json:"outstanding"`
}

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorDTO is the uniform error envelope.
type ErrorDTO struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
