/*
store.go - Persistence interfaces for the circulation engine

PURPOSE:
  Defines the boundary between the domain logic and storage. The engine's
  calculators are pure; everything stateful goes through a Store. Two
  implementations exist - circulation/store (in-memory, tests and demo
  mode) and store/sqlite (production) - and the core logic in ledger.go
  and desk.go must not know which is active.

APPEND-ONLY CONTRACT:
  The transaction log is append-only: AppendTransaction is the only write,
  there is no update or delete. Balance corrections get their own entries
  (MANUAL_ADJUSTMENT, WAIVE).

ATOMICITY:
  TxStore.WithTx runs a function against a transactional view of the
  store. The ledger recorder uses it so a balance update and its
  transaction append either both land or both roll back - a reader of the
  log can always reconstruct the balance.

NOT-FOUND CONVENTION:
  Single-record getters return (nil, nil) when the record is absent.
  Callers translate to the sentinel errors in errors.go where the
  distinction matters.
*/
package circulation

import "context"

// Store is the persistence surface consumed by the engine.
type Store interface {
	// Circulation rules (the policy matrix). SaveRule upserts by
	// (patron_group, material_type) pair and must reject invalid values
	// via ValidateRule - it does not trust the caller.
	ListRules(ctx context.Context) ([]CirculationRule, error)
	GetRule(ctx context.Context, group PatronGroup, material MaterialType) (*CirculationRule, error)
	SaveRule(ctx context.Context, rule CirculationRule) error
	DeleteRule(ctx context.Context, id string) error

	// Calendar events.
	ListEvents(ctx context.Context) ([]LibraryEvent, error)
	SaveEvent(ctx context.Context, ev LibraryEvent) error
	DeleteEvent(ctx context.Context, id string) error

	// Patrons.
	ListPatrons(ctx context.Context) ([]Patron, error)
	GetPatron(ctx context.Context, id string) (*Patron, error)
	SavePatron(ctx context.Context, p Patron) error

	// Financial transactions. Append-only: no update, no delete.
	// Listings are chronological (oldest first) so ReplayBalance can fold
	// them directly.
	AppendTransaction(ctx context.Context, tx Transaction) error
	ListTransactions(ctx context.Context) ([]Transaction, error)
	TransactionsByPatron(ctx context.Context, patronID string) ([]Transaction, error)

	// Loans.
	SaveLoan(ctx context.Context, loan Loan) error
	GetActiveLoanByItem(ctx context.Context, itemID string) (*Loan, error)
	ListActiveLoans(ctx context.Context) ([]Loan, error)
	CountActiveLoans(ctx context.Context, patronID string, material MaterialType) (int, error)
}

// TxStore wraps Store with transaction support. If fn returns an error the
// transaction is rolled back, otherwise committed.
type TxStore interface {
	Store
	WithTx(ctx context.Context, fn func(Store) error) error
}
