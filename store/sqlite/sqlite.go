/*
Package sqlite provides the SQLite-backed circulation.Store.

PURPOSE:
  Production persistence for the circulation engine. The same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

APPEND-ONLY ENFORCEMENT:
  The transactions table has no UPDATE or DELETE path. Corrections are
  recorded as new ledger entries.

KEY TABLES:
  circulation_rules:  Policy matrix, one row per (patron_group, material_type)
  library_events:     Closure calendar + informational events
  patrons:            Borrowers with their denormalized running balance
  transactions:       Immutable financial ledger
  loans:              Checkouts with raw and adjusted due dates

WAL MODE:
  Opened with WAL so readers don't block the single writer, and with
  foreign keys on.

DATA ENCODING:
  Money travels as decimal strings (never float), dates as ISO
  "2006-01-02" strings, timestamps as RFC3339.

USAGE:
  st, err := sqlite.New("./data/library.db")   // ":memory:" for tests
  desk := circulation.NewDesk(st)
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/thomian/circulation-engine/circulation"
)

// Store implements circulation.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer; ":memory:" is also per-connection, so the
	// pool must stay at a single connection.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Policy matrix: one rule per (patron_group, material_type) pair
	CREATE TABLE IF NOT EXISTS circulation_rules (
		id TEXT PRIMARY KEY,
		patron_group TEXT NOT NULL,
		material_type TEXT NOT NULL,
		loan_days INTEGER NOT NULL,
		max_items INTEGER NOT NULL,
		fine_per_day TEXT NOT NULL,
		UNIQUE(patron_group, material_type)
	);

	CREATE TABLE IF NOT EXISTS library_events (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		event_date TEXT NOT NULL,
		event_type TEXT NOT NULL,
		description TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_events_date ON library_events(event_date);

	CREATE TABLE IF NOT EXISTS patrons (
		id TEXT PRIMARY KEY,
		full_name TEXT NOT NULL,
		patron_group TEXT NOT NULL,
		class_name TEXT,
		is_blocked INTEGER NOT NULL DEFAULT 0,
		fines TEXT NOT NULL DEFAULT '0',
		email TEXT,
		phone TEXT
	);

	-- Append-only financial ledger. No UPDATE or DELETE, ever.
	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		patron_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		tx_type TEXT NOT NULL,
		method TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		librarian_id TEXT NOT NULL,
		note TEXT,
		book_title TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_transactions_patron
		ON transactions(patron_id, timestamp);

	CREATE TABLE IF NOT EXISTS loans (
		id TEXT PRIMARY KEY,
		item_id TEXT NOT NULL,
		book_title TEXT,
		patron_id TEXT NOT NULL,
		material_type TEXT NOT NULL,
		issued_at TEXT NOT NULL,
		raw_due_date TEXT NOT NULL,
		due_date TEXT NOT NULL,
		returned_at TEXT,
		renewal_count INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_loans_item ON loans(item_id);
	CREATE INDEX IF NOT EXISTS idx_loans_patron ON loans(patron_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// dbtx abstracts *sql.DB and *sql.Tx so the transactional view shares the
// same query code as the plain store.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// RULES
// =============================================================================

const ruleColumns = "id, patron_group, material_type, loan_days, max_items, fine_per_day"

func (s *Store) ListRules(ctx context.Context) ([]circulation.CirculationRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listRules(ctx, s.db)
}

func listRules(ctx context.Context, q dbtx) ([]circulation.CirculationRule, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+ruleColumns+" FROM circulation_rules ORDER BY patron_group, material_type")
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer rows.Close()

	var rules []circulation.CirculationRule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

func (s *Store) GetRule(ctx context.Context, group circulation.PatronGroup, material circulation.MaterialType) (*circulation.CirculationRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getRule(ctx, s.db, group, material)
}

func getRule(ctx context.Context, q dbtx, group circulation.PatronGroup, material circulation.MaterialType) (*circulation.CirculationRule, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+ruleColumns+" FROM circulation_rules WHERE patron_group = ? AND material_type = ?",
		string(group), string(material))

	var (
		r          circulation.CirculationRule
		groupStr   string
		matStr     string
		finePerDay string
	)
	err := row.Scan(&r.ID, &groupStr, &matStr, &r.LoanDays, &r.MaxItems, &finePerDay)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan rule: %w", err)
	}
	r.PatronGroup = circulation.PatronGroup(groupStr)
	r.MaterialType = circulation.MaterialType(matStr)
	if r.FinePerDay, err = circulation.ParseMoney(finePerDay); err != nil {
		return nil, fmt.Errorf("rule %s: %w", r.ID, err)
	}
	return &r, nil
}

// SaveRule upserts by policy pair after independent validation - the store
// never trusts caller-side clamping.
func (s *Store) SaveRule(ctx context.Context, rule circulation.CirculationRule) error {
	if err := circulation.ValidateRule(rule); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveRule(ctx, s.db, rule)
}

func saveRule(ctx context.Context, q dbtx, rule circulation.CirculationRule) error {
	query := `
		INSERT INTO circulation_rules (id, patron_group, material_type, loan_days, max_items, fine_per_day)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(patron_group, material_type) DO UPDATE SET
			id = excluded.id,
			loan_days = excluded.loan_days,
			max_items = excluded.max_items,
			fine_per_day = excluded.fine_per_day
	`
	_, err := q.ExecContext(ctx, query,
		rule.ID, string(rule.PatronGroup), string(rule.MaterialType),
		rule.LoanDays, rule.MaxItems, rule.FinePerDay.String())
	return err
}

func (s *Store) DeleteRule(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, "DELETE FROM circulation_rules WHERE id = ?", id)
	return err
}

func scanRule(rows *sql.Rows) (circulation.CirculationRule, error) {
	var (
		r          circulation.CirculationRule
		groupStr   string
		matStr     string
		finePerDay string
	)
	if err := rows.Scan(&r.ID, &groupStr, &matStr, &r.LoanDays, &r.MaxItems, &finePerDay); err != nil {
		return r, fmt.Errorf("failed to scan rule: %w", err)
	}
	r.PatronGroup = circulation.PatronGroup(groupStr)
	r.MaterialType = circulation.MaterialType(matStr)
	var err error
	if r.FinePerDay, err = circulation.ParseMoney(finePerDay); err != nil {
		return r, fmt.Errorf("rule %s: %w", r.ID, err)
	}
	return r, nil
}

// =============================================================================
// EVENTS
// =============================================================================

func (s *Store) ListEvents(ctx context.Context) ([]circulation.LibraryEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listEvents(ctx, s.db)
}

func listEvents(ctx context.Context, q dbtx) ([]circulation.LibraryEvent, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT id, title, event_date, event_type, description FROM library_events ORDER BY event_date, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []circulation.LibraryEvent
	for rows.Next() {
		var (
			ev      circulation.LibraryEvent
			dateStr string
			typeStr string
			desc    sql.NullString
		)
		if err := rows.Scan(&ev.ID, &ev.Title, &dateStr, &typeStr, &desc); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		ev.Date, err = circulation.ParseDate(dateStr)
		if err != nil {
			return nil, err
		}
		ev.Type = circulation.EventType(typeStr)
		ev.Description = desc.String
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *Store) SaveEvent(ctx context.Context, ev circulation.LibraryEvent) error {
	if _, err := circulation.ParseEventType(string(ev.Type)); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO library_events (id, title, event_date, event_type, description)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			event_date = excluded.event_date,
			event_type = excluded.event_type,
			description = excluded.description
	`
	_, err := s.db.ExecContext(ctx, query,
		ev.ID, ev.Title, ev.Date.String(), string(ev.Type), ev.Description)
	return err
}

func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, "DELETE FROM library_events WHERE id = ?", id)
	return err
}

// =============================================================================
// PATRONS
// =============================================================================

const patronColumns = "id, full_name, patron_group, class_name, is_blocked, fines, email, phone"

func (s *Store) ListPatrons(ctx context.Context) ([]circulation.Patron, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+patronColumns+" FROM patrons ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query patrons: %w", err)
	}
	defer rows.Close()

	var patrons []circulation.Patron
	for rows.Next() {
		p, err := scanPatron(rows.Scan)
		if err != nil {
			return nil, err
		}
		patrons = append(patrons, p)
	}
	return patrons, rows.Err()
}

func (s *Store) GetPatron(ctx context.Context, id string) (*circulation.Patron, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getPatron(ctx, s.db, id)
}

func getPatron(ctx context.Context, q dbtx, id string) (*circulation.Patron, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+patronColumns+" FROM patrons WHERE id = ?", id)

	p, err := scanPatron(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanPatron(scan func(...any) error) (circulation.Patron, error) {
	var (
		p         circulation.Patron
		groupStr  string
		className sql.NullString
		blocked   int
		fines     string
		email     sql.NullString
		phone     sql.NullString
	)
	err := scan(&p.ID, &p.FullName, &groupStr, &className, &blocked, &fines, &email, &phone)
	if err != nil {
		return p, err
	}
	p.PatronGroup = circulation.PatronGroup(groupStr)
	p.ClassName = className.String
	p.IsBlocked = blocked != 0
	if p.Fines, err = circulation.ParseMoney(fines); err != nil {
		return p, fmt.Errorf("patron %s: %w", p.ID, err)
	}
	p.Email = email.String
	p.Phone = phone.String
	return p, nil
}

func (s *Store) SavePatron(ctx context.Context, p circulation.Patron) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return savePatron(ctx, s.db, p)
}

func savePatron(ctx context.Context, q dbtx, p circulation.Patron) error {
	blocked := 0
	if p.IsBlocked {
		blocked = 1
	}
	query := `
		INSERT INTO patrons (id, full_name, patron_group, class_name, is_blocked, fines, email, phone)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			full_name = excluded.full_name,
			patron_group = excluded.patron_group,
			class_name = excluded.class_name,
			is_blocked = excluded.is_blocked,
			fines = excluded.fines,
			email = excluded.email,
			phone = excluded.phone
	`
	_, err := q.ExecContext(ctx, query,
		p.ID, p.FullName, string(p.PatronGroup), p.ClassName,
		blocked, p.Fines.String(), p.Email, p.Phone)
	return err
}

// =============================================================================
// TRANSACTIONS (append-only)
// =============================================================================

const txColumns = "id, patron_id, amount, tx_type, method, timestamp, librarian_id, note, book_title"

func (s *Store) AppendTransaction(ctx context.Context, tx circulation.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendTransaction(ctx, s.db, tx)
}

func appendTransaction(ctx context.Context, q dbtx, tx circulation.Transaction) error {
	query := `
		INSERT INTO transactions (id, patron_id, amount, tx_type, method, timestamp, librarian_id, note, book_title)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.ExecContext(ctx, query,
		tx.ID, tx.PatronID, tx.Amount.String(), string(tx.Type), string(tx.Method),
		tx.Timestamp, tx.LibrarianID, tx.Note, tx.BookTitle)
	return err
}

func (s *Store) ListTransactions(ctx context.Context) ([]circulation.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryTransactions(ctx, s.db,
		"SELECT "+txColumns+" FROM transactions ORDER BY timestamp, id")
}

func (s *Store) TransactionsByPatron(ctx context.Context, patronID string) ([]circulation.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryTransactions(ctx, s.db,
		"SELECT "+txColumns+" FROM transactions WHERE patron_id = ? ORDER BY timestamp, id", patronID)
}

func queryTransactions(ctx context.Context, q dbtx, query string, args ...any) ([]circulation.Transaction, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []circulation.Transaction
	for rows.Next() {
		var (
			tx        circulation.Transaction
			amount    string
			typeStr   string
			methodStr string
			note      sql.NullString
			bookTitle sql.NullString
		)
		err := rows.Scan(&tx.ID, &tx.PatronID, &amount, &typeStr, &methodStr,
			&tx.Timestamp, &tx.LibrarianID, &note, &bookTitle)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if tx.Amount, err = circulation.ParseMoney(amount); err != nil {
			return nil, fmt.Errorf("transaction %s: %w", tx.ID, err)
		}
		tx.Type = circulation.TransactionType(typeStr)
		tx.Method = circulation.PaymentMethod(methodStr)
		tx.Note = note.String
		tx.BookTitle = bookTitle.String
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// =============================================================================
// LOANS
// =============================================================================

const loanColumns = "id, item_id, book_title, patron_id, material_type, issued_at, raw_due_date, due_date, returned_at, renewal_count"

func (s *Store) SaveLoan(ctx context.Context, loan circulation.Loan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveLoan(ctx, s.db, loan)
}

func saveLoan(ctx context.Context, q dbtx, loan circulation.Loan) error {
	var returnedAt any
	if loan.ReturnedAt != nil {
		returnedAt = loan.ReturnedAt.String()
	}
	query := `
		INSERT INTO loans (id, item_id, book_title, patron_id, material_type, issued_at, raw_due_date, due_date, returned_at, renewal_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			raw_due_date = excluded.raw_due_date,
			due_date = excluded.due_date,
			returned_at = excluded.returned_at,
			renewal_count = excluded.renewal_count
	`
	_, err := q.ExecContext(ctx, query,
		loan.ID, loan.ItemID, loan.BookTitle, loan.PatronID, string(loan.MaterialType),
		loan.IssuedAt.String(), loan.RawDueDate.String(), loan.DueDate.String(),
		returnedAt, loan.RenewalCount)
	return err
}

func (s *Store) GetActiveLoanByItem(ctx context.Context, itemID string) (*circulation.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getActiveLoanByItem(ctx, s.db, itemID)
}

func getActiveLoanByItem(ctx context.Context, q dbtx, itemID string) (*circulation.Loan, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+loanColumns+" FROM loans WHERE item_id = ? AND returned_at IS NULL", itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to query loan: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	loan, err := scanLoan(rows)
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

func (s *Store) ListActiveLoans(ctx context.Context) ([]circulation.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+loanColumns+" FROM loans WHERE returned_at IS NULL ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query loans: %w", err)
	}
	defer rows.Close()

	var loans []circulation.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}
	return loans, rows.Err()
}

func (s *Store) CountActiveLoans(ctx context.Context, patronID string, material circulation.MaterialType) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM loans WHERE patron_id = ? AND material_type = ? AND returned_at IS NULL",
		patronID, string(material)).Scan(&count)
	return count, err
}

func scanLoan(rows *sql.Rows) (circulation.Loan, error) {
	var (
		loan       circulation.Loan
		bookTitle  sql.NullString
		matStr     string
		issuedAt   string
		rawDue     string
		due        string
		returnedAt sql.NullString
	)
	err := rows.Scan(&loan.ID, &loan.ItemID, &bookTitle, &loan.PatronID, &matStr,
		&issuedAt, &rawDue, &due, &returnedAt, &loan.RenewalCount)
	if err != nil {
		return loan, fmt.Errorf("failed to scan loan: %w", err)
	}
	loan.BookTitle = bookTitle.String
	loan.MaterialType = circulation.MaterialType(matStr)
	if loan.IssuedAt, err = circulation.ParseDate(issuedAt); err != nil {
		return loan, err
	}
	if loan.RawDueDate, err = circulation.ParseDate(rawDue); err != nil {
		return loan, err
	}
	if loan.DueDate, err = circulation.ParseDate(due); err != nil {
		return loan, err
	}
	if returnedAt.Valid {
		d, err := circulation.ParseDate(returnedAt.String)
		if err != nil {
			return loan, err
		}
		loan.ReturnedAt = &d
	}
	return loan, nil
}

// =============================================================================
// TRANSACTIONAL STORE (circulation.TxStore interface)
// =============================================================================

// WithTx executes fn within a database transaction. The view routes writes
// through the transaction so a ledger balance update and its transaction
// append commit or roll back together.
func (s *Store) WithTx(ctx context.Context, fn func(circulation.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txView{tx: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// txView implements circulation.Store against an open *sql.Tx.
type txView struct {
	tx *sql.Tx
}

func (v *txView) ListRules(ctx context.Context) ([]circulation.CirculationRule, error) {
	return listRules(ctx, v.tx)
}

func (v *txView) GetRule(ctx context.Context, group circulation.PatronGroup, material circulation.MaterialType) (*circulation.CirculationRule, error) {
	return getRule(ctx, v.tx, group, material)
}

func (v *txView) SaveRule(ctx context.Context, rule circulation.CirculationRule) error {
	if err := circulation.ValidateRule(rule); err != nil {
		return err
	}
	return saveRule(ctx, v.tx, rule)
}

func (v *txView) DeleteRule(ctx context.Context, id string) error {
	_, err := v.tx.ExecContext(ctx, "DELETE FROM circulation_rules WHERE id = ?", id)
	return err
}

func (v *txView) ListEvents(ctx context.Context) ([]circulation.LibraryEvent, error) {
	return listEvents(ctx, v.tx)
}

func (v *txView) SaveEvent(ctx context.Context, ev circulation.LibraryEvent) error {
	if _, err := circulation.ParseEventType(string(ev.Type)); err != nil {
		return err
	}
	_, err := v.tx.ExecContext(ctx, `
		INSERT INTO library_events (id, title, event_date, event_type, description)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			event_date = excluded.event_date,
			event_type = excluded.event_type,
			description = excluded.description
	`, ev.ID, ev.Title, ev.Date.String(), string(ev.Type), ev.Description)
	return err
}

func (v *txView) DeleteEvent(ctx context.Context, id string) error {
	_, err := v.tx.ExecContext(ctx, "DELETE FROM library_events WHERE id = ?", id)
	return err
}

func (v *txView) ListPatrons(ctx context.Context) ([]circulation.Patron, error) {
	rows, err := v.tx.QueryContext(ctx, "SELECT "+patronColumns+" FROM patrons ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var patrons []circulation.Patron
	for rows.Next() {
		p, err := scanPatron(rows.Scan)
		if err != nil {
			return nil, err
		}
		patrons = append(patrons, p)
	}
	return patrons, rows.Err()
}

func (v *txView) GetPatron(ctx context.Context, id string) (*circulation.Patron, error) {
	return getPatron(ctx, v.tx, id)
}

func (v *txView) SavePatron(ctx context.Context, p circulation.Patron) error {
	return savePatron(ctx, v.tx, p)
}

func (v *txView) AppendTransaction(ctx context.Context, tx circulation.Transaction) error {
	return appendTransaction(ctx, v.tx, tx)
}

func (v *txView) ListTransactions(ctx context.Context) ([]circulation.Transaction, error) {
	return queryTransactions(ctx, v.tx,
		"SELECT "+txColumns+" FROM transactions ORDER BY timestamp, id")
}

func (v *txView) TransactionsByPatron(ctx context.Context, patronID string) ([]circulation.Transaction, error) {
	return queryTransactions(ctx, v.tx,
		"SELECT "+txColumns+" FROM transactions WHERE patron_id = ? ORDER BY timestamp, id", patronID)
}

func (v *txView) SaveLoan(ctx context.Context, loan circulation.Loan) error {
	return saveLoan(ctx, v.tx, loan)
}

func (v *txView) GetActiveLoanByItem(ctx context.Context, itemID string) (*circulation.Loan, error) {
	return getActiveLoanByItem(ctx, v.tx, itemID)
}

func (v *txView) ListActiveLoans(ctx context.Context) ([]circulation.Loan, error) {
	rows, err := v.tx.QueryContext(ctx,
		"SELECT "+loanColumns+" FROM loans WHERE returned_at IS NULL ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var loans []circulation.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}
	return loans, rows.Err()
}

func (v *txView) CountActiveLoans(ctx context.Context, patronID string, material circulation.MaterialType) (int, error) {
	var count int
	err := v.tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM loans WHERE patron_id = ? AND material_type = ? AND returned_at IS NULL",
		patronID, string(material)).Scan(&count)
	return count, err
}
