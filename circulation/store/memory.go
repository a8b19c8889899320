// Package store provides the in-memory circulation.Store implementation,
// used by tests and by kiosk/demo mode when no database is attached.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/thomian/circulation-engine/circulation"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	rules        map[circulation.PolicyPair]circulation.CirculationRule
	events       map[string]circulation.LibraryEvent
	patrons      map[string]circulation.Patron
	transactions []circulation.Transaction
	loans        map[string]circulation.Loan
}

func NewMemory() *Memory {
	return &Memory{
		rules:   make(map[circulation.PolicyPair]circulation.CirculationRule),
		events:  make(map[string]circulation.LibraryEvent),
		patrons: make(map[string]circulation.Patron),
		loans:   make(map[string]circulation.Loan),
	}
}

// -----------------------------------------------------------------------------
// Rules
// -----------------------------------------------------------------------------

func (m *Memory) ListRules(_ context.Context) ([]circulation.CirculationRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]circulation.CirculationRule, 0, len(m.rules))
	for _, r := range m.rules {
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].PatronGroup != result[j].PatronGroup {
			return result[i].PatronGroup < result[j].PatronGroup
		}
		return result[i].MaterialType < result[j].MaterialType
	})
	return result, nil
}

func (m *Memory) GetRule(_ context.Context, group circulation.PatronGroup, material circulation.MaterialType) (*circulation.CirculationRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.rules[circulation.PolicyPair{PatronGroup: group, MaterialType: material}]
	if !ok {
		return nil, nil
	}
	out := r
	return &out, nil
}

// SaveRule upserts by policy pair, last write wins. Invalid values are
// rejected with no write, regardless of what the caller clamped.
func (m *Memory) SaveRule(_ context.Context, rule circulation.CirculationRule) error {
	if err := circulation.ValidateRule(rule); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules[rule.Pair()] = rule
	return nil
}

func (m *Memory) DeleteRule(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for pair, r := range m.rules {
		if r.ID == id {
			delete(m.rules, pair)
			return nil
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Events
// -----------------------------------------------------------------------------

func (m *Memory) ListEvents(_ context.Context) ([]circulation.LibraryEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]circulation.LibraryEvent, 0, len(m.events))
	for _, ev := range m.events {
		result = append(result, ev)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *Memory) SaveEvent(_ context.Context, ev circulation.LibraryEvent) error {
	if _, err := circulation.ParseEventType(string(ev.Type)); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[ev.ID] = ev
	return nil
}

func (m *Memory) DeleteEvent(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.events, id)
	return nil
}

// -----------------------------------------------------------------------------
// Patrons
// -----------------------------------------------------------------------------

func (m *Memory) ListPatrons(_ context.Context) ([]circulation.Patron, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]circulation.Patron, 0, len(m.patrons))
	for _, p := range m.patrons {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) GetPatron(_ context.Context, id string) (*circulation.Patron, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.patrons[id]
	if !ok {
		return nil, nil
	}
	out := p
	return &out, nil
}

func (m *Memory) SavePatron(_ context.Context, p circulation.Patron) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patrons[p.ID] = p
	return nil
}

// -----------------------------------------------------------------------------
// Transactions (append-only)
// -----------------------------------------------------------------------------

func (m *Memory) AppendTransaction(_ context.Context, tx circulation.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions = append(m.transactions, tx)
	return nil
}

func (m *Memory) ListTransactions(_ context.Context) ([]circulation.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]circulation.Transaction, len(m.transactions))
	copy(result, m.transactions)
	return result, nil
}

func (m *Memory) TransactionsByPatron(_ context.Context, patronID string) ([]circulation.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []circulation.Transaction
	for _, tx := range m.transactions {
		if tx.PatronID == patronID {
			result = append(result, tx)
		}
	}
	return result, nil
}

// -----------------------------------------------------------------------------
// Loans
// -----------------------------------------------------------------------------

func (m *Memory) SaveLoan(_ context.Context, loan circulation.Loan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loans[loan.ID] = loan
	return nil
}

func (m *Memory) GetActiveLoanByItem(_ context.Context, itemID string) (*circulation.Loan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, l := range m.loans {
		if l.ItemID == itemID && l.Active() {
			out := l
			return &out, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListActiveLoans(_ context.Context) ([]circulation.Loan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []circulation.Loan
	for _, l := range m.loans {
		if l.Active() {
			result = append(result, l)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) CountActiveLoans(_ context.Context, patronID string, material circulation.MaterialType) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, l := range m.loans {
		if l.Active() && l.PatronID == patronID && l.MaterialType == material {
			count++
		}
	}
	return count, nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support, simulated with a
// snapshot + rollback on error.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

func (tm *TxMemory) WithTx(ctx context.Context, fn func(circulation.Store) error) error {
	snapshot := tm.snapshot()

	if err := fn(tm.Memory); err != nil {
		tm.restore(snapshot)
		return err
	}
	return nil
}

func (tm *TxMemory) snapshot() memorySnapshot {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	s := memorySnapshot{
		rules:        make(map[circulation.PolicyPair]circulation.CirculationRule, len(tm.rules)),
		events:       make(map[string]circulation.LibraryEvent, len(tm.events)),
		patrons:      make(map[string]circulation.Patron, len(tm.patrons)),
		loans:        make(map[string]circulation.Loan, len(tm.loans)),
		transactions: append([]circulation.Transaction{}, tm.transactions...),
	}
	for k, v := range tm.rules {
		s.rules[k] = v
	}
	for k, v := range tm.events {
		s.events[k] = v
	}
	for k, v := range tm.patrons {
		s.patrons[k] = v
	}
	for k, v := range tm.loans {
		s.loans[k] = v
	}
	return s
}

func (tm *TxMemory) restore(s memorySnapshot) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	tm.rules = s.rules
	tm.events = s.events
	tm.patrons = s.patrons
	tm.loans = s.loans
	tm.transactions = s.transactions
}

type memorySnapshot struct {
	rules        map[circulation.PolicyPair]circulation.CirculationRule
	events       map[string]circulation.LibraryEvent
	patrons      map[string]circulation.Patron
	loans        map[string]circulation.Loan
	transactions []circulation.Transaction
}
