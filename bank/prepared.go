package bank

import (
	"sync"
	"time"

	"github.com/KeyurIITGN/Strife/payment"
	"github.com/shopspring/decimal"
)

// PreparedTransaction is a vote recorded between Prepare and the matching
// Commit or Abort. The table is intentionally in-memory only: losing it on
// restart is equivalent to a NO vote, which the coordinator tolerates.
type PreparedTransaction struct {
	TransactionID string
	AccountID     string
	Username      string
	Kind          payment.TransactionKind
	Amount        decimal.Decimal
	Counterparty  string
	PreparedAt    time.Time
	Ready         bool
	Message       string
}

// PreparedStore holds prepared transactions keyed by transaction id.
type PreparedStore struct {
	mu  sync.Mutex
	txs map[string]*PreparedTransaction
}

// NewPreparedStore - an empty prepared-transaction table
func NewPreparedStore() *PreparedStore {
	return &PreparedStore{
		txs: map[string]*PreparedTransaction{},
	}
}

// Put records a vote unless one exists. It returns the entry that is now
// stored and whether it was already present, which makes Prepare idempotent:
// a replay observes the original vote verbatim.
func (s *PreparedStore) Put(tx *PreparedTransaction) (*PreparedTransaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.txs[tx.TransactionID]; ok {
		return existing, true
	}
	s.txs[tx.TransactionID] = tx
	return tx, false
}

// Get returns the entry for a transaction id if present
func (s *PreparedStore) Get(transactionID string) (*PreparedTransaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.txs[transactionID]
	return tx, ok
}

// Take removes and returns the entry for a transaction id. Removal happens
// before the commit effect is applied so a concurrent replay of the same
// commit cannot apply the balance delta twice.
func (s *PreparedStore) Take(transactionID string) (*PreparedTransaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.txs[transactionID]
	if ok {
		delete(s.txs, transactionID)
	}
	return tx, ok
}

// Delete removes the entry for a transaction id, reporting whether one existed
func (s *PreparedStore) Delete(transactionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.txs[transactionID]
	delete(s.txs, transactionID)
	return ok
}

// Len returns the number of prepared entries
func (s *PreparedStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.txs)
}

// accountLocks hands out one mutex per account id so the commit transition
// is serialized per account.
type accountLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newAccountLocks() *accountLocks {
	return &accountLocks{
		locks: map[string]*sync.Mutex{},
	}
}

func (a *accountLocks) lock(accountID string) *sync.Mutex {
	a.mu.Lock()
	l, ok := a.locks[accountID]
	if !ok {
		l = &sync.Mutex{}
		a.locks[accountID] = l
	}
	a.mu.Unlock()
	l.Lock()
	return l
}
