// Package storetest provides an in-memory Store for service tests. It
// mirrors the guarded-update semantics of the PostgreSQL implementation:
// atomic balance adjustments, PENDING-only status flips, the unique
// participation constraint and rollback of everything done inside
// ExecuteInTransaction when the closure fails.
package storetest

import (
	"sync"

	"campusledger/internal/models"
	"campusledger/internal/repositories"

	"github.com/google/uuid"
)

type pairKey struct {
	from uuid.UUID
	to   uuid.UUID
}

type state struct {
	wallets        map[uuid.UUID]*models.Wallet
	transactions   map[uuid.UUID]*models.Transaction
	rules          map[pairKey]*models.ExchangeRule
	trust          map[pairKey]*models.GroupTrustScore
	events         map[uuid.UUID]*models.Event
	participations map[uuid.UUID]*models.EventParticipation
	requests       map[uuid.UUID]*models.PaymentRequest
}

func newState() *state {
	return &state{
		wallets:        make(map[uuid.UUID]*models.Wallet),
		transactions:   make(map[uuid.UUID]*models.Transaction),
		rules:          make(map[pairKey]*models.ExchangeRule),
		trust:          make(map[pairKey]*models.GroupTrustScore),
		events:         make(map[uuid.UUID]*models.Event),
		participations: make(map[uuid.UUID]*models.EventParticipation),
		requests:       make(map[uuid.UUID]*models.PaymentRequest),
	}
}

func (s *state) snapshot() *state {
	c := newState()
	for k, v := range s.wallets {
		c.wallets[k] = cloneWallet(v)
	}
	for k, v := range s.transactions {
		c.transactions[k] = cloneTransaction(v)
	}
	for k, v := range s.rules {
		c.rules[k] = cloneRule(v)
	}
	for k, v := range s.trust {
		c.trust[k] = cloneTrust(v)
	}
	for k, v := range s.events {
		c.events[k] = cloneEvent(v)
	}
	for k, v := range s.participations {
		c.participations[k] = cloneParticipation(v)
	}
	for k, v := range s.requests {
		c.requests[k] = cloneRequest(v)
	}
	return c
}

// Store is the in-memory repositories.Store. The zero value is not usable;
// construct it with New.
type Store struct {
	mu sync.Mutex
	st *state

	// adjustFailures forces AdjustBalance on a wallet to fail with the
	// given error, to exercise settlement rollback paths.
	adjustFailures map[uuid.UUID]error
}

func New() *Store {
	return &Store{
		st:             newState(),
		adjustFailures: make(map[uuid.UUID]error),
	}
}

// FailAdjustBalance makes the next and all following AdjustBalance calls on
// the wallet fail with err. Pass nil to clear.
func (s *Store) FailAdjustBalance(walletID uuid.UUID, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.adjustFailures, walletID)
		return
	}
	s.adjustFailures[walletID] = err
}

func (s *Store) Wallets() repositories.WalletRepository {
	return walletRepo{s: s, locked: false}
}

func (s *Store) Transactions() repositories.TransactionRepository {
	return txnRepo{s: s, locked: false}
}

func (s *Store) Exchange() repositories.ExchangeRepository {
	return exchangeRepo{s: s, locked: false}
}

func (s *Store) Events() repositories.EventRepository {
	return eventRepo{s: s, locked: false}
}

func (s *Store) PaymentRequests() repositories.PaymentRequestRepository {
	return requestRepo{s: s, locked: false}
}

// ExecuteInTransaction holds the store lock for the whole closure and hands
// fn a view whose repositories reuse that lock. An error from fn restores
// the pre-transaction snapshot.
func (s *Store) ExecuteInTransaction(fn func(repositories.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runLocked(fn)
}

func (s *Store) runLocked(fn func(repositories.Store) error) error {
	snap := s.st.snapshot()
	if err := fn(txView{s: s}); err != nil {
		s.st = snap
		return err
	}
	return nil
}

// txView is the transaction-scoped Store; its repositories skip locking
// because the enclosing ExecuteInTransaction already holds the lock.
type txView struct {
	s *Store
}

func (v txView) Wallets() repositories.WalletRepository {
	return walletRepo{s: v.s, locked: true}
}

func (v txView) Transactions() repositories.TransactionRepository {
	return txnRepo{s: v.s, locked: true}
}

func (v txView) Exchange() repositories.ExchangeRepository {
	return exchangeRepo{s: v.s, locked: true}
}

func (v txView) Events() repositories.EventRepository {
	return eventRepo{s: v.s, locked: true}
}

func (v txView) PaymentRequests() repositories.PaymentRequestRepository {
	return requestRepo{s: v.s, locked: true}
}

func (v txView) ExecuteInTransaction(fn func(repositories.Store) error) error {
	return v.s.runLocked(fn)
}

// lock acquires the store lock unless the caller already runs inside a
// transaction view.
func (s *Store) lock(alreadyLocked bool) func() {
	if alreadyLocked {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}
