// Package memory is an in-process store with the same transactional contract as
// the Postgres store: writes staged inside UnitOfWork.Do become visible together
// at commit, and per-account locks taken through GetByNumberForUpdate are held
// until the transaction ends.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/amirasaad/onlinebank/pkg/currency"
	"github.com/amirasaad/onlinebank/pkg/domain/account"
	"github.com/amirasaad/onlinebank/pkg/domain/user"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type accountRow struct {
	id        uuid.UUID
	number    string
	holderID  uuid.UUID
	currency  currency.Code
	balance   decimal.Decimal
	version   int64
	createdAt time.Time
	updatedAt time.Time
}

func rowFromAccount(a *account.Account) accountRow {
	return accountRow{
		id:        a.ID(),
		number:    a.Number(),
		holderID:  a.HolderID(),
		currency:  a.Currency(),
		balance:   a.Balance(),
		version:   a.Version(),
		createdAt: a.CreatedAt(),
		updatedAt: a.UpdatedAt(),
	}
}

func (r accountRow) toAccount() *account.Account {
	return account.NewFromData(r.id, r.number, r.holderID, r.currency, r.balance, r.version, r.createdAt, r.updatedAt)
}

// Store provides in-memory persistence for accounts and users.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]accountRow
	users    map[uuid.UUID]user.User
	byToken  map[string]uuid.UUID
	byPhone  map[string]uuid.UUID

	locksMu   sync.Mutex
	acctLocks map[string]*rowLock
}

// rowLock is a per-account lock. refs counts the holder and every waiter;
// the entry is dropped from Store.acctLocks when it reaches zero.
type rowLock struct {
	ch   chan struct{}
	refs int
}

// NewStore creates a new in-memory data store.
func NewStore() *Store {
	return &Store{
		accounts:  make(map[string]accountRow),
		users:     make(map[uuid.UUID]user.User),
		byToken:   make(map[string]uuid.UUID),
		byPhone:   make(map[string]uuid.UUID),
		acctLocks: make(map[string]*rowLock),
	}
}

func (s *Store) acquireLockRef(number string) *rowLock {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.acctLocks[number]
	if !ok {
		l = &rowLock{ch: make(chan struct{}, 1)}
		s.acctLocks[number] = l
	}
	l.refs++
	return l
}

func (s *Store) releaseLockRef(number string, l *rowLock) {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(s.acctLocks, number)
	}
}

// lockAccount blocks until the row lock for number is free or ctx is done.
func (s *Store) lockAccount(ctx context.Context, number string) error {
	l := s.acquireLockRef(number)
	select {
	case l.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		s.releaseLockRef(number, l)
		return ctx.Err()
	}
}

func (s *Store) unlockAccount(number string) {
	s.locksMu.Lock()
	l := s.acctLocks[number]
	s.locksMu.Unlock()
	<-l.ch
	s.releaseLockRef(number, l)
}
