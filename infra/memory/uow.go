package memory

import (
	"context"
	"fmt"

	"github.com/amirasaad/onlinebank/pkg/domain"
	"github.com/amirasaad/onlinebank/pkg/domain/user"
	"github.com/amirasaad/onlinebank/pkg/repository"
	"github.com/google/uuid"
)

type stagedUpdate struct {
	row  accountRow
	base int64
}

// txState holds what a single Do call has read-locked and written.
type txState struct {
	held    map[string]struct{}
	created map[string]accountRow
	updated map[string]stagedUpdate
	users   map[uuid.UUID]user.User
}

func newTxState() *txState {
	return &txState{
		held:    make(map[string]struct{}),
		created: make(map[string]accountRow),
		updated: make(map[string]stagedUpdate),
		users:   make(map[uuid.UUID]user.User),
	}
}

// UoW implements repository.UnitOfWork over a Store.
type UoW struct {
	store *Store
	tx    *txState
}

// NewUoW creates a new UoW for the given store.
func NewUoW(store *Store) *UoW {
	return &UoW{store: store}
}

// Do runs fn against a private view of the store. The staged writes are
// applied atomically when fn returns nil and discarded otherwise. Calling Do
// on a UoW that is already inside a transaction joins that transaction.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	if u.tx != nil {
		return fn(u)
	}
	tx := newTxState()
	defer u.store.release(tx)

	if err := fn(&UoW{store: u.store, tx: tx}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return u.store.commit(tx)
}

// AccountRepository returns an account repository bound to the current session.
func (u *UoW) AccountRepository() repository.AccountRepository {
	return &accountRepository{store: u.store, tx: u.tx}
}

// UserRepository returns a user repository bound to the current session.
func (u *UoW) UserRepository() repository.UserRepository {
	return &userRepository{store: u.store, tx: u.tx}
}

func (s *Store) release(tx *txState) {
	for number := range tx.held {
		s.unlockAccount(number)
	}
}

// commit re-validates every staged write against committed state and applies
// all of them, or none.
func (s *Store) commit(tx *txState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for number := range tx.created {
		if _, ok := s.accounts[number]; ok {
			return fmt.Errorf("account number %s: %w", number, domain.ErrConflict)
		}
	}
	for number, upd := range tx.updated {
		current, ok := s.accounts[number]
		if !ok || current.version != upd.base {
			return fmt.Errorf("account %s at version %d: %w", number, upd.base, domain.ErrConcurrentModification)
		}
	}
	for _, u := range tx.users {
		if _, ok := s.byPhone[u.PhoneNumber]; ok {
			return user.ErrPhoneTaken
		}
		if _, ok := s.byToken[u.Token]; ok {
			return fmt.Errorf("user token: %w", domain.ErrConflict)
		}
	}

	for number, row := range tx.created {
		s.accounts[number] = row
	}
	for number, upd := range tx.updated {
		s.accounts[number] = upd.row
	}
	for id, u := range tx.users {
		s.putUser(id, u)
	}
	return nil
}

func (s *Store) putUser(id uuid.UUID, u user.User) {
	s.users[id] = u
	s.byPhone[u.PhoneNumber] = id
	s.byToken[u.Token] = id
}
