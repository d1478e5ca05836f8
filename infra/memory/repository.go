package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/amirasaad/onlinebank/pkg/domain"
	"github.com/amirasaad/onlinebank/pkg/domain/account"
	"github.com/amirasaad/onlinebank/pkg/domain/user"
	"github.com/google/uuid"
)

type accountRepository struct {
	store *Store
	tx    *txState
}

// lookup returns the row as seen by this session. Callers hold store.mu.
func (r *accountRepository) lookup(number string) (accountRow, bool) {
	if r.tx != nil {
		if row, ok := r.tx.created[number]; ok {
			return row, true
		}
		if upd, ok := r.tx.updated[number]; ok {
			return upd.row, true
		}
	}
	row, ok := r.store.accounts[number]
	return row, ok
}

func (r *accountRepository) Create(_ context.Context, a *account.Account) error {
	if r.tx == nil {
		r.store.mu.Lock()
		defer r.store.mu.Unlock()
	} else {
		r.store.mu.RLock()
		defer r.store.mu.RUnlock()
	}

	if _, ok := r.lookup(a.Number()); ok {
		return fmt.Errorf("account number %s: %w", a.Number(), domain.ErrConflict)
	}
	if !r.holderExists(a.HolderID()) {
		return fmt.Errorf("account holder %s: %w", a.HolderID(), domain.ErrNotFound)
	}
	row := rowFromAccount(a)
	if r.tx != nil {
		r.tx.created[a.Number()] = row
		return nil
	}
	r.store.accounts[a.Number()] = row
	return nil
}

func (r *accountRepository) GetByNumber(_ context.Context, number string) (*account.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	row, ok := r.lookup(number)
	if !ok {
		return nil, account.ErrAccountNotFound
	}
	return row.toAccount(), nil
}

// GetByNumberForUpdate takes the account's row lock for the rest of the
// transaction. Outside a transaction it is a plain read.
func (r *accountRepository) GetByNumberForUpdate(ctx context.Context, number string) (*account.Account, error) {
	if r.tx != nil {
		if _, held := r.tx.held[number]; !held {
			if _, err := r.GetByNumber(ctx, number); err != nil {
				return nil, err
			}
			if err := r.store.lockAccount(ctx, number); err != nil {
				return nil, err
			}
			r.tx.held[number] = struct{}{}
		}
	}
	return r.GetByNumber(ctx, number)
}

func (r *accountRepository) ExistsByNumber(_ context.Context, number string) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	_, ok := r.lookup(number)
	return ok, nil
}

func (r *accountRepository) ListByHolder(_ context.Context, holderID uuid.UUID) ([]*account.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rows := make([]accountRow, 0)
	seen := make(map[string]struct{})
	collect := func(number string) {
		if _, ok := seen[number]; ok {
			return
		}
		seen[number] = struct{}{}
		if row, ok := r.lookup(number); ok && row.holderID == holderID {
			rows = append(rows, row)
		}
	}
	for number := range r.store.accounts {
		collect(number)
	}
	if r.tx != nil {
		for number := range r.tx.created {
			collect(number)
		}
	}

	slices.SortFunc(rows, func(a, b accountRow) int {
		if c := a.createdAt.Compare(b.createdAt); c != 0 {
			return c
		}
		return cmp.Compare(a.number, b.number)
	})
	result := make([]*account.Account, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toAccount())
	}
	return result, nil
}

func (r *accountRepository) UpdateBalance(_ context.Context, a *account.Account) error {
	if r.tx == nil {
		r.store.mu.Lock()
		defer r.store.mu.Unlock()
	} else {
		r.store.mu.RLock()
		defer r.store.mu.RUnlock()
	}

	current, ok := r.lookup(a.Number())
	if !ok {
		return account.ErrAccountNotFound
	}
	if current.version != a.Version() {
		return fmt.Errorf("account %s at version %d: %w", a.Number(), a.Version(), domain.ErrConcurrentModification)
	}

	next := rowFromAccount(a)
	next.version = a.Version() + 1
	switch {
	case r.tx == nil:
		r.store.accounts[a.Number()] = next
	case isCreated(r.tx, a.Number()):
		r.tx.created[a.Number()] = next
	default:
		upd, staged := r.tx.updated[a.Number()]
		if !staged {
			upd.base = a.Version()
		}
		upd.row = next
		r.tx.updated[a.Number()] = upd
	}
	a.MarkPersisted()
	return nil
}

// holderExists reports whether the holder is committed or staged in this
// session. Callers hold store.mu.
func (r *accountRepository) holderExists(id uuid.UUID) bool {
	if _, ok := r.store.users[id]; ok {
		return true
	}
	if r.tx != nil {
		_, ok := r.tx.users[id]
		return ok
	}
	return false
}

func isCreated(tx *txState, number string) bool {
	_, ok := tx.created[number]
	return ok
}

type userRepository struct {
	store *Store
	tx    *txState
}

func (r *userRepository) Create(_ context.Context, u *user.User) error {
	if r.tx == nil {
		r.store.mu.Lock()
		defer r.store.mu.Unlock()
	} else {
		r.store.mu.RLock()
		defer r.store.mu.RUnlock()
	}

	if r.phoneTaken(u.PhoneNumber) {
		return user.ErrPhoneTaken
	}
	if r.tx != nil {
		r.tx.users[u.ID] = *u
		return nil
	}
	if _, ok := r.store.byToken[u.Token]; ok {
		return fmt.Errorf("user token: %w", domain.ErrConflict)
	}
	r.store.putUser(u.ID, *u)
	return nil
}

func (r *userRepository) GetByToken(_ context.Context, token string) (*user.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if r.tx != nil {
		for _, u := range r.tx.users {
			if u.Token == token {
				found := u
				return &found, nil
			}
		}
	}
	id, ok := r.store.byToken[token]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	found := r.store.users[id]
	return &found, nil
}

func (r *userRepository) ExistsByPhoneNumber(_ context.Context, phone string) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.phoneTaken(phone), nil
}

func (r *userRepository) phoneTaken(phone string) bool {
	if _, ok := r.store.byPhone[phone]; ok {
		return true
	}
	if r.tx != nil {
		for _, u := range r.tx.users {
			if u.PhoneNumber == phone {
				return true
			}
		}
	}
	return false
}
