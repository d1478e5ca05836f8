package memory

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amirasaad/onlinebank/pkg/currency"
	"github.com/amirasaad/onlinebank/pkg/domain"
	"github.com/amirasaad/onlinebank/pkg/domain/account"
	"github.com/amirasaad/onlinebank/pkg/domain/user"
	"github.com/amirasaad/onlinebank/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rub, _ = currency.Default().Get("RUB")

var phoneSeq atomic.Int64

func seedHolder(t *testing.T, uow *UoW) uuid.UUID {
	t.Helper()
	u, err := user.NewUser(fmt.Sprintf("+7900%07d", phoneSeq.Add(1)), "Holder", "1234")
	require.NoError(t, err)
	require.NoError(t, uow.UserRepository().Create(context.Background(), u))
	return u.ID
}

func seedAccount(t *testing.T, uow *UoW, holder uuid.UUID, number string) *account.Account {
	t.Helper()
	acc, err := account.New(holder, number, "RUB", currency.Default())
	require.NoError(t, err)
	require.NoError(t, uow.AccountRepository().Create(context.Background(), acc))
	return acc
}

func TestUoW_CommitMakesWritesVisible(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	uow := NewUoW(NewStore())
	holder := seedHolder(t, uow)

	err := uow.Do(ctx, func(tx repository.UnitOfWork) error {
		acc, err := account.New(holder, "40817810000000000001", "RUB", currency.Default())
		require.NoError(err)
		require.NoError(tx.AccountRepository().Create(ctx, acc))

		// visible inside the transaction only
		ok, err := tx.AccountRepository().ExistsByNumber(ctx, acc.Number())
		require.NoError(err)
		require.True(ok)
		ok, err = uow.AccountRepository().ExistsByNumber(ctx, acc.Number())
		require.NoError(err)
		require.False(ok)

		require.NoError(acc.Credit(decimal.NewFromInt(100), rub))
		return tx.AccountRepository().UpdateBalance(ctx, acc)
	})
	require.NoError(err)

	got, err := uow.AccountRepository().GetByNumber(ctx, "40817810000000000001")
	require.NoError(err)
	require.True(decimal.NewFromInt(100).Equal(got.Balance()))
	require.Equal(int64(1), got.Version())
}

func TestUoW_ErrorDiscardsWrites(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	uow := NewUoW(NewStore())
	acc := seedAccount(t, uow, seedHolder(t, uow), "40817810000000000002")
	boom := errors.New("boom")

	err := uow.Do(ctx, func(tx repository.UnitOfWork) error {
		locked, err := tx.AccountRepository().GetByNumberForUpdate(ctx, acc.Number())
		require.NoError(err)
		require.NoError(locked.Credit(decimal.NewFromInt(50), rub))
		require.NoError(tx.AccountRepository().UpdateBalance(ctx, locked))
		return boom
	})
	require.ErrorIs(err, boom)

	got, err := uow.AccountRepository().GetByNumber(ctx, acc.Number())
	require.NoError(err)
	require.True(got.Balance().IsZero())
	require.Equal(int64(0), got.Version())

	// the lock was released on rollback
	lockCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(uow.Do(lockCtx, func(tx repository.UnitOfWork) error {
		_, err := tx.AccountRepository().GetByNumberForUpdate(lockCtx, acc.Number())
		return err
	}))
}

func TestUoW_RowLockBlocksUntilCommit(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	uow := NewUoW(NewStore())
	acc := seedAccount(t, uow, seedHolder(t, uow), "40817810000000000003")

	locked := make(chan struct{})
	proceed := make(chan struct{})
	firstDone := make(chan error, 1)
	go func() {
		firstDone <- uow.Do(ctx, func(tx repository.UnitOfWork) error {
			a, err := tx.AccountRepository().GetByNumberForUpdate(ctx, acc.Number())
			if err != nil {
				return err
			}
			close(locked)
			<-proceed
			if err := a.Credit(decimal.NewFromInt(10), rub); err != nil {
				return err
			}
			return tx.AccountRepository().UpdateBalance(ctx, a)
		})
	}()
	<-locked

	waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	err := uow.Do(waitCtx, func(tx repository.UnitOfWork) error {
		_, err := tx.AccountRepository().GetByNumberForUpdate(waitCtx, acc.Number())
		return err
	})
	require.ErrorIs(err, context.DeadlineExceeded)

	close(proceed)
	require.NoError(<-firstDone)

	err = uow.Do(ctx, func(tx repository.UnitOfWork) error {
		a, err := tx.AccountRepository().GetByNumberForUpdate(ctx, acc.Number())
		if err != nil {
			return err
		}
		require.True(decimal.NewFromInt(10).Equal(a.Balance()))
		require.Equal(int64(1), a.Version())
		return nil
	})
	require.NoError(err)
}

func TestAccountRepository_StaleVersion(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	uow := NewUoW(NewStore())
	acc := seedAccount(t, uow, seedHolder(t, uow), "40817810000000000004")

	first, err := uow.AccountRepository().GetByNumber(ctx, acc.Number())
	require.NoError(err)
	second, err := uow.AccountRepository().GetByNumber(ctx, acc.Number())
	require.NoError(err)

	require.NoError(first.Credit(decimal.NewFromInt(1), rub))
	require.NoError(uow.AccountRepository().UpdateBalance(ctx, first))

	require.NoError(second.Credit(decimal.NewFromInt(2), rub))
	err = uow.AccountRepository().UpdateBalance(ctx, second)
	require.ErrorIs(err, domain.ErrConcurrentModification)
	require.True(domain.IsTransient(err))
}

func TestUoW_CommitRevalidatesVersion(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	uow := NewUoW(NewStore())
	acc := seedAccount(t, uow, seedHolder(t, uow), "40817810000000000005")

	err := uow.Do(ctx, func(tx repository.UnitOfWork) error {
		a, err := tx.AccountRepository().GetByNumber(ctx, acc.Number())
		require.NoError(err)
		require.NoError(a.Credit(decimal.NewFromInt(5), rub))
		require.NoError(tx.AccountRepository().UpdateBalance(ctx, a))

		// a write outside the transaction lands first
		other, err := uow.AccountRepository().GetByNumber(ctx, acc.Number())
		require.NoError(err)
		require.NoError(other.Credit(decimal.NewFromInt(7), rub))
		return uow.AccountRepository().UpdateBalance(ctx, other)
	})
	require.ErrorIs(err, domain.ErrConcurrentModification)

	got, err := uow.AccountRepository().GetByNumber(ctx, acc.Number())
	require.NoError(err)
	require.True(decimal.NewFromInt(7).Equal(got.Balance()))
}

func TestUoW_CommitRejectsDuplicateNumber(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	uow := NewUoW(NewStore())
	number := "40817810000000000006"
	holder := seedHolder(t, uow)

	err := uow.Do(ctx, func(tx repository.UnitOfWork) error {
		acc, err := account.New(holder, number, "RUB", currency.Default())
		require.NoError(err)
		require.NoError(tx.AccountRepository().Create(ctx, acc))
		seedAccount(t, uow, holder, number)
		return nil
	})
	require.ErrorIs(err, domain.ErrConflict)

	// only the account created outside the transaction survives
	accounts, err := uow.AccountRepository().ListByHolder(ctx, holder)
	require.NoError(err)
	require.Len(accounts, 1)
}

func TestAccountRepository_CreateDuplicate(t *testing.T) {
	uow := NewUoW(NewStore())
	acc := seedAccount(t, uow, seedHolder(t, uow), "40817810000000000007")

	err := uow.AccountRepository().Create(context.Background(), acc)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestAccountRepository_ListByHolder(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	uow := NewUoW(NewStore())
	holder := seedHolder(t, uow)

	seedAccount(t, uow, holder, "40817810000000000010")
	time.Sleep(time.Millisecond)
	seedAccount(t, uow, holder, "40817810000000000011")
	seedAccount(t, uow, seedHolder(t, uow), "40817810000000000012")

	accounts, err := uow.AccountRepository().ListByHolder(ctx, holder)
	require.NoError(err)
	require.Len(accounts, 2)
	require.Equal("40817810000000000010", accounts[0].Number())
	require.Equal("40817810000000000011", accounts[1].Number())

	accounts, err = uow.AccountRepository().ListByHolder(ctx, uuid.New())
	require.NoError(err)
	require.NotNil(accounts)
	require.Empty(accounts)
}

func TestAccountRepository_NotFound(t *testing.T) {
	uow := NewUoW(NewStore())

	_, err := uow.AccountRepository().GetByNumber(context.Background(), "missing")
	assert.ErrorIs(t, err, account.ErrAccountNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepository(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	uow := NewUoW(NewStore())

	u, err := user.NewUser("+79990001122", "Ivan Petrov", "1234")
	require.NoError(err)
	require.NoError(uow.UserRepository().Create(ctx, u))

	got, err := uow.UserRepository().GetByToken(ctx, u.Token)
	require.NoError(err)
	require.Equal(u.ID, got.ID)

	ok, err := uow.UserRepository().ExistsByPhoneNumber(ctx, "+79990001122")
	require.NoError(err)
	require.True(ok)

	dup, err := user.NewUser("+79990001122", "Someone Else", "9999")
	require.NoError(err)
	require.ErrorIs(uow.UserRepository().Create(ctx, dup), user.ErrPhoneTaken)

	_, err = uow.UserRepository().GetByToken(ctx, "unknown")
	require.ErrorIs(err, user.ErrUserNotFound)
}

func lockEntries(s *Store) int {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	return len(s.acctLocks)
}

func TestAccountRepository_ForUpdateUnknownLeavesNoLock(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	uow := NewUoW(store)

	for i := range 100 {
		err := uow.Do(ctx, func(tx repository.UnitOfWork) error {
			_, err := tx.AccountRepository().GetByNumberForUpdate(ctx, fmt.Sprintf("missing-%d", i))
			return err
		})
		require.ErrorIs(t, err, account.ErrAccountNotFound)
	}
	assert.Zero(t, lockEntries(store))
}

func TestStore_LockEntriesReleased(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	store := NewStore()
	uow := NewUoW(store)
	acc := seedAccount(t, uow, seedHolder(t, uow), "40817810000000000020")

	require.NoError(uow.Do(ctx, func(tx repository.UnitOfWork) error {
		_, err := tx.AccountRepository().GetByNumberForUpdate(ctx, acc.Number())
		return err
	}))
	require.Zero(lockEntries(store))

	// a waiter that gives up drops its reference too
	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- uow.Do(ctx, func(tx repository.UnitOfWork) error {
			if _, err := tx.AccountRepository().GetByNumberForUpdate(ctx, acc.Number()); err != nil {
				return err
			}
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	err := uow.Do(waitCtx, func(tx repository.UnitOfWork) error {
		_, err := tx.AccountRepository().GetByNumberForUpdate(waitCtx, acc.Number())
		return err
	})
	require.ErrorIs(err, context.DeadlineExceeded)
	require.Equal(1, lockEntries(store))

	close(release)
	require.NoError(<-done)
	require.Zero(lockEntries(store))
}

func TestAccountRepository_CreateUnknownHolder(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	uow := NewUoW(NewStore())

	acc, err := account.New(uuid.New(), "40817810000000000030", "RUB", currency.Default())
	require.NoError(err)
	err = uow.AccountRepository().Create(ctx, acc)
	require.ErrorIs(err, domain.ErrNotFound)

	ok, err := uow.AccountRepository().ExistsByNumber(ctx, acc.Number())
	require.NoError(err)
	require.False(ok)
}

func TestAccountRepository_CreateHolderStagedInSameTransaction(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	uow := NewUoW(NewStore())

	u, err := user.NewUser("+79990005566", "Staged Holder", "1234")
	require.NoError(err)
	require.NoError(uow.Do(ctx, func(tx repository.UnitOfWork) error {
		if err := tx.UserRepository().Create(ctx, u); err != nil {
			return err
		}
		acc, err := account.New(u.ID, "40817810000000000031", "RUB", currency.Default())
		if err != nil {
			return err
		}
		return tx.AccountRepository().Create(ctx, acc)
	}))

	accounts, err := uow.AccountRepository().ListByHolder(ctx, u.ID)
	require.NoError(err)
	require.Len(accounts, 1)
}
