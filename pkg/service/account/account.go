// Package account provides the account ledger: opening accounts, deposits,
// withdrawals and balance queries.
//
// Every balance change runs as one unit of work that locks the account row,
// applies the domain rule and writes the new balance back with a version
// check. Transient storage conflicts are retried with bounded backoff.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/amirasaad/onlinebank/pkg/accountnumber"
	"github.com/amirasaad/onlinebank/pkg/config"
	"github.com/amirasaad/onlinebank/pkg/currency"
	"github.com/amirasaad/onlinebank/pkg/domain"
	"github.com/amirasaad/onlinebank/pkg/domain/account"
	"github.com/amirasaad/onlinebank/pkg/domain/user"
	"github.com/amirasaad/onlinebank/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UserResolver resolves a session token to its user.
type UserResolver interface {
	FindByToken(ctx context.Context, token string) (*user.User, error)
}

// Service provides business logic for account operations including creation, deposits, withdrawals, and balance inquiries.
type Service struct {
	uow      repository.UnitOfWork
	numbers  accountnumber.Generator
	registry *currency.Registry
	users    UserResolver
	logger   *slog.Logger
	cfg      config.Ledger
}

// NewService creates a new Service with the provided dependencies.
func NewService(deps config.Deps, users UserResolver) *Service {
	s := &Service{
		uow:      deps.Uow,
		numbers:  deps.NumberGenerator,
		registry: deps.CurrencyRegistry,
		users:    users,
		logger:   deps.Logger,
		cfg:      config.Ledger{MaxRetries: 5, RetryInterval: defaultRetryInterval},
	}
	if s.registry == nil {
		s.registry = currency.Default()
	}
	if s.numbers == nil {
		s.numbers = accountnumber.NewRandom(s.registry)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if deps.Config != nil && deps.Config.Ledger != nil {
		s.cfg = *deps.Config.Ledger
	}
	return s
}

// CreateAccount opens a zero-balance account in the given currency for holderID.
// A generated number that is already taken is replaced by a fresh one until
// the retry bound is reached.
func (s *Service) CreateAccount(
	ctx context.Context,
	holderID uuid.UUID,
	code currency.Code,
) (acct *account.Account, err error) {
	logger := s.logger.With("holderID", holderID, "currency", code)
	logger.Info("CreateAccount started")

	if !s.registry.IsSupported(code) {
		err = currency.ErrUnsupportedCurrency
		logger.Error("CreateAccount failed: invalid currency", "error", err)
		return nil, err
	}

	err = s.retry(ctx, logger, "CreateAccount", isRetryableCreate, func() error {
		number, err := s.numbers.Generate(code)
		if err != nil {
			return err
		}
		candidate, err := account.New(holderID, number, code, s.registry)
		if err != nil {
			return err
		}
		err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
			repo := uow.AccountRepository()
			taken, err := repo.ExistsByNumber(ctx, number)
			if err != nil {
				return err
			}
			if taken {
				return domain.ErrConflict
			}
			return repo.Create(ctx, candidate)
		})
		if err != nil {
			return err
		}
		acct = candidate
		return nil
	})
	if err != nil {
		logger.Error("CreateAccount failed", "error", err)
		return nil, err
	}
	logger.Info("CreateAccount successful", "accountNumber", acct.Number())
	return acct, nil
}

// Deposit credits amount to the account and returns the new balance.
// Each call is an independent credit.
func (s *Service) Deposit(ctx context.Context, number string, amount decimal.Decimal) (decimal.Decimal, error) {
	return s.changeBalance(ctx, "Deposit", number, amount, (*account.Account).Credit)
}

// Withdraw debits amount from the account and returns the new balance. The
// balance guard sees the balance read under the same row lock that the write
// is made with.
func (s *Service) Withdraw(ctx context.Context, number string, amount decimal.Decimal) (decimal.Decimal, error) {
	return s.changeBalance(ctx, "Withdraw", number, amount, (*account.Account).Debit)
}

func (s *Service) changeBalance(
	ctx context.Context,
	op, number string,
	amount decimal.Decimal,
	apply func(*account.Account, decimal.Decimal, currency.Meta) error,
) (balance decimal.Decimal, err error) {
	logger := s.logger.With("accountNumber", number, "amount", amount.String())
	logger.Info(op + " started")

	if !amount.IsPositive() {
		logger.Error(op+" failed: invalid amount", "error", account.ErrInvalidAmount)
		return decimal.Zero, account.ErrInvalidAmount
	}

	err = s.retry(ctx, logger, op, domain.IsTransient, func() error {
		return s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
			repo := uow.AccountRepository()
			acct, err := repo.GetByNumberForUpdate(ctx, number)
			if err != nil {
				return err
			}
			meta, ok := s.registry.Get(acct.Currency())
			if !ok {
				return fmt.Errorf("%w: %q", currency.ErrUnsupportedCurrency, acct.Currency())
			}
			if err = apply(acct, amount, meta); err != nil {
				return err
			}
			if err = repo.UpdateBalance(ctx, acct); err != nil {
				return err
			}
			balance = acct.Balance()
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, account.ErrInsufficientFunds) {
			logger.Warn(op+" rejected: insufficient funds", "error", err)
		} else {
			logger.Error(op+" failed", "error", err)
		}
		return decimal.Zero, err
	}
	logger.Info(op+" successful", "balance", balance.String())
	return balance, nil
}

// GetBalance returns the current balance of the account.
func (s *Service) GetBalance(ctx context.Context, number string) (decimal.Decimal, error) {
	acct, err := s.uow.AccountRepository().GetByNumber(ctx, number)
	if err != nil {
		s.logger.Error("GetBalance failed", "accountNumber", number, "error", err)
		return decimal.Zero, err
	}
	return acct.Balance(), nil
}

// GetAccount returns the account with the given number.
func (s *Service) GetAccount(ctx context.Context, number string) (*account.Account, error) {
	return s.uow.AccountRepository().GetByNumber(ctx, number)
}

// FindAccountsForHolder returns the accounts of the user owning token, oldest first.
// A holder with no accounts gets an empty slice unless the ledger is
// configured to report account.ErrNoAccounts.
func (s *Service) FindAccountsForHolder(ctx context.Context, token string) ([]*account.Account, error) {
	s.logger.Info("FindAccountsForHolder started")
	u, err := s.users.FindByToken(ctx, token)
	if err != nil {
		s.logger.Error("FindAccountsForHolder failed: user lookup", "error", err)
		return nil, err
	}
	logger := s.logger.With("holderID", u.ID)

	accounts, err := s.uow.AccountRepository().ListByHolder(ctx, u.ID)
	if err != nil {
		logger.Error("FindAccountsForHolder failed", "error", err)
		return nil, err
	}
	if len(accounts) == 0 {
		logger.Warn("FindAccountsForHolder: holder has no accounts")
		if s.cfg.EmptyHolderAsError {
			return nil, account.ErrNoAccounts
		}
	}
	logger.Info("FindAccountsForHolder successful", "count", len(accounts))
	return accounts, nil
}

// AccountExists reports whether an account with the given number exists.
// Storage errors are logged and reported as false.
func (s *Service) AccountExists(ctx context.Context, number string) bool {
	ok, err := s.uow.AccountRepository().ExistsByNumber(ctx, number)
	if err != nil {
		s.logger.Error("AccountExists failed", "accountNumber", number, "error", err)
		return false
	}
	return ok
}

func isRetryableCreate(err error) bool {
	return errors.Is(err, domain.ErrConflict) || domain.IsTransient(err)
}
