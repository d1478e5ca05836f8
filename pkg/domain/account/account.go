package account

import (
	"errors"
	"fmt"
	"time"

	"github.com/amirasaad/onlinebank/pkg/currency"
	"github.com/amirasaad/onlinebank/pkg/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrAccountNotFound is returned when an account cannot be found.
	ErrAccountNotFound = fmt.Errorf("account %w", domain.ErrNotFound)

	// ErrInvalidAmount is returned when a deposit or withdrawal amount is not positive
	// or carries more fractional digits than the account currency allows.
	ErrInvalidAmount = fmt.Errorf("invalid amount: %w", domain.ErrValidation)

	// ErrInsufficientFunds is returned when a withdrawal would make the balance negative.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrNoAccounts is returned when a holder owns no accounts and the ledger is
	// configured to treat that as an error.
	ErrNoAccounts = errors.New("holder has no accounts")

	// ErrHolderRequired is returned when an account is constructed without a holder.
	ErrHolderRequired = errors.New("account holder is required")

	// ErrNumberRequired is returned when an account is constructed without a number.
	ErrNumberRequired = errors.New("account number is required")
)

// MaxBalance is the exclusive upper bound of a balance; it matches the
// numeric(19,4) balance column.
var MaxBalance = decimal.New(1, 15)

// Account is a holder's balance record, keyed by a unique account number.
//
// Invariants:
//   - number, currency and holder are fixed at construction.
//   - balance is never negative; it changes only through Credit and Debit.
//   - version grows by one with every persisted balance change.
type Account struct {
	id        uuid.UUID
	number    string
	holderID  uuid.UUID
	currency  currency.Code
	balance   decimal.Decimal
	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// New opens an account with a zero balance in a currency the registry supports.
func New(holderID uuid.UUID, number string, code currency.Code, registry *currency.Registry) (*Account, error) {
	if holderID == uuid.Nil {
		return nil, ErrHolderRequired
	}
	if number == "" {
		return nil, ErrNumberRequired
	}
	if registry == nil || !registry.IsSupported(code) {
		return nil, fmt.Errorf("%w: %q", currency.ErrUnsupportedCurrency, code)
	}
	now := time.Now().UTC()
	return &Account{
		id:        uuid.New(),
		number:    number,
		holderID:  holderID,
		currency:  code,
		balance:   decimal.Zero,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// NewFromData rebuilds an account from persisted state (used by stores).
func NewFromData(
	id uuid.UUID,
	number string,
	holderID uuid.UUID,
	code currency.Code,
	balance decimal.Decimal,
	version int64,
	createdAt, updatedAt time.Time,
) *Account {
	return &Account{
		id:        id,
		number:    number,
		holderID:  holderID,
		currency:  code,
		balance:   balance,
		version:   version,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (a *Account) ID() uuid.UUID { return a.id }
func (a *Account) Number() string { return a.number }
func (a *Account) HolderID() uuid.UUID { return a.holderID }
func (a *Account) Currency() currency.Code { return a.currency }
func (a *Account) Balance() decimal.Decimal { return a.balance }
func (a *Account) Version() int64 { return a.version }
func (a *Account) CreatedAt() time.Time { return a.createdAt }
func (a *Account) UpdatedAt() time.Time { return a.updatedAt }

// ValidateAmount checks that amount is positive, below MaxBalance and
// representable in the minor units described by meta.
func (a *Account) ValidateAmount(amount decimal.Decimal, meta currency.Meta) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if amount.GreaterThanOrEqual(MaxBalance) {
		return fmt.Errorf("%w: %s exceeds %s", ErrInvalidAmount, amount, MaxBalance)
	}
	if !amount.Equal(amount.Truncate(meta.Decimals)) {
		return fmt.Errorf("%w: %s allows %d decimal places", ErrInvalidAmount, a.currency, meta.Decimals)
	}
	return nil
}

// Credit increases the balance by amount. A credit that would take the
// balance to MaxBalance or beyond is rejected.
func (a *Account) Credit(amount decimal.Decimal, meta currency.Meta) error {
	if err := a.ValidateAmount(amount, meta); err != nil {
		return err
	}
	next := a.balance.Add(amount)
	if next.GreaterThanOrEqual(MaxBalance) {
		return fmt.Errorf("%w: balance would reach %s", ErrInvalidAmount, MaxBalance)
	}
	a.balance = next
	a.updatedAt = time.Now().UTC()
	return nil
}

// Debit decreases the balance by amount if the guard accepts it.
// On error the balance is left unchanged.
func (a *Account) Debit(amount decimal.Decimal, meta currency.Meta) error {
	if err := a.ValidateAmount(amount, meta); err != nil {
		return err
	}
	if err := CheckWithdrawal(a.balance, amount); err != nil {
		return err
	}
	a.balance = a.balance.Sub(amount)
	a.updatedAt = time.Now().UTC()
	return nil
}

// MarkPersisted records that the current balance was written at the next version.
func (a *Account) MarkPersisted() {
	a.version++
}
