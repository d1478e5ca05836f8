package repository

import (
	"context"

	"github.com/amirasaad/onlinebank/pkg/domain/account"
	"github.com/amirasaad/onlinebank/pkg/domain/user"
	"github.com/google/uuid"
)

// AccountRepository defines the interface for account data access operations.
//
// Implementations must enforce account number uniqueness and return
// domain.ErrConflict when Create would violate it.
type AccountRepository interface {
	// Create inserts a new account.
	Create(ctx context.Context, a *account.Account) error

	// GetByNumber returns the account with the given number or account.ErrAccountNotFound.
	GetByNumber(ctx context.Context, number string) (*account.Account, error)

	// GetByNumberForUpdate is GetByNumber that also locks the account until the
	// enclosing unit of work ends. Callers locking several accounts must lock
	// them in ascending ID order.
	GetByNumberForUpdate(ctx context.Context, number string) (*account.Account, error)

	// ExistsByNumber reports whether an account with the given number exists.
	ExistsByNumber(ctx context.Context, number string) (bool, error)

	// ListByHolder returns every account owned by holderID, oldest first.
	ListByHolder(ctx context.Context, holderID uuid.UUID) ([]*account.Account, error)

	// UpdateBalance writes the account balance if the stored version still
	// equals a.Version(), then advances the version. A version mismatch
	// returns domain.ErrConcurrentModification.
	UpdateBalance(ctx context.Context, a *account.Account) error
}

// UserRepository defines the interface for user data access operations.
type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	GetByToken(ctx context.Context, token string) (*user.User, error)
	ExistsByPhoneNumber(ctx context.Context, phone string) (bool, error)
}
