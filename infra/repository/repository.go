package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirasaad/onlinebank/pkg/currency"
	"github.com/amirasaad/onlinebank/pkg/domain"
	"github.com/amirasaad/onlinebank/pkg/domain/account"
	"github.com/amirasaad/onlinebank/pkg/domain/user"
	"github.com/amirasaad/onlinebank/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository returns an AccountRepository running on db, which may be a transaction.
func NewAccountRepository(db *gorm.DB) repository.AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, a *account.Account) error {
	m := mapAccountToModel(a)
	err := WrapError(func() error {
		return r.db.WithContext(ctx).Create(&m).Error
	})
	if errors.Is(err, domain.ErrConflict) {
		return fmt.Errorf("account number %s: %w", a.Number(), err)
	}
	return err
}

func (r *accountRepository) GetByNumber(ctx context.Context, number string) (*account.Account, error) {
	return r.getByNumber(r.db.WithContext(ctx), number)
}

func (r *accountRepository) GetByNumberForUpdate(ctx context.Context, number string) (*account.Account, error) {
	return r.getByNumber(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), number)
}

func (r *accountRepository) getByNumber(db *gorm.DB, number string) (*account.Account, error) {
	var m Account
	err := WrapError(func() error {
		return db.Where("account_number = ?", number).Take(&m).Error
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, account.ErrAccountNotFound
		}
		return nil, err
	}
	return mapModelToAccount(&m), nil
}

func (r *accountRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var count int64
	err := WrapError(func() error {
		return r.db.WithContext(ctx).Model(&Account{}).Where("account_number = ?", number).Count(&count).Error
	})
	return count > 0, err
}

func (r *accountRepository) ListByHolder(ctx context.Context, holderID uuid.UUID) ([]*account.Account, error) {
	var models []Account
	err := WrapError(func() error {
		return r.db.WithContext(ctx).Where("holder_id = ?", holderID).Order("created_at").Find(&models).Error
	})
	if err != nil {
		return nil, err
	}
	result := make([]*account.Account, 0, len(models))
	for i := range models {
		result = append(result, mapModelToAccount(&models[i]))
	}
	return result, nil
}

func (r *accountRepository) UpdateBalance(ctx context.Context, a *account.Account) error {
	var rows int64
	err := WrapError(func() error {
		res := r.db.WithContext(ctx).Model(&Account{}).
			Where("id = ? AND version = ?", a.ID(), a.Version()).
			Updates(map[string]any{
				"balance":    a.Balance(),
				"version":    a.Version() + 1,
				"updated_at": a.UpdatedAt(),
			})
		rows = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("account %s at version %d: %w", a.Number(), a.Version(), domain.ErrConcurrentModification)
	}
	a.MarkPersisted()
	return nil
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a UserRepository running on db, which may be a transaction.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, u *user.User) error {
	m := User{
		ID:          u.ID,
		PhoneNumber: u.PhoneNumber,
		Names:       u.Names,
		PinHash:     u.PinHash,
		Token:       u.Token,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
	err := WrapError(func() error {
		return r.db.WithContext(ctx).Create(&m).Error
	})
	if errors.Is(err, domain.ErrConflict) {
		return user.ErrPhoneTaken
	}
	return err
}

func (r *userRepository) GetByToken(ctx context.Context, token string) (*user.User, error) {
	var m User
	err := WrapError(func() error {
		return r.db.WithContext(ctx).Where("token = ?", token).Take(&m).Error
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, user.ErrUserNotFound
		}
		return nil, err
	}
	return &user.User{
		ID:          m.ID,
		PhoneNumber: m.PhoneNumber,
		Names:       m.Names,
		PinHash:     m.PinHash,
		Token:       m.Token,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}, nil
}

func (r *userRepository) ExistsByPhoneNumber(ctx context.Context, phone string) (bool, error) {
	var count int64
	err := WrapError(func() error {
		return r.db.WithContext(ctx).Model(&User{}).Where("phone_number = ?", phone).Count(&count).Error
	})
	return count > 0, err
}

func mapAccountToModel(a *account.Account) Account {
	return Account{
		ID:            a.ID(),
		AccountNumber: a.Number(),
		HolderID:      a.HolderID(),
		Currency:      a.Currency().String(),
		Balance:       a.Balance(),
		Version:       a.Version(),
		CreatedAt:     a.CreatedAt(),
		UpdatedAt:     a.UpdatedAt(),
	}
}

func mapModelToAccount(m *Account) *account.Account {
	return account.NewFromData(
		m.ID,
		m.AccountNumber,
		m.HolderID,
		currency.Code(m.Currency),
		m.Balance,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	)
}
