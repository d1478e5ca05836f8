// Package mocks provides testify mocks of the repository contracts.
package mocks

import (
	"context"

	"github.com/amirasaad/onlinebank/pkg/currency"
	"github.com/amirasaad/onlinebank/pkg/domain/account"
	"github.com/amirasaad/onlinebank/pkg/domain/user"
	"github.com/amirasaad/onlinebank/pkg/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUnitOfWork is a mock of repository.UnitOfWork. Do runs fn against the
// mock itself unless an expectation returns an error first.
type MockUnitOfWork struct {
	mock.Mock
	Accounts *MockAccountRepository
	Users    *MockUserRepository
}

// NewMockUnitOfWork creates a MockUnitOfWork wired to fresh repository mocks
// and registers expectation assertions on t.
func NewMockUnitOfWork(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockUnitOfWork {
	m := &MockUnitOfWork{
		Accounts: &MockAccountRepository{},
		Users:    &MockUserRepository{},
	}
	m.Test(t)
	m.Accounts.Test(t)
	m.Users.Test(t)
	t.Cleanup(func() {
		m.AssertExpectations(t)
		m.Accounts.AssertExpectations(t)
		m.Users.AssertExpectations(t)
	})
	return m
}

func (m *MockUnitOfWork) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	args := m.Called(ctx, fn)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(m)
}

func (m *MockUnitOfWork) AccountRepository() repository.AccountRepository {
	return m.Accounts
}

func (m *MockUnitOfWork) UserRepository() repository.UserRepository {
	return m.Users
}

// MockAccountRepository is a mock of repository.AccountRepository.
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Create(ctx context.Context, a *account.Account) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockAccountRepository) GetByNumber(ctx context.Context, number string) (*account.Account, error) {
	args := m.Called(ctx, number)
	acct, _ := args.Get(0).(*account.Account)
	return acct, args.Error(1)
}

func (m *MockAccountRepository) GetByNumberForUpdate(ctx context.Context, number string) (*account.Account, error) {
	args := m.Called(ctx, number)
	acct, _ := args.Get(0).(*account.Account)
	return acct, args.Error(1)
}

func (m *MockAccountRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	args := m.Called(ctx, number)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountRepository) ListByHolder(ctx context.Context, holderID uuid.UUID) ([]*account.Account, error) {
	args := m.Called(ctx, holderID)
	accounts, _ := args.Get(0).([]*account.Account)
	return accounts, args.Error(1)
}

func (m *MockAccountRepository) UpdateBalance(ctx context.Context, a *account.Account) error {
	return m.Called(ctx, a).Error(0)
}

// MockUserRepository is a mock of repository.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUserRepository) GetByToken(ctx context.Context, token string) (*user.User, error) {
	args := m.Called(ctx, token)
	u, _ := args.Get(0).(*user.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) ExistsByPhoneNumber(ctx context.Context, phone string) (bool, error) {
	args := m.Called(ctx, phone)
	return args.Bool(0), args.Error(1)
}

// MockNumberGenerator is a mock of accountnumber.Generator.
type MockNumberGenerator struct {
	mock.Mock
}

func (m *MockNumberGenerator) Generate(code currency.Code) (string, error) {
	args := m.Called(code)
	return args.String(0), args.Error(1)
}
