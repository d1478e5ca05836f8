package repository

import (
	"context"

	"github.com/amirasaad/onlinebank/pkg/repository"
	"gorm.io/gorm"
)

// UoW provides transaction boundary and repository access in one abstraction.
// All repositories handed out inside Do share the same *gorm.DB transaction.
type UoW struct {
	db *gorm.DB
	tx *gorm.DB
}

// NewUoW creates a new UoW for the given *gorm.DB.
func NewUoW(db *gorm.DB) *UoW {
	return &UoW{db: db}
}

// Do runs the given function in a transaction boundary, providing a UoW with repository access.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	return MapGormErrorToDomain(u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&UoW{db: u.db, tx: tx})
	}))
}

// AccountRepository returns an account repository bound to the current session.
func (u *UoW) AccountRepository() repository.AccountRepository {
	return NewAccountRepository(u.session())
}

// UserRepository returns a user repository bound to the current session.
func (u *UoW) UserRepository() repository.UserRepository {
	return NewUserRepository(u.session())
}

func (u *UoW) session() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}
