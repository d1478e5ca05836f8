package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User represents a user record in the database.
type User struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	PhoneNumber string    `gorm:"uniqueIndex;not null;size:32"`
	Names       string    `gorm:"size:255"`
	PinHash     string    `gorm:"not null"`
	Token       string    `gorm:"uniqueIndex;not null;size:64"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}

// Account represents an account record in the database.
// Rows are never deleted, so there is no soft-delete column.
type Account struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	AccountNumber string          `gorm:"type:varchar(20);uniqueIndex;not null"`
	HolderID      uuid.UUID       `gorm:"type:uuid;index;not null"`
	Currency      string          `gorm:"type:varchar(3);not null"`
	Balance       decimal.Decimal `gorm:"type:numeric(19,4);not null"`
	Version       int64           `gorm:"not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName specifies the table name for the Account model.
func (Account) TableName() string {
	return "accounts"
}
