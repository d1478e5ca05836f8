package user

import (
	"errors"
	"fmt"
	"time"

	"github.com/amirasaad/onlinebank/pkg/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrUserNotFound is returned when a user cannot be found in the
	// repository.
	ErrUserNotFound = fmt.Errorf("user %w", domain.ErrNotFound)
	// ErrPhoneTaken is returned when registering a phone number that already has a user.
	ErrPhoneTaken = fmt.Errorf("phone number %w", domain.ErrAlreadyExists)
)

// User is an account holder. Users are identified by phone number and looked
// up by their opaque session token.
type User struct {
	ID          uuid.UUID
	PhoneNumber string
	Names       string
	PinHash     string
	Token       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewUser creates a new User with a hashed pin, a fresh session token and current timestamps.
func NewUser(phone, names, pin string) (*User, error) {
	if phone == "" {
		return nil, errors.New("phone number cannot be empty")
	}
	if pin == "" {
		return nil, errors.New("pin cannot be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &User{
		ID:          uuid.New(),
		PhoneNumber: phone,
		Names:       names,
		PinHash:     string(hash),
		Token:       uuid.NewString(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ValidPin reports whether pin matches the stored hash.
func (u *User) ValidPin(pin string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PinHash), []byte(pin)) == nil
}
