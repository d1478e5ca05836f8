// Package user provides business logic for registering account holders and
// resolving their session tokens.
package user

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/amirasaad/onlinebank/pkg/domain"
	"github.com/amirasaad/onlinebank/pkg/domain/user"
	"github.com/amirasaad/onlinebank/pkg/repository"
	"github.com/go-playground/validator/v10"
)

const pinDigits = 4

var pinSpace = big.NewInt(10_000)

// Registration is the input of Register.
type Registration struct {
	PhoneNumber string `validate:"required,e164"`
	Names       string `validate:"required,max=255"`
}

// Service provides business logic for user operations.
type Service struct {
	uow      repository.UnitOfWork
	logger   *slog.Logger
	validate *validator.Validate
}

// New creates a new Service with a UnitOfWork and logger.
func New(
	uow repository.UnitOfWork,
	logger *slog.Logger,
) *Service {
	return &Service{
		uow:      uow,
		logger:   logger,
		validate: validator.New(),
	}
}

// Register creates a user for a phone number that has none yet. It returns the
// user and the generated pin; only the pin's hash is stored.
func (s *Service) Register(ctx context.Context, reg Registration) (u *user.User, pin string, err error) {
	logger := s.logger.With("phone", reg.PhoneNumber)
	logger.Info("Register started")

	if err = s.validate.Struct(reg); err != nil {
		err = fmt.Errorf("%w: %w", domain.ErrValidation, err)
		logger.Error("Register failed: validation error", "error", err)
		return nil, "", err
	}

	pin, err = generatePin()
	if err != nil {
		logger.Error("Register failed: pin generation", "error", err)
		return nil, "", err
	}

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo := uow.UserRepository()
		taken, err := repo.ExistsByPhoneNumber(ctx, reg.PhoneNumber)
		if err != nil {
			return err
		}
		if taken {
			return user.ErrPhoneTaken
		}
		u, err = user.NewUser(reg.PhoneNumber, reg.Names, pin)
		if err != nil {
			return err
		}
		return repo.Create(ctx, u)
	})
	if err != nil {
		logger.Error("Register failed", "error", err)
		return nil, "", err
	}
	logger.Info("Register successful", "userID", u.ID)
	return u, pin, nil
}

// FindByToken returns the user owning the session token.
func (s *Service) FindByToken(ctx context.Context, token string) (*user.User, error) {
	return s.uow.UserRepository().GetByToken(ctx, token)
}

// ExistsByPhoneNumber reports whether a user is registered under phone.
func (s *Service) ExistsByPhoneNumber(ctx context.Context, phone string) (bool, error) {
	return s.uow.UserRepository().ExistsByPhoneNumber(ctx, phone)
}

func generatePin() (string, error) {
	n, err := rand.Int(rand.Reader, pinSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", pinDigits, n), nil
}
