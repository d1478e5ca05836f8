package user_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/amirasaad/onlinebank/infra/memory"
	"github.com/amirasaad/onlinebank/internal/fixtures/mocks"
	"github.com/amirasaad/onlinebank/pkg/domain"
	"github.com/amirasaad/onlinebank/pkg/domain/user"
	usersvc "github.com/amirasaad/onlinebank/pkg/service/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newService() *usersvc.Service {
	return usersvc.New(memory.NewUoW(memory.NewStore()), slog.Default())
}

func TestRegister_Success(t *testing.T) {
	t.Parallel()
	svc := newService()
	ctx := context.Background()

	u, pin, err := svc.Register(ctx, usersvc.Registration{PhoneNumber: "+79990001122", Names: "Ivan Petrov"})
	require.NoError(t, err)
	assert.Len(t, pin, 4)
	assert.Regexp(t, `^\d{4}$`, pin)
	assert.NotEqual(t, pin, u.PinHash)
	assert.True(t, u.ValidPin(pin))
	assert.NotEmpty(t, u.Token)

	found, err := svc.FindByToken(ctx, u.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	ok, err := svc.ExistsByPhoneNumber(ctx, "+79990001122")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRegister_DuplicatePhone(t *testing.T) {
	t.Parallel()
	svc := newService()
	reg := usersvc.Registration{PhoneNumber: "+79990001122", Names: "Ivan Petrov"}

	_, _, err := svc.Register(context.Background(), reg)
	require.NoError(t, err)

	u, pin, err := svc.Register(context.Background(), reg)
	require.ErrorIs(t, err, domain.ErrAlreadyExists)
	assert.Nil(t, u)
	assert.Empty(t, pin)
}

func TestRegister_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		reg  usersvc.Registration
	}{
		{name: "missing phone", reg: usersvc.Registration{Names: "Ivan"}},
		{name: "malformed phone", reg: usersvc.Registration{PhoneNumber: "8-999-000", Names: "Ivan"}},
		{name: "missing names", reg: usersvc.Registration{PhoneNumber: "+79990001122"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := newService().Register(context.Background(), tt.reg)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestRegister_RepoError(t *testing.T) {
	t.Parallel()
	uow := mocks.NewMockUnitOfWork(t)
	uow.On("Do", mock.Anything, mock.Anything).Return(nil)
	uow.Users.On("ExistsByPhoneNumber", mock.Anything, "+79990001122").Return(false, nil)
	uow.Users.On("Create", mock.Anything, mock.AnythingOfType("*user.User")).Return(errors.New("db error"))

	svc := usersvc.New(uow, slog.Default())
	u, _, err := svc.Register(context.Background(), usersvc.Registration{PhoneNumber: "+79990001122", Names: "Ivan"})
	require.EqualError(t, err, "db error")
	assert.Nil(t, u)
}

func TestFindByToken_Unknown(t *testing.T) {
	t.Parallel()
	_, err := newService().FindByToken(context.Background(), "nope")
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}
