package config

import (
	"log/slog"

	"github.com/amirasaad/onlinebank/pkg/accountnumber"
	"github.com/amirasaad/onlinebank/pkg/currency"
	"github.com/amirasaad/onlinebank/pkg/repository"
)

// Deps holds all infrastructure dependencies for building the services.
type Deps struct {
	Uow              repository.UnitOfWork
	CurrencyRegistry *currency.Registry
	NumberGenerator  accountnumber.Generator
	Logger           *slog.Logger
	Config           *App
}
