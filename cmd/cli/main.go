package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/amirasaad/onlinebank/infra"
	"github.com/amirasaad/onlinebank/infra/initializer"
	"github.com/amirasaad/onlinebank/pkg/accountnumber"
	"github.com/amirasaad/onlinebank/pkg/config"
	"github.com/amirasaad/onlinebank/pkg/currency"
	accountsvc "github.com/amirasaad/onlinebank/pkg/service/account"
	usersvc "github.com/amirasaad/onlinebank/pkg/service/user"
	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"golang.org/x/term"
)

const usage = `Usage: cli <command> [arguments]
Commands:
  migrate
  register <phone> <names...>
  open <token> <currency>
  deposit <account_number> <amount>
  withdraw <account_number> <amount>
  balance <account_number>
  accounts <token>
  exists <account_number>
  currencies`

var (
	errUsage = errors.New("invalid usage")

	okColor   = color.New(color.FgGreen, color.Bold)
	errColor  = color.New(color.FgRed, color.Bold)
	nameColor = color.New(color.FgCyan)
)

func main() {
	color.NoColor = !term.IsTerminal(int(os.Stdout.Fd()))

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		errColor.Fprintln(os.Stderr, "Failed to load config:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if os.Args[1] == "migrate" {
		if err := migrate(cfg, os.Stdout); err != nil {
			errColor.Fprintln(os.Stderr, "Migration failed:", err)
			os.Exit(1)
		}
		return
	}

	deps, cleanup, err := initializer.InitializeDependencies(cfg, os.Stderr)
	if err != nil {
		errColor.Fprintln(os.Stderr, "Failed to initialize dependencies:", err)
		os.Exit(1)
	}
	defer cleanup()

	c := newCLI(deps, os.Stdout)
	if err := c.run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Println(err)
			cleanup()
			os.Exit(2)
		}
		errColor.Fprintln(os.Stderr, "Error:", err)
		cleanup()
		os.Exit(1)
	}
}

func migrate(cfg *config.App, out io.Writer) error {
	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer func() { _ = sqlDB.Close() }()
	}
	if err := infra.RunMigrations(db); err != nil {
		return err
	}
	version, dirty, err := infra.MigrationVersion(db)
	if err != nil {
		return err
	}
	okColor.Fprintf(out, "Database migrated to version %d (dirty=%t)\n", version, dirty)
	return nil
}

type cli struct {
	users    *usersvc.Service
	accounts *accountsvc.Service
	registry *currency.Registry
	out      io.Writer
}

func newCLI(deps *config.Deps, out io.Writer) *cli {
	users := usersvc.New(deps.Uow, deps.Logger)
	return &cli{
		users:    users,
		accounts: accountsvc.NewService(*deps, users),
		registry: deps.CurrencyRegistry,
		out:      out,
	}
}

func usageErr(line string) error {
	return fmt.Errorf("%w: %s", errUsage, line)
}

func (c *cli) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageErr(usage)
	}
	switch cmd, rest := args[0], args[1:]; cmd {
	case "register":
		if len(rest) < 2 {
			return usageErr("register <phone> <names...>")
		}
		u, pin, err := c.users.Register(ctx, usersvc.Registration{
			PhoneNumber: rest[0],
			Names:       strings.Join(rest[1:], " "),
		})
		if err != nil {
			return err
		}
		okColor.Fprintf(c.out, "User registered: %s\n", u.Names)
		fmt.Fprintf(c.out, "Token: %s\nPin: %s\n", u.Token, pin)
	case "open":
		if len(rest) != 2 {
			return usageErr("open <token> <currency>")
		}
		holder, err := c.users.FindByToken(ctx, rest[0])
		if err != nil {
			return err
		}
		code, err := c.registry.Parse(rest[1])
		if err != nil {
			return err
		}
		acct, err := c.accounts.CreateAccount(ctx, holder.ID, code)
		if err != nil {
			return err
		}
		okColor.Fprintf(c.out, "Account opened: %s (%s)\n", acct.Number(), acct.Currency())
	case "deposit", "withdraw":
		if len(rest) != 2 {
			return usageErr(cmd + " <account_number> <amount>")
		}
		code, err := accountnumber.CurrencyOf(c.registry, rest[0])
		if err != nil {
			return err
		}
		amount, err := decimal.NewFromString(rest[1])
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", rest[1], err)
		}
		op := c.accounts.Deposit
		verb := "Deposited"
		if cmd == "withdraw" {
			op = c.accounts.Withdraw
			verb = "Withdrew"
		}
		balance, err := op(ctx, rest[0], amount)
		if err != nil {
			return err
		}
		okColor.Fprintf(c.out, "%s %s %s. New balance: %s\n", verb, amount, code, balance)
	case "balance":
		if len(rest) != 1 {
			return usageErr("balance <account_number>")
		}
		acct, err := c.accounts.GetAccount(ctx, rest[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "%s %s\n", acct.Balance().StringFixed(c.scale(acct.Currency())), acct.Currency())
	case "accounts":
		if len(rest) != 1 {
			return usageErr("accounts <token>")
		}
		accounts, err := c.accounts.FindAccountsForHolder(ctx, rest[0])
		if err != nil {
			return err
		}
		if len(accounts) == 0 {
			fmt.Fprintln(c.out, "No accounts")
		}
		for _, a := range accounts {
			nameColor.Fprint(c.out, a.Number())
			fmt.Fprintf(c.out, "  %s %s\n", a.Balance().StringFixed(c.scale(a.Currency())), a.Currency())
		}
	case "exists":
		if len(rest) != 1 {
			return usageErr("exists <account_number>")
		}
		fmt.Fprintln(c.out, c.accounts.AccountExists(ctx, rest[0]))
	case "currencies":
		for _, code := range c.registry.List() {
			meta, _ := c.registry.Get(code)
			nameColor.Fprint(c.out, code)
			fmt.Fprintf(c.out, "  %s  %s\n", meta.Numeric, meta.Symbol)
		}
	default:
		return usageErr(fmt.Sprintf("unknown command %q\n%s", cmd, usage))
	}
	return nil
}

func (c *cli) scale(code currency.Code) int32 {
	if meta, ok := c.registry.Get(code); ok {
		return meta.Decimals
	}
	return 2
}
