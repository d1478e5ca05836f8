package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/amirasaad/onlinebank/infra/initializer"
	"github.com/amirasaad/onlinebank/pkg/config"
	usersvc "github.com/amirasaad/onlinebank/pkg/service/user"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCLI(t *testing.T) (*cli, *bytes.Buffer) {
	t.Helper()
	color.NoColor = true
	deps, cleanup, err := initializer.InitializeDependencies(&config.App{
		Env:    "test",
		Store:  "memory",
		Log:    &config.Log{Format: "text", Level: 8},
		Ledger: &config.Ledger{MaxRetries: 3, RetryInterval: 1},
	}, io.Discard)
	require.NoError(t, err)
	t.Cleanup(cleanup)

	var out bytes.Buffer
	return newCLI(deps, &out), &out
}

func TestCLI_AccountLifecycle(t *testing.T) {
	c, out := newTestCLI(t)
	ctx := context.Background()

	u, _, err := c.users.Register(ctx, usersvc.Registration{PhoneNumber: "+79990001122", Names: "Ivan Petrov"})
	require.NoError(t, err)

	require.NoError(t, c.run(ctx, []string{"open", u.Token, "usd"}))
	accounts, err := c.accounts.FindAccountsForHolder(ctx, u.Token)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	number := accounts[0].Number()
	assert.Contains(t, out.String(), "Account opened: "+number+" (USD)")

	out.Reset()
	require.NoError(t, c.run(ctx, []string{"deposit", number, "100"}))
	assert.Contains(t, out.String(), "Deposited 100 USD. New balance: 100")

	out.Reset()
	require.NoError(t, c.run(ctx, []string{"withdraw", number, "30.5"}))
	assert.Contains(t, out.String(), "New balance: 69.5")

	out.Reset()
	require.NoError(t, c.run(ctx, []string{"balance", number}))
	assert.Equal(t, "69.50 USD\n", out.String())

	out.Reset()
	require.NoError(t, c.run(ctx, []string{"accounts", u.Token}))
	assert.Contains(t, out.String(), number)

	out.Reset()
	require.NoError(t, c.run(ctx, []string{"exists", number}))
	assert.Equal(t, "true\n", out.String())
}

func TestCLI_Register(t *testing.T) {
	c, out := newTestCLI(t)

	require.NoError(t, c.run(context.Background(), []string{"register", "+79990001122", "Ivan", "Petrov"}))
	assert.Contains(t, out.String(), "User registered: Ivan Petrov")
	assert.Contains(t, out.String(), "Token: ")
	assert.Contains(t, out.String(), "Pin: ")
}

func TestCLI_Currencies(t *testing.T) {
	c, out := newTestCLI(t)

	require.NoError(t, c.run(context.Background(), []string{"currencies"}))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 8)
	assert.Contains(t, out.String(), "RUB  810")
}

func TestCLI_Errors(t *testing.T) {
	c, out := newTestCLI(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		args  []string
		usage bool
	}{
		{"no command", nil, true},
		{"unknown command", []string{"transfer"}, true},
		{"missing amount", []string{"deposit", "40817810000000000001"}, true},
		{"bad amount", []string{"deposit", "40817810000000000001", "ten"}, false},
		{"malformed number", []string{"deposit", "4081781", "1"}, false},
		{"unknown account", []string{"withdraw", "40817810000000000001", "1"}, false},
		{"unknown token", []string{"accounts", "nope"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.run(ctx, tt.args)
			require.Error(t, err)
			assert.Equal(t, tt.usage, isUsage(err))
		})
	}

	out.Reset()
	require.NoError(t, c.run(ctx, []string{"exists", "40817810000000000001"}))
	assert.Equal(t, "false\n", out.String())
}

func isUsage(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), errUsage.Error())
}
