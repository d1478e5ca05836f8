package account

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CheckWithdrawal decides whether amount may be debited from balance.
// It rejects with ErrInsufficientFunds when balance - amount < 0.
func CheckWithdrawal(balance, amount decimal.Decimal) error {
	if balance.Sub(amount).IsNegative() {
		return fmt.Errorf("%w: balance %s, requested %s", ErrInsufficientFunds, balance.String(), amount.String())
	}
	return nil
}
