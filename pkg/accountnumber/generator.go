// Package accountnumber produces account numbers that encode the account
// currency. Numbers follow the 20-digit layout
//
//	PPPPP CCC RRRRRRRRRRRR
//
// where P is the balance-account prefix, C the ISO 4217 numeric currency code
// and R a random component. Collisions are improbable but possible; the store's
// unique constraint is the actual guarantee.
package accountnumber

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/amirasaad/onlinebank/pkg/currency"
)

const (
	// PersonalPrefix is the balance-account prefix for individuals' current accounts.
	PersonalPrefix = "40817"
	// Length is the number of digits in an account number.
	Length = 20

	randomDigits = 12
)

// ErrMalformed is returned when a string is not a well-formed account number.
var ErrMalformed = errors.New("malformed account number")

var randomSpace = new(big.Int).Exp(big.NewInt(10), big.NewInt(randomDigits), nil)

// Generator produces candidate account numbers for a currency.
type Generator interface {
	Generate(code currency.Code) (string, error)
}

// Random draws the disambiguating component from a cryptographic source.
type Random struct {
	registry *currency.Registry
	source   io.Reader
}

// NewRandom returns a generator backed by crypto/rand.
func NewRandom(registry *currency.Registry) *Random {
	return &Random{registry: registry, source: rand.Reader}
}

// Generate returns a fresh account number for code.
func (g *Random) Generate(code currency.Code) (string, error) {
	meta, ok := g.registry.Get(code)
	if !ok {
		return "", fmt.Errorf("%w: %q", currency.ErrUnsupportedCurrency, code)
	}
	n, err := rand.Int(g.source, randomSpace)
	if err != nil {
		return "", fmt.Errorf("read random source: %w", err)
	}
	return fmt.Sprintf("%s%s%0*d", PersonalPrefix, meta.Numeric, randomDigits, n), nil
}

// CurrencyOf decodes the currency encoded in number.
func CurrencyOf(registry *currency.Registry, number string) (currency.Code, error) {
	if !Valid(number) {
		return "", ErrMalformed
	}
	numeric := number[len(PersonalPrefix) : len(PersonalPrefix)+3]
	code, ok := registry.ByNumeric(numeric)
	if !ok {
		return "", fmt.Errorf("%w: numeric code %s", currency.ErrUnsupportedCurrency, numeric)
	}
	return code, nil
}

// Valid reports whether number has the expected length and is all digits.
func Valid(number string) bool {
	if len(number) != Length {
		return false
	}
	for _, ch := range number {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}
