// Package currency defines the closed set of currency codes an account may be
// opened in, together with the metadata the ledger needs: ISO 4217 numeric code
// (encoded into account numbers), minor-unit decimals and display symbol.
package currency

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

const (
	// DefaultCurrency is the fallback currency code
	DefaultCurrency Code = "RUB"
	// Version identifies the revision of the default currency set.
	// Bump it whenever a code is added to or removed from defaultCurrencies.
	Version = 1
)

// ErrUnsupportedCurrency is returned for a code outside the registry.
var ErrUnsupportedCurrency = errors.New("unsupported currency code")

// Code is an ISO 4217 alphabetic currency code (e.g. "USD").
type Code string

// String implements fmt.Stringer.
func (c Code) String() string { return string(c) }

// Meta holds currency-specific metadata
type Meta struct {
	Numeric  string
	Decimals int32
	Symbol   string
}

var defaultCurrencies = map[Code]Meta{
	"RUB": {Numeric: "810", Decimals: 2, Symbol: "₽"},
	"USD": {Numeric: "840", Decimals: 2, Symbol: "$"},
	"EUR": {Numeric: "978", Decimals: 2, Symbol: "€"},
	"CNY": {Numeric: "156", Decimals: 2, Symbol: "¥"},
	"GBP": {Numeric: "826", Decimals: 2, Symbol: "£"},
	"JPY": {Numeric: "392", Decimals: 0, Symbol: "¥"},
	"CHF": {Numeric: "756", Decimals: 2, Symbol: "CHF"},
	"KZT": {Numeric: "398", Decimals: 2, Symbol: "₸"},
}

// Registry is the set of supported currencies. It is immutable after
// construction and safe for concurrent use.
type Registry struct {
	byCode    map[Code]Meta
	byNumeric map[string]Code
}

// NewRegistry creates a registry holding the default currency set, or only the
// given codes of it. Codes outside the default set are ignored.
func NewRegistry(codes ...Code) *Registry {
	r := &Registry{
		byCode:    make(map[Code]Meta, len(defaultCurrencies)),
		byNumeric: make(map[string]Code, len(defaultCurrencies)),
	}
	if len(codes) == 0 {
		for code := range defaultCurrencies {
			codes = append(codes, code)
		}
	}
	for _, code := range codes {
		meta, ok := defaultCurrencies[code]
		if !ok {
			continue
		}
		r.byCode[code] = meta
		r.byNumeric[meta.Numeric] = code
	}
	return r
}

// Get returns metadata for the given code.
func (r *Registry) Get(code Code) (Meta, bool) {
	meta, ok := r.byCode[code]
	return meta, ok
}

// ByNumeric resolves an ISO numeric code (e.g. "840") back to its alphabetic code.
func (r *Registry) ByNumeric(numeric string) (Code, bool) {
	code, ok := r.byNumeric[numeric]
	return code, ok
}

// IsSupported checks if a currency code is registered
func (r *Registry) IsSupported(code Code) bool {
	_, ok := r.Get(code)
	return ok
}

// List returns all supported codes in alphabetical order.
func (r *Registry) List() []Code {
	codes := make([]Code, 0, len(r.byCode))
	for code := range r.byCode {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// Parse normalises raw input and returns the matching supported code.
func (r *Registry) Parse(raw string) (Code, error) {
	code := Code(strings.ToUpper(strings.TrimSpace(raw)))
	if !r.IsSupported(code) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCurrency, raw)
	}
	return code, nil
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry { return defaultRegistry }

// IsSupported reports whether code is in the default registry.
func IsSupported(code Code) bool { return defaultRegistry.IsSupported(code) }

// Parse parses raw against the default registry.
func Parse(raw string) (Code, error) { return defaultRegistry.Parse(raw) }
