// Package money converts client-supplied amounts into the integer storage
// unit the ledger persists. All balances and transaction amounts are stored
// as int64 USD-equivalent units with 4 decimal places of precision
// (10,000 units = 1.0000 USD), which keeps arithmetic exact. No other
// package performs currency math.
package money

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/quillpay/ledger/internal/domain"
)

// Denominator is the number of storage units per whole USD.
const Denominator = 10_000

// DefaultCurrency is used when neither the request nor the account names one.
const DefaultCurrency = "USD"

// MaxUnits bounds stored amounts well below the int64 ceiling so that a
// debit-plus-credit pair can never wrap.
const MaxUnits = int64(1) << 62

var denominator = decimal.NewFromInt(Denominator)

// Static USD rate table: how much 1 unit of each currency is worth in USD.
// Rates are a lookup table, not a live market feed.
var usdRates = map[string]decimal.Decimal{
	"USD": decimal.NewFromFloat(1.0),

	// Europe
	"EUR": decimal.NewFromFloat(1.08),
	"GBP": decimal.NewFromFloat(1.27),
	"CHF": decimal.NewFromFloat(1.12),

	// Middle East
	"AED": decimal.NewFromFloat(0.27),
	"KWD": decimal.NewFromFloat(3.25),

	// Asia
	"INR": decimal.NewFromFloat(0.012),
	"CNY": decimal.NewFromFloat(0.14),
	"KRW": decimal.NewFromFloat(0.00077),
	"JPY": decimal.NewFromFloat(0.0067),

	// Americas
	"CAD": decimal.NewFromFloat(0.74),
	"BRL": decimal.NewFromFloat(0.20),
	"ARS": decimal.NewFromFloat(0.0011),

	// Oceania
	"AUD": decimal.NewFromFloat(0.66),
}

// Rate returns the USD rate for a currency code (case-insensitive).
func Rate(currency string) (decimal.Decimal, error) {
	rate, ok := usdRates[strings.ToUpper(strings.TrimSpace(currency))]
	if !ok {
		return decimal.Decimal{}, domain.ErrUnsupportedCurrency
	}

	return rate, nil
}

// Supported reports whether the currency code is in the rate table.
func Supported(currency string) bool {
	_, ok := usdRates[strings.ToUpper(strings.TrimSpace(currency))]
	return ok
}

// Normalize converts an amount in the given currency to storage units:
// round(to_usd(amount) * 10_000), with round-half-to-even for determinism.
func Normalize(amount decimal.Decimal, currency string) (int64, error) {
	rate, err := Rate(currency)
	if err != nil {
		return 0, err
	}

	units := amount.Mul(rate).Mul(denominator).RoundBank(0)
	if !units.BigInt().IsInt64() {
		return 0, domain.ErrAmountOverflow
	}

	n := units.IntPart()
	if n > MaxUnits || n < -MaxUnits {
		return 0, domain.ErrAmountOverflow
	}

	return n, nil
}

// Denormalize converts storage units back into an amount in the target
// currency, rounded to 4 decimals (half-to-even). Conversion is symmetric
// but not exactly invertible across different target currencies.
func Denormalize(units int64, currency string) (decimal.Decimal, error) {
	rate, err := Rate(currency)
	if err != nil {
		return decimal.Decimal{}, err
	}

	usd := decimal.NewFromInt(units).Div(denominator)

	return usd.Div(rate).RoundBank(4), nil
}

// ValidateUnits checks that a normalized amount is positive and within
// bounds. Zero and negative amounts are rejected before any lock is taken.
func ValidateUnits(units int64) error {
	if units <= 0 {
		return domain.ErrInvalidAmount
	}

	if units > MaxUnits {
		return domain.ErrAmountOverflow
	}

	return nil
}
