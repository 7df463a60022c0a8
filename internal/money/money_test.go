package money_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/quillpay/ledger/internal/domain"
	"github.com/quillpay/ledger/internal/money"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency string
		want     int64
		wantErr  error
	}{
		{name: "one dollar", amount: "1", currency: "USD", want: 10_000},
		{name: "fractional dollar", amount: "0.5", currency: "USD", want: 5_000},
		{name: "euro uses rate", amount: "100", currency: "EUR", want: 1_080_000},
		{name: "gbp uses rate", amount: "1", currency: "GBP", want: 12_700},
		{name: "yen fraction of a unit", amount: "1", currency: "JPY", want: 67},
		{name: "lowercase currency accepted", amount: "1", currency: "usd", want: 10_000},
		{name: "currency with spaces accepted", amount: "1", currency: " USD ", want: 10_000},
		{name: "unknown currency", amount: "1", currency: "XXX", wantErr: domain.ErrUnsupportedCurrency},
		{name: "overflow", amount: "9300000000000000", currency: "USD", wantErr: domain.ErrAmountOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, err := decimal.NewFromString(tt.amount)
			if err != nil {
				t.Fatalf("bad amount literal: %v", err)
			}

			got, err := money.Normalize(amount, tt.currency)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}

				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got != tt.want {
				t.Errorf("Normalize(%s %s) = %d, want %d", tt.amount, tt.currency, got, tt.want)
			}
		})
	}
}

// Half-unit amounts round to the nearest even unit, so repeated conversions
// cannot drift in one direction.
func TestNormalizeRoundsHalfToEven(t *testing.T) {
	tests := []struct {
		amount string
		want   int64
	}{
		{"0.00005", 0},  // 0.5 units
		{"0.00015", 2},  // 1.5 units
		{"0.00025", 2},  // 2.5 units
		{"0.00035", 4},  // 3.5 units
	}

	for _, tt := range tests {
		amount := decimal.RequireFromString(tt.amount)

		got, err := money.Normalize(amount, "USD")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got != tt.want {
			t.Errorf("Normalize(%s USD) = %d, want %d", tt.amount, got, tt.want)
		}
	}
}

func TestDenormalize(t *testing.T) {
	amount, err := money.Denormalize(10_000, "USD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !amount.Equal(decimal.NewFromInt(1)) {
		t.Errorf("Denormalize(10000, USD) = %s, want 1", amount)
	}

	if _, err := money.Denormalize(10_000, "XXX"); !errors.Is(err, domain.ErrUnsupportedCurrency) {
		t.Errorf("expected ErrUnsupportedCurrency, got %v", err)
	}
}

// Whole-unit USD amounts survive a normalize/denormalize round trip exactly.
func TestRoundTripUSD(t *testing.T) {
	for _, raw := range []string{"1", "0.5", "123.4567", "99999.9999"} {
		amount := decimal.RequireFromString(raw)

		units, err := money.Normalize(amount, "USD")
		if err != nil {
			t.Fatalf("Normalize(%s): %v", raw, err)
		}

		back, err := money.Denormalize(units, "USD")
		if err != nil {
			t.Fatalf("Denormalize(%d): %v", units, err)
		}

		if !back.Equal(amount) {
			t.Errorf("round trip of %s USD = %s", raw, back)
		}
	}
}

func TestSupported(t *testing.T) {
	for _, c := range []string{"USD", "EUR", "GBP", "AED", "INR", "JPY", "aud"} {
		if !money.Supported(c) {
			t.Errorf("expected %s to be supported", c)
		}
	}

	if money.Supported("XBT") {
		t.Error("expected XBT to be unsupported")
	}
}

func TestValidateUnits(t *testing.T) {
	if err := money.ValidateUnits(1); err != nil {
		t.Errorf("unexpected error for 1 unit: %v", err)
	}

	if err := money.ValidateUnits(0); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount for zero, got %v", err)
	}

	if err := money.ValidateUnits(-5); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount for negative, got %v", err)
	}

	if err := money.ValidateUnits(money.MaxUnits + 1); !errors.Is(err, domain.ErrAmountOverflow) {
		t.Errorf("expected ErrAmountOverflow, got %v", err)
	}
}
