package domain_test

import (
	"errors"
	"testing"

	"github.com/quillpay/ledger/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestTransactionValidate(t *testing.T) {
	tests := []struct {
		name    string
		txn     domain.Transaction
		wantErr error
	}{
		{
			name: "valid debit",
			txn:  domain.Transaction{Type: domain.TypeDebit, FromAccountID: strPtr("a"), Amount: 100},
		},
		{
			name:    "debit with destination",
			txn:     domain.Transaction{Type: domain.TypeDebit, FromAccountID: strPtr("a"), ToAccountID: strPtr("b")},
			wantErr: domain.ErrInvalidTransaction,
		},
		{
			name: "valid credit",
			txn:  domain.Transaction{Type: domain.TypeCredit, ToAccountID: strPtr("b"), Amount: 100},
		},
		{
			name:    "credit with source",
			txn:     domain.Transaction{Type: domain.TypeCredit, FromAccountID: strPtr("a"), ToAccountID: strPtr("b")},
			wantErr: domain.ErrInvalidTransaction,
		},
		{
			name: "valid transfer",
			txn:  domain.Transaction{Type: domain.TypeTransfer, FromAccountID: strPtr("a"), ToAccountID: strPtr("b"), Amount: 100},
		},
		{
			name:    "transfer missing destination",
			txn:     domain.Transaction{Type: domain.TypeTransfer, FromAccountID: strPtr("a")},
			wantErr: domain.ErrInvalidTransaction,
		},
		{
			name:    "transfer to same account",
			txn:     domain.Transaction{Type: domain.TypeTransfer, FromAccountID: strPtr("a"), ToAccountID: strPtr("a"), Amount: 100},
			wantErr: domain.ErrSameAccount,
		},
		{
			name:    "zero amount",
			txn:     domain.Transaction{Type: domain.TypeDebit, FromAccountID: strPtr("a")},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "unknown type",
			txn:     domain.Transaction{Type: "reversal"},
			wantErr: domain.ErrInvalidTransaction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.txn.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAccountBalanceHelpers(t *testing.T) {
	account := &domain.Account{Balance: 1_000, Status: domain.AccountStatusActive}

	if !account.IsActive() {
		t.Error("expected active account")
	}

	if err := account.ValidateDebit(1_000); err != nil {
		t.Errorf("exact-balance debit should pass: %v", err)
	}

	if err := account.ValidateDebit(1_001); !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Errorf("expected ErrInsufficientBalance, got %v", err)
	}

	if got := account.ApplyDebit(400); got != 600 {
		t.Errorf("ApplyDebit = %d, want 600", got)
	}

	if got := account.ApplyCredit(400); got != 1_400 {
		t.Errorf("ApplyCredit = %d, want 1400", got)
	}

	suspended := &domain.Account{Status: domain.AccountStatusSuspended}
	if suspended.IsActive() {
		t.Error("suspended account must not be active")
	}
}
