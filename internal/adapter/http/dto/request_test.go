package dto

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/quillpay/ledger/internal/domain"
	"github.com/quillpay/ledger/internal/usecase"
)

func TestCreateTransferRequest_ToUseCaseInput(t *testing.T) {
	req := &CreateTransferRequest{
		Type:           "transfer",
		FromAccount:    "acc-1",
		ToAccount:      "acc-2",
		Amount:         decimal.RequireFromString("12.34"),
		Currency:       "EUR",
		Description:    "invoice 42",
		IdempotencyKey: "order-42",
	}

	got := req.ToUseCaseInput()

	require.Equal(t, domain.TypeTransfer, got.Type)
	require.Equal(t, "acc-1", got.FromAccountID)
	require.Equal(t, "acc-2", got.ToAccountID)
	require.True(t, got.Amount.Equal(decimal.RequireFromString("12.34")))
	require.Equal(t, "EUR", got.Currency)
	require.Equal(t, "invoice 42", got.Description)
	require.Equal(t, "order-42", got.IdempotencyKey)
}

func TestCreateTransferRequest_DecodesStringAndNumberAmounts(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "quoted amount", body: `{"type":"debit","amount":"10.5"}`, want: "10.5"},
		{name: "bare amount", body: `{"type":"debit","amount":10.5}`, want: "10.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req CreateTransferRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			require.True(t, req.Amount.Equal(decimal.RequireFromString(tt.want)),
				"amount = %s", req.Amount)
		})
	}
}

func TestCreateAccountRequest_ToUseCaseInput(t *testing.T) {
	req := &CreateAccountRequest{
		BusinessName:   "Acme Ltd",
		Email:          "ops@acme.example",
		Currency:       "USD",
		InitialBalance: decimal.RequireFromString("100"),
	}

	got := req.ToUseCaseInput()

	want := usecase.CreateAccountInput{
		BusinessName:   "Acme Ltd",
		Email:          "ops@acme.example",
		Currency:       "USD",
		InitialBalance: decimal.RequireFromString("100"),
	}
	require.Equal(t, want, got)
}

func TestSetWebhookRequest_ToUseCaseInput(t *testing.T) {
	req := &SetWebhookRequest{
		URL:                 "https://hooks.example.com/ledger",
		Secret:              "shh",
		Events:              []string{"transaction.debited"},
		MaxRetries:          3,
		RetryBackoffSeconds: 30,
	}

	got := req.ToUseCaseInput("acc-9")

	require.Equal(t, "acc-9", got.AccountID)
	require.Equal(t, "https://hooks.example.com/ledger", got.URL)
	require.Equal(t, "shh", got.Secret)
	require.Equal(t, []string{"transaction.debited"}, got.Events)
	require.Equal(t, 3, got.MaxRetries)
	require.Equal(t, 30, got.RetryBackoffSeconds)
}
