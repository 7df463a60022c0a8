package dto

import (
	"github.com/shopspring/decimal"

	"github.com/quillpay/ledger/internal/domain"
	"github.com/quillpay/ledger/internal/usecase"
)

// CreateTransferRequest is the body of POST /transfer. The type field picks
// between transfer, debit and credit; from/to presence depends on it.
type CreateTransferRequest struct {
	Type           string          `json:"type"`
	FromAccount    string          `json:"from_account,omitempty"`
	ToAccount      string          `json:"to_account,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency,omitempty"`
	Description    string          `json:"description,omitempty"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateTransferRequest) ToUseCaseInput() usecase.ExecuteInput {
	return usecase.ExecuteInput{
		Type:           domain.TransactionType(r.Type),
		FromAccountID:  r.FromAccount,
		ToAccountID:    r.ToAccount,
		Amount:         r.Amount,
		Currency:       r.Currency,
		Description:    r.Description,
		IdempotencyKey: r.IdempotencyKey,
	}
}

// CreateAccountRequest is the body of POST /accounts.
type CreateAccountRequest struct {
	BusinessName   string          `json:"business_name"`
	Email          string          `json:"email"`
	Currency       string          `json:"currency,omitempty"`
	InitialBalance decimal.Decimal `json:"initial_balance,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		BusinessName:   r.BusinessName,
		Email:          r.Email,
		Currency:       r.Currency,
		InitialBalance: r.InitialBalance,
	}
}

// SetWebhookRequest is the body of POST /webhooks/set.
type SetWebhookRequest struct {
	URL                 string   `json:"url"`
	Secret              string   `json:"secret,omitempty"`
	Events              []string `json:"events,omitempty"`
	MaxRetries          int      `json:"max_retries,omitempty"`
	RetryBackoffSeconds int      `json:"retry_backoff_seconds,omitempty"`
}

// ToUseCaseInput converts to use case input for the owning account.
func (r *SetWebhookRequest) ToUseCaseInput(accountID string) usecase.CreateWebhookInput {
	return usecase.CreateWebhookInput{
		AccountID:           accountID,
		URL:                 r.URL,
		Secret:              r.Secret,
		Events:              r.Events,
		MaxRetries:          r.MaxRetries,
		RetryBackoffSeconds: r.RetryBackoffSeconds,
	}
}

// UnsetWebhookRequest is the body of POST /webhooks/unset.
type UnsetWebhookRequest struct {
	WebhookID string `json:"webhook_id"`
}
