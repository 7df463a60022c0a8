package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/quillpay/ledger/internal/domain"
	"github.com/quillpay/ledger/internal/money"
)

// TransactionResponse represents a transaction in API responses. Amounts are
// denormalized from storage units back into the recorded currency.
type TransactionResponse struct {
	ID             string          `json:"id"`
	Type           string          `json:"type"`
	Status         string          `json:"status"`
	FromAccount    *string         `json:"from_account,omitempty"`
	ToAccount      *string         `json:"to_account,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	IdempotencyKey *string         `json:"idempotency_key,omitempty"`
	ParentTxKey    string          `json:"parent_tx_key,omitempty"`
	Description    string          `json:"description,omitempty"`
	ErrorCode      string          `json:"error_code,omitempty"`
	ErrorMessage   string          `json:"error_message,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
}

// TransactionFromDomain converts a domain transaction to a response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	amount, err := money.Denormalize(t.Amount, t.Currency)
	if err != nil {
		// The stored currency was validated at write time; fall back to the
		// raw storage units rather than dropping the record.
		amount = decimal.NewFromInt(t.Amount)
	}

	return &TransactionResponse{
		ID:             t.ID,
		Type:           string(t.Type),
		Status:         string(t.Status),
		FromAccount:    t.FromAccountID,
		ToAccount:      t.ToAccountID,
		Amount:         amount,
		Currency:       t.Currency,
		IdempotencyKey: t.IdempotencyKey,
		ParentTxKey:    t.ParentTxKey,
		Description:    t.Description,
		ErrorCode:      t.ErrorCode,
		ErrorMessage:   t.ErrorMessage,
		CreatedAt:      t.CreatedAt,
		CompletedAt:    t.CompletedAt,
	}
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(txns []*domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(txns))
	for i, t := range txns {
		result[i] = TransactionFromDomain(t)
	}

	return result
}

// AccountResponse represents an account in API responses. The balance is
// denormalized into the account's preferred currency.
type AccountResponse struct {
	ID           string          `json:"id"`
	BusinessName string          `json:"business_name"`
	Email        string          `json:"email"`
	Balance      decimal.Decimal `json:"balance"`
	Currency     string          `json:"currency"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// AccountFromDomain converts a domain account to a response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	balance, err := money.Denormalize(a.Balance, a.Currency)
	if err != nil {
		balance = decimal.NewFromInt(a.Balance)
	}

	return &AccountResponse{
		ID:           a.ID,
		BusinessName: a.BusinessName,
		Email:        a.Email,
		Balance:      balance,
		Currency:     a.Currency,
		Status:       string(a.Status),
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}

	return result
}

// CreateAccountResponse is the response of POST /accounts. The raw API key
// appears here and nowhere else.
type CreateAccountResponse struct {
	Account *AccountResponse `json:"account"`
	APIKey  string           `json:"api_key"`
}

// WebhookResponse represents a webhook in API responses. The secret is
// write-only and never echoed back.
type WebhookResponse struct {
	ID                  string     `json:"id"`
	URL                 string     `json:"url"`
	Events              []string   `json:"events"`
	Status              string     `json:"status"`
	MaxRetries          int        `json:"max_retries"`
	RetryBackoffSeconds int        `json:"retry_backoff_seconds"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	LastFailureAt       *time.Time `json:"last_failure_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

// WebhookFromDomain converts a domain webhook to a response.
func WebhookFromDomain(w *domain.Webhook) *WebhookResponse {
	return &WebhookResponse{
		ID:                  w.ID,
		URL:                 w.URL,
		Events:              w.Events,
		Status:              string(w.Status),
		MaxRetries:          w.MaxRetries,
		RetryBackoffSeconds: w.RetryBackoffSeconds,
		ConsecutiveFailures: w.ConsecutiveFailures,
		LastFailureAt:       w.LastFailureAt,
		CreatedAt:           w.CreatedAt,
	}
}

// WebhooksFromDomain converts domain webhooks to responses.
func WebhooksFromDomain(webhooks []*domain.Webhook) []*WebhookResponse {
	result := make([]*WebhookResponse, len(webhooks))
	for i, w := range webhooks {
		result[i] = WebhookFromDomain(w)
	}

	return result
}

// DeliveryResponse represents a webhook delivery attempt history row.
type DeliveryResponse struct {
	ID             string     `json:"id"`
	TransactionID  string     `json:"transaction_id"`
	EventType      string     `json:"event_type"`
	Status         string     `json:"status"`
	AttemptCount   int        `json:"attempt_count"`
	MaxAttempts    int        `json:"max_attempts"`
	NextRetryAt    time.Time  `json:"next_retry_at"`
	HTTPStatusCode *int       `json:"http_status_code,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty"`
	FailedAt       *time.Time `json:"failed_at,omitempty"`
}

// DeliveryFromDomain converts a domain delivery to a response.
func DeliveryFromDomain(d *domain.WebhookDelivery) *DeliveryResponse {
	return &DeliveryResponse{
		ID:             d.ID,
		TransactionID:  d.TransactionID,
		EventType:      d.EventType,
		Status:         string(d.Status),
		AttemptCount:   d.AttemptCount,
		MaxAttempts:    d.MaxAttempts,
		NextRetryAt:    d.NextRetryAt,
		HTTPStatusCode: d.HTTPStatusCode,
		ErrorMessage:   d.ErrorMessage,
		CreatedAt:      d.CreatedAt,
		DeliveredAt:    d.DeliveredAt,
		FailedAt:       d.FailedAt,
	}
}

// DeliveriesFromDomain converts domain deliveries to responses.
func DeliveriesFromDomain(deliveries []*domain.WebhookDelivery) []*DeliveryResponse {
	result := make([]*DeliveryResponse, len(deliveries))
	for i, d := range deliveries {
		result[i] = DeliveryFromDomain(d)
	}

	return result
}

// ErrorBody is the inner error object of the error envelope.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the error envelope returned on every failure.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}
