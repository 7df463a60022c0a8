package usecase

import (
	"context"
	"time"

	"github.com/quillpay/ledger/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	// GetByIDsForUpdate locks the account rows with FOR UPDATE. Callers must
	// pass ids sorted ascending so concurrent scopes acquire locks in a
	// globally consistent order.
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Account, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance int64, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// TransactionRepository defines data access for ledger transaction records.
type TransactionRepository interface {
	Create(ctx context.Context, tx Transaction, txn *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	// GetByIdempotencyKey reads committed state; used to resolve races after
	// a unique-constraint conflict.
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error)
	// GetByIdempotencyKeyTx performs the same lookup inside the caller's
	// transactional scope.
	GetByIdempotencyKeyTx(ctx context.Context, tx Transaction, key string) (*domain.Transaction, error)
	ListByParentKey(ctx context.Context, parentTxKey string) ([]*domain.Transaction, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error)
}

// WebhookRepository defines data access for webhook endpoints.
type WebhookRepository interface {
	Create(ctx context.Context, webhook *domain.Webhook) error
	GetByID(ctx context.Context, id string) (*domain.Webhook, error)
	Delete(ctx context.Context, id, accountID string) error
	ListByAccount(ctx context.Context, accountID string) ([]*domain.Webhook, error)
	// ListActiveByAccountTx returns the active webhooks of an account
	// subscribed to the event, inside the caller's transactional scope.
	ListActiveByAccountTx(ctx context.Context, tx Transaction, accountID, event string) ([]*domain.Webhook, error)
	// ResetFailures zeroes consecutive_failures after a successful delivery.
	ResetFailures(ctx context.Context, id string) error
	// RecordFailure increments consecutive_failures and returns the new count.
	RecordFailure(ctx context.Context, id string, at time.Time) (int, error)
	UpdateStatus(ctx context.Context, id string, status domain.WebhookStatus, updatedAt time.Time) error
}

// DeliveryRepository defines data access for webhook delivery intents.
// Rows are never deleted; they are the delivery audit trail.
type DeliveryRepository interface {
	// CreateTx records a delivery intent inside the ledger's transactional
	// scope so the obligation commits or rolls back with the ledger write.
	CreateTx(ctx context.Context, tx Transaction, delivery *domain.WebhookDelivery) error
	// ClaimDue atomically claims up to limit due pending rows for the
	// calling worker, so concurrent workers never double-send.
	ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]*domain.WebhookDelivery, error)
	MarkDelivered(ctx context.Context, id string, httpStatus int, responseBody string, at time.Time) error
	// MarkRetry schedules the next attempt and leaves the row pending.
	MarkRetry(ctx context.Context, id string, attemptCount int, nextRetryAt time.Time, httpStatus *int, errMsg string) error
	MarkFailed(ctx context.Context, id string, attemptCount int, httpStatus *int, errMsg string, at time.Time) error
	ListByWebhook(ctx context.Context, webhookID string, limit, offset int) ([]*domain.WebhookDelivery, error)
}

// APIKeyRepository defines data access for API keys.
type APIKeyRepository interface {
	Create(ctx context.Context, key *domain.APIKey) error
	GetByHash(ctx context.Context, keyHash string) (*domain.APIKey, error)
	TouchLastUsed(ctx context.Context, id string, at time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier retries an operation on transient storage failures.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles response replay for retried HTTP requests.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
