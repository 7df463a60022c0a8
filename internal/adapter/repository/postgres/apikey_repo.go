package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quillpay/ledger/internal/domain"
)

const apiKeyColumns = "id, account_id, key_hash, key_prefix, status, created_at, last_used_at"

// APIKeyRepository implements usecase.APIKeyRepository.
type APIKeyRepository struct {
	pool *pgxpool.Pool
}

// NewAPIKeyRepository creates a new APIKeyRepository.
func NewAPIKeyRepository(pool *pgxpool.Pool) *APIKeyRepository {
	return &APIKeyRepository{pool: pool}
}

// Create inserts an API key record.
func (r *APIKeyRepository) Create(ctx context.Context, key *domain.APIKey) error {
	query, args := Insert("api_keys").
		Set("id", key.ID).
		Set("account_id", key.AccountID).
		Set("key_hash", key.KeyHash).
		Set("key_prefix", key.KeyPrefix).
		Set("status", key.Status).
		Set("created_at", key.CreatedAt).
		Build()

	_, err := r.pool.Exec(ctx, query, args...)

	return err
}

// GetByHash retrieves an API key by the hash of its raw value. Raw keys are
// never stored.
func (r *APIKeyRepository) GetByHash(ctx context.Context, keyHash string) (*domain.APIKey, error) {
	query, args := Select(apiKeyColumns).
		From("api_keys").
		Where("key_hash = ?", keyHash).
		Build()

	var key domain.APIKey
	err := r.pool.QueryRow(ctx, query, args...).Scan(&key.ID, &key.AccountID,
		&key.KeyHash, &key.KeyPrefix, &key.Status, &key.CreatedAt, &key.LastUsedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	return &key, nil
}

// TouchLastUsed records when a key last authenticated a request.
func (r *APIKeyRepository) TouchLastUsed(ctx context.Context, id string, at time.Time) error {
	query, args := Update("api_keys").
		Set("last_used_at", at).
		Where("id = ?", id).
		Build()

	_, err := r.pool.Exec(ctx, query, args...)

	return err
}
