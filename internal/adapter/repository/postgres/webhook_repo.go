package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quillpay/ledger/internal/domain"
	"github.com/quillpay/ledger/internal/usecase"
)

const webhookColumns = "id, account_id, url, secret, events, status, max_retries, " +
	"retry_backoff_seconds, consecutive_failures, last_failure_at, created_at, updated_at"

// WebhookRepository implements usecase.WebhookRepository.
type WebhookRepository struct {
	pool *pgxpool.Pool
}

// NewWebhookRepository creates a new WebhookRepository.
func NewWebhookRepository(pool *pgxpool.Pool) *WebhookRepository {
	return &WebhookRepository{pool: pool}
}

// Create inserts a webhook subscription.
func (r *WebhookRepository) Create(ctx context.Context, webhook *domain.Webhook) error {
	query, args := Insert("webhooks").
		Set("id", webhook.ID).
		Set("account_id", webhook.AccountID).
		Set("url", webhook.URL).
		Set("secret", webhook.Secret).
		Set("events", webhook.Events).
		Set("status", string(webhook.Status)).
		Set("max_retries", webhook.MaxRetries).
		Set("retry_backoff_seconds", webhook.RetryBackoffSeconds).
		Set("consecutive_failures", webhook.ConsecutiveFailures).
		Set("last_failure_at", webhook.LastFailureAt).
		Set("created_at", webhook.CreatedAt).
		Set("updated_at", webhook.UpdatedAt).
		Build()

	_, err := r.pool.Exec(ctx, query, args...)

	return err
}

// GetByID retrieves a webhook by ID.
func (r *WebhookRepository) GetByID(ctx context.Context, id string) (*domain.Webhook, error) {
	query, args := Select(webhookColumns).
		From("webhooks").
		Where("id = ?", id).
		Build()

	return scanWebhook(r.pool.QueryRow(ctx, query, args...))
}

// Delete removes a webhook owned by the given account.
func (r *WebhookRepository) Delete(ctx context.Context, id, accountID string) error {
	tag, err := r.pool.Exec(ctx,
		"DELETE FROM webhooks WHERE id = $1 AND account_id = $2", id, accountID)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrWebhookNotFound
	}

	return nil
}

// ListByAccount retrieves all webhooks owned by an account.
func (r *WebhookRepository) ListByAccount(ctx context.Context, accountID string) ([]*domain.Webhook, error) {
	query, args := Select(webhookColumns).
		From("webhooks").
		Where("account_id = ?", accountID).
		OrderBy("created_at").
		Build()

	return r.queryMany(ctx, r.pool, query, args)
}

// ListActiveByAccountTx retrieves active webhooks subscribed to an event,
// inside the caller's transaction. An empty event set subscribes to all.
func (r *WebhookRepository) ListActiveByAccountTx(ctx context.Context, tx usecase.Transaction, accountID, event string) ([]*domain.Webhook, error) {
	query, args := Select(webhookColumns).
		From("webhooks").
		Where("account_id = ?", accountID).
		Where("status = ?", string(domain.WebhookStatusActive)).
		Where("(events = '{}' OR ? = ANY(events))", event).
		OrderBy("created_at").
		Build()

	return r.queryMany(ctx, tx.(*Tx).PgxTx(), query, args)
}

// ResetFailures zeroes the consecutive-failure counter after a delivery.
func (r *WebhookRepository) ResetFailures(ctx context.Context, id string) error {
	query, args := Update("webhooks").
		Set("consecutive_failures", 0).
		Where("id = ?", id).
		Build()

	_, err := r.pool.Exec(ctx, query, args...)

	return err
}

// RecordFailure increments the consecutive-failure counter and returns the
// new value so the dispatcher can apply its disable threshold.
func (r *WebhookRepository) RecordFailure(ctx context.Context, id string, at time.Time) (int, error) {
	query, args := Update("webhooks").
		SetExpr("consecutive_failures = consecutive_failures + 1").
		Set("last_failure_at", at).
		Where("id = ?", id).
		Build()

	var failures int
	err := r.pool.QueryRow(ctx, query+" RETURNING consecutive_failures", args...).Scan(&failures)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrWebhookNotFound
		}

		return 0, err
	}

	return failures, nil
}

// UpdateStatus transitions a webhook's status.
func (r *WebhookRepository) UpdateStatus(ctx context.Context, id string, status domain.WebhookStatus, updatedAt time.Time) error {
	query, args := Update("webhooks").
		Set("status", string(status)).
		Set("updated_at", updatedAt).
		Where("id = ?", id).
		Build()

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrWebhookNotFound
	}

	return nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *WebhookRepository) queryMany(ctx context.Context, q querier, query string, args []any) ([]*domain.Webhook, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var webhooks []*domain.Webhook
	for rows.Next() {
		webhook, err := scanWebhook(rows)
		if err != nil {
			return nil, err
		}

		webhooks = append(webhooks, webhook)
	}

	return webhooks, rows.Err()
}

func scanWebhook(row pgx.Row) (*domain.Webhook, error) {
	var (
		webhook domain.Webhook
		status  string
	)

	err := row.Scan(&webhook.ID, &webhook.AccountID, &webhook.URL, &webhook.Secret,
		&webhook.Events, &status, &webhook.MaxRetries, &webhook.RetryBackoffSeconds,
		&webhook.ConsecutiveFailures, &webhook.LastFailureAt,
		&webhook.CreatedAt, &webhook.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWebhookNotFound
		}

		return nil, err
	}

	webhook.Status = domain.WebhookStatus(status)

	return &webhook, nil
}
