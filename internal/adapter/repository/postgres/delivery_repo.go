package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quillpay/ledger/internal/domain"
	"github.com/quillpay/ledger/internal/usecase"
)

const deliveryColumns = "id, webhook_id, transaction_id, event_type, payload, status, " +
	"attempt_count, max_attempts, next_retry_at, http_status_code, response_body, " +
	"error_message, created_at, delivered_at, failed_at"

// DeliveryRepository implements usecase.DeliveryRepository.
type DeliveryRepository struct {
	pool *pgxpool.Pool
}

// NewDeliveryRepository creates a new DeliveryRepository.
func NewDeliveryRepository(pool *pgxpool.Pool) *DeliveryRepository {
	return &DeliveryRepository{pool: pool}
}

// CreateTx inserts a delivery intent inside the caller's transaction, so the
// intent commits atomically with the ledger records that triggered it.
func (r *DeliveryRepository) CreateTx(ctx context.Context, tx usecase.Transaction, delivery *domain.WebhookDelivery) error {
	query, args := Insert("webhook_deliveries").
		Set("id", delivery.ID).
		Set("webhook_id", delivery.WebhookID).
		Set("transaction_id", delivery.TransactionID).
		Set("event_type", delivery.EventType).
		Set("payload", delivery.Payload).
		Set("status", string(delivery.Status)).
		Set("attempt_count", delivery.AttemptCount).
		Set("max_attempts", delivery.MaxAttempts).
		Set("next_retry_at", delivery.NextRetryAt).
		Set("created_at", delivery.CreatedAt).
		Build()

	_, err := tx.(*Tx).PgxTx().Exec(ctx, query, args...)

	return err
}

// ClaimDue atomically claims up to limit due deliveries for this worker.
// SKIP LOCKED keeps concurrent workers from claiming the same rows, and the
// lease makes a claim expire if the worker dies mid-attempt.
func (r *DeliveryRepository) ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]*domain.WebhookDelivery, error) {
	inner, innerArgs := Select("id").
		From("webhook_deliveries").
		Where("status = ?", string(domain.DeliveryStatusPending)).
		Where("next_retry_at <= ?", now).
		Where("(claimed_until IS NULL OR claimed_until <= ?)", now).
		OrderBy("next_retry_at").
		Limit(limit).
		ForUpdateSkipLocked().
		Build()

	n := len(innerArgs) + 1
	query := fmt.Sprintf(
		"UPDATE webhook_deliveries SET claimed_until = $%d WHERE id IN (%s) RETURNING %s",
		n, inner, deliveryColumns)
	args := append(innerArgs, now.Add(lease))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deliveries []*domain.WebhookDelivery
	for rows.Next() {
		delivery, err := scanDelivery(rows)
		if err != nil {
			return nil, err
		}

		deliveries = append(deliveries, delivery)
	}

	return deliveries, rows.Err()
}

// MarkDelivered finalizes a successful delivery.
func (r *DeliveryRepository) MarkDelivered(ctx context.Context, id string, httpStatus int, responseBody string, at time.Time) error {
	query, args := Update("webhook_deliveries").
		Set("status", string(domain.DeliveryStatusDelivered)).
		SetExpr("attempt_count = attempt_count + 1").
		Set("http_status_code", httpStatus).
		Set("response_body", responseBody).
		Set("delivered_at", at).
		SetExpr("claimed_until = NULL").
		Where("id = ?", id).
		Build()

	_, err := r.pool.Exec(ctx, query, args...)

	return err
}

// MarkRetry records a failed attempt and schedules the next one.
func (r *DeliveryRepository) MarkRetry(ctx context.Context, id string, attemptCount int, nextRetryAt time.Time, httpStatus *int, errMsg string) error {
	query, args := Update("webhook_deliveries").
		Set("attempt_count", attemptCount).
		Set("next_retry_at", nextRetryAt).
		Set("http_status_code", httpStatus).
		Set("error_message", errMsg).
		SetExpr("claimed_until = NULL").
		Where("id = ?", id).
		Build()

	_, err := r.pool.Exec(ctx, query, args...)

	return err
}

// MarkFailed finalizes a delivery that exhausted its attempts.
func (r *DeliveryRepository) MarkFailed(ctx context.Context, id string, attemptCount int, httpStatus *int, errMsg string, at time.Time) error {
	query, args := Update("webhook_deliveries").
		Set("status", string(domain.DeliveryStatusFailed)).
		Set("attempt_count", attemptCount).
		Set("http_status_code", httpStatus).
		Set("error_message", errMsg).
		Set("failed_at", at).
		SetExpr("claimed_until = NULL").
		Where("id = ?", id).
		Build()

	_, err := r.pool.Exec(ctx, query, args...)

	return err
}

// ListByWebhook retrieves a webhook's delivery history, newest first.
func (r *DeliveryRepository) ListByWebhook(ctx context.Context, webhookID string, limit, offset int) ([]*domain.WebhookDelivery, error) {
	query, args := Select(deliveryColumns).
		From("webhook_deliveries").
		Where("webhook_id = ?", webhookID).
		OrderBy("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Build()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deliveries []*domain.WebhookDelivery
	for rows.Next() {
		delivery, err := scanDelivery(rows)
		if err != nil {
			return nil, err
		}

		deliveries = append(deliveries, delivery)
	}

	return deliveries, rows.Err()
}

func scanDelivery(row pgx.Row) (*domain.WebhookDelivery, error) {
	var (
		delivery domain.WebhookDelivery
		status   string
	)

	err := row.Scan(&delivery.ID, &delivery.WebhookID, &delivery.TransactionID,
		&delivery.EventType, &delivery.Payload, &status,
		&delivery.AttemptCount, &delivery.MaxAttempts, &delivery.NextRetryAt,
		&delivery.HTTPStatusCode, &delivery.ResponseBody, &delivery.ErrorMessage,
		&delivery.CreatedAt, &delivery.DeliveredAt, &delivery.FailedAt)
	if err != nil {
		return nil, err
	}

	delivery.Status = domain.DeliveryStatus(status)

	return &delivery, nil
}
