package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quillpay/ledger/internal/domain"
)

// Default per-webhook retry policy, applied when the owner does not set one.
const (
	DefaultMaxRetries          = 5
	DefaultRetryBackoffSeconds = 60
)

// WebhookUseCase handles webhook endpoint management for account owners.
// Delivery itself lives in the dispatcher.
type WebhookUseCase struct {
	webhookRepo  WebhookRepository
	deliveryRepo DeliveryRepository
	idGen        IDGenerator
}

// NewWebhookUseCase creates a new WebhookUseCase.
func NewWebhookUseCase(webhookRepo WebhookRepository, deliveryRepo DeliveryRepository, idGen IDGenerator) *WebhookUseCase {
	return &WebhookUseCase{
		webhookRepo:  webhookRepo,
		deliveryRepo: deliveryRepo,
		idGen:        idGen,
	}
}

// CreateWebhookInput represents input for registering a webhook.
type CreateWebhookInput struct {
	AccountID           string
	URL                 string
	Secret              string
	Events              []string
	MaxRetries          int
	RetryBackoffSeconds int
}

// CreateWebhook registers a webhook endpoint for an account. An empty
// secret gets a generated one; an empty event set subscribes to all events.
func (uc *WebhookUseCase) CreateWebhook(ctx context.Context, input CreateWebhookInput) (*domain.Webhook, error) {
	if err := domain.ValidateWebhookURL(input.URL); err != nil {
		return nil, err
	}

	secret := strings.TrimSpace(input.Secret)
	if secret == "" {
		secret = uuid.NewString()
	}

	maxRetries := input.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	backoff := input.RetryBackoffSeconds
	if backoff <= 0 {
		backoff = DefaultRetryBackoffSeconds
	}

	now := time.Now().UTC()
	webhook := &domain.Webhook{
		ID:                  uc.idGen.Generate(),
		AccountID:           input.AccountID,
		URL:                 input.URL,
		Secret:              secret,
		Events:              input.Events,
		Status:              domain.WebhookStatusActive,
		MaxRetries:          maxRetries,
		RetryBackoffSeconds: backoff,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := uc.webhookRepo.Create(ctx, webhook); err != nil {
		return nil, err
	}

	return webhook, nil
}

// DeleteWebhook removes a webhook owned by the account.
func (uc *WebhookUseCase) DeleteWebhook(ctx context.Context, id, accountID string) error {
	return uc.webhookRepo.Delete(ctx, id, accountID)
}

// ListWebhooks lists the webhooks of an account.
func (uc *WebhookUseCase) ListWebhooks(ctx context.Context, accountID string) ([]*domain.Webhook, error) {
	return uc.webhookRepo.ListByAccount(ctx, accountID)
}

// ListDeliveries lists the delivery audit trail of a webhook, newest first.
// The webhook must belong to the requesting account.
func (uc *WebhookUseCase) ListDeliveries(ctx context.Context, webhookID, accountID string, limit, offset int) ([]*domain.WebhookDelivery, error) {
	webhook, err := uc.webhookRepo.GetByID(ctx, webhookID)
	if err != nil {
		return nil, err
	}

	if webhook.AccountID != accountID {
		return nil, domain.ErrWebhookNotFound
	}

	limit, offset = domain.ValidatePagination(limit, offset)

	return uc.deliveryRepo.ListByWebhook(ctx, webhookID, limit, offset)
}
