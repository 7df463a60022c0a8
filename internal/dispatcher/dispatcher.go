// Package dispatcher delivers pending webhook intents. Intent rows are
// written synchronously with the ledger commit; this worker polls for due
// rows, claims them, and POSTs the signed payload outside any database scope.
package dispatcher

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/quillpay/ledger/internal/domain"
	"github.com/quillpay/ledger/internal/infrastructure/metrics"
	"github.com/quillpay/ledger/internal/usecase"
)

const (
	// maxResponseBytes caps how much of the endpoint's response body is stored.
	maxResponseBytes = 4096

	defaultBatchSize        = 100
	defaultInterval         = 5 * time.Second
	defaultLease            = 30 * time.Second
	defaultRequestTimeout   = 10 * time.Second
	defaultDisableThreshold = 10
	defaultOutboundRPS      = 50
)

// Dispatcher polls webhook_deliveries and performs the outbound HTTP calls.
type Dispatcher struct {
	deliveryRepo     usecase.DeliveryRepository
	webhookRepo      usecase.WebhookRepository
	client           *http.Client
	logger           zerolog.Logger
	batchSize        int
	interval         time.Duration
	lease            time.Duration
	disableThreshold int
	throttle         *rate.Limiter
	metrics          *metrics.Metrics
	now              func() time.Time
}

// Config for Dispatcher.
type Config struct {
	DeliveryRepo usecase.DeliveryRepository
	WebhookRepo  usecase.WebhookRepository
	Logger       zerolog.Logger

	// BatchSize is the number of due rows claimed per poll.
	BatchSize int
	// Interval is the polling period.
	Interval time.Duration
	// Lease is how long a claimed row stays invisible to other workers.
	Lease time.Duration
	// RequestTimeout bounds a single outbound delivery attempt.
	RequestTimeout time.Duration
	// DisableThreshold is the consecutive-failure count at which a webhook
	// is auto-disabled.
	DisableThreshold int
	// OutboundRPS caps the outbound delivery rate across the whole worker.
	OutboundRPS float64

	// Metrics may be nil.
	Metrics *metrics.Metrics

	// Now overrides the clock in tests.
	Now func() time.Time
}

// New creates a Dispatcher.
func New(cfg Config) *Dispatcher {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.Interval == 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.Lease == 0 {
		cfg.Lease = defaultLease
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.DisableThreshold == 0 {
		cfg.DisableThreshold = defaultDisableThreshold
	}
	if cfg.OutboundRPS == 0 {
		cfg.OutboundRPS = defaultOutboundRPS
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Dispatcher{
		deliveryRepo:     cfg.DeliveryRepo,
		webhookRepo:      cfg.WebhookRepo,
		client:           &http.Client{Timeout: cfg.RequestTimeout},
		logger:           cfg.Logger,
		batchSize:        cfg.BatchSize,
		interval:         cfg.Interval,
		lease:            cfg.Lease,
		disableThreshold: cfg.DisableThreshold,
		throttle:         rate.NewLimiter(rate.Limit(cfg.OutboundRPS), int(cfg.OutboundRPS)),
		metrics:          cfg.Metrics,
		now:              cfg.Now,
	}
}

// Start runs the delivery loop until the context is cancelled.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.logger.Info().
		Int("batch_size", d.batchSize).
		Dur("interval", d.interval).
		Msg("webhook dispatcher started")

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	// Drain anything already due before the first tick.
	if err := d.ProcessDue(ctx); err != nil {
		d.logger.Error().Err(err).Msg("processing deliveries on start")
	}

	for {
		select {
		case <-ctx.Done():
			d.logger.Info().Msg("webhook dispatcher shutting down")
			return ctx.Err()
		case <-ticker.C:
			if err := d.ProcessDue(ctx); err != nil {
				d.logger.Error().Err(err).Msg("processing deliveries")
			}
		}
	}
}

// ProcessDue claims one batch of due deliveries and attempts each of them.
// A failed attempt on one row does not stop the rest of the batch.
func (d *Dispatcher) ProcessDue(ctx context.Context) error {
	deliveries, err := d.deliveryRepo.ClaimDue(ctx, d.now(), d.lease, d.batchSize)
	if err != nil {
		return fmt.Errorf("claiming due deliveries: %w", err)
	}

	if len(deliveries) == 0 {
		return nil
	}

	d.logger.Debug().Int("count", len(deliveries)).Msg("claimed deliveries")

	for _, delivery := range deliveries {
		if err := d.attempt(ctx, delivery); err != nil {
			d.logger.Error().Err(err).
				Str("delivery_id", delivery.ID).
				Str("webhook_id", delivery.WebhookID).
				Msg("delivery attempt bookkeeping failed")
		}
	}

	return nil
}

// attempt performs one delivery attempt for a claimed row and records the
// outcome. The returned error covers bookkeeping failures only; an endpoint
// failure is recorded on the row, not returned.
func (d *Dispatcher) attempt(ctx context.Context, delivery *domain.WebhookDelivery) error {
	webhook, err := d.webhookRepo.GetByID(ctx, delivery.WebhookID)
	if err != nil {
		// The webhook is gone; the row can never be delivered.
		return d.deliveryRepo.MarkFailed(ctx, delivery.ID, delivery.AttemptCount,
			nil, "webhook no longer exists", d.now())
	}

	if webhook.Status != domain.WebhookStatusActive {
		return d.deliveryRepo.MarkFailed(ctx, delivery.ID, delivery.AttemptCount,
			nil, fmt.Sprintf("webhook is %s", webhook.Status), d.now())
	}

	if err := d.throttle.Wait(ctx); err != nil {
		// Shutting down mid-batch; the claim lease will expire and another
		// worker picks the row up.
		return nil
	}

	attempt := delivery.AttemptCount + 1
	postStart := time.Now()
	status, body, err := d.post(ctx, webhook, delivery)

	if d.metrics != nil {
		d.metrics.DeliveriesAttempted.Inc()
		d.metrics.DeliveryDuration.Observe(time.Since(postStart).Seconds())
	}

	if err == nil && status >= 200 && status < 300 {
		if d.metrics != nil {
			d.metrics.DeliveriesSucceeded.Inc()
		}

		if err := d.deliveryRepo.MarkDelivered(ctx, delivery.ID, status, body, d.now()); err != nil {
			return err
		}

		d.logger.Info().
			Str("delivery_id", delivery.ID).
			Str("webhook_id", webhook.ID).
			Str("event", delivery.EventType).
			Int("attempt", attempt).
			Msg("webhook delivered")

		return d.webhookRepo.ResetFailures(ctx, webhook.ID)
	}

	return d.recordFailure(ctx, webhook, delivery, attempt, status, err)
}

func (d *Dispatcher) recordFailure(ctx context.Context, webhook *domain.Webhook, delivery *domain.WebhookDelivery, attempt, status int, cause error) error {
	var httpStatus *int
	errMsg := "unexpected response status"
	if cause != nil {
		errMsg = cause.Error()
	} else {
		httpStatus = &status
	}

	if d.metrics != nil {
		d.metrics.DeliveriesFailed.Inc()
	}

	d.logger.Warn().
		Str("delivery_id", delivery.ID).
		Str("webhook_id", webhook.ID).
		Int("attempt", attempt).
		Int("max_attempts", delivery.MaxAttempts).
		Str("error", errMsg).
		Msg("webhook delivery failed")

	if attempt < delivery.MaxAttempts {
		// Linear backoff: the wait grows with each attempt.
		next := d.now().Add(time.Duration(webhook.RetryBackoffSeconds*attempt) * time.Second)
		if err := d.deliveryRepo.MarkRetry(ctx, delivery.ID, attempt, next, httpStatus, errMsg); err != nil {
			return err
		}
	} else {
		if err := d.deliveryRepo.MarkFailed(ctx, delivery.ID, attempt, httpStatus, errMsg, d.now()); err != nil {
			return err
		}
	}

	failures, err := d.webhookRepo.RecordFailure(ctx, webhook.ID, d.now())
	if err != nil {
		return err
	}

	if failures >= d.disableThreshold {
		if d.metrics != nil {
			d.metrics.WebhooksDisabled.Inc()
		}

		d.logger.Warn().
			Str("webhook_id", webhook.ID).
			Int("consecutive_failures", failures).
			Msg("disabling webhook after repeated failures")

		return d.webhookRepo.UpdateStatus(ctx, webhook.ID, domain.WebhookStatusDisabled, d.now())
	}

	return nil
}

// post sends the signed payload to the webhook endpoint. A non-nil error
// means the request never produced a response (timeout, connection refused).
func (d *Dispatcher) post(ctx context.Context, webhook *domain.Webhook, delivery *domain.WebhookDelivery) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhook.URL, bytes.NewReader(delivery.Payload))
	if err != nil {
		return 0, "", err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Signature", Sign(delivery.Payload, webhook.Secret))
	req.Header.Set("X-Webhook-Event", delivery.EventType)

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))

	return resp.StatusCode, string(body), nil
}

// Sign computes the hex-encoded HMAC-SHA256 of the payload with the
// webhook's secret. Receivers recompute it to verify authenticity.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)

	return hex.EncodeToString(mac.Sum(nil))
}
