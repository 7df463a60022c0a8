package domain

import "time"

// Event types dispatched by the ledger engine.
const (
	EventTransactionDebited  = "transaction.debited"
	EventTransactionCredited = "transaction.credited"
)

// WebhookStatus is the lifecycle state of a webhook endpoint.
type WebhookStatus string

const (
	WebhookStatusActive   WebhookStatus = "active"
	WebhookStatusDisabled WebhookStatus = "disabled"
	WebhookStatusFailed   WebhookStatus = "failed"
)

// Webhook is a consumer endpoint owned by an account. Retry policy is
// per-webhook configuration, not a hard-coded constant.
type Webhook struct {
	ID                  string
	AccountID           string
	URL                 string
	Secret              string
	Events              []string
	Status              WebhookStatus
	MaxRetries          int
	RetryBackoffSeconds int
	ConsecutiveFailures int
	LastFailureAt       *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Subscribed reports whether the webhook wants the given event type.
// An empty event set subscribes to everything.
func (w *Webhook) Subscribed(event string) bool {
	if len(w.Events) == 0 {
		return true
	}
	for _, e := range w.Events {
		if e == event {
			return true
		}
	}
	return false
}

// DeliveryStatus is the lifecycle state of a delivery intent.
type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "pending"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	DeliveryStatusFailed    DeliveryStatus = "failed"
)

// WebhookDelivery is a durable delivery obligation, recorded in the same
// database transaction as the ledger write that triggered it. Rows are
// never deleted; they are the delivery audit trail.
type WebhookDelivery struct {
	ID             string
	WebhookID      string
	TransactionID  string
	EventType      string
	Payload        []byte
	Status         DeliveryStatus
	AttemptCount   int
	MaxAttempts    int
	NextRetryAt    time.Time
	HTTPStatusCode *int
	ResponseBody   string
	ErrorMessage   string
	CreatedAt      time.Time
	DeliveredAt    *time.Time
	FailedAt       *time.Time
}

// EventPayload is the outbound webhook body.
type EventPayload struct {
	Event     string    `json:"event"`
	Message   string    `json:"message"`
	Data      EventData `json:"data"`
	Timestamp string    `json:"timestamp"`
}

// EventData carries the transaction details of an event.
type EventData struct {
	TransactionID string `json:"transaction_id"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	Description   string `json:"description"`
	ParentTxKey   string `json:"parent_tx_key"`
}

// NewEventPayload builds the payload for a ledger event.
func NewEventPayload(event, message string, txn *Transaction, at time.Time) EventPayload {
	return EventPayload{
		Event:   event,
		Message: message,
		Data: EventData{
			TransactionID: txn.ID,
			Amount:        txn.Amount,
			Currency:      txn.Currency,
			Description:   txn.Description,
			ParentTxKey:   txn.ParentTxKey,
		},
		Timestamp: at.UTC().Format(time.RFC3339),
	}
}
