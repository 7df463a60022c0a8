package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/quillpay/ledger/internal/domain"
)

func TestWebhookSubscribed(t *testing.T) {
	all := &domain.Webhook{Events: nil}
	if !all.Subscribed(domain.EventTransactionDebited) {
		t.Error("empty event set should subscribe to everything")
	}

	scoped := &domain.Webhook{Events: []string{domain.EventTransactionCredited}}
	if !scoped.Subscribed(domain.EventTransactionCredited) {
		t.Error("expected subscription to listed event")
	}

	if scoped.Subscribed(domain.EventTransactionDebited) {
		t.Error("expected no subscription to unlisted event")
	}
}

func TestNewEventPayload(t *testing.T) {
	from := "acc-1"
	txn := &domain.Transaction{
		ID:            "txn-1",
		Type:          domain.TypeDebit,
		FromAccountID: &from,
		Amount:        250_000,
		Currency:      "USD",
		Description:   "settlement",
		ParentTxKey:   "txgroup_abc",
	}

	at := time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)
	payload := domain.NewEventPayload(domain.EventTransactionDebited, "debited", txn, at)

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if decoded["event"] != domain.EventTransactionDebited {
		t.Errorf("event = %v", decoded["event"])
	}

	if decoded["timestamp"] != "2025-03-01T12:30:00Z" {
		t.Errorf("timestamp = %v", decoded["timestamp"])
	}

	inner, ok := decoded["data"].(map[string]any)
	if !ok {
		t.Fatal("missing data object")
	}

	if inner["transaction_id"] != "txn-1" || inner["parent_tx_key"] != "txgroup_abc" {
		t.Errorf("data = %v", inner)
	}
}
