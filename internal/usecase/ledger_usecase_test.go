package usecase_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/quillpay/ledger/internal/domain"
	"github.com/quillpay/ledger/internal/usecase"
	"github.com/quillpay/ledger/internal/usecase/mocks"
)

type ledgerFixture struct {
	store *mocks.Store
	uc    *usecase.LedgerUseCase
}

func newLedgerFixture() *ledgerFixture {
	store := mocks.NewStore()

	uc := usecase.NewLedgerUseCase(
		mocks.NewTxManager(store),
		mocks.NewAccountRepository(store),
		mocks.NewTransactionRepository(store),
		mocks.NewWebhookRepository(store),
		mocks.NewDeliveryRepository(store),
		mocks.NewIDGenerator(),
		nil,
		nil,
	)

	return &ledgerFixture{store: store, uc: uc}
}

func (f *ledgerFixture) seedAccount(id string, balance int64) {
	f.store.SeedAccount(&domain.Account{
		ID:       id,
		Balance:  balance,
		Currency: "USD",
		Status:   domain.AccountStatusActive,
	})
}

func TestLedgerUseCase_Execute_Validation(t *testing.T) {
	tests := []struct {
		name    string
		input   usecase.ExecuteInput
		wantErr error
	}{
		{
			name: "transfer to same account",
			input: usecase.ExecuteInput{
				Type:          domain.TypeTransfer,
				FromAccountID: "acc-1",
				ToAccountID:   "acc-1",
				Amount:        decimal.NewFromInt(10),
			},
			wantErr: domain.ErrSameAccount,
		},
		{
			name: "transfer missing destination",
			input: usecase.ExecuteInput{
				Type:          domain.TypeTransfer,
				FromAccountID: "acc-1",
				Amount:        decimal.NewFromInt(10),
			},
			wantErr: domain.ErrInvalidTransaction,
		},
		{
			name: "debit with destination",
			input: usecase.ExecuteInput{
				Type:          domain.TypeDebit,
				FromAccountID: "acc-1",
				ToAccountID:   "acc-2",
				Amount:        decimal.NewFromInt(10),
			},
			wantErr: domain.ErrInvalidTransaction,
		},
		{
			name: "credit missing destination",
			input: usecase.ExecuteInput{
				Type:   domain.TypeCredit,
				Amount: decimal.NewFromInt(10),
			},
			wantErr: domain.ErrInvalidTransaction,
		},
		{
			name: "unknown type",
			input: usecase.ExecuteInput{
				Type:          "reversal",
				FromAccountID: "acc-1",
				Amount:        decimal.NewFromInt(10),
			},
			wantErr: domain.ErrInvalidTransaction,
		},
		{
			name: "zero amount",
			input: usecase.ExecuteInput{
				Type:          domain.TypeDebit,
				FromAccountID: "acc-1",
				Amount:        decimal.Zero,
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "negative amount",
			input: usecase.ExecuteInput{
				Type:          domain.TypeDebit,
				FromAccountID: "acc-1",
				Amount:        decimal.NewFromInt(-10),
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "unsupported currency",
			input: usecase.ExecuteInput{
				Type:          domain.TypeDebit,
				FromAccountID: "acc-1",
				Amount:        decimal.NewFromInt(10),
				Currency:      "XBT",
			},
			wantErr: domain.ErrUnsupportedCurrency,
		},
		{
			name: "idempotency key too long",
			input: usecase.ExecuteInput{
				Type:           domain.TypeDebit,
				FromAccountID:  "acc-1",
				Amount:         decimal.NewFromInt(10),
				IdempotencyKey: strings.Repeat("k", domain.MaxIdempotencyKeyLen+1),
			},
			wantErr: domain.ErrInvalidIDFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLedgerFixture()
			f.seedAccount("acc-1", 1_000_000)
			f.seedAccount("acc-2", 0)

			_, err := f.uc.Execute(context.Background(), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Execute() = %v, want %v", err, tt.wantErr)
			}

			if got := f.store.TransactionCount(); got != 0 {
				t.Errorf("expected no committed rows, got %d", got)
			}
		})
	}
}

func TestLedgerUseCase_Execute_Debit(t *testing.T) {
	f := newLedgerFixture()
	f.seedAccount("acc-1", 10_000_000) // 1000 USD

	txn, err := f.uc.Execute(context.Background(), usecase.ExecuteInput{
		Type:          domain.TypeDebit,
		FromAccountID: "acc-1",
		Amount:        decimal.NewFromInt(100),
		Currency:      "USD",
		Description:   "fee",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if txn.Type != domain.TypeDebit || txn.Status != domain.StatusPending {
		t.Errorf("got %s/%s, want debit/pending", txn.Type, txn.Status)
	}

	if txn.Amount != 1_000_000 {
		t.Errorf("amount = %d units, want 1000000", txn.Amount)
	}

	if txn.FromAccountID == nil || *txn.FromAccountID != "acc-1" || txn.ToAccountID != nil {
		t.Error("debit must reference only the source account")
	}

	if !strings.HasPrefix(txn.ParentTxKey, usecase.ParentTxKeyPrefix) {
		t.Errorf("parent key %q missing group prefix", txn.ParentTxKey)
	}

	if got := f.store.AccountBalance("acc-1"); got != 9_000_000 {
		t.Errorf("balance = %d, want 9000000", got)
	}
}

func TestLedgerUseCase_Execute_Credit(t *testing.T) {
	f := newLedgerFixture()
	f.seedAccount("acc-1", 0)

	txn, err := f.uc.Execute(context.Background(), usecase.ExecuteInput{
		Type:        domain.TypeCredit,
		ToAccountID: "acc-1",
		Amount:      decimal.NewFromInt(25),
		Currency:    "USD",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if txn.Status != domain.StatusCompleted {
		t.Errorf("status = %s, want completed", txn.Status)
	}

	if txn.CompletedAt == nil {
		t.Error("credit must carry a completion timestamp")
	}

	if got := f.store.AccountBalance("acc-1"); got != 250_000 {
		t.Errorf("balance = %d, want 250000", got)
	}
}

func TestLedgerUseCase_Execute_Transfer(t *testing.T) {
	f := newLedgerFixture()
	f.seedAccount("acc-1", 1_000_000)
	f.seedAccount("acc-2", 0)

	parent, err := f.uc.Execute(context.Background(), usecase.ExecuteInput{
		Type:          domain.TypeTransfer,
		FromAccountID: "acc-1",
		ToAccountID:   "acc-2",
		Amount:        decimal.NewFromInt(75),
		Currency:      "USD",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The returned record is the record-only parent; it has no balance
	// effect of its own and stays pending permanently.
	if parent.Type != domain.TypeTransfer || parent.Status != domain.StatusPending {
		t.Errorf("parent is %s/%s, want transfer/pending", parent.Type, parent.Status)
	}

	group, err := f.uc.GetGroup(context.Background(), parent.ParentTxKey)
	if err != nil {
		t.Fatalf("GetGroup: %v", err)
	}

	if len(group) != 3 {
		t.Fatalf("group has %d rows, want 3", len(group))
	}

	byType := map[domain.TransactionType]*domain.Transaction{}
	for _, txn := range group {
		if txn.ParentTxKey != parent.ParentTxKey {
			t.Errorf("row %s has foreign group key %s", txn.ID, txn.ParentTxKey)
		}

		byType[txn.Type] = txn
	}

	if byType[domain.TypeDebit] == nil || byType[domain.TypeDebit].Status != domain.StatusPending {
		t.Error("debit leg missing or not pending")
	}

	if byType[domain.TypeCredit] == nil || byType[domain.TypeCredit].Status != domain.StatusCompleted {
		t.Error("credit leg missing or not completed")
	}

	if got := f.store.AccountBalance("acc-1"); got != 250_000 {
		t.Errorf("source balance = %d, want 250000", got)
	}

	if got := f.store.AccountBalance("acc-2"); got != 750_000 {
		t.Errorf("destination balance = %d, want 750000", got)
	}
}

func TestLedgerUseCase_Execute_IdempotentReplay(t *testing.T) {
	f := newLedgerFixture()
	f.seedAccount("acc-1", 1_000_000)
	f.seedAccount("acc-2", 0)

	input := usecase.ExecuteInput{
		Type:           domain.TypeTransfer,
		FromAccountID:  "acc-1",
		ToAccountID:    "acc-2",
		Amount:         decimal.NewFromInt(10),
		Currency:       "USD",
		IdempotencyKey: "payout-42",
	}

	first, err := f.uc.Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("first execute: %v", err)
	}

	second, err := f.uc.Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("second execute: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("replay returned %s, want %s", second.ID, first.ID)
	}

	// Only one group of rows, and the balance moved exactly once.
	if got := f.store.TransactionCount(); got != 3 {
		t.Errorf("committed rows = %d, want 3", got)
	}

	if got := f.store.AccountBalance("acc-1"); got != 900_000 {
		t.Errorf("source balance = %d, want 900000", got)
	}
}

func TestLedgerUseCase_Execute_InsufficientBalanceRollsBackEverything(t *testing.T) {
	f := newLedgerFixture()
	f.seedAccount("acc-1", 100)
	f.seedAccount("acc-2", 0)

	_, err := f.uc.Execute(context.Background(), usecase.ExecuteInput{
		Type:          domain.TypeTransfer,
		FromAccountID: "acc-1",
		ToAccountID:   "acc-2",
		Amount:        decimal.NewFromInt(5),
		Currency:      "USD",
	})
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	// The parent row was written before the debit leg failed; the rollback
	// must discard it along with everything else.
	if got := f.store.TransactionCount(); got != 0 {
		t.Errorf("committed rows = %d, want 0", got)
	}

	if got := f.store.AccountBalance("acc-1"); got != 100 {
		t.Errorf("source balance = %d, want 100", got)
	}

	if got := f.store.AccountBalance("acc-2"); got != 0 {
		t.Errorf("destination balance = %d, want 0", got)
	}
}

func TestLedgerUseCase_Execute_AccountChecks(t *testing.T) {
	f := newLedgerFixture()
	f.seedAccount("acc-1", 1_000_000)
	f.store.SeedAccount(&domain.Account{
		ID:       "acc-frozen",
		Balance:  1_000_000,
		Currency: "USD",
		Status:   domain.AccountStatusSuspended,
	})

	_, err := f.uc.Execute(context.Background(), usecase.ExecuteInput{
		Type:          domain.TypeTransfer,
		FromAccountID: "acc-1",
		ToAccountID:   "acc-missing",
		Amount:        decimal.NewFromInt(1),
	})
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}

	_, err = f.uc.Execute(context.Background(), usecase.ExecuteInput{
		Type:          domain.TypeTransfer,
		FromAccountID: "acc-1",
		ToAccountID:   "acc-frozen",
		Amount:        decimal.NewFromInt(1),
	})
	if !errors.Is(err, domain.ErrAccountNotActive) {
		t.Errorf("expected ErrAccountNotActive, got %v", err)
	}
}

func TestLedgerUseCase_Execute_CurrencyFromAccount(t *testing.T) {
	f := newLedgerFixture()
	f.store.SeedAccount(&domain.Account{
		ID:       "acc-eur",
		Balance:  1_000_000,
		Currency: "EUR",
		Status:   domain.AccountStatusActive,
	})

	// No request currency: the source account's preferred currency applies.
	txn, err := f.uc.Execute(context.Background(), usecase.ExecuteInput{
		Type:          domain.TypeDebit,
		FromAccountID: "acc-eur",
		Amount:        decimal.NewFromInt(1),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if txn.Currency != "EUR" {
		t.Errorf("currency = %s, want EUR", txn.Currency)
	}

	if txn.Amount != 10_800 { // 1 EUR at 1.08
		t.Errorf("amount = %d units, want 10800", txn.Amount)
	}
}

func TestLedgerUseCase_Execute_RecordsDeliveryIntents(t *testing.T) {
	f := newLedgerFixture()
	f.seedAccount("acc-1", 1_000_000)
	f.seedAccount("acc-2", 0)
	f.store.SeedWebhook(&domain.Webhook{
		ID:         "wh-1",
		AccountID:  "acc-1",
		URL:        "https://hooks.example.com/x",
		Secret:     "s3cret",
		Status:     domain.WebhookStatusActive,
		MaxRetries: 5,
	})
	f.store.SeedWebhook(&domain.Webhook{
		ID:        "wh-credit",
		AccountID: "acc-2",
		URL:       "https://hooks.example.com/y",
		Secret:    "s3cret",
		Events:    []string{domain.EventTransactionCredited},
		Status:    domain.WebhookStatusActive,
	})

	if _, err := f.uc.Execute(context.Background(), usecase.ExecuteInput{
		Type:          domain.TypeTransfer,
		FromAccountID: "acc-1",
		ToAccountID:   "acc-2",
		Amount:        decimal.NewFromInt(10),
		Currency:      "USD",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deliveries := f.store.Deliveries()
	if len(deliveries) != 2 {
		t.Fatalf("deliveries = %d, want 2", len(deliveries))
	}

	events := map[string]string{}
	for _, d := range deliveries {
		if d.Status != domain.DeliveryStatusPending {
			t.Errorf("delivery %s status = %s, want pending", d.ID, d.Status)
		}

		events[d.WebhookID] = d.EventType
	}

	if events["wh-1"] != domain.EventTransactionDebited {
		t.Errorf("wh-1 got event %q", events["wh-1"])
	}

	if events["wh-credit"] != domain.EventTransactionCredited {
		t.Errorf("wh-credit got event %q", events["wh-credit"])
	}
}

// One hundred concurrent one-unit transfers against a fifty-unit balance:
// exactly fifty commit, the rest fail with insufficient balance, and the
// source never goes negative.
func TestLedgerUseCase_Execute_ConcurrentTransfers(t *testing.T) {
	f := newLedgerFixture()
	f.seedAccount("acc-1", 50)
	f.seedAccount("acc-2", 0)

	const attempts = 100

	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		succeeded    int
		insufficient int
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := f.uc.Execute(context.Background(), usecase.ExecuteInput{
				Type:          domain.TypeTransfer,
				FromAccountID: "acc-1",
				ToAccountID:   "acc-2",
				Amount:        decimal.RequireFromString("0.0001"), // one unit
				Currency:      "USD",
			})

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrInsufficientBalance):
				insufficient++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}

	wg.Wait()

	if succeeded != 50 || insufficient != 50 {
		t.Errorf("succeeded = %d, insufficient = %d, want 50/50", succeeded, insufficient)
	}

	if got := f.store.AccountBalance("acc-1"); got != 0 {
		t.Errorf("source balance = %d, want 0", got)
	}

	if got := f.store.AccountBalance("acc-2"); got != 50 {
		t.Errorf("destination balance = %d, want 50", got)
	}
}

func TestLedgerUseCase_GetGroup_NotFound(t *testing.T) {
	f := newLedgerFixture()

	if _, err := f.uc.GetGroup(context.Background(), "txgroup_missing"); !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Errorf("expected ErrTransactionNotFound, got %v", err)
	}
}
