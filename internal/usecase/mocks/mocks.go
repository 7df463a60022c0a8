// Package mocks provides in-memory fakes of the usecase repositories. The
// fake store serializes transactional scopes with one mutex, which stands in
// for row-level locking: a scope holds the lock from Begin until Commit or
// Rollback, and staged writes apply only on Commit.
package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/quillpay/ledger/internal/domain"
	"github.com/quillpay/ledger/internal/usecase"
)

// Store is the shared in-memory state behind the fake repositories.
type Store struct {
	mu           sync.Mutex
	accounts     map[string]*domain.Account
	transactions map[string]*domain.Transaction
	byIdemKey    map[string]string
	webhooks     map[string]*domain.Webhook
	deliveries   map[string]*domain.WebhookDelivery
	deliveryIDs  []string
	claims       map[string]time.Time
	apiKeys      map[string]*domain.APIKey
}

// NewStore creates an empty fake store.
func NewStore() *Store {
	return &Store{
		accounts:     make(map[string]*domain.Account),
		transactions: make(map[string]*domain.Transaction),
		byIdemKey:    make(map[string]string),
		webhooks:     make(map[string]*domain.Webhook),
		deliveries:   make(map[string]*domain.WebhookDelivery),
		claims:       make(map[string]time.Time),
		apiKeys:      make(map[string]*domain.APIKey),
	}
}

// SeedAccount inserts an account directly into committed state.
func (s *Store) SeedAccount(account *domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *account
	s.accounts[account.ID] = &cp
}

// SeedWebhook inserts a webhook directly into committed state.
func (s *Store) SeedWebhook(webhook *domain.Webhook) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *webhook
	s.webhooks[webhook.ID] = &cp
}

// AccountBalance returns the committed balance of an account.
func (s *Store) AccountBalance(id string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.accounts[id]; ok {
		return a.Balance
	}

	return 0
}

// TransactionCount returns the number of committed transaction records.
func (s *Store) TransactionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.transactions)
}

// Deliveries returns copies of all delivery rows, in insertion order.
func (s *Store) Deliveries() []*domain.WebhookDelivery {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.WebhookDelivery, 0, len(s.deliveryIDs))
	for _, id := range s.deliveryIDs {
		cp := *s.deliveries[id]
		out = append(out, &cp)
	}

	return out
}

// Webhook returns a copy of a webhook's committed state.
func (s *Store) Webhook(id string) *domain.Webhook {
	s.mu.Lock()
	defer s.mu.Unlock()

	if w, ok := s.webhooks[id]; ok {
		cp := *w
		return &cp
	}

	return nil
}

// Tx is a fake transactional scope holding the store lock.
type Tx struct {
	store  *Store
	staged []func()
	done   bool
}

// Commit applies staged writes and releases the scope.
func (t *Tx) Commit(_ context.Context) error {
	if t.done {
		return nil
	}

	for _, apply := range t.staged {
		apply()
	}

	t.done = true
	t.store.mu.Unlock()

	return nil
}

// Rollback discards staged writes and releases the scope.
func (t *Tx) Rollback(_ context.Context) error {
	if t.done {
		return nil
	}

	t.staged = nil
	t.done = true
	t.store.mu.Unlock()

	return nil
}

func (t *Tx) stage(apply func()) {
	t.staged = append(t.staged, apply)
}

// TxManager implements usecase.TransactionManager over the fake store.
type TxManager struct {
	store *Store

	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

// NewTxManager creates a fake transaction manager.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// Begin acquires the store lock, serializing scopes like row locks would.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}

	m.store.mu.Lock()

	return &Tx{store: m.store}, nil
}

// AccountRepository is a fake usecase.AccountRepository.
type AccountRepository struct {
	store *Store

	GetByIDsForUpdateFunc func(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error)
	UpdateBalanceFunc     func(ctx context.Context, tx usecase.Transaction, id string, balance int64, updatedAt time.Time) error
}

// NewAccountRepository creates a fake account repository.
func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{store: store}
}

func (r *AccountRepository) Create(_ context.Context, account *domain.Account) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, a := range r.store.accounts {
		if a.Email == account.Email {
			return domain.ErrAccountExists
		}
	}

	cp := *account
	r.store.accounts[account.ID] = &cp

	return nil
}

func (r *AccountRepository) GetByID(_ context.Context, id string) (*domain.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	account, ok := r.store.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	cp := *account

	return &cp, nil
}

// GetByIDsForUpdate assumes the caller's scope already holds the store lock.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	if r.GetByIDsForUpdateFunc != nil {
		return r.GetByIDsForUpdateFunc(ctx, tx, ids)
	}

	accounts := make([]*domain.Account, 0, len(ids))
	for _, id := range ids {
		if account, ok := r.store.accounts[id]; ok {
			cp := *account
			accounts = append(accounts, &cp)
		}
	}

	return accounts, nil
}

func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance int64, updatedAt time.Time) error {
	if r.UpdateBalanceFunc != nil {
		return r.UpdateBalanceFunc(ctx, tx, id, balance, updatedAt)
	}

	tx.(*Tx).stage(func() {
		if account, ok := r.store.accounts[id]; ok {
			account.Balance = balance
			account.UpdatedAt = updatedAt
		}
	})

	return nil
}

func (r *AccountRepository) List(_ context.Context, limit, offset int) ([]*domain.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	ids := make([]string, 0, len(r.store.accounts))
	for id := range r.store.accounts {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	var out []*domain.Account
	for i, id := range ids {
		if i < offset {
			continue
		}

		if len(out) == limit {
			break
		}

		cp := *r.store.accounts[id]
		out = append(out, &cp)
	}

	return out, nil
}

// TransactionRepository is a fake usecase.TransactionRepository.
type TransactionRepository struct {
	store *Store

	CreateFunc func(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error
}

// NewTransactionRepository creates a fake transaction repository.
func NewTransactionRepository(store *Store) *TransactionRepository {
	return &TransactionRepository{store: store}
}

// Create enforces idempotency-key uniqueness against committed and staged
// rows, like the database unique constraint would inside the scope.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	if r.CreateFunc != nil {
		return r.CreateFunc(ctx, tx, txn)
	}

	if txn.IdempotencyKey != nil {
		if _, exists := r.store.byIdemKey[*txn.IdempotencyKey]; exists {
			return domain.ErrDuplicateIdempotencyKey
		}
	}

	cp := *txn
	tx.(*Tx).stage(func() {
		r.store.transactions[cp.ID] = &cp
		if cp.IdempotencyKey != nil {
			r.store.byIdemKey[*cp.IdempotencyKey] = cp.ID
		}
	})

	return nil
}

func (r *TransactionRepository) GetByID(_ context.Context, id string) (*domain.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	txn, ok := r.store.transactions[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}

	cp := *txn

	return &cp, nil
}

func (r *TransactionRepository) GetByIdempotencyKey(_ context.Context, key string) (*domain.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	return r.lookupByKey(key)
}

// GetByIdempotencyKeyTx assumes the caller's scope already holds the lock.
func (r *TransactionRepository) GetByIdempotencyKeyTx(_ context.Context, _ usecase.Transaction, key string) (*domain.Transaction, error) {
	return r.lookupByKey(key)
}

func (r *TransactionRepository) lookupByKey(key string) (*domain.Transaction, error) {
	id, ok := r.store.byIdemKey[key]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}

	cp := *r.store.transactions[id]

	return &cp, nil
}

func (r *TransactionRepository) ListByParentKey(_ context.Context, parentTxKey string) ([]*domain.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []*domain.Transaction
	for _, txn := range r.store.transactions {
		if txn.ParentTxKey == parentTxKey {
			cp := *txn
			out = append(out, &cp)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (r *TransactionRepository) ListByAccount(_ context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []*domain.Transaction
	for _, txn := range r.store.transactions {
		if (txn.FromAccountID != nil && *txn.FromAccountID == accountID) ||
			(txn.ToAccountID != nil && *txn.ToAccountID == accountID) {
			cp := *txn
			out = append(out, &cp)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	if offset >= len(out) {
		return nil, nil
	}

	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

// WebhookRepository is a fake usecase.WebhookRepository.
type WebhookRepository struct {
	store *Store
}

// NewWebhookRepository creates a fake webhook repository.
func NewWebhookRepository(store *Store) *WebhookRepository {
	return &WebhookRepository{store: store}
}

func (r *WebhookRepository) Create(_ context.Context, webhook *domain.Webhook) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	cp := *webhook
	r.store.webhooks[webhook.ID] = &cp

	return nil
}

func (r *WebhookRepository) GetByID(_ context.Context, id string) (*domain.Webhook, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	webhook, ok := r.store.webhooks[id]
	if !ok {
		return nil, domain.ErrWebhookNotFound
	}

	cp := *webhook

	return &cp, nil
}

func (r *WebhookRepository) Delete(_ context.Context, id, accountID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	webhook, ok := r.store.webhooks[id]
	if !ok || webhook.AccountID != accountID {
		return domain.ErrWebhookNotFound
	}

	delete(r.store.webhooks, id)

	return nil
}

func (r *WebhookRepository) ListByAccount(_ context.Context, accountID string) ([]*domain.Webhook, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	return r.listByAccount(accountID, "", false), nil
}

// ListActiveByAccountTx assumes the caller's scope already holds the lock.
func (r *WebhookRepository) ListActiveByAccountTx(_ context.Context, _ usecase.Transaction, accountID, event string) ([]*domain.Webhook, error) {
	return r.listByAccount(accountID, event, true), nil
}

func (r *WebhookRepository) listByAccount(accountID, event string, activeOnly bool) []*domain.Webhook {
	var out []*domain.Webhook
	for _, webhook := range r.store.webhooks {
		if webhook.AccountID != accountID {
			continue
		}

		if activeOnly && webhook.Status != domain.WebhookStatusActive {
			continue
		}

		if event != "" && !webhook.Subscribed(event) {
			continue
		}

		cp := *webhook
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out
}

func (r *WebhookRepository) ResetFailures(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if webhook, ok := r.store.webhooks[id]; ok {
		webhook.ConsecutiveFailures = 0
	}

	return nil
}

func (r *WebhookRepository) RecordFailure(_ context.Context, id string, at time.Time) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	webhook, ok := r.store.webhooks[id]
	if !ok {
		return 0, domain.ErrWebhookNotFound
	}

	webhook.ConsecutiveFailures++
	webhook.LastFailureAt = &at

	return webhook.ConsecutiveFailures, nil
}

func (r *WebhookRepository) UpdateStatus(_ context.Context, id string, status domain.WebhookStatus, updatedAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	webhook, ok := r.store.webhooks[id]
	if !ok {
		return domain.ErrWebhookNotFound
	}

	webhook.Status = status
	webhook.UpdatedAt = updatedAt

	return nil
}

// DeliveryRepository is a fake usecase.DeliveryRepository.
type DeliveryRepository struct {
	store *Store
}

// NewDeliveryRepository creates a fake delivery repository.
func NewDeliveryRepository(store *Store) *DeliveryRepository {
	return &DeliveryRepository{store: store}
}

func (r *DeliveryRepository) CreateTx(_ context.Context, tx usecase.Transaction, delivery *domain.WebhookDelivery) error {
	cp := *delivery
	tx.(*Tx).stage(func() {
		r.store.deliveries[cp.ID] = &cp
		r.store.deliveryIDs = append(r.store.deliveryIDs, cp.ID)
	})

	return nil
}

func (r *DeliveryRepository) ClaimDue(_ context.Context, now time.Time, lease time.Duration, limit int) ([]*domain.WebhookDelivery, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []*domain.WebhookDelivery
	for _, id := range r.store.deliveryIDs {
		if len(out) == limit {
			break
		}

		d := r.store.deliveries[id]
		if d.Status != domain.DeliveryStatusPending || d.NextRetryAt.After(now) {
			continue
		}

		if claimed, ok := r.store.claims[id]; ok && claimed.After(now) {
			continue
		}

		r.store.claims[id] = now.Add(lease)
		cp := *d
		out = append(out, &cp)
	}

	return out, nil
}

func (r *DeliveryRepository) MarkDelivered(_ context.Context, id string, httpStatus int, responseBody string, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	d, ok := r.store.deliveries[id]
	if !ok {
		return fmt.Errorf("delivery %s not found", id)
	}

	d.Status = domain.DeliveryStatusDelivered
	d.AttemptCount++
	d.HTTPStatusCode = &httpStatus
	d.ResponseBody = responseBody
	d.DeliveredAt = &at
	delete(r.store.claims, id)

	return nil
}

func (r *DeliveryRepository) MarkRetry(_ context.Context, id string, attemptCount int, nextRetryAt time.Time, httpStatus *int, errMsg string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	d, ok := r.store.deliveries[id]
	if !ok {
		return fmt.Errorf("delivery %s not found", id)
	}

	d.AttemptCount = attemptCount
	d.NextRetryAt = nextRetryAt
	d.HTTPStatusCode = httpStatus
	d.ErrorMessage = errMsg
	delete(r.store.claims, id)

	return nil
}

func (r *DeliveryRepository) MarkFailed(_ context.Context, id string, attemptCount int, httpStatus *int, errMsg string, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	d, ok := r.store.deliveries[id]
	if !ok {
		return fmt.Errorf("delivery %s not found", id)
	}

	d.Status = domain.DeliveryStatusFailed
	d.AttemptCount = attemptCount
	d.HTTPStatusCode = httpStatus
	d.ErrorMessage = errMsg
	d.FailedAt = &at
	delete(r.store.claims, id)

	return nil
}

func (r *DeliveryRepository) ListByWebhook(_ context.Context, webhookID string, limit, offset int) ([]*domain.WebhookDelivery, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []*domain.WebhookDelivery
	for i := len(r.store.deliveryIDs) - 1; i >= 0; i-- {
		d := r.store.deliveries[r.store.deliveryIDs[i]]
		if d.WebhookID != webhookID {
			continue
		}

		cp := *d
		out = append(out, &cp)
	}

	if offset >= len(out) {
		return nil, nil
	}

	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

// APIKeyRepository is a fake usecase.APIKeyRepository.
type APIKeyRepository struct {
	store *Store
}

// NewAPIKeyRepository creates a fake API key repository.
func NewAPIKeyRepository(store *Store) *APIKeyRepository {
	return &APIKeyRepository{store: store}
}

func (r *APIKeyRepository) Create(_ context.Context, key *domain.APIKey) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	cp := *key
	r.store.apiKeys[key.KeyHash] = &cp

	return nil
}

func (r *APIKeyRepository) GetByHash(_ context.Context, keyHash string) (*domain.APIKey, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key, ok := r.store.apiKeys[keyHash]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	cp := *key

	return &cp, nil
}

func (r *APIKeyRepository) TouchLastUsed(_ context.Context, id string, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, key := range r.store.apiKeys {
		if key.ID == id {
			key.LastUsedAt = &at
		}
	}

	return nil
}

// IDGenerator is a deterministic fake usecase.IDGenerator.
type IDGenerator struct {
	mu      sync.Mutex
	counter int

	GenerateFunc func() string
}

// NewIDGenerator creates a fake ID generator.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

func (g *IDGenerator) Generate() string {
	if g.GenerateFunc != nil {
		return g.GenerateFunc()
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.counter++

	return fmt.Sprintf("id-%06d", g.counter)
}

// Compile-time interface checks.
var (
	_ usecase.TransactionManager    = (*TxManager)(nil)
	_ usecase.AccountRepository     = (*AccountRepository)(nil)
	_ usecase.TransactionRepository = (*TransactionRepository)(nil)
	_ usecase.WebhookRepository     = (*WebhookRepository)(nil)
	_ usecase.DeliveryRepository    = (*DeliveryRepository)(nil)
	_ usecase.APIKeyRepository      = (*APIKeyRepository)(nil)
	_ usecase.IDGenerator           = (*IDGenerator)(nil)
)
