package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quillpay/ledger/internal/domain"
	"github.com/quillpay/ledger/internal/infrastructure/metrics"
	"github.com/quillpay/ledger/internal/money"
)

// Webhook event messages.
const (
	debitedMessage  = "Amount has been debited from your account"
	creditedMessage = "Amount has been credited to your account"
)

// LedgerUseCase is the atomic ledger transaction engine. It orchestrates the
// transfer/debit/credit workflow inside one database-transactional scope:
// account rows are locked in ascending id order, balance mutations and
// transaction records commit together or not at all, and webhook delivery
// intents are recorded in the same scope so a committed ledger write always
// leaves a durable delivery obligation behind.
type LedgerUseCase struct {
	txManager    TransactionManager
	accountRepo  AccountRepository
	txnRepo      TransactionRepository
	webhookRepo  WebhookRepository
	deliveryRepo DeliveryRepository
	idGen        IDGenerator
	retrier      Retrier
	metrics      *metrics.Metrics
	timeout      time.Duration
}

// NewLedgerUseCase creates a new LedgerUseCase. retrier and m may be nil.
func NewLedgerUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	txnRepo TransactionRepository,
	webhookRepo WebhookRepository,
	deliveryRepo DeliveryRepository,
	idGen IDGenerator,
	retrier Retrier,
	m *metrics.Metrics,
) *LedgerUseCase {
	return &LedgerUseCase{
		txManager:    txManager,
		accountRepo:  accountRepo,
		txnRepo:      txnRepo,
		webhookRepo:  webhookRepo,
		deliveryRepo: deliveryRepo,
		idGen:        idGen,
		retrier:      retrier,
		metrics:      m,
		timeout:      DefaultTransactionTimeout,
	}
}

// SetTimeout overrides the per-operation deadline.
func (uc *LedgerUseCase) SetTimeout(d time.Duration) {
	if d > 0 {
		uc.timeout = d
	}
}

// ExecuteInput represents a ledger operation request.
type ExecuteInput struct {
	Type           domain.TransactionType
	FromAccountID  string
	ToAccountID    string
	Amount         decimal.Decimal
	Currency       string
	Description    string
	IdempotencyKey string
}

// Execute runs a credit, debit or transfer. Submitting the same request
// twice with one idempotency key produces exactly one transaction and one
// balance change; the second call returns the first result unchanged.
func (uc *LedgerUseCase) Execute(ctx context.Context, input ExecuteInput) (*domain.Transaction, error) {
	if err := uc.validateInput(input); err != nil {
		uc.countError(err)
		return nil, err
	}

	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	var result *domain.Transaction

	attempt := func() error {
		txn, err := uc.execute(ctx, input)
		if err != nil {
			return err
		}

		result = txn

		return nil
	}

	var err error
	if uc.retrier != nil {
		err = uc.retrier.Retry(ctx, attempt)
	} else {
		err = attempt()
	}

	if err != nil {
		// A concurrent request won the idempotency insert. Its transaction
		// is committed by the time the unique check fires, so return it.
		if errors.Is(err, domain.ErrDuplicateIdempotencyKey) && input.IdempotencyKey != "" {
			return uc.txnRepo.GetByIdempotencyKey(ctx, input.IdempotencyKey)
		}

		if errors.Is(err, context.DeadlineExceeded) {
			err = domain.ErrTimeout
		}

		uc.countError(err)

		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.TransactionsExecuted.WithLabelValues(string(input.Type)).Inc()
		uc.metrics.TransactionDuration.Observe(time.Since(start).Seconds())
	}

	return result, nil
}

func (uc *LedgerUseCase) countError(err error) {
	if uc.metrics == nil {
		return
	}

	uc.metrics.TransactionErrors.WithLabelValues(errorLabel(err)).Inc()
}

func errorLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, domain.ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, domain.ErrAccountNotActive):
		return "account_not_active"
	case errors.Is(err, domain.ErrUnsupportedCurrency):
		return "unsupported_currency"
	case errors.Is(err, domain.ErrAmountOverflow):
		return "amount_overflow"
	case errors.Is(err, domain.ErrSameAccount),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidTransaction):
		return "validation"
	case errors.Is(err, domain.ErrTimeout):
		return "timeout"
	default:
		return "internal"
	}
}

func (uc *LedgerUseCase) validateInput(input ExecuteInput) error {
	switch input.Type {
	case domain.TypeDebit:
		if input.FromAccountID == "" || input.ToAccountID != "" {
			return domain.ErrInvalidTransaction
		}
	case domain.TypeCredit:
		if input.ToAccountID == "" || input.FromAccountID != "" {
			return domain.ErrInvalidTransaction
		}
	case domain.TypeTransfer:
		if input.FromAccountID == "" || input.ToAccountID == "" {
			return domain.ErrInvalidTransaction
		}
		// Rejected before any locking occurs.
		if input.FromAccountID == input.ToAccountID {
			return domain.ErrSameAccount
		}
	default:
		return domain.ErrInvalidTransaction
	}

	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return domain.ErrInvalidAmount
	}

	if input.Currency != "" && !money.Supported(input.Currency) {
		return domain.ErrUnsupportedCurrency
	}

	return uc.validateIdempotencyKey(input.IdempotencyKey)
}

func (uc *LedgerUseCase) validateIdempotencyKey(key string) error {
	if key == "" {
		return nil
	}

	return domain.ValidateIdempotencyKey(key)
}

// execute runs one transactional attempt.
func (uc *LedgerUseCase) execute(ctx context.Context, input ExecuteInput) (*domain.Transaction, error) {
	accountIDs := collectAccountIDs(input)
	sort.Strings(accountIDs)

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	accounts, err := uc.accountRepo.GetByIDsForUpdate(ctx, tx, accountIDs)
	if err != nil {
		return nil, err
	}

	if len(accounts) != len(accountIDs) {
		return nil, domain.ErrAccountNotFound
	}

	accountMap := make(map[string]*domain.Account, len(accounts))
	for _, a := range accounts {
		if !a.IsActive() {
			return nil, domain.ErrAccountNotActive
		}

		accountMap[a.ID] = a
	}

	// Idempotency guard: at most one execution per key. A prior result is
	// returned unchanged and no further step runs.
	if input.IdempotencyKey != "" {
		existing, err := uc.txnRepo.GetByIdempotencyKeyTx(ctx, tx, input.IdempotencyKey)
		if err == nil {
			if uc.metrics != nil {
				uc.metrics.IdempotentReplays.Inc()
			}

			return existing, nil
		}

		if !errors.Is(err, domain.ErrTransactionNotFound) {
			return nil, err
		}
	}

	currency, err := uc.resolveCurrency(input, accountMap)
	if err != nil {
		return nil, err
	}

	units, err := money.Normalize(input.Amount, currency)
	if err != nil {
		return nil, err
	}

	if err := money.ValidateUnits(units); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	groupKey := ParentTxKeyPrefix + uc.idGen.Generate()

	var result *domain.Transaction

	if input.Type == domain.TypeTransfer {
		// Record-only parent: no balance effect, stays pending permanently.
		parent := &domain.Transaction{
			ID:             uc.idGen.Generate(),
			Type:           domain.TypeTransfer,
			FromAccountID:  &input.FromAccountID,
			ToAccountID:    &input.ToAccountID,
			Amount:         units,
			Currency:       currency,
			Status:         domain.StatusPending,
			IdempotencyKey: idempotencyKeyFor(input.IdempotencyKey, ""),
			ParentTxKey:    groupKey,
			Description:    input.Description,
			CreatedAt:      now,
		}

		if err := uc.txnRepo.Create(ctx, tx, parent); err != nil {
			return nil, err
		}

		result = parent
	}

	if input.Type == domain.TypeDebit || input.Type == domain.TypeTransfer {
		legKey := input.IdempotencyKey
		if input.Type == domain.TypeTransfer {
			legKey = input.IdempotencyKey + "_debit"
		}

		debit, err := uc.applyDebit(ctx, tx, accountMap[input.FromAccountID], units, currency, input.Description, idempotencyKeyFor(input.IdempotencyKey, legKey), groupKey, now)
		if err != nil {
			return nil, err
		}

		if result == nil {
			result = debit
		}
	}

	if input.Type == domain.TypeCredit || input.Type == domain.TypeTransfer {
		legKey := input.IdempotencyKey
		if input.Type == domain.TypeTransfer {
			legKey = input.IdempotencyKey + "_credit"
		}

		credit, err := uc.applyCredit(ctx, tx, accountMap[input.ToAccountID], units, currency, input.Description, idempotencyKeyFor(input.IdempotencyKey, legKey), groupKey, now)
		if err != nil {
			return nil, err
		}

		if result == nil {
			result = credit
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return result, nil
}

// applyDebit decrements the source balance and records the debit leg. The
// leg is recorded pending even though the balance mutation has applied;
// this preserves the documented source behavior (see DESIGN.md).
func (uc *LedgerUseCase) applyDebit(
	ctx context.Context,
	tx Transaction,
	account *domain.Account,
	units int64,
	currency, description string,
	idempotencyKey *string,
	groupKey string,
	now time.Time,
) (*domain.Transaction, error) {
	if err := account.ValidateDebit(units); err != nil {
		return nil, err
	}

	newBalance := account.ApplyDebit(units)
	if err := uc.accountRepo.UpdateBalance(ctx, tx, account.ID, newBalance, now); err != nil {
		return nil, err
	}

	account.Balance = newBalance

	txn := &domain.Transaction{
		ID:             uc.idGen.Generate(),
		Type:           domain.TypeDebit,
		FromAccountID:  &account.ID,
		Amount:         units,
		Currency:       currency,
		Status:         domain.StatusPending,
		IdempotencyKey: idempotencyKey,
		ParentTxKey:    groupKey,
		Description:    description,
		CreatedAt:      now,
	}

	if err := uc.txnRepo.Create(ctx, tx, txn); err != nil {
		return nil, err
	}

	if err := uc.recordIntents(ctx, tx, account.ID, domain.EventTransactionDebited, debitedMessage, txn, now); err != nil {
		return nil, err
	}

	return txn, nil
}

// applyCredit increments the destination balance and records the credit leg
// as completed.
func (uc *LedgerUseCase) applyCredit(
	ctx context.Context,
	tx Transaction,
	account *domain.Account,
	units int64,
	currency, description string,
	idempotencyKey *string,
	groupKey string,
	now time.Time,
) (*domain.Transaction, error) {
	if account.Balance > money.MaxUnits-units {
		return nil, domain.ErrAmountOverflow
	}

	newBalance := account.ApplyCredit(units)
	if err := uc.accountRepo.UpdateBalance(ctx, tx, account.ID, newBalance, now); err != nil {
		return nil, err
	}

	account.Balance = newBalance

	completedAt := now
	txn := &domain.Transaction{
		ID:             uc.idGen.Generate(),
		Type:           domain.TypeCredit,
		ToAccountID:    &account.ID,
		Amount:         units,
		Currency:       currency,
		Status:         domain.StatusCompleted,
		IdempotencyKey: idempotencyKey,
		ParentTxKey:    groupKey,
		Description:    description,
		CreatedAt:      now,
		CompletedAt:    &completedAt,
	}

	if err := uc.txnRepo.Create(ctx, tx, txn); err != nil {
		return nil, err
	}

	if err := uc.recordIntents(ctx, tx, account.ID, domain.EventTransactionCredited, creditedMessage, txn, now); err != nil {
		return nil, err
	}

	return txn, nil
}

// recordIntents inserts one pending delivery row per active subscribed
// webhook, inside the ledger's transactional scope. If the commit succeeds
// the delivery obligation durably exists; network I/O happens later in the
// dispatcher, never while account locks are held.
func (uc *LedgerUseCase) recordIntents(
	ctx context.Context,
	tx Transaction,
	accountID, event, message string,
	txn *domain.Transaction,
	now time.Time,
) error {
	webhooks, err := uc.webhookRepo.ListActiveByAccountTx(ctx, tx, accountID, event)
	if err != nil {
		return err
	}

	for _, wh := range webhooks {
		payload, err := json.Marshal(domain.NewEventPayload(event, message, txn, now))
		if err != nil {
			return err
		}

		delivery := &domain.WebhookDelivery{
			ID:            uc.idGen.Generate(),
			WebhookID:     wh.ID,
			TransactionID: txn.ID,
			EventType:     event,
			Payload:       payload,
			Status:        domain.DeliveryStatusPending,
			AttemptCount:  0,
			MaxAttempts:   wh.MaxRetries,
			NextRetryAt:   now,
			CreatedAt:     now,
		}

		if err := uc.deliveryRepo.CreateTx(ctx, tx, delivery); err != nil {
			return err
		}
	}

	return nil
}

func (uc *LedgerUseCase) resolveCurrency(input ExecuteInput, accounts map[string]*domain.Account) (string, error) {
	if input.Currency != "" {
		return input.Currency, nil
	}

	// Fall back to the preferred currency of the account money moves out
	// of (or into, for a credit), then to the default.
	ref := input.FromAccountID
	if input.Type == domain.TypeCredit {
		ref = input.ToAccountID
	}

	if account, ok := accounts[ref]; ok && account.Currency != "" {
		return account.Currency, nil
	}

	return money.DefaultCurrency, nil
}

// GetTransaction retrieves a transaction by ID.
func (uc *LedgerUseCase) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return uc.txnRepo.GetByID(ctx, id)
}

// GetGroup retrieves all legs sharing a parent transaction key.
func (uc *LedgerUseCase) GetGroup(ctx context.Context, parentTxKey string) ([]*domain.Transaction, error) {
	txns, err := uc.txnRepo.ListByParentKey(ctx, parentTxKey)
	if err != nil {
		return nil, err
	}

	if len(txns) == 0 {
		return nil, domain.ErrTransactionNotFound
	}

	return txns, nil
}

// ListTransactionsInput represents input for listing transactions.
type ListTransactionsInput struct {
	AccountID string
	Limit     int
	Offset    int
}

// ListTransactions lists transactions referencing an account.
func (uc *LedgerUseCase) ListTransactions(ctx context.Context, input ListTransactionsInput) ([]*domain.Transaction, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	return uc.txnRepo.ListByAccount(ctx, input.AccountID, limit, offset)
}

func collectAccountIDs(input ExecuteInput) []string {
	var ids []string
	if input.FromAccountID != "" {
		ids = append(ids, input.FromAccountID)
	}

	if input.ToAccountID != "" {
		ids = append(ids, input.ToAccountID)
	}

	return ids
}

func idempotencyKeyFor(requestKey, legKey string) *string {
	if requestKey == "" {
		return nil
	}

	if legKey == "" {
		return &requestKey
	}

	return &legKey
}
