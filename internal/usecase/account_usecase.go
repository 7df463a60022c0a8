package usecase

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quillpay/ledger/internal/domain"
	"github.com/quillpay/ledger/internal/infrastructure/metrics"
	"github.com/quillpay/ledger/internal/money"
)

// APIKeyPrefix prefixes every issued API key.
const APIKeyPrefix = "qp_"

const accountCacheTTL = 30 * time.Second

// AccountUseCase handles account lifecycle. Balance mutations are not here;
// they belong exclusively to the ledger engine.
type AccountUseCase struct {
	accountRepo AccountRepository
	apiKeyRepo  APIKeyRepository
	idGen       IDGenerator
	cache       Cache
	metrics     *metrics.Metrics
}

// NewAccountUseCase creates a new AccountUseCase. cache and m may be nil.
func NewAccountUseCase(accountRepo AccountRepository, apiKeyRepo APIKeyRepository, idGen IDGenerator, cache Cache, m *metrics.Metrics) *AccountUseCase {
	return &AccountUseCase{
		accountRepo: accountRepo,
		apiKeyRepo:  apiKeyRepo,
		idGen:       idGen,
		cache:       cache,
		metrics:     m,
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	BusinessName   string
	Email          string
	Currency       string
	InitialBalance decimal.Decimal
}

// CreateAccountOutput carries the created account plus the raw API key,
// which is shown exactly once.
type CreateAccountOutput struct {
	Account *domain.Account
	APIKey  string
}

// CreateAccount creates an account and issues its first API key.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*CreateAccountOutput, error) {
	if err := domain.ValidateBusinessName(input.BusinessName); err != nil {
		return nil, err
	}

	if err := domain.ValidateEmail(input.Email); err != nil {
		return nil, err
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = money.DefaultCurrency
	}

	if !money.Supported(currency) {
		return nil, domain.ErrUnsupportedCurrency
	}

	var balance int64
	if input.InitialBalance.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}

	if input.InitialBalance.IsPositive() {
		var err error

		balance, err = money.Normalize(input.InitialBalance, currency)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:           uc.idGen.Generate(),
		BusinessName: strings.TrimSpace(input.BusinessName),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		Balance:      balance,
		Currency:     currency,
		Status:       domain.AccountStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := uc.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	rawKey, err := uc.issueAPIKey(ctx, account.ID, now)
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.AccountsCreated.Inc()
	}

	return &CreateAccountOutput{Account: account, APIKey: rawKey}, nil
}

// GetAccount retrieves an account by ID, through the read cache when one is
// configured.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	if uc.cache != nil {
		if data, err := uc.cache.Get(ctx, accountCacheKey(id)); err == nil && data != nil {
			var account domain.Account
			if err := json.Unmarshal(data, &account); err == nil {
				return &account, nil
			}
		}
	}

	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if data, err := json.Marshal(account); err == nil {
			_ = uc.cache.Set(ctx, accountCacheKey(id), data, accountCacheTTL)
		}
	}

	return account, nil
}

// ListAccounts lists accounts with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	limit, offset = domain.ValidatePagination(limit, offset)

	return uc.accountRepo.List(ctx, limit, offset)
}

// Authenticate resolves a raw API key to its owning account ID.
func (uc *AccountUseCase) Authenticate(ctx context.Context, rawKey string) (*domain.APIKey, error) {
	key, err := uc.apiKeyRepo.GetByHash(ctx, HashAPIKey(rawKey))
	if err != nil {
		return nil, err
	}

	if !key.IsActive() {
		return nil, domain.ErrAccountNotActive
	}

	_ = uc.apiKeyRepo.TouchLastUsed(ctx, key.ID, time.Now().UTC())

	return key, nil
}

func (uc *AccountUseCase) issueAPIKey(ctx context.Context, accountID string, now time.Time) (string, error) {
	material := make([]byte, 24)
	if _, err := rand.Read(material); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}

	rawKey := APIKeyPrefix + hex.EncodeToString(material)

	key := &domain.APIKey{
		ID:        uc.idGen.Generate(),
		AccountID: accountID,
		KeyHash:   HashAPIKey(rawKey),
		KeyPrefix: rawKey[:len(APIKeyPrefix)+6],
		Status:    domain.APIKeyStatusActive,
		CreatedAt: now,
	}

	if err := uc.apiKeyRepo.Create(ctx, key); err != nil {
		return "", err
	}

	return rawKey, nil
}

// HashAPIKey returns the hex SHA-256 digest under which keys are stored.
func HashAPIKey(rawKey string) string {
	sum := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(sum[:])
}

func accountCacheKey(id string) string {
	return "account:" + id
}
