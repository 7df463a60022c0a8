package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/quillpay/ledger/internal/domain"
	"github.com/quillpay/ledger/internal/usecase"
	"github.com/quillpay/ledger/internal/usecase/mocks"
)

func newAccountFixture() (*mocks.Store, *usecase.AccountUseCase) {
	store := mocks.NewStore()
	uc := usecase.NewAccountUseCase(
		mocks.NewAccountRepository(store),
		mocks.NewAPIKeyRepository(store),
		mocks.NewIDGenerator(),
		nil,
		nil,
	)

	return store, uc
}

func TestAccountUseCase_CreateAccount(t *testing.T) {
	_, uc := newAccountFixture()

	out, err := uc.CreateAccount(context.Background(), usecase.CreateAccountInput{
		BusinessName:   "  Acme Corp  ",
		Email:          "Ops@Example.COM",
		Currency:       "eur",
		InitialBalance: decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Account.BusinessName != "Acme Corp" {
		t.Errorf("business name = %q", out.Account.BusinessName)
	}

	if out.Account.Email != "ops@example.com" {
		t.Errorf("email = %q", out.Account.Email)
	}

	if out.Account.Currency != "EUR" {
		t.Errorf("currency = %q", out.Account.Currency)
	}

	if out.Account.Balance != 1_080_000 { // 100 EUR at 1.08
		t.Errorf("balance = %d units, want 1080000", out.Account.Balance)
	}

	if out.Account.Status != domain.AccountStatusActive {
		t.Errorf("status = %s, want active", out.Account.Status)
	}

	if !strings.HasPrefix(out.APIKey, usecase.APIKeyPrefix) {
		t.Errorf("api key %q missing prefix", out.APIKey)
	}
}

func TestAccountUseCase_CreateAccount_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		input   usecase.CreateAccountInput
		wantErr error
	}{
		{
			name:    "blank business name",
			input:   usecase.CreateAccountInput{BusinessName: " ", Email: "a@b.co"},
			wantErr: domain.ErrInvalidBusinessName,
		},
		{
			name:    "bad email",
			input:   usecase.CreateAccountInput{BusinessName: "A", Email: "nope"},
			wantErr: domain.ErrInvalidEmail,
		},
		{
			name:    "unsupported currency",
			input:   usecase.CreateAccountInput{BusinessName: "A", Email: "a@b.co", Currency: "XBT"},
			wantErr: domain.ErrUnsupportedCurrency,
		},
		{
			name: "negative opening balance",
			input: usecase.CreateAccountInput{
				BusinessName:   "A",
				Email:          "a@b.co",
				InitialBalance: decimal.NewFromInt(-1),
			},
			wantErr: domain.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, uc := newAccountFixture()

			if _, err := uc.CreateAccount(context.Background(), tt.input); !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateAccount() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAccountUseCase_CreateAccount_DuplicateEmail(t *testing.T) {
	_, uc := newAccountFixture()

	input := usecase.CreateAccountInput{BusinessName: "A", Email: "a@b.co"}

	if _, err := uc.CreateAccount(context.Background(), input); err != nil {
		t.Fatalf("first create: %v", err)
	}

	if _, err := uc.CreateAccount(context.Background(), input); !errors.Is(err, domain.ErrAccountExists) {
		t.Errorf("expected ErrAccountExists, got %v", err)
	}
}

func TestAccountUseCase_Authenticate(t *testing.T) {
	_, uc := newAccountFixture()

	out, err := uc.CreateAccount(context.Background(), usecase.CreateAccountInput{
		BusinessName: "A",
		Email:        "a@b.co",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	key, err := uc.Authenticate(context.Background(), out.APIKey)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	if key.AccountID != out.Account.ID {
		t.Errorf("account = %s, want %s", key.AccountID, out.Account.ID)
	}

	if _, err := uc.Authenticate(context.Background(), "qp_wrong"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestAccountUseCase_Authenticate_RevokedKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	apiKeyRepo := mocks.NewMockAPIKeyRepository(ctrl)
	apiKeyRepo.EXPECT().GetByHash(gomock.Any(), usecase.HashAPIKey("qp_revoked")).Return(&domain.APIKey{
		ID:        "key-1",
		AccountID: "acc-1",
		Status:    domain.APIKeyStatusRevoked,
	}, nil)

	uc := usecase.NewAccountUseCase(nil, apiKeyRepo, mocks.NewIDGenerator(), nil, nil)

	if _, err := uc.Authenticate(context.Background(), "qp_revoked"); !errors.Is(err, domain.ErrAccountNotActive) {
		t.Errorf("expected ErrAccountNotActive, got %v", err)
	}
}

func TestAccountUseCase_GetAccount_CacheHit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cached, _ := json.Marshal(&domain.Account{ID: "acc-1", Balance: 42})

	cache := mocks.NewMockCache(ctrl)
	cache.EXPECT().Get(gomock.Any(), "account:acc-1").Return(cached, nil)

	accountRepo := mocks.NewMockAccountRepository(ctrl)
	// No repository call expected on a cache hit.

	uc := usecase.NewAccountUseCase(accountRepo, nil, mocks.NewIDGenerator(), cache, nil)

	account, err := uc.GetAccount(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if account.Balance != 42 {
		t.Errorf("balance = %d, want 42", account.Balance)
	}
}

func TestAccountUseCase_GetAccount_CacheMissFillsCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cache := mocks.NewMockCache(ctrl)
	cache.EXPECT().Get(gomock.Any(), "account:acc-1").Return(nil, errors.New("miss"))
	cache.EXPECT().Set(gomock.Any(), "account:acc-1", gomock.Any(), 30*time.Second).Return(nil)

	accountRepo := mocks.NewMockAccountRepository(ctrl)
	accountRepo.EXPECT().GetByID(gomock.Any(), "acc-1").Return(&domain.Account{ID: "acc-1"}, nil)

	uc := usecase.NewAccountUseCase(accountRepo, nil, mocks.NewIDGenerator(), cache, nil)

	if _, err := uc.GetAccount(context.Background(), "acc-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
