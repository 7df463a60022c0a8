package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quillpay/ledger/internal/domain"
	"github.com/quillpay/ledger/internal/usecase"
)

const accountColumns = "id, business_name, email, balance, currency, status, created_at, updated_at"

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create inserts a new account.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	query, args := Insert("accounts").
		Set("id", account.ID).
		Set("business_name", account.BusinessName).
		Set("email", account.Email).
		Set("balance", account.Balance).
		Set("currency", account.Currency).
		Set("status", string(account.Status)).
		Set("created_at", account.CreatedAt).
		Set("updated_at", account.UpdatedAt).
		Build()

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		if isUniqueViolation(err, "accounts_email_key") {
			return domain.ErrAccountExists
		}

		return err
	}

	return nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query, args := Select(accountColumns).
		From("accounts").
		Where("id = ?", id).
		Build()

	return scanAccount(r.pool.QueryRow(ctx, query, args...))
}

// GetByIDsForUpdate locks and retrieves the given accounts inside the
// caller's transaction. The caller passes IDs in ascending order so every
// scope acquires row locks in the same order.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	query, args := Select(accountColumns).
		From("accounts").
		Where("id = ANY(?)", ids).
		OrderBy("id").
		ForUpdate().
		Build()

	rows, err := tx.(*Tx).PgxTx().Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}

		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

// UpdateBalance sets an account's balance inside the caller's transaction.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance int64, updatedAt time.Time) error {
	query, args := Update("accounts").
		Set("balance", balance).
		Set("updated_at", updatedAt).
		Where("id = ?", id).
		Build()

	_, err := tx.(*Tx).PgxTx().Exec(ctx, query, args...)

	return err
}

// List lists accounts with pagination.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	query, args := Select(accountColumns).
		From("accounts").
		OrderBy("created_at DESC").
		Limit(limit).
		Offset(offset).
		Build()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}

		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account domain.Account
		status  string
	)

	err := row.Scan(&account.ID, &account.BusinessName, &account.Email,
		&account.Balance, &account.Currency, &status,
		&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	account.Status = domain.AccountStatus(status)

	return &account, nil
}
