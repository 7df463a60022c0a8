package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quillpay/ledger/internal/domain"
	"github.com/quillpay/ledger/internal/usecase"
)

const transactionColumns = "id, type, status, from_account_id, to_account_id, amount, currency, " +
	"idempotency_key, parent_tx_key, description, error_code, error_message, created_at, completed_at"

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// Create inserts a transaction record inside the caller's transaction.
// A duplicate idempotency key surfaces as domain.ErrDuplicateIdempotencyKey;
// by the time the constraint fires, the winning insert has committed.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	query, args := Insert("transactions").
		Set("id", txn.ID).
		Set("type", string(txn.Type)).
		Set("status", string(txn.Status)).
		Set("from_account_id", txn.FromAccountID).
		Set("to_account_id", txn.ToAccountID).
		Set("amount", txn.Amount).
		Set("currency", txn.Currency).
		Set("idempotency_key", txn.IdempotencyKey).
		Set("parent_tx_key", txn.ParentTxKey).
		Set("description", txn.Description).
		Set("error_code", txn.ErrorCode).
		Set("error_message", txn.ErrorMessage).
		Set("created_at", txn.CreatedAt).
		Set("completed_at", txn.CompletedAt).
		Build()

	if _, err := tx.(*Tx).PgxTx().Exec(ctx, query, args...); err != nil {
		if isUniqueViolation(err, "transactions_idempotency_key_key") {
			return domain.ErrDuplicateIdempotencyKey
		}

		return err
	}

	return nil
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	query, args := Select(transactionColumns).
		From("transactions").
		Where("id = ?", id).
		Build()

	return scanTransaction(r.pool.QueryRow(ctx, query, args...))
}

// GetByIdempotencyKey retrieves the committed transaction holding a key.
func (r *TransactionRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error) {
	query, args := Select(transactionColumns).
		From("transactions").
		Where("idempotency_key = ?", key).
		Build()

	return scanTransaction(r.pool.QueryRow(ctx, query, args...))
}

// GetByIdempotencyKeyTx is GetByIdempotencyKey inside the caller's transaction.
func (r *TransactionRepository) GetByIdempotencyKeyTx(ctx context.Context, tx usecase.Transaction, key string) (*domain.Transaction, error) {
	query, args := Select(transactionColumns).
		From("transactions").
		Where("idempotency_key = ?", key).
		Build()

	return scanTransaction(tx.(*Tx).PgxTx().QueryRow(ctx, query, args...))
}

// ListByParentKey retrieves all records sharing a transfer group key.
func (r *TransactionRepository) ListByParentKey(ctx context.Context, parentTxKey string) ([]*domain.Transaction, error) {
	query, args := Select(transactionColumns).
		From("transactions").
		Where("parent_tx_key = ?", parentTxKey).
		OrderBy("created_at, id").
		Build()

	return r.queryMany(ctx, query, args)
}

// ListByAccount retrieves transactions touching an account, newest first.
func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error) {
	query, args := Select(transactionColumns).
		From("transactions").
		Where("(from_account_id = ? OR to_account_id = ?)", accountID, accountID).
		OrderBy("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Build()

	return r.queryMany(ctx, query, args)
}

func (r *TransactionRepository) queryMany(ctx context.Context, query string, args []any) ([]*domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []*domain.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}

		txns = append(txns, txn)
	}

	return txns, rows.Err()
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		txn     domain.Transaction
		txnType string
		status  string
	)

	err := row.Scan(&txn.ID, &txnType, &status, &txn.FromAccountID, &txn.ToAccountID,
		&txn.Amount, &txn.Currency, &txn.IdempotencyKey, &txn.ParentTxKey,
		&txn.Description, &txn.ErrorCode, &txn.ErrorMessage,
		&txn.CreatedAt, &txn.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	txn.Type = domain.TransactionType(txnType)
	txn.Status = domain.TransactionStatus(status)

	return &txn, nil
}
