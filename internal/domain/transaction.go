package domain

import "time"

// TransactionType discriminates the three ledger operations.
type TransactionType string

const (
	TypeCredit   TransactionType = "credit"
	TypeDebit    TransactionType = "debit"
	TypeTransfer TransactionType = "transfer"
)

// TransactionStatus is the lifecycle state of a transaction record.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
	StatusReversed  TransactionStatus = "reversed"
)

// Transaction is a single ledger record. A transfer produces three rows
// sharing one ParentTxKey: the record-only parent plus a debit and a credit
// leg. Amount is always stored in USD-equivalent storage units; Currency
// records the currency the client submitted, for audit.
type Transaction struct {
	ID             string
	Type           TransactionType
	FromAccountID  *string
	ToAccountID    *string
	Amount         int64
	Currency       string
	Status         TransactionStatus
	IdempotencyKey *string
	ParentTxKey    string
	Description    string
	ErrorCode      string
	ErrorMessage   string
	CreatedAt      time.Time
	CompletedAt    *time.Time
}

// Validate checks the account-reference shape for the transaction type:
// a debit names only a source, a credit only a destination, a transfer
// names both and they must differ.
func (t *Transaction) Validate() error {
	switch t.Type {
	case TypeDebit:
		if t.FromAccountID == nil || t.ToAccountID != nil {
			return ErrInvalidTransaction
		}
	case TypeCredit:
		if t.ToAccountID == nil || t.FromAccountID != nil {
			return ErrInvalidTransaction
		}
	case TypeTransfer:
		if t.FromAccountID == nil || t.ToAccountID == nil {
			return ErrInvalidTransaction
		}
		if *t.FromAccountID == *t.ToAccountID {
			return ErrSameAccount
		}
	default:
		return ErrInvalidTransaction
	}

	if t.Amount <= 0 {
		return ErrInvalidAmount
	}

	return nil
}
