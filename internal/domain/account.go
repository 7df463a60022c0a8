package domain

import "time"

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "active"
	AccountStatusSuspended AccountStatus = "suspended"
	AccountStatusClosed    AccountStatus = "closed"
)

// Account represents a ledger account that can hold a balance.
// Balance is kept in storage units (1 USD = 10,000 units) and is mutated
// only inside the ledger engine's transactional scope.
type Account struct {
	ID           string
	BusinessName string
	Email        string
	Balance      int64
	Currency     string
	Status       AccountStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsActive reports whether the account may participate in ledger operations.
func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}

// ValidateDebit checks if the account can be debited by amount storage units.
func (a *Account) ValidateDebit(amount int64) error {
	if a.Balance-amount < 0 {
		return ErrInsufficientBalance
	}
	return nil
}

// ApplyDebit returns the new balance after a debit.
func (a *Account) ApplyDebit(amount int64) int64 {
	return a.Balance - amount
}

// ApplyCredit returns the new balance after a credit.
func (a *Account) ApplyCredit(amount int64) int64 {
	return a.Balance + amount
}
