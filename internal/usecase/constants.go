package usecase

import "time"

const (
	// DefaultTransactionTimeout bounds a ledger transactional scope. A scope
	// that cannot acquire its locks or connection within this window fails
	// with a retriable timeout.
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long replayed responses are cached.
	IdempotencyKeyTTL = 24 * time.Hour

	// ParentTxKeyPrefix prefixes the group key shared by a transfer and its
	// generated legs.
	ParentTxKeyPrefix = "txgroup_"
)
