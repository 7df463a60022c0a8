package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountNotActive    = errors.New("account is not active")
	ErrAccountExists       = errors.New("account with this email already exists")
	ErrInsufficientBalance = errors.New("insufficient balance")

	// Transaction errors
	ErrSameAccount             = errors.New("cannot transfer to same account")
	ErrInvalidAmount           = errors.New("amount must be positive")
	ErrInvalidTransaction      = errors.New("invalid transaction shape")
	ErrTransactionNotFound     = errors.New("transaction not found")
	ErrDuplicateIdempotencyKey = errors.New("transaction with this idempotency key already exists")

	// Money errors
	ErrUnsupportedCurrency = errors.New("unsupported currency code")
	ErrAmountOverflow      = errors.New("amount exceeds maximum allowed value")

	// Webhook errors
	ErrWebhookNotFound   = errors.New("webhook not found")
	ErrInvalidWebhookURL = errors.New("webhook URL must start with http:// or https://")

	// Infrastructure errors
	ErrTimeout = errors.New("operation timed out")
)
