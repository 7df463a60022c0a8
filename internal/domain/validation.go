package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Validation errors
var (
	ErrInvalidBusinessName = errors.New("invalid business name")
	ErrInvalidEmail        = errors.New("invalid email format")
	ErrInvalidIDFormat     = errors.New("invalid ID format")
)

// Validation constants
const (
	MaxBusinessNameLength = 255
	MinBusinessNameLength = 1
	MaxDescriptionLength  = 1024
	MaxIdempotencyKeyLen  = 255
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateBusinessName validates an account's business name.
func ValidateBusinessName(name string) error {
	name = strings.TrimSpace(name)

	if len(name) < MinBusinessNameLength {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidBusinessName)
	}

	if len(name) > MaxBusinessNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidBusinessName, MaxBusinessNameLength)
	}

	return nil
}

// ValidateEmail validates email format.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}

	return nil
}

// ValidateWebhookURL validates a webhook endpoint URL.
func ValidateWebhookURL(url string) error {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return ErrInvalidWebhookURL
	}

	return nil
}

// ValidateIdempotencyKey checks a client-supplied idempotency key. Keys are
// opaque; only their length is bounded.
func ValidateIdempotencyKey(key string) error {
	if len(key) > MaxIdempotencyKeyLen {
		return fmt.Errorf("%w: idempotency key exceeds %d characters", ErrInvalidIDFormat, MaxIdempotencyKeyLen)
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters.
func ValidatePagination(limit, offset int) (int, int) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
