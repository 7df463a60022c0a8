package domain

import "time"

// APIKeyStatus is the lifecycle state of an API key.
type APIKeyStatus string

const (
	APIKeyStatusActive  APIKeyStatus = "active"
	APIKeyStatusRevoked APIKeyStatus = "revoked"
)

// APIKey authenticates requests for an account. Only the SHA-256 hash of
// the key is stored; the raw key is shown once at creation.
type APIKey struct {
	ID         string
	AccountID  string
	KeyHash    string
	KeyPrefix  string
	Status     APIKeyStatus
	CreatedAt  time.Time
	LastUsedAt *time.Time
}

// IsActive reports whether the key may authenticate requests.
func (k *APIKey) IsActive() bool {
	return k.Status == APIKeyStatusActive
}
