package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/quillpay/ledger/internal/domain"
)

// APIKeyHeader carries the account API key on authenticated requests.
const APIKeyHeader = "X-API-Key"

type contextKey string

const accountIDContextKey contextKey = "account_id"

// Authenticator resolves a raw API key to its key record.
type Authenticator interface {
	Authenticate(ctx context.Context, rawKey string) (*domain.APIKey, error)
}

// APIKeyAuth authenticates requests by API key and puts the owning account
// ID on the request context.
func APIKeyAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawKey := strings.TrimSpace(r.Header.Get(APIKeyHeader))
			if rawKey == "" {
				unauthorized(w, "missing API key")
				return
			}

			key, err := auth.Authenticate(r.Context(), rawKey)
			if err != nil {
				unauthorized(w, "invalid API key")
				return
			}

			ctx := context.WithValue(r.Context(), accountIDContextKey, key.AccountID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccountIDFromContext extracts the authenticated account ID.
func AccountIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(accountIDContextKey).(string)

	return id, ok
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"` + message + `"}}`))
}
