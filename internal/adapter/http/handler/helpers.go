package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/quillpay/ledger/internal/adapter/http/dto"
	"github.com/quillpay/ledger/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes the error envelope.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: dto.ErrorBody{Code: code, Message: message},
	})
}

// writeDomainError maps a domain error to its envelope and status.
func writeDomainError(w http.ResponseWriter, err error) {
	status, code := mapDomainError(err)
	writeError(w, status, code, err.Error())
}

// mapDomainError maps domain errors to stable HTTP status and error codes.
func mapDomainError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound, "ACCOUNT_NOT_FOUND"
	case errors.Is(err, domain.ErrTransactionNotFound):
		return http.StatusNotFound, "TRANSACTION_NOT_FOUND"
	case errors.Is(err, domain.ErrWebhookNotFound):
		return http.StatusNotFound, "WEBHOOK_NOT_FOUND"
	case errors.Is(err, domain.ErrInsufficientBalance):
		return http.StatusBadRequest, "INSUFFICIENT_BALANCE"
	case errors.Is(err, domain.ErrAccountNotActive):
		return http.StatusBadRequest, "ACCOUNT_NOT_ACTIVE"
	case errors.Is(err, domain.ErrAccountExists):
		return http.StatusConflict, "ACCOUNT_EXISTS"
	case errors.Is(err, domain.ErrUnsupportedCurrency):
		return http.StatusBadRequest, "UNSUPPORTED_CURRENCY"
	case errors.Is(err, domain.ErrAmountOverflow):
		return http.StatusBadRequest, "AMOUNT_OVERFLOW"
	case errors.Is(err, domain.ErrSameAccount),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidTransaction),
		errors.Is(err, domain.ErrInvalidWebhookURL):
		return http.StatusBadRequest, "VALIDATION_ERROR"
	case errors.Is(err, domain.ErrTimeout):
		return http.StatusServiceUnavailable, "TIMEOUT"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}

	return i
}
