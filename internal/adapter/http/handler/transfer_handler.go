package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quillpay/ledger/internal/adapter/http/dto"
	"github.com/quillpay/ledger/internal/adapter/http/middleware"
	"github.com/quillpay/ledger/internal/domain"
	"github.com/quillpay/ledger/internal/usecase"
)

// TransferHandler handles the ledger transaction endpoints.
type TransferHandler struct {
	ledgerUC *usecase.LedgerUseCase
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(ledgerUC *usecase.LedgerUseCase) *TransferHandler {
	return &TransferHandler{ledgerUC: ledgerUC}
}

// Create executes a transfer, debit or credit.
func (h *TransferHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}

	// Debits and transfers may only move money out of the caller's own
	// account. Credits target any account.
	if t := domain.TransactionType(req.Type); t == domain.TypeDebit || t == domain.TypeTransfer {
		accountID, ok := middleware.AccountIDFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing account context")
			return
		}
		if req.FromAccount != accountID {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "from_account is not owned by the caller")
			return
		}
	}

	txn, err := h.ledgerUC.Execute(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(txn))
}

// Get retrieves a transaction by ID.
func (h *TransferHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "missing transaction id")
		return
	}

	txn, err := h.ledgerUC.GetTransaction(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(txn))
}

// GetGroup retrieves all records sharing a parent transaction key: the
// transfer parent and its debit/credit legs.
func (h *TransferHandler) GetGroup(w http.ResponseWriter, r *http.Request) {
	parentKey := chi.URLParam(r, "parent_key")
	if parentKey == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "missing parent transaction key")
		return
	}

	txns, err := h.ledgerUC.GetGroup(r.Context(), parentKey)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionsFromDomain(txns))
}

// List lists transactions touching an account.
func (h *TransferHandler) List(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account_id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "missing account_id")
		return
	}

	txns, err := h.ledgerUC.ListTransactions(r.Context(), usecase.ListTransactionsInput{
		AccountID: accountID,
		Limit:     parseIntQuery(r, "limit", 50),
		Offset:    parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionsFromDomain(txns))
}
