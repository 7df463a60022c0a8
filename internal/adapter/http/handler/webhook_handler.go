package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quillpay/ledger/internal/adapter/http/dto"
	"github.com/quillpay/ledger/internal/adapter/http/middleware"
	"github.com/quillpay/ledger/internal/usecase"
)

// WebhookHandler handles webhook subscription endpoints. All of them are
// scoped to the authenticated account.
type WebhookHandler struct {
	webhookUC *usecase.WebhookUseCase
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(webhookUC *usecase.WebhookUseCase) *WebhookHandler {
	return &WebhookHandler{webhookUC: webhookUC}
}

// Set registers a webhook endpoint for the authenticated account.
func (h *WebhookHandler) Set(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing account context")
		return
	}

	var req dto.SetWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}

	webhook, err := h.webhookUC.CreateWebhook(r.Context(), req.ToUseCaseInput(accountID))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.WebhookFromDomain(webhook))
}

// Unset removes a webhook owned by the authenticated account.
func (h *WebhookHandler) Unset(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing account context")
		return
	}

	var req dto.UnsetWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.WebhookID == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "missing webhook_id")
		return
	}

	if err := h.webhookUC.DeleteWebhook(r.Context(), req.WebhookID, accountID); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// List lists the authenticated account's webhooks.
func (h *WebhookHandler) List(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing account context")
		return
	}

	webhooks, err := h.webhookUC.ListWebhooks(r.Context(), accountID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.WebhooksFromDomain(webhooks))
}

// ListDeliveries lists the delivery history of one webhook.
func (h *WebhookHandler) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing account context")
		return
	}

	webhookID := chi.URLParam(r, "id")
	if webhookID == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "missing webhook id")
		return
	}

	deliveries, err := h.webhookUC.ListDeliveries(r.Context(), webhookID, accountID,
		parseIntQuery(r, "limit", 50), parseIntQuery(r, "offset", 0))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DeliveriesFromDomain(deliveries))
}
