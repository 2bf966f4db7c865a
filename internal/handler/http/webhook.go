package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/modaversa/storefront/internal/webhook"
	"github.com/modaversa/storefront/pkg/httputil"
)

// maxWebhookBody caps inbound webhook payloads at 1 MiB.
const maxWebhookBody = 1 << 20

// WebhookEvents is the event surface the webhook handler publishes to.
type WebhookEvents interface {
	WebhookReceived(ctx context.Context, provider, eventType, eventID string)
}

// WebhookHandler receives signed payment provider callbacks.
type WebhookHandler struct {
	verifier *webhook.Verifier
	events   WebhookEvents
	logger   *slog.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(verifier *webhook.Verifier, events WebhookEvents, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		verifier: verifier,
		events:   events,
		logger:   logger,
	}
}

type webhookEnvelope struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Receive handles POST /webhooks/{provider}. The raw body is verified
// against the signature header before any parsing; verified events are
// re-published on the event bus and acknowledged with 202.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "unreadable body"},
		})
		return
	}

	if err := h.verifier.Verify(body, r.Header.Get(webhook.SignatureHeader)); err != nil {
		h.logger.WarnContext(r.Context(), "webhook signature rejected",
			slog.String("provider", provider),
		)
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.ID == "" || envelope.Type == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "malformed webhook payload"},
		})
		return
	}

	h.events.WebhookReceived(r.Context(), provider, envelope.Type, envelope.ID)
	h.logger.InfoContext(r.Context(), "webhook accepted",
		slog.String("provider", provider),
		slog.String("event_type", envelope.Type),
		slog.String("event_id", envelope.ID),
	)

	w.WriteHeader(http.StatusAccepted)
}
