package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// WebhookHandler applies Stripe invoice events to stored invoices.
type WebhookHandler struct {
	store         InvoiceStore
	webhookSecret string
	logger        *slog.Logger
}

// NewWebhookHandler creates a webhook handler.
func NewWebhookHandler(store InvoiceStore, webhookSecret string, logger *slog.Logger) *WebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookHandler{store: store, webhookSecret: webhookSecret, logger: logger}
}

// ServeHTTP verifies the Stripe signature and processes the event.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 65536))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	event, err := webhook.ConstructEvent(body, r.Header.Get("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		h.logger.Warn("[billing] webhook signature verification failed", "error", err)
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	if err := h.handleEvent(r.Context(), event); err != nil {
		h.logger.Error("[billing] webhook event failed", "type", event.Type, "error", err)
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `{"received": true}`)
}

func (h *WebhookHandler) handleEvent(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "invoice.finalized", "invoice.paid", "invoice.voided", "invoice.marked_uncollectible":
	default:
		h.logger.Debug("[billing] unhandled event type", "type", event.Type)
		return nil
	}

	var payload struct {
		ID                string            `json:"id"`
		Status            string            `json:"status"`
		HostedInvoiceURL  string            `json:"hosted_invoice_url"`
		Metadata          map[string]string `json:"metadata"`
		StatusTransitions struct {
			PaidAt int64 `json:"paid_at"`
		} `json:"status_transitions"`
	}
	if event.Data == nil {
		return fmt.Errorf("event has no data")
	}
	if err := json.Unmarshal(event.Data.Raw, &payload); err != nil {
		return fmt.Errorf("parse %s: %w", event.Type, err)
	}

	invoiceID := payload.Metadata[InvoiceMetadataKey]
	if invoiceID == "" {
		h.logger.Warn("[billing] event without portal invoice id", "stripe_invoice", payload.ID)
		return nil
	}

	inv, err := h.store.GetInvoice(ctx, invoiceID)
	if err != nil {
		return fmt.Errorf("get invoice %s: %w", invoiceID, err)
	}
	if inv.StripeInvoiceID != "" && inv.StripeInvoiceID != payload.ID {
		return fmt.Errorf("invoice %s is linked to %s, not %s", invoiceID, inv.StripeInvoiceID, payload.ID)
	}
	inv.StripeInvoiceID = payload.ID

	apply(inv, &RemoteInvoice{
		ID:        payload.ID,
		Status:    payload.Status,
		PaidAt:    payload.StatusTransitions.PaidAt,
		HostedURL: payload.HostedInvoiceURL,
	})
	return h.store.UpdateInvoice(ctx, inv)
}
