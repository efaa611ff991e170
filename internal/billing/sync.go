package billing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/castlemilk/wealthportal/backend/internal/model"
)

// InvoiceStore is the part of the store the syncer needs.
type InvoiceStore interface {
	GetInvoice(ctx context.Context, invoiceID string) (*model.Invoice, error)
	UpdateInvoice(ctx context.Context, invoice *model.Invoice) error
}

// Syncer refreshes stored invoices from the billing provider.
type Syncer struct {
	store  InvoiceStore
	source InvoiceSource
	logger *slog.Logger
}

// NewSyncer creates a Syncer. A nil logger falls back to slog.Default().
func NewSyncer(store InvoiceStore, source InvoiceSource, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{store: store, source: source, logger: logger}
}

// Refresh pulls the Stripe state of invoiceID and persists any change.
func (s *Syncer) Refresh(ctx context.Context, invoiceID string) (*model.Invoice, error) {
	inv, err := s.store.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.StripeInvoiceID == "" {
		return nil, fmt.Errorf("%s: %w", invoiceID, ErrNotLinked)
	}

	remote, err := s.source.FetchInvoice(ctx, inv.StripeInvoiceID)
	if err != nil {
		return nil, err
	}
	if !apply(inv, remote) {
		return inv, nil
	}
	if err := s.store.UpdateInvoice(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to update invoice: %w", err)
	}
	s.logger.Info("[billing] invoice refreshed", "invoice_id", inv.ID, "status", inv.Status)
	return inv, nil
}
