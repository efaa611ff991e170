// Package billing keeps portal invoices in sync with their Stripe
// counterparts.
package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/invoice"

	"github.com/castlemilk/wealthportal/backend/internal/model"
)

// InvoiceMetadataKey links a Stripe invoice back to the portal invoice ID.
const InvoiceMetadataKey = "portal_invoice_id"

// ErrNotLinked is returned when a portal invoice has no Stripe invoice.
var ErrNotLinked = errors.New("invoice is not linked to stripe")

// RemoteInvoice is the subset of a Stripe invoice the portal tracks.
type RemoteInvoice struct {
	ID        string
	Status    string
	PaidAt    int64
	HostedURL string
}

// InvoiceSource fetches invoices from the billing provider.
type InvoiceSource interface {
	FetchInvoice(ctx context.Context, stripeInvoiceID string) (*RemoteInvoice, error)
}

// StripeBilling reads invoices through the Stripe API.
// stripe.Key must be set globally before calling Stripe APIs.
type StripeBilling struct{}

// NewStripeBilling sets the API key and returns a Stripe-backed source.
func NewStripeBilling(secretKey string) *StripeBilling {
	stripe.Key = secretKey
	return &StripeBilling{}
}

func (StripeBilling) FetchInvoice(ctx context.Context, stripeInvoiceID string) (*RemoteInvoice, error) {
	params := &stripe.InvoiceParams{}
	params.Context = ctx
	inv, err := invoice.Get(stripeInvoiceID, params)
	if err != nil {
		return nil, fmt.Errorf("get stripe invoice %s: %w", stripeInvoiceID, err)
	}
	remote := &RemoteInvoice{
		ID:        inv.ID,
		Status:    string(inv.Status),
		HostedURL: inv.HostedInvoiceURL,
	}
	if inv.StatusTransitions != nil {
		remote.PaidAt = inv.StatusTransitions.PaidAt
	}
	return remote, nil
}

// MapStatus converts a Stripe invoice status into the portal status.
func MapStatus(status string) (model.InvoiceStatus, bool) {
	switch status {
	case "draft":
		return model.InvoiceStatusDraft, true
	case "open":
		return model.InvoiceStatusPending, true
	case "paid":
		return model.InvoiceStatusPaid, true
	case "void", "uncollectible":
		return model.InvoiceStatusVoid, true
	default:
		return "", false
	}
}

// apply copies the remote state onto inv and reports whether anything changed.
func apply(inv *model.Invoice, remote *RemoteInvoice) bool {
	changed := false
	if status, ok := MapStatus(remote.Status); ok && status != inv.Status {
		inv.Status = status
		changed = true
	}
	if inv.Status == model.InvoiceStatusPaid && remote.PaidAt > 0 {
		paidAt := time.Unix(remote.PaidAt, 0).UTC()
		if inv.PaidAt == nil || !inv.PaidAt.Equal(paidAt) {
			inv.PaidAt = &paidAt
			changed = true
		}
	}
	if remote.HostedURL != "" && remote.HostedURL != inv.HostedURL {
		inv.HostedURL = remote.HostedURL
		changed = true
	}
	return changed
}
