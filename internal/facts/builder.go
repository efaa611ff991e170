package facts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/castlemilk/wealthportal/backend/internal/model"
	"github.com/castlemilk/wealthportal/backend/internal/store"
)

// adminWindow is how far back administrators see reports.
const adminWindow = 10 * 365 * 24 * time.Hour

// Source is the read access the builder needs.
type Source interface {
	GetUser(ctx context.Context, userID string) (*model.UserProfile, error)
	ListReports(ctx context.Context, since, until time.Time) ([]*model.Report, error)
	ListReportsByClient(ctx context.Context, clientID string) ([]*model.Report, error)
	ListHistoryUntil(ctx context.Context, until time.Time) ([]model.HistoryPoint, error)
	ListHistoryByClient(ctx context.Context, clientID string) ([]model.HistoryPoint, error)
	ListInvoices(ctx context.Context) ([]*model.Invoice, error)
	ListInvoicesByClient(ctx context.Context, clientID string) ([]*model.Invoice, error)
}

// Builder assembles Facts from persisted reports, history and invoices.
type Builder struct {
	source Source
	logger *slog.Logger
	now    func() time.Time
}

// NewBuilder creates a facts builder.
func NewBuilder(source Source, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{source: source, logger: logger, now: time.Now}
}

// Build loads everything visible to the subject and derives its Facts.
// Administrators see every client; clients see only their own data.
func (b *Builder) Build(ctx context.Context, subject Subject) (*Facts, error) {
	if subject.UserID == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	now := b.now()
	admin := subject.Role.IsAdmin()

	profile, err := b.source.GetUser(ctx, subject.UserID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("failed to load profile: %w", err)
		}
		profile = &model.UserProfile{ID: subject.UserID, Role: subject.Role}
	}

	var (
		reports  []*model.Report
		history  []model.HistoryPoint
		invoices []*model.Invoice
	)
	if admin {
		reports, err = b.source.ListReports(ctx, now.Add(-adminWindow), now)
	} else {
		reports, err = b.source.ListReportsByClient(ctx, subject.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load reports: %w", err)
	}
	store.SortReportsNewestFirst(reports)

	if admin {
		history, err = b.source.ListHistoryUntil(ctx, now)
	} else {
		history, err = b.source.ListHistoryByClient(ctx, subject.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	if admin {
		invoices, err = b.source.ListInvoices(ctx)
	} else {
		invoices, err = b.source.ListInvoicesByClient(ctx, subject.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load invoices: %w", err)
	}
	invoiceByID := make(map[string]*model.Invoice, len(invoices))
	for _, inv := range invoices {
		invoiceByID[inv.ID] = inv
	}

	currency := profile.PreferredCurrency
	facts := &Facts{
		Role:     subject.Role,
		Profile:  profile,
		Invoices: invoices,
		History:  history,
		Reports:  make([]ReportFact, 0, len(reports)),
	}
	for _, r := range reports {
		rf := deriveReportFact(r, reports, currency)
		if inv, ok := invoiceByID[r.InvoiceID]; ok && r.InvoiceID != "" {
			rf.Invoices = []*model.Invoice{inv}
		}
		rf.History = history
		facts.Reports = append(facts.Reports, rf)
	}
	if len(facts.Reports) > 0 {
		facts.LatestReport = &facts.Reports[0]
	}
	if admin && len(facts.Reports) > 0 {
		facts.GlobalMetrics = ComputeGlobalMetrics(facts.Reports)
	}

	b.logger.Debug("[facts] built facts",
		"user_id", subject.UserID,
		"role", subject.Role,
		"reports", len(facts.Reports),
		"history_points", len(history),
		"invoices", len(invoices),
	)
	return facts, nil
}

func deriveReportFact(r *model.Report, siblings []*model.Report, currency string) ReportFact {
	rf := ReportFact{
		ReportID:   r.ID,
		ClientID:   r.ClientID,
		ClientName: resolveClientName(r.ClientID, siblings),
		Date:       r.Date,
		Allocation: r.ParentAllocation,
		Summary:    SummaryPlaceholder,
	}

	summary := r.ExecutiveSummary
	if summary != nil && summary.TotalNetWorth != nil {
		rf.TotalPatrimony = *summary.TotalNetWorth
	} else if r.Snapshot != nil {
		rf.TotalPatrimony = r.Snapshot.NetWorth
	}
	if summary != nil && summary.TotalDebt != nil {
		rf.TotalDebt = *summary.TotalDebt
	} else if r.Snapshot != nil {
		rf.TotalDebt = math.Abs(r.Snapshot.Debt)
	}

	if summary != nil {
		rf.YTDReturn = summary.YTDReturn
		rf.Banks = formatBanks(summary.Banks, currency)
	}
	if n := len(r.History); n > 0 {
		last := r.History[n-1]
		rf.MonthlyReturn = last.MonthlyReturnPct
		if last.YTDReturnPct != nil {
			rf.YTDReturn = FormatPercent(*last.YTDReturnPct)
		}
	}

	if text := strings.TrimSpace(r.Narrative); len([]rune(text)) > minSummaryLen {
		rf.Summary = text
	}
	return rf
}

// resolveClientName finds a display name for clientID among the loaded
// reports, falling back to the ID itself.
func resolveClientName(clientID string, reports []*model.Report) string {
	for _, r := range reports {
		if r.ClientID == clientID && strings.TrimSpace(r.ClientName) != "" {
			return strings.TrimSpace(r.ClientName)
		}
	}
	return clientID
}

func formatBanks(banks map[string]model.BankPosition, currency string) []string {
	if len(banks) == 0 {
		return nil
	}
	names := make([]string, 0, len(banks))
	for name := range banks {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, fmt.Sprintf("%s: %s", name, FormatCurrency(banks[name].NetWorth, currency)))
	}
	return out
}
