// Package facts assembles the role-scoped financial snapshot used to ground
// chat answers and renders it as prompt text.
package facts

import (
	"time"

	"github.com/castlemilk/wealthportal/backend/internal/model"
)

// SummaryPlaceholder replaces narratives that are missing or too short to be
// meaningful.
const SummaryPlaceholder = "Resumen no disponible para este periodo."

// minSummaryLen is the length at or below which a narrative is ignored.
const minSummaryLen = 5

// Subject identifies whose facts are being built.
type Subject struct {
	UserID string
	Role   model.Role
}

// ReportFact is the display-ready view of one report.
type ReportFact struct {
	ReportID       string
	ClientID       string
	ClientName     string
	Date           time.Time
	TotalPatrimony float64
	TotalDebt      float64
	YTDReturn      string
	MonthlyReturn  float64
	// Banks holds one "Bank: amount" line per bank, ordered by bank name.
	Banks      []string
	Summary    string
	Invoices   []*model.Invoice
	History    []model.HistoryPoint
	Allocation []model.AllocationRow
}

// ClientRank is one entry of the top-clients list.
type ClientRank struct {
	ClientID string
	Name     string
	NetWorth float64
}

// CategoryTotal is an allocation category summed across clients.
type CategoryTotal struct {
	Category string
	Value    float64
}

// GlobalMetrics are firm-wide aggregates visible to administrators.
type GlobalMetrics struct {
	TotalAUM      float64
	TotalDebt     float64
	ActiveClients int
	AverageYTD    string
	TopClients    []ClientRank
	Allocation    []CategoryTotal
}

// Facts is the per-turn snapshot of a user's (or the firm's) financial data.
// Reports are ordered newest first and LatestReport is Reports[0].
type Facts struct {
	Role          model.Role
	Profile       *model.UserProfile
	Reports       []ReportFact
	LatestReport  *ReportFact
	Invoices      []*model.Invoice
	History       []model.HistoryPoint
	GlobalMetrics *GlobalMetrics
}

// IsAdmin reports whether the facts were built for an administrator.
func (f *Facts) IsAdmin() bool {
	return f != nil && f.Role.IsAdmin()
}

// ClientNames maps client IDs to the display names resolved for the reports.
func (f *Facts) ClientNames() map[string]string {
	names := make(map[string]string, len(f.Reports))
	for _, r := range f.Reports {
		if _, ok := names[r.ClientID]; !ok {
			names[r.ClientID] = r.ClientName
		}
	}
	return names
}
