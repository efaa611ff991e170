package facts

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/castlemilk/wealthportal/backend/internal/model"
)

const topClientsLimit = 5

// ComputeGlobalMetrics aggregates the most recent report of each client.
func ComputeGlobalMetrics(reports []ReportFact) *GlobalMetrics {
	if len(reports) == 0 {
		return nil
	}

	latest := latestPerClient(reports)

	aum := decimal.Zero
	debt := decimal.Zero
	ytdSum := decimal.Zero
	ytdCount := 0
	byCategory := make(map[string]decimal.Decimal)
	ranks := make([]ClientRank, 0, len(latest))

	for _, r := range latest {
		aum = aum.Add(decimal.NewFromFloat(r.TotalPatrimony))
		debt = debt.Add(decimal.NewFromFloat(r.TotalDebt))
		if v, ok := ParsePercent(r.YTDReturn); ok {
			ytdSum = ytdSum.Add(decimal.NewFromFloat(v))
			ytdCount++
		}
		for _, row := range r.Allocation {
			if strings.EqualFold(strings.TrimSpace(row.Category), model.TotalCategory) {
				continue
			}
			byCategory[row.Category] = byCategory[row.Category].Add(decimal.NewFromFloat(row.Value))
		}
		ranks = append(ranks, ClientRank{ClientID: r.ClientID, Name: r.ClientName, NetWorth: r.TotalPatrimony})
	}

	sort.SliceStable(ranks, func(i, j int) bool { return ranks[i].NetWorth > ranks[j].NetWorth })
	if len(ranks) > topClientsLimit {
		ranks = ranks[:topClientsLimit]
	}

	alloc := make([]CategoryTotal, 0, len(byCategory))
	for cat, v := range byCategory {
		f, _ := v.Float64()
		alloc = append(alloc, CategoryTotal{Category: cat, Value: f})
	}
	sort.Slice(alloc, func(i, j int) bool {
		if alloc[i].Value != alloc[j].Value {
			return alloc[i].Value > alloc[j].Value
		}
		return alloc[i].Category < alloc[j].Category
	})

	avg := "0%"
	if ytdCount > 0 {
		f, _ := ytdSum.Div(decimal.NewFromInt(int64(ytdCount))).Float64()
		avg = FormatPercent(f)
	}

	totalAUM, _ := aum.Float64()
	totalDebt, _ := debt.Float64()
	return &GlobalMetrics{
		TotalAUM:      totalAUM,
		TotalDebt:     totalDebt,
		ActiveClients: len(latest),
		AverageYTD:    avg,
		TopClients:    ranks,
		Allocation:    alloc,
	}
}

// latestPerClient keeps the most recent report of each client, in first-seen
// client order.
func latestPerClient(reports []ReportFact) []ReportFact {
	index := make(map[string]int)
	var out []ReportFact
	for _, r := range reports {
		i, ok := index[r.ClientID]
		if !ok {
			index[r.ClientID] = len(out)
			out = append(out, r)
			continue
		}
		if r.Date.After(out[i].Date) {
			out[i] = r
		}
	}
	return out
}
