package facts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castlemilk/wealthportal/backend/internal/model"
)

func TestComputeGlobalMetrics_OneLatestReportPerClient(t *testing.T) {
	reports := []ReportFact{
		{ClientID: "A", ClientName: "Ana", Date: day(2024, 1, 31), TotalPatrimony: 100, TotalDebt: 10, YTDReturn: "1.00%"},
		{ClientID: "A", ClientName: "Ana", Date: day(2024, 3, 31), TotalPatrimony: 300, TotalDebt: 30, YTDReturn: "3.00%"},
		{ClientID: "B", ClientName: "Bea", Date: day(2024, 2, 29), TotalPatrimony: 50, TotalDebt: 5, YTDReturn: "5.00%"},
		{ClientID: "A", ClientName: "Ana", Date: day(2024, 2, 29), TotalPatrimony: 200, TotalDebt: 20, YTDReturn: "2.00%"},
	}

	m := ComputeGlobalMetrics(reports)
	require.NotNil(t, m)
	assert.Equal(t, 2, m.ActiveClients)
	assert.InDelta(t, 350.0, m.TotalAUM, 1e-9)
	assert.InDelta(t, 35.0, m.TotalDebt, 1e-9)
	assert.Equal(t, "4.00%", m.AverageYTD)
	require.Len(t, m.TopClients, 2)
	assert.Equal(t, "Ana", m.TopClients[0].Name)
	assert.Equal(t, 300.0, m.TopClients[0].NetWorth)
}

func TestComputeGlobalMetrics_AverageYTD(t *testing.T) {
	tests := []struct {
		name string
		ytds []string
		want string
	}{
		{"no numeric values", []string{"", "n/a"}, "0%"},
		{"non-numeric excluded", []string{"2%", "n/a", "4,5%"}, "3.25%"},
		{"negative", []string{"-1.5%"}, "-1.50%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var reports []ReportFact
			for i, y := range tt.ytds {
				reports = append(reports, ReportFact{ClientID: string(rune('a' + i)), YTDReturn: y})
			}
			assert.Equal(t, tt.want, ComputeGlobalMetrics(reports).AverageYTD)
		})
	}
}

func TestComputeGlobalMetrics_TopFiveAndAllocation(t *testing.T) {
	var reports []ReportFact
	for i := 0; i < 7; i++ {
		reports = append(reports, ReportFact{
			ClientID:       string(rune('a' + i)),
			ClientName:     string(rune('A' + i)),
			TotalPatrimony: float64(i * 100),
			Allocation: []model.AllocationRow{
				{Category: "RV USA", Value: 10},
				{Category: "Liquidez", Value: float64(i)},
				{Category: "Total", Value: 1000},
			},
		})
	}

	m := ComputeGlobalMetrics(reports)
	require.Len(t, m.TopClients, 5)
	assert.Equal(t, "G", m.TopClients[0].Name)
	assert.Equal(t, "C", m.TopClients[4].Name)

	require.Len(t, m.Allocation, 2, "Total row is excluded")
	assert.Equal(t, CategoryTotal{Category: "RV USA", Value: 70}, m.Allocation[0])
	assert.Equal(t, CategoryTotal{Category: "Liquidez", Value: 21}, m.Allocation[1])
}

func TestComputeGlobalMetrics_Empty(t *testing.T) {
	assert.Nil(t, ComputeGlobalMetrics(nil))
}
