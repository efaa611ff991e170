// Package eval provides an evaluation framework for comparing profit
// extraction strategies (layered rules, single rules) against ground-truth
// statement fixtures.
package eval

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/castlemilk/wealthportal/backend/internal/model"
)

// GroundTruth represents expected extraction output for a fixture.
type GroundTruth struct {
	Name  string         `json:"name"`
	Items []ExpectedItem `json:"items"`
}

// ExpectedItem is a single expected profit item.
type ExpectedItem struct {
	Label    string  `json:"label"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Source   string  `json:"source"`
}

// EvalResult holds metrics from running one strategy on one fixture.
type EvalResult struct {
	Strategy       string
	Fixture        string
	ItemCount      CountMetrics
	SourceAccuracy float64
	LabelAccuracy  float64
	OverallScore   float64
	Duration       time.Duration
	Error          string // non-empty if the strategy failed
}

// CountMetrics measures item detection performance.
type CountMetrics struct {
	Expected  int
	Extracted int
	Matched   int
	Precision float64
	Recall    float64
	F1        float64
}

type itemPair struct {
	extracted model.ProfitItem
	truth     ExpectedItem
}

// StrategyFunc is the signature for a profit extraction strategy.
type StrategyFunc func(ctx context.Context, text string) ([]model.ProfitItem, error)

// ComputeMetrics compares extracted items against ground truth.
func ComputeMetrics(strategy, fixture string, extracted []model.ProfitItem, truth *GroundTruth, duration time.Duration) *EvalResult {
	result := &EvalResult{
		Strategy: strategy,
		Fixture:  fixture,
		Duration: duration,
	}

	matched := matchItems(extracted, truth.Items)

	result.ItemCount = CountMetrics{
		Expected:  len(truth.Items),
		Extracted: len(extracted),
		Matched:   len(matched),
	}
	if len(extracted) > 0 {
		result.ItemCount.Precision = float64(len(matched)) / float64(len(extracted))
	}
	if len(truth.Items) > 0 {
		result.ItemCount.Recall = float64(len(matched)) / float64(len(truth.Items))
	} else if len(extracted) == 0 {
		// nothing expected, nothing found
		result.ItemCount.Precision, result.ItemCount.Recall = 1, 1
	}
	p, r := result.ItemCount.Precision, result.ItemCount.Recall
	if p+r > 0 {
		result.ItemCount.F1 = 2 * p * r / (p + r)
	}

	if len(matched) > 0 {
		var sourceOK, labelOK int
		for _, pair := range matched {
			if strings.EqualFold(strings.TrimSpace(pair.extracted.Source), strings.TrimSpace(pair.truth.Source)) {
				sourceOK++
			}
			if strings.EqualFold(pair.extracted.Label, pair.truth.Label) {
				labelOK++
			}
		}
		result.SourceAccuracy = float64(sourceOK) / float64(len(matched))
		result.LabelAccuracy = float64(labelOK) / float64(len(matched))
	} else if len(truth.Items) == 0 && len(extracted) == 0 {
		result.SourceAccuracy, result.LabelAccuracy = 1, 1
	}

	result.OverallScore = 0.6*result.ItemCount.F1 +
		0.25*result.SourceAccuracy +
		0.15*result.LabelAccuracy

	return result
}

// matchItems pairs extracted items to ground truth by currency and amount,
// preferring a truth item with the same source.
func matchItems(extracted []model.ProfitItem, truth []ExpectedItem) []itemPair {
	truthUsed := make([]bool, len(truth))
	var matched []itemPair

	for _, ext := range extracted {
		bestIdx := -1
		bestScore := -1.0
		for j, tr := range truth {
			if truthUsed[j] {
				continue
			}
			if !strings.EqualFold(ext.Currency, tr.Currency) || !amountMatch(ext.Amount, tr.Amount) {
				continue
			}
			score := 1.0
			if strings.EqualFold(ext.Source, tr.Source) {
				score += 1.0
			}
			if strings.EqualFold(ext.Label, tr.Label) {
				score += 0.5
			}
			if score > bestScore {
				bestScore = score
				bestIdx = j
			}
		}
		if bestIdx >= 0 {
			truthUsed[bestIdx] = true
			matched = append(matched, itemPair{extracted: ext, truth: truth[bestIdx]})
		}
	}
	return matched
}

// amountMatch returns true if amounts agree to the cent.
func amountMatch(a, b float64) bool {
	return math.Abs(a-b) < 0.005
}

// RunEval runs every strategy over every fixture.
func RunEval(ctx context.Context, fixtures []*Fixture, strategies map[string]StrategyFunc) []*EvalResult {
	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	sort.Strings(names)

	var results []*EvalResult
	for _, fixture := range fixtures {
		for _, name := range names {
			start := time.Now()
			items, err := strategies[name](ctx, fixture.Text)
			elapsed := time.Since(start)

			if err != nil {
				results = append(results, &EvalResult{
					Strategy: name,
					Fixture:  fixture.Name,
					Duration: elapsed,
					Error:    err.Error(),
				})
				continue
			}
			results = append(results, ComputeMetrics(name, fixture.Name, items, fixture.GroundTruth, elapsed))
		}
	}
	return results
}

// PrintSummary outputs a formatted comparison table to an io.Writer.
func PrintSummary(w io.Writer, results []*EvalResult) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "Strategy\tFixture\tF1\tSrc%\tLabel%\tScore\tTime\tMatch\tError")
	fmt.Fprintln(tw, "--------\t-------\t--\t----\t------\t-----\t----\t-----\t-----")

	for _, r := range results {
		errStr := ""
		if r.Error != "" {
			errStr = truncate(r.Error, 30)
		}
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.0f%%\t%.0f%%\t%.2f\t%s\t%s\t%s\n",
			r.Strategy,
			r.Fixture,
			r.ItemCount.F1,
			r.SourceAccuracy*100,
			r.LabelAccuracy*100,
			r.OverallScore,
			r.Duration.Round(time.Microsecond),
			fmt.Sprintf("%d/%d", r.ItemCount.Matched, r.ItemCount.Expected),
			errStr,
		)
	}
	tw.Flush()

	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Strategy Averages ===")

	scores := make(map[string][]float64)
	f1s := make(map[string][]float64)
	for _, r := range results {
		if r.Error == "" {
			scores[r.Strategy] = append(scores[r.Strategy], r.OverallScore)
			f1s[r.Strategy] = append(f1s[r.Strategy], r.ItemCount.F1)
		}
	}
	names := make([]string, 0, len(scores))
	for name := range scores {
		names = append(names, name)
	}
	sort.Strings(names)

	tw2 := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw2, "Strategy\tAvg Score\tAvg F1\tFixtures")
	fmt.Fprintln(tw2, "--------\t---------\t------\t--------")
	for _, name := range names {
		fmt.Fprintf(tw2, "%s\t%.3f\t%.3f\t%d\n", name, avg(scores[name]), avg(f1s[name]), len(scores[name]))
	}
	tw2.Flush()
}

func avg(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
