package backtest

import (
	"fmt"
	"strings"

	"InsiderSignal/internal/model"
)

// FormatTable renders a contingency table with outcome percentages rounded
// to one decimal.
func FormatTable(t Table) string {
	var b strings.Builder
	b.WriteString(t.Axis.Title())
	b.WriteString("\n")
	if len(t.Rows) == 0 {
		b.WriteString("  (no labeled trades)\n")
		return b.String()
	}

	width := len("bucket")
	for _, r := range t.Rows {
		width = max(width, len(r.Bucket))
	}
	b.WriteString(fmt.Sprintf("  %-*s %6s", width, "bucket", "n"))
	for _, o := range model.Outcomes {
		b.WriteString(fmt.Sprintf(" %13s", o))
	}
	b.WriteString("\n")
	for _, r := range t.Rows {
		b.WriteString(fmt.Sprintf("  %-*s %6d", width, r.Bucket, r.Total))
		for _, o := range model.Outcomes {
			b.WriteString(fmt.Sprintf(" %12.1f%%", r.Fractions[o]*100))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatTagStats renders the top n tag hit rates.
func FormatTagStats(stats []TagStat, n int) string {
	var b strings.Builder
	b.WriteString("Tag hit rates (case 1)\n")
	for i, s := range stats {
		if i == n {
			break
		}
		b.WriteString(fmt.Sprintf("  %-32s %5d trades  %5.1f%% of %d labeled\n", s.Tag, s.Trades, s.SuccessRate*100, s.Labeled))
	}
	return b.String()
}

// Report renders both outcome tables.
func Report(case1, case2 Table) string {
	return FormatTable(case1) + "\n" + FormatTable(case2)
}
