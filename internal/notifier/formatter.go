package notifier

import (
	"fmt"
	"html"
	"strings"

	"InsiderSignal/internal/backtest"
	"InsiderSignal/internal/model"
	"InsiderSignal/internal/pipeline"
)

// FormatRunDigest formats a pipeline result into a Telegram message.
func FormatRunDigest(res *pipeline.Result) string {
	s := res.Summary
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>InsiderSignal run</b> | %s\n\n", s.StartedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Trades: %d (dropped %d, excluded %d, noise %d)\n", s.Trades, s.Dropped, s.Excluded, s.NoiseDropped))
	b.WriteString(fmt.Sprintf("Scored: %d | ignored: %d\n", s.Scored, s.Ignored))
	b.WriteString(fmt.Sprintf("Labeled: %d | unlabeled: %d\n", s.Labeled, s.Unlabeled))
	b.WriteString(fmt.Sprintf("Patterns: 🔁 %d  🧩 %d  🧠 %d\n\n", res.Patterns.Cluster, res.Patterns.Multiple, res.Patterns.Smart))

	b.WriteString("<pre>")
	b.WriteString(html.EscapeString(backtest.Report(res.Case1, res.Case2)))
	b.WriteString("</pre>\n")

	if len(res.RefreshErrors) > 0 {
		b.WriteString(fmt.Sprintf("\n⚠️ price refresh failed for %d tickers\n", len(res.RefreshErrors)))
	}
	return b.String()
}

// FormatHighConviction lists up to limit trades from the top buckets.
func FormatHighConviction(trades []model.ScoredTrade, limit int) string {
	if len(trades) == 0 {
		return "No high-conviction trades in the last run."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔥 <b>High conviction</b> (%d)\n\n", len(trades)))
	for i, t := range trades {
		if i == limit {
			b.WriteString(fmt.Sprintf("… and %d more\n", len(trades)-limit))
			break
		}
		b.WriteString(fmt.Sprintf("<b>%s</b> %s | %s | score %d (%s)\n",
			html.EscapeString(t.Ticker),
			t.TransactionDate.Format("2006-01-02"),
			html.EscapeString(t.InsiderName),
			t.Score, t.Bucket))
	}
	return b.String()
}
