package enricher

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"InsiderSignal/internal/model"
)

// NoiseFilter drops enriched trades that look like data artifacts. A zero
// threshold disables the corresponding check.
type NoiseFilter struct {
	// MaxSplitRatio drops trades whose price and same-day open differ by more
	// than this ratio, a sign of an unadjusted split or merger. Typical: 1.70.
	MaxSplitRatio float64 `yaml:"max_split_ratio"`
	// MinATRPct drops trades in names whose 14-day ATR as a fraction of the
	// close is below this value. Typical: 0.02.
	MinATRPct float64 `yaml:"min_atr_pct"`
}

// Enabled reports whether any check is configured.
func (f NoiseFilter) Enabled() bool {
	return f.MaxSplitRatio > 0 || f.MinATRPct > 0
}

// Reason returns why a trade should be dropped, or "" to keep it.
func (f NoiseFilter) Reason(trade *model.TradeRecord, ctx *model.EnrichedContext) string {
	if f.MaxSplitRatio > 0 && ctx.Open != nil && *ctx.Open > 0 && trade.Price > 0 {
		ratio := math.Max(trade.Price, *ctx.Open) / math.Min(trade.Price, *ctx.Open)
		if ratio > f.MaxSplitRatio {
			return fmt.Sprintf("split/merger anomaly: price %.2f vs open %.2f", trade.Price, *ctx.Open)
		}
	}
	if f.MinATRPct > 0 && ctx.ATR14Pct != nil && *ctx.ATR14Pct < f.MinATRPct {
		return fmt.Sprintf("low volatility: ATR %.2f%% of close", *ctx.ATR14Pct*100)
	}
	return ""
}

// Apply removes noisy trades and returns the survivors and the number dropped.
func (f NoiseFilter) Apply(trades []model.ScoredTrade) ([]model.ScoredTrade, int) {
	if !f.Enabled() {
		return trades, 0
	}
	kept := trades[:0:0]
	for i := range trades {
		t := &trades[i]
		if reason := f.Reason(&t.TradeRecord, &t.Context); reason != "" {
			log.Debug().Str("ticker", t.Ticker).Time("date", t.TransactionDate).Str("reason", reason).Msg("noise filter drop")
			continue
		}
		kept = append(kept, *t)
	}
	if dropped := len(trades) - len(kept); dropped > 0 {
		log.Info().Int("dropped", dropped).Int("kept", len(kept)).Msg("noise filter applied")
	}
	return kept, len(trades) - len(kept)
}
