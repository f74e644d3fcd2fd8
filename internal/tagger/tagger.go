// Package tagger derives categorical tags for a single trade from the trade
// itself, its company snapshot and its enriched market context.
package tagger

import (
	"InsiderSignal/internal/model"
)

// Threshold is a nominal cut-off plus a multiplicative slack factor.
type Threshold struct {
	Nominal float64 `yaml:"nominal"`
	Slack   float64 `yaml:"slack"`
}

// Widen moves a proximity band outward: nominal × (1 + slack).
func (t Threshold) Widen() float64 { return t.Nominal * (1 + t.Slack) }

// Ease pulls a magnitude threshold toward zero: nominal × (1 − slack).
func (t Threshold) Ease() float64 { return t.Nominal * (1 - t.Slack) }

// TimingRules configures the price-timing checks. Proximity values are
// fractions of price; spike and drawdown values are percentages.
type TimingRules struct {
	LookbackDays int       `yaml:"lookback_days"`
	DipProximity Threshold `yaml:"dip_proximity"`
	Strength     Threshold `yaml:"strength_proximity"`
	Knife        Threshold `yaml:"knife"`
	Spike        Threshold `yaml:"spike"`
	BigSpike     Threshold `yaml:"big_spike"`
	Drawdown     Threshold `yaml:"drawdown"`
	DeepDrawdown Threshold `yaml:"deep_drawdown"`
}

// IndicatorRules holds the RSI bands and confluence cut-offs.
type IndicatorRules struct {
	Oversold   float64 `yaml:"oversold"`
	Overbought float64 `yaml:"overbought"`
	TrendRSI   float64 `yaml:"trend_rsi"`
	SetupRSI   float64 `yaml:"setup_rsi"`
}

// OutcomeRules classifies the realized case-1 outcome.
type OutcomeRules struct {
	SpikeThreshold float64 `yaml:"spike_threshold"`
	SuccessCut     float64 `yaml:"success_cut"`
	NeutralCut     float64 `yaml:"neutral_cut"`
	// NormalizeFractions treats any gain with magnitude below 1 as a
	// fraction and scales it by 100.
	NormalizeFractions bool `yaml:"normalize_fractions"`
}

// Rules is the full tagger configuration.
type Rules struct {
	Timing             TimingRules    `yaml:"timing"`
	Indicators         IndicatorRules `yaml:"indicators"`
	Outcome            OutcomeRules   `yaml:"outcome"`
	EarningsWindowDays int            `yaml:"earnings_window_days"`
}

// DefaultRules returns the standard rule set.
func DefaultRules() Rules {
	return Rules{
		Timing: TimingRules{
			LookbackDays: 15,
			DipProximity: Threshold{Nominal: 0.05, Slack: 0.10},
			Strength:     Threshold{Nominal: 0.05, Slack: 0.10},
			Knife:        Threshold{Nominal: -10, Slack: 0.15},
			Spike:        Threshold{Nominal: 10, Slack: 0.10},
			BigSpike:     Threshold{Nominal: 20, Slack: 0.10},
			Drawdown:     Threshold{Nominal: -10, Slack: 0.10},
			DeepDrawdown: Threshold{Nominal: -20, Slack: 0.10},
		},
		Indicators: IndicatorRules{
			Oversold:   30,
			Overbought: 70,
			TrendRSI:   60,
			SetupRSI:   40,
		},
		Outcome: OutcomeRules{
			SpikeThreshold:     10,
			SuccessCut:         10,
			NeutralCut:         3,
			NormalizeFractions: true,
		},
		EarningsWindowDays: 14,
	}
}

// Tagger applies the rule families in a fixed order.
type Tagger struct {
	rules Rules
}

// New creates a tagger.
func New(rules Rules) *Tagger {
	return &Tagger{rules: rules}
}

// Tag returns the tags for one trade in family order: role, size, cap,
// sector, timing, indicators, earnings, outcome. snap and ctx may be nil.
func (t *Tagger) Tag(trade *model.TradeRecord, snap *model.CompanySnapshot, ctx *model.EnrichedContext) []model.Tag {
	if ctx == nil {
		ctx = &model.EnrichedContext{}
	}
	var tags []model.Tag
	if tag, ok := RoleTag(trade.Relationship); ok {
		tags = append(tags, tag)
	}
	if tag, ok := SizeTag(trade.Value, snap); ok {
		tags = append(tags, tag)
	}
	tags = append(tags, CapTag(snap))
	if tag, ok := SectorTagFor(snap); ok {
		tags = append(tags, tag)
	}
	tags = append(tags, t.timingTags(trade, ctx)...)
	tags = append(tags, t.indicatorTags(trade, ctx)...)
	if t.nearEarnings(trade, snap) {
		tags = append(tags, model.T(model.TagNearEarnings))
	}
	if o := t.Outcome(ctx); o != nil {
		tags = append(tags, o.Case1Tag())
	}
	return tags
}

// TagAll appends the derived tags to every trade.
func (t *Tagger) TagAll(trades []model.ScoredTrade, snapshots map[string]model.CompanySnapshot) {
	for i := range trades {
		tr := &trades[i]
		var snap *model.CompanySnapshot
		if s, ok := snapshots[tr.Ticker]; ok {
			snap = &s
		}
		tr.Tags = append(tr.Tags, t.Tag(&tr.TradeRecord, snap, &tr.Context)...)
	}
}

// referencePrice is the trade price, or the same-day close when the trade
// price is unusable.
func referencePrice(trade *model.TradeRecord, ctx *model.EnrichedContext) (float64, bool) {
	if trade.Price > 0 {
		return trade.Price, true
	}
	if ctx.Close != nil && *ctx.Close > 0 {
		return *ctx.Close, true
	}
	return 0, false
}
