package tagger

import (
	"math"

	"InsiderSignal/internal/model"
)

func (t *Tagger) indicatorTags(trade *model.TradeRecord, ctx *model.EnrichedContext) []model.Tag {
	r := t.rules.Indicators
	var tags []model.Tag
	price, havePrice := referencePrice(trade, ctx)

	if ctx.SMA != nil && havePrice {
		if price > *ctx.SMA {
			tags = append(tags, model.T(model.TagAboveSMA))
		} else if price < *ctx.SMA {
			tags = append(tags, model.T(model.TagBelowSMA))
		}

		if ctx.PrevClose != nil && ctx.PrevSMA != nil {
			switch {
			case *ctx.PrevClose < *ctx.PrevSMA && price > *ctx.SMA:
				tags = append(tags, model.T(model.TagSMASupportReclaimed))
			case *ctx.PrevClose > *ctx.PrevSMA && price < *ctx.SMA:
				tags = append(tags, model.T(model.TagSMALost))
			}
		}
	}

	if ctx.RSI != nil {
		switch rsi := *ctx.RSI; {
		case rsi < r.Oversold:
			tags = append(tags, model.T(model.TagOversold))
		case rsi > r.Overbought:
			tags = append(tags, model.T(model.TagOverbought))
		default:
			tags = append(tags, model.T(model.TagNeutralRSI))
		}
	}

	if ctx.SMA != nil && ctx.RSI != nil && havePrice {
		if price > *ctx.SMA && *ctx.RSI > r.TrendRSI {
			tags = append(tags, model.T(model.TagStrongTrend))
		}
		if price < *ctx.SMA && *ctx.RSI < r.SetupRSI {
			tags = append(tags, model.T(model.TagDipSetup))
		}
	}

	if ctx.SMA == nil || ctx.RSI == nil {
		tags = append(tags, model.T(model.TagInsufficientData))
	}
	return tags
}

// Outcome classifies the realized case-1 outcome from the forward windows,
// falling back to the terminal gain. It returns nil when there is nothing to
// classify on.
func (t *Tagger) Outcome(ctx *model.EnrichedContext) *model.Outcome {
	r := t.rules.Outcome
	norm := func(v float64) float64 {
		if r.NormalizeFractions && math.Abs(v) < 1 {
			return v * 100
		}
		return v
	}

	best, found := math.Inf(-1), false
	for _, w := range model.ForwardHorizons {
		if g := ctx.Fwd(w).GainPct; g != nil {
			best = math.Max(best, norm(*g))
			found = true
		}
	}

	var o model.Outcome
	switch {
	case found && best >= r.SpikeThreshold:
		o = model.OutcomeSuccessful
	case ctx.FinalGain30 == nil:
		return nil
	case norm(*ctx.FinalGain30) >= r.SuccessCut:
		o = model.OutcomeSuccessful
	case norm(*ctx.FinalGain30) >= r.NeutralCut:
		o = model.OutcomeNeutral
	default:
		o = model.OutcomeUnsuccessful
	}
	return &o
}
