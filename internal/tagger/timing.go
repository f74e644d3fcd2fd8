package tagger

import (
	"InsiderSignal/internal/model"
)

type horizonTags struct {
	days                   int
	spike, bigSpike        model.TagCode
	drawdown, deepDrawdown model.TagCode
}

var movementHorizons = []horizonTags{
	{7, model.TagSpike7d, model.TagBigSpike7d, model.TagDrawdown7d, model.TagDeepDrawdown7d},
	{14, model.TagSpike14d, model.TagBigSpike14d, model.TagDrawdown14d, model.TagDeepDrawdown14d},
	{30, model.TagSpike30d, model.TagBigSpike30d, model.TagDrawdown30d, model.TagDeepDrawdown30d},
}

var knifeHorizons = []struct {
	days int
	code model.TagCode
}{
	{7, model.TagCaughtKnife7d},
	{14, model.TagCaughtKnife14d},
}

func (t *Tagger) timingTags(trade *model.TradeRecord, ctx *model.EnrichedContext) []model.Tag {
	r := t.rules.Timing
	var tags []model.Tag

	if price, ok := referencePrice(trade, ctx); ok {
		bw := ctx.Bwd(r.LookbackDays)
		if bw.Low != nil && price <= *bw.Low*(1+r.DipProximity.Widen()) {
			tags = append(tags, model.T(model.TagDipBuy))
		}
		if bw.High != nil && price >= *bw.High*(1-r.Strength.Widen()) {
			tags = append(tags, model.T(model.TagBuyingIntoStrength))
		}
	}

	for _, h := range knifeHorizons {
		if dd := ctx.Fwd(h.days).DrawdownPct; dd != nil && *dd <= r.Knife.Ease() {
			tags = append(tags, model.T(h.code))
		}
	}

	if ctx.Close != nil && trade.Price > 0 {
		switch {
		case trade.Price > *ctx.Close:
			tags = append(tags, model.T(model.TagAboveClose))
		case trade.Price < *ctx.Close:
			tags = append(tags, model.T(model.TagBelowClose))
		}
	}

	for _, h := range movementHorizons {
		fw := ctx.Fwd(h.days)
		if g := fw.GainPct; g != nil {
			switch {
			case *g >= r.BigSpike.Ease():
				tags = append(tags, model.T(h.bigSpike))
			case *g >= r.Spike.Ease():
				tags = append(tags, model.T(h.spike))
			}
		}
		if d := fw.DrawdownPct; d != nil {
			switch {
			case *d <= r.DeepDrawdown.Ease():
				tags = append(tags, model.T(h.deepDrawdown))
			case *d <= r.Drawdown.Ease():
				tags = append(tags, model.T(h.drawdown))
			}
		}
	}
	return tags
}

// nearEarnings reports whether the next earnings date falls strictly inside
// (trade date, trade date + window).
func (t *Tagger) nearEarnings(trade *model.TradeRecord, snap *model.CompanySnapshot) bool {
	if snap == nil || snap.EarningsDate == nil {
		return false
	}
	d := model.Day(trade.TransactionDate)
	e := model.Day(*snap.EarningsDate)
	limit := d.AddDate(0, 0, t.rules.EarningsWindowDays)
	return e.After(d) && e.Before(limit)
}
