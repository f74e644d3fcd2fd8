package enricher

import (
	"time"

	"InsiderSignal/internal/calculator"
	"InsiderSignal/internal/model"
)

// ATRPeriod is the lookback of the volatility measure attached to each trade.
const ATRPeriod = 14

// Enricher computes market context for trades.
type Enricher struct {
	ForwardHorizons  []int
	BackwardHorizons []int
	FinalHorizon     int
}

// New returns an enricher using the standard horizons.
func New() *Enricher {
	return &Enricher{
		ForwardHorizons:  model.ForwardHorizons,
		BackwardHorizons: model.BackwardHorizons,
		FinalHorizon:     model.FinalGainHorizon,
	}
}

// Enrich builds the context of one trade. series and snap may be nil; any
// value that cannot be derived stays nil.
func (e *Enricher) Enrich(trade *model.TradeRecord, series *model.PriceSeries, snap *model.CompanySnapshot) model.EnrichedContext {
	ctx := model.EnrichedContext{
		Forward:  make(map[int]model.ForwardWindow, len(e.ForwardHorizons)),
		Backward: make(map[int]model.BackwardWindow, len(e.BackwardHorizons)),
	}
	d := model.Day(trade.TransactionDate)

	if idx := series.IndexOn(d); idx >= 0 {
		bar := series.Bars[idx]
		ctx.Open = model.Float(bar.Open)
		ctx.Close = model.Float(bar.Close)
		ctx.High = model.Float(bar.High)
		ctx.Low = model.Float(bar.Low)
		ctx.SMA = bar.SMA
		ctx.RSI = bar.RSI

		if atr, err := calculator.CalculateATR(series.Bars, idx, ATRPeriod); err == nil {
			ctx.ATR14 = model.Float(atr)
			if bar.Close > 0 {
				ctx.ATR14Pct = model.Float(atr / bar.Close)
			}
		}
	}

	if prev, ok := series.BarOn(calculator.PrevBusinessDay(d)); ok {
		ctx.PrevClose = model.Float(prev.Close)
		ctx.PrevSMA = prev.SMA
		ctx.PrevRSI = prev.RSI
	}

	for _, w := range e.ForwardHorizons {
		ctx.Forward[w] = forwardWindow(series, d, w, trade.Price)
	}
	for _, n := range e.BackwardHorizons {
		ctx.Backward[n] = backwardWindow(series, d, n)
	}

	if trade.Price > 0 {
		if last, ok := forwardLast(series, d, e.FinalHorizon); ok {
			ctx.FinalGain30 = model.Float(pct(last.Close, trade.Price))
		}
	}

	ctx.OwnershipPct = OwnershipPct(trade.Value, snap)
	return ctx
}

// OwnershipPct is trade value over market cap, or nil when either is
// missing or zero.
func OwnershipPct(value float64, snap *model.CompanySnapshot) *float64 {
	if snap == nil || snap.MarketCap == nil || *snap.MarketCap == 0 || value == 0 {
		return nil
	}
	return model.Float(value / *snap.MarketCap)
}

func pct(v, price float64) float64 {
	return (v - price) / price * 100
}

// forwardBars returns the bars in (d, d+w] when the window is complete: it is
// non-empty and the series itself reaches d+w−1. Coverage is judged on the
// series, so a window ending on a weekend or holiday still counts.
func forwardBars(series *model.PriceSeries, d time.Time, w int) []model.PriceBar {
	end := d.AddDate(0, 0, w)
	bars := series.Between(d, end, true)
	if len(bars) == 0 || series.Bars[len(series.Bars)-1].Date.Before(end.AddDate(0, 0, -1)) {
		return nil
	}
	return bars
}

func forwardLast(series *model.PriceSeries, d time.Time, w int) (model.PriceBar, bool) {
	bars := forwardBars(series, d, w)
	if bars == nil {
		return model.PriceBar{}, false
	}
	return bars[len(bars)-1], true
}

func forwardWindow(series *model.PriceSeries, d time.Time, w int, price float64) model.ForwardWindow {
	bars := forwardBars(series, d, w)
	if bars == nil {
		return model.ForwardWindow{}
	}
	high, low, err := calculator.WindowRange(bars)
	if err != nil {
		return model.ForwardWindow{}
	}
	fw := model.ForwardWindow{High: model.Float(high), Low: model.Float(low)}
	if price > 0 {
		fw.GainPct = model.Float(pct(high, price))
		fw.DrawdownPct = model.Float(pct(low, price))
	}
	return fw
}

// backwardWindow covers [d−n, d). It is complete when non-empty and the
// series starts on or before d−n+1.
func backwardWindow(series *model.PriceSeries, d time.Time, n int) model.BackwardWindow {
	start := d.AddDate(0, 0, -n)
	bars := series.Between(start, d, false)
	if len(bars) == 0 || series.Bars[0].Date.After(start.AddDate(0, 0, 1)) {
		return model.BackwardWindow{}
	}
	high, low, err := calculator.WindowRange(bars)
	if err != nil {
		return model.BackwardWindow{}
	}
	return model.BackwardWindow{High: model.Float(high), Low: model.Float(low)}
}
