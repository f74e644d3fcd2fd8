package enricher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"InsiderSignal/internal/calculator"
	"InsiderSignal/internal/model"
)

func day(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

// dailySeries has one bar per calendar day from start to end inclusive, each
// with high 11, low 9 and close 10.
func dailySeries(start, end string) *model.PriceSeries {
	s := &model.PriceSeries{Ticker: "ABC"}
	for d := day(start); !d.After(day(end)); d = d.AddDate(0, 0, 1) {
		s.Bars = append(s.Bars, model.PriceBar{Date: d, Open: 10, High: 11, Low: 9, Close: 10})
	}
	return s
}

// tradingSeries has one bar per market business day from start to end.
func tradingSeries(start, end string) *model.PriceSeries {
	s := &model.PriceSeries{Ticker: "ABC"}
	for d := day(start); !d.After(day(end)); d = d.AddDate(0, 0, 1) {
		if calculator.IsBusinessDay(d) {
			s.Bars = append(s.Bars, model.PriceBar{Date: d, Open: 10, High: 11, Low: 9, Close: 10})
		}
	}
	return s
}

func setBar(s *model.PriceSeries, date string, fn func(b *model.PriceBar)) {
	i := s.IndexOn(day(date))
	if i < 0 {
		panic("no bar on " + date)
	}
	fn(&s.Bars[i])
}

func trade(date string, price float64) *model.TradeRecord {
	return &model.TradeRecord{Ticker: "ABC", TransactionDate: day(date), Price: price, Value: 100_000}
}

func TestForwardWindow_IncompleteWhenCacheEndsEarly(t *testing.T) {
	// D = 2024-03-10, last cached bar at D+5.
	s := dailySeries("2024-02-20", "2024-03-15")
	ctx := New().Enrich(trade("2024-03-10", 10), s, nil)

	fw := ctx.Fwd(7)
	assert.Nil(t, fw.High)
	assert.Nil(t, fw.Low)
	assert.Nil(t, fw.GainPct)
	assert.Nil(t, fw.DrawdownPct)
	assert.Nil(t, ctx.Fwd(14).GainPct)
	assert.Nil(t, ctx.FinalGain30)
}

func TestForwardWindow_CompleteThroughDPlus13(t *testing.T) {
	s := dailySeries("2024-02-20", "2024-03-23")
	setBar(s, "2024-03-20", func(b *model.PriceBar) { b.High, b.Low = 15, 8 })
	ctx := New().Enrich(trade("2024-03-10", 10), s, nil)

	fw14 := ctx.Fwd(14)
	require.NotNil(t, fw14.GainPct)
	require.NotNil(t, fw14.DrawdownPct)
	assert.InDelta(t, 50.0, *fw14.GainPct, 1e-9)
	assert.InDelta(t, -20.0, *fw14.DrawdownPct, 1e-9)
	assert.Equal(t, 15.0, *fw14.High)

	fw7 := ctx.Fwd(7)
	require.NotNil(t, fw7.GainPct)
	assert.InDelta(t, 10.0, *fw7.GainPct, 1e-9)
	assert.InDelta(t, -10.0, *fw7.DrawdownPct, 1e-9)

	assert.Nil(t, ctx.Fwd(30).GainPct, "other windows are unaffected")
}

func TestForwardWindow_ToleratesOneMissingTrailingDay(t *testing.T) {
	// Bars through D+6 satisfy a 7-day window.
	s := dailySeries("2024-02-20", "2024-03-16")
	ctx := New().Enrich(trade("2024-03-10", 10), s, nil)
	assert.NotNil(t, ctx.Fwd(7).GainPct)
}

func TestWindows_OnTradingCalendar(t *testing.T) {
	full := tradingSeries("2024-01-02", "2024-06-28")
	tests := []struct {
		name     string
		series   *model.PriceSeries
		date     string
		fwd      int
		bwd      int
		complete bool
	}{
		{"thursday 30d", full, "2024-03-07", 30, 0, true},
		{"friday 30d ends on sunday", full, "2024-03-08", 30, 0, true},
		{"7d ends on memorial day", full, "2024-05-20", 7, 0, true},
		{"14d ends on memorial day", full, "2024-05-13", 14, 0, true},
		{"15d lookback starts on mlk day", full, "2024-01-29", 0, 15, true},
		{"history stops short of d+29", tradingSeries("2024-01-02", "2024-04-05"), "2024-03-08", 30, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := New().Enrich(trade(tt.date, 10), tt.series, nil)
			if tt.fwd > 0 {
				fw := ctx.Fwd(tt.fwd)
				assert.Equal(t, tt.complete, fw.GainPct != nil)
				assert.Equal(t, tt.complete, fw.DrawdownPct != nil)
				if tt.fwd == model.FinalGainHorizon {
					assert.Equal(t, tt.complete, ctx.FinalGain30 != nil)
				}
			}
			if tt.bwd > 0 {
				bw := ctx.Bwd(tt.bwd)
				assert.Equal(t, tt.complete, bw.Low != nil)
				assert.Equal(t, tt.complete, bw.High != nil)
			}
		})
	}
}

func TestFinalGain30(t *testing.T) {
	s := dailySeries("2024-02-20", "2024-04-09")
	setBar(s, "2024-04-09", func(b *model.PriceBar) { b.Close = 12 })
	ctx := New().Enrich(trade("2024-03-10", 10), s, nil)
	require.NotNil(t, ctx.FinalGain30)
	assert.InDelta(t, 20.0, *ctx.FinalGain30, 1e-9)
}

func TestBackwardWindow(t *testing.T) {
	s := dailySeries("2024-02-20", "2024-03-12")
	setBar(s, "2024-03-05", func(b *model.PriceBar) { b.Low = 7 })
	ctx := New().Enrich(trade("2024-03-10", 10), s, nil)

	bw := ctx.Bwd(7)
	require.NotNil(t, bw.Low)
	assert.Equal(t, 7.0, *bw.Low)
	assert.Equal(t, 11.0, *bw.High)

	short := dailySeries("2024-03-06", "2024-03-12")
	ctx = New().Enrich(trade("2024-03-10", 10), short, nil)
	assert.Nil(t, ctx.Bwd(7).Low, "earliest bar after D−N+1")
	assert.Nil(t, ctx.Bwd(15).High)
}

func TestPointInTimeAndPrevBusinessDay(t *testing.T) {
	s := dailySeries("2024-02-20", "2024-03-12")
	setBar(s, "2024-03-08", func(b *model.PriceBar) { b.Close = 9.5; b.SMA = model.Float(9.8) })
	setBar(s, "2024-03-11", func(b *model.PriceBar) { b.RSI = model.Float(42) })

	// 2024-03-11 is a Monday; the previous business day is Friday 03-08.
	ctx := New().Enrich(trade("2024-03-11", 10), s, nil)
	require.NotNil(t, ctx.Close)
	assert.Equal(t, 10.0, *ctx.Close)
	require.NotNil(t, ctx.RSI)
	assert.Equal(t, 42.0, *ctx.RSI)
	assert.Nil(t, ctx.SMA)
	require.NotNil(t, ctx.PrevClose)
	assert.Equal(t, 9.5, *ctx.PrevClose)
	assert.Equal(t, 9.8, *ctx.PrevSMA)

	require.NotNil(t, ctx.ATR14)
	assert.InDelta(t, 2.0, *ctx.ATR14, 1e-9)
	assert.InDelta(t, 0.2, *ctx.ATR14Pct, 1e-9)

	missing := New().Enrich(trade("2024-01-05", 10), s, nil)
	assert.Nil(t, missing.Open)
	assert.Nil(t, missing.Close)
	assert.Nil(t, missing.ATR14)
}

func TestNonPositivePriceLeavesPercentagesNil(t *testing.T) {
	s := dailySeries("2024-02-20", "2024-04-20")
	ctx := New().Enrich(trade("2024-03-10", 0), s, nil)
	fw := ctx.Fwd(7)
	assert.NotNil(t, fw.High)
	assert.Nil(t, fw.GainPct)
	assert.Nil(t, fw.DrawdownPct)
	assert.Nil(t, ctx.FinalGain30)
}

func TestNilSeries(t *testing.T) {
	ctx := New().Enrich(trade("2024-03-10", 10), nil, nil)
	assert.Nil(t, ctx.Close)
	assert.Nil(t, ctx.Fwd(7).GainPct)
	assert.Nil(t, ctx.Bwd(15).Low)
}

func TestOwnershipPct(t *testing.T) {
	snap := &model.CompanySnapshot{MarketCap: model.Float(500e6)}
	got := OwnershipPct(100_000, snap)
	require.NotNil(t, got)
	assert.InDelta(t, 0.0002, *got, 1e-12)

	assert.Nil(t, OwnershipPct(100_000, nil))
	assert.Nil(t, OwnershipPct(100_000, &model.CompanySnapshot{}))
	assert.Nil(t, OwnershipPct(100_000, &model.CompanySnapshot{MarketCap: model.Float(0)}))
	assert.Nil(t, OwnershipPct(0, snap))
}

func TestNoiseFilter(t *testing.T) {
	mk := func(price float64, open, atrPct *float64) model.ScoredTrade {
		return model.ScoredTrade{
			TradeRecord: model.TradeRecord{Ticker: "ABC", Price: price},
			Context:     model.EnrichedContext{Open: open, ATR14Pct: atrPct},
		}
	}
	trades := []model.ScoredTrade{
		mk(10, model.Float(20), model.Float(0.05)),  // split anomaly
		mk(10, model.Float(10.5), model.Float(0.01)), // low volatility
		mk(10, nil, nil),                             // unknown context kept
		mk(10, model.Float(16.9), model.Float(0.03)), // ratio 1.69 kept
	}

	kept, dropped := NoiseFilter{}.Apply(trades)
	assert.Equal(t, 0, dropped)
	assert.Len(t, kept, 4)

	kept, dropped = NoiseFilter{MaxSplitRatio: 1.70, MinATRPct: 0.02}.Apply(trades)
	assert.Equal(t, 2, dropped)
	require.Len(t, kept, 2)
	assert.Nil(t, kept[0].Context.Open)
	assert.Equal(t, 16.9, *kept[1].Context.Open)
}
