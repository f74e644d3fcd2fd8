package model

import (
	"sort"
	"time"
)

// PriceBar represents a single daily candlestick with derived indicators.
// SMA and RSI are nil until enough bars exist to compute them.
type PriceBar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
	SMA    *float64
	RSI    *float64
}

// PriceSeries holds the ordered daily history for one ticker.
type PriceSeries struct {
	Ticker string
	Bars   []PriceBar
}

// Day truncates t to a UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// BarOn returns the bar dated exactly on day, if any.
func (s *PriceSeries) BarOn(day time.Time) (PriceBar, bool) {
	if s == nil {
		return PriceBar{}, false
	}
	day = Day(day)
	i := sort.Search(len(s.Bars), func(i int) bool { return !s.Bars[i].Date.Before(day) })
	if i < len(s.Bars) && s.Bars[i].Date.Equal(day) {
		return s.Bars[i], true
	}
	return PriceBar{}, false
}

// IndexOn returns the index of the bar dated exactly on day, or -1.
func (s *PriceSeries) IndexOn(day time.Time) int {
	if s == nil {
		return -1
	}
	day = Day(day)
	i := sort.Search(len(s.Bars), func(i int) bool { return !s.Bars[i].Date.Before(day) })
	if i < len(s.Bars) && s.Bars[i].Date.Equal(day) {
		return i
	}
	return -1
}

// Between returns the bars with from < date <= to when leftOpen is true,
// or from <= date < to otherwise.
func (s *PriceSeries) Between(from, to time.Time, leftOpen bool) []PriceBar {
	if s == nil {
		return nil
	}
	from, to = Day(from), Day(to)
	var lo, hi int
	if leftOpen {
		lo = sort.Search(len(s.Bars), func(i int) bool { return s.Bars[i].Date.After(from) })
		hi = sort.Search(len(s.Bars), func(i int) bool { return s.Bars[i].Date.After(to) })
	} else {
		lo = sort.Search(len(s.Bars), func(i int) bool { return !s.Bars[i].Date.Before(from) })
		hi = sort.Search(len(s.Bars), func(i int) bool { return !s.Bars[i].Date.Before(to) })
	}
	if lo >= hi {
		return nil
	}
	return s.Bars[lo:hi]
}

// Merge appends bars whose dates are not already present and keeps the
// series ordered. Existing bars win on conflict. Returns the number added.
func (s *PriceSeries) Merge(bars []PriceBar) int {
	seen := make(map[time.Time]struct{}, len(s.Bars))
	for _, b := range s.Bars {
		seen[b.Date] = struct{}{}
	}
	added := 0
	for _, b := range bars {
		b.Date = Day(b.Date)
		if _, ok := seen[b.Date]; ok {
			continue
		}
		seen[b.Date] = struct{}{}
		s.Bars = append(s.Bars, b)
		added++
	}
	if added > 0 {
		sort.SliceStable(s.Bars, func(i, j int) bool { return s.Bars[i].Date.Before(s.Bars[j].Date) })
	}
	return added
}

// LacksIndicators reports whether any bar past the warm-up period is missing
// an SMA or RSI value.
func (s *PriceSeries) LacksIndicators(smaPeriod, rsiPeriod int) bool {
	for i, b := range s.Bars {
		if i >= smaPeriod-1 && b.SMA == nil {
			return true
		}
		if i >= rsiPeriod && b.RSI == nil {
			return true
		}
	}
	return false
}

// Closes extracts closing prices in order.
func (s *PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}
