package calculator

import (
	"errors"
	"math"

	"InsiderSignal/internal/model"
)

// WindowRange returns the highest high and lowest low across bars.
func WindowRange(bars []model.PriceBar) (high, low float64, err error) {
	if len(bars) == 0 {
		return 0, 0, errors.New("no bars provided")
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, b := range bars {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}
	return high, low, nil
}

// CalculateATR returns the average true range over the period bars ending at
// index end (inclusive). The bar before the window supplies the first
// previous close, so end must be >= period.
func CalculateATR(bars []model.PriceBar, end, period int) (float64, error) {
	if period <= 0 {
		return 0, ErrPeriod
	}
	if end < period || end >= len(bars) {
		return 0, errors.New("not enough data for ATR calculation")
	}
	sum := 0.0
	for i := end - period + 1; i <= end; i++ {
		prevClose := bars[i-1].Close
		tr := bars[i].High - bars[i].Low
		tr = math.Max(tr, math.Abs(bars[i].High-prevClose))
		tr = math.Max(tr, math.Abs(bars[i].Low-prevClose))
		sum += tr
	}
	return sum / float64(period), nil
}
