package ingest

import (
	"math"
	"time"

	"InsiderSignal/internal/model"
)

type aggKey struct {
	insider string
	ticker  string
	date    time.Time
	txType  string
}

type aggState struct {
	rec       model.TradeRecord
	notional  float64
	firstPx   float64
	sharesSum int64
}

// Aggregate merges rows sharing insider, ticker, date and transaction type.
// Price becomes the shares-weighted average, shares and value are summed,
// and the remaining fields keep their first occurrence. Output preserves
// first-occurrence order, and shares and value are non-negative so sells
// reported with a minus sign are sized like buys.
func Aggregate(records []model.TradeRecord) []model.TradeRecord {
	index := make(map[aggKey]int, len(records))
	groups := make([]*aggState, 0, len(records))

	for _, r := range records {
		k := aggKey{r.InsiderName, r.Ticker, model.Day(r.TransactionDate), r.TransactionType}
		if i, ok := index[k]; ok {
			g := groups[i]
			g.notional += r.Price * float64(r.Shares)
			g.sharesSum += r.Shares
			g.rec.Value += r.Value
			continue
		}
		index[k] = len(groups)
		groups = append(groups, &aggState{
			rec:       r,
			notional:  r.Price * float64(r.Shares),
			firstPx:   r.Price,
			sharesSum: r.Shares,
		})
	}

	out := make([]model.TradeRecord, len(groups))
	for i, g := range groups {
		rec := g.rec
		if g.sharesSum != 0 {
			rec.Price = g.notional / float64(g.sharesSum)
		} else {
			rec.Price = g.firstPx
		}
		rec.Shares = g.sharesSum
		if rec.Shares < 0 {
			rec.Shares = -rec.Shares
		}
		rec.Value = math.Abs(rec.Value)
		rec.TransactionDate = model.Day(rec.TransactionDate)
		out[i] = rec
	}
	return out
}
