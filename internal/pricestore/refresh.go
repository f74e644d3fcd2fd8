package pricestore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"InsiderSignal/internal/collector"
	"InsiderSignal/internal/model"
	"InsiderSignal/internal/recorder"
)

// Fetch range padding around a ticker's trades. LeadDays covers the SMA and
// RSI warm-up plus the longest lookback window.
const (
	LeadDays  = 45
	TrailDays = 60
)

// Range is the inclusive fetch interval for one ticker.
type Range struct {
	Ticker string
	From   time.Time
	To     time.Time
}

// RefreshResult summarizes one refresh.
type RefreshResult struct {
	Tickers int
	Added   int
	Errors  []error
}

// Refresher pulls missing daily bars for the tickers in a trade batch and
// merges them into the cache.
type Refresher struct {
	Fetcher     collector.Fetcher
	Cache       Cache
	Concurrency int
	Now         func() time.Time
}

// Ranges computes [first trade − LeadDays, min(last trade + TrailDays, yesterday)]
// per ticker, ordered by ticker. Tickers whose range is empty are skipped.
func Ranges(trades []model.TradeRecord, now time.Time) []Range {
	yesterday := model.Day(now).AddDate(0, 0, -1)
	byTicker := make(map[string]*Range)
	for _, t := range trades {
		d := model.Day(t.TransactionDate)
		r, ok := byTicker[t.Ticker]
		if !ok {
			byTicker[t.Ticker] = &Range{Ticker: t.Ticker, From: d, To: d}
			continue
		}
		if d.Before(r.From) {
			r.From = d
		}
		if d.After(r.To) {
			r.To = d
		}
	}

	out := make([]Range, 0, len(byTicker))
	for _, r := range byTicker {
		from := r.From.AddDate(0, 0, -LeadDays)
		to := r.To.AddDate(0, 0, TrailDays)
		if to.After(yesterday) {
			to = yesterday
		}
		if from.After(to) {
			continue
		}
		out = append(out, Range{Ticker: r.Ticker, From: from, To: to})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out
}

// Refresh fetches and merges bars for every ticker in trades. A failing ticker
// is logged and reported in the result; it does not stop the others.
func (r *Refresher) Refresh(ctx context.Context, trades []model.TradeRecord) (RefreshResult, error) {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	ranges := Ranges(trades, now())
	res := RefreshResult{Tickers: len(ranges)}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	limit := r.Concurrency
	if limit <= 0 {
		limit = 4
	}
	g.SetLimit(limit)

	for _, rg := range ranges {
		rg := rg
		g.Go(func() error {
			added, err := r.refreshOne(gctx, rg)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Warn().Err(err).Str("ticker", rg.Ticker).Msg("price refresh failed")
				res.Errors = append(res.Errors, fmt.Errorf("%s: %w", rg.Ticker, err))
				return nil
			}
			res.Added += added
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	log.Info().Int("tickers", res.Tickers).Int("added", res.Added).Int("failed", len(res.Errors)).Msg("price refresh done")
	return res, nil
}

func (r *Refresher) refreshOne(ctx context.Context, rg Range) (int, error) {
	bars, err := r.Fetcher.FetchDailyRange(ctx, rg.Ticker, rg.From, rg.To)
	if err != nil {
		return 0, fmt.Errorf("fetch %s..%s: %w", rg.From.Format("2006-01-02"), rg.To.Format("2006-01-02"), err)
	}
	if len(bars) == 0 {
		return 0, nil
	}

	series, err := r.Cache.LoadSeries(ctx, rg.Ticker)
	if errors.Is(err, recorder.ErrNotFound) {
		series, err = &model.PriceSeries{Ticker: rg.Ticker}, nil
	}
	if err != nil {
		return 0, err
	}
	added := series.Merge(bars)
	if added == 0 {
		return 0, nil
	}
	if err := r.Cache.SaveSeries(ctx, series); err != nil {
		return 0, fmt.Errorf("save: %w", err)
	}
	return added, nil
}
