package collector

import (
	"context"
	"time"

	"InsiderSignal/internal/model"
)

// Fetcher defines the interface for fetching daily price history.
type Fetcher interface {
	// FetchDailyRange returns daily bars with from <= date <= to, ascending.
	FetchDailyRange(ctx context.Context, symbol string, from, to time.Time) ([]model.PriceBar, error)
	Name() string
}

// SnapshotFetcher fetches company facts for tickers missing from the cache.
type SnapshotFetcher interface {
	FetchSnapshot(ctx context.Context, ticker string) (model.CompanySnapshot, error)
}
