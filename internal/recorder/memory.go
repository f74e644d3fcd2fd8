package recorder

import (
	"context"
	"sync"

	"InsiderSignal/internal/model"
)

// MemoryRecorder keeps everything in process. It is used when SQLite is not
// configured and in tests.
type MemoryRecorder struct {
	mu        sync.Mutex
	series    map[string]model.PriceSeries
	snapshots map[string]model.CompanySnapshot
	Runs      []RunSummary
	Saves     int
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{
		series:    make(map[string]model.PriceSeries),
		snapshots: make(map[string]model.CompanySnapshot),
	}
}

func (m *MemoryRecorder) LoadSeries(_ context.Context, ticker string) (*model.PriceSeries, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.series[ticker]
	if !ok {
		return nil, ErrNotFound
	}
	bars := make([]model.PriceBar, len(s.Bars))
	copy(bars, s.Bars)
	return &model.PriceSeries{Ticker: ticker, Bars: bars}, nil
}

func (m *MemoryRecorder) SaveSeries(_ context.Context, series *model.PriceSeries) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	bars := make([]model.PriceBar, len(series.Bars))
	copy(bars, series.Bars)
	m.series[series.Ticker] = model.PriceSeries{Ticker: series.Ticker, Bars: bars}
	m.Saves++
	return nil
}

func (m *MemoryRecorder) LoadSnapshot(_ context.Context, ticker string) (model.CompanySnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.snapshots[ticker]
	if !ok {
		return model.CompanySnapshot{}, ErrNotFound
	}
	return s, nil
}

func (m *MemoryRecorder) SaveSnapshot(_ context.Context, snap model.CompanySnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[snap.Ticker] = snap
	return nil
}

func (m *MemoryRecorder) RecordRun(_ context.Context, run *RunSummary, _ []model.ScoredTrade, _ []BucketOutcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Runs = append(m.Runs, *run)
	return nil
}

func (m *MemoryRecorder) Close() error { return nil }
