package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"InsiderSignal/internal/model"
)

func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

// New returns the fetcher named by kind ("yahoo", "rest" or "mock").
func New(kind, baseURL, apiKey, proxyURL string) (Fetcher, error) {
	switch kind {
	case "", "yahoo":
		f := NewYahooFetcher(proxyURL)
		if baseURL != "" {
			f.BaseURL = baseURL
		}
		return f, nil
	case "rest":
		if baseURL == "" {
			return nil, fmt.Errorf("rest fetcher requires a base url")
		}
		return NewRESTFetcher(baseURL, apiKey, proxyURL), nil
	case "mock":
		return &MockFetcher{}, nil
	}
	return nil, fmt.Errorf("unknown data source %q", kind)
}

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	mu        sync.Mutex
	Bars      map[string][]model.PriceBar
	Snapshots map[string]model.CompanySnapshot
	Err       error
	Calls     []string
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyRange(_ context.Context, symbol string, from, to time.Time) ([]model.PriceBar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, symbol)
	if m.Err != nil {
		return nil, m.Err
	}
	var out []model.PriceBar
	for _, b := range m.Bars[symbol] {
		if !b.Date.Before(model.Day(from)) && !b.Date.After(model.Day(to)) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *MockFetcher) FetchSnapshot(_ context.Context, ticker string) (model.CompanySnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return model.CompanySnapshot{}, m.Err
	}
	snap, ok := m.Snapshots[ticker]
	if !ok {
		return model.CompanySnapshot{}, fmt.Errorf("mock: no snapshot for %s", ticker)
	}
	snap.Ticker = ticker
	return snap, nil
}

// GenerateBars builds a gently trending business-day series for tests and demos.
func GenerateBars(basePrice float64, start time.Time, count int) []model.PriceBar {
	bars := make([]model.PriceBar, 0, count)
	d := model.Day(start)
	for i := 0; i < count; i++ {
		for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			d = d.AddDate(0, 0, 1)
		}
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars = append(bars, model.PriceBar{
			Date:   d,
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		})
		d = d.AddDate(0, 0, 1)
	}
	return bars
}
