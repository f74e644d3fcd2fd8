package pricestore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"InsiderSignal/internal/calculator"
	"InsiderSignal/internal/model"
	"InsiderSignal/internal/recorder"
)

// Default indicator periods.
const (
	DefaultSMAPeriod = 20
	DefaultRSIPeriod = 14
)

// Cache is the persistence side of the store.
type Cache interface {
	LoadSeries(ctx context.Context, ticker string) (*model.PriceSeries, error)
	SaveSeries(ctx context.Context, series *model.PriceSeries) error
}

// Store serves per-ticker price series with SMA and RSI filled in. Series
// are loaded once per Store and indicators are derived only when a loaded
// series has bars lacking them, after which the series is written back.
type Store struct {
	cache     Cache
	smaPeriod int
	rsiPeriod int

	mu   sync.Mutex
	memo map[string]*model.PriceSeries
}

// NewStore creates a store. Non-positive periods fall back to the defaults.
func NewStore(cache Cache, smaPeriod, rsiPeriod int) *Store {
	if smaPeriod <= 0 {
		smaPeriod = DefaultSMAPeriod
	}
	if rsiPeriod <= 0 {
		rsiPeriod = DefaultRSIPeriod
	}
	return &Store{
		cache:     cache,
		smaPeriod: smaPeriod,
		rsiPeriod: rsiPeriod,
		memo:      make(map[string]*model.PriceSeries),
	}
}

// Series returns the ticker's series. A ticker with no cached history yields
// an empty series, not an error.
func (s *Store) Series(ctx context.Context, ticker string) (*model.PriceSeries, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if series, ok := s.memo[ticker]; ok {
		return series, nil
	}

	series, err := s.cache.LoadSeries(ctx, ticker)
	if errors.Is(err, recorder.ErrNotFound) {
		series, err = &model.PriceSeries{Ticker: ticker}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load series %s: %w", ticker, err)
	}

	if series.LacksIndicators(s.smaPeriod, s.rsiPeriod) {
		DeriveIndicators(series, s.smaPeriod, s.rsiPeriod)
		if err := s.cache.SaveSeries(ctx, series); err != nil {
			log.Warn().Err(err).Str("ticker", ticker).Msg("persisting derived indicators failed")
		} else {
			log.Debug().Str("ticker", ticker).Int("bars", len(series.Bars)).Msg("derived indicators")
		}
	}

	s.memo[ticker] = series
	return series, nil
}

// DeriveIndicators recomputes SMA and RSI for every bar from the closes.
func DeriveIndicators(series *model.PriceSeries, smaPeriod, rsiPeriod int) {
	closes := series.Closes()
	sma := calculator.SMASeries(closes, smaPeriod)
	rsi := calculator.RSISeries(closes, rsiPeriod)
	for i := range series.Bars {
		series.Bars[i].SMA = sma[i]
		series.Bars[i].RSI = rsi[i]
	}
}
