package pricestore

import (
	"context"
	"errors"
	"sort"

	"github.com/rs/zerolog/log"

	"InsiderSignal/internal/collector"
	"InsiderSignal/internal/model"
	"InsiderSignal/internal/recorder"
)

// SnapshotCache stores company snapshots by ticker.
type SnapshotCache interface {
	LoadSnapshot(ctx context.Context, ticker string) (model.CompanySnapshot, error)
	SaveSnapshot(ctx context.Context, snap model.CompanySnapshot) error
}

// Snapshots resolves company snapshots through an ordered list of caches,
// fastest first, and fetches tickers missing from all of them. Hits in a
// slower layer are copied into the faster ones.
type Snapshots struct {
	Layers  []SnapshotCache
	Fetcher collector.SnapshotFetcher
}

// Load returns snapshots for the given tickers. Tickers that cannot be
// resolved are absent from the map; callers treat them as unknown.
func (s *Snapshots) Load(ctx context.Context, tickers []string) map[string]model.CompanySnapshot {
	uniq := make(map[string]struct{}, len(tickers))
	for _, t := range tickers {
		uniq[t] = struct{}{}
	}
	sorted := make([]string, 0, len(uniq))
	for t := range uniq {
		sorted = append(sorted, t)
	}
	sort.Strings(sorted)

	out := make(map[string]model.CompanySnapshot, len(sorted))
	fetched := 0
	for _, ticker := range sorted {
		snap, hitLayer, ok := s.lookup(ctx, ticker)
		if !ok && s.Fetcher != nil {
			var err error
			snap, err = s.Fetcher.FetchSnapshot(ctx, ticker)
			if err != nil {
				log.Warn().Err(err).Str("ticker", ticker).Msg("snapshot fetch failed")
				continue
			}
			ok, hitLayer = true, len(s.Layers)
			fetched++
		}
		if !ok {
			continue
		}
		for i := 0; i < hitLayer; i++ {
			if err := s.Layers[i].SaveSnapshot(ctx, snap); err != nil {
				log.Warn().Err(err).Str("ticker", ticker).Msg("snapshot cache write failed")
			}
		}
		out[ticker] = snap
	}
	if fetched > 0 {
		log.Info().Int("fetched", fetched).Int("resolved", len(out)).Msg("company snapshots refreshed")
	}
	return out
}

func (s *Snapshots) lookup(ctx context.Context, ticker string) (model.CompanySnapshot, int, bool) {
	for i, layer := range s.Layers {
		snap, err := layer.LoadSnapshot(ctx, ticker)
		if err == nil {
			return snap, i, true
		}
		if !errors.Is(err, recorder.ErrNotFound) {
			log.Warn().Err(err).Str("ticker", ticker).Int("layer", i).Msg("snapshot cache read failed")
		}
	}
	return model.CompanySnapshot{}, 0, false
}
