package ingest

import (
	"strings"

	"github.com/rs/zerolog/log"

	"InsiderSignal/internal/model"
)

// Exclusions are the static ticker lists consulted before enrichment.
type Exclusions struct {
	IPOTooRecent []string `yaml:"ipo_too_recent"`
	NoMarketCap  []string `yaml:"no_market_cap"`
	// MinMarketCap drops trades whose known market cap is below it. Zero disables.
	MinMarketCap float64 `yaml:"min_market_cap"`
}

func (e Exclusions) set() map[string]struct{} {
	s := make(map[string]struct{}, len(e.IPOTooRecent)+len(e.NoMarketCap))
	for _, list := range [][]string{e.IPOTooRecent, e.NoMarketCap} {
		for _, t := range list {
			s[strings.ToUpper(strings.TrimSpace(t))] = struct{}{}
		}
	}
	return s
}

// FilterExcluded drops trades whose ticker appears on either exclusion list,
// or whose snapshot market cap is known and below MinMarketCap. It returns the
// kept trades and the number removed.
func FilterExcluded(records []model.TradeRecord, ex Exclusions, snapshots map[string]model.CompanySnapshot) ([]model.TradeRecord, int) {
	excluded := ex.set()
	kept := records[:0:0]
	removed := 0
	for _, r := range records {
		if _, ok := excluded[r.Ticker]; ok {
			removed++
			continue
		}
		if ex.MinMarketCap > 0 {
			if snap, ok := snapshots[r.Ticker]; ok && snap.MarketCap != nil && *snap.MarketCap < ex.MinMarketCap {
				removed++
				continue
			}
		}
		kept = append(kept, r)
	}
	if removed > 0 {
		log.Info().Int("removed", removed).Int("kept", len(kept)).Msg("applied ticker exclusions")
	}
	return kept, removed
}
