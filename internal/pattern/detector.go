// Package pattern adds tags that depend on other trades in the batch:
// clustered buying, repeat buying and historically successful insiders.
package pattern

import (
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"InsiderSignal/internal/calculator"
	"InsiderSignal/internal/model"
)

// Config holds the detector thresholds.
type Config struct {
	WindowBusinessDays int     `yaml:"window_business_days"`
	MinClusterInsiders int     `yaml:"min_cluster_insiders"`
	MinRepeatBuys      int     `yaml:"min_repeat_buys"`
	MinTrades          int     `yaml:"min_trades"`
	MinWinRate         float64 `yaml:"min_win_rate"`
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		WindowBusinessDays: 5,
		MinClusterInsiders: 3,
		MinRepeatBuys:      2,
		MinTrades:          5,
		MinWinRate:         0.7,
	}
}

// Stats counts the tags added by one run.
type Stats struct {
	Cluster  int
	Multiple int
	Smart    int
}

// Detector runs the cross-record passes.
type Detector struct {
	cfg Config
}

// New creates a detector.
func New(cfg Config) *Detector {
	return &Detector{cfg: cfg}
}

type entry struct {
	idx     int
	date    time.Time
	insider string
}

// snapshot is the per-row tag state read by every pass.
type snapshot struct {
	sized   []bool
	success []bool
}

func takeSnapshot(trades []*model.TradeRecord) snapshot {
	s := snapshot{
		sized:   make([]bool, len(trades)),
		success: make([]bool, len(trades)),
	}
	for i, t := range trades {
		s.sized[i] = model.HasSizeTag(t.Tags)
		if o := model.OutcomeFromTags(t.Tags); o != nil && *o == model.OutcomeSuccessful {
			s.success[i] = true
		}
	}
	return s
}

func insiderKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Detect tags the batch in place. All passes read the tags as they were on
// entry and additions are applied only after every pass has run.
func (d *Detector) Detect(trades []*model.TradeRecord) Stats {
	snap := takeSnapshot(trades)

	byTicker := make(map[string][]entry)
	byInsider := make(map[string][]entry)
	for i, t := range trades {
		if !t.IsBuy() {
			continue
		}
		e := entry{idx: i, date: model.Day(t.TransactionDate), insider: insiderKey(t.InsiderName)}
		byTicker[t.Ticker] = append(byTicker[t.Ticker], e)
		k := t.Ticker + "\x00" + e.insider
		byInsider[k] = append(byInsider[k], e)
	}

	cluster := make([]bool, len(trades))
	for _, group := range byTicker {
		d.clusterPass(group, cluster)
	}
	multiple := make([]bool, len(trades))
	for _, group := range byInsider {
		d.multiplePass(group, snap, multiple)
	}
	smart := d.smartPass(trades, snap)

	var st Stats
	for i, t := range trades {
		if cluster[i] {
			t.AddTag(model.T(model.TagClusterBuy))
			st.Cluster++
		}
		if multiple[i] {
			t.AddTag(model.T(model.TagMultipleBuys))
			st.Multiple++
		}
		if smart[i] {
			t.AddTag(model.T(model.TagSmartInsider))
			st.Smart++
		}
	}
	log.Info().Int("cluster", st.Cluster).Int("multiple", st.Multiple).Int("smart", st.Smart).Msg("pattern tags added")
	return st
}

func sortEntries(group []entry) {
	sort.SliceStable(group, func(i, j int) bool { return group[i].date.Before(group[j].date) })
}

// window walks a date-sorted group and calls visit for each row with the
// half-open index range [lo, hi) of rows within ± the configured business
// days. enter and leave are called as rows slide in and out.
func (d *Detector) window(group []entry, enter, leave func(e entry), visit func(e entry)) {
	sortEntries(group)
	lo, hi := 0, 0
	for _, e := range group {
		from := calculator.AddBusinessDays(e.date, -d.cfg.WindowBusinessDays)
		to := calculator.AddBusinessDays(e.date, d.cfg.WindowBusinessDays)
		for hi < len(group) && !group[hi].date.After(to) {
			enter(group[hi])
			hi++
		}
		for lo < hi && group[lo].date.Before(from) {
			leave(group[lo])
			lo++
		}
		visit(e)
	}
}

func (d *Detector) clusterPass(group []entry, out []bool) {
	insiders := make(map[string]int)
	d.window(group,
		func(e entry) { insiders[e.insider]++ },
		func(e entry) {
			if insiders[e.insider]--; insiders[e.insider] == 0 {
				delete(insiders, e.insider)
			}
		},
		func(e entry) {
			if len(insiders) >= d.cfg.MinClusterInsiders {
				out[e.idx] = true
			}
		},
	)
}

func (d *Detector) multiplePass(group []entry, snap snapshot, out []bool) {
	count, sized := 0, 0
	d.window(group,
		func(e entry) {
			count++
			if snap.sized[e.idx] {
				sized++
			}
		},
		func(e entry) {
			count--
			if snap.sized[e.idx] {
				sized--
			}
		},
		func(e entry) {
			if count >= d.cfg.MinRepeatBuys && sized > 0 {
				out[e.idx] = true
			}
		},
	)
}

// smartPass flags every trade by an insider whose share of successful trades
// meets the win-rate threshold over at least MinTrades trades.
func (d *Detector) smartPass(trades []*model.TradeRecord, snap snapshot) []bool {
	type tally struct{ total, wins int }
	tallies := make(map[string]*tally)
	for i, t := range trades {
		k := insiderKey(t.InsiderName)
		if k == "" {
			continue
		}
		tl, ok := tallies[k]
		if !ok {
			tl = &tally{}
			tallies[k] = tl
		}
		tl.total++
		if snap.success[i] {
			tl.wins++
		}
	}

	out := make([]bool, len(trades))
	for i, t := range trades {
		tl, ok := tallies[insiderKey(t.InsiderName)]
		if !ok || tl.total < d.cfg.MinTrades {
			continue
		}
		if float64(tl.wins)/float64(tl.total) >= d.cfg.MinWinRate {
			out[i] = true
		}
	}
	return out
}
