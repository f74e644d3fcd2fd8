package backtest

import (
	"sort"

	"InsiderSignal/internal/model"
)

// TagStat is the case-1 hit rate of trades carrying one tag.
type TagStat struct {
	Tag         string
	Trades      int
	Labeled     int
	Successful  int
	SuccessRate float64
}

// TagStats computes, per tag label, how many scored trades carry it and how
// often those with a case-1 outcome were successful. Outcome tags themselves
// are skipped. Results are ordered by success rate, then trade count.
func TagStats(trades []model.ScoredTrade) []TagStat {
	byLabel := make(map[string]*TagStat)
	for i := range trades {
		t := &trades[i]
		if t.Ignored {
			continue
		}
		seen := make(map[string]bool, len(t.Tags))
		for _, tag := range t.Tags {
			if tag.Code.Family() == model.FamilyOutcome {
				continue
			}
			label := tag.String()
			if seen[label] {
				continue
			}
			seen[label] = true

			s, ok := byLabel[label]
			if !ok {
				s = &TagStat{Tag: label}
				byLabel[label] = s
			}
			s.Trades++
			if t.OutcomeCase1 != nil {
				s.Labeled++
				if *t.OutcomeCase1 == model.OutcomeSuccessful {
					s.Successful++
				}
			}
		}
	}

	out := make([]TagStat, 0, len(byLabel))
	for _, s := range byLabel {
		if s.Labeled > 0 {
			s.SuccessRate = float64(s.Successful) / float64(s.Labeled)
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SuccessRate != out[j].SuccessRate {
			return out[i].SuccessRate > out[j].SuccessRate
		}
		if out[i].Trades != out[j].Trades {
			return out[i].Trades > out[j].Trades
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}
