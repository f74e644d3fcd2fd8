// Package backtest aggregates scored trades into outcome-by-bucket tables
// and the extracts handed to downstream modelling.
package backtest

import (
	"sort"

	"InsiderSignal/internal/model"
	"InsiderSignal/internal/scoring"
)

// Axis selects one of the two independent outcome sources.
type Axis string

const (
	// Case1 is the outcome carried by the tagger's outcome tag.
	Case1 Axis = "case1"
	// Case2 is the normalized free-text timing classification.
	Case2 Axis = "case2"
)

// Outcome returns the trade's outcome on this axis.
func (a Axis) Outcome(t *model.ScoredTrade) *model.Outcome {
	if a == Case2 {
		return t.OutcomeCase2
	}
	return t.OutcomeCase1
}

// Title is the human heading for the axis.
func (a Axis) Title() string {
	if a == Case2 {
		return "Case 2: drawdown vs spike timing"
	}
	return "Case 1: 30-day outcome tags"
}

// Partition splits scored trades into those with an outcome on either axis
// and those with none. Ignored trades are left out of both.
func Partition(trades []model.ScoredTrade) (labeled, unlabeled []model.ScoredTrade) {
	for _, t := range trades {
		if t.Ignored {
			continue
		}
		if t.Labeled() {
			labeled = append(labeled, t)
		} else {
			unlabeled = append(unlabeled, t)
		}
	}
	return labeled, unlabeled
}

// Row is one bucket of a contingency table.
type Row struct {
	Bucket    string
	Total     int
	Counts    map[model.Outcome]int
	Fractions map[model.Outcome]float64
}

// Table is the empirical outcome distribution per bucket on one axis.
type Table struct {
	Axis Axis
	Rows []Row
}

// Contingency counts outcomes per bucket for trades with a known outcome on
// axis. Rows follow bucketOrder; buckets absent from bucketOrder (such as the
// uncategorized sentinel) are appended alphabetically. Buckets with no
// labeled trades are omitted.
func Contingency(trades []model.ScoredTrade, axis Axis, bucketOrder []string) Table {
	rows := make(map[string]*Row)
	for i := range trades {
		t := &trades[i]
		if t.Ignored {
			continue
		}
		o := axis.Outcome(t)
		if o == nil {
			continue
		}
		r, ok := rows[t.Bucket]
		if !ok {
			r = &Row{Bucket: t.Bucket, Counts: make(map[model.Outcome]int), Fractions: make(map[model.Outcome]float64)}
			rows[t.Bucket] = r
		}
		r.Counts[*o]++
		r.Total++
	}

	tbl := Table{Axis: axis}
	seen := make(map[string]bool, len(bucketOrder))
	for _, b := range bucketOrder {
		seen[b] = true
		if r, ok := rows[b]; ok {
			tbl.Rows = append(tbl.Rows, *r)
		}
	}
	var rest []string
	for b := range rows {
		if !seen[b] {
			rest = append(rest, b)
		}
	}
	sort.Strings(rest)
	for _, b := range rest {
		tbl.Rows = append(tbl.Rows, *rows[b])
	}

	for i := range tbl.Rows {
		r := &tbl.Rows[i]
		for _, o := range model.Outcomes {
			r.Fractions[o] = float64(r.Counts[o]) / float64(r.Total)
		}
	}
	return tbl
}

// Cell is a flattened table entry.
type Cell struct {
	Axis     Axis
	Bucket   string
	Outcome  model.Outcome
	Count    int
	Fraction float64
}

// Cells flattens the table in row then outcome order.
func (t Table) Cells() []Cell {
	var out []Cell
	for _, r := range t.Rows {
		for _, o := range model.Outcomes {
			out = append(out, Cell{Axis: t.Axis, Bucket: r.Bucket, Outcome: o, Count: r.Counts[o], Fraction: r.Fractions[o]})
		}
	}
	return out
}

// HighConviction keeps the scored trades whose bucket is one of the two
// highest configured buckets.
func HighConviction(trades []model.ScoredTrade, cfg scoring.Config) []model.ScoredTrade {
	top := make(map[string]bool)
	for _, b := range cfg.TopBuckets(2) {
		top[b] = true
	}
	var out []model.ScoredTrade
	for _, t := range trades {
		if !t.Ignored && top[t.Bucket] {
			out = append(out, t)
		}
	}
	return out
}

// Unlabeled returns trades with no outcome on either axis, most recent first.
func Unlabeled(trades []model.ScoredTrade) []model.ScoredTrade {
	_, out := Partition(trades)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TransactionDate.After(out[j].TransactionDate)
	})
	return out
}
