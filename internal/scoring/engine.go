// Package scoring turns a trade's tags into a conviction score and bucket.
package scoring

import (
	"strings"

	"github.com/rs/zerolog/log"

	"InsiderSignal/internal/model"
)

// Uncategorized is the sentinel bucket for scores outside every range.
const Uncategorized = "Uncategorized"

// Engine scores tagged trades under one configuration.
type Engine struct {
	cfg Config
}

// New creates an engine holding its own copy of cfg. Layout problems are
// logged, not fatal.
func New(cfg Config) *Engine {
	e := &Engine{cfg: cfg.Clone()}
	if err := e.cfg.Validate(); err != nil {
		log.Warn().Err(err).Msg("score bucket configuration needs attention")
	}
	return e
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config { return e.cfg.Clone() }

// Score sums tag weights and combo bonuses. It returns false when the trade
// must be ignored because a size tag is required and missing.
func (e *Engine) Score(tags []model.Tag) (int, bool) {
	if e.cfg.RequireSizeTag && !model.HasSizeTag(tags) {
		return 0, false
	}

	present := make(map[model.TagCode]bool, len(tags))
	score := 0
	for _, t := range tags {
		if present[t.Code] {
			continue
		}
		present[t.Code] = true
		score += e.cfg.Weights[t.Code]
	}

	for _, cb := range e.cfg.Combos {
		if len(cb.Tags) == 0 {
			continue
		}
		all := true
		for _, c := range cb.Tags {
			if !present[c] {
				all = false
				break
			}
		}
		if all {
			score += cb.Bonus
		}
	}
	return score, true
}

// Bucket maps a score to the first range containing it.
func (e *Engine) Bucket(score int) string {
	for _, b := range e.cfg.Buckets {
		if b.Contains(score) {
			return b.Name
		}
	}
	return Uncategorized
}

// Summary counts one ScoreAll pass.
type Summary struct {
	Scored        int
	Ignored       int
	Uncategorized int
}

// ScoreAll scores every trade in place and resolves both outcome axes.
func (e *Engine) ScoreAll(trades []model.ScoredTrade) Summary {
	var s Summary
	for i := range trades {
		t := &trades[i]
		t.OutcomeCase1 = model.OutcomeFromTags(t.Tags)
		t.OutcomeCase2 = NormalizeCase2(t.Case2Text)

		score, ok := e.Score(t.Tags)
		if !ok {
			t.Ignored = true
			t.Score = 0
			t.Bucket = ""
			s.Ignored++
			continue
		}
		t.Ignored = false
		t.Score = score
		t.Bucket = e.Bucket(score)
		if t.Bucket == Uncategorized {
			s.Uncategorized++
		}
		s.Scored++
	}
	if s.Uncategorized > 0 {
		log.Warn().Int("count", s.Uncategorized).Msg("scores fell outside every bucket")
	}
	log.Info().Int("scored", s.Scored).Int("ignored", s.Ignored).Msg("scoring complete")
	return s
}

// NormalizeCase2 maps free-text timing classifications onto the outcome
// vocabulary. Negative markers are checked first since "UNSUCCESSFUL"
// contains "SUCCESSFUL". Unrecognized or empty text yields nil.
func NormalizeCase2(text string) *model.Outcome {
	up := strings.ToUpper(strings.TrimSpace(text))
	if up == "" {
		return nil
	}
	var o model.Outcome
	switch {
	case strings.Contains(up, "UNSUCCESSFUL"), strings.Contains(up, "BAD"):
		o = model.OutcomeUnsuccessful
	case strings.Contains(up, "SUCCESSFUL"):
		o = model.OutcomeSuccessful
	case strings.Contains(up, "NEUTRAL"):
		o = model.OutcomeNeutral
	default:
		return nil
	}
	return &o
}
