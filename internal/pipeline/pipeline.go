// Package pipeline runs the enrichment, tagging, scoring and backtest stages
// in order over one batch of trades.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"InsiderSignal/internal/backtest"
	"InsiderSignal/internal/collector"
	"InsiderSignal/internal/enricher"
	"InsiderSignal/internal/ingest"
	"InsiderSignal/internal/model"
	"InsiderSignal/internal/pattern"
	"InsiderSignal/internal/pricestore"
	"InsiderSignal/internal/recorder"
	"InsiderSignal/internal/scoring"
	"InsiderSignal/internal/tagger"
)

// Options are the rule and threshold settings of a run.
type Options struct {
	Exclusions    ingest.Exclusions
	Noise         enricher.NoiseFilter
	Rules         tagger.Rules
	Patterns      pattern.Config
	Scoring       scoring.Config
	SMAPeriod     int
	RSIPeriod     int
	RefreshPrices bool
	Concurrency   int
}

// DefaultOptions returns the standard settings with price refresh enabled.
func DefaultOptions() Options {
	return Options{
		Rules:         tagger.DefaultRules(),
		Patterns:      pattern.DefaultConfig(),
		Scoring:       scoring.DefaultConfig(),
		SMAPeriod:     pricestore.DefaultSMAPeriod,
		RSIPeriod:     pricestore.DefaultRSIPeriod,
		RefreshPrices: true,
		Concurrency:   4,
	}
}

// Pipeline wires the stages to their collaborators.
type Pipeline struct {
	opts Options

	Recorder recorder.Recorder
	// Fetcher supplies daily bars when RefreshPrices is set. Nil skips refresh.
	Fetcher collector.Fetcher
	// Snapshots resolves company snapshots. Nil leaves every snapshot unknown.
	Snapshots *pricestore.Snapshots
	Now       func() time.Time
}

// New creates a pipeline over rec.
func New(opts Options, rec recorder.Recorder) *Pipeline {
	return &Pipeline{opts: opts, Recorder: rec, Now: time.Now}
}

// Result is everything one run produces.
type Result struct {
	Summary        recorder.RunSummary
	Scored         []model.ScoredTrade
	Case1          backtest.Table
	Case2          backtest.Table
	HighConviction []model.ScoredTrade
	Unlabeled      []model.ScoredTrade
	TagStats       []backtest.TagStat
	Patterns       pattern.Stats
	RefreshErrors  []error
}

// RunFile reads a trade CSV and runs the batch.
func (p *Pipeline) RunFile(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trades: %w", err)
	}
	defer f.Close()
	rows, err := ingest.ReadTrades(f)
	if err != nil {
		return nil, fmt.Errorf("read trades %s: %w", path, err)
	}
	return p.Run(ctx, rows)
}

// Run executes every stage in order. Malformed rows and missing market data
// degrade individual trades; only cancellation or a failing recorder write
// aborts the run.
func (p *Pipeline) Run(ctx context.Context, rows []ingest.RawTrade) (*Result, error) {
	res := &Result{Summary: recorder.RunSummary{
		ID:            uuid.NewString(),
		StartedAt:     p.Now(),
		TagVocabulary: model.TagVocabularyVersion,
	}}
	logger := log.With().Str("run", res.Summary.ID).Logger()
	logger.Info().Int("rows", len(rows)).Msg("pipeline started")

	records, dropped := ingest.Normalize(rows)
	records = ingest.Aggregate(records)
	res.Summary.Dropped = dropped

	snapshots := map[string]model.CompanySnapshot{}
	if p.Snapshots != nil {
		snapshots = p.Snapshots.Load(ctx, tickers(records))
	}

	records, excluded := ingest.FilterExcluded(records, p.opts.Exclusions, snapshots)
	res.Summary.Excluded = excluded
	res.Summary.Trades = len(records)

	if p.opts.RefreshPrices && p.Fetcher != nil {
		r := &pricestore.Refresher{Fetcher: p.Fetcher, Cache: p.Recorder, Concurrency: p.opts.Concurrency, Now: p.Now}
		rr, err := r.Refresh(ctx, records)
		if err != nil {
			return nil, fmt.Errorf("refresh prices: %w", err)
		}
		res.RefreshErrors = rr.Errors
	}

	scored, err := p.enrich(ctx, records, snapshots)
	if err != nil {
		return nil, err
	}
	scored, res.Summary.NoiseDropped = p.opts.Noise.Apply(scored)

	tagger.New(p.opts.Rules).TagAll(scored, snapshots)

	ptrs := make([]*model.TradeRecord, len(scored))
	for i := range scored {
		ptrs[i] = &scored[i].TradeRecord
	}
	res.Patterns = pattern.New(p.opts.Patterns).Detect(ptrs)

	engine := scoring.New(p.opts.Scoring)
	sum := engine.ScoreAll(scored)
	res.Summary.Scored = sum.Scored
	res.Summary.Ignored = sum.Ignored

	buckets := p.opts.Scoring.BucketNames()
	labeled, unlabeled := backtest.Partition(scored)
	res.Summary.Labeled = len(labeled)
	res.Summary.Unlabeled = len(unlabeled)
	res.Scored = scored
	res.Case1 = backtest.Contingency(scored, backtest.Case1, buckets)
	res.Case2 = backtest.Contingency(scored, backtest.Case2, buckets)
	res.HighConviction = backtest.HighConviction(scored, p.opts.Scoring)
	res.Unlabeled = backtest.Unlabeled(scored)
	res.TagStats = backtest.TagStats(scored)
	res.Summary.Finished = p.Now()

	if err := p.Recorder.RecordRun(ctx, &res.Summary, scored, cells(res.Case1, res.Case2)); err != nil {
		return res, fmt.Errorf("record run: %w", err)
	}
	logger.Info().
		Int("trades", res.Summary.Trades).
		Int("dropped", res.Summary.Dropped).
		Int("excluded", res.Summary.Excluded).
		Int("noise", res.Summary.NoiseDropped).
		Int("labeled", res.Summary.Labeled).
		Int("high_conviction", len(res.HighConviction)).
		Msg("pipeline finished")
	return res, nil
}

func (p *Pipeline) enrich(ctx context.Context, records []model.TradeRecord, snapshots map[string]model.CompanySnapshot) ([]model.ScoredTrade, error) {
	store := pricestore.NewStore(p.Recorder, p.opts.SMAPeriod, p.opts.RSIPeriod)
	enr := enricher.New()
	scored := make([]model.ScoredTrade, len(records))
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		series, err := store.Series(ctx, rec.Ticker)
		if err != nil {
			log.Warn().Err(err).Str("ticker", rec.Ticker).Msg("price series unavailable")
			series = nil
		}
		var snap *model.CompanySnapshot
		if s, ok := snapshots[rec.Ticker]; ok {
			snap = &s
		}
		scored[i] = model.ScoredTrade{TradeRecord: rec}
		scored[i].Context = enr.Enrich(&scored[i].TradeRecord, series, snap)
	}
	return scored, nil
}

func tickers(records []model.TradeRecord) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range records {
		if !seen[r.Ticker] {
			seen[r.Ticker] = true
			out = append(out, r.Ticker)
		}
	}
	sort.Strings(out)
	return out
}

func cells(tables ...backtest.Table) []recorder.BucketOutcome {
	var out []recorder.BucketOutcome
	for _, t := range tables {
		for _, c := range t.Cells() {
			out = append(out, recorder.BucketOutcome{
				Axis:     string(c.Axis),
				Bucket:   c.Bucket,
				Outcome:  c.Outcome,
				Count:    c.Count,
				Fraction: c.Fraction,
			})
		}
	}
	return out
}
