package recorder

import (
	"context"
	"errors"
	"time"

	"InsiderSignal/internal/model"
)

// ErrNotFound is returned by caches when a key has never been stored.
var ErrNotFound = errors.New("not found")

// RunSummary holds the headline counters of one pipeline run.
type RunSummary struct {
	ID            string    `json:"id"`
	StartedAt     time.Time `json:"started_at"`
	Finished      time.Time `json:"finished_at"`
	Trades        int       `json:"trades"`
	Dropped       int       `json:"dropped"`
	Excluded      int       `json:"excluded"`
	NoiseDropped  int       `json:"noise_dropped"`
	Scored        int       `json:"scored"`
	Ignored       int       `json:"ignored"`
	Labeled       int       `json:"labeled"`
	Unlabeled     int       `json:"unlabeled"`
	TagVocabulary int       `json:"tag_vocabulary"`
}

// BucketOutcome is one cell of a bucket × outcome contingency table.
type BucketOutcome struct {
	Axis     string        `json:"axis"` // "case1" or "case2"
	Bucket   string        `json:"bucket"`
	Outcome  model.Outcome `json:"outcome"`
	Count    int           `json:"count"`
	Fraction float64       `json:"fraction"`
}

// Recorder persists price history, company snapshots and backtest runs.
type Recorder interface {
	LoadSeries(ctx context.Context, ticker string) (*model.PriceSeries, error)
	SaveSeries(ctx context.Context, series *model.PriceSeries) error
	LoadSnapshot(ctx context.Context, ticker string) (model.CompanySnapshot, error)
	SaveSnapshot(ctx context.Context, snap model.CompanySnapshot) error
	RecordRun(ctx context.Context, run *RunSummary, trades []model.ScoredTrade, cells []BucketOutcome) error
	Close() error
}
