package recorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"InsiderSignal/internal/model"
)

const dateLayout = "2006-01-02"

// SQLiteRecorder persists price bars, snapshots and backtest runs to SQLite.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS price_bars (
			ticker TEXT NOT NULL,
			date   TEXT NOT NULL,
			open   REAL,
			high   REAL,
			low    REAL,
			close  REAL,
			volume REAL,
			sma    REAL,
			rsi    REAL,
			PRIMARY KEY (ticker, date)
		)`,

		`CREATE TABLE IF NOT EXISTS company_snapshots (
			ticker        TEXT PRIMARY KEY,
			market_cap    REAL,
			sector        TEXT,
			industry      TEXT,
			earnings_date TEXT,
			updated_at    INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS backtest_runs (
			id             TEXT PRIMARY KEY,
			started_at     INTEGER NOT NULL,
			finished_at    INTEGER NOT NULL,
			trades         INTEGER,
			dropped        INTEGER,
			excluded       INTEGER,
			noise_dropped  INTEGER,
			scored         INTEGER,
			ignored        INTEGER,
			labeled        INTEGER,
			unlabeled      INTEGER,
			tag_vocabulary INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON backtest_runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS scored_trades (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id           TEXT NOT NULL,
			ticker           TEXT,
			insider_name     TEXT,
			transaction_date TEXT,
			transaction_type TEXT,
			price            REAL,
			shares           INTEGER,
			value            REAL,
			tags             TEXT,
			score            INTEGER,
			bucket           TEXT,
			ignored          INTEGER,
			outcome_case_1   TEXT,
			outcome_case_2   TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scored_run ON scored_trades(run_id)`,

		`CREATE TABLE IF NOT EXISTS bucket_outcomes (
			run_id   TEXT NOT NULL,
			axis     TEXT NOT NULL,
			bucket   TEXT NOT NULL,
			outcome  TEXT NOT NULL,
			count    INTEGER,
			fraction REAL,
			PRIMARY KEY (run_id, axis, bucket, outcome)
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func fromNullable(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	return model.Float(n.Float64)
}

func (r *SQLiteRecorder) LoadSeries(ctx context.Context, ticker string) (*model.PriceSeries, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT date, open, high, low, close, volume, sma, rsi
		FROM price_bars WHERE ticker = ? ORDER BY date`, ticker)
	if err != nil {
		return nil, fmt.Errorf("query bars: %w", err)
	}
	defer rows.Close()

	series := &model.PriceSeries{Ticker: ticker}
	for rows.Next() {
		var (
			date     string
			b        model.PriceBar
			sma, rsi sql.NullFloat64
		)
		if err := rows.Scan(&date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &sma, &rsi); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		d, err := time.Parse(dateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("bar date %q: %w", date, err)
		}
		b.Date = d
		b.SMA = fromNullable(sma)
		b.RSI = fromNullable(rsi)
		series.Bars = append(series.Bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(series.Bars) == 0 {
		return nil, ErrNotFound
	}
	return series, nil
}

// SaveSeries inserts new bars and fills in indicators on existing ones.
// Prices already stored are never overwritten.
func (r *SQLiteRecorder) SaveSeries(ctx context.Context, series *model.PriceSeries) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO price_bars
		(ticker, date, open, high, low, close, volume, sma, rsi)
		VALUES (?,?,?,?,?,?,?,?,?)
		ON CONFLICT(ticker, date) DO UPDATE SET
			sma = COALESCE(excluded.sma, price_bars.sma),
			rsi = COALESCE(excluded.rsi, price_bars.rsi)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, b := range series.Bars {
		if _, err := stmt.ExecContext(ctx, series.Ticker, b.Date.Format(dateLayout),
			b.Open, b.High, b.Low, b.Close, b.Volume, nullable(b.SMA), nullable(b.RSI)); err != nil {
			return fmt.Errorf("upsert bar %s %s: %w", series.Ticker, b.Date.Format(dateLayout), err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) LoadSnapshot(ctx context.Context, ticker string) (model.CompanySnapshot, error) {
	var (
		snap      = model.CompanySnapshot{Ticker: ticker}
		marketCap sql.NullFloat64
		earnings  sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `SELECT market_cap, sector, industry, earnings_date
		FROM company_snapshots WHERE ticker = ?`, ticker).Scan(&marketCap, &snap.Sector, &snap.Industry, &earnings)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CompanySnapshot{}, ErrNotFound
	}
	if err != nil {
		return model.CompanySnapshot{}, fmt.Errorf("query snapshot: %w", err)
	}
	snap.MarketCap = fromNullable(marketCap)
	if earnings.Valid && earnings.String != "" {
		if d, err := time.Parse(dateLayout, earnings.String); err == nil {
			snap.EarningsDate = &d
		}
	}
	return snap, nil
}

func (r *SQLiteRecorder) SaveSnapshot(ctx context.Context, snap model.CompanySnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var earnings sql.NullString
	if snap.EarningsDate != nil {
		earnings = sql.NullString{String: snap.EarningsDate.Format(dateLayout), Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO company_snapshots
		(ticker, market_cap, sector, industry, earnings_date, updated_at)
		VALUES (?,?,?,?,?,?)
		ON CONFLICT(ticker) DO UPDATE SET
			market_cap = excluded.market_cap,
			sector = excluded.sector,
			industry = excluded.industry,
			earnings_date = excluded.earnings_date,
			updated_at = excluded.updated_at`,
		snap.Ticker, nullable(snap.MarketCap), snap.Sector, snap.Industry, earnings, time.Now().Unix(),
	)
	return err
}

func tagLabels(tags []model.Tag) string {
	labels := make([]string, len(tags))
	for i, t := range tags {
		labels[i] = t.String()
	}
	b, _ := json.Marshal(labels)
	return string(b)
}

func outcomeText(o *model.Outcome) sql.NullString {
	if o == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*o), Valid: true}
}

func (r *SQLiteRecorder) RecordRun(ctx context.Context, run *RunSummary, trades []model.ScoredTrade, cells []BucketOutcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO backtest_runs
		(id, started_at, finished_at, trades, dropped, excluded, noise_dropped,
		 scored, ignored, labeled, unlabeled, tag_vocabulary)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		run.ID, run.StartedAt.Unix(), run.Finished.Unix(), run.Trades, run.Dropped, run.Excluded,
		run.NoiseDropped, run.Scored, run.Ignored, run.Labeled, run.Unlabeled, run.TagVocabulary,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO scored_trades
		(run_id, ticker, insider_name, transaction_date, transaction_type, price, shares, value,
		 tags, score, bucket, ignored, outcome_case_1, outcome_case_2)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare trades: %w", err)
	}
	defer stmt.Close()
	for i := range trades {
		t := &trades[i]
		if _, err := stmt.ExecContext(ctx, run.ID, t.Ticker, t.InsiderName,
			t.TransactionDate.Format(dateLayout), t.TransactionType, t.Price, t.Shares, t.Value,
			tagLabels(t.Tags), t.Score, t.Bucket, t.Ignored,
			outcomeText(t.OutcomeCase1), outcomeText(t.OutcomeCase2)); err != nil {
			return fmt.Errorf("insert trade %d: %w", i, err)
		}
	}

	for _, c := range cells {
		if _, err := tx.ExecContext(ctx, `INSERT INTO bucket_outcomes
			(run_id, axis, bucket, outcome, count, fraction) VALUES (?,?,?,?,?,?)`,
			run.ID, c.Axis, c.Bucket, string(c.Outcome), c.Count, c.Fraction); err != nil {
			return fmt.Errorf("insert bucket outcome: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	log.Info().Str("run_id", run.ID).Int("trades", len(trades)).Msg("backtest run recorded")
	return nil
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
