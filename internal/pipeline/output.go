package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"InsiderSignal/internal/backtest"
	"InsiderSignal/internal/ingest"
	"InsiderSignal/internal/model"
	"InsiderSignal/internal/recorder"
)

// Output file names inside the output directory.
const (
	ScoredFile         = "scored_trades.csv"
	HighConvictionFile = "high_conviction.csv"
	UnlabeledFile      = "unlabeled_trades.csv"
	ReportFile         = "backtest_report.txt"
	SummaryFile        = "run_summary.json"
)

// runFile is the JSON shape of SummaryFile.
type runFile struct {
	Summary  recorder.RunSummary `json:"summary"`
	Patterns struct {
		Cluster  int `json:"cluster"`
		Multiple int `json:"multiple"`
		Smart    int `json:"smart"`
	} `json:"patterns"`
	Cells []recorder.BucketOutcome `json:"cells"`
}

// WriteOutputs writes the scored table, both extracts, the text report and
// a JSON run summary into dir.
func WriteOutputs(dir string, res *Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tables := []struct {
		name   string
		trades []model.ScoredTrade
	}{
		{ScoredFile, res.Scored},
		{HighConvictionFile, res.HighConviction},
		{UnlabeledFile, res.Unlabeled},
	}
	for _, t := range tables {
		if err := writeCSV(filepath.Join(dir, t.name), t.trades); err != nil {
			return err
		}
	}

	report := backtest.Report(res.Case1, res.Case2) + "\n" + backtest.FormatTagStats(res.TagStats, 25)
	if err := os.WriteFile(filepath.Join(dir, ReportFile), []byte(report), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	var rf runFile
	rf.Summary = res.Summary
	rf.Patterns.Cluster = res.Patterns.Cluster
	rf.Patterns.Multiple = res.Patterns.Multiple
	rf.Patterns.Smart = res.Patterns.Smart
	rf.Cells = cells(res.Case1, res.Case2)
	data, err := json.MarshalIndent(rf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, SummaryFile), data, 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

func writeCSV(path string, trades []model.ScoredTrade) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := ingest.WriteScored(f, trades); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
