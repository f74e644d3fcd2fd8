package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"InsiderSignal/internal/backtest"
	"InsiderSignal/internal/collector"
	"InsiderSignal/internal/model"
	"InsiderSignal/internal/pricestore"
	"InsiderSignal/internal/recorder"
)

const tradesCSV = `Ticker,Insider Name,Title,Transaction Date,Transaction,Price,Shares,Value ($),Case 2 Outcome
abc,Alice Smith,CEO,2024-03-04,Buy,100.00,"1,000","$100,000",BAD TIMING
ABC,Alice Smith,CEO,2024-03-04,Buy,101.00,"1,000","$101,000",BAD TIMING
ABC,Bob Jones,Director,2024-03-05,Buy,100.50,500,"$50,250",
ABC,Carol White,CFO,2024-03-06,Buy,99.75,800,"$79,800",SUCCESSFUL
ABC,Dan Brown,Director,2024-03-06,Buy,n/a,800,,
NEWCO,Eve Black,CEO,2024-03-06,Buy,10,100,"$1,000",
`

func day(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func fixture(t *testing.T) (*Pipeline, *recorder.MemoryRecorder, *collector.MockFetcher) {
	t.Helper()
	mem := recorder.NewMemoryRecorder()
	mock := &collector.MockFetcher{
		Bars: map[string][]model.PriceBar{
			"ABC": collector.GenerateBars(100, day("2024-01-02"), 140),
		},
		Snapshots: map[string]model.CompanySnapshot{
			"ABC": {MarketCap: model.Float(500e6), Sector: "Technology"},
		},
	}
	opts := DefaultOptions()
	opts.Exclusions.IPOTooRecent = []string{"NEWCO"}
	p := New(opts, mem)
	p.Fetcher = mock
	p.Snapshots = &pricestore.Snapshots{Layers: []pricestore.SnapshotCache{mem}, Fetcher: mock}
	p.Now = func() time.Time { return day("2024-12-02") }
	return p, mem, mock
}

func writeTrades(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trades.csv")
	require.NoError(t, os.WriteFile(path, []byte(tradesCSV), 0o644))
	return path
}

func TestRun_EndToEnd(t *testing.T) {
	p, mem, _ := fixture(t)
	res, err := p.RunFile(context.Background(), writeTrades(t))
	require.NoError(t, err)

	_, err = uuid.Parse(res.Summary.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, res.Summary.Dropped, "unparseable price")
	assert.Equal(t, 1, res.Summary.Excluded, "IPO list")
	assert.Equal(t, 3, res.Summary.Trades, "same-day rows aggregated")
	assert.Equal(t, 3, res.Summary.Scored)
	assert.Equal(t, model.TagVocabularyVersion, res.Summary.TagVocabulary)
	require.Len(t, res.Scored, 3)

	for _, st := range res.Scored {
		assert.Equal(t, "ABC", st.Ticker)
		assert.True(t, st.HasTag(model.TagClusterBuy), st.InsiderName)
		assert.True(t, st.HasTag(model.TagSmallCap))
		assert.True(t, st.HasTag(model.TagTech))
		assert.NotNil(t, st.Context.SMA, "indicators derived from refreshed bars")
		assert.NotNil(t, st.Context.Fwd(30).GainPct)
		assert.NotEmpty(t, st.Bucket)
		assert.NotNil(t, st.OutcomeCase1, "complete forward windows classify case 1")
	}

	alice := res.Scored[0]
	assert.Equal(t, "Alice Smith", alice.InsiderName)
	assert.Equal(t, int64(2000), alice.Shares)
	assert.InDelta(t, 201_000, alice.Value, 1e-6)
	assert.Equal(t, model.OutcomeUnsuccessful, *alice.OutcomeCase2)
	assert.Nil(t, res.Scored[1].OutcomeCase2)

	assert.NotEmpty(t, res.Case1.Rows)
	assert.Equal(t, backtest.Case2, res.Case2.Axis)
	assert.Empty(t, res.Unlabeled)
	assert.NotEmpty(t, res.TagStats)
	assert.Equal(t, 3, res.Patterns.Cluster)

	require.Len(t, mem.Runs, 1)
	assert.Equal(t, res.Summary.ID, mem.Runs[0].ID)

	snap, err := mem.LoadSnapshot(context.Background(), "ABC")
	require.NoError(t, err, "fetched snapshot cached")
	assert.Equal(t, "Technology", snap.Sector)
}

func TestRun_FetcherFailureDegrades(t *testing.T) {
	p, mem, mock := fixture(t)
	mock.Err = errors.New("provider down")

	res, err := p.RunFile(context.Background(), writeTrades(t))
	require.NoError(t, err)
	assert.Len(t, res.RefreshErrors, 1)
	require.Len(t, res.Scored, 3)
	for _, st := range res.Scored {
		assert.True(t, st.HasTag(model.TagUnknownSize))
		assert.True(t, st.HasTag(model.TagUnknownCap))
		assert.True(t, st.HasTag(model.TagInsufficientData))
		assert.True(t, st.HasTag(model.TagClusterBuy), "pattern eligibility ignores missing context")
		assert.Nil(t, st.OutcomeCase1)
	}
	assert.Len(t, res.Unlabeled, 1, "only the row without case-2 text is unlabeled")
	assert.Len(t, mem.Runs, 1)
}

func TestRun_Cancelled(t *testing.T) {
	p, _, _ := fixture(t)
	p.Fetcher = nil
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.RunFile(ctx, writeTrades(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteOutputs(t *testing.T) {
	p, _, _ := fixture(t)
	res, err := p.RunFile(context.Background(), writeTrades(t))
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, WriteOutputs(dir, res))
	for _, name := range []string{ScoredFile, HighConvictionFile, UnlabeledFile, ReportFile, SummaryFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
	report, err := os.ReadFile(filepath.Join(dir, ReportFile))
	require.NoError(t, err)
	assert.Contains(t, string(report), "Case 1")
}
