package ingest

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"InsiderSignal/internal/model"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"$1,234.50", 1234.5},
		{"  42 ", 42},
		{"+15", 15},
		{"(2,000)", -2000},
		{"1,000−", -1000},
		{"-3.25", -3.25},
		{"€ 7", 7},
		{"1 000", 1000},
	}
	for _, tt := range tests {
		got, err := ParseAmount(tt.in)
		require.NoError(t, err, tt.in)
		assert.InDelta(t, tt.want, got, 1e-9, tt.in)
	}

	for _, bad := range []string{"", "   ", "n/a", "$", "12abc"} {
		_, err := ParseAmount(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseShares_Rounds(t *testing.T) {
	n, err := ParseShares("1,000.6")
	require.NoError(t, err)
	assert.Equal(t, int64(1001), n)
}

func TestNormalize_DropsMalformedRows(t *testing.T) {
	rows := []RawTrade{
		{Ticker: "abc", InsiderName: "Jane", TransactionDate: "2024-03-01", TransactionType: "Buy", Price: "$10.00", Shares: "1,000"},
		{Ticker: "abc", InsiderName: "Jane", TransactionDate: "2024-03-01", TransactionType: "Buy", Price: "N/A", Shares: "100"},
		{Ticker: "abc", InsiderName: "Jane", TransactionDate: "2024-03-01", TransactionType: "Buy", Price: "10", Shares: ""},
		{Ticker: "abc", InsiderName: "Jane", TransactionDate: "yesterday", TransactionType: "Buy", Price: "10", Shares: "5"},
		{Ticker: "xyz", InsiderName: "Bob", TransactionDate: "03/04/2024", TransactionType: "Buy", Price: "5", Shares: "10", Value: "$60"},
	}
	recs, dropped := Normalize(rows)
	assert.Equal(t, 3, dropped)
	require.Len(t, recs, 2)

	assert.Equal(t, "ABC", recs[0].Ticker)
	assert.Equal(t, 10000.0, recs[0].Value, "value derived from price × shares")
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), recs[0].TransactionDate)

	assert.Equal(t, 60.0, recs[1].Value, "reported value wins")
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), recs[1].TransactionDate)
}

func TestAggregate(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	recs := []model.TradeRecord{
		{Ticker: "ABC", InsiderName: "Jane", Relationship: "CEO", FilingRef: "f1", TransactionDate: day, TransactionType: "Buy", Price: 10, Shares: 100, Value: 1000},
		{Ticker: "XYZ", InsiderName: "Jane", TransactionDate: day, TransactionType: "Buy", Price: 3, Shares: 10, Value: 30},
		{Ticker: "ABC", InsiderName: "Jane", Relationship: "Director", FilingRef: "f2", TransactionDate: day.Add(3 * time.Hour), TransactionType: "Buy", Price: 13, Shares: 200, Value: 2600},
		{Ticker: "ABC", InsiderName: "Jane", TransactionDate: day, TransactionType: "Sell", Price: 12, Shares: 50, Value: 600},
	}
	out := Aggregate(recs)
	require.Len(t, out, 3)

	merged := out[0]
	assert.Equal(t, "ABC", merged.Ticker)
	assert.InDelta(t, 12.0, merged.Price, 1e-9)
	assert.Equal(t, int64(300), merged.Shares)
	assert.Equal(t, 3600.0, merged.Value)
	assert.Equal(t, "CEO", merged.Relationship)
	assert.Equal(t, "f1", merged.FilingRef)

	assert.Equal(t, "XYZ", out[1].Ticker)
	assert.Equal(t, "Sell", out[2].TransactionType)
}

func TestAggregate_ZeroAndNegativeShares(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	out := Aggregate([]model.TradeRecord{
		{Ticker: "A", InsiderName: "X", TransactionDate: day, Price: 7, Shares: 0},
		{Ticker: "A", InsiderName: "X", TransactionDate: day, Price: 9, Shares: 0},
		{Ticker: "B", InsiderName: "X", TransactionDate: day, Price: 5, Shares: -40, Value: -200},
	})
	require.Len(t, out, 2)
	assert.Equal(t, 7.0, out[0].Price, "first price when no shares")
	assert.Equal(t, int64(40), out[1].Shares)
	assert.Equal(t, 200.0, out[1].Value)
}

func TestNormalize_NegativeSharesSizeLikeBuys(t *testing.T) {
	recs, dropped := Normalize([]RawTrade{
		{Ticker: "ABC", InsiderName: "Jane", TransactionDate: "2024-03-01", TransactionType: "Sell", Price: "$10.00", Shares: "-2,000"},
	})
	require.Zero(t, dropped)
	out := Aggregate(recs)
	require.Len(t, out, 1)
	assert.Equal(t, int64(2000), out[0].Shares)
	assert.Equal(t, 20000.0, out[0].Value)
	assert.Positive(t, out[0].Value)
}

func TestFilterExcluded(t *testing.T) {
	recs := []model.TradeRecord{{Ticker: "NEW"}, {Ticker: "NOCAP"}, {Ticker: "TINY"}, {Ticker: "OK"}, {Ticker: "UNK"}}
	ex := Exclusions{IPOTooRecent: []string{"new"}, NoMarketCap: []string{"NOCAP"}, MinMarketCap: 50e6}
	snaps := map[string]model.CompanySnapshot{
		"TINY": {MarketCap: model.Float(10e6)},
		"OK":   {MarketCap: model.Float(900e6)},
	}
	kept, removed := FilterExcluded(recs, ex, snaps)
	assert.Equal(t, 3, removed)
	require.Len(t, kept, 2)
	assert.Equal(t, "OK", kept[0].Ticker)
	assert.Equal(t, "UNK", kept[1].Ticker, "unknown cap is not dropped by the minimum")
}

func TestReadTrades(t *testing.T) {
	in := "Ticker,Insider Name,Relationship,Transaction Date,Transaction Type,Price,Shares,Value,SEC_Form4,extra\n" +
		`ABC,Jane Doe,"CEO, Director",2024-03-01,Buy,"$10.00","1,000",,https://sec/1,x` + "\n"
	rows, err := ReadTrades(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Jane Doe", rows[0].InsiderName)
	assert.Equal(t, "CEO, Director", rows[0].Relationship)
	assert.Equal(t, "1,000", rows[0].Shares)
	assert.Equal(t, "https://sec/1", rows[0].FilingRef)

	_, err = ReadTrades(strings.NewReader("ticker,price\nABC,1\n"))
	assert.Error(t, err)
}

func TestWriteScored_TagsSurviveSplit(t *testing.T) {
	succ := model.OutcomeSuccessful
	trade := model.ScoredTrade{
		TradeRecord: model.TradeRecord{
			Ticker: "ABC", TransactionDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			Tags: []model.Tag{model.T(model.TagCEO), model.SectorTag("Aerospace")},
		},
		Context: model.EnrichedContext{
			Backward: map[int]model.BackwardWindow{7: {Low: model.Float(8.25), High: model.Float(11.5)}},
		},
		Score: 3, Bucket: "Low", OutcomeCase1: &succ,
	}
	var buf bytes.Buffer
	require.NoError(t, WriteScored(&buf, []model.ScoredTrade{trade}))
	assert.Contains(t, buf.String(), "👑 CEO; 🧰 Other: Aerospace")
	assert.Contains(t, buf.String(), "SUCCESSFUL")
	assert.Contains(t, buf.String(), "low_7d,high_7d,low_15d,high_15d")
	assert.Contains(t, buf.String(), ",8.25,11.5,,", "missing 15-day window stays empty")

	tags, err := SplitTags(JoinTags(trade.Tags))
	require.NoError(t, err)
	assert.Equal(t, trade.Tags, tags)
}
