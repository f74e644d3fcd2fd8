package pattern

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"InsiderSignal/internal/model"
)

func day(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func buy(ticker, insider, date string, tags ...model.TagCode) *model.TradeRecord {
	tr := &model.TradeRecord{
		Ticker:          ticker,
		InsiderName:     insider,
		TransactionDate: day(date),
		TransactionType: "Buy",
	}
	for _, c := range tags {
		tr.AddTag(model.T(c))
	}
	return tr
}

func TestCluster_Boundary(t *testing.T) {
	d := New(DefaultConfig())

	two := []*model.TradeRecord{
		buy("ABC", "Alice", "2024-03-04"),
		buy("ABC", "Bob", "2024-03-06"),
		buy("ABC", "Alice", "2024-03-07"),
	}
	st := d.Detect(two)
	assert.Zero(t, st.Cluster)
	for _, tr := range two {
		assert.False(t, tr.HasTag(model.TagClusterBuy))
	}

	three := []*model.TradeRecord{
		buy("ABC", "Alice", "2024-03-04"),
		buy("ABC", "Bob", "2024-03-06"),
		buy("ABC", "Carol", "2024-03-08"),
	}
	st = d.Detect(three)
	assert.Equal(t, 3, st.Cluster)
	for _, tr := range three {
		assert.True(t, tr.HasTag(model.TagClusterBuy))
	}
}

func TestCluster_PerRowWindow(t *testing.T) {
	// 2024-03-01 is a Friday; +5 business days is 2024-03-08.
	trades := []*model.TradeRecord{
		buy("ABC", "Alice", "2024-03-01"),
		buy("ABC", "Bob", "2024-03-08"),
		buy("ABC", "Carol", "2024-03-11"),
		buy("XYZ", "Dave", "2024-03-08"),
	}
	New(DefaultConfig()).Detect(trades)

	assert.False(t, trades[0].HasTag(model.TagClusterBuy), "Carol is outside Alice's window")
	assert.True(t, trades[1].HasTag(model.TagClusterBuy))
	assert.False(t, trades[2].HasTag(model.TagClusterBuy), "Alice is outside Carol's window")
	assert.False(t, trades[3].HasTag(model.TagClusterBuy), "other tickers never count")
}

func TestCluster_IgnoresSells(t *testing.T) {
	trades := []*model.TradeRecord{
		buy("ABC", "Alice", "2024-03-04"),
		buy("ABC", "Bob", "2024-03-05"),
		buy("ABC", "Carol", "2024-03-06"),
	}
	trades[2].TransactionType = "Sale"
	New(DefaultConfig()).Detect(trades)
	for _, tr := range trades {
		assert.False(t, tr.HasTag(model.TagClusterBuy))
	}
}

func TestMultipleBuys_WithoutCluster(t *testing.T) {
	trades := []*model.TradeRecord{
		buy("ABC", "Alice", "2024-03-04", model.TagSmallTrade),
		buy("ABC", "Alice", "2024-03-07"),
	}
	st := New(DefaultConfig()).Detect(trades)

	assert.Equal(t, 2, st.Multiple)
	for _, tr := range trades {
		assert.True(t, tr.HasTag(model.TagMultipleBuys))
		assert.False(t, tr.HasTag(model.TagClusterBuy))
	}
}

func TestMultipleBuys_RequiresSizeTag(t *testing.T) {
	trades := []*model.TradeRecord{
		buy("ABC", "Alice", "2024-03-04", model.TagUnknownSize),
		buy("ABC", "Alice", "2024-03-07"),
	}
	New(DefaultConfig()).Detect(trades)
	for _, tr := range trades {
		assert.False(t, tr.HasTag(model.TagMultipleBuys))
	}
}

func TestMultipleBuys_OutsideWindow(t *testing.T) {
	trades := []*model.TradeRecord{
		buy("ABC", "Alice", "2024-03-01", model.TagLargeTrade),
		buy("ABC", "Alice", "2024-03-11", model.TagLargeTrade),
	}
	New(DefaultConfig()).Detect(trades)
	for _, tr := range trades {
		assert.False(t, tr.HasTag(model.TagMultipleBuys))
	}
}

// insiderHistory returns n trades by one insider on distinct tickers, the
// first wins of which carry the successful outcome tag.
func insiderHistory(name string, n, wins int) []*model.TradeRecord {
	out := make([]*model.TradeRecord, n)
	for i := range out {
		tr := buy(fmt.Sprintf("T%03d", i), name, "2024-01-02")
		if i < wins {
			tr.AddTag(model.T(model.TagSuccessfulC1))
		} else {
			tr.AddTag(model.T(model.TagUnsuccessfulC1))
		}
		out[i] = tr
	}
	return out
}

func TestSmartInsider(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		wins  int
		smart bool
	}{
		{"too few trades", 4, 4, false},
		{"at min trades", 5, 4, true},
		{"exactly seventy percent", 10, 7, true},
		{"sixty-nine percent", 100, 69, false},
		{"seventy of a hundred", 100, 70, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trades := insiderHistory("Alice", tt.n, tt.wins)
			New(DefaultConfig()).Detect(trades)
			for _, tr := range trades {
				assert.Equal(t, tt.smart, tr.HasTag(model.TagSmartInsider))
			}
		})
	}
}

func TestSmartInsider_UnlabeledTradesCountInDenominator(t *testing.T) {
	trades := insiderHistory("Alice", 7, 7)
	trades = append(trades, buy("NEW", "alice ", "2024-06-03"), buy("NEW2", "Alice", "2024-06-04"), buy("NEW3", "Alice", "2024-06-05"))
	New(DefaultConfig()).Detect(trades)
	// 7 wins out of 10 trades, matched across name spelling.
	for _, tr := range trades {
		assert.True(t, tr.HasTag(model.TagSmartInsider))
	}
}

func TestDetect_ReadsEntrySnapshot(t *testing.T) {
	trades := []*model.TradeRecord{
		buy("ABC", "Alice", "2024-03-04", model.TagSmallTrade),
		buy("ABC", "Alice", "2024-03-05"),
		buy("ABC", "Bob", "2024-03-05"),
		buy("ABC", "Carol", "2024-03-06"),
	}
	before := len(trades[1].Tags)
	New(DefaultConfig()).Detect(trades)

	assert.Equal(t, []model.TagCode{model.TagClusterBuy, model.TagMultipleBuys}, tagCodes(trades[1].Tags[before:]))
	assert.Equal(t, []model.TagCode{model.TagClusterBuy}, tagCodes(trades[2].Tags))
}

func TestDetect_NoContextStillEligible(t *testing.T) {
	trades := []*model.TradeRecord{
		buy("ABC", "Alice", "2024-03-04", model.TagUnknownSize, model.TagUnknownCap, model.TagInsufficientData),
		buy("ABC", "Bob", "2024-03-05", model.TagInsufficientData),
		buy("ABC", "Carol", "2024-03-06"),
	}
	New(DefaultConfig()).Detect(trades)
	assert.True(t, trades[0].HasTag(model.TagClusterBuy))
}

func tagCodes(tags []model.Tag) []model.TagCode {
	out := make([]model.TagCode, len(tags))
	for i, t := range tags {
		out[i] = t.Code
	}
	return out
}
