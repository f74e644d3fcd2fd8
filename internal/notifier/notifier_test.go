package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"InsiderSignal/internal/backtest"
	"InsiderSignal/internal/model"
	"InsiderSignal/internal/pipeline"
	"InsiderSignal/internal/recorder"
)

func TestSend(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("TOKEN", "42", "")
	tn.APIBase = srv.URL
	require.NoError(t, tn.Send(context.Background(), "hello"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "hello", got["text"])
	assert.Equal(t, "HTML", got["parse_mode"])
}

func TestSendWithRetry_GivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("TOKEN", "42", "")
	tn.APIBase = srv.URL
	err := tn.SendWithRetry(context.Background(), "x", 0)
	assert.ErrorContains(t, err, "status 502")
	assert.Equal(t, int32(1), calls.Load())
}

func TestFormatRunDigest(t *testing.T) {
	res := &pipeline.Result{
		Summary: recorder.RunSummary{StartedAt: time.Date(2024, 3, 4, 7, 0, 0, 0, time.UTC), Trades: 10, Scored: 9, Ignored: 1},
		Case1:   backtest.Table{Axis: backtest.Case1},
		Case2:   backtest.Table{Axis: backtest.Case2},
	}
	msg := FormatRunDigest(res)
	assert.Contains(t, msg, "2024-03-04 07:00")
	assert.Contains(t, msg, "Scored: 9 | ignored: 1")
	assert.Contains(t, msg, "<pre>")
}

func TestFormatHighConviction(t *testing.T) {
	assert.Contains(t, FormatHighConviction(nil, 5), "No high-conviction")

	trades := []model.ScoredTrade{
		{TradeRecord: model.TradeRecord{Ticker: "A&B", InsiderName: "X"}, Score: 16, Bucket: "Highest"},
		{TradeRecord: model.TradeRecord{Ticker: "C", InsiderName: "Y"}, Score: 12, Bucket: "Ultra"},
	}
	msg := FormatHighConviction(trades, 1)
	assert.Contains(t, msg, "A&amp;B")
	assert.Contains(t, msg, "… and 1 more")
}
