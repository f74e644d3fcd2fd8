package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"InsiderSignal/internal/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher and SnapshotFetcher using Yahoo Finance
// public endpoints.
type YahooFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	return &YahooFetcher{
		BaseURL: yahooBaseURL,
		Client:  newHTTPClient(proxyURL),
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"chart"`
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func at(vals []*float64, i int) *float64 {
	if i >= len(vals) {
		return nil
	}
	return vals[i]
}

func (f *YahooFetcher) get(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("yahoo decode: %w", err)
	}
	return nil
}

// FetchDailyRange fetches daily bars between from and to inclusive.
func (f *YahooFetcher) FetchDailyRange(ctx context.Context, symbol string, from, to time.Time) ([]model.PriceBar, error) {
	from, to = model.Day(from), model.Day(to)
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&period1=%d&period2=%d",
		f.BaseURL, url.PathEscape(symbol), from.Unix(), to.AddDate(0, 0, 1).Unix())

	var chart yahooChart
	if err := f.get(ctx, u, &chart); err != nil {
		return nil, err
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]model.PriceBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		o, h, l, c := at(quote.Open, i), at(quote.High, i), at(quote.Low, i), at(quote.Close, i)
		if o == nil || h == nil || l == nil || c == nil {
			continue // null bars on halted days
		}
		day := model.Day(time.Unix(ts, 0).UTC())
		if day.Before(from) || day.After(to) {
			continue
		}
		bar := model.PriceBar{Date: day, Open: *o, High: *h, Low: *l, Close: *c}
		if v := at(quote.Volume, i); v != nil {
			bar.Volume = *v
		}
		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

type yahooRaw struct {
	Raw *float64 `json:"raw"`
}

type yahooSummary struct {
	QuoteSummary struct {
		Result []struct {
			Price struct {
				MarketCap yahooRaw `json:"marketCap"`
			} `json:"price"`
			SummaryProfile struct {
				Sector   string `json:"sector"`
				Industry string `json:"industry"`
			} `json:"summaryProfile"`
			CalendarEvents struct {
				Earnings struct {
					EarningsDate []yahooRaw `json:"earningsDate"`
				} `json:"earnings"`
			} `json:"calendarEvents"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"quoteSummary"`
}

// FetchSnapshot fetches market cap, sector, industry and the next earnings date.
func (f *YahooFetcher) FetchSnapshot(ctx context.Context, ticker string) (model.CompanySnapshot, error) {
	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=price,summaryProfile,calendarEvents",
		f.BaseURL, url.PathEscape(ticker))

	var summary yahooSummary
	if err := f.get(ctx, u, &summary); err != nil {
		return model.CompanySnapshot{}, err
	}
	if summary.QuoteSummary.Error != nil {
		return model.CompanySnapshot{}, fmt.Errorf("yahoo api error: %s", summary.QuoteSummary.Error.Description)
	}
	if len(summary.QuoteSummary.Result) == 0 {
		return model.CompanySnapshot{}, fmt.Errorf("yahoo: no summary for %s", ticker)
	}

	r := summary.QuoteSummary.Result[0]
	snap := model.CompanySnapshot{
		Ticker:   ticker,
		Sector:   r.SummaryProfile.Sector,
		Industry: r.SummaryProfile.Industry,
	}
	if mc := r.Price.MarketCap.Raw; mc != nil && *mc > 0 {
		snap.MarketCap = mc
	}
	if dates := r.CalendarEvents.Earnings.EarningsDate; len(dates) > 0 && dates[0].Raw != nil {
		ed := model.Day(time.Unix(int64(*dates[0].Raw), 0).UTC())
		snap.EarningsDate = &ed
	}
	return snap, nil
}
