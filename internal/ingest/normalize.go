package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"InsiderSignal/internal/model"
)

// RawTrade is one disclosure row as read from the trade table, before any
// numeric or date normalization.
type RawTrade struct {
	Ticker          string
	InsiderName     string
	Relationship    string
	TransactionDate string
	TransactionType string
	Price           string
	Shares          string
	Value           string
	FilingRef       string
	Case2Text       string
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"01/02/2006",
}

// ParseDate accepts the date layouts seen in disclosure exports.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// Normalize converts raw rows into trade records. Rows whose price, shares or
// date cannot be parsed are dropped and counted; they never abort the batch.
// Value falls back to price × shares when not reported.
func Normalize(rows []RawTrade) ([]model.TradeRecord, int) {
	out := make([]model.TradeRecord, 0, len(rows))
	dropped := 0
	for i, r := range rows {
		rec, err := normalizeRow(r)
		if err != nil {
			dropped++
			log.Warn().Err(err).Int("row", i).Str("ticker", r.Ticker).Msg("dropping malformed trade row")
			continue
		}
		out = append(out, rec)
	}
	return out, dropped
}

func normalizeRow(r RawTrade) (model.TradeRecord, error) {
	price, err := ParseAmount(r.Price)
	if err != nil {
		return model.TradeRecord{}, fmt.Errorf("price: %w", err)
	}
	shares, err := ParseShares(r.Shares)
	if err != nil {
		return model.TradeRecord{}, fmt.Errorf("shares: %w", err)
	}
	date, err := ParseDate(r.TransactionDate)
	if err != nil {
		return model.TradeRecord{}, fmt.Errorf("transaction date: %w", err)
	}

	value, err := ParseAmount(r.Value)
	if err != nil || value == 0 {
		value = price * float64(shares)
	}

	return model.TradeRecord{
		Ticker:          strings.ToUpper(strings.TrimSpace(r.Ticker)),
		InsiderName:     strings.TrimSpace(r.InsiderName),
		Relationship:    strings.TrimSpace(r.Relationship),
		TransactionDate: date,
		TransactionType: strings.TrimSpace(r.TransactionType),
		Price:           price,
		Shares:          shares,
		Value:           value,
		FilingRef:       strings.TrimSpace(r.FilingRef),
		Case2Text:       strings.TrimSpace(r.Case2Text),
	}, nil
}
