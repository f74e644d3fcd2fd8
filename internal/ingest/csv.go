package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"InsiderSignal/internal/model"
)

// TagSeparator joins serialized tags inside a single CSV cell.
const TagSeparator = "; "

var columnAliases = map[string]string{
	"ticker":           "ticker",
	"symbol":           "ticker",
	"insider_name":     "insider_name",
	"insider":          "insider_name",
	"owner":            "insider_name",
	"relationship":     "relationship",
	"title":            "relationship",
	"transaction_date": "transaction_date",
	"date":             "transaction_date",
	"transaction_type": "transaction_type",
	"transaction":      "transaction_type",
	"price":            "price",
	"shares":           "shares",
	"qty":              "shares",
	"value":            "value",
	"value_($)":        "value",
	"sec_form4":        "sec_form4",
	"sec_form_4":       "sec_form4",
	"case_2_outcome":   "case_2_outcome",
}

var requiredColumns = []string{"ticker", "insider_name", "transaction_date", "price", "shares"}

func canonicalColumn(h string) string {
	h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	h = strings.ReplaceAll(h, " ", "_")
	if c, ok := columnAliases[h]; ok {
		return c
	}
	return h
}

// ReadTrades reads a header-led CSV trade table. Unknown columns are ignored;
// a missing required column is an error.
func ReadTrades(r io.Reader) ([]RawTrade, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("trade table is empty")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		c := canonicalColumn(h)
		if _, dup := cols[c]; !dup {
			cols[c] = i
		}
	}
	for _, req := range requiredColumns {
		if _, ok := cols[req]; !ok {
			return nil, fmt.Errorf("trade table missing column %q", req)
		}
	}

	get := func(rec []string, col string) string {
		i, ok := cols[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	var rows []RawTrade
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		rows = append(rows, RawTrade{
			Ticker:          get(rec, "ticker"),
			InsiderName:     get(rec, "insider_name"),
			Relationship:    get(rec, "relationship"),
			TransactionDate: get(rec, "transaction_date"),
			TransactionType: get(rec, "transaction_type"),
			Price:           get(rec, "price"),
			Shares:          get(rec, "shares"),
			Value:           get(rec, "value"),
			FilingRef:       get(rec, "sec_form4"),
			Case2Text:       get(rec, "case_2_outcome"),
		})
	}
	return rows, nil
}

var scoredHeader = []string{
	"ticker", "insider_name", "relationship", "transaction_date", "transaction_type",
	"price", "shares", "value", "sec_form4", "tags", "score", "bucket", "ignored",
	"outcome_case_1", "outcome_case_2", "ownership_pct", "final_gain_30",
	"low_7d", "high_7d", "low_15d", "high_15d",
}

// WriteScored writes the tagged and scored trade table.
func WriteScored(w io.Writer, trades []model.ScoredTrade) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(scoredHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range trades {
		t := &trades[i]
		row := []string{
			t.Ticker,
			t.InsiderName,
			t.Relationship,
			t.TransactionDate.Format("2006-01-02"),
			t.TransactionType,
			formatFloat(t.Price),
			strconv.FormatInt(t.Shares, 10),
			formatFloat(t.Value),
			t.FilingRef,
			JoinTags(t.Tags),
			strconv.Itoa(t.Score),
			t.Bucket,
			strconv.FormatBool(t.Ignored),
			formatOutcome(t.OutcomeCase1),
			formatOutcome(t.OutcomeCase2),
			formatOptional(t.Context.OwnershipPct),
			formatOptional(t.Context.FinalGain30),
			formatOptional(t.Context.Bwd(7).Low),
			formatOptional(t.Context.Bwd(7).High),
			formatOptional(t.Context.Bwd(15).Low),
			formatOptional(t.Context.Bwd(15).High),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// JoinTags serializes tags into one cell.
func JoinTags(tags []model.Tag) string {
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = t.String()
	}
	return strings.Join(parts, TagSeparator)
}

// SplitTags parses a cell written by JoinTags. Unknown labels are returned as
// an error alongside the tags that did parse.
func SplitTags(cell string) ([]model.Tag, error) {
	if strings.TrimSpace(cell) == "" {
		return nil, nil
	}
	var (
		tags []model.Tag
		errs []error
	)
	for _, part := range strings.Split(cell, TagSeparator) {
		t, err := model.ParseTag(part)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		tags = append(tags, t)
	}
	return tags, errors.Join(errs...)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatOutcome(o *model.Outcome) string {
	if o == nil {
		return ""
	}
	return string(*o)
}
