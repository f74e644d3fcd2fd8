package ingest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrEmptyAmount is returned when there is nothing to parse.
var ErrEmptyAmount = errors.New("empty amount")

var amountReplacer = strings.NewReplacer(
	",", "",
	"$", "",
	"€", "",
	"£", "",
	" ", "",
	"\u00a0", "",
	"\t", "",
	"−", "-",
)

// ParseAmount converts currency-formatted text such as "$1,234.50",
// "(2,000)", "+15" or "1,000−" into a number.
func ParseAmount(text string) (float64, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, ErrEmptyAmount
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = amountReplacer.Replace(s)
	if strings.HasSuffix(s, "-") {
		negative = !negative
		s = strings.TrimSuffix(s, "-")
	}
	s = strings.TrimPrefix(s, "+")
	if s == "" || s == "-" {
		return 0, fmt.Errorf("parse amount %q: %w", text, ErrEmptyAmount)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", text, err)
	}
	if negative {
		d = d.Neg()
	}
	f, _ := d.Float64()
	return f, nil
}

// ParseShares parses a share count, rounding fractional shares half away
// from zero.
func ParseShares(text string) (int64, error) {
	f, err := ParseAmount(text)
	if err != nil {
		return 0, err
	}
	return decimal.NewFromFloat(f).Round(0).IntPart(), nil
}
