package model

import (
	"strings"
	"time"
)

// TradeRecord is one insider transaction after normalization.
type TradeRecord struct {
	Ticker          string
	InsiderName     string
	Relationship    string
	TransactionDate time.Time
	TransactionType string
	Price           float64
	Shares          int64
	Value           float64
	FilingRef       string
	// Case2Text is the free-text drawdown/spike timing classification
	// supplied by an upstream collaborator, if any.
	Case2Text string
	Tags      []Tag
}

// IsBuy reports whether the transaction is an open-market purchase.
func (t *TradeRecord) IsBuy() bool {
	tt := strings.ToLower(strings.TrimSpace(t.TransactionType))
	return tt == "buy" || tt == "purchase" || strings.HasPrefix(tt, "p -") || tt == "p"
}

// HasTag reports whether any tag with the given code is attached.
func (t *TradeRecord) HasTag(code TagCode) bool {
	for _, tag := range t.Tags {
		if tag.Code == code {
			return true
		}
	}
	return false
}

// HasAnyTag reports whether any of the given codes is attached.
func (t *TradeRecord) HasAnyTag(codes ...TagCode) bool {
	for _, c := range codes {
		if t.HasTag(c) {
			return true
		}
	}
	return false
}

// AddTag appends a tag. Tags are never removed.
func (t *TradeRecord) AddTag(tag Tag) {
	t.Tags = append(t.Tags, tag)
}

// CompanySnapshot is a point-in-time fact about the issuing company.
type CompanySnapshot struct {
	Ticker       string     `json:"ticker"`
	MarketCap    *float64   `json:"market_cap"`
	Sector       string     `json:"sector"`
	Industry     string     `json:"industry"`
	EarningsDate *time.Time `json:"earnings_date"`
}

// ScoredTrade is a trade after scoring and outcome resolution.
type ScoredTrade struct {
	TradeRecord
	Context      EnrichedContext
	Score        int
	Bucket       string
	Ignored      bool
	OutcomeCase1 *Outcome
	OutcomeCase2 *Outcome
}

// Labeled reports whether either outcome axis is known.
func (s *ScoredTrade) Labeled() bool {
	return s.OutcomeCase1 != nil || s.OutcomeCase2 != nil
}
