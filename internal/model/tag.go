package model

import (
	"fmt"
	"strings"
)

// TagVocabularyVersion identifies the serialized tag vocabulary below.
// Bump it whenever a label string changes.
const TagVocabularyVersion = 2

// TagCode is the closed set of tags the engine can emit.
type TagCode uint16

const (
	TagUnknown TagCode = iota

	// Role
	TagCEO
	TagCFO
	TagCOO
	TagCRO
	TagCIO
	TagCBO
	TagChairman
	TagPresident
	TagEVP
	TagPortfolioManager
	TagTenPercentOwner
	TagDirector
	TagRoleOther

	// Trade size
	TagVeryLargeTrade
	TagLargeTrade
	TagSmallTrade
	TagUnknownSize

	// Company cap
	TagMicroCap
	TagSmallCap
	TagMidCap
	TagLargeCap
	TagMegaCap
	TagUnknownCap

	// Sector
	TagTech
	TagHealthcare
	TagConsumerCyclical
	TagConsumerDefensive
	TagEnergy
	TagIndustrial
	TagUtilities
	TagRealEstate
	TagMaterials
	TagCommunication
	TagFinancial
	TagSectorOther

	// Timing
	TagDipBuy
	TagBuyingIntoStrength
	TagCaughtKnife7d
	TagCaughtKnife14d
	TagAboveClose
	TagBelowClose
	TagSpike7d
	TagBigSpike7d
	TagSpike14d
	TagBigSpike14d
	TagSpike30d
	TagBigSpike30d
	TagDrawdown7d
	TagDeepDrawdown7d
	TagDrawdown14d
	TagDeepDrawdown14d
	TagDrawdown30d
	TagDeepDrawdown30d

	// Indicators
	TagAboveSMA
	TagBelowSMA
	TagSMASupportReclaimed
	TagSMALost
	TagOversold
	TagOverbought
	TagNeutralRSI
	TagStrongTrend
	TagDipSetup
	TagInsufficientData

	// Earnings
	TagNearEarnings

	// Outcome (case 1)
	TagSuccessfulC1
	TagNeutralC1
	TagUnsuccessfulC1

	// Cross-record patterns
	TagClusterBuy
	TagMultipleBuys
	TagSmartInsider

	tagCodeEnd
)

// TagFamily groups tags for reporting.
type TagFamily string

const (
	FamilyRole      TagFamily = "role"
	FamilySize      TagFamily = "size"
	FamilyCap       TagFamily = "cap"
	FamilySector    TagFamily = "sector"
	FamilyTiming    TagFamily = "timing"
	FamilyIndicator TagFamily = "indicator"
	FamilyEarnings  TagFamily = "earnings"
	FamilyOutcome   TagFamily = "outcome"
	FamilyPattern   TagFamily = "pattern"
)

// tagLabels is the historical string vocabulary, used only at I/O boundaries.
var tagLabels = map[TagCode]string{
	TagCEO:              "👑 CEO",
	TagCFO:              "💼 CFO",
	TagCOO:              "⚙️ COO",
	TagCRO:              "💰 CRO",
	TagCIO:              "📈 CIO",
	TagCBO:              "🧠 CBO",
	TagChairman:         "🪑 Chairman",
	TagPresident:        "🎖️ President",
	TagEVP:              "🧍 EVP",
	TagPortfolioManager: "📊 Portfolio Manager",
	TagTenPercentOwner:  "🔟 10% Owner",
	TagDirector:         "📋 Director",
	TagRoleOther:        "🕵️ Other",

	TagVeryLargeTrade: "🔥 VERY LARGE TRADE",
	TagLargeTrade:     "💰 LARGE TRADE",
	TagSmallTrade:     "🟢 SMALL TRADE",
	TagUnknownSize:    "❓ UNKNOWN SIZE",

	TagMicroCap:   "🐣 MICRO CAP",
	TagSmallCap:   "🌱 SMALL CAP",
	TagMidCap:     "🌿 MID CAP",
	TagLargeCap:   "🌳 LARGE CAP",
	TagMegaCap:    "🏔️ MEGA CAP",
	TagUnknownCap: "❓ UNKNOWN CAP",

	TagTech:              "📡 Tech",
	TagHealthcare:        "🏥 Healthcare",
	TagConsumerCyclical:  "🛍️ Consumer Cyclical",
	TagConsumerDefensive: "🛒 Consumer Defensive",
	TagEnergy:            "⚡ Energy",
	TagIndustrial:        "🏗️ Industrial",
	TagUtilities:         "🔌 Utilities",
	TagRealEstate:        "🏘️ Real Estate",
	TagMaterials:         "⚙️ Materials",
	TagCommunication:     "📞 Communication",
	TagFinancial:         "🏦 Financial",
	TagSectorOther:       "🧰 Other",

	TagDipBuy:             "📉 DIP BUY",
	TagBuyingIntoStrength: "🚀 BUYING INTO STRENGTH",
	TagCaughtKnife7d:      "🧨 CAUGHT THE KNIFE [7d]",
	TagCaughtKnife14d:     "🧨 CAUGHT THE KNIFE [14d]",
	TagAboveClose:         "📈 ABOVE CLOSE",
	TagBelowClose:         "📉 BELOW CLOSE",
	TagSpike7d:            "📈 SPIKE [7d]",
	TagBigSpike7d:         "🌋 BIG SPIKE [7d]",
	TagSpike14d:           "📈 SPIKE [14d]",
	TagBigSpike14d:        "🌋 BIG SPIKE [14d]",
	TagSpike30d:           "📈 SPIKE [30d]",
	TagBigSpike30d:        "🌋 BIG SPIKE [30d]",
	TagDrawdown7d:         "📉 DRAWDOWN [7d]",
	TagDeepDrawdown7d:     "🩸 DEEP DRAWDOWN [7d]",
	TagDrawdown14d:        "📉 DRAWDOWN [14d]",
	TagDeepDrawdown14d:    "🩸 DEEP DRAWDOWN [14d]",
	TagDrawdown30d:        "📉 DRAWDOWN [30d]",
	TagDeepDrawdown30d:    "🩸 DEEP DRAWDOWN [30d]",

	TagAboveSMA:            "📈 ABOVE SMA20",
	TagBelowSMA:            "📉 BELOW SMA20",
	TagSMASupportReclaimed: "⚡️ SMA SUPPORT RECLAIMED",
	TagSMALost:             "🔻 SMA LOST",
	TagOversold:            "🔻 OVERSOLD (RSI < 30)",
	TagOverbought:          "🚀 OVERBOUGHT (RSI > 70)",
	TagNeutralRSI:          "🟡 NEUTRAL (RSI)",
	TagStrongTrend:         "💪 STRONG TREND",
	TagDipSetup:            "📉 DIP SETUP",
	TagInsufficientData:    "⚠️ INSUFFICIENT DATA",

	TagNearEarnings: "📅 NEAR EARNINGS",

	TagSuccessfulC1:   "🟢 SUCCESSFUL TRADE C1",
	TagNeutralC1:      "⚪ NEUTRAL TRADE C1",
	TagUnsuccessfulC1: "🔴 UNSUCCESSFUL TRADE C1",

	TagClusterBuy:   "🔁 CLUSTER BUY",
	TagMultipleBuys: "🧩 MULTIPLE BUYS",
	TagSmartInsider: "🧠 SMART INSIDER",
}

var labelToCode = func() map[string]TagCode {
	m := make(map[string]TagCode, len(tagLabels))
	for code, label := range tagLabels {
		m[label] = code
	}
	return m
}()

const sectorWrapperSep = ": "

// Tag is a categorical label attached to a trade. Detail is only set for
// TagSectorOther, where it carries the raw sector name.
type Tag struct {
	Code   TagCode
	Detail string
}

// T wraps a code into a Tag.
func T(code TagCode) Tag { return Tag{Code: code} }

// SectorTag wraps an unrecognized sector name.
func SectorTag(raw string) Tag { return Tag{Code: TagSectorOther, Detail: raw} }

// String returns the serialized label.
func (t Tag) String() string {
	label, ok := tagLabels[t.Code]
	if !ok {
		return fmt.Sprintf("tag(%d)", t.Code)
	}
	if t.Code == TagSectorOther && t.Detail != "" {
		return label + sectorWrapperSep + t.Detail
	}
	return label
}

// Label returns the serialized label of a code.
func (c TagCode) Label() string { return T(c).String() }

// Family returns the family a code belongs to.
func (c TagCode) Family() TagFamily {
	switch {
	case c >= TagCEO && c <= TagRoleOther:
		return FamilyRole
	case c >= TagVeryLargeTrade && c <= TagUnknownSize:
		return FamilySize
	case c >= TagMicroCap && c <= TagUnknownCap:
		return FamilyCap
	case c >= TagTech && c <= TagSectorOther:
		return FamilySector
	case c >= TagDipBuy && c <= TagDeepDrawdown30d:
		return FamilyTiming
	case c >= TagAboveSMA && c <= TagInsufficientData:
		return FamilyIndicator
	case c == TagNearEarnings:
		return FamilyEarnings
	case c >= TagSuccessfulC1 && c <= TagUnsuccessfulC1:
		return FamilyOutcome
	case c >= TagClusterBuy && c <= TagSmartInsider:
		return FamilyPattern
	}
	return ""
}

// ParseTag maps a serialized label back to a Tag.
func ParseTag(s string) (Tag, error) {
	s = strings.TrimSpace(s)
	if code, ok := labelToCode[s]; ok {
		return T(code), nil
	}
	prefix := tagLabels[TagSectorOther] + sectorWrapperSep
	if strings.HasPrefix(s, prefix) {
		return SectorTag(strings.TrimPrefix(s, prefix)), nil
	}
	return Tag{}, fmt.Errorf("unknown tag %q", s)
}

// AllTagCodes lists every code in declaration order.
func AllTagCodes() []TagCode {
	codes := make([]TagCode, 0, int(tagCodeEnd)-1)
	for c := TagCEO; c < tagCodeEnd; c++ {
		codes = append(codes, c)
	}
	return codes
}

// SizeTags are the recognized trade-size tags.
var SizeTags = []TagCode{TagSmallTrade, TagLargeTrade, TagVeryLargeTrade}

// HasSizeTag reports whether tags contain a recognized size tag.
func HasSizeTag(tags []Tag) bool {
	for _, t := range tags {
		switch t.Code {
		case TagSmallTrade, TagLargeTrade, TagVeryLargeTrade:
			return true
		}
	}
	return false
}
