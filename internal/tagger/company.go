package tagger

import (
	"strings"

	"InsiderSignal/internal/enricher"
	"InsiderSignal/internal/model"
)

type roleRule struct {
	keywords []string
	code     model.TagCode
}

// roleRules are checked in order; the first keyword hit wins.
var roleRules = []roleRule{
	{[]string{"ceo", "chief executive"}, model.TagCEO},
	{[]string{"cfo", "chief financial"}, model.TagCFO},
	{[]string{"coo", "chief operating"}, model.TagCOO},
	{[]string{"cro", "chief revenue"}, model.TagCRO},
	{[]string{"cio", "chief investment"}, model.TagCIO},
	{[]string{"cbo", "chief business"}, model.TagCBO},
	{[]string{"chairman"}, model.TagChairman},
	{[]string{"president"}, model.TagPresident},
	{[]string{"evp"}, model.TagEVP},
	{[]string{"portfolio manager"}, model.TagPortfolioManager},
	{[]string{"10% owner", "10 percent"}, model.TagTenPercentOwner},
	{[]string{"director"}, model.TagDirector},
}

// RoleTag classifies the free-text relationship. An empty relationship
// yields no tag; an unmatched one yields the generic role tag.
func RoleTag(relationship string) (model.Tag, bool) {
	rel := strings.ToLower(strings.TrimSpace(relationship))
	if rel == "" {
		return model.Tag{}, false
	}
	rel = strings.ReplaceAll(rel, "&", "and")
	for _, r := range roleRules {
		for _, kw := range r.keywords {
			if strings.Contains(rel, kw) {
				return model.T(r.code), true
			}
		}
	}
	return model.T(model.TagRoleOther), true
}

// Ownership fraction cut-offs.
const (
	VeryLargeTradeFraction = 0.005
	LargeTradeFraction     = 0.001
	SmallTradeFraction     = 0.0001
)

// SizeTag classifies trade value against market cap. Unknown ownership gives
// the unknown-size tag; ownership below the smallest band gives no tag.
func SizeTag(value float64, snap *model.CompanySnapshot) (model.Tag, bool) {
	own := enricher.OwnershipPct(value, snap)
	switch {
	case own == nil:
		return model.T(model.TagUnknownSize), true
	case *own >= VeryLargeTradeFraction:
		return model.T(model.TagVeryLargeTrade), true
	case *own >= LargeTradeFraction:
		return model.T(model.TagLargeTrade), true
	case *own >= SmallTradeFraction:
		return model.T(model.TagSmallTrade), true
	}
	return model.Tag{}, false
}

// CapTag classifies the company by market capitalization.
func CapTag(snap *model.CompanySnapshot) model.Tag {
	if snap == nil || snap.MarketCap == nil {
		return model.T(model.TagUnknownCap)
	}
	mc := *snap.MarketCap
	switch {
	case mc < 300e6:
		return model.T(model.TagMicroCap)
	case mc < 2e9:
		return model.T(model.TagSmallCap)
	case mc < 10e9:
		return model.T(model.TagMidCap)
	case mc < 200e9:
		return model.T(model.TagLargeCap)
	}
	return model.T(model.TagMegaCap)
}

var sectorTags = map[string]model.TagCode{
	"technology":             model.TagTech,
	"tech":                   model.TagTech,
	"healthcare":             model.TagHealthcare,
	"health care":            model.TagHealthcare,
	"consumer cyclical":      model.TagConsumerCyclical,
	"consumer discretionary": model.TagConsumerCyclical,
	"consumer defensive":     model.TagConsumerDefensive,
	"consumer staples":       model.TagConsumerDefensive,
	"energy":                 model.TagEnergy,
	"industrials":            model.TagIndustrial,
	"industrial":             model.TagIndustrial,
	"utilities":              model.TagUtilities,
	"real estate":            model.TagRealEstate,
	"basic materials":        model.TagMaterials,
	"materials":              model.TagMaterials,
	"communication services": model.TagCommunication,
	"communication":          model.TagCommunication,
	"financial services":     model.TagFinancial,
	"financial":              model.TagFinancial,
	"financials":             model.TagFinancial,
}

// SectorTagFor maps the snapshot sector. Unknown sectors pass through in the
// generic wrapper; an empty sector yields no tag.
func SectorTagFor(snap *model.CompanySnapshot) (model.Tag, bool) {
	if snap == nil {
		return model.Tag{}, false
	}
	raw := strings.TrimSpace(snap.Sector)
	if raw == "" {
		return model.Tag{}, false
	}
	if code, ok := sectorTags[strings.ToLower(raw)]; ok {
		return model.T(code), true
	}
	return model.SectorTag(raw), true
}
