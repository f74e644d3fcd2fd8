package scoring

import (
	"errors"
	"fmt"
	"sort"

	"InsiderSignal/internal/model"
)

// BucketRange is a closed integer score range. A nil Max is unbounded above.
type BucketRange struct {
	Name string `yaml:"name"`
	Min  int    `yaml:"min"`
	Max  *int   `yaml:"max"`
}

// Contains reports whether score falls inside the range.
func (b BucketRange) Contains(score int) bool {
	return score >= b.Min && (b.Max == nil || score <= *b.Max)
}

func (b BucketRange) String() string {
	if b.Max == nil {
		return fmt.Sprintf("%s [%d, +inf)", b.Name, b.Min)
	}
	return fmt.Sprintf("%s [%d, %d]", b.Name, b.Min, *b.Max)
}

// Combo awards Bonus when every tag in Tags is present.
type Combo struct {
	Tags  []model.TagCode
	Bonus int
}

// Config is the scoring configuration. Treat it as immutable once handed to
// an Engine; New takes its own copy.
type Config struct {
	Weights        map[model.TagCode]int
	Buckets        []BucketRange
	Combos         []Combo
	RequireSizeTag bool
}

func bound(n int) *int { return &n }

// DefaultWeights is the standard tag weight table. Unlisted tags weigh 0.
var DefaultWeights = map[model.TagCode]int{
	// Role
	model.TagCEO:             3,
	model.TagCFO:             3,
	model.TagChairman:        3,
	model.TagTenPercentOwner: 2,
	model.TagPresident:       2,
	model.TagDirector:        1,
	model.TagEVP:             1,
	// Trade size
	model.TagVeryLargeTrade: 3,
	model.TagLargeTrade:     2,
	model.TagSmallTrade:     1,
	// Company size
	model.TagMicroCap: 3,
	model.TagSmallCap: 2,
	model.TagMidCap:   1,
	// Timing
	model.TagCaughtKnife7d:      3,
	model.TagCaughtKnife14d:     3,
	model.TagDipBuy:             2,
	model.TagBelowClose:         1,
	model.TagBuyingIntoStrength: 1,
	// Indicators
	model.TagSMASupportReclaimed: 2,
	model.TagDipSetup:            2,
	model.TagOversold:            2,
	model.TagAboveSMA:            1,
	model.TagStrongTrend:         1,
	// Behavioral
	model.TagClusterBuy:   3,
	model.TagSmartInsider: 4,
	model.TagMultipleBuys: 2,
}

// DefaultConfig returns the standard weights, buckets and combos.
func DefaultConfig() Config {
	weights := make(map[model.TagCode]int, len(DefaultWeights))
	for k, v := range DefaultWeights {
		weights[k] = v
	}
	return Config{
		Weights: weights,
		Buckets: []BucketRange{
			{Name: "Low", Min: 0, Max: bound(4)},
			{Name: "Medium", Min: 5, Max: bound(7)},
			{Name: "High", Min: 8, Max: bound(11)},
			{Name: "Ultra", Min: 12, Max: bound(14)},
			{Name: "Highest", Min: 15},
		},
		Combos: []Combo{
			{Tags: []model.TagCode{model.TagCEO, model.TagVeryLargeTrade}, Bonus: 2},
			{Tags: []model.TagCode{model.TagClusterBuy, model.TagDipBuy}, Bonus: 2},
		},
	}
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	out := Config{RequireSizeTag: c.RequireSizeTag}
	out.Weights = make(map[model.TagCode]int, len(c.Weights))
	for k, v := range c.Weights {
		out.Weights[k] = v
	}
	out.Buckets = make([]BucketRange, len(c.Buckets))
	for i, b := range c.Buckets {
		out.Buckets[i] = BucketRange{Name: b.Name, Min: b.Min}
		if b.Max != nil {
			out.Buckets[i].Max = bound(*b.Max)
		}
	}
	out.Combos = make([]Combo, len(c.Combos))
	for i, cb := range c.Combos {
		out.Combos[i] = Combo{Tags: append([]model.TagCode(nil), cb.Tags...), Bonus: cb.Bonus}
	}
	return out
}

// Validate reports bucket layouts that can leave a score uncategorized:
// inverted ranges, overlaps, gaps and a bounded top range. Scoring still
// works with such a layout; the findings are meant for the operator.
func (c Config) Validate() error {
	if len(c.Buckets) == 0 {
		return errors.New("no score buckets configured")
	}
	sorted := append([]BucketRange(nil), c.Buckets...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Min < sorted[j].Min })

	var errs []error
	for i, b := range sorted {
		if b.Max != nil && *b.Max < b.Min {
			errs = append(errs, fmt.Errorf("bucket %s: max below min", b))
		}
		if i == 0 {
			continue
		}
		prev := sorted[i-1]
		switch {
		case prev.Max == nil || *prev.Max >= b.Min:
			errs = append(errs, fmt.Errorf("buckets %s and %s overlap", prev, b))
		case *prev.Max+1 < b.Min:
			errs = append(errs, fmt.Errorf("gap between %s and %s", prev, b))
		}
	}
	if top := sorted[len(sorted)-1]; top.Max != nil {
		errs = append(errs, fmt.Errorf("top bucket %s is bounded", top))
	}
	for _, cb := range c.Combos {
		if len(cb.Tags) == 0 {
			errs = append(errs, errors.New("combo with no tags"))
		}
	}
	return errors.Join(errs...)
}

// TopBuckets returns the names of the n highest buckets, highest first.
func (c Config) TopBuckets(n int) []string {
	sorted := append([]BucketRange(nil), c.Buckets...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Min > sorted[j].Min })
	if n > len(sorted) {
		n = len(sorted)
	}
	names := make([]string, 0, n)
	for _, b := range sorted[:n] {
		names = append(names, b.Name)
	}
	return names
}

// BucketNames lists bucket names in configured order.
func (c Config) BucketNames() []string {
	names := make([]string, len(c.Buckets))
	for i, b := range c.Buckets {
		names[i] = b.Name
	}
	return names
}
