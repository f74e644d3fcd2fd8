package model

// ForwardWindow holds post-trade statistics over a calendar-day horizon.
type ForwardWindow struct {
	High        *float64
	Low         *float64
	GainPct     *float64
	DrawdownPct *float64
}

// BackwardWindow holds pre-trade price extremes over a calendar-day horizon.
type BackwardWindow struct {
	High *float64
	Low  *float64
}

// Window horizons in calendar days.
var (
	ForwardHorizons  = []int{7, 14, 30}
	BackwardHorizons = []int{7, 15}
)

// FinalGainHorizon is the terminal horizon used for outcome fallback.
const FinalGainHorizon = 30

// EnrichedContext is the per-trade market context. Every nil field means
// the underlying data was unavailable; zero is never used as a stand-in.
type EnrichedContext struct {
	Open  *float64
	Close *float64
	High  *float64
	Low   *float64
	SMA   *float64
	RSI   *float64

	PrevClose *float64
	PrevSMA   *float64
	PrevRSI   *float64

	Forward  map[int]ForwardWindow
	Backward map[int]BackwardWindow

	FinalGain30 *float64
	ATR14       *float64
	ATR14Pct    *float64

	OwnershipPct *float64
}

// Fwd returns the forward window for a horizon, or an empty window.
func (c *EnrichedContext) Fwd(days int) ForwardWindow {
	if c == nil || c.Forward == nil {
		return ForwardWindow{}
	}
	return c.Forward[days]
}

// Bwd returns the backward window for a horizon, or an empty window.
func (c *EnrichedContext) Bwd(days int) BackwardWindow {
	if c == nil || c.Backward == nil {
		return BackwardWindow{}
	}
	return c.Backward[days]
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }
