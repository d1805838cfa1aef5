package entities

// Probabilities are the per-draw sampling weights for the four tiers.
// A valid set is non-negative and sums to 1.
type Probabilities struct {
	First   float64 `json:"p1"`
	Second  float64 `json:"p2"`
	Third   float64 `json:"p3"`
	Comfort float64 `json:"pc"`
}

// Sum returns the total mass, which callers may assert against 1 within
// floating-point tolerance.
func (p Probabilities) Sum() float64 {
	return p.First + p.Second + p.Third + p.Comfort
}

// Of returns the probability band assigned to a tier key.
func (p Probabilities) Of(key TierKey) float64 {
	switch key {
	case TierFirst:
		return p.First
	case TierSecond:
		return p.Second
	case TierThird:
		return p.Third
	default:
		return p.Comfort
	}
}

// WindowInfo describes where the clock sits inside the three-sub-window
// target curve. Index is -1 before the window has started.
type WindowInfo struct {
	Index        int        `json:"windowIdx"`
	ElapsedMin   int64      `json:"elapsedMin"`
	WindowLen    int64      `json:"winLen"`
	Shares       [3]float64 `json:"shares"`
	TargetCum    float64    `json:"targetCum"`
	WindowTarget float64    `json:"windowTarget"`
}

// PacingDiagnostics exposes the controller's intermediate values for the
// admin dashboard.
type PacingDiagnostics struct {
	BaselineHigherProb float64           `json:"pNA0"`
	Deviation          float64           `json:"dT"`
	Multiplier         float64           `json:"mT"`
	HigherProb         float64           `json:"pNA"`
	ComfortProb        float64           `json:"pC"`
	StreakBoosted      bool              `json:"streakBoosted"`
	Remaining          map[TierKey]int64 `json:"remaining"`
}

// HistorySnapshot is the slice of ledger state the pacing controller
// consumes: cumulative higher-tier issuance plus the trailing window.
type HistorySnapshot struct {
	IssuedHigher int64
	// Recent holds the tier keys of the most recent redemptions, newest
	// first, at most the configured trailing-window size.
	Recent []TierKey
}
