package entities

import (
	"fmt"
	"time"
)

// PacingConfig is the operator-tunable pacing state. A single row of it
// exists process-wide; it is read on every proposal and written only by an
// explicit administrative update.
type PacingConfig struct {
	// StartAt is the window start; nil means the event has not started,
	// in which case the cumulative target is zero and the multiplier is 1.
	StartAt       *time.Time `db:"start_at"`
	DurationMin   int64      `db:"duration_min"`
	ShareW1       float64    `db:"share_w1"`
	ShareW2       float64    `db:"share_w2"`
	ShareW3       float64    `db:"share_w3"`
	Alpha         float64    `db:"alpha"`
	MultiplierMin float64    `db:"multiplier_min"`
	MultiplierMax float64    `db:"multiplier_max"`
	HigherProbMin float64    `db:"higher_prob_min"`
	HigherProbMax float64    `db:"higher_prob_max"`
	// WindowSize is the trailing-window length B: the number of most recent
	// redemptions inspected by the streak compensation loop.
	WindowSize int64 `db:"window_size"`
	// WindowTarget is the number of higher-tier hits expected inside the
	// trailing window before the compensation boost kicks in.
	WindowTarget float64 `db:"window_target"`
}

// DefaultPacingConfig returns the seeded configuration: a 3-hour window,
// front-loaded 40/35/25 sub-window shares, and clamp bounds matching the
// original event tuning.
func DefaultPacingConfig() *PacingConfig {
	return &PacingConfig{
		StartAt:       nil,
		DurationMin:   180,
		ShareW1:       0.40,
		ShareW2:       0.35,
		ShareW3:       0.25,
		Alpha:         1.0,
		MultiplierMin: 0.6,
		MultiplierMax: 1.6,
		HigherProbMin: 0.10,
		HigherProbMax: 0.60,
		WindowSize:    10,
		WindowTarget:  2.0,
	}
}

// Started reports whether the allocation window has begun.
func (c *PacingConfig) Started() bool {
	return c.StartAt != nil
}

// WindowLength returns the length of one of the three equal sub-windows in
// minutes. Falls back to 60 when the duration is too small to split.
func (c *PacingConfig) WindowLength() int64 {
	d := c.DurationMin
	if d <= 0 {
		d = 180
	}
	winLen := d / 3
	if winLen == 0 {
		winLen = 60
	}
	return winLen
}

// Shares returns the three sub-window target shares in order.
func (c *PacingConfig) Shares() [3]float64 {
	return [3]float64{c.ShareW1, c.ShareW2, c.ShareW3}
}

// Validate checks the numeric ranges an administrative update must satisfy.
func (c *PacingConfig) Validate() error {
	if c.DurationMin <= 0 {
		return fmt.Errorf("duration must be positive, got %d", c.DurationMin)
	}
	for i, s := range c.Shares() {
		if s < 0 || s > 1 {
			return fmt.Errorf("share_w%d must be within [0,1], got %v", i+1, s)
		}
	}
	if c.Alpha < 0 {
		return fmt.Errorf("alpha must be non-negative, got %v", c.Alpha)
	}
	if c.MultiplierMin > c.MultiplierMax {
		return fmt.Errorf("multiplier bounds inverted: min %v > max %v", c.MultiplierMin, c.MultiplierMax)
	}
	if c.HigherProbMin < 0 || c.HigherProbMax > 1 || c.HigherProbMin > c.HigherProbMax {
		return fmt.Errorf("higher-tier probability bounds must satisfy 0 <= min <= max <= 1, got [%v, %v]", c.HigherProbMin, c.HigherProbMax)
	}
	if c.WindowSize < 1 {
		return fmt.Errorf("trailing window size must be at least 1, got %d", c.WindowSize)
	}
	if c.WindowTarget < 0 {
		return fmt.Errorf("trailing window target must be non-negative, got %v", c.WindowTarget)
	}
	return nil
}

// PacingConfigUpdate carries a partial administrative update. Nil fields
// keep the current value. StartAt uses the SetStart flag so the update can
// distinguish "leave unchanged" from "explicitly set (or clear)".
type PacingConfigUpdate struct {
	SetStart      bool
	StartAt       *time.Time
	DurationMin   *int64
	ShareW1       *float64
	ShareW2       *float64
	ShareW3       *float64
	Alpha         *float64
	MultiplierMin *float64
	MultiplierMax *float64
	HigherProbMin *float64
	HigherProbMax *float64
	WindowSize    *int64
	WindowTarget  *float64
}

// Merge applies the update over the receiver and returns the merged copy.
// The receiver is not modified.
func (c *PacingConfig) Merge(u PacingConfigUpdate) *PacingConfig {
	merged := *c
	if u.SetStart {
		merged.StartAt = u.StartAt
	}
	if u.DurationMin != nil {
		merged.DurationMin = *u.DurationMin
	}
	if u.ShareW1 != nil {
		merged.ShareW1 = *u.ShareW1
	}
	if u.ShareW2 != nil {
		merged.ShareW2 = *u.ShareW2
	}
	if u.ShareW3 != nil {
		merged.ShareW3 = *u.ShareW3
	}
	if u.Alpha != nil {
		merged.Alpha = *u.Alpha
	}
	if u.MultiplierMin != nil {
		merged.MultiplierMin = *u.MultiplierMin
	}
	if u.MultiplierMax != nil {
		merged.MultiplierMax = *u.MultiplierMax
	}
	if u.HigherProbMin != nil {
		merged.HigherProbMin = *u.HigherProbMin
	}
	if u.HigherProbMax != nil {
		merged.HigherProbMax = *u.HigherProbMax
	}
	if u.WindowSize != nil {
		merged.WindowSize = *u.WindowSize
	}
	if u.WindowTarget != nil {
		merged.WindowTarget = *u.WindowTarget
	}
	return &merged
}
