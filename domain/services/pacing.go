package services

import (
	"math"
	"time"

	"prizedraw/domain/entities"
	"prizedraw/domain/utils"
)

// streakBoostDelta is the fixed probability increment applied when the
// trailing window shows too few higher-tier hits. It keeps visible streaks
// of comfort-only outcomes short even when the cumulative curve is on track.
const streakBoostDelta = 0.12

// ComputeWindow locates now inside the three equal sub-windows of the
// allocation window and returns the cumulative higher-tier issuance target
// at this instant. totalsHigher is the original total capacity of the
// pacing-controlled tiers. Before the window starts the target is zero and
// Index is -1.
func ComputeWindow(cfg *entities.PacingConfig, totalsHigher float64, now time.Time) entities.WindowInfo {
	winLen := cfg.WindowLength()
	info := entities.WindowInfo{
		Index:     -1,
		WindowLen: winLen,
		Shares:    cfg.Shares(),
	}
	if !cfg.Started() {
		return info
	}

	elapsed := int64(now.Sub(*cfg.StartAt) / time.Minute)
	if elapsed < 0 {
		elapsed = 0
	}
	duration := cfg.DurationMin
	if duration <= 0 {
		duration = 180
	}

	idx := elapsed / winLen
	if idx > 2 {
		idx = 2
	}
	passed := elapsed
	if passed > duration {
		passed = duration
	}

	shares := cfg.Shares()
	var perWindow [3]float64
	for w := 0; w < 3; w++ {
		perWindow[w] = shares[w] * totalsHigher
	}

	var targetCum float64
	for w := 0; w < 3; w++ {
		start := int64(w) * winLen
		end := int64(w+1) * winLen
		if passed >= end {
			targetCum += perWindow[w]
		} else if passed > start {
			targetCum += perWindow[w] * float64(passed-start) / float64(winLen)
			break
		} else {
			break
		}
	}

	info.Index = int(idx)
	info.ElapsedMin = passed
	info.TargetCum = targetCum
	info.WindowTarget = perWindow[idx]
	return info
}

// ComputeProbabilities converts elapsed time, remaining inventory, and
// recent issuance history into the sampling weights for the next draw.
//
// Two control loops compose here: a slow cumulative-target loop (the
// clamped pacing multiplier applied to the inventory-implied baseline) and
// a fast trailing-window loop (the streak boost). The resulting higher-tier
// mass is then split across tiers proportionally to current remaining
// inventory, with depleted tiers forced to zero and the rest renormalized.
//
// Pure function: same inputs, same outputs. Callers own snapshot freshness.
func ComputeProbabilities(cfg *entities.PacingConfig, tiers []*entities.PrizeTier, hist entities.HistorySnapshot, now time.Time) (entities.Probabilities, entities.PacingDiagnostics) {
	remaining := make(map[entities.TierKey]int64, len(tiers))
	var totalsHigher int64
	for _, t := range tiers {
		remaining[t.Key] = t.Remaining
		if t.Key.IsHigher() {
			totalsHigher += t.Total
		}
	}
	q1 := remaining[entities.TierFirst]
	q2 := remaining[entities.TierSecond]
	q3 := remaining[entities.TierThird]
	qc := remaining[entities.TierComfort]

	totalRemain := q1 + q2 + q3 + qc
	remainHigher := q1 + q2 + q3

	var baseline float64
	if totalRemain > 0 {
		baseline = float64(remainHigher) / float64(totalRemain)
	}

	window := ComputeWindow(cfg, float64(totalsHigher), now)

	var deviation float64
	if window.WindowTarget > 0 {
		deviation = (window.TargetCum - float64(hist.IssuedHigher)) / window.WindowTarget
	}

	multiplier := utils.Clamp(1+cfg.Alpha*deviation, cfg.MultiplierMin, cfg.MultiplierMax)
	higherProb := utils.Clamp(multiplier*baseline, cfg.HigherProbMin, cfg.HigherProbMax)
	comfortProb := 1 - higherProb

	// Trailing-window compensation: with a nearly full window and too few
	// higher-tier hits in it, bump the higher-tier mass by a fixed step.
	windowSize := cfg.WindowSize
	if windowSize < 1 {
		windowSize = 1
	}
	recent := hist.Recent
	if int64(len(recent)) > windowSize {
		recent = recent[:windowSize]
	}
	var hits int64
	for _, k := range recent {
		if k.IsHigher() {
			hits++
		}
	}
	expected := math.Min(cfg.WindowTarget, float64(windowSize))
	boosted := false
	if int64(len(recent)) >= windowSize-1 && float64(hits) < expected {
		higherProb = math.Min(cfg.HigherProbMax, higherProb+streakBoostDelta)
		comfortProb = 1 - higherProb
		boosted = true
	}

	// Split across higher tiers by current remaining inventory, not
	// original capacity, so a draining tier sheds probability as it empties.
	probs := make([]float64, 3)
	if remainHigher > 0 {
		probs[0] = higherProb * float64(q1) / float64(remainHigher)
		probs[1] = higherProb * float64(q2) / float64(remainHigher)
		probs[2] = higherProb * float64(q3) / float64(remainHigher)
	}
	if q1 == 0 {
		probs[0] = 0
	}
	if q2 == 0 {
		probs[1] = 0
	}
	if q3 == 0 {
		probs[2] = 0
	}
	if !utils.RenormalizeTo(higherProb, probs) {
		probs[0], probs[1], probs[2] = 0, 0, 0
		comfortProb = 1
	}

	result := entities.Probabilities{
		First:   probs[0],
		Second:  probs[1],
		Third:   probs[2],
		Comfort: comfortProb,
	}
	diag := entities.PacingDiagnostics{
		BaselineHigherProb: baseline,
		Deviation:          deviation,
		Multiplier:         multiplier,
		HigherProb:         higherProb,
		ComfortProb:        comfortProb,
		StreakBoosted:      boosted,
		Remaining:          remaining,
	}
	return result, diag
}
