package services

import (
	"testing"
	"time"

	"prizedraw/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTiers() []*entities.PrizeTier {
	return []*entities.PrizeTier{
		{Key: entities.TierFirst, Name: "First Prize", Total: 35, Remaining: 35, Weight: 1},
		{Key: entities.TierSecond, Name: "Second Prize", Total: 70, Remaining: 70, Weight: 2},
		{Key: entities.TierThird, Name: "Third Prize", Total: 130, Remaining: 130, Weight: 4},
		{Key: entities.TierComfort, Name: "Comfort Prize", Total: 800, Remaining: 800, Weight: 16},
	}
}

func TestComputeWindow_BeforeStart(t *testing.T) {
	cfg := entities.DefaultPacingConfig()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	info := ComputeWindow(cfg, 235, now)

	assert.Equal(t, -1, info.Index)
	assert.Zero(t, info.TargetCum)
	assert.Equal(t, int64(60), info.WindowLen)
}

func TestComputeWindow_MidSecondWindow(t *testing.T) {
	cfg := entities.DefaultPacingConfig()
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	cfg.StartAt = &start
	now := start.Add(90 * time.Minute)

	info := ComputeWindow(cfg, 235, now)

	assert.Equal(t, 1, info.Index)
	assert.Equal(t, int64(90), info.ElapsedMin)
	// Full first window plus half the second: 0.40*235 + 0.35*235/2
	assert.InDelta(t, 0.40*235+0.35*235*0.5, info.TargetCum, 1e-9)
	assert.InDelta(t, 0.35*235, info.WindowTarget, 1e-9)
}

func TestComputeWindow_AfterEnd(t *testing.T) {
	cfg := entities.DefaultPacingConfig()
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	cfg.StartAt = &start
	now := start.Add(5 * time.Hour)

	info := ComputeWindow(cfg, 235, now)

	assert.Equal(t, 2, info.Index)
	assert.Equal(t, cfg.DurationMin, info.ElapsedMin)
	// Past the end the target is the full higher-tier capacity
	assert.InDelta(t, 235, info.TargetCum, 1e-9)
}

func TestComputeProbabilities_FreshInventorySumsToOne(t *testing.T) {
	cfg := entities.DefaultPacingConfig()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	probs, diag := ComputeProbabilities(cfg, seedTiers(), entities.HistorySnapshot{}, now)

	require.InDelta(t, 1.0, probs.Sum(), 1e-9)

	// Unstarted window: deviation 0, multiplier 1, so the higher-tier mass
	// is the raw inventory baseline 235/1035.
	baseline := 235.0 / 1035.0
	assert.InDelta(t, 0.0, diag.Deviation, 1e-9)
	assert.InDelta(t, 1.0, diag.Multiplier, 1e-9)
	assert.InDelta(t, baseline, diag.HigherProb, 1e-9)
	assert.False(t, diag.StreakBoosted)

	// Within the higher-tier mass, split by remaining inventory
	assert.InDelta(t, baseline*35/235, probs.First, 1e-9)
	assert.InDelta(t, baseline*70/235, probs.Second, 1e-9)
	assert.InDelta(t, baseline*130/235, probs.Third, 1e-9)
}

func TestComputeProbabilities_BehindTargetBoostsMultiplier(t *testing.T) {
	cfg := entities.DefaultPacingConfig()
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	cfg.StartAt = &start
	now := start.Add(90 * time.Minute)

	// Nothing issued 90 minutes in: far behind the curve
	probs, diag := ComputeProbabilities(cfg, seedTiers(), entities.HistorySnapshot{IssuedHigher: 0}, now)

	require.InDelta(t, 1.0, probs.Sum(), 1e-9)
	assert.Greater(t, diag.Deviation, 1.0)
	assert.InDelta(t, cfg.MultiplierMax, diag.Multiplier, 1e-9)
	assert.Greater(t, diag.HigherProb, diag.BaselineHigherProb)
}

func TestComputeProbabilities_AheadOfTargetSuppresses(t *testing.T) {
	cfg := entities.DefaultPacingConfig()
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	cfg.StartAt = &start
	now := start.Add(30 * time.Minute)

	// Way ahead of the curve: multiplier pinned to its floor
	probs, diag := ComputeProbabilities(cfg, seedTiers(), entities.HistorySnapshot{IssuedHigher: 200}, now)

	require.InDelta(t, 1.0, probs.Sum(), 1e-9)
	assert.Less(t, diag.Deviation, 0.0)
	assert.InDelta(t, cfg.MultiplierMin, diag.Multiplier, 1e-9)
	assert.Less(t, diag.HigherProb, diag.BaselineHigherProb)
}

func TestComputeProbabilities_StreakBoost(t *testing.T) {
	cfg := entities.DefaultPacingConfig()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// A nearly full trailing window of comfort-only outcomes
	recent := make([]entities.TierKey, 9)
	for i := range recent {
		recent[i] = entities.TierComfort
	}

	base, _ := ComputeProbabilities(cfg, seedTiers(), entities.HistorySnapshot{}, now)
	boosted, diag := ComputeProbabilities(cfg, seedTiers(), entities.HistorySnapshot{Recent: recent}, now)

	require.InDelta(t, 1.0, boosted.Sum(), 1e-9)
	assert.True(t, diag.StreakBoosted)
	higherBase := base.First + base.Second + base.Third
	higherBoosted := boosted.First + boosted.Second + boosted.Third
	assert.InDelta(t, higherBase+0.12, higherBoosted, 1e-9)
}

func TestComputeProbabilities_NoBoostWhenWindowHasHits(t *testing.T) {
	cfg := entities.DefaultPacingConfig()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	recent := []entities.TierKey{
		entities.TierFirst, entities.TierThird,
		entities.TierComfort, entities.TierComfort, entities.TierComfort,
		entities.TierComfort, entities.TierComfort, entities.TierComfort,
		entities.TierComfort,
	}

	_, diag := ComputeProbabilities(cfg, seedTiers(), entities.HistorySnapshot{Recent: recent}, now)

	assert.False(t, diag.StreakBoosted)
}

func TestComputeProbabilities_DepletedTierShedsMass(t *testing.T) {
	cfg := entities.DefaultPacingConfig()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tiers := seedTiers()
	tiers[0].Remaining = 0 // first tier exhausted

	probs, diag := ComputeProbabilities(cfg, tiers, entities.HistorySnapshot{}, now)

	require.InDelta(t, 1.0, probs.Sum(), 1e-9)
	assert.Zero(t, probs.First)
	// The freed mass stays within the higher tiers
	assert.InDelta(t, diag.HigherProb, probs.Second+probs.Third, 1e-9)
	assert.Positive(t, probs.Second)
	assert.Positive(t, probs.Third)
}

func TestComputeProbabilities_AllHigherDepleted(t *testing.T) {
	cfg := entities.DefaultPacingConfig()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tiers := seedTiers()
	tiers[0].Remaining = 0
	tiers[1].Remaining = 0
	tiers[2].Remaining = 0

	probs, _ := ComputeProbabilities(cfg, tiers, entities.HistorySnapshot{}, now)

	assert.Zero(t, probs.First)
	assert.Zero(t, probs.Second)
	assert.Zero(t, probs.Third)
	assert.InDelta(t, 1.0, probs.Comfort, 1e-9)
}
