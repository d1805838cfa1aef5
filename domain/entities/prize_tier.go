package entities

import "time"

// TierKey identifies a prize tier.
type TierKey string

const (
	TierFirst   TierKey = "first"
	TierSecond  TierKey = "second"
	TierThird   TierKey = "third"
	TierComfort TierKey = "comfort"
)

// HigherTierKeys returns the pacing-controlled tiers in rank order.
// The comfort tier is the uncontrolled fallback and is never part of this set.
func HigherTierKeys() []TierKey {
	return []TierKey{TierFirst, TierSecond, TierThird}
}

// IsHigher reports whether the tier is pacing-controlled.
func (k TierKey) IsHigher() bool {
	return k == TierFirst || k == TierSecond || k == TierThird
}

// Valid reports whether the key names a known tier.
func (k TierKey) Valid() bool {
	return k.IsHigher() || k == TierComfort
}

// PrizeTier represents one prize category with finite capacity.
// Remaining is mutated only by the redemption transaction (decrement)
// or an administrative reset (restore to Total).
type PrizeTier struct {
	ID        int64     `db:"id"`
	Key       TierKey   `db:"tier_key"`
	Name      string    `db:"name"`
	Total     int64     `db:"total"`
	Remaining int64     `db:"remaining"`
	Weight    int64     `db:"weight"`
	CreatedAt time.Time `db:"created_at"`
}

// Depleted returns true once the tier has no remaining inventory.
func (t *PrizeTier) Depleted() bool {
	return t.Remaining <= 0
}
