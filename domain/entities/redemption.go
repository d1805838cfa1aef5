package entities

import "time"

// Redemption is one append-only ledger entry: exactly one tier awarded to
// exactly one participant. Records are never mutated; only the explicit
// administrative bulk reset may delete them.
type Redemption struct {
	ID              string    `db:"id"`
	RedeemedAt      time.Time `db:"redeemed_at"`
	Operator        string    `db:"operator"`
	DeviceID        string    `db:"device_id"`
	ParticipantID   string    `db:"participant_id"`
	ParticipantName string    `db:"participant_name"`
	TierKey         TierKey   `db:"tier_key"`
	TierName        string    `db:"tier_name"`
}

// RedemptionFilter narrows ledger queries. Nil fields match everything.
type RedemptionFilter struct {
	ParticipantID *string
	Tier          *TierKey
	Since         *time.Time
	Until         *time.Time
	Limit         int
	Offset        int
}
