package entities

import "time"

// MaxSessionOptions bounds how many candidates one proposal may hold.
const MaxSessionOptions = 5

// DrawSession is a short-lived, single-use record of proposed candidate
// outcomes for one participant. Candidates are hypothetical previews, not
// reservations: an abandoned session has zero effect on inventory.
type DrawSession struct {
	ID              string    `db:"id"`
	ParticipantID   string    `db:"participant_id"`
	ParticipantName string    `db:"participant_name"`
	Options         []TierKey `db:"options"`
	Used            bool      `db:"used"`
	CreatedAt       time.Time `db:"created_at"`
}

// ValidChoice reports whether idx addresses one of the session's candidates.
func (s *DrawSession) ValidChoice(idx int) bool {
	return idx >= 0 && idx < len(s.Options)
}

// ClampOptionCount normalizes a requested candidate count into [1, MaxSessionOptions].
func ClampOptionCount(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxSessionOptions {
		return MaxSessionOptions
	}
	return n
}
