package entities

import "time"

// Participant is one externally-identified person entitled to at most
// one completed draw, ever. Locked is one-way: once set it is never
// cleared except by wiping the participants table out of band.
type Participant struct {
	ID        string    `db:"participant_id"`
	Name      string    `db:"name"`
	Locked    bool      `db:"locked"`
	FirstSeen time.Time `db:"first_seen"`
}
