package interfaces

import (
	"context"
	"time"

	"prizedraw/domain/entities"
	"prizedraw/domain/events"
)

// TierRepository defines the interface for prize tier inventory access
type TierRepository interface {
	// List returns all tiers in seed order
	List(ctx context.Context) ([]*entities.PrizeTier, error)

	// GetByKey retrieves a single tier; nil when the key is unknown
	GetByKey(ctx context.Context, key entities.TierKey) (*entities.PrizeTier, error)

	// DecrementRemaining decrements a tier's remaining count by one,
	// conditioned on remaining > 0. Returns false when no row qualified,
	// meaning the tier was already depleted at commit time.
	DecrementRemaining(ctx context.Context, key entities.TierKey) (bool, error)

	// SetCapacity sets total and remaining to the same value for a tier
	SetCapacity(ctx context.Context, key entities.TierKey, total int64) error

	// RestoreAll resets remaining = total for every tier
	RestoreAll(ctx context.Context) error
}

// ParticipantRepository defines the interface for participant identity access
type ParticipantRepository interface {
	// GetByID retrieves a participant; nil when never seen
	GetByID(ctx context.Context, participantID string) (*entities.Participant, error)

	// Upsert creates the participant on first sight or refreshes the
	// display name on a repeat proposal. Locked is never touched here.
	Upsert(ctx context.Context, participantID, name string, firstSeen time.Time) (*entities.Participant, error)

	// Lock permanently locks a participant. Idempotent, one-way.
	Lock(ctx context.Context, participantID string) error
}

// SessionRepository defines the interface for draw session access
type SessionRepository interface {
	// Create persists a new session with its candidate outcomes
	Create(ctx context.Context, session *entities.DrawSession) error

	// GetByID retrieves a session; nil when the token is unknown
	GetByID(ctx context.Context, id string) (*entities.DrawSession, error)

	// MarkUsed flips the session's one-way used flag
	MarkUsed(ctx context.Context, id string) error

	// DeleteUnusedBefore removes abandoned sessions created before the
	// cutoff, returning how many were swept
	DeleteUnusedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RedemptionRepository defines the interface for the append-only history ledger
type RedemptionRepository interface {
	// Create appends one redemption record
	Create(ctx context.Context, redemption *entities.Redemption) error

	// List returns a filtered page of records, newest first, plus the
	// total count matching the filter
	List(ctx context.Context, filter entities.RedemptionFilter) ([]*entities.Redemption, int64, error)

	// CountHigher returns how many higher-tier redemptions exist
	CountHigher(ctx context.Context) (int64, error)

	// CountAll returns the total number of redemptions
	CountAll(ctx context.Context) (int64, error)

	// RecentTierKeys returns the tier keys of the most recent redemptions,
	// newest first, up to limit
	RecentTierKeys(ctx context.Context, limit int64) ([]entities.TierKey, error)

	// DeleteAll clears the ledger. Only the administrative bulk reset
	// paths may call this.
	DeleteAll(ctx context.Context) error
}

// ConfigRepository defines the interface for the singleton pacing configuration
type ConfigRepository interface {
	// Get returns the current configuration row
	Get(ctx context.Context) (*entities.PacingConfig, error)

	// Update overwrites the configuration row
	Update(ctx context.Context, cfg *entities.PacingConfig) error
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	Publish(event events.Event) error
}

// TransactionalEventPublisher buffers events during a transaction and
// releases them only after a successful commit
type TransactionalEventPublisher interface {
	EventPublisher

	// Flush publishes all pending events; called after commit
	Flush(ctx context.Context) error

	// Discard drops all pending events; called on rollback
	Discard()
}

// Clock abstracts wall-clock reads so window math is testable across
// simulated elapsed time
type Clock interface {
	Now() time.Time
}
