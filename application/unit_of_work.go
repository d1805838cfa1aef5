package application

import (
	"context"

	"prizedraw/domain/interfaces"
)

// UnitOfWork defines the interface for transactional repository operations.
// One unit of work is one database transaction: the redemption transactor's
// four-part effect lives entirely inside a single instance.
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and releases buffered events
	Commit() error

	// Rollback rolls back the transaction and discards buffered events
	Rollback() error

	// Repository getters
	TierRepository() interfaces.TierRepository
	ParticipantRepository() interfaces.ParticipantRepository
	SessionRepository() interfaces.SessionRepository
	RedemptionRepository() interfaces.RedemptionRepository
	ConfigRepository() interfaces.ConfigRepository

	// EventBus returns the transaction-scoped event publisher. Events
	// published through it are buffered and only reach subscribers after a
	// successful commit.
	EventBus() interfaces.EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
