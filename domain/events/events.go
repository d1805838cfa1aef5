package events

import (
	"time"

	"prizedraw/domain/entities"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeInventoryChanged    EventType = "inventory_changed"
	EventTypeRedemptionCompleted EventType = "redemption_completed"
	EventTypeConfigUpdated       EventType = "config_updated"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// InventoryChangedEvent carries the full inventory snapshot after any
// mutation: a committed redemption, a capacity change, or a reset.
// Observers treat it as a refresh signal, never as stored truth.
type InventoryChangedEvent struct {
	Tiers []*entities.PrizeTier
}

func (e InventoryChangedEvent) Type() EventType {
	return EventTypeInventoryChanged
}

// RedemptionCompletedEvent represents one committed redemption
type RedemptionCompletedEvent struct {
	DrawID          string
	ParticipantID   string
	ParticipantName string
	TierKey         entities.TierKey
	TierName        string
	RedeemedAt      time.Time
}

func (e RedemptionCompletedEvent) Type() EventType {
	return EventTypeRedemptionCompleted
}

// ConfigUpdatedEvent represents an administrative pacing-config change
type ConfigUpdatedEvent struct {
	Config *entities.PacingConfig
}

func (e ConfigUpdatedEvent) Type() EventType {
	return EventTypeConfigUpdated
}
