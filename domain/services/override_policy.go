package services

import (
	"math/rand"
	"strings"

	"prizedraw/domain/entities"

	log "github.com/sirupsen/logrus"
)

// privilegedParticipantID is the single identity whose proposals are
// guaranteed a first-tier candidate while first-tier stock lasts. Carried
// over verbatim as given business behavior; flagged for product review
// since it silently biases outcomes for one hard-coded identifier.
const privilegedParticipantID = "131860"

// applyPrivilegedOverride rewrites one randomly chosen candidate slot to
// the first tier when the participant is the privileged identity, the
// first tier still has stock, and no sampled candidate already landed on
// it. Runs after sampling and before session persistence. Returns whether
// a slot was overwritten.
func applyPrivilegedOverride(participantID string, options []entities.TierKey, firstRemaining int64, pickSlot func(n int) int) bool {
	if strings.TrimSpace(participantID) != privilegedParticipantID {
		return false
	}
	if firstRemaining <= 0 || len(options) == 0 {
		return false
	}
	for _, opt := range options {
		if opt == entities.TierFirst {
			return false
		}
	}
	idx := pickSlot(len(options))
	before := make([]entities.TierKey, len(options))
	copy(before, options)
	options[idx] = entities.TierFirst
	log.WithFields(log.Fields{
		"participantID":  participantID,
		"firstRemaining": firstRemaining,
		"before":         before,
		"after":          options,
	}).Info("applied privileged candidate override")
	return true
}

// defaultSlotPicker selects a uniform slot index for the override.
func defaultSlotPicker(n int) int {
	return rand.Intn(n)
}
