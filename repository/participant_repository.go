package repository

import (
	"context"
	"fmt"
	"time"

	"prizedraw/domain/entities"
	"prizedraw/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// ParticipantRepository implements participant identity access
type ParticipantRepository struct {
	q Queryable
}

// NewParticipantRepositoryWithTx creates a participant repository bound to a transaction
func NewParticipantRepositoryWithTx(tx Queryable) interfaces.ParticipantRepository {
	return &ParticipantRepository{q: tx}
}

// GetByID retrieves a participant by their external identity
func (r *ParticipantRepository) GetByID(ctx context.Context, participantID string) (*entities.Participant, error) {
	query := `
		SELECT participant_id, name, locked, first_seen
		FROM participants
		WHERE participant_id = $1
	`

	var p entities.Participant
	err := r.q.QueryRow(ctx, query, participantID).Scan(&p.ID, &p.Name, &p.Locked, &p.FirstSeen)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participant %q: %w", participantID, err)
	}

	return &p, nil
}

// Upsert creates the participant on first sight or refreshes the display
// name. The locked flag and first_seen are preserved on conflict.
func (r *ParticipantRepository) Upsert(ctx context.Context, participantID, name string, firstSeen time.Time) (*entities.Participant, error) {
	query := `
		INSERT INTO participants (participant_id, name, locked, first_seen)
		VALUES ($1, $2, false, $3)
		ON CONFLICT (participant_id) DO UPDATE SET name = $2
		RETURNING participant_id, name, locked, first_seen
	`

	var p entities.Participant
	err := r.q.QueryRow(ctx, query, participantID, name, firstSeen).Scan(&p.ID, &p.Name, &p.Locked, &p.FirstSeen)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert participant %q: %w", participantID, err)
	}

	return &p, nil
}

// Lock permanently locks a participant. Idempotent.
func (r *ParticipantRepository) Lock(ctx context.Context, participantID string) error {
	query := `
		UPDATE participants
		SET locked = true
		WHERE participant_id = $1
	`

	result, err := r.q.Exec(ctx, query, participantID)
	if err != nil {
		return fmt.Errorf("failed to lock participant %q: %w", participantID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("participant %q not found", participantID)
	}

	return nil
}
