package repository

import (
	"context"
	"fmt"
	"time"

	"prizedraw/domain/entities"
	"prizedraw/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// SessionRepository implements draw session access
type SessionRepository struct {
	q Queryable
}

// NewSessionRepositoryWithTx creates a session repository bound to a transaction
func NewSessionRepositoryWithTx(tx Queryable) interfaces.SessionRepository {
	return &SessionRepository{q: tx}
}

// Create persists a new session with its candidate outcomes
func (r *SessionRepository) Create(ctx context.Context, session *entities.DrawSession) error {
	query := `
		INSERT INTO draw_sessions (id, participant_id, participant_name, options, used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	options := make([]string, len(session.Options))
	for i, o := range session.Options {
		options[i] = string(o)
	}

	_, err := r.q.Exec(ctx, query,
		session.ID,
		session.ParticipantID,
		session.ParticipantName,
		options,
		session.Used,
		session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create draw session: %w", err)
	}

	return nil
}

// GetByID retrieves a session by its token
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*entities.DrawSession, error) {
	query := `
		SELECT id, participant_id, participant_name, options, used, created_at
		FROM draw_sessions
		WHERE id = $1
	`

	var s entities.DrawSession
	var options []string
	err := r.q.QueryRow(ctx, query, id).Scan(&s.ID, &s.ParticipantID, &s.ParticipantName, &options, &s.Used, &s.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draw session %q: %w", id, err)
	}

	s.Options = make([]entities.TierKey, len(options))
	for i, o := range options {
		s.Options[i] = entities.TierKey(o)
	}

	return &s, nil
}

// MarkUsed flips the session's one-way used flag
func (r *SessionRepository) MarkUsed(ctx context.Context, id string) error {
	query := `
		UPDATE draw_sessions
		SET used = true
		WHERE id = $1
	`

	result, err := r.q.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark session %q used: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("draw session %q not found", id)
	}

	return nil
}

// DeleteUnusedBefore removes abandoned sessions created before the cutoff
func (r *SessionRepository) DeleteUnusedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM draw_sessions
		WHERE used = false
		  AND created_at < $1
	`

	result, err := r.q.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep stale sessions: %w", err)
	}

	return result.RowsAffected(), nil
}
