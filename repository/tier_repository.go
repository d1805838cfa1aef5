package repository

import (
	"context"
	"fmt"

	"prizedraw/domain/entities"
	"prizedraw/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// TierRepository implements prize tier inventory access
type TierRepository struct {
	q Queryable
}

// NewTierRepositoryWithTx creates a tier repository bound to a transaction
func NewTierRepositoryWithTx(tx Queryable) interfaces.TierRepository {
	return &TierRepository{q: tx}
}

const tierColumns = `id, tier_key, name, total, remaining, weight, created_at`

func scanTier(row pgx.Row) (*entities.PrizeTier, error) {
	var t entities.PrizeTier
	err := row.Scan(&t.ID, &t.Key, &t.Name, &t.Total, &t.Remaining, &t.Weight, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// List returns all tiers in seed order
func (r *TierRepository) List(ctx context.Context) ([]*entities.PrizeTier, error) {
	query := `
		SELECT ` + tierColumns + `
		FROM prize_tiers
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tiers: %w", err)
	}
	defer rows.Close()

	var tiers []*entities.PrizeTier
	for rows.Next() {
		tier, err := scanTier(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tier: %w", err)
		}
		tiers = append(tiers, tier)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tiers: %w", err)
	}

	return tiers, nil
}

// GetByKey retrieves a single tier by its key
func (r *TierRepository) GetByKey(ctx context.Context, key entities.TierKey) (*entities.PrizeTier, error) {
	query := `
		SELECT ` + tierColumns + `
		FROM prize_tiers
		WHERE tier_key = $1
	`

	tier, err := scanTier(r.q.QueryRow(ctx, query, key))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tier %q: %w", key, err)
	}

	return tier, nil
}

// DecrementRemaining decrements remaining by one only while stock lasts.
// A zero-row result means the tier was already depleted at commit time.
func (r *TierRepository) DecrementRemaining(ctx context.Context, key entities.TierKey) (bool, error) {
	query := `
		UPDATE prize_tiers
		SET remaining = remaining - 1
		WHERE tier_key = $1
		  AND remaining > 0
	`

	result, err := r.q.Exec(ctx, query, key)
	if err != nil {
		return false, fmt.Errorf("failed to decrement tier %q: %w", key, err)
	}

	return result.RowsAffected() == 1, nil
}

// SetCapacity sets total and remaining to the same value for a tier
func (r *TierRepository) SetCapacity(ctx context.Context, key entities.TierKey, total int64) error {
	query := `
		UPDATE prize_tiers
		SET total = $2, remaining = $2
		WHERE tier_key = $1
	`

	result, err := r.q.Exec(ctx, query, key, total)
	if err != nil {
		return fmt.Errorf("failed to set capacity for tier %q: %w", key, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("tier %q not found", key)
	}

	return nil
}

// RestoreAll resets remaining = total for every tier
func (r *TierRepository) RestoreAll(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, `UPDATE prize_tiers SET remaining = total`); err != nil {
		return fmt.Errorf("failed to restore tier inventory: %w", err)
	}
	return nil
}
