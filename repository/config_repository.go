package repository

import (
	"context"
	"fmt"

	"prizedraw/domain/entities"
	"prizedraw/domain/interfaces"
)

// ConfigRepository implements access to the singleton pacing configuration row
type ConfigRepository struct {
	q Queryable
}

// NewConfigRepositoryWithTx creates a config repository bound to a transaction
func NewConfigRepositoryWithTx(tx Queryable) interfaces.ConfigRepository {
	return &ConfigRepository{q: tx}
}

// Get returns the current configuration row
func (r *ConfigRepository) Get(ctx context.Context) (*entities.PacingConfig, error) {
	query := `
		SELECT start_at, duration_min, share_w1, share_w2, share_w3,
		       alpha, multiplier_min, multiplier_max,
		       higher_prob_min, higher_prob_max, window_size, window_target
		FROM pacing_config
		WHERE id = 1
	`

	var cfg entities.PacingConfig
	err := r.q.QueryRow(ctx, query).Scan(
		&cfg.StartAt,
		&cfg.DurationMin,
		&cfg.ShareW1,
		&cfg.ShareW2,
		&cfg.ShareW3,
		&cfg.Alpha,
		&cfg.MultiplierMin,
		&cfg.MultiplierMax,
		&cfg.HigherProbMin,
		&cfg.HigherProbMax,
		&cfg.WindowSize,
		&cfg.WindowTarget,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get pacing config: %w", err)
	}

	return &cfg, nil
}

// Update overwrites the configuration row
func (r *ConfigRepository) Update(ctx context.Context, cfg *entities.PacingConfig) error {
	query := `
		UPDATE pacing_config
		SET start_at = $1,
		    duration_min = $2,
		    share_w1 = $3,
		    share_w2 = $4,
		    share_w3 = $5,
		    alpha = $6,
		    multiplier_min = $7,
		    multiplier_max = $8,
		    higher_prob_min = $9,
		    higher_prob_max = $10,
		    window_size = $11,
		    window_target = $12
		WHERE id = 1
	`

	result, err := r.q.Exec(ctx, query,
		cfg.StartAt,
		cfg.DurationMin,
		cfg.ShareW1,
		cfg.ShareW2,
		cfg.ShareW3,
		cfg.Alpha,
		cfg.MultiplierMin,
		cfg.MultiplierMax,
		cfg.HigherProbMin,
		cfg.HigherProbMax,
		cfg.WindowSize,
		cfg.WindowTarget,
	)
	if err != nil {
		return fmt.Errorf("failed to update pacing config: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("pacing config row missing")
	}

	return nil
}
