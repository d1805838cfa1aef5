package repository

import (
	"context"
	"fmt"

	"prizedraw/domain/entities"
	"prizedraw/domain/interfaces"
)

// RedemptionRepository implements the append-only history ledger
type RedemptionRepository struct {
	q Queryable
}

// NewRedemptionRepositoryWithTx creates a redemption repository bound to a transaction
func NewRedemptionRepositoryWithTx(tx Queryable) interfaces.RedemptionRepository {
	return &RedemptionRepository{q: tx}
}

// Create appends one redemption record
func (r *RedemptionRepository) Create(ctx context.Context, redemption *entities.Redemption) error {
	query := `
		INSERT INTO redemptions (id, redeemed_at, operator, device_id, participant_id, participant_name, tier_key, tier_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.q.Exec(ctx, query,
		redemption.ID,
		redemption.RedeemedAt,
		redemption.Operator,
		redemption.DeviceID,
		redemption.ParticipantID,
		redemption.ParticipantName,
		redemption.TierKey,
		redemption.TierName,
	)
	if err != nil {
		return fmt.Errorf("failed to append redemption record: %w", err)
	}

	return nil
}

const redemptionFilterClause = `
	WHERE ($1::text IS NULL OR participant_id = $1)
	  AND ($2::text IS NULL OR tier_key = $2)
	  AND ($3::timestamptz IS NULL OR redeemed_at >= $3)
	  AND ($4::timestamptz IS NULL OR redeemed_at <= $4)
`

// List returns a filtered page of records, newest first, plus the total
// count matching the filter
func (r *RedemptionRepository) List(ctx context.Context, filter entities.RedemptionFilter) ([]*entities.Redemption, int64, error) {
	var tier *string
	if filter.Tier != nil {
		t := string(*filter.Tier)
		tier = &t
	}

	countQuery := `SELECT COUNT(*) FROM redemptions` + redemptionFilterClause

	var total int64
	err := r.q.QueryRow(ctx, countQuery, filter.ParticipantID, tier, filter.Since, filter.Until).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count redemptions: %w", err)
	}

	listQuery := `
		SELECT id, redeemed_at, operator, device_id, participant_id, participant_name, tier_key, tier_name
		FROM redemptions` + redemptionFilterClause + `
		ORDER BY redeemed_at DESC
		LIMIT $5 OFFSET $6
	`

	rows, err := r.q.Query(ctx, listQuery, filter.ParticipantID, tier, filter.Since, filter.Until, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list redemptions: %w", err)
	}
	defer rows.Close()

	var items []*entities.Redemption
	for rows.Next() {
		var red entities.Redemption
		err := rows.Scan(
			&red.ID,
			&red.RedeemedAt,
			&red.Operator,
			&red.DeviceID,
			&red.ParticipantID,
			&red.ParticipantName,
			&red.TierKey,
			&red.TierName,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan redemption: %w", err)
		}
		items = append(items, &red)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate redemptions: %w", err)
	}

	return items, total, nil
}

// CountHigher returns how many higher-tier redemptions exist
func (r *RedemptionRepository) CountHigher(ctx context.Context) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM redemptions
		WHERE tier_key = ANY($1)
	`

	keys := entities.HigherTierKeys()
	higher := make([]string, len(keys))
	for i, k := range keys {
		higher[i] = string(k)
	}

	var count int64
	if err := r.q.QueryRow(ctx, query, higher).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count higher-tier redemptions: %w", err)
	}

	return count, nil
}

// CountAll returns the total number of redemptions
func (r *RedemptionRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM redemptions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count redemptions: %w", err)
	}
	return count, nil
}

// RecentTierKeys returns the tier keys of the most recent redemptions,
// newest first
func (r *RedemptionRepository) RecentTierKeys(ctx context.Context, limit int64) ([]entities.TierKey, error) {
	query := `
		SELECT tier_key
		FROM redemptions
		ORDER BY redeemed_at DESC
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent redemptions: %w", err)
	}
	defer rows.Close()

	var keys []entities.TierKey
	for rows.Next() {
		var key entities.TierKey
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan tier key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recent redemptions: %w", err)
	}

	return keys, nil
}

// DeleteAll clears the ledger
func (r *RedemptionRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM redemptions`); err != nil {
		return fmt.Errorf("failed to clear redemption ledger: %w", err)
	}
	return nil
}
