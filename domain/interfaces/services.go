package interfaces

import (
	"context"

	"prizedraw/domain/entities"
)

// ProposalResult is the outcome of a successful draw proposal
type ProposalResult struct {
	SessionID string
	Options   []entities.TierKey
}

// ConfirmResult is the outcome of a successful redemption
type ConfirmResult struct {
	DrawID string
	Tier   *entities.PrizeTier
}

// DrawService defines the two-phase draw protocol: propose candidate
// outcomes, then atomically redeem exactly one of them
type DrawService interface {
	// Propose computes current probabilities, samples count candidates
	// under that one snapshot, and persists a new single-use session.
	// Inventory is never touched here.
	Propose(ctx context.Context, participantID, participantName string, count int) (*ProposalResult, error)

	// Confirm validates the session and choice, then atomically decrements
	// inventory, appends to the ledger, marks the session used, and locks
	// the participant. All four effects commit together or none do.
	Confirm(ctx context.Context, sessionID string, chosenIndex int, operator, deviceID string) (*ConfirmResult, error)
}

// RedemptionPage is one page of ledger records
type RedemptionPage struct {
	Total int64
	Items []*entities.Redemption
}

// AdminMetrics is the dashboard snapshot for operators
type AdminMetrics struct {
	Config        *entities.PacingConfig
	Tiers         []*entities.PrizeTier
	TotalsHigher  int64
	IssuedHigher  int64
	IssuedAll     int64
	Window        entities.WindowInfo
	Probabilities entities.Probabilities
	Diagnostics   entities.PacingDiagnostics
}

// AdminService defines operator-facing queries and administrative actions
type AdminService interface {
	// ListRedemptions returns a filtered, paged view of the ledger
	ListRedemptions(ctx context.Context, filter entities.RedemptionFilter) (*RedemptionPage, error)

	// Metrics returns configuration, inventory, counters, window position,
	// and the probabilities the next draw would see
	Metrics(ctx context.Context) (*AdminMetrics, error)

	// UpdateConfig merges a partial update over the current configuration,
	// validates it, and persists the result
	UpdateConfig(ctx context.Context, update entities.PacingConfigUpdate) (*entities.PacingConfig, error)

	// SetTierCapacities resets total and remaining for the given tiers and
	// clears the ledger, as one destructive transaction
	SetTierCapacities(ctx context.Context, totals map[entities.TierKey]int64) ([]*entities.PrizeTier, error)

	// ResetAll clears the ledger and restores remaining = total for every
	// tier. Participant locks and sessions are left alone.
	ResetAll(ctx context.Context) ([]*entities.PrizeTier, error)
}
