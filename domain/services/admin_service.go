package services

import (
	"context"
	"fmt"

	"prizedraw/domain/entities"
	"prizedraw/domain/events"
	"prizedraw/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type adminService struct {
	tierRepo       interfaces.TierRepository
	redemptionRepo interfaces.RedemptionRepository
	configRepo     interfaces.ConfigRepository
	eventPublisher interfaces.EventPublisher
	clock          interfaces.Clock
}

// NewAdminService creates a new admin service
func NewAdminService(
	tierRepo interfaces.TierRepository,
	redemptionRepo interfaces.RedemptionRepository,
	configRepo interfaces.ConfigRepository,
	eventPublisher interfaces.EventPublisher,
	clock interfaces.Clock,
) interfaces.AdminService {
	return &adminService{
		tierRepo:       tierRepo,
		redemptionRepo: redemptionRepo,
		configRepo:     configRepo,
		eventPublisher: eventPublisher,
		clock:          clock,
	}
}

func (s *adminService) ListRedemptions(ctx context.Context, filter entities.RedemptionFilter) (*interfaces.RedemptionPage, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	items, total, err := s.redemptionRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list redemptions: %w", err)
	}
	return &interfaces.RedemptionPage{Total: total, Items: items}, nil
}

func (s *adminService) Metrics(ctx context.Context) (*interfaces.AdminMetrics, error) {
	cfg, err := s.configRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get pacing config: %w", err)
	}
	tiers, err := s.tierRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tiers: %w", err)
	}
	issuedHigher, err := s.redemptionRepo.CountHigher(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count higher-tier redemptions: %w", err)
	}
	issuedAll, err := s.redemptionRepo.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count redemptions: %w", err)
	}
	recent, err := s.redemptionRepo.RecentTierKeys(ctx, cfg.WindowSize)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent redemptions: %w", err)
	}

	var totalsHigher int64
	for _, t := range tiers {
		if t.Key.IsHigher() {
			totalsHigher += t.Total
		}
	}

	now := s.clock.Now()
	window := ComputeWindow(cfg, float64(totalsHigher), now)
	probs, diag := ComputeProbabilities(cfg, tiers, entities.HistorySnapshot{
		IssuedHigher: issuedHigher,
		Recent:       recent,
	}, now)

	return &interfaces.AdminMetrics{
		Config:        cfg,
		Tiers:         tiers,
		TotalsHigher:  totalsHigher,
		IssuedHigher:  issuedHigher,
		IssuedAll:     issuedAll,
		Window:        window,
		Probabilities: probs,
		Diagnostics:   diag,
	}, nil
}

func (s *adminService) UpdateConfig(ctx context.Context, update entities.PacingConfigUpdate) (*entities.PacingConfig, error) {
	current, err := s.configRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get pacing config: %w", err)
	}

	merged := current.Merge(update)
	if err := merged.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if err := s.configRepo.Update(ctx, merged); err != nil {
		return nil, fmt.Errorf("failed to update pacing config: %w", err)
	}

	if err := s.eventPublisher.Publish(events.ConfigUpdatedEvent{Config: merged}); err != nil {
		log.WithError(err).Error("failed to publish config event")
	}
	log.WithFields(log.Fields{
		"durationMin": merged.DurationMin,
		"started":     merged.Started(),
	}).Info("pacing config updated")

	return merged, nil
}

// SetTierCapacities resets total = remaining for each given tier and clears
// the ledger. Capacity changes invalidate cumulative issuance history, so
// both happen in the same transaction or not at all. Participant locks and
// sessions survive so already-drawn people stay locked.
func (s *adminService) SetTierCapacities(ctx context.Context, totals map[entities.TierKey]int64) ([]*entities.PrizeTier, error) {
	if len(totals) == 0 {
		return nil, fmt.Errorf("%w: no tier capacities given", ErrValidation)
	}
	for key, total := range totals {
		if !key.Valid() {
			return nil, fmt.Errorf("%w: unknown tier %q", ErrValidation, key)
		}
		if total < 0 {
			total = 0
		}
		if err := s.tierRepo.SetCapacity(ctx, key, total); err != nil {
			return nil, fmt.Errorf("failed to set capacity for tier %q: %w", key, err)
		}
	}
	if err := s.redemptionRepo.DeleteAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to clear ledger: %w", err)
	}

	tiers, err := s.tierRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tiers: %w", err)
	}
	if err := s.eventPublisher.Publish(events.InventoryChangedEvent{Tiers: tiers}); err != nil {
		log.WithError(err).Error("failed to publish inventory event")
	}
	log.WithField("tiers", len(totals)).Warn("tier capacities reset and ledger cleared")
	return tiers, nil
}

// ResetAll clears the ledger and restores remaining = total for every tier.
// Locks and sessions survive: a reset restocks prizes, it does not grant
// anyone a second draw.
func (s *adminService) ResetAll(ctx context.Context) ([]*entities.PrizeTier, error) {
	if err := s.redemptionRepo.DeleteAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to clear ledger: %w", err)
	}
	if err := s.tierRepo.RestoreAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to restore tier inventory: %w", err)
	}

	tiers, err := s.tierRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tiers: %w", err)
	}
	if err := s.eventPublisher.Publish(events.InventoryChangedEvent{Tiers: tiers}); err != nil {
		log.WithError(err).Error("failed to publish inventory event")
	}
	log.Warn("inventory and ledger reset")
	return tiers, nil
}
