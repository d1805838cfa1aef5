package services

import (
	"context"
	"fmt"
	"strings"

	"prizedraw/domain/entities"
	"prizedraw/domain/events"
	"prizedraw/domain/interfaces"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// drawService implements the two-phase draw protocol. Instances are built
// per unit of work: every repository it holds is bound to the same
// transaction, so Confirm's four effects commit together or not at all.
type drawService struct {
	tierRepo        interfaces.TierRepository
	participantRepo interfaces.ParticipantRepository
	sessionRepo     interfaces.SessionRepository
	redemptionRepo  interfaces.RedemptionRepository
	configRepo      interfaces.ConfigRepository
	eventPublisher  interfaces.EventPublisher
	clock           interfaces.Clock
	sampler         *Sampler
	pickSlot        func(n int) int
}

// NewDrawService creates a new draw service
func NewDrawService(
	tierRepo interfaces.TierRepository,
	participantRepo interfaces.ParticipantRepository,
	sessionRepo interfaces.SessionRepository,
	redemptionRepo interfaces.RedemptionRepository,
	configRepo interfaces.ConfigRepository,
	eventPublisher interfaces.EventPublisher,
	clock interfaces.Clock,
	sampler *Sampler,
) interfaces.DrawService {
	return &drawService{
		tierRepo:        tierRepo,
		participantRepo: participantRepo,
		sessionRepo:     sessionRepo,
		redemptionRepo:  redemptionRepo,
		configRepo:      configRepo,
		eventPublisher:  eventPublisher,
		clock:           clock,
		sampler:         sampler,
		pickSlot:        defaultSlotPicker,
	}
}

func (s *drawService) Propose(ctx context.Context, participantID, participantName string, count int) (*interfaces.ProposalResult, error) {
	participantID = strings.TrimSpace(participantID)
	if participantID == "" {
		return nil, fmt.Errorf("%w: missing participant id", ErrValidation)
	}
	count = entities.ClampOptionCount(count)

	participant, err := s.participantRepo.GetByID(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	if participant != nil && participant.Locked {
		return nil, ErrAlreadyLocked
	}

	now := s.clock.Now()
	if _, err := s.participantRepo.Upsert(ctx, participantID, participantName, now); err != nil {
		return nil, fmt.Errorf("failed to upsert participant: %w", err)
	}

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
	recent, err := s.redemptionRepo.RecentTierKeys(ctx, cfg.WindowSize)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent redemptions: %w", err)
	}

	probs, diag := ComputeProbabilities(cfg, tiers, entities.HistorySnapshot{
		IssuedHigher: issuedHigher,
		Recent:       recent,
	}, now)

	// All candidates are drawn under this one probability snapshot.
	options := s.sampler.Draw(probs, count)

	var firstRemaining int64
	for _, t := range tiers {
		if t.Key == entities.TierFirst {
			firstRemaining = t.Remaining
		}
	}
	applyPrivilegedOverride(participantID, options, firstRemaining, s.pickSlot)

	session := &entities.DrawSession{
		ID:              uuid.NewString(),
		ParticipantID:   participantID,
		ParticipantName: participantName,
		Options:         options,
		Used:            false,
		CreatedAt:       now,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create draw session: %w", err)
	}

	log.WithFields(log.Fields{
		"participantID": participantID,
		"sessionID":     session.ID,
		"count":         count,
		"options":       options,
		"multiplier":    diag.Multiplier,
		"higherProb":    diag.HigherProb,
	}).Info("draw session proposed")

	return &interfaces.ProposalResult{
		SessionID: session.ID,
		Options:   options,
	}, nil
}

func (s *drawService) Confirm(ctx context.Context, sessionID string, chosenIndex int, operator, deviceID string) (*interfaces.ConfirmResult, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("%w: missing session id", ErrValidation)
	}

	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get draw session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.Used {
		return nil, ErrSessionAlreadyUsed
	}

	participant, err := s.participantRepo.GetByID(ctx, session.ParticipantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	if participant != nil && participant.Locked {
		return nil, ErrAlreadyLocked
	}

	if !session.ValidChoice(chosenIndex) {
		return nil, ErrInvalidChoice
	}
	chosen := session.Options[chosenIndex]

	// Decrement conditioned on remaining > 0; losing this race aborts the
	// whole transaction with no ledger entry, no lock, no used flag.
	decremented, err := s.tierRepo.DecrementRemaining(ctx, chosen)
	if err != nil {
		return nil, fmt.Errorf("failed to decrement tier inventory: %w", err)
	}
	if !decremented {
		return nil, ErrOutOfStock
	}

	tier, err := s.tierRepo.GetByKey(ctx, chosen)
	if err != nil {
		return nil, fmt.Errorf("failed to get tier: %w", err)
	}
	if tier == nil {
		return nil, fmt.Errorf("tier %q missing after decrement", chosen)
	}

	redemption := &entities.Redemption{
		ID:              uuid.NewString(),
		RedeemedAt:      s.clock.Now(),
		Operator:        operator,
		DeviceID:        deviceID,
		ParticipantID:   session.ParticipantID,
		ParticipantName: session.ParticipantName,
		TierKey:         tier.Key,
		TierName:        tier.Name,
	}
	if err := s.redemptionRepo.Create(ctx, redemption); err != nil {
		return nil, fmt.Errorf("failed to append redemption record: %w", err)
	}
	if err := s.sessionRepo.MarkUsed(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("failed to mark session used: %w", err)
	}
	if err := s.participantRepo.Lock(ctx, session.ParticipantID); err != nil {
		return nil, fmt.Errorf("failed to lock participant: %w", err)
	}

	tiers, err := s.tierRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tiers: %w", err)
	}
	if err := s.eventPublisher.Publish(events.RedemptionCompletedEvent{
		DrawID:          redemption.ID,
		ParticipantID:   redemption.ParticipantID,
		ParticipantName: redemption.ParticipantName,
		TierKey:         redemption.TierKey,
		TierName:        redemption.TierName,
		RedeemedAt:      redemption.RedeemedAt,
	}); err != nil {
		log.WithError(err).Error("failed to publish redemption event")
	}
	if err := s.eventPublisher.Publish(events.InventoryChangedEvent{Tiers: tiers}); err != nil {
		log.WithError(err).Error("failed to publish inventory event")
	}

	log.WithFields(log.Fields{
		"drawID":        redemption.ID,
		"participantID": redemption.ParticipantID,
		"tier":          tier.Key,
		"operator":      operator,
		"deviceID":      deviceID,
	}).Info("redemption confirmed")

	return &interfaces.ConfirmResult{
		DrawID: redemption.ID,
		Tier:   tier,
	}, nil
}
