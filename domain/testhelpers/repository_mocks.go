package testhelpers

import (
	"context"
	"time"

	"prizedraw/domain/entities"
	"prizedraw/domain/events"

	"github.com/stretchr/testify/mock"
)

// MockTierRepository is a mock implementation of TierRepository
type MockTierRepository struct {
	mock.Mock
}

func (m *MockTierRepository) List(ctx context.Context) ([]*entities.PrizeTier, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.PrizeTier), args.Error(1)
}

func (m *MockTierRepository) GetByKey(ctx context.Context, key entities.TierKey) (*entities.PrizeTier, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PrizeTier), args.Error(1)
}

func (m *MockTierRepository) DecrementRemaining(ctx context.Context, key entities.TierKey) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockTierRepository) SetCapacity(ctx context.Context, key entities.TierKey, total int64) error {
	args := m.Called(ctx, key, total)
	return args.Error(0)
}

func (m *MockTierRepository) RestoreAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockParticipantRepository is a mock implementation of ParticipantRepository
type MockParticipantRepository struct {
	mock.Mock
}

func (m *MockParticipantRepository) GetByID(ctx context.Context, participantID string) (*entities.Participant, error) {
	args := m.Called(ctx, participantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Participant), args.Error(1)
}

func (m *MockParticipantRepository) Upsert(ctx context.Context, participantID, name string, firstSeen time.Time) (*entities.Participant, error) {
	args := m.Called(ctx, participantID, name, firstSeen)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Participant), args.Error(1)
}

func (m *MockParticipantRepository) Lock(ctx context.Context, participantID string) error {
	args := m.Called(ctx, participantID)
	return args.Error(0)
}

// MockSessionRepository is a mock implementation of SessionRepository
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, session *entities.DrawSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) GetByID(ctx context.Context, id string) (*entities.DrawSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.DrawSession), args.Error(1)
}

func (m *MockSessionRepository) MarkUsed(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSessionRepository) DeleteUnusedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockRedemptionRepository is a mock implementation of RedemptionRepository
type MockRedemptionRepository struct {
	mock.Mock
}

func (m *MockRedemptionRepository) Create(ctx context.Context, redemption *entities.Redemption) error {
	args := m.Called(ctx, redemption)
	return args.Error(0)
}

func (m *MockRedemptionRepository) List(ctx context.Context, filter entities.RedemptionFilter) ([]*entities.Redemption, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*entities.Redemption), args.Get(1).(int64), args.Error(2)
}

func (m *MockRedemptionRepository) CountHigher(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRedemptionRepository) CountAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRedemptionRepository) RecentTierKeys(ctx context.Context, limit int64) ([]entities.TierKey, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.TierKey), args.Error(1)
}

func (m *MockRedemptionRepository) DeleteAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockConfigRepository is a mock implementation of ConfigRepository
type MockConfigRepository struct {
	mock.Mock
}

func (m *MockConfigRepository) Get(ctx context.Context) (*entities.PacingConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PacingConfig), args.Error(1)
}

func (m *MockConfigRepository) Update(ctx context.Context, cfg *entities.PacingConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// FixedClock always returns the same instant
type FixedClock struct {
	Time time.Time
}

func (c FixedClock) Now() time.Time {
	return c.Time
}
