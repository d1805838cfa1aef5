package services

import (
	"context"
	"testing"
	"time"

	"prizedraw/domain/entities"
	"prizedraw/domain/events"
	"prizedraw/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type adminServiceFixture struct {
	tierRepo       *testhelpers.MockTierRepository
	redemptionRepo *testhelpers.MockRedemptionRepository
	configRepo     *testhelpers.MockConfigRepository
	publisher      *testhelpers.MockEventPublisher
	clock          testhelpers.FixedClock
	service        *adminService
}

func newAdminServiceFixture() *adminServiceFixture {
	f := &adminServiceFixture{
		tierRepo:       new(testhelpers.MockTierRepository),
		redemptionRepo: new(testhelpers.MockRedemptionRepository),
		configRepo:     new(testhelpers.MockConfigRepository),
		publisher:      new(testhelpers.MockEventPublisher),
		clock:          testhelpers.FixedClock{Time: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
	}
	svc := NewAdminService(f.tierRepo, f.redemptionRepo, f.configRepo, f.publisher, f.clock)
	f.service = svc.(*adminService)
	return f
}

func TestAdminService_ListRedemptions(t *testing.T) {
	ctx := context.Background()

	t.Run("applies default and maximum limits", func(t *testing.T) {
		f := newAdminServiceFixture()
		f.redemptionRepo.On("List", ctx, mock.MatchedBy(func(filter entities.RedemptionFilter) bool {
			return filter.Limit == defaultListLimit && filter.Offset == 0
		})).Return([]*entities.Redemption{}, int64(0), nil).Once()

		_, err := f.service.ListRedemptions(ctx, entities.RedemptionFilter{Limit: 0, Offset: -5})
		require.NoError(t, err)

		f.redemptionRepo.On("List", ctx, mock.MatchedBy(func(filter entities.RedemptionFilter) bool {
			return filter.Limit == maxListLimit
		})).Return([]*entities.Redemption{}, int64(0), nil).Once()

		_, err = f.service.ListRedemptions(ctx, entities.RedemptionFilter{Limit: 5000})
		require.NoError(t, err)
	})

	t.Run("returns items with total", func(t *testing.T) {
		f := newAdminServiceFixture()
		items := []*entities.Redemption{{ID: "r1"}, {ID: "r2"}}
		f.redemptionRepo.On("List", ctx, mock.Anything).Return(items, int64(42), nil)

		page, err := f.service.ListRedemptions(ctx, entities.RedemptionFilter{Limit: 2})

		require.NoError(t, err)
		assert.Equal(t, int64(42), page.Total)
		assert.Len(t, page.Items, 2)
	})
}

func TestAdminService_Metrics(t *testing.T) {
	ctx := context.Background()
	f := newAdminServiceFixture()

	cfg := entities.DefaultPacingConfig()
	f.configRepo.On("Get", ctx).Return(cfg, nil)
	f.tierRepo.On("List", ctx).Return(seedTiers(), nil)
	f.redemptionRepo.On("CountHigher", ctx).Return(int64(7), nil)
	f.redemptionRepo.On("CountAll", ctx).Return(int64(50), nil)
	f.redemptionRepo.On("RecentTierKeys", ctx, cfg.WindowSize).Return([]entities.TierKey{}, nil)

	metrics, err := f.service.Metrics(ctx)

	require.NoError(t, err)
	assert.Equal(t, int64(235), metrics.TotalsHigher)
	assert.Equal(t, int64(7), metrics.IssuedHigher)
	assert.Equal(t, int64(50), metrics.IssuedAll)
	assert.Equal(t, -1, metrics.Window.Index)
	assert.InDelta(t, 1.0, metrics.Probabilities.Sum(), 1e-9)
}

func TestAdminService_UpdateConfig(t *testing.T) {
	ctx := context.Background()

	t.Run("merges, validates and publishes", func(t *testing.T) {
		f := newAdminServiceFixture()
		f.configRepo.On("Get", ctx).Return(entities.DefaultPacingConfig(), nil)
		duration := int64(120)
		f.configRepo.On("Update", ctx, mock.MatchedBy(func(c *entities.PacingConfig) bool {
			return c.DurationMin == 120
		})).Return(nil)
		f.publisher.On("Publish", mock.AnythingOfType("events.ConfigUpdatedEvent")).Return(nil)

		cfg, err := f.service.UpdateConfig(ctx, entities.PacingConfigUpdate{DurationMin: &duration})

		require.NoError(t, err)
		assert.Equal(t, int64(120), cfg.DurationMin)
		f.publisher.AssertCalled(t, "Publish", mock.MatchedBy(func(e events.Event) bool {
			ev, ok := e.(events.ConfigUpdatedEvent)
			return ok && ev.Config.DurationMin == 120
		}))
	})

	t.Run("rejects invalid merge result", func(t *testing.T) {
		f := newAdminServiceFixture()
		f.configRepo.On("Get", ctx).Return(entities.DefaultPacingConfig(), nil)
		bad := int64(-10)

		_, err := f.service.UpdateConfig(ctx, entities.PacingConfigUpdate{DurationMin: &bad})

		assert.ErrorIs(t, err, ErrValidation)
		f.configRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestAdminService_SetTierCapacities(t *testing.T) {
	ctx := context.Background()

	t.Run("sets capacities and clears ledger", func(t *testing.T) {
		f := newAdminServiceFixture()
		f.tierRepo.On("SetCapacity", ctx, entities.TierFirst, int64(10)).Return(nil)
		f.redemptionRepo.On("DeleteAll", ctx).Return(nil)
		f.tierRepo.On("List", ctx).Return(seedTiers(), nil)
		f.publisher.On("Publish", mock.AnythingOfType("events.InventoryChangedEvent")).Return(nil)

		tiers, err := f.service.SetTierCapacities(ctx, map[entities.TierKey]int64{entities.TierFirst: 10})

		require.NoError(t, err)
		assert.Len(t, tiers, 4)
		f.redemptionRepo.AssertCalled(t, "DeleteAll", ctx)
	})

	t.Run("negative totals become zero", func(t *testing.T) {
		f := newAdminServiceFixture()
		f.tierRepo.On("SetCapacity", ctx, entities.TierThird, int64(0)).Return(nil)
		f.redemptionRepo.On("DeleteAll", ctx).Return(nil)
		f.tierRepo.On("List", ctx).Return(seedTiers(), nil)
		f.publisher.On("Publish", mock.Anything).Return(nil)

		_, err := f.service.SetTierCapacities(ctx, map[entities.TierKey]int64{entities.TierThird: -5})

		require.NoError(t, err)
		f.tierRepo.AssertCalled(t, "SetCapacity", ctx, entities.TierThird, int64(0))
	})

	t.Run("rejects unknown tier keys", func(t *testing.T) {
		f := newAdminServiceFixture()

		_, err := f.service.SetTierCapacities(ctx, map[entities.TierKey]int64{"platinum": 5})

		assert.ErrorIs(t, err, ErrValidation)
		f.redemptionRepo.AssertNotCalled(t, "DeleteAll", mock.Anything)
	})

	t.Run("rejects empty map", func(t *testing.T) {
		f := newAdminServiceFixture()

		_, err := f.service.SetTierCapacities(ctx, nil)

		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestAdminService_ResetAll(t *testing.T) {
	ctx := context.Background()
	f := newAdminServiceFixture()

	f.redemptionRepo.On("DeleteAll", ctx).Return(nil)
	f.tierRepo.On("RestoreAll", ctx).Return(nil)
	f.tierRepo.On("List", ctx).Return(seedTiers(), nil)
	f.publisher.On("Publish", mock.AnythingOfType("events.InventoryChangedEvent")).Return(nil)

	tiers, err := f.service.ResetAll(ctx)

	require.NoError(t, err)
	assert.Len(t, tiers, 4)
	f.redemptionRepo.AssertCalled(t, "DeleteAll", ctx)
	f.tierRepo.AssertCalled(t, "RestoreAll", ctx)
}
