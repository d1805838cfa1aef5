package repository

import (
	"context"
	"testing"
	"time"

	"prizedraw/domain/entities"
	"prizedraw/repository/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestParticipant(t *testing.T, db Queryable, id string) {
	t.Helper()
	repo := NewParticipantRepositoryWithTx(db)
	_, err := repo.Upsert(context.Background(), id, "Test "+id, time.Now().UTC())
	require.NoError(t, err)
}

func newTestSession(participantID string, createdAt time.Time) *entities.DrawSession {
	return &entities.DrawSession{
		ID:              uuid.NewString(),
		ParticipantID:   participantID,
		ParticipantName: "Test " + participantID,
		Options:         []entities.TierKey{entities.TierComfort, entities.TierThird, entities.TierComfort},
		CreatedAt:       createdAt,
	}
}

func TestSessionRepository_CreateAndGet(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewSessionRepositoryWithTx(testDB.DB)
	ctx := context.Background()
	createTestParticipant(t, testDB.DB, "e10")

	session := newTestSession("e10", time.Now().UTC().Truncate(time.Microsecond))
	require.NoError(t, repo.Create(ctx, session))

	got, err := repo.GetByID(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, session.ParticipantID, got.ParticipantID)
	assert.Equal(t, session.Options, got.Options)
	assert.False(t, got.Used)

	t.Run("unknown token", func(t *testing.T) {
		got, err := repo.GetByID(ctx, uuid.NewString())
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestSessionRepository_MarkUsed(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewSessionRepositoryWithTx(testDB.DB)
	ctx := context.Background()
	createTestParticipant(t, testDB.DB, "e11")

	session := newTestSession("e11", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, session))

	require.NoError(t, repo.MarkUsed(ctx, session.ID))

	got, err := repo.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, got.Used)

	assert.Error(t, repo.MarkUsed(ctx, uuid.NewString()))
}

func TestSessionRepository_DeleteUnusedBefore(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewSessionRepositoryWithTx(testDB.DB)
	ctx := context.Background()
	createTestParticipant(t, testDB.DB, "e12")

	now := time.Now().UTC()
	stale := newTestSession("e12", now.Add(-48*time.Hour))
	fresh := newTestSession("e12", now)
	usedStale := newTestSession("e12", now.Add(-48*time.Hour))

	require.NoError(t, repo.Create(ctx, stale))
	require.NoError(t, repo.Create(ctx, fresh))
	require.NoError(t, repo.Create(ctx, usedStale))
	require.NoError(t, repo.MarkUsed(ctx, usedStale.ID))

	swept, err := repo.DeleteUnusedBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), swept)

	// Only the unused stale session is gone
	got, err := repo.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = repo.GetByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)

	// Used sessions survive: they are the audit trail of committed draws
	got, err = repo.GetByID(ctx, usedStale.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)
}
