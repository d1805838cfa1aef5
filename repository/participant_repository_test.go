package repository

import (
	"context"
	"testing"
	"time"

	"prizedraw/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParticipantRepository_GetByID(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewParticipantRepositoryWithTx(testDB.DB)
	ctx := context.Background()

	t.Run("never seen", func(t *testing.T) {
		p, err := repo.GetByID(ctx, "ghost")
		require.NoError(t, err)
		assert.Nil(t, p)
	})

	t.Run("found after upsert", func(t *testing.T) {
		firstSeen := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
		_, err := repo.Upsert(ctx, "e1", "Ada", firstSeen)
		require.NoError(t, err)

		p, err := repo.GetByID(ctx, "e1")
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, "Ada", p.Name)
		assert.False(t, p.Locked)
		assert.True(t, p.FirstSeen.Equal(firstSeen))
	})
}

func TestParticipantRepository_Upsert(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewParticipantRepositoryWithTx(testDB.DB)
	ctx := context.Background()

	firstSeen := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	_, err := repo.Upsert(ctx, "e2", "Grace", firstSeen)
	require.NoError(t, err)
	require.NoError(t, repo.Lock(ctx, "e2"))

	// A repeat proposal refreshes the name but keeps lock and first_seen
	later := firstSeen.Add(2 * time.Hour)
	p, err := repo.Upsert(ctx, "e2", "Grace H.", later)
	require.NoError(t, err)

	assert.Equal(t, "Grace H.", p.Name)
	assert.True(t, p.Locked)
	assert.True(t, p.FirstSeen.Equal(firstSeen))
}

func TestParticipantRepository_Lock(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewParticipantRepositoryWithTx(testDB.DB)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, "e3", "Alan", time.Now().UTC())
	require.NoError(t, err)

	require.NoError(t, repo.Lock(ctx, "e3"))
	// Idempotent
	require.NoError(t, repo.Lock(ctx, "e3"))

	p, err := repo.GetByID(ctx, "e3")
	require.NoError(t, err)
	assert.True(t, p.Locked)

	assert.Error(t, repo.Lock(ctx, "ghost"))
}
