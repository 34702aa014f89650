package repository

import (
	"context"
	"testing"

	"github.com/dpogorelov/trackbot/internal/domain"
	"github.com/dpogorelov/trackbot/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkRepo_UpsertAndGet(t *testing.T) {
	repo := NewSQLiteLinkRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	link := testutil.NewTestLink("user-1")
	require.NoError(t, repo.Upsert(ctx, link))

	fetched, err := repo.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, link.APIKey, fetched.APIKey)
	assert.Equal(t, "tester", fetched.TrackerLogin)
	assert.True(t, fetched.Valid())
}

func TestLinkRepo_Get_NotFound(t *testing.T) {
	repo := NewSQLiteLinkRepo(testutil.NewTestDB(t))
	_, err := repo.Get(context.Background(), "nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLinkRepo_Upsert_ReplacesKey(t *testing.T) {
	repo := NewSQLiteLinkRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	link := testutil.NewTestLink("user-1")
	require.NoError(t, repo.Upsert(ctx, link))

	link.APIKey = "rotated-key"
	require.NoError(t, repo.Upsert(ctx, link))

	fetched, err := repo.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "rotated-key", fetched.APIKey)
}

func TestLinkRepo_Delete(t *testing.T) {
	repo := NewSQLiteLinkRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, testutil.NewTestLink("user-1")))
	require.NoError(t, repo.Delete(ctx, "user-1"))

	_, err := repo.Get(ctx, "user-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Deleting a missing link is a no-op.
	require.NoError(t, repo.Delete(ctx, "user-1"))
}
