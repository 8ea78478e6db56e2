package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterService_ReconcileYieldsNetCounts(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	seedUsers(store, "target", "u1", "u2", "u3", "u4", "u5")
	social := NewSocialService(memUsers{store}, memFollows{store}, nil)

	followers := []string{"u1", "u2", "u3", "u4", "u5"}
	for _, id := range followers {
		_, err := social.Follow(ctx, id, "target")
		require.NoError(t, err)
	}
	for _, id := range followers[:2] {
		require.NoError(t, social.Unfollow(ctx, id, "target"))
	}

	// Simulate drift in the denormalized counters.
	require.NoError(t, memUsers{store}.SetFollowCounts(ctx, "target", 42, 7))
	require.NoError(t, memUsers{store}.SetFollowCounts(ctx, "u3", 0, 0))

	report, err := NewCounterService(memUsers{store}, memFollows{store}).Reconcile(ctx)
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Equal(t, 6, report.Users)
	assert.Equal(t, 6, report.Updated)

	assert.Equal(t, 3, store.user("target").FollowerCount)
	assert.Equal(t, 0, store.user("target").FollowingCount)
	assert.Equal(t, 1, store.user("u3").FollowingCount)
	assert.Equal(t, 0, store.user("u1").FollowingCount)
}

func TestCounterService_ContinuesAfterUserFailure(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	seedUsers(store, "a", "b", "c")
	store.failCountFor["b"] = true

	report, err := NewCounterService(memUsers{store}, memFollows{store}).Reconcile(ctx)
	require.NoError(t, err)
	assert.False(t, report.OK())
	assert.Equal(t, ReconcileReport{Users: 3, Updated: 2, Failed: 1}, report)
}
