package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"jetcharter/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStateRepository(t *testing.T) {
	repo := NewMemoryStateRepository(time.Hour)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	t.Run("SetAndGetState", func(t *testing.T) {
		state := models.NewSessionState("sid")
		state.Username = "ava"
		require.NoError(t, repo.SetState(ctx, state))

		got, err := repo.GetState(ctx, "sid")
		require.NoError(t, err)
		assert.Equal(t, "ava", got.Username)

		// stored copy is independent of the caller's value
		state.Username = "changed"
		got, _ = repo.GetState(ctx, "sid")
		assert.Equal(t, "ava", got.Username)
	})

	t.Run("Expiry", func(t *testing.T) {
		require.NoError(t, repo.SetState(ctx, models.NewSessionState("old")))
		now = now.Add(2 * time.Hour)
		got, err := repo.GetState(ctx, "old")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("ClearState", func(t *testing.T) {
		require.NoError(t, repo.SetState(ctx, models.NewSessionState("sid")))
		require.NoError(t, repo.ClearState(ctx, "sid"))
		got, _ := repo.GetState(ctx, "sid")
		assert.Nil(t, got)
	})

	t.Run("RateLimit", func(t *testing.T) {
		key := "signin:ava@example.com"
		allowed, _ := repo.CheckRateLimit(ctx, key, 2, time.Second)
		assert.True(t, allowed)
		allowed, _ = repo.CheckRateLimit(ctx, key, 2, time.Second)
		assert.True(t, allowed)
		allowed, _ = repo.CheckRateLimit(ctx, key, 2, time.Second)
		assert.False(t, allowed)

		now = now.Add(time.Second + 10*time.Millisecond)
		allowed, _ = repo.CheckRateLimit(ctx, key, 2, time.Second)
		assert.True(t, allowed)
	})
}

func TestMemoryRateLimitConcurrent(t *testing.T) {
	repo := NewMemoryStateRepository(0)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowedCount := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _ := repo.CheckRateLimit(ctx, "k", 10, time.Minute)
			if ok {
				mu.Lock()
				allowedCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, allowedCount)
}

func TestMemoryStateRepositoryEvictsExpiredEntries(t *testing.T) {
	repo := NewMemoryStateRepository(time.Millisecond)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		require.NoError(t, repo.SetState(ctx, models.NewSessionState(fmt.Sprintf("sid-%d", i))))
		_, err := repo.CheckRateLimit(ctx, fmt.Sprintf("signin:%d", i), 5, time.Millisecond)
		require.NoError(t, err)
	}

	now = now.Add(2 * time.Minute)
	require.NoError(t, repo.SetState(ctx, models.NewSessionState("fresh")))

	held := 0
	repo.states.Range(func(_, _ any) bool {
		held++
		return true
	})
	assert.Equal(t, 1, held)

	repo.mu.Lock()
	assert.Empty(t, repo.rateLimits)
	repo.mu.Unlock()

	got, err := repo.GetState(ctx, "fresh")
	require.NoError(t, err)
	assert.NotNil(t, got)
}
