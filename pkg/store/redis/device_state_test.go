package redis

import (
	"context"
	"testing"
	"time"

	"tracehub/pkg/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T, ttl time.Duration) (*DeviceStateRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(&config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return NewDeviceStateRepository(client, ttl), mr
}

func TestDeviceState_SaveAndGet(t *testing.T) {
	repo, _ := newTestRepository(t, 30*time.Second)
	ctx := context.Background()

	state := &DeviceState{
		Serial:   "emulator-5554",
		Status:   "online",
		Host:     "lab-host-1",
		LastSeen: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, repo.Save(ctx, state))

	got, err := repo.Get(ctx, "emulator-5554")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, state.Serial, got.Serial)
	assert.Equal(t, state.Status, got.Status)
	assert.Equal(t, state.Host, got.Host)
}

func TestDeviceState_ExpiresToOffline(t *testing.T) {
	repo, mr := newTestRepository(t, 30*time.Second)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &DeviceState{Serial: "R58M12ABC", Status: "online", Host: "h1"}))

	// Simulate reports stopping past the liveness window.
	mr.FastForward(31 * time.Second)

	got, err := repo.Get(ctx, "R58M12ABC")
	require.NoError(t, err)
	assert.Nil(t, got, "expired state should read as absent")
}

func TestDeviceState_GetAll(t *testing.T) {
	repo, _ := newTestRepository(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &DeviceState{Serial: "a", Status: "online", Host: "h1"}))
	require.NoError(t, repo.Save(ctx, &DeviceState{Serial: "b", Status: "busy", Host: "h2"}))

	states, err := repo.GetAll(ctx, []string{"a", "b", "missing"})
	require.NoError(t, err)
	assert.Len(t, states, 2)
	assert.Equal(t, "online", states["a"].Status)
	assert.Equal(t, "busy", states["b"].Status)
	assert.NotContains(t, states, "missing")
}

func TestDeviceState_Delete(t *testing.T) {
	repo, _ := newTestRepository(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &DeviceState{Serial: "gone", Status: "online", Host: "h1"}))
	require.NoError(t, repo.Delete(ctx, "gone"))

	got, err := repo.Get(ctx, "gone")
	require.NoError(t, err)
	assert.Nil(t, got)
}
