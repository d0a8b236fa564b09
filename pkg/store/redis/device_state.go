package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	deviceStateKeyPrefix = "device:state:" // Live device state by serial
)

// DeviceState is the live view of one device, written by the owning host's
// liveness reports. The key TTL is the liveness window: when reports stop,
// the key expires and the device reads as offline.
type DeviceState struct {
	Serial   string    `json:"serial"`
	Status   string    `json:"status"`
	Host     string    `json:"host"`
	LastSeen time.Time `json:"last_seen"`
}

// DeviceStateRepository manages ephemeral device state in Redis
type DeviceStateRepository struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewDeviceStateRepository creates a device state repository. ttl is the
// liveness window after which unrefreshed state decays.
func NewDeviceStateRepository(redisClient *RedisClient, ttl time.Duration) *DeviceStateRepository {
	return &DeviceStateRepository{
		redis: redisClient.GetClient(),
		ttl:   ttl,
	}
}

// Save writes (or refreshes) the state for a serial
func (r *DeviceStateRepository) Save(ctx context.Context, state *DeviceState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal device state: %w", err)
	}
	key := deviceStateKeyPrefix + state.Serial
	if err := r.redis.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save device state: %w", err)
	}
	return nil
}

// Get retrieves the state for a serial. Returns nil when the key is absent
// or expired, which callers interpret as offline.
func (r *DeviceStateRepository) Get(ctx context.Context, serial string) (*DeviceState, error) {
	data, err := r.redis.Get(ctx, deviceStateKeyPrefix+serial).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get device state: %w", err)
	}

	var state DeviceState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal device state: %w", err)
	}
	return &state, nil
}

// GetAll batch-fetches state for the given serials in one pipeline
// round-trip. Serials with no live state are omitted from the result.
func (r *DeviceStateRepository) GetAll(ctx context.Context, serials []string) (map[string]*DeviceState, error) {
	states := make(map[string]*DeviceState, len(serials))
	if len(serials) == 0 {
		return states, nil
	}

	pipe := r.redis.Pipeline()
	cmds := make([]*redis.StringCmd, 0, len(serials))
	for _, serial := range serials {
		cmds = append(cmds, pipe.Get(ctx, deviceStateKeyPrefix+serial))
	}

	_, err := pipe.Exec(ctx)
	if err != nil && err != redis.Nil {
		// Pipeline failed, fall back to individual gets
		for _, serial := range serials {
			state, err := r.Get(ctx, serial)
			if err != nil || state == nil {
				continue
			}
			states[serial] = state
		}
		return states, nil
	}

	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil {
			// Expired or missing, skip
			continue
		}
		var state DeviceState
		if err := json.Unmarshal([]byte(data), &state); err != nil {
			// Malformed data, skip
			continue
		}
		states[state.Serial] = &state
	}

	return states, nil
}

// Delete removes the state keys for the given serials. Used by the sweep so
// swept devices read offline immediately instead of waiting out the TTL.
func (r *DeviceStateRepository) Delete(ctx context.Context, serials ...string) error {
	if len(serials) == 0 {
		return nil
	}
	keys := make([]string, 0, len(serials))
	for _, serial := range serials {
		keys = append(keys, deviceStateKeyPrefix+serial)
	}
	if err := r.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete device state: %w", err)
	}
	return nil
}
