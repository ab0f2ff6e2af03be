package rslimiter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleister1102/mirrorinc/internal/config"
)

func testConfig() config.ResourceLimiterConfig {
	cfg := config.NewDefaultResourceLimiterConfig()
	cfg.CheckIntervalMs = 10
	cfg.MaxWaitSecs = 5
	return cfg
}

func TestResourceLimiter_New(t *testing.T) {
	rl := NewResourceLimiter(config.ResourceLimiterConfig{Enabled: true}, zerolog.Nop())
	require.NotNil(t, rl)
	assert.Equal(t, 0.9, rl.config.SystemMemThreshold)
	assert.Equal(t, 500, rl.config.CheckIntervalMs)
	assert.Equal(t, 30, rl.config.MaxWaitSecs)
}

func TestResourceLimiter_WaitPassesBelowThreshold(t *testing.T) {
	rl := NewResourceLimiter(testConfig(), zerolog.Nop()).WithSampler(func() (float64, error) { return 40, nil })
	require.NoError(t, rl.Wait(context.Background()))

	waits, _ := rl.WaitStats()
	assert.Equal(t, 0, waits)
}

func TestResourceLimiter_WaitHoldsUntilMemoryDrops(t *testing.T) {
	calls := 0
	rl := NewResourceLimiter(testConfig(), zerolog.Nop()).WithSampler(func() (float64, error) {
		calls++
		if calls < 3 {
			return 95, nil
		}
		return 50, nil
	})

	require.NoError(t, rl.Wait(context.Background()))
	assert.Equal(t, 3, calls)

	waits, waited := rl.WaitStats()
	assert.Equal(t, 1, waits)
	assert.Greater(t, waited, time.Duration(0))
}

func TestResourceLimiter_WaitHonoursContext(t *testing.T) {
	rl := NewResourceLimiter(testConfig(), zerolog.Nop()).WithSampler(func() (float64, error) { return 99, nil })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := rl.Wait(ctx)
	assert.Error(t, err)
}

func TestResourceLimiter_DisabledOrSamplerError(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	rl := NewResourceLimiter(cfg, zerolog.Nop()).WithSampler(func() (float64, error) { return 99, nil })
	assert.NoError(t, rl.Wait(context.Background()))

	rl = NewResourceLimiter(testConfig(), zerolog.Nop()).WithSampler(func() (float64, error) { return 0, errors.New("unavailable") })
	assert.NoError(t, rl.Wait(context.Background()))
}

func TestGetResourceUsage_Snapshot(t *testing.T) {
	snap := GetResourceUsage().Snapshot()
	require.NotNil(t, snap)
	assert.Greater(t, snap.Goroutines, 0)
	assert.GreaterOrEqual(t, snap.ProcessAllocMB, 0.0)
}
