package rslimiter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aleister1102/mirrorinc/internal/common"
	"github.com/aleister1102/mirrorinc/internal/config"
)

// MemorySampler returns the system memory used, in percent (0-100).
type MemorySampler func() (float64, error)

func systemMemoryPercent() (float64, error) {
	vmStat, err := mem.VirtualMemory()
	if err != nil {
		return 0, fmt.Errorf("failed to get system memory stats: %w", err)
	}
	return vmStat.UsedPercent, nil
}

// ResourceLimiter holds back new work while system memory is above its threshold
type ResourceLimiter struct {
	config  config.ResourceLimiterConfig
	logger  zerolog.Logger
	sampler MemorySampler

	mu     sync.Mutex
	waits  int
	waited time.Duration
}

// NewResourceLimiter creates a new resource limiter
func NewResourceLimiter(cfg config.ResourceLimiterConfig, logger zerolog.Logger) *ResourceLimiter {
	// Apply default values for any zero-value fields in the config
	if cfg.SystemMemThreshold == 0 {
		cfg.SystemMemThreshold = 0.9
	}
	if cfg.CheckIntervalMs == 0 {
		cfg.CheckIntervalMs = 500
	}
	if cfg.MaxWaitSecs == 0 {
		cfg.MaxWaitSecs = 30
	}

	return &ResourceLimiter{
		config:  cfg,
		logger:  logger.With().Str("component", "ResourceLimiter").Logger(),
		sampler: systemMemoryPercent,
	}
}

// WithSampler replaces the memory probe.
func (rl *ResourceLimiter) WithSampler(sampler MemorySampler) *ResourceLimiter {
	rl.sampler = sampler
	return rl
}

// CheckSystemMemoryLimit checks if system memory usage exceeds threshold
func (rl *ResourceLimiter) CheckSystemMemoryLimit() (bool, float64, error) {
	usedPercent, err := rl.sampler()
	if err != nil {
		return false, 0, err
	}
	return usedPercent/100.0 > rl.config.SystemMemThreshold, usedPercent, nil
}

// Wait blocks until system memory is below the threshold. It gives up after
// MaxWaitSecs and lets the caller proceed. Only context cancellation is an error.
func (rl *ResourceLimiter) Wait(ctx context.Context) error {
	if !rl.config.Enabled {
		return nil
	}

	interval := time.Duration(rl.config.CheckIntervalMs) * time.Millisecond
	deadline := time.Now().Add(time.Duration(rl.config.MaxWaitSecs) * time.Second)
	start := time.Now()
	logged := false

	for {
		exceeded, usedPercent, err := rl.CheckSystemMemoryLimit()
		if err != nil {
			rl.logger.Debug().Err(err).Msg("Failed to check system memory limit")
			return nil
		}
		if !exceeded {
			if logged {
				rl.recordWait(time.Since(start))
			}
			return nil
		}
		if !logged {
			rl.logger.Warn().
				Float64("used_percent", usedPercent).
				Float64("threshold_percent", rl.config.SystemMemThreshold*100).
				Msg("System memory usage exceeded threshold, holding fetches")
			logged = true
		}
		if time.Now().After(deadline) {
			rl.recordWait(time.Since(start))
			rl.logger.Warn().Dur("waited", time.Since(start)).Msg("Memory wait limit reached, continuing")
			return nil
		}
		if err := common.WaitWithCancellation(ctx, interval); err != nil {
			return err
		}
	}
}

func (rl *ResourceLimiter) recordWait(d time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.waits++
	rl.waited += d
}

// WaitStats returns how many times fetches were held back and for how long in total.
func (rl *ResourceLimiter) WaitStats() (int, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.waits, rl.waited
}
