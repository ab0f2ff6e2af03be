package fetcher

import (
	"math"
	"math/rand"
	"time"

	"github.com/aleister1102/mirrorinc/internal/config"
)

// RetryPolicy computes exponential backoff between attempts.
type RetryPolicy struct {
	MaxAttempts  int
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	EnableJitter bool
}

// NewRetryPolicy builds a policy from the fetcher configuration.
func NewRetryPolicy(cfg config.FetcherConfig) RetryPolicy {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return RetryPolicy{
		MaxAttempts:  maxAttempts,
		BaseDelay:    time.Duration(cfg.BaseDelayMs) * time.Millisecond,
		MaxDelay:     time.Duration(cfg.MaxDelayMs) * time.Millisecond,
		EnableJitter: cfg.EnableJitter,
	}
}

// CalculateDelay returns the wait after the given 0-based failed attempt:
// BaseDelay * 2^attempt, capped at MaxDelay, plus up to 10% jitter.
func (rp RetryPolicy) CalculateDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := rp.BaseDelay * time.Duration(math.Pow(2, float64(attempt)))
	if rp.MaxDelay > 0 && delay > rp.MaxDelay {
		delay = rp.MaxDelay
	}

	if rp.EnableJitter {
		if spread := int(delay.Milliseconds() / 10); spread > 0 {
			delay += time.Duration(rand.Intn(spread)) * time.Millisecond
		}
	}

	return delay
}
