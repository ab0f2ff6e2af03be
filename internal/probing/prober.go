// Package probing runs an httpx preflight probe against the target before
// the page is rendered.
package probing

import (
	"context"
	"sync"

	"github.com/projectdiscovery/httpx/runner"
	"github.com/rs/zerolog"

	"github.com/aleister1102/mirrorinc/internal/config"
	"github.com/aleister1102/mirrorinc/internal/models"
)

// Prober probes a single target URL.
type Prober struct {
	cfg       config.ProbeConfig
	userAgent string
	logger    zerolog.Logger
}

// NewProber creates a prober.
func NewProber(cfg config.ProbeConfig, userAgent string, logger zerolog.Logger) *Prober {
	return &Prober{
		cfg:       cfg,
		userAgent: userAgent,
		logger:    logger.With().Str("component", "Prober").Logger(),
	}
}

// Probe never fails the run: any problem is recorded in the summary's Error field.
func (p *Prober) Probe(ctx context.Context, target string) *models.ProbeSummary {
	var (
		mu     sync.Mutex
		result *models.ProbeSummary
	)
	options := buildOptions(p.cfg, target, p.userAgent, func(res runner.Result) {
		mu.Lock()
		defer mu.Unlock()
		if result == nil {
			result = mapResult(res, target)
		}
	})

	httpxRunner, err := runner.New(options)
	if err != nil {
		p.logger.Warn().Err(err).Str("url", target).Msg("Failed to create httpx runner")
		return failedSummary(target, err.Error())
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		httpxRunner.RunEnumeration()
	}()

	select {
	case <-done:
		httpxRunner.Close()
	case <-ctx.Done():
		// RunEnumeration has no cancellation hook; the runner is closed once it returns.
		go func() {
			<-done
			httpxRunner.Close()
		}()
		p.logger.Warn().Str("url", target).Msg("Probe cancelled")
		return failedSummary(target, ctx.Err().Error())
	}

	mu.Lock()
	defer mu.Unlock()
	if result == nil {
		p.logger.Warn().Str("url", target).Msg("Probe returned no result")
		return failedSummary(target, "no response")
	}

	event := p.logger.Info()
	if result.Error != "" {
		event = p.logger.Warn().Str("error", result.Error)
	}
	event.Str("url", target).
		Int("status_code", result.StatusCode).
		Str("final_url", result.FinalURL).
		Str("title", result.Title).
		Strs("technologies", result.Technologies).
		Msg("Probe completed")
	return result
}
