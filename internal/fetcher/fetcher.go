package fetcher

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/aleister1102/mirrorinc/internal/common"
	"github.com/aleister1102/mirrorinc/internal/config"
	"github.com/aleister1102/mirrorinc/internal/models"
)

// Gate is consulted before every attempt; it may block while the host is under pressure.
type Gate interface {
	Wait(ctx context.Context) error
}

// ProgressReporter receives one call per finished entry.
type ProgressReporter interface {
	Start(stage string, total int)
	Increment(success bool)
}

// AssetResult is the outcome for one catalog entry.
type AssetResult struct {
	Entry       models.CatalogEntry
	Body        []byte
	ContentType string
	Attempts    int
	Failure     *models.FetchFailure
}

// OK reports whether the entry was downloaded.
func (r AssetResult) OK() bool {
	return r.Failure == nil
}

// FetchOutcome holds results in the order of the entries passed to FetchAll.
type FetchOutcome struct {
	Results   []AssetResult
	Abandoned int
}

// Failures returns the failed results in entry order.
func (o *FetchOutcome) Failures() []models.FetchFailure {
	var failures []models.FetchFailure
	for _, r := range o.Results {
		if r.Failure != nil {
			failures = append(failures, *r.Failure)
		}
	}
	return failures
}

// Fetcher downloads catalog entries with bounded concurrency and retries.
type Fetcher struct {
	cfg      config.FetcherConfig
	retry    RetryPolicy
	gate     Gate
	progress ProgressReporter
	logger   zerolog.Logger
}

// NewFetcher creates a fetcher.
func NewFetcher(cfg config.FetcherConfig, logger zerolog.Logger) *Fetcher {
	if cfg.MaxConcurrency < 1 {
		cfg.MaxConcurrency = config.DefaultFetcherMaxConcurrency
	}
	if cfg.AttemptTimeoutSecs < 1 {
		cfg.AttemptTimeoutSecs = config.DefaultFetcherAttemptTimeoutSecs
	}
	if cfg.MaxAssetBytes < 1 {
		cfg.MaxAssetBytes = config.DefaultFetcherMaxAssetBytes
	}
	return &Fetcher{
		cfg:    cfg,
		retry:  NewRetryPolicy(cfg),
		logger: logger.With().Str("component", "Fetcher").Logger(),
	}
}

// WithGate sets the resource gate.
func (f *Fetcher) WithGate(gate Gate) *Fetcher {
	f.gate = gate
	return f
}

// WithProgress sets the progress reporter.
func (f *Fetcher) WithProgress(progress ProgressReporter) *Fetcher {
	f.progress = progress
	return f
}

// FetchAll downloads every entry at most once. Per-entry failures are
// recorded, never returned. When ctx ends, unfinished entries are recorded
// as abandoned and finished results are kept.
func (f *Fetcher) FetchAll(ctx context.Context, entries []models.CatalogEntry, fn FetchFunc) *FetchOutcome {
	outcome := &FetchOutcome{Results: make([]AssetResult, len(entries))}
	if len(entries) == 0 {
		return outcome
	}

	finished := make([]bool, len(entries))
	g := new(errgroup.Group)
	g.SetLimit(f.cfg.MaxConcurrency)

	for i := range entries {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			result, done := f.fetchOne(ctx, entries[i], fn)
			outcome.Results[i] = result
			finished[i] = done
			if done && f.progress != nil {
				f.progress.Increment(result.OK())
			}
			return nil
		})
	}
	_ = g.Wait()

	for i, entry := range entries {
		if finished[i] {
			continue
		}
		outcome.Abandoned++
		attempts := outcome.Results[i].Attempts
		outcome.Results[i] = AssetResult{
			Entry:    entry,
			Attempts: attempts,
			Failure: &models.FetchFailure{
				SourceURL: entry.SourceURL,
				Kind:      entry.Kind,
				Reason:    AbandonedReason,
				Attempts:  attempts,
			},
		}
	}

	if outcome.Abandoned > 0 {
		f.logger.Warn().Int("abandoned", outcome.Abandoned).Msg("Deadline reached, unfinished assets abandoned")
	}
	return outcome
}

// fetchOne runs the retry loop for one entry. The second return value is
// false when the entry was abandoned because ctx ended.
func (f *Fetcher) fetchOne(ctx context.Context, entry models.CatalogEntry, fn FetchFunc) (AssetResult, bool) {
	result := AssetResult{Entry: entry}

	if entry.Kind.IsInline() {
		result.Body = []byte(entry.Content)
		result.ContentType = inlineContentType(entry.Kind)
		return result, true
	}

	var lastErr *FetchError
	for attempt := 0; attempt < f.retry.MaxAttempts; attempt++ {
		if f.gate != nil {
			if err := f.gate.Wait(ctx); err != nil {
				return result, false
			}
		}
		if ctx.Err() != nil {
			return result, false
		}

		result.Attempts = attempt + 1
		resp, err := f.attempt(ctx, entry.SourceURL, fn)
		if err == nil {
			result.Body = resp.Body
			result.ContentType = resp.ContentType
			f.logger.Debug().
				Str("url", entry.SourceURL).
				Int("attempt", result.Attempts).
				Int("bytes", len(resp.Body)).
				Msg("Asset fetched")
			return result, true
		}
		if ctx.Err() != nil {
			return result, false
		}

		lastErr = err
		if !err.Transient() || attempt == f.retry.MaxAttempts-1 {
			break
		}

		delay := f.retry.CalculateDelay(attempt)
		f.logger.Debug().
			Str("url", entry.SourceURL).
			Int("attempt", result.Attempts).
			Int("status_code", err.StatusCode).
			Dur("delay", delay).
			Str("reason", err.Describe()).
			Msg("Fetch attempt failed, retrying")
		if waitErr := common.WaitWithCancellation(ctx, delay); waitErr != nil {
			return result, false
		}
	}

	f.logger.Warn().
		Str("url", entry.SourceURL).
		Str("kind", string(entry.Kind)).
		Int("attempts", result.Attempts).
		Str("reason", lastErr.Describe()).
		Msg("Asset fetch failed")

	result.Failure = &models.FetchFailure{
		SourceURL: entry.SourceURL,
		Kind:      entry.Kind,
		Reason:    lastErr.Describe(),
		Attempts:  result.Attempts,
	}
	return result, true
}

func (f *Fetcher) attempt(ctx context.Context, rawURL string, fn FetchFunc) (*FetchResponse, *FetchError) {
	attemptCtx, cancel := context.WithTimeout(ctx, time.Duration(f.cfg.AttemptTimeoutSecs)*time.Second)
	defer cancel()

	resp, err := fn(attemptCtx, rawURL)
	if err != nil {
		return nil, AsFetchError(rawURL, err)
	}
	if resp == nil {
		return nil, &FetchError{URL: rawURL, Reason: "empty response"}
	}
	if resp.StatusCode >= 400 {
		return nil, AsFetchError(rawURL, common.NewHTTPErrorWithURL(resp.StatusCode, "", rawURL))
	}
	if int64(len(resp.Body)) > f.cfg.MaxAssetBytes {
		return nil, &FetchError{URL: rawURL, Reason: "response exceeds size limit", Permanent: true}
	}
	return resp, nil
}

func inlineContentType(kind models.AssetKind) string {
	if kind == models.KindInlineStyle {
		return "text/css"
	}
	return "application/javascript"
}
