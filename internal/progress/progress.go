package progress

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultBatchSize is the number of completions between two progress lines
// when the total is unknown or small.
const DefaultBatchSize = 10

// Tracker counts completed asset fetches and logs one line per finished batch.
// It is safe for concurrent use.
type Tracker struct {
	mu        sync.Mutex
	info      ProgressInfo
	batchSize int64
	logger    zerolog.Logger
}

// NewTracker creates a tracker. A batchSize of 0 picks roughly a tenth of total.
func NewTracker(logger zerolog.Logger, batchSize int) *Tracker {
	return &Tracker{
		batchSize: int64(batchSize),
		logger:    logger.With().Str("component", "Progress").Logger(),
		info:      ProgressInfo{Status: ProgressStatusIdle},
	}
}

// Start begins a stage with a known number of items. It may be called again
// for a later stage; counters carry over and the total grows.
func (t *Tracker) Start(stage string, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	if t.info.Status != ProgressStatusRunning {
		t.info.StartTime = now
		t.info.Status = ProgressStatusRunning
	}
	t.info.Stage = stage
	t.info.Total += int64(total)
	t.info.LastUpdateTime = now

	t.logger.Info().
		Str("stage", stage).
		Int("items", total).
		Int64("total", t.info.Total).
		Msg("Progress stage started")
}

// Increment records one finished item.
func (t *Tracker) Increment(success bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.info.Current++
	if success {
		t.info.Succeeded++
	} else {
		t.info.Failed++
	}
	t.info.LastUpdateTime = time.Now()
	t.info.UpdateETA()

	if t.info.Current%t.effectiveBatchSize() == 0 || t.info.Current == t.info.Total {
		t.logger.Info().
			Str("stage", t.info.Stage).
			Int64("completed", t.info.Current).
			Int64("total", t.info.Total).
			Int64("succeeded", t.info.Succeeded).
			Int64("failed", t.info.Failed).
			Str("percent", formatPercent(t.info.GetPercentage())).
			Dur("eta", t.info.EstimatedETA).
			Msg("Batch completed")
	}
}

func (t *Tracker) effectiveBatchSize() int64 {
	if t.batchSize > 0 {
		return t.batchSize
	}
	if size := t.info.Total / 10; size > DefaultBatchSize {
		return size
	}
	return DefaultBatchSize
}

// Finish logs the final line and marks the tracker complete or cancelled.
func (t *Tracker) Finish(cancelled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.info.Status = ProgressStatusComplete
	if cancelled {
		t.info.Status = ProgressStatusCancelled
	}
	t.info.EstimatedETA = 0
	t.info.LastUpdateTime = time.Now()

	t.logger.Info().
		Str("status", string(t.info.Status)).
		Int64("completed", t.info.Current).
		Int64("total", t.info.Total).
		Int64("succeeded", t.info.Succeeded).
		Int64("failed", t.info.Failed).
		Dur("elapsed", time.Since(t.info.StartTime)).
		Msg("Asset fetching finished")
}

// Info returns a copy of the current state.
func (t *Tracker) Info() ProgressInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.info
}
