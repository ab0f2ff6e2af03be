package progress

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestProgressInfo_GetPercentage(t *testing.T) {
	tests := []struct {
		name     string
		current  int64
		total    int64
		expected float64
	}{
		{"Zero total", 5, 0, 0.0},
		{"Half", 5, 10, 50.0},
		{"Complete", 10, 10, 100.0},
		{"Over", 15, 10, 100.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pi := &ProgressInfo{Current: tt.current, Total: tt.total}
			assert.Equal(t, tt.expected, pi.GetPercentage())
		})
	}
}

func TestProgressInfo_UpdateETA(t *testing.T) {
	pi := &ProgressInfo{
		Status:    ProgressStatusRunning,
		Current:   5,
		Total:     10,
		StartTime: time.Now().Add(-5 * time.Second),
	}
	pi.UpdateETA()
	assert.InDelta(t, 5*time.Second, pi.EstimatedETA, float64(500*time.Millisecond))

	pi.Status = ProgressStatusComplete
	pi.UpdateETA()
	assert.Equal(t, time.Duration(0), pi.EstimatedETA)
}

func TestTracker_LogsOneLinePerBatch(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewTracker(zerolog.New(&buf), 2)

	tracker.Start("fetch", 5)
	for i := 0; i < 5; i++ {
		tracker.Increment(i != 3)
	}
	tracker.Finish(false)

	out := buf.String()
	assert.Equal(t, 3, strings.Count(out, "Batch completed"))
	assert.Equal(t, 1, strings.Count(out, "Asset fetching finished"))

	info := tracker.Info()
	assert.Equal(t, int64(5), info.Current)
	assert.Equal(t, int64(4), info.Succeeded)
	assert.Equal(t, int64(1), info.Failed)
	assert.Equal(t, ProgressStatusComplete, info.Status)
}

func TestTracker_StagesAccumulateAndConcurrentIncrements(t *testing.T) {
	tracker := NewTracker(zerolog.Nop(), 0)
	tracker.Start("wave 0", 50)
	tracker.Start("wave 1", 50)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Increment(true)
		}()
	}
	wg.Wait()
	tracker.Finish(true)

	info := tracker.Info()
	assert.Equal(t, int64(100), info.Total)
	assert.Equal(t, int64(100), info.Current)
	assert.Equal(t, ProgressStatusCancelled, info.Status)
}
