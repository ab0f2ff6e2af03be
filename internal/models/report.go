package models

import (
	"math"
	"sort"
	"time"
)

const bytesPerMB = 1024 * 1024

// ExtractionReport is written once per run as extraction_report.json.
type ExtractionReport struct {
	ExtractionTime  string            `json:"extraction_time"`
	Timestamp       string            `json:"timestamp"`
	TargetURL       string            `json:"target_url"`
	URL             string            `json:"url"`
	FinalURL        string            `json:"final_url,omitempty"`
	Title           string            `json:"title,omitempty"`
	RunID           string            `json:"run_id"`
	Mode            string            `json:"mode"`
	Engine          string            `json:"engine"`
	OutputDir       string            `json:"output_dir"`
	Assets          map[AssetKind]int `json:"assets"`
	Catalogued      int               `json:"catalogued"`
	Downloaded      int               `json:"downloaded"`
	Failed          int               `json:"failed"`
	Failures        []FetchFailure    `json:"failures"`
	TotalBytes      int64             `json:"total_bytes"`
	TotalSizeMB     float64           `json:"total_size_mb"`
	Partial         bool              `json:"partial"`
	DurationSeconds float64           `json:"duration_seconds"`
	Screenshot      string            `json:"screenshot,omitempty"`
	Probe           *ProbeSummary     `json:"probe,omitempty"`
	PreviousRun     *RunComparison    `json:"previous_run,omitempty"`
	Resources       *ResourceSnapshot `json:"resources,omitempty"`
}

// NewExtractionReport creates a report with every kind counter present.
func NewExtractionReport(runID, targetURL string, startedAt time.Time) *ExtractionReport {
	assets := make(map[AssetKind]int, len(AllAssetKinds))
	for _, k := range AllAssetKinds {
		assets[k] = 0
	}
	return &ExtractionReport{
		ExtractionTime: startedAt.UTC().Format(time.RFC3339),
		TargetURL:      targetURL,
		URL:            targetURL,
		RunID:          runID,
		Assets:         assets,
		Failures:       []FetchFailure{},
	}
}

// RecordDownloads adds the downloaded assets to the per-kind counters.
// Counting is order independent.
func (r *ExtractionReport) RecordDownloads(assets []DownloadedAsset) {
	for _, a := range assets {
		r.Assets[a.Kind]++
		r.TotalBytes += a.ByteLength
	}
	r.Downloaded += len(assets)
	r.TotalSizeMB = math.Round(float64(r.TotalBytes)/bytesPerMB*100) / 100
}

// RecordFailures stores failures sorted by URL.
func (r *ExtractionReport) RecordFailures(failures []FetchFailure) {
	sorted := make([]FetchFailure, len(failures))
	copy(sorted, failures)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SourceURL < sorted[j].SourceURL
	})
	r.Failures = append(r.Failures, sorted...)
	r.Failed = len(r.Failures)
}

// Complete stamps the completion time and duration.
func (r *ExtractionReport) Complete(startedAt, completedAt time.Time) {
	r.Timestamp = completedAt.UTC().Format(time.RFC3339)
	r.DurationSeconds = math.Round(completedAt.Sub(startedAt).Seconds()*100) / 100
}

// RunComparison summarises how index.html changed since the previous run of the same URL.
type RunComparison struct {
	PreviousRunID  string `json:"previous_run_id"`
	PreviousTime   string `json:"previous_time"`
	Changed        bool   `json:"changed"`
	LinesAdded     int    `json:"lines_added"`
	LinesDeleted   int    `json:"lines_deleted"`
	AssetsAdded    int    `json:"assets_added"`
	AssetsRemoved  int    `json:"assets_removed"`
	PreviousAssets int    `json:"previous_assets"`
}

// ResourceSnapshot captures host resource usage at the end of a run.
type ResourceSnapshot struct {
	SystemMemUsedPercent float64 `json:"system_mem_used_percent"`
	CPUUsagePercent      float64 `json:"cpu_usage_percent"`
	ProcessAllocMB       float64 `json:"process_alloc_mb"`
	Goroutines           int     `json:"goroutines"`
}
