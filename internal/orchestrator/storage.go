package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/aleister1102/mirrorinc/internal/common"
	"github.com/aleister1102/mirrorinc/internal/datastore"
	"github.com/aleister1102/mirrorinc/internal/fetcher"
	"github.com/aleister1102/mirrorinc/internal/history"
	"github.com/aleister1102/mirrorinc/internal/models"
	"github.com/aleister1102/mirrorinc/internal/urlhandler"
)

// recordHistory compares this run with the previous run of the same URL and
// stores it. History problems are logged and never fail the run.
func (o *Orchestrator) recordHistory(ctx context.Context, runID string, startedAt time.Time, report *models.ExtractionReport, document string, downloaded []models.DownloadedAsset, logger zerolog.Logger) *models.RunComparison {
	store, err := history.NewStore(o.cfg.StorageConfig.HistoryDBPath, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("History unavailable, skipping run comparison")
		return nil
	}
	defer store.Close()

	key, err := urlhandler.NormalizeURL(report.TargetURL)
	if err != nil {
		key = report.TargetURL
	}
	assetURLs := make([]string, 0, len(downloaded))
	for _, a := range downloaded {
		assetURLs = append(assetURLs, a.SourceURL)
	}

	var comparison *models.RunComparison
	previous, err := store.LatestRun(ctx, key, runID)
	switch {
	case err == nil:
		comparison = history.NewComparer().Compare(previous, document, assetURLs)
		logger.Info().
			Str("previous_run_id", previous.RunID).
			Bool("changed", comparison.Changed).
			Int("lines_added", comparison.LinesAdded).
			Int("lines_deleted", comparison.LinesDeleted).
			Msg("Compared with previous run")
	case errors.Is(err, common.ErrNotFound):
		logger.Debug().Str("url", key).Msg("First recorded run of this URL")
	default:
		logger.Warn().Err(err).Msg("Failed to load previous run")
	}

	status := history.StatusCompleted
	if report.Partial {
		status = history.StatusPartial
	}
	run := history.Run{
		RunID:       runID,
		TargetURL:   key,
		FinalURL:    report.FinalURL,
		StartedAt:   startedAt,
		CompletedAt: o.now(),
		Status:      status,
		OutputDir:   report.OutputDir,
		Downloaded:  report.Downloaded,
		Failed:      report.Failed,
		TotalBytes:  report.TotalBytes,
		Document:    document,
		AssetURLs:   assetURLs,
	}
	if err := store.RecordRun(ctx, run); err != nil {
		logger.Warn().Err(err).Msg("Failed to record run history")
	}
	return comparison
}

// writeManifest stores the parquet asset manifest. Failures are logged only.
func (o *Orchestrator) writeManifest(ctx context.Context, runID, target string, result *fetcher.PipelineResult, logger zerolog.Logger) {
	writer, err := datastore.NewParquetWriter(&o.cfg.StorageConfig, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("Asset manifest disabled")
		return
	}
	written, err := writer.WriteManifest(ctx, datastore.ManifestRequest{
		RunID:      runID,
		TargetURL:  target,
		Downloaded: result.Downloaded,
		Failures:   result.Failures,
		CapturedAt: o.now(),
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to write asset manifest")
		return
	}
	logger.Debug().Str("path", written.FilePath).Int("records", written.RecordsWritten).Msg("Asset manifest written")
}
