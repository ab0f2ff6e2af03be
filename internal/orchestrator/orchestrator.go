// Package orchestrator drives one extraction run from target URL to zip archive.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aleister1102/mirrorinc/internal/catalog"
	"github.com/aleister1102/mirrorinc/internal/common"
	"github.com/aleister1102/mirrorinc/internal/config"
	"github.com/aleister1102/mirrorinc/internal/datastore"
	"github.com/aleister1102/mirrorinc/internal/fetcher"
	"github.com/aleister1102/mirrorinc/internal/history"
	"github.com/aleister1102/mirrorinc/internal/models"
	"github.com/aleister1102/mirrorinc/internal/probing"
	"github.com/aleister1102/mirrorinc/internal/renderer"
	"github.com/aleister1102/mirrorinc/internal/reporter"
	"github.com/aleister1102/mirrorinc/internal/rewriter"
	"github.com/aleister1102/mirrorinc/internal/rslimiter"
	"github.com/aleister1102/mirrorinc/internal/urlhandler"
)

// RendererFactory creates the page renderer for a run.
type RendererFactory func(cfg config.RendererConfig, opts renderer.Options, logger zerolog.Logger) (renderer.PageRenderer, error)

// Orchestrator runs extractions with one configuration.
type Orchestrator struct {
	cfg         *config.GlobalConfig
	logger      zerolog.Logger
	confirm     datastore.ConfirmFunc
	newRenderer RendererFactory
	now         func() time.Time
	runID       string
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(cfg *config.GlobalConfig, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:         cfg,
		logger:      logger.With().Str("component", "Orchestrator").Logger(),
		newRenderer: renderer.New,
		now:         time.Now,
	}
}

// WithConfirm sets the prompt used when the output directory is not empty.
func (o *Orchestrator) WithConfirm(confirm datastore.ConfirmFunc) *Orchestrator {
	o.confirm = confirm
	return o
}

// WithRendererFactory replaces the renderer constructor.
func (o *Orchestrator) WithRendererFactory(factory RendererFactory) *Orchestrator {
	o.newRenderer = factory
	return o
}

// WithRunID fixes the run ID instead of generating one per Run.
func (o *Orchestrator) WithRunID(runID string) *Orchestrator {
	o.runID = runID
	return o
}

// DefaultOutputDir names the output directory <host>_<timestamp>.
func DefaultOutputDir(target *url.URL, at time.Time) string {
	host := strings.ReplaceAll(target.Hostname(), ".", "_")
	return urlhandler.SanitizeFilename(host) + "_" + at.Format("20060102_150405")
}

// Run extracts target. Asset failures and a hit deadline still return a
// report with a nil error; configuration, render and filesystem problems do not.
func (o *Orchestrator) Run(ctx context.Context, target string) (*models.ExtractionReport, error) {
	startedAt := o.now()

	targetURL, err := urlhandler.ValidateTargetURL(target)
	if err != nil {
		return nil, common.NewValidationError("url", target, err.Error())
	}
	target = targetURL.String()

	runID := o.runID
	if runID == "" {
		runID = history.NewRunID()
	}
	logger := o.logger.With().Str("run_id", runID).Logger()

	outputDir := o.cfg.OutputConfig.OutputDir
	if outputDir == "" {
		outputDir = DefaultOutputDir(targetURL, startedAt)
	}
	tree := datastore.NewOutputTree(outputDir, logger)
	if err := tree.Prepare(o.cfg.OutputConfig.Force, o.confirm); err != nil {
		return nil, err
	}

	report := models.NewExtractionReport(runID, target, startedAt)
	report.Mode = o.cfg.OutputConfig.Mode
	report.Engine = o.cfg.RendererConfig.Engine
	report.OutputDir = tree.Root()

	logger.Info().
		Str("url", target).
		Str("output_dir", tree.Root()).
		Str("mode", report.Mode).
		Str("engine", report.Engine).
		Msg("Starting extraction")

	if o.cfg.ProbeConfig.Enabled {
		report.Probe = probing.NewProber(o.cfg.ProbeConfig, o.cfg.RendererConfig.UserAgent, logger).Probe(ctx, target)
	}

	pageRenderer, err := o.newRenderer(o.cfg.RendererConfig, renderer.Options{
		Screenshot:          o.cfg.OutputConfig.Screenshot,
		MaxComputedElements: o.cfg.CatalogConfig.MaxComputedElements,
	}, logger)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := pageRenderer.Close(); closeErr != nil {
			logger.Warn().Err(closeErr).Msg("Failed to close renderer")
		}
	}()

	page, err := pageRenderer.Render(ctx, target)
	if err != nil {
		logger.Error().Err(err).Str("url", target).Msg("Render failed")
		return nil, err
	}
	report.FinalURL = page.FinalURL
	report.Title = page.Title

	cat, err := catalog.NewBuilder(o.cfg.CatalogConfig, logger).Build(page.Snapshot)
	if err != nil {
		return nil, common.WrapError(err, "failed to build asset catalog")
	}

	fetchFn, err := o.fetchFunc(pageRenderer, logger)
	if err != nil {
		return nil, err
	}
	result, err := o.fetch(ctx, tree, cat, fetchFn, logger)
	if err != nil {
		return nil, err
	}
	// Stylesheet dependency waves grow the catalog during the fetch.
	report.Catalogued = cat.Len()
	report.Partial = result.Partial
	report.RecordDownloads(result.Downloaded)
	report.RecordFailures(result.Failures)

	// An interrupted run still persists what it has.
	ctx = context.WithoutCancel(ctx)

	rw := rewriter.NewRewriter(o.cfg.RewriterConfig, o.cfg.OutputConfig.Mode, logger)
	document, err := rw.Rewrite(page.Snapshot.HTML, page.Snapshot.URL, result.Mapping)
	if err != nil {
		return nil, common.WrapError(err, "failed to rewrite document")
	}
	if err := tree.Write(reporter.IndexFileName, []byte(document)); err != nil {
		return nil, err
	}

	if len(page.Screenshot) > 0 {
		if err := tree.Write(reporter.PreviewFileName, page.Screenshot); err != nil {
			return nil, err
		}
		report.Screenshot = reporter.PreviewFileName
	}

	report.Resources = rslimiter.GetResourceUsage().Snapshot()
	if o.cfg.StorageConfig.EnableHistory {
		report.PreviousRun = o.recordHistory(ctx, runID, startedAt, report, document, result.Downloaded, logger)
	}

	report.Complete(startedAt, o.now())
	if err := reporter.NewJSONReporter(logger).Write(tree, report); err != nil {
		return nil, err
	}

	if o.cfg.StorageConfig.EnableManifest {
		o.writeManifest(ctx, runID, target, result, logger)
	}

	zipPath := ""
	if o.cfg.OutputConfig.Zip {
		archive, err := reporter.NewArchiver(logger).Archive(ctx, tree.Root(), reporter.ArchivePath(tree.Root()))
		if err != nil {
			return nil, err
		}
		zipPath = archive.Path
	}

	o.logSummary(logger, report, zipPath)
	return report, nil
}

// fetch runs the pipeline under the extraction deadline.
func (o *Orchestrator) fetch(ctx context.Context, tree *datastore.OutputTree, cat *catalog.Catalog, fetchFn fetcher.FetchFunc, logger zerolog.Logger) (*fetcher.PipelineResult, error) {
	timeout := time.Duration(o.cfg.OutputConfig.ExtractionTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = time.Duration(config.DefaultOutputExtractionTimeoutSecs) * time.Second
	}
	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pipeline, tracker := o.newPipeline(tree, logger)
	result, err := pipeline.Run(fetchCtx, cat, fetchFn)
	tracker.Finish(result != nil && result.Partial)
	if err != nil {
		logger.Error().Err(err).Msg("Fetch pipeline failed")
		return nil, err
	}
	if result.Partial {
		if errors.Is(fetchCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			logger.Warn().Dur("timeout", timeout).Msg("Extraction deadline reached, keeping partial result")
		} else {
			logger.Warn().Msg("Extraction interrupted, keeping partial result")
		}
	}
	return result, nil
}

func (o *Orchestrator) logSummary(logger zerolog.Logger, report *models.ExtractionReport, zipPath string) {
	event := logger.Info()
	if report.Partial || report.Failed > 0 {
		event = logger.Warn()
	}
	abs, err := filepath.Abs(report.OutputDir)
	if err != nil {
		abs = report.OutputDir
	}
	event.
		Str("url", report.TargetURL).
		Int("catalogued", report.Catalogued).
		Int("downloaded", report.Downloaded).
		Int("failed", report.Failed).
		Float64("total_size_mb", report.TotalSizeMB).
		Bool("partial", report.Partial).
		Str("output_dir", abs).
		Str("zip", zipPath).
		Float64("duration_seconds", report.DurationSeconds).
		Msg(fmt.Sprintf("Extraction finished: %d downloaded, %d failed", report.Downloaded, report.Failed))
}
