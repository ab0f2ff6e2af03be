package orchestrator

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aleister1102/mirrorinc/internal/common"
	"github.com/aleister1102/mirrorinc/internal/config"
	"github.com/aleister1102/mirrorinc/internal/datastore"
	"github.com/aleister1102/mirrorinc/internal/fetcher"
	"github.com/aleister1102/mirrorinc/internal/httpclient"
	"github.com/aleister1102/mirrorinc/internal/progress"
	"github.com/aleister1102/mirrorinc/internal/renderer"
	"github.com/aleister1102/mirrorinc/internal/rewriter"
	"github.com/aleister1102/mirrorinc/internal/rslimiter"
)

// pageFetcher is implemented by renderers that can fetch through the loaded page.
type pageFetcher interface {
	FetchInPage(ctx context.Context, url string) (*fetcher.FetchResponse, error)
}

// fetchFunc picks the asset transport from fetcher_config.via:
// "page" fetches through the page only, "http" uses the HTTP client only and
// "auto" tries the page first when the renderer supports it.
func (o *Orchestrator) fetchFunc(pageRenderer renderer.PageRenderer, logger zerolog.Logger) (fetcher.FetchFunc, error) {
	cfg := o.cfg.FetcherConfig
	inPage, hasPage := pageRenderer.(pageFetcher)

	if cfg.Via == config.FetchViaPage {
		if !hasPage {
			return nil, common.NewValidationError("fetcher_config.via", cfg.Via, "page fetching needs the browser engine")
		}
		return inPage.FetchInPage, nil
	}

	client, err := o.httpClient(logger)
	if err != nil {
		return nil, err
	}
	httpFetch := fetcher.HTTPFetchFunc(client)
	if cfg.Via == config.FetchViaHTTP || !hasPage {
		return httpFetch, nil
	}
	return fetcher.Chain(inPage.FetchInPage, httpFetch), nil
}

func (o *Orchestrator) httpClient(logger zerolog.Logger) (*httpclient.HTTPClient, error) {
	cfg := o.cfg.FetcherConfig
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = o.cfg.RendererConfig.UserAgent
	}
	client, err := httpclient.NewHTTPClientBuilder(logger).
		WithTimeout(time.Duration(cfg.AttemptTimeoutSecs) * time.Second).
		WithUserAgent(userAgent).
		WithProxy(cfg.Proxy).
		WithInsecureSkipVerify(cfg.InsecureSkipVerify).
		WithFollowRedirects(true).
		WithMaxContentSize(cfg.MaxAssetBytes).
		WithHTTP2(true).
		Build()
	if err != nil {
		return nil, common.WrapError(err, "failed to create asset HTTP client")
	}
	return client, nil
}

// newPipeline wires fetcher, namer, stylesheet transform, memory gate and
// progress tracker for one run.
func (o *Orchestrator) newPipeline(tree *datastore.OutputTree, logger zerolog.Logger) (*fetcher.Pipeline, *progress.Tracker) {
	merged := o.cfg.OutputConfig.Mode == config.OutputModeMerged

	f := fetcher.NewFetcher(o.cfg.FetcherConfig, logger)
	if o.cfg.ResourceLimiterConfig.Enabled {
		f.WithGate(rslimiter.NewResourceLimiter(o.cfg.ResourceLimiterConfig, logger))
	}

	tracker := progress.NewTracker(logger, 0)
	pipeline := fetcher.NewPipeline(f, fetcher.NewNamer(o.cfg.OutputConfig.Mode, logger), tree, o.cfg.FetcherConfig, logger).
		WithBodyTransform(rewriter.NewCSSRewriter(logger).Transform(merged)).
		WithInlineBlocksKept(!o.cfg.RewriterConfig.ExternalizeInline).
		WithProgress(tracker)
	return pipeline, tracker
}
