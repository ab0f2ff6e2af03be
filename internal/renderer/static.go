package renderer

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/rs/zerolog"

	"github.com/aleister1102/mirrorinc/internal/common"
	"github.com/aleister1102/mirrorinc/internal/config"
	"github.com/aleister1102/mirrorinc/internal/httpclient"
	"github.com/aleister1102/mirrorinc/internal/models"
)

const staticMaxBodySize = 50 * 1024 * 1024

// StaticRenderer fetches the target markup without executing scripts.
type StaticRenderer struct {
	cfg     config.RendererConfig
	timeout time.Duration
	logger  zerolog.Logger
}

// NewStaticRenderer creates a renderer for engine "http".
func NewStaticRenderer(cfg config.RendererConfig, logger zerolog.Logger) *StaticRenderer {
	timeoutSecs := cfg.HTTPTimeoutSecs
	if timeoutSecs <= 0 {
		timeoutSecs = config.DefaultRendererHTTPTimeoutSecs
	}
	return &StaticRenderer{
		cfg:     cfg,
		timeout: time.Duration(timeoutSecs) * time.Second,
		logger:  logger.With().Str("component", "StaticRenderer").Logger(),
	}
}

func (r *StaticRenderer) newCollector(ctx context.Context) *colly.Collector {
	options := []colly.CollectorOption{
		colly.IgnoreRobotsTxt(),
		colly.MaxDepth(1),
		colly.MaxBodySize(staticMaxBodySize),
		colly.StdlibContext(ctx),
	}
	if r.cfg.UserAgent != "" {
		options = append(options, colly.UserAgent(r.cfg.UserAgent))
	}

	collector := colly.NewCollector(options...)
	client, err := httpclient.NewHTTPClientBuilder(r.logger).
		WithTimeout(r.timeout).
		WithInsecureSkipVerify(r.cfg.InsecureSkipTLSVerify).
		WithFollowRedirects(true).
		WithHTTP2(true).
		Build()
	if err != nil {
		r.logger.Warn().Err(err).Msg("Falling back to the default collector transport")
	} else {
		collector.SetClient(client.GetHTTPClient())
	}
	collector.SetRequestTimeout(r.timeout)
	return collector
}

// Render performs a single GET of target. Redirects are followed.
func (r *StaticRenderer) Render(ctx context.Context, target string) (*RenderedPage, error) {
	collector := r.newCollector(ctx)

	var (
		rendered *RenderedPage
		failure  error
	)
	collector.OnResponse(func(resp *colly.Response) {
		finalURL := resp.Request.URL.String()
		rendered = &RenderedPage{
			Snapshot:   models.DocumentSnapshot{URL: finalURL, HTML: string(resp.Body)},
			FinalURL:   finalURL,
			Title:      documentTitle(resp.Body),
			StatusCode: resp.StatusCode,
		}
	})
	collector.OnError(func(resp *colly.Response, err error) {
		if resp != nil && resp.StatusCode >= 400 {
			failure = common.NewHTTPErrorWithURL(resp.StatusCode, err.Error(), target)
			return
		}
		failure = err
	})

	visitErr := collector.Visit(target)
	collector.Wait()

	switch {
	case failure != nil:
		return nil, navigationError(target, failure)
	case visitErr != nil:
		return nil, navigationError(target, visitErr)
	case rendered == nil:
		return nil, navigationError(target, common.ErrNotFound)
	}

	r.logger.Info().
		Str("url", target).
		Str("final_url", rendered.FinalURL).
		Int("status_code", rendered.StatusCode).
		Int("html_bytes", len(rendered.Snapshot.HTML)).
		Msg("Page fetched")
	return rendered, nil
}

// Close is a no-op; each Render uses its own collector.
func (r *StaticRenderer) Close() error {
	return nil
}

func documentTitle(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
