package renderer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/rs/zerolog"

	"github.com/aleister1102/mirrorinc/internal/common"
	"github.com/aleister1102/mirrorinc/internal/config"
	"github.com/aleister1102/mirrorinc/internal/models"
)

// scrollSteps are the fractions of the page height visited to trigger lazy loading.
var scrollSteps = []float64{0.25, 0.5, 0.75, 1.0}

const maxInPageFetches = 6

// BrowserRenderer loads the target in headless Chromium. The page stays open
// after Render so assets can be fetched from inside it until Close.
type BrowserRenderer struct {
	cfg                 config.RendererConfig
	screenshot          bool
	maxComputedElements int
	logger              zerolog.Logger

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	fetchSem chan struct{}
}

// NewBrowserRenderer creates a browser renderer. The browser is launched on first Render.
func NewBrowserRenderer(cfg config.RendererConfig, logger zerolog.Logger) *BrowserRenderer {
	if cfg.WindowWidth <= 0 {
		cfg.WindowWidth = config.DefaultRendererWindowWidth
	}
	if cfg.WindowHeight <= 0 {
		cfg.WindowHeight = config.DefaultRendererWindowHeight
	}
	if cfg.PageLoadTimeoutSecs <= 0 {
		cfg.PageLoadTimeoutSecs = config.DefaultRendererPageLoadTimeout
	}
	if cfg.IdleTimeoutSecs <= 0 {
		cfg.IdleTimeoutSecs = config.DefaultRendererIdleTimeoutSecs
	}
	return &BrowserRenderer{
		cfg:                 cfg,
		maxComputedElements: config.DefaultCatalogMaxComputedElements,
		logger:              logger.With().Str("component", "BrowserRenderer").Logger(),
		fetchSem:            make(chan struct{}, maxInPageFetches),
	}
}

// WithScreenshot enables the full-page preview capture.
func (r *BrowserRenderer) WithScreenshot(enabled bool) *BrowserRenderer {
	r.screenshot = enabled
	return r
}

// WithMaxComputedElements bounds the computed-style scan.
func (r *BrowserRenderer) WithMaxComputedElements(n int) *BrowserRenderer {
	if n > 0 {
		r.maxComputedElements = n
	}
	return r
}

func (r *BrowserRenderer) start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser != nil {
		return nil
	}

	l := launcher.New().
		Headless(r.cfg.Headless).
		Set("no-sandbox").
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("disable-web-security").
		Set("disable-features", "VizDisplayCompositor").
		Set("no-first-run").
		Set("disable-default-apps").
		Set("disable-sync").
		Set("window-size", fmt.Sprintf("%d,%d", r.cfg.WindowWidth, r.cfg.WindowHeight))

	if r.cfg.BrowserPath != "" {
		l = l.Bin(r.cfg.BrowserPath)
	}
	if r.cfg.InsecureSkipTLSVerify {
		l = l.Set("ignore-certificate-errors")
	}
	for _, extra := range r.cfg.ExtraBrowserFlags {
		name, value, hasValue := strings.Cut(strings.TrimLeft(strings.TrimSpace(extra), "-"), "=")
		if name == "" {
			continue
		}
		if hasValue {
			l = l.Set(flags.Flag(name), value)
		} else {
			l = l.Set(flags.Flag(name))
		}
	}

	controlURL, err := l.Launch()
	if err != nil {
		return common.WrapError(err, "failed to launch browser")
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return common.WrapError(err, "failed to connect to browser")
	}

	r.launcher = l
	r.browser = browser
	r.logger.Info().Bool("headless", r.cfg.Headless).Bool("stealth", r.cfg.Stealth).Msg("Browser started")
	return nil
}

func (r *BrowserRenderer) newPage() (*rod.Page, error) {
	var (
		page *rod.Page
		err  error
	)
	if r.cfg.Stealth {
		page, err = stealth.Page(r.browser)
	} else {
		page, err = r.browser.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		return nil, common.WrapError(err, "failed to create page")
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             r.cfg.WindowWidth,
		Height:            r.cfg.WindowHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		r.logger.Warn().Err(err).Msg("Failed to set viewport")
	}

	if r.cfg.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: r.cfg.UserAgent}); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to set user agent")
		}
	}
	return page, nil
}

// Render navigates to target and captures the document once it settles.
func (r *BrowserRenderer) Render(ctx context.Context, target string) (*RenderedPage, error) {
	if err := r.start(); err != nil {
		return nil, err
	}

	page, err := r.newPage()
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	if r.page != nil {
		_ = r.page.Close()
	}
	r.page = page
	r.mu.Unlock()

	loadCtx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.PageLoadTimeoutSecs)*time.Second)
	defer cancel()

	if err := page.Context(loadCtx).Navigate(target); err != nil {
		return nil, navigationError(target, err)
	}
	if err := page.Context(loadCtx).WaitLoad(); err != nil {
		r.logger.Warn().Str("url", target).Err(err).Msg("Page load wait ended early, using current DOM")
	}
	if err := page.Context(loadCtx).WaitIdle(time.Duration(r.cfg.IdleTimeoutSecs) * time.Second); err != nil {
		r.logger.Warn().Str("url", target).Err(err).Msg("Page idle wait ended early, using current DOM")
	}

	if err := common.WaitWithCancellation(ctx, time.Duration(r.cfg.DelayMs)*time.Millisecond); err != nil {
		return nil, err
	}
	if r.cfg.ScrollForLazyLoad {
		if err := r.scroll(ctx, page); err != nil {
			return nil, err
		}
	}

	rendered := &RenderedPage{Snapshot: models.DocumentSnapshot{URL: target}}
	if r.screenshot {
		shot, err := page.Context(ctx).Screenshot(true, &proto.PageCaptureScreenshot{Format: proto.PageCaptureScreenshotFormatPng})
		if err != nil {
			r.logger.Warn().Err(err).Msg("Screenshot failed")
		} else {
			rendered.Screenshot = shot
		}
	}

	rendered.Snapshot.Computed = r.extract(ctx, page)

	html, err := page.Context(ctx).HTML()
	if err != nil {
		return nil, common.WrapError(err, "failed to read rendered document")
	}
	rendered.Snapshot.HTML = html

	if info, err := page.Context(ctx).Info(); err == nil {
		rendered.FinalURL = info.URL
		rendered.Title = info.Title
	}
	if rendered.FinalURL == "" {
		rendered.FinalURL = target
	}
	rendered.Snapshot.URL = rendered.FinalURL
	rendered.StatusCode = r.statusCode(ctx, page)

	r.logger.Info().
		Str("url", target).
		Str("final_url", rendered.FinalURL).
		Int("status_code", rendered.StatusCode).
		Int("html_bytes", len(html)).
		Msg("Page rendered")
	return rendered, nil
}

// scroll walks down the page in steps and back to the top so lazy content loads.
func (r *BrowserRenderer) scroll(ctx context.Context, page *rod.Page) error {
	res, err := page.Context(ctx).Eval(`() => Math.max(document.body ? document.body.scrollHeight : 0, document.documentElement.scrollHeight)`)
	if err != nil {
		r.logger.Warn().Err(err).Msg("Could not read page height, skipping lazy-load scroll")
		return nil
	}
	height := res.Value.Int()
	pause := time.Duration(r.cfg.ScrollPauseMs) * time.Millisecond

	positions := make([]int, 0, len(scrollSteps)+1)
	for _, step := range scrollSteps {
		positions = append(positions, int(float64(height)*step))
	}
	positions = append(positions, 0)

	for _, y := range positions {
		if _, err := page.Context(ctx).Eval(`(y) => window.scrollTo(0, y)`, y); err != nil {
			r.logger.Debug().Int("y", y).Err(err).Msg("Scroll step failed")
		}
		if err := common.WaitWithCancellation(ctx, pause); err != nil {
			return err
		}
	}
	r.logger.Debug().Int("height", height).Msg("Lazy-load scroll finished")
	return nil
}

func (r *BrowserRenderer) extract(ctx context.Context, page *rod.Page) *models.ComputedAssets {
	res, err := page.Context(ctx).Eval(extractionScript, r.maxComputedElements)
	if err != nil {
		r.logger.Warn().Err(err).Msg("Extraction script failed, continuing with markup only")
		return nil
	}
	computed, err := DecodeComputedAssets(res.Value.Str())
	if err != nil {
		r.logger.Warn().Err(err).Msg("Extraction script returned malformed data, continuing with markup only")
		return nil
	}
	if computed.Truncated {
		r.logger.Warn().Int("limit", r.maxComputedElements).Msg("Computed style scan truncated")
	}
	r.logger.Debug().
		Int("backgrounds", len(computed.Backgrounds)).
		Int("fonts", len(computed.Fonts)).
		Int("skipped_stylesheets", computed.SkippedStylesheets).
		Int("rejected", computed.Rejected).
		Msg("Computed assets extracted")
	return computed
}

func (r *BrowserRenderer) statusCode(ctx context.Context, page *rod.Page) int {
	res, err := page.Context(ctx).Eval(`() => {
  const entry = performance.getEntriesByType('navigation')[0];
  return entry && entry.responseStatus ? entry.responseStatus : 0;
}`)
	if err != nil {
		return 0
	}
	return res.Value.Int()
}

// Close shuts the page and the browser down.
func (r *BrowserRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	if r.page != nil {
		if err := r.page.Close(); err != nil {
			errs = append(errs, err)
		}
		r.page = nil
	}
	if r.browser != nil {
		if err := r.browser.Close(); err != nil {
			errs = append(errs, err)
		}
		r.browser = nil
	}
	if r.launcher != nil {
		r.launcher.Cleanup()
		r.launcher = nil
	}
	if len(errs) > 0 {
		return common.WrapError(errs[0], "failed to close browser")
	}
	return nil
}
