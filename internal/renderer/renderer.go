package renderer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aleister1102/mirrorinc/internal/common"
	"github.com/aleister1102/mirrorinc/internal/config"
	"github.com/aleister1102/mirrorinc/internal/models"
)

// ErrNavigation marks a target that could not be loaded at all.
var ErrNavigation = errors.New("navigation failed")

// RenderedPage is the loaded target document.
type RenderedPage struct {
	Snapshot   models.DocumentSnapshot
	FinalURL   string
	Title      string
	StatusCode int
	Screenshot []byte
}

// PageRenderer loads a target URL and returns its document.
type PageRenderer interface {
	Render(ctx context.Context, target string) (*RenderedPage, error)
	Close() error
}

// Options carries settings that live outside the renderer config section.
type Options struct {
	Screenshot          bool
	MaxComputedElements int
}

// New returns the renderer selected by cfg.Engine.
func New(cfg config.RendererConfig, opts Options, logger zerolog.Logger) (PageRenderer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Engine)) {
	case "", config.EngineBrowser:
		return NewBrowserRenderer(cfg, logger).
			WithScreenshot(opts.Screenshot).
			WithMaxComputedElements(opts.MaxComputedElements), nil
	case config.EngineHTTP:
		return NewStaticRenderer(cfg, logger), nil
	default:
		return nil, common.NewValidationError("renderer_config.engine", cfg.Engine, "must be 'browser' or 'http'")
	}
}

func navigationError(target string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrNavigation, target, err)
}
