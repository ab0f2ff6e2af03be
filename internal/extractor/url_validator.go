package extractor

import (
	"errors"
	"net/url"
	"strings"

	"github.com/aleister1102/mirrorinc/internal/common"
	"github.com/aleister1102/mirrorinc/internal/urlhandler"
	"github.com/rs/zerolog"
)

// ValidationResult is the outcome of validating one raw reference.
type ValidationResult struct {
	AbsoluteURL string
	IsValid     bool
	Skipped     bool
	Error       error
}

// URLValidator handles URL validation and resolution
type URLValidator struct {
	logger zerolog.Logger
}

// NewURLValidator creates a new URL validator
func NewURLValidator(logger zerolog.Logger) *URLValidator {
	return &URLValidator{
		logger: logger.With().Str("component", "URLValidator").Logger(),
	}
}

// ValidateAndResolveURL resolves rawPath against base and returns the
// normalized absolute http(s) URL. Non-fetchable references are reported as
// Skipped rather than invalid.
func (uv *URLValidator) ValidateAndResolveURL(rawPath string, base *url.URL) ValidationResult {
	rawPath = strings.TrimSpace(rawPath)
	if rawPath == "" {
		return ValidationResult{Skipped: true}
	}
	if urlhandler.IsSkippableReference(rawPath) {
		return ValidationResult{Skipped: true}
	}

	resolved, err := urlhandler.ResolveURL(rawPath, base)
	if err != nil {
		if errors.Is(err, urlhandler.ErrSkippedReference) {
			return ValidationResult{Skipped: true}
		}
		uv.logger.Debug().Err(err).Str("raw_path", rawPath).Msg("Failed to resolve reference")
		return ValidationResult{Error: common.WrapError(err, "failed to resolve reference")}
	}

	return ValidationResult{AbsoluteURL: resolved, IsValid: true}
}

// ValidateBrowserValue checks a value produced by in-page script. Anything
// that is not a non-empty string naming an http(s) URL is rejected.
func (uv *URLValidator) ValidateBrowserValue(value interface{}, base *url.URL) ValidationResult {
	s, ok := value.(string)
	if !ok {
		return ValidationResult{Error: common.NewValidationError("browser_value", value, "value is not a string")}
	}
	if strings.TrimSpace(s) == "" {
		return ValidationResult{Error: common.NewValidationError("browser_value", s, "value is empty")}
	}
	result := uv.ValidateAndResolveURL(s, base)
	if result.Skipped {
		return ValidationResult{Error: common.NewValidationError("browser_value", s, "value is not an http(s) URL")}
	}
	return result
}
