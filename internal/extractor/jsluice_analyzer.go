package extractor

import (
	"net/url"

	"github.com/BishopFox/jsluice"
	"github.com/rs/zerolog"

	"github.com/aleister1102/mirrorinc/internal/models"
)

// ScriptURL is an asset-like URL found by static analysis of a script.
type ScriptURL struct {
	URL    string
	Kind   models.AssetKind
	Source string
}

// JSluiceAnalyzer handles JavaScript analysis using jsluice
type JSluiceAnalyzer struct {
	logger    zerolog.Logger
	validator *URLValidator
}

// NewJSluiceAnalyzer creates a new jsluice analyzer
func NewJSluiceAnalyzer(validator *URLValidator, logger zerolog.Logger) *JSluiceAnalyzer {
	return &JSluiceAnalyzer{
		logger:    logger.With().Str("component", "JSluiceAnalyzer").Logger(),
		validator: validator,
	}
}

// AnalyzeJavaScript returns asset-like URLs referenced by content, resolved
// against base, in the order jsluice reports them. URLs whose extension does
// not name a known asset kind are ignored.
func (jsa *JSluiceAnalyzer) AnalyzeJavaScript(content string, base *url.URL) []ScriptURL {
	analyzer := jsluice.NewAnalyzer([]byte(content))
	jsluiceResults := analyzer.GetURLs()

	jsa.logger.Debug().Int("jsluice_url_count", len(jsluiceResults)).Msg("Jsluice analysis completed")

	seen := make(map[string]struct{})
	var found []ScriptURL
	for _, jsluiceRes := range jsluiceResults {
		result := jsa.validator.ValidateAndResolveURL(jsluiceRes.URL, base)
		if !result.IsValid {
			continue
		}
		kind, ok := InferKindFromURL(result.AbsoluteURL)
		if !ok {
			continue
		}
		if _, dup := seen[result.AbsoluteURL]; dup {
			continue
		}
		seen[result.AbsoluteURL] = struct{}{}

		found = append(found, ScriptURL{URL: result.AbsoluteURL, Kind: kind, Source: jsluiceRes.Source})
		jsa.logger.Debug().
			Str("absolute_url", result.AbsoluteURL).
			Str("kind", string(kind)).
			Msg("Added asset URL from jsluice")
	}
	return found
}
