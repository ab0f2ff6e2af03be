package rewriter

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aleister1102/mirrorinc/internal/extractor"
	"github.com/aleister1102/mirrorinc/internal/fetcher"
	"github.com/aleister1102/mirrorinc/internal/models"
	"github.com/aleister1102/mirrorinc/internal/urlhandler"
)

var (
	// cssImportRuleRegex matches a whole @import rule up to its semicolon.
	cssImportRuleRegex = regexp.MustCompile(`(?i)@import\s+[^;]*;?`)
	cssCommentRegex    = regexp.MustCompile(`(?s)/\*.*?\*/`)
)

// CSSRewriter points url() and @import references at local files.
type CSSRewriter struct {
	logger zerolog.Logger
}

// NewCSSRewriter creates a CSS rewriter.
func NewCSSRewriter(logger zerolog.Logger) *CSSRewriter {
	return &CSSRewriter{
		logger: logger.With().Str("component", "CSSRewriter").Logger(),
	}
}

// Rewrite replaces every mapped reference in css with its path relative to
// fromDir. References resolve against baseURL. Unmapped references and
// non-fetchable ones are left exactly as they were.
func (c *CSSRewriter) Rewrite(css, baseURL, fromDir string, mapping *models.AssetMapping) string {
	return c.rewrite(css, baseURL, fromDir, mapping, false)
}

// rewrite is Rewrite; with absolutize set, unmapped relative references are
// replaced by their absolute URL.
func (c *CSSRewriter) rewrite(css, baseURL, fromDir string, mapping *models.AssetMapping, absolutize bool) string {
	base, err := url.Parse(baseURL)
	if err != nil {
		c.logger.Warn().Str("base_url", baseURL).Err(err).Msg("Invalid stylesheet base, references left untouched")
		return css
	}

	return extractor.RewriteCSSReferences(css, func(ref extractor.CSSReference) (string, bool) {
		if urlhandler.IsSkippableReference(ref.Value) {
			return "", false
		}
		localPath, fragment, ok := lookup(ref.Value, base, mapping)
		if ok {
			return urlhandler.RelativePath(fromDir, localPath) + fragment, true
		}
		if !absolutize {
			return "", false
		}
		raw, fragment := urlhandler.SplitFragment(strings.TrimSpace(ref.Value))
		if raw == "" || !isRelative(raw) {
			return "", false
		}
		absolute, err := urlhandler.ResolveURL(raw, base)
		if err != nil {
			return "", false
		}
		return absolute + fragment, true
	})
}

// MergeDropImports replaces @import rules whose target was merged into the
// combined stylesheet with a comment, since that content is already present.
func (c *CSSRewriter) MergeDropImports(css, baseURL string, mapping *models.AssetMapping) string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return css
	}
	comments := cssCommentRegex.FindAllStringIndex(css, -1)

	var b strings.Builder
	last := 0
	for _, m := range cssImportRuleRegex.FindAllStringIndex(css, -1) {
		if insideComment(comments, m[0]) {
			continue
		}
		for _, ref := range extractor.FindCSSReferences(css[m[0]:m[1]]) {
			if !ref.Import {
				continue
			}
			localPath, _, ok := lookup(ref.Value, base, mapping)
			if !ok || localPath != fetcher.MergedStylesheetPath {
				continue
			}
			b.WriteString(css[last:m[0]])
			b.WriteString("/* merged: " + strings.ReplaceAll(ref.Value, "*/", "*%2F") + " */")
			last = m[1]
			break
		}
	}
	if last == 0 {
		return css
	}
	b.WriteString(css[last:])
	return b.String()
}

func insideComment(comments [][]int, pos int) bool {
	for _, c := range comments {
		if pos >= c[0] && pos < c[1] {
			return true
		}
	}
	return false
}

// Transform adapts the rewriter to the fetch pipeline's stylesheet hook.
func (c *CSSRewriter) Transform(merged bool) fetcher.BodyTransform {
	return func(entry models.CatalogEntry, body []byte, baseURL, fromDir string, mapping *models.AssetMapping) []byte {
		css := string(body)
		if merged {
			css = c.MergeDropImports(css, baseURL, mapping)
		}
		return []byte(c.Rewrite(css, baseURL, fromDir, mapping))
	}
}

// lookup resolves raw against base and returns its mapped local path and the
// fragment to carry over.
func lookup(raw string, base *url.URL, mapping *models.AssetMapping) (string, string, bool) {
	ref, fragment := urlhandler.SplitFragment(strings.TrimSpace(raw))
	if ref == "" {
		return "", "", false
	}
	resolved, err := urlhandler.ResolveURL(ref, base)
	if err != nil {
		return "", "", false
	}
	localPath, ok := mapping.Get(resolved)
	return localPath, fragment, ok
}
