package urlhandler

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

// Regex for cleaning filenames
var (
	unsafeFilenameCharsRegex = regexp.MustCompile(`[^a-zA-Z0-9_.-]+`)
	multipleUnderscoresRegex = regexp.MustCompile(`_+`)
)

// ErrSkippedReference is returned for references that never name a fetchable resource.
var ErrSkippedReference = errors.New("reference is not fetchable")

// skippedSchemes are already inline or not resources at all.
var skippedSchemes = []string{"data:", "blob:", "javascript:", "mailto:", "tel:", "about:"}

// IsSkippableReference reports whether raw should be ignored by the catalog:
// empty values, fragment-only values and non-fetchable schemes.
func IsSkippableReference(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return true
	}
	lower := strings.ToLower(trimmed)
	for _, scheme := range skippedSchemes {
		if strings.HasPrefix(lower, scheme) {
			return true
		}
	}
	return false
}

// NormalizeURL canonicalises an absolute http(s) URL: scheme and host are
// lowercased, default ports and fragments are dropped, an empty path becomes
// "/". Path and query case are preserved.
func NormalizeURL(rawURL string) (string, error) {
	trimmedURL := strings.TrimSpace(rawURL)
	if trimmedURL == "" {
		return "", errors.New("URL is empty or only whitespace")
	}

	parsedURL, err := url.Parse(trimmedURL)
	if err != nil {
		return "", fmt.Errorf("could not parse URL '%s': %w", trimmedURL, err)
	}
	return normalizeParsed(parsedURL)
}

func normalizeParsed(u *url.URL) (string, error) {
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", errors.New("URL lacks a valid hostname")
	}

	normalized := *u
	normalized.Scheme = scheme
	normalized.Host = normalizeHost(scheme, u.Host)
	normalized.Fragment = ""
	normalized.RawFragment = ""
	normalized.ForceQuery = false
	normalized.User = nil
	if normalized.Path == "" && normalized.Opaque == "" {
		normalized.Path = "/"
		normalized.RawPath = ""
	}
	return normalized.String(), nil
}

func normalizeHost(scheme, host string) string {
	host = strings.ToLower(host)
	switch {
	case scheme == "http" && strings.HasSuffix(host, ":80"):
		return strings.TrimSuffix(host, ":80")
	case scheme == "https" && strings.HasSuffix(host, ":443"):
		return strings.TrimSuffix(host, ":443")
	}
	return host
}

// ResolveURL resolves a (possibly relative or protocol-relative) reference
// against base and returns the normalized absolute URL.
func ResolveURL(href string, base *url.URL) (string, error) {
	trimmedHref := strings.TrimSpace(href)
	if IsSkippableReference(trimmedHref) {
		return "", ErrSkippedReference
	}

	if base == nil {
		parsedHref, parseErr := url.Parse(trimmedHref)
		if parseErr != nil {
			return "", fmt.Errorf("error parsing base-less href '%s': %w", trimmedHref, parseErr)
		}
		if !parsedHref.IsAbs() {
			return "", fmt.Errorf("cannot process relative URL '%s' without a base URL", trimmedHref)
		}
		return normalizeParsed(parsedHref)
	}

	resolved, err := base.Parse(trimmedHref)
	if err != nil {
		return "", fmt.Errorf("error resolving href '%s' with base '%s': %w", trimmedHref, base.String(), err)
	}
	return normalizeParsed(resolved)
}

// DocumentBase returns the base URL for relative resolution: the page URL,
// overridden by a <base href> value when one is present.
func DocumentBase(pageURL, baseHref string) (*url.URL, error) {
	page, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil {
		return nil, fmt.Errorf("could not parse page URL '%s': %w", pageURL, err)
	}
	if strings.TrimSpace(baseHref) == "" {
		return page, nil
	}
	base, err := page.Parse(strings.TrimSpace(baseHref))
	if err != nil {
		return page, nil
	}
	return base, nil
}

// ValidateTargetURL checks that raw is an absolute http(s) URL with a host.
func ValidateTargetURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, errors.New("target URL is empty")
	}
	if !strings.HasPrefix(strings.ToLower(trimmed), "http://") && !strings.HasPrefix(strings.ToLower(trimmed), "https://") {
		return nil, fmt.Errorf("target URL '%s' must start with http:// or https://", trimmed)
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid target URL '%s': %w", trimmed, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("target URL '%s' has no host", trimmed)
	}
	return u, nil
}

// SplitFragment separates a reference into the part before '#' and the fragment including '#'.
func SplitFragment(raw string) (string, string) {
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		return raw[:i], raw[i:]
	}
	return raw, ""
}

// SanitizeFilename creates a safe filename string from a URL or any input string.
// It removes the protocol, replaces unsafe characters with underscores, and cleans up underscores.
func SanitizeFilename(input string) string {
	name := input
	if i := strings.Index(name, "://"); i != -1 {
		name = name[i+3:]
	}

	name = unsafeFilenameCharsRegex.ReplaceAllString(name, "_")
	name = multipleUnderscoresRegex.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")

	if name == "" {
		return "sanitized_empty_input"
	}

	return name
}

// HashURL returns the first n hex characters of the SHA-256 of the URL.
func HashURL(u string, n int) string {
	sum := sha256.Sum256([]byte(u))
	h := hex.EncodeToString(sum[:])
	if n <= 0 || n > len(h) {
		return h
	}
	return h[:n]
}

// RelativePath returns target (slash separated, relative to the output root)
// as seen from fromDir, e.g. RelativePath("css", "images/x.png") == "../images/x.png".
func RelativePath(fromDir, target string) string {
	if fromDir == "" || fromDir == "." {
		return target
	}
	rel, err := filepath.Rel(filepath.FromSlash(fromDir), filepath.FromSlash(target))
	if err != nil {
		return target
	}
	return filepath.ToSlash(rel)
}
