package fetcher

import (
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/aleister1102/mirrorinc/internal/config"
	"github.com/aleister1102/mirrorinc/internal/extractor"
	"github.com/aleister1102/mirrorinc/internal/models"
	"github.com/aleister1102/mirrorinc/internal/urlhandler"
)

const (
	maxFileNameLength = 100
	hashNameLength    = 12

	MergedStylesheetPath = models.DirCSS + "/index.css"
	MergedScriptPath     = models.DirJS + "/index.js"
)

// dynamicExtensions name server-side handlers, not the content they return.
var dynamicExtensions = map[string]struct{}{
	".php":  {},
	".asp":  {},
	".aspx": {},
	".jsp":  {},
	".cgi":  {},
}

var contentTypeExtensions = map[string]string{
	"text/css":                      ".css",
	"text/javascript":               ".js",
	"application/javascript":        ".js",
	"application/x-javascript":      ".js",
	"image/png":                     ".png",
	"image/jpeg":                    ".jpg",
	"image/jpg":                     ".jpg",
	"image/gif":                     ".gif",
	"image/webp":                    ".webp",
	"image/avif":                    ".avif",
	"image/svg+xml":                 ".svg",
	"image/x-icon":                  ".ico",
	"image/vnd.microsoft.icon":      ".ico",
	"image/bmp":                     ".bmp",
	"font/woff":                     ".woff",
	"font/woff2":                    ".woff2",
	"font/ttf":                      ".ttf",
	"font/otf":                      ".otf",
	"application/font-woff":         ".woff",
	"application/font-woff2":        ".woff2",
	"application/x-font-ttf":        ".ttf",
	"application/x-font-otf":        ".otf",
	"application/vnd.ms-fontobject": ".eot",
	"video/mp4":                     ".mp4",
	"video/webm":                    ".webm",
	"video/ogg":                     ".ogv",
	"video/quicktime":               ".mov",
	"audio/mpeg":                    ".mp3",
	"audio/ogg":                     ".ogg",
	"audio/wav":                     ".wav",
	"audio/x-wav":                   ".wav",
	"audio/mp4":                     ".m4a",
	"audio/aac":                     ".aac",
	"audio/flac":                    ".flac",
}

// ExtensionForContentType maps a Content-Type header value to a file extension.
func ExtensionForContentType(contentType string) (string, bool) {
	if contentType == "" {
		return "", false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	}
	ext, ok := contentTypeExtensions[mediaType]
	return ext, ok
}

// Namer assigns local paths to downloaded assets.
type Namer struct {
	mode   string
	logger zerolog.Logger
}

// NewNamer creates a namer for the given output mode.
func NewNamer(mode string, logger zerolog.Logger) *Namer {
	return &Namer{
		mode:   mode,
		logger: logger.With().Str("component", "Namer").Logger(),
	}
}

// Merged reports whether styles and scripts are combined into one file each.
func (n *Namer) Merged() bool {
	return n.mode == config.OutputModeMerged
}

// Assign names every successful result, serially and in result order, so
// the same input always yields the same paths. Failed results get no name.
// A path that documentBase or a stylesheet would resolve to a different
// fetched URL is skipped, so a rewritten reference never reads as another one.
func (n *Namer) Assign(results []AssetResult, documentBase *url.URL) (*models.AssetMapping, []models.DownloadedAsset) {
	mapping := models.NewAssetMapping()
	var downloaded []models.DownloadedAsset
	used := make(map[string]struct{})
	clash := newClashCheck(results, documentBase)

	for _, r := range results {
		if !r.OK() {
			continue
		}

		localPath := n.localPath(r, used, clash)
		if !mapping.Set(r.Entry.SourceURL, localPath) {
			continue
		}
		downloaded = append(downloaded, models.DownloadedAsset{
			SourceURL:   r.Entry.SourceURL,
			LocalPath:   localPath,
			ByteLength:  int64(len(r.Body)),
			ContentType: r.ContentType,
			Kind:        r.Entry.Kind,
		})
	}

	n.logger.Debug().Int("assigned", mapping.Len()).Msg("Local paths assigned")
	return mapping, downloaded
}

func (n *Namer) localPath(r AssetResult, used map[string]struct{}, clash *clashCheck) string {
	kind := r.Entry.Kind
	if n.Merged() {
		switch {
		case kind.IsStyle():
			return MergedStylesheetPath
		case kind.IsScript():
			return MergedScriptPath
		}
	}

	candidate := kind.Subdir() + "/" + n.fileName(r)
	return reserve(candidate, used, func(p string) bool {
		return clash.clashes(p, r.Entry.SourceURL)
	})
}

// reserve returns candidate, or candidate with _1, _2 ... before the
// extension when a case-insensitive equal path is already taken or rejected.
func reserve(candidate string, used map[string]struct{}, reject func(string) bool) string {
	free := func(p string) bool {
		if _, taken := used[strings.ToLower(p)]; taken {
			return false
		}
		return reject == nil || !reject(p)
	}
	if free(candidate) {
		used[strings.ToLower(candidate)] = struct{}{}
		return candidate
	}

	ext := path.Ext(candidate)
	stem := strings.TrimSuffix(candidate, ext)
	for i := 1; ; i++ {
		next := fmt.Sprintf("%s_%d%s", stem, i, ext)
		if free(next) {
			used[strings.ToLower(next)] = struct{}{}
			return next
		}
	}
}

// referenceContext is a place a local path gets written: resolved against
// base and written relative to dir.
type referenceContext struct {
	base *url.URL
	dir  string
}

// clashCheck finds local paths that a rewritten document or stylesheet
// would read back as a different fetched URL.
type clashCheck struct {
	contexts []referenceContext
	fetched  map[string]struct{}
}

func newClashCheck(results []AssetResult, documentBase *url.URL) *clashCheck {
	c := &clashCheck{fetched: make(map[string]struct{}, len(results))}
	if documentBase != nil {
		// Markup and inline styles, then inline styles moved into css/.
		c.contexts = append(c.contexts,
			referenceContext{base: documentBase},
			referenceContext{base: documentBase, dir: models.DirCSS})
	}
	for _, r := range results {
		if !r.OK() {
			continue
		}
		c.fetched[r.Entry.SourceURL] = struct{}{}
		if r.Entry.Kind.IsStyle() && !r.Entry.Kind.IsInline() {
			if base, err := url.Parse(r.Entry.SourceURL); err == nil {
				c.contexts = append(c.contexts, referenceContext{base: base, dir: r.Entry.Kind.Subdir()})
			}
		}
	}
	return c
}

func (c *clashCheck) clashes(localPath, owner string) bool {
	for _, ctx := range c.contexts {
		resolved, err := urlhandler.ResolveURL(urlhandler.RelativePath(ctx.dir, localPath), ctx.base)
		if err != nil || resolved == owner {
			continue
		}
		if _, ok := c.fetched[resolved]; ok {
			return true
		}
	}
	return false
}

func (n *Namer) fileName(r AssetResult) string {
	entry := r.Entry
	if entry.Kind.IsInline() {
		return fmt.Sprintf("inline_%d%s", entry.InlineIndex, entry.Kind.DefaultExtension())
	}

	base := ""
	if u, err := url.Parse(entry.SourceURL); err == nil {
		base = path.Base(u.Path)
	}
	ext := strings.ToLower(path.Ext(base))
	_, dynamic := dynamicExtensions[ext]
	if base == "" || base == "/" || base == "." || ext == "" || ext == base || dynamic {
		return urlhandler.HashURL(entry.SourceURL, hashNameLength) + n.extension(r)
	}

	return truncateName(urlhandler.SanitizeFilename(base))
}

// extension picks the file extension for a URL without a usable one:
// Content-Type first, then content sniffing, then the kind default.
func (n *Namer) extension(r AssetResult) string {
	if ext, ok := ExtensionForContentType(r.ContentType); ok {
		return ext
	}
	if len(r.Body) > 0 {
		sniffed := mimetype.Detect(r.Body).Extension()
		if kind, ok := extractor.InferKindFromURL("file" + sniffed); ok && compatibleKinds(kind, r.Entry.Kind) {
			return sniffed
		}
	}
	return r.Entry.Kind.DefaultExtension()
}

func compatibleKinds(sniffed, declared models.AssetKind) bool {
	if sniffed == declared {
		return true
	}
	media := func(k models.AssetKind) bool { return k == models.KindVideo || k == models.KindAudio }
	return media(sniffed) && media(declared)
}

func truncateName(name string) string {
	if len(name) <= maxFileNameLength {
		return name
	}
	ext := path.Ext(name)
	if len(ext) >= maxFileNameLength {
		return name[:maxFileNameLength]
	}
	return name[:maxFileNameLength-len(ext)] + ext
}
