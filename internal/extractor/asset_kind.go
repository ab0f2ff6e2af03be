package extractor

import (
	"net/url"
	"path"
	"strings"

	"github.com/aleister1102/mirrorinc/internal/models"
)

var extensionKinds = map[string]models.AssetKind{
	".css":   models.KindStylesheet,
	".js":    models.KindScript,
	".mjs":   models.KindScript,
	".png":   models.KindImage,
	".jpg":   models.KindImage,
	".jpeg":  models.KindImage,
	".gif":   models.KindImage,
	".webp":  models.KindImage,
	".avif":  models.KindImage,
	".svg":   models.KindImage,
	".ico":   models.KindImage,
	".bmp":   models.KindImage,
	".woff":  models.KindFont,
	".woff2": models.KindFont,
	".ttf":   models.KindFont,
	".otf":   models.KindFont,
	".eot":   models.KindFont,
	".mp4":   models.KindVideo,
	".webm":  models.KindVideo,
	".ogv":   models.KindVideo,
	".mov":   models.KindVideo,
	".m4v":   models.KindVideo,
	".mp3":   models.KindAudio,
	".wav":   models.KindAudio,
	".ogg":   models.KindAudio,
	".oga":   models.KindAudio,
	".m4a":   models.KindAudio,
	".aac":   models.KindAudio,
	".flac":  models.KindAudio,
}

// InferKindFromURL maps the extension of the URL path to an asset kind.
func InferKindFromURL(rawURL string) (models.AssetKind, bool) {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	ext := strings.ToLower(path.Ext(p))
	kind, ok := extensionKinds[ext]
	return kind, ok
}

// KindForCSSReference decides the kind of a reference found in fetched CSS.
func KindForCSSReference(ref CSSReference) models.AssetKind {
	if ref.Import {
		return models.KindStylesheet
	}
	if ref.InFontFace {
		return models.KindFont
	}
	if kind, ok := InferKindFromURL(ref.Value); ok {
		return kind
	}
	return models.KindImage
}
