package models

import (
	"fmt"
	"strconv"
	"strings"
)

// AssetKind is the resource category of a catalogued reference. It decides
// the destination subdirectory and the fallback file extension.
type AssetKind string

const (
	KindStylesheet   AssetKind = "stylesheet"
	KindScript       AssetKind = "script"
	KindImage        AssetKind = "image"
	KindFont         AssetKind = "font"
	KindVideo        AssetKind = "video"
	KindAudio        AssetKind = "audio"
	KindInlineStyle  AssetKind = "inline-style"
	KindInlineScript AssetKind = "inline-script"
)

// AllAssetKinds lists every kind in catalog precedence order.
var AllAssetKinds = []AssetKind{
	KindStylesheet,
	KindInlineStyle,
	KindScript,
	KindInlineScript,
	KindImage,
	KindFont,
	KindVideo,
	KindAudio,
}

// Output subdirectories.
const (
	DirCSS    = "css"
	DirJS     = "js"
	DirImages = "images"
	DirFonts  = "fonts"
	DirVideos = "videos"
)

// Valid reports whether k is a known kind.
func (k AssetKind) Valid() bool {
	for _, known := range AllAssetKinds {
		if k == known {
			return true
		}
	}
	return false
}

// IsInline reports whether the kind describes an inline <style> or <script> block.
func (k AssetKind) IsInline() bool {
	return k == KindInlineStyle || k == KindInlineScript
}

// IsStyle reports whether the content is CSS.
func (k AssetKind) IsStyle() bool {
	return k == KindStylesheet || k == KindInlineStyle
}

// IsScript reports whether the content is JavaScript.
func (k AssetKind) IsScript() bool {
	return k == KindScript || k == KindInlineScript
}

// Subdir returns the output subdirectory for the kind.
func (k AssetKind) Subdir() string {
	switch k {
	case KindStylesheet, KindInlineStyle:
		return DirCSS
	case KindScript, KindInlineScript:
		return DirJS
	case KindFont:
		return DirFonts
	case KindVideo, KindAudio:
		return DirVideos
	default:
		return DirImages
	}
}

// DefaultExtension is used when neither the URL nor the response tells us anything.
func (k AssetKind) DefaultExtension() string {
	switch k {
	case KindStylesheet, KindInlineStyle:
		return ".css"
	case KindScript, KindInlineScript:
		return ".js"
	case KindFont:
		return ".woff"
	case KindVideo:
		return ".mp4"
	case KindAudio:
		return ".mp3"
	default:
		return ".bin"
	}
}

// ParseAssetKind converts a string to an AssetKind.
func ParseAssetKind(s string) (AssetKind, error) {
	k := AssetKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown asset kind %q", s)
	}
	return k, nil
}

// inlineKeySeparator joins kind and ordinal in synthetic inline block keys.
const inlineKeySeparator = ":"

// InlineKey builds the catalog key of the n-th eligible inline block of the given kind.
func InlineKey(kind AssetKind, index int) string {
	return string(kind) + inlineKeySeparator + strconv.Itoa(index)
}

// ParseInlineKey is the inverse of InlineKey.
func ParseInlineKey(key string) (AssetKind, int, bool) {
	prefix, rest, ok := strings.Cut(key, inlineKeySeparator)
	if !ok {
		return "", 0, false
	}
	kind := AssetKind(prefix)
	if !kind.IsInline() {
		return "", 0, false
	}
	index, err := strconv.Atoi(rest)
	if err != nil || index < 0 {
		return "", 0, false
	}
	return kind, index, true
}

// ReferenceLocation records where in the document a reference was found.
type ReferenceLocation struct {
	Element   string `json:"element"`
	Attribute string `json:"attribute"`
}

func (l ReferenceLocation) String() string {
	return l.Element + "[" + l.Attribute + "]"
}

// AssetReference is a single occurrence of a resource URL in a document.
type AssetReference struct {
	SourceURL string            `json:"source_url"`
	Kind      AssetKind         `json:"kind"`
	Location  ReferenceLocation `json:"location"`
}

// CatalogEntry is the deduplicated record for one source URL.
type CatalogEntry struct {
	SourceURL   string            `json:"source_url"`
	Kind        AssetKind         `json:"kind"`
	Order       int               `json:"order"`
	InlineIndex int               `json:"inline_index,omitempty"`
	Content     string            `json:"-"`
	Occurrences int               `json:"occurrences"`
	FirstSeen   ReferenceLocation `json:"first_seen"`
	// Wave is 0 for document references and n for references found in CSS fetched in wave n-1.
	Wave int `json:"wave"`
}

// DownloadedAsset is created once a fetch succeeds and is never mutated.
type DownloadedAsset struct {
	SourceURL   string    `json:"source_url"`
	LocalPath   string    `json:"local_path"`
	ByteLength  int64     `json:"byte_length"`
	ContentType string    `json:"content_type"`
	Kind        AssetKind `json:"kind"`
}

// FetchFailure records a catalogued URL that could not be downloaded.
type FetchFailure struct {
	SourceURL string    `json:"url"`
	Kind      AssetKind `json:"kind"`
	Reason    string    `json:"reason"`
	Attempts  int       `json:"attempts"`
}
