package catalog

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/aleister1102/mirrorinc/internal/common"
	"github.com/aleister1102/mirrorinc/internal/config"
	"github.com/aleister1102/mirrorinc/internal/extractor"
	"github.com/aleister1102/mirrorinc/internal/models"
	"github.com/aleister1102/mirrorinc/internal/urlhandler"
)

// imageAttributes are read from each <img>, in this order.
var imageAttributes = []string{"src", "srcset", "data-src", "data-srcset", "data-lazy", "data-original"}

// Builder turns a rendered document into a Catalog.
type Builder struct {
	cfg        config.CatalogConfig
	logger     zerolog.Logger
	validator  *extractor.URLValidator
	jsAnalyzer *extractor.JSluiceAnalyzer
}

// NewBuilder creates a catalog builder.
func NewBuilder(cfg config.CatalogConfig, logger zerolog.Logger) *Builder {
	validator := extractor.NewURLValidator(logger)
	return &Builder{
		cfg:        cfg,
		logger:     logger.With().Str("component", "CatalogBuilder").Logger(),
		validator:  validator,
		jsAnalyzer: extractor.NewJSluiceAnalyzer(validator, logger),
	}
}

// build holds per-call state so Builder stays safe for reuse.
type build struct {
	b   *Builder
	doc *goquery.Document
	cat *Catalog
}

// Build produces the catalog for snapshot. The result depends only on the snapshot.
func (b *Builder) Build(snapshot models.DocumentSnapshot) (*Catalog, error) {
	if _, err := urlhandler.ValidateTargetURL(snapshot.URL); err != nil {
		return nil, common.NewValidationError("snapshot_url", snapshot.URL, err.Error())
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snapshot.HTML))
	if err != nil {
		return nil, common.WrapError(err, "failed to parse document")
	}

	base, err := urlhandler.DocumentBase(snapshot.URL, doc.Find("base[href]").First().AttrOr("href", ""))
	if err != nil {
		return nil, common.WrapError(err, "failed to determine document base")
	}

	run := &build{b: b, doc: doc, cat: newCatalog(base)}
	styles := InlineStyles(doc)
	scripts := InlineScripts(doc)

	run.stylesheets()
	for _, block := range styles {
		run.cat.addInline(block)
	}
	run.externalScripts()
	for _, block := range scripts {
		run.cat.addInline(block)
	}
	run.images()
	run.backgrounds(snapshot.Computed, styles)
	run.fonts(snapshot.Computed, styles)
	run.media()
	if b.cfg.DiscoverScriptURLs {
		run.scriptURLs(scripts)
	}

	if snapshot.Computed != nil {
		run.cat.Rejected += snapshot.Computed.Rejected
	}

	b.logger.Info().
		Str("url", snapshot.URL).
		Int("entries", run.cat.Len()).
		Int("references", len(run.cat.References)).
		Int("rejected", run.cat.Rejected).
		Msg("Asset catalog built")

	return run.cat, nil
}

// addRaw resolves a document reference and records it.
func (r *build) addRaw(raw string, kind models.AssetKind, loc models.ReferenceLocation) {
	result := r.b.validator.ValidateAndResolveURL(raw, r.cat.BaseURL)
	if !result.IsValid {
		if result.Error != nil {
			r.b.logger.Debug().Str("raw", raw).Str("location", loc.String()).Err(result.Error).Msg("Skipping unresolvable reference")
		}
		return
	}
	r.cat.add(result.AbsoluteURL, kind, loc, 0)
}

// addBrowser validates a value produced in the page before recording it.
func (r *build) addBrowser(value string, kind models.AssetKind, loc models.ReferenceLocation) {
	result := r.b.validator.ValidateBrowserValue(value, r.cat.BaseURL)
	if !result.IsValid {
		r.cat.Rejected++
		r.b.logger.Debug().Str("value", value).Err(result.Error).Msg("Rejected browser-provided URL")
		return
	}
	r.cat.add(result.AbsoluteURL, kind, loc, 0)
}

func (r *build) stylesheets() {
	r.doc.Find("link[rel~=stylesheet][href]").Each(func(_ int, s *goquery.Selection) {
		r.addRaw(s.AttrOr("href", ""), models.KindStylesheet, models.ReferenceLocation{Element: "link", Attribute: "href"})
	})
}

func (r *build) externalScripts() {
	r.doc.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
		r.addRaw(s.AttrOr("src", ""), models.KindScript, models.ReferenceLocation{Element: "script", Attribute: "src"})
	})
}

func (r *build) images() {
	r.doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		for _, attr := range imageAttributes {
			value, ok := s.Attr(attr)
			if !ok {
				continue
			}
			loc := models.ReferenceLocation{Element: "img", Attribute: attr}
			if strings.HasSuffix(attr, "srcset") {
				for _, c := range extractor.ParseSrcset(value) {
					r.addRaw(c.URL, models.KindImage, loc)
				}
				continue
			}
			r.addRaw(value, models.KindImage, loc)
		}
	})

	r.doc.Find("picture source[srcset]").Each(func(_ int, s *goquery.Selection) {
		for _, c := range extractor.ParseSrcset(s.AttrOr("srcset", "")) {
			r.addRaw(c.URL, models.KindImage, models.ReferenceLocation{Element: "source", Attribute: "srcset"})
		}
	})

	r.doc.Find("link[rel~=icon][href]").Each(func(_ int, s *goquery.Selection) {
		r.addRaw(s.AttrOr("href", ""), models.KindImage, models.ReferenceLocation{Element: "link", Attribute: "href"})
	})
}

func (r *build) backgrounds(computed *models.ComputedAssets, styles []InlineBlock) {
	if computed != nil {
		for _, bg := range computed.Backgrounds {
			r.addBrowser(bg, models.KindImage, models.ReferenceLocation{Element: "browser", Attribute: "computed-background"})
		}
	}

	r.doc.Find("[style]").Each(func(_ int, s *goquery.Selection) {
		loc := models.ReferenceLocation{Element: goquery.NodeName(s), Attribute: "style"}
		for _, ref := range extractor.FindCSSReferences(s.AttrOr("style", "")) {
			r.addRaw(ref.Value, models.KindImage, loc)
		}
	})

	for _, block := range styles {
		for _, ref := range extractor.FindCSSReferences(block.Content) {
			if ref.InFontFace {
				continue
			}
			kind := models.KindImage
			if ref.Import {
				kind = models.KindStylesheet
			}
			r.addRaw(ref.Value, kind, models.ReferenceLocation{Element: "style", Attribute: "url()"})
		}
	}
}

func (r *build) fonts(computed *models.ComputedAssets, styles []InlineBlock) {
	if computed != nil {
		for _, font := range computed.Fonts {
			r.addBrowser(font, models.KindFont, models.ReferenceLocation{Element: "browser", Attribute: "font-face"})
		}
	}

	for _, block := range styles {
		for _, ref := range extractor.FindCSSReferences(block.Content) {
			if !ref.InFontFace {
				continue
			}
			r.addRaw(ref.Value, models.KindFont, models.ReferenceLocation{Element: "style", Attribute: "font-face"})
		}
	}
}

func (r *build) media() {
	r.doc.Find("video[src], audio[src], source[src]").Each(func(_ int, s *goquery.Selection) {
		tag := goquery.NodeName(s)
		kind := models.KindVideo
		if tag == "audio" || (tag == "source" && s.ParentFiltered("audio").Length() > 0) {
			kind = models.KindAudio
		}
		r.addRaw(s.AttrOr("src", ""), kind, models.ReferenceLocation{Element: tag, Attribute: "src"})
	})

	r.doc.Find("video[poster]").Each(func(_ int, s *goquery.Selection) {
		r.addRaw(s.AttrOr("poster", ""), models.KindImage, models.ReferenceLocation{Element: "video", Attribute: "poster"})
	})
}

func (r *build) scriptURLs(scripts []InlineBlock) {
	for _, block := range scripts {
		for _, found := range r.b.jsAnalyzer.AnalyzeJavaScript(block.Content, r.cat.BaseURL) {
			r.cat.add(found.URL, found.Kind, models.ReferenceLocation{Element: "script", Attribute: "jsluice"}, 0)
		}
	}
}
