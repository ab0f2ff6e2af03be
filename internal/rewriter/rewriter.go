package rewriter

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/aleister1102/mirrorinc/internal/catalog"
	"github.com/aleister1102/mirrorinc/internal/common"
	"github.com/aleister1102/mirrorinc/internal/config"
	"github.com/aleister1102/mirrorinc/internal/extractor"
	"github.com/aleister1102/mirrorinc/internal/fetcher"
	"github.com/aleister1102/mirrorinc/internal/models"
	"github.com/aleister1102/mirrorinc/internal/urlhandler"
)

var (
	navigationTargets = []struct{ selector, attr string }{
		{"a[href]", "href"},
		{"area[href]", "href"},
		{"form[action]", "action"},
	}
	// urlAttributes hold a single URL.
	urlAttributes = []string{"src", "data-src", "data-lazy", "data-original", "poster"}
	// srcsetAttributes hold candidate lists.
	srcsetAttributes = []string{"srcset", "data-srcset"}
	// carriedAttributes survive externalization of an inline block.
	carriedAttributes = []string{"media", "type", "nonce", "defer", "async"}
	// strippableElements are the elements whose references are catalogued.
	strippableElements = map[string]struct{}{
		"img":    {},
		"source": {},
		"video":  {},
		"audio":  {},
		"script": {},
	}
)

const attributeSelector = "[src], [srcset], [data-src], [data-srcset], [data-lazy], [data-original], [poster]"

// Stats counts what one Rewrite call changed.
type Stats struct {
	Rewritten    int
	Stripped     int
	Externalized int
	Merged       int
	// Absolutized counts unmapped relative references resolved against a removed <base>.
	Absolutized int
}

// Rewriter points a rendered document at the downloaded copies of its assets.
type Rewriter struct {
	cfg    config.RewriterConfig
	merged bool
	css    *CSSRewriter
	logger zerolog.Logger
}

// NewRewriter creates a document rewriter for the given output mode.
func NewRewriter(cfg config.RewriterConfig, mode string, logger zerolog.Logger) *Rewriter {
	if cfg.FailedPolicy == "" {
		cfg.FailedPolicy = config.DefaultRewriterFailedPolicy
	}
	return &Rewriter{
		cfg:    cfg,
		merged: mode == config.OutputModeMerged,
		css:    NewCSSRewriter(logger),
		logger: logger.With().Str("component", "DocumentRewriter").Logger(),
	}
}

// pass holds per-call state so Rewriter stays safe for reuse.
type pass struct {
	r       *Rewriter
	doc     *goquery.Document
	base    *url.URL
	mapping *models.AssetMapping
	local   *localIndex
	stats   Stats
	// absolutize is set when the document carries a <base> element, which the
	// rewrite removes; unmapped relative references then keep their meaning
	// only as absolute URLs.
	absolutize bool
}

// Rewrite returns markup with every mapped reference replaced by its local
// path. Rewriting an already rewritten document with the same mapping
// returns it unchanged.
func (r *Rewriter) Rewrite(markup, baseURL string, mapping *models.AssetMapping) (string, error) {
	out, _, err := r.RewriteWithStats(markup, baseURL, mapping)
	return out, err
}

// RewriteWithStats is Rewrite plus a count of the changes made.
func (r *Rewriter) RewriteWithStats(markup, baseURL string, mapping *models.AssetMapping) (string, Stats, error) {
	if mapping == nil {
		mapping = models.NewAssetMapping()
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", Stats{}, common.WrapError(err, "failed to parse document")
	}

	base, err := urlhandler.DocumentBase(baseURL, doc.Find("base[href]").First().AttrOr("href", ""))
	if err != nil {
		return "", Stats{}, common.NewValidationError("base_url", baseURL, err.Error())
	}

	p := &pass{
		r:          r,
		doc:        doc,
		base:       base,
		mapping:    mapping,
		local:      newLocalIndex(mapping),
		absolutize: doc.Find("base[href]").Length() > 0,
	}
	switch {
	case r.merged:
		p.merge()
	case r.cfg.ExternalizeInline:
		p.externalize()
	}
	p.rewriteLinks()
	p.rewriteAttributes()
	p.rewriteInlineCSS()
	if p.absolutize {
		p.absolutizeNavigation()
	}
	doc.Find("base").Remove()

	var buf bytes.Buffer
	if err := html.Render(&buf, doc.Nodes[0]); err != nil {
		return "", p.stats, common.WrapError(err, "failed to render document")
	}

	r.logger.Info().
		Int("rewritten", p.stats.Rewritten).
		Int("stripped", p.stats.Stripped).
		Int("externalized", p.stats.Externalized).
		Int("merged", p.stats.Merged).
		Int("absolutized", p.stats.Absolutized).
		Str("failed_policy", r.cfg.FailedPolicy).
		Msg("Document rewritten")
	return buf.String(), p.stats, nil
}

// resolution classifies a reference found in the document.
type resolution int

const (
	// leave covers non-fetchable, unparsable and already local values.
	leave resolution = iota
	mapped
	unmapped
)

// resolve looks value up in the mapping. A mapped value comes back as its
// local path. An unmapped one comes back absolute when a removed <base> would
// otherwise change what it points at, and as is otherwise. Values naming a
// local file are only recognized once the mapping has no entry for them.
func (p *pass) resolve(value string) (string, resolution) {
	trimmed := strings.TrimSpace(value)
	if urlhandler.IsSkippableReference(trimmed) {
		return value, leave
	}
	ref, fragment := urlhandler.SplitFragment(trimmed)
	if ref == "" {
		return value, leave
	}
	absolute, err := urlhandler.ResolveURL(ref, p.base)
	if err != nil {
		return value, leave
	}
	if localPath, ok := p.mapping.Get(absolute); ok {
		return localPath + fragment, mapped
	}
	if p.local.contains("", trimmed) {
		return value, leave
	}
	if p.absolutize && isRelative(ref) {
		return absolute + fragment, unmapped
	}
	return value, unmapped
}

// isRelative reports whether ref depends on the document location, which
// includes protocol-relative references.
func isRelative(ref string) bool {
	u, err := url.Parse(ref)
	return err == nil && !u.IsAbs()
}

func (p *pass) strip() bool {
	return p.r.cfg.FailedPolicy == config.FailedPolicyStrip
}

// inlineSlots walks style, link and script elements in document order and
// calls visit with the ordinal of every eligible inline block. Elements that
// already point at the local copy of an inline block take up its ordinal, so
// the numbering matches the original document on a second pass.
func (p *pass) inlineSlots(visit func(s *goquery.Selection, key string)) {
	externalized := make(map[string]models.AssetKind)
	for _, e := range p.mapping.Entries() {
		if kind, _, ok := models.ParseInlineKey(e.SourceURL); ok && !p.r.merged {
			externalized[e.LocalPath] = kind
		}
	}

	styles, scripts := 0, 0
	p.doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		switch goquery.NodeName(s) {
		case "style":
			if catalog.IsEligibleStyle(s) {
				visit(s, models.InlineKey(models.KindInlineStyle, styles))
				styles++
			}
		case "link":
			if externalized[s.AttrOr("href", "")] == models.KindInlineStyle {
				styles++
			}
		case "script":
			if src, ok := s.Attr("src"); ok {
				if externalized[src] == models.KindInlineScript {
					scripts++
				}
				return
			}
			if catalog.IsEligibleScript(s) {
				visit(s, models.InlineKey(models.KindInlineScript, scripts))
				scripts++
			}
		}
	})
}

// externalize replaces mapped inline blocks with references to their files.
func (p *pass) externalize() {
	p.inlineSlots(func(s *goquery.Selection, key string) {
		localPath, ok := p.mapping.Get(key)
		if !ok {
			return
		}
		var node *html.Node
		if goquery.NodeName(s) == "style" {
			node = elementNode("link", html.Attribute{Key: "rel", Val: "stylesheet"}, html.Attribute{Key: "href", Val: localPath})
		} else {
			node = elementNode("script", html.Attribute{Key: "src", Val: localPath})
		}
		for _, name := range carriedAttributes {
			if val, has := s.Attr(name); has {
				node.Attr = append(node.Attr, html.Attribute{Key: name, Val: val})
			}
		}
		s.ReplaceWithNodes(node)
		p.stats.Externalized++
	})
}

// merge removes everything folded into the combined stylesheet and script
// and references the combined files once.
func (p *pass) merge() {
	var cssMerged, jsMerged bool

	p.inlineSlots(func(s *goquery.Selection, key string) {
		switch localPath, _ := p.mapping.Get(key); localPath {
		case fetcher.MergedStylesheetPath:
			cssMerged = true
		case fetcher.MergedScriptPath:
			jsMerged = true
		default:
			return
		}
		s.Remove()
		p.stats.Merged++
	})

	p.doc.Find("link[href], script[src]").Each(func(_ int, s *goquery.Selection) {
		attr := "href"
		if goquery.NodeName(s) == "script" {
			attr = "src"
		} else if !hasRel(s, "stylesheet") {
			return
		}
		switch localPath, res := p.resolve(s.AttrOr(attr, "")); {
		case res == mapped && localPath == fetcher.MergedStylesheetPath:
			cssMerged = true
		case res == mapped && localPath == fetcher.MergedScriptPath:
			jsMerged = true
		default:
			return
		}
		s.Remove()
		p.stats.Merged++
	})

	if cssMerged && p.doc.Find(`link[href="`+fetcher.MergedStylesheetPath+`"]`).Length() == 0 {
		p.doc.Find("head").First().AppendNodes(
			elementNode("link", html.Attribute{Key: "rel", Val: "stylesheet"}, html.Attribute{Key: "href", Val: fetcher.MergedStylesheetPath}))
	}
	if jsMerged && p.doc.Find(`script[src="`+fetcher.MergedScriptPath+`"]`).Length() == 0 {
		p.doc.Find("body").First().AppendNodes(
			elementNode("script", html.Attribute{Key: "src", Val: fetcher.MergedScriptPath}))
	}
}

func (p *pass) rewriteLinks() {
	p.doc.Find("link[href]").Each(func(_ int, s *goquery.Selection) {
		localPath, res := p.resolve(s.AttrOr("href", ""))
		switch {
		case res == mapped:
			s.SetAttr("href", localPath)
			p.stats.Rewritten++
		case res == unmapped && p.strip() && hasRel(s, "stylesheet"):
			s.Remove()
			p.stats.Stripped++
		case res == unmapped && p.strip() && hasRel(s, "icon"):
			s.RemoveAttr("href")
			p.stats.Stripped++
		case res == unmapped:
			p.setUnmapped(s, "href", localPath)
		}
	})
}

func (p *pass) rewriteAttributes() {
	p.doc.Find(attributeSelector).Each(func(_ int, s *goquery.Selection) {
		strippable := p.strip() && isStrippable(s)

		for _, attr := range urlAttributes {
			value, ok := s.Attr(attr)
			if !ok {
				continue
			}
			localPath, res := p.resolve(value)
			switch {
			case res == mapped:
				s.SetAttr(attr, localPath)
				p.stats.Rewritten++
			case res == unmapped && strippable:
				p.stats.Stripped++
				if goquery.NodeName(s) == "script" && attr == "src" {
					s.Remove()
					return
				}
				s.RemoveAttr(attr)
			case res == unmapped:
				p.setUnmapped(s, attr, localPath)
			}
		}

		for _, attr := range srcsetAttributes {
			if value, ok := s.Attr(attr); ok {
				p.rewriteSrcset(s, attr, value, strippable)
			}
		}
	})
}

// absolutizeNavigation pins link targets to the base they were written
// against, since they are never fetched and the <base> is about to go.
func (p *pass) absolutizeNavigation() {
	for _, target := range navigationTargets {
		p.doc.Find(target.selector).Each(func(_ int, s *goquery.Selection) {
			if value, res := p.resolve(s.AttrOr(target.attr, "")); res == unmapped {
				p.setUnmapped(s, target.attr, value)
			}
		})
	}
}

// setUnmapped writes back an unmapped reference that resolve made absolute.
func (p *pass) setUnmapped(s *goquery.Selection, attr, value string) {
	if value == s.AttrOr(attr, "") {
		return
	}
	s.SetAttr(attr, value)
	p.stats.Absolutized++
}

func (p *pass) rewriteSrcset(s *goquery.Selection, attr, value string, strippable bool) {
	changed := false
	var kept []extractor.SrcsetCandidate
	for _, c := range extractor.ParseSrcset(value) {
		localPath, res := p.resolve(c.URL)
		switch {
		case res == mapped:
			c.URL = localPath
			changed = true
			p.stats.Rewritten++
		case res == unmapped && strippable:
			changed = true
			p.stats.Stripped++
			continue
		case res == unmapped && localPath != c.URL:
			c.URL = localPath
			changed = true
			p.stats.Absolutized++
		}
		kept = append(kept, c)
	}

	switch {
	case !changed:
	case len(kept) == 0:
		s.RemoveAttr(attr)
	default:
		s.SetAttr(attr, extractor.FormatSrcset(kept))
	}
}

// rewriteInlineCSS rewrites style attributes and the <style> blocks left in
// the document. Both are served from the output root.
func (p *pass) rewriteInlineCSS() {
	base := p.base.String()

	p.doc.Find("[style]").Each(func(_ int, s *goquery.Selection) {
		value := s.AttrOr("style", "")
		if rewritten := p.r.css.rewrite(value, base, "", p.mapping, p.absolutize); rewritten != value {
			s.SetAttr("style", rewritten)
			p.stats.Rewritten++
		}
	})

	p.doc.Find("style").Each(func(_ int, s *goquery.Selection) {
		value := s.Text()
		rewritten := p.r.css.rewrite(value, base, "", p.mapping, p.absolutize)
		if rewritten == value {
			return
		}
		// SetText would escape the CSS; raw text elements render children verbatim.
		for _, n := range s.Nodes {
			for c := n.FirstChild; c != nil; c = n.FirstChild {
				n.RemoveChild(c)
			}
			n.AppendChild(&html.Node{Type: html.TextNode, Data: rewritten})
		}
		p.stats.Rewritten++
	})
}

func hasRel(s *goquery.Selection, rel string) bool {
	for _, token := range strings.Fields(strings.ToLower(s.AttrOr("rel", ""))) {
		if token == rel {
			return true
		}
	}
	return false
}

func isStrippable(s *goquery.Selection) bool {
	_, ok := strippableElements[goquery.NodeName(s)]
	return ok
}

func elementNode(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attrs,
	}
}
