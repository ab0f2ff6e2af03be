package catalog

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/aleister1102/mirrorinc/internal/models"
)

// InlineBlock is an eligible inline <style> or <script> element.
type InlineBlock struct {
	Index     int
	Kind      models.AssetKind
	Content   string
	Selection *goquery.Selection
}

// Key returns the synthetic catalog key of the block.
func (b InlineBlock) Key() string {
	return models.InlineKey(b.Kind, b.Index)
}

var javaScriptTypes = map[string]struct{}{
	"":                         {},
	"module":                   {},
	"text/javascript":          {},
	"application/javascript":   {},
	"application/x-javascript": {},
	"text/ecmascript":          {},
	"application/ecmascript":   {},
	"text/jscript":             {},
	"text/livescript":          {},
	"text/x-javascript":        {},
	"text/x-ecmascript":        {},
}

// IsJavaScriptType reports whether a <script type> value denotes executable JavaScript.
func IsJavaScriptType(scriptType string) bool {
	t := strings.ToLower(strings.TrimSpace(scriptType))
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	_, ok := javaScriptTypes[t]
	return ok
}

// IsEligibleStyle reports whether a <style> element is catalogued as an inline block.
func IsEligibleStyle(s *goquery.Selection) bool {
	return strings.TrimSpace(s.Text()) != ""
}

// IsEligibleScript reports whether a <script> element is catalogued as an
// inline block: no src, a JavaScript type and some content.
func IsEligibleScript(s *goquery.Selection) bool {
	if _, hasSrc := s.Attr("src"); hasSrc {
		return false
	}
	if !IsJavaScriptType(s.AttrOr("type", "")) {
		return false
	}
	return strings.TrimSpace(s.Text()) != ""
}

// InlineStyles returns eligible <style> blocks in document order.
func InlineStyles(doc *goquery.Document) []InlineBlock {
	var blocks []InlineBlock
	doc.Find("style").Each(func(_ int, s *goquery.Selection) {
		if !IsEligibleStyle(s) {
			return
		}
		blocks = append(blocks, InlineBlock{Index: len(blocks), Kind: models.KindInlineStyle, Content: s.Text(), Selection: s})
	})
	return blocks
}

// InlineScripts returns eligible <script> blocks in document order.
func InlineScripts(doc *goquery.Document) []InlineBlock {
	var blocks []InlineBlock
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if !IsEligibleScript(s) {
			return
		}
		blocks = append(blocks, InlineBlock{Index: len(blocks), Kind: models.KindInlineScript, Content: s.Text(), Selection: s})
	})
	return blocks
}
