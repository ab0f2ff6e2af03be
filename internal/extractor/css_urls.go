package extractor

import (
	"regexp"
	"sort"
	"strings"
)

var (
	// url( "a" ) | url('a') | url(a) | url()
	cssURLRegex = regexp.MustCompile(`(?i)url\(\s*(?:"([^"]*)"|'([^']*)'|([^'"\)\s][^)\s]*|))\s*\)`)
	// @import "a" | @import 'a'; the url() form is matched by cssURLRegex.
	cssImportStringRegex = regexp.MustCompile(`(?i)@import\s+(?:"([^"]*)"|'([^']*)')`)
	cssCommentRegex      = regexp.MustCompile(`(?s)/\*.*?\*/`)
	fontFaceRegex        = regexp.MustCompile(`(?i)@font-face\s*\{`)
)

// CSSReference is one URL occurrence inside a stylesheet.
type CSSReference struct {
	// Value is the URL text without quotes.
	Value string
	// Start and End delimit Value in the scanned text.
	Start int
	End   int
	// Import marks @import targets.
	Import bool
	// InFontFace marks url() values inside an @font-face block.
	InFontFace bool
}

type byteRange struct{ start, end int }

func (r byteRange) contains(pos int) bool { return pos >= r.start && pos < r.end }

func inAnyRange(ranges []byteRange, pos int) bool {
	for _, r := range ranges {
		if r.contains(pos) {
			return true
		}
	}
	return false
}

// FindCSSReferences returns every url() and @import reference in css, ordered
// by position. References inside comments are ignored.
func FindCSSReferences(css string) []CSSReference {
	comments := commentRanges(css)
	fontFaces := fontFaceRanges(css)

	var refs []CSSReference
	for _, m := range cssURLRegex.FindAllStringSubmatchIndex(css, -1) {
		if inAnyRange(comments, m[0]) {
			continue
		}
		start, end := firstGroup(m)
		if start < 0 {
			continue
		}
		refs = append(refs, CSSReference{
			Value:      css[start:end],
			Start:      start,
			End:        end,
			Import:     precededByImport(css, m[0]),
			InFontFace: inAnyRange(fontFaces, m[0]),
		})
	}

	for _, m := range cssImportStringRegex.FindAllStringSubmatchIndex(css, -1) {
		if inAnyRange(comments, m[0]) {
			continue
		}
		start, end := firstGroup(m)
		if start < 0 {
			continue
		}
		refs = append(refs, CSSReference{Value: css[start:end], Start: start, End: end, Import: true})
	}

	sort.SliceStable(refs, func(i, j int) bool { return refs[i].Start < refs[j].Start })
	return refs
}

// RewriteCSSReferences replaces the Value span of each reference for which
// replace returns true. Quotes and surrounding syntax are left as they were.
func RewriteCSSReferences(css string, replace func(ref CSSReference) (string, bool)) string {
	refs := FindCSSReferences(css)
	if len(refs) == 0 {
		return css
	}

	var b strings.Builder
	b.Grow(len(css))
	last := 0
	for _, ref := range refs {
		replacement, ok := replace(ref)
		if !ok {
			continue
		}
		b.WriteString(css[last:ref.Start])
		b.WriteString(replacement)
		last = ref.End
	}
	b.WriteString(css[last:])
	return b.String()
}

// firstGroup returns the span of the first participating capture group.
// An empty unquoted url() yields an empty span and is reported as absent.
func firstGroup(m []int) (int, int) {
	for g := 1; g*2+1 < len(m); g++ {
		start, end := m[g*2], m[g*2+1]
		if start >= 0 && end > start {
			return start, end
		}
	}
	return -1, -1
}

func precededByImport(css string, pos int) bool {
	before := strings.TrimRight(css[:pos], " \t\r\n")
	return strings.HasSuffix(strings.ToLower(before), "@import")
}

func commentRanges(css string) []byteRange {
	var ranges []byteRange
	for _, m := range cssCommentRegex.FindAllStringIndex(css, -1) {
		ranges = append(ranges, byteRange{m[0], m[1]})
	}
	return ranges
}

// fontFaceRanges returns the spans of @font-face blocks, braces included.
func fontFaceRanges(css string) []byteRange {
	var ranges []byteRange
	for _, m := range fontFaceRegex.FindAllStringIndex(css, -1) {
		depth := 1
		end := len(css)
		for i := m[1]; i < len(css); i++ {
			switch css[i] {
			case '{':
				depth++
			case '}':
				depth--
			}
			if depth == 0 {
				end = i + 1
				break
			}
		}
		ranges = append(ranges, byteRange{m[0], end})
	}
	return ranges
}
