package extractor

import "strings"

// SrcsetCandidate is one image candidate of a srcset attribute.
type SrcsetCandidate struct {
	URL        string
	Descriptor string
}

// ParseSrcset splits a srcset value into candidates. A URL may itself contain
// commas; a candidate ends at a comma that follows the URL token.
func ParseSrcset(srcset string) []SrcsetCandidate {
	var candidates []SrcsetCandidate
	s := srcset
	for {
		s = strings.TrimLeft(s, " \t\r\n\f,")
		if s == "" {
			return candidates
		}

		urlEnd := strings.IndexAny(s, " \t\r\n\f")
		if urlEnd < 0 {
			urlEnd = len(s)
		}
		rawURL := s[:urlEnd]
		s = s[urlEnd:]

		if trimmed := strings.TrimRight(rawURL, ","); trimmed != rawURL {
			candidates = append(candidates, SrcsetCandidate{URL: trimmed})
			continue
		}

		descriptor := s
		if comma := strings.IndexByte(s, ','); comma >= 0 {
			descriptor = s[:comma]
			s = s[comma+1:]
		} else {
			s = ""
		}
		candidates = append(candidates, SrcsetCandidate{URL: rawURL, Descriptor: strings.TrimSpace(descriptor)})
	}
}

// FormatSrcset serializes candidates back into a srcset value.
func FormatSrcset(candidates []SrcsetCandidate) string {
	parts := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c.Descriptor == "" {
			parts = append(parts, c.URL)
			continue
		}
		parts = append(parts, c.URL+" "+c.Descriptor)
	}
	return strings.Join(parts, ", ")
}
