package renderer

import (
	"encoding/json"

	"github.com/aleister1102/mirrorinc/internal/common"
	"github.com/aleister1102/mirrorinc/internal/models"
)

// extractionScript collects computed background images and @font-face
// sources from the live page. It takes the element limit and returns a JSON
// string so the result crosses the protocol boundary as one value.
const extractionScript = `(maxElements) => {
  const backgrounds = [];
  const fonts = [];
  const seenBackgrounds = new Set();
  const seenFonts = new Set();
  const urlPattern = /url\(\s*(['"]?)(.*?)\1\s*\)/g;
  let skipped = 0;
  let scanned = 0;
  let truncated = false;

  const collect = (value, base, seen, out) => {
    if (!value || value === 'none') return;
    for (const m of value.matchAll(urlPattern)) {
      try {
        const abs = new URL(m[2], base).href;
        if (!seen.has(abs)) {
          seen.add(abs);
          out.push(abs);
        }
      } catch (e) {}
    }
  };

  for (const el of document.querySelectorAll('*')) {
    if (scanned >= maxElements) {
      truncated = true;
      break;
    }
    scanned++;
    collect(window.getComputedStyle(el).backgroundImage, document.baseURI, seenBackgrounds, backgrounds);
    collect(window.getComputedStyle(el, '::before').backgroundImage, document.baseURI, seenBackgrounds, backgrounds);
    collect(window.getComputedStyle(el, '::after').backgroundImage, document.baseURI, seenBackgrounds, backgrounds);
  }

  const walk = (rules, base) => {
    for (const rule of rules) {
      if (rule.type === CSSRule.FONT_FACE_RULE) {
        collect(rule.style.getPropertyValue('src'), base, seenFonts, fonts);
      } else if (rule.styleSheet) {
        try {
          walk(rule.styleSheet.cssRules, rule.styleSheet.href || base);
        } catch (e) {
          skipped++;
        }
      } else if (rule.cssRules) {
        walk(rule.cssRules, base);
      }
    }
  };

  for (const sheet of document.styleSheets) {
    try {
      walk(sheet.cssRules, sheet.href || document.baseURI);
    } catch (e) {
      skipped++;
    }
  }

  return JSON.stringify({
    backgrounds: backgrounds,
    fonts: fonts,
    skipped_stylesheets: skipped,
    elements_scanned: scanned,
    truncated: truncated,
  });
}`

type rawComputedAssets struct {
	Backgrounds        []json.RawMessage `json:"backgrounds"`
	Fonts              []json.RawMessage `json:"fonts"`
	SkippedStylesheets int               `json:"skipped_stylesheets"`
	ElementsScanned    int               `json:"elements_scanned"`
	Truncated          bool              `json:"truncated"`
}

// DecodeComputedAssets validates the extraction script result. Entries that
// are not strings are dropped and counted in Rejected; URL validation of the
// remaining strings happens when the catalog is built.
func DecodeComputedAssets(raw string) (*models.ComputedAssets, error) {
	var decoded rawComputedAssets
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, common.WrapError(err, "failed to decode extraction script result")
	}

	computed := &models.ComputedAssets{
		SkippedStylesheets: max(decoded.SkippedStylesheets, 0),
		ElementsScanned:    max(decoded.ElementsScanned, 0),
		Truncated:          decoded.Truncated,
	}
	computed.Backgrounds = decodeStrings(decoded.Backgrounds, &computed.Rejected)
	computed.Fonts = decodeStrings(decoded.Fonts, &computed.Rejected)
	return computed, nil
}

func decodeStrings(values []json.RawMessage, rejected *int) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			*rejected++
			continue
		}
		out = append(out, s)
	}
	return out
}
