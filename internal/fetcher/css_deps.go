package fetcher

import (
	"net/url"

	"github.com/rs/zerolog"

	"github.com/aleister1102/mirrorinc/internal/catalog"
	"github.com/aleister1102/mirrorinc/internal/extractor"
	"github.com/aleister1102/mirrorinc/internal/models"
)

// DiscoverCSSDependencies scans the fetched external stylesheets among results
// for url() and @import references and appends the unseen ones to cat as wave
// entries. References resolve against the stylesheet's own URL. It returns
// the new entries in discovery order.
func DiscoverCSSDependencies(cat *catalog.Catalog, results []AssetResult, wave int, logger zerolog.Logger) []models.CatalogEntry {
	validator := extractor.NewURLValidator(logger)
	var added []models.CatalogEntry

	for _, r := range results {
		if !r.OK() || r.Entry.Kind != models.KindStylesheet {
			continue
		}
		base, err := url.Parse(r.Entry.SourceURL)
		if err != nil {
			continue
		}

		for _, ref := range extractor.FindCSSReferences(string(r.Body)) {
			resolved := validator.ValidateAndResolveURL(ref.Value, base)
			if !resolved.IsValid {
				continue
			}
			loc := models.ReferenceLocation{Element: "css", Attribute: "url()"}
			if ref.Import {
				loc.Attribute = "@import"
			}
			if cat.AddDiscovered(resolved.AbsoluteURL, extractor.KindForCSSReference(ref), loc, wave) {
				entry, _ := cat.Get(resolved.AbsoluteURL)
				added = append(added, entry)
			}
		}
	}

	if len(added) > 0 {
		logger.Debug().Int("wave", wave).Int("discovered", len(added)).Msg("Discovered stylesheet dependencies")
	}
	return added
}
