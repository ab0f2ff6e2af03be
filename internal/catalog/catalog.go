package catalog

import (
	"net/url"

	"github.com/aleister1102/mirrorinc/internal/models"
)

// Catalog is the deduplicated, ordered set of assets referenced by a document.
type Catalog struct {
	BaseURL *url.URL
	// Entries are in first-seen order; Entries[i].Order == i.
	Entries []models.CatalogEntry
	// References lists every occurrence, including duplicates.
	References []models.AssetReference
	// Rejected counts browser-provided values that failed validation.
	Rejected int

	index map[string]int
}

func newCatalog(base *url.URL) *Catalog {
	return &Catalog{
		BaseURL: base,
		index:   make(map[string]int),
	}
}

// add records one occurrence. It returns true when a new entry was created.
func (c *Catalog) add(sourceURL string, kind models.AssetKind, loc models.ReferenceLocation, wave int) bool {
	c.References = append(c.References, models.AssetReference{SourceURL: sourceURL, Kind: kind, Location: loc})

	if i, exists := c.index[sourceURL]; exists {
		c.Entries[i].Occurrences++
		return false
	}

	c.index[sourceURL] = len(c.Entries)
	c.Entries = append(c.Entries, models.CatalogEntry{
		SourceURL:   sourceURL,
		Kind:        kind,
		Order:       len(c.Entries),
		Occurrences: 1,
		FirstSeen:   loc,
		Wave:        wave,
	})
	return true
}

func (c *Catalog) addInline(block InlineBlock) {
	if c.add(block.Key(), block.Kind, models.ReferenceLocation{Element: inlineElementName(block), Attribute: "inline"}, 0) {
		entry := &c.Entries[c.index[block.Key()]]
		entry.InlineIndex = block.Index
		entry.Content = block.Content
	}
}

func inlineElementName(block InlineBlock) string {
	if block.Kind == models.KindInlineStyle {
		return "style"
	}
	return "script"
}

// AddDiscovered appends a reference found after the first wave, such as a
// url() inside a fetched stylesheet. Known URLs only gain an occurrence.
func (c *Catalog) AddDiscovered(sourceURL string, kind models.AssetKind, via models.ReferenceLocation, wave int) bool {
	return c.add(sourceURL, kind, via, wave)
}

// Len returns the number of distinct entries.
func (c *Catalog) Len() int {
	return len(c.Entries)
}

// Get returns the entry for a normalized URL or inline key.
func (c *Catalog) Get(sourceURL string) (models.CatalogEntry, bool) {
	i, ok := c.index[sourceURL]
	if !ok {
		return models.CatalogEntry{}, false
	}
	return c.Entries[i], true
}

// CountByKind returns the number of entries of each kind, with every kind present.
func (c *Catalog) CountByKind() map[models.AssetKind]int {
	counts := make(map[models.AssetKind]int, len(models.AllAssetKinds))
	for _, k := range models.AllAssetKinds {
		counts[k] = 0
	}
	for _, e := range c.Entries {
		counts[e.Kind]++
	}
	return counts
}

// EntriesFromWave returns entries first seen in the given wave.
func (c *Catalog) EntriesFromWave(wave int) []models.CatalogEntry {
	var out []models.CatalogEntry
	for _, e := range c.Entries {
		if e.Wave == wave {
			out = append(out, e)
		}
	}
	return out
}
