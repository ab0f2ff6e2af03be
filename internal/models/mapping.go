package models

// AssetMapping is the ordered source URL to local path table produced after
// fetching. Insertion order is preserved so that serialised output is stable.
type AssetMapping struct {
	paths map[string]string
	order []string
}

// MappingEntry is one row of an AssetMapping.
type MappingEntry struct {
	SourceURL string `json:"source_url"`
	LocalPath string `json:"local_path"`
}

// NewAssetMapping creates an empty mapping.
func NewAssetMapping() *AssetMapping {
	return &AssetMapping{paths: make(map[string]string)}
}

// Set records sourceURL -> localPath. The first assignment wins.
func (m *AssetMapping) Set(sourceURL, localPath string) bool {
	if _, exists := m.paths[sourceURL]; exists {
		return false
	}
	m.paths[sourceURL] = localPath
	m.order = append(m.order, sourceURL)
	return true
}

// Get returns the local path for sourceURL.
func (m *AssetMapping) Get(sourceURL string) (string, bool) {
	if m == nil {
		return "", false
	}
	p, ok := m.paths[sourceURL]
	return p, ok
}

// Len returns the number of mapped URLs.
func (m *AssetMapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.order)
}

// Entries returns the rows in insertion order.
func (m *AssetMapping) Entries() []MappingEntry {
	if m == nil {
		return nil
	}
	entries := make([]MappingEntry, 0, len(m.order))
	for _, u := range m.order {
		entries = append(entries, MappingEntry{SourceURL: u, LocalPath: m.paths[u]})
	}
	return entries
}

// LocalPaths returns the distinct local paths in first-assignment order.
func (m *AssetMapping) LocalPaths() []string {
	if m == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(m.order))
	var paths []string
	for _, u := range m.order {
		p := m.paths[u]
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		paths = append(paths, p)
	}
	return paths
}
