package rewriter

import (
	"strings"

	"github.com/aleister1102/mirrorinc/internal/models"
	"github.com/aleister1102/mirrorinc/internal/urlhandler"
)

// localIndex answers whether a reference already names a file in the output tree.
type localIndex struct {
	paths []string
	byDir map[string]map[string]struct{}
}

func newLocalIndex(mapping *models.AssetMapping) *localIndex {
	return &localIndex{
		paths: mapping.LocalPaths(),
		byDir: make(map[string]map[string]struct{}),
	}
}

// contains reports whether value, seen from fromDir, is one of the mapped local paths.
func (li *localIndex) contains(fromDir, value string) bool {
	value, _ = urlhandler.SplitFragment(strings.TrimSpace(value))
	if value == "" {
		return false
	}
	set, ok := li.byDir[fromDir]
	if !ok {
		set = make(map[string]struct{}, len(li.paths))
		for _, p := range li.paths {
			set[urlhandler.RelativePath(fromDir, p)] = struct{}{}
		}
		li.byDir[fromDir] = set
	}
	_, found := set[strings.TrimPrefix(value, "./")]
	return found
}
