package history

import (
	"strings"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/aleister1102/mirrorinc/internal/models"
)

// Comparer summarises how a document changed between two runs.
type Comparer struct {
	dmp *diffmatchpatch.DiffMatchPatch
}

// NewComparer creates a comparer.
func NewComparer() *Comparer {
	return &Comparer{dmp: diffmatchpatch.New()}
}

// Compare diffs document against previous line by line and compares the
// downloaded asset sets.
func (c *Comparer) Compare(previous *Run, document string, assetURLs []string) *models.RunComparison {
	comparison := &models.RunComparison{
		PreviousRunID:  previous.RunID,
		PreviousTime:   previous.StartedAt.UTC().Format(time.RFC3339),
		PreviousAssets: len(previous.AssetURLs),
	}

	oldChars, newChars, lines := c.dmp.DiffLinesToChars(previous.Document, document)
	diffs := c.dmp.DiffCharsToLines(c.dmp.DiffMain(oldChars, newChars, false), lines)
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			comparison.LinesAdded += countLines(d.Text)
		case diffmatchpatch.DiffDelete:
			comparison.LinesDeleted += countLines(d.Text)
		}
	}

	before := make(map[string]struct{}, len(previous.AssetURLs))
	for _, u := range previous.AssetURLs {
		before[u] = struct{}{}
	}
	after := make(map[string]struct{}, len(assetURLs))
	for _, u := range assetURLs {
		after[u] = struct{}{}
		if _, ok := before[u]; !ok {
			comparison.AssetsAdded++
		}
	}
	for u := range before {
		if _, ok := after[u]; !ok {
			comparison.AssetsRemoved++
		}
	}

	comparison.Changed = comparison.LinesAdded > 0 || comparison.LinesDeleted > 0 ||
		comparison.AssetsAdded > 0 || comparison.AssetsRemoved > 0
	return comparison
}

func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}
