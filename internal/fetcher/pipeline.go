package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aleister1102/mirrorinc/internal/catalog"
	"github.com/aleister1102/mirrorinc/internal/config"
	"github.com/aleister1102/mirrorinc/internal/datastore"
	"github.com/aleister1102/mirrorinc/internal/models"
)

// BodyTransform rewrites a stylesheet body before it is written. baseURL is
// the URL its relative references resolve against and fromDir the directory
// it will be served from.
type BodyTransform func(entry models.CatalogEntry, body []byte, baseURL, fromDir string, mapping *models.AssetMapping) []byte

// PipelineResult is the contract of one fetch run: mapping, downloads and failures.
type PipelineResult struct {
	Mapping    *models.AssetMapping
	Downloaded []models.DownloadedAsset
	Failures   []models.FetchFailure
	// Partial is set when the deadline cut the run short.
	Partial bool
	Waves   int
}

// Pipeline fetches a catalog, follows stylesheet dependencies, names and
// writes the results.
type Pipeline struct {
	fetcher   *Fetcher
	namer     *Namer
	tree      *datastore.OutputTree
	transform BodyTransform
	progress  ProgressReporter
	depth     int
	logger    zerolog.Logger

	// keepInline leaves inline blocks in the document, so they are never
	// named or written.
	keepInline bool
}

// NewPipeline wires a pipeline together.
func NewPipeline(fetcher *Fetcher, namer *Namer, tree *datastore.OutputTree, cfg config.FetcherConfig, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		fetcher: fetcher,
		namer:   namer,
		tree:    tree,
		depth:   cfg.CSSDependencyDepth,
		logger:  logger.With().Str("component", "FetchPipeline").Logger(),
	}
}

// WithBodyTransform sets the stylesheet transform.
func (p *Pipeline) WithBodyTransform(transform BodyTransform) *Pipeline {
	p.transform = transform
	return p
}

// WithInlineBlocksKept stops inline blocks from being written as files in
// per-file mode. Merged mode always folds them into the merged files.
func (p *Pipeline) WithInlineBlocksKept(keep bool) *Pipeline {
	p.keepInline = keep
	return p
}

// WithProgress sets the reporter notified when each wave starts.
func (p *Pipeline) WithProgress(progress ProgressReporter) *Pipeline {
	p.progress = progress
	p.fetcher.WithProgress(progress)
	return p
}

// Run fetches every catalog entry and writes the successful ones. Only
// filesystem errors are returned; per-asset problems end up in Failures.
func (p *Pipeline) Run(ctx context.Context, cat *catalog.Catalog, fn FetchFunc) (*PipelineResult, error) {
	result := &PipelineResult{}

	entries := cat.Entries
	var all []AssetResult
	abandoned := 0
	for wave := 0; ; wave++ {
		if p.progress != nil {
			p.progress.Start(fmt.Sprintf("wave %d", wave), len(entries))
		}
		outcome := p.fetcher.FetchAll(ctx, entries, fn)
		all = append(all, outcome.Results...)
		abandoned += outcome.Abandoned
		result.Waves = wave + 1

		if wave >= p.depth || ctx.Err() != nil {
			break
		}
		entries = DiscoverCSSDependencies(cat, outcome.Results, wave+1, p.logger)
		if len(entries) == 0 {
			break
		}
	}
	result.Partial = abandoned > 0 || ctx.Err() != nil

	named := all
	if p.keepInline && !p.namer.Merged() {
		named = withoutInline(all)
	}
	result.Mapping, result.Downloaded = p.namer.Assign(named, cat.BaseURL)
	for _, r := range all {
		if r.Failure != nil {
			result.Failures = append(result.Failures, *r.Failure)
		}
	}

	if err := p.write(cat, named, result.Mapping); err != nil {
		return result, err
	}

	p.logger.Info().
		Int("catalogued", cat.Len()).
		Int("downloaded", len(result.Downloaded)).
		Int("failed", len(result.Failures)).
		Int("waves", result.Waves).
		Bool("partial", result.Partial).
		Msg("Fetch pipeline finished")
	return result, nil
}

func (p *Pipeline) write(cat *catalog.Catalog, results []AssetResult, mapping *models.AssetMapping) error {
	var mergedCSS, mergedJS bytes.Buffer
	documentBase := ""
	if cat.BaseURL != nil {
		documentBase = cat.BaseURL.String()
	}

	for _, r := range results {
		if !r.OK() {
			continue
		}
		localPath, ok := mapping.Get(r.Entry.SourceURL)
		if !ok {
			continue
		}

		body := r.Body
		if r.Entry.Kind.IsStyle() && p.transform != nil {
			baseURL := r.Entry.SourceURL
			if r.Entry.Kind.IsInline() {
				baseURL = documentBase
			}
			body = p.transform(r.Entry, body, baseURL, path.Dir(localPath), mapping)
		}

		switch {
		case p.namer.Merged() && r.Entry.Kind.IsStyle():
			appendMerged(&mergedCSS, r.Entry.SourceURL, body, "\n")
		case p.namer.Merged() && r.Entry.Kind.IsScript():
			appendMerged(&mergedJS, r.Entry.SourceURL, body, ";\n")
		default:
			if err := p.tree.Write(localPath, body); err != nil {
				return err
			}
		}
	}

	if mergedCSS.Len() > 0 {
		if err := p.tree.Write(MergedStylesheetPath, mergedCSS.Bytes()); err != nil {
			return err
		}
	}
	if mergedJS.Len() > 0 {
		if err := p.tree.Write(MergedScriptPath, mergedJS.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

func withoutInline(results []AssetResult) []AssetResult {
	kept := make([]AssetResult, 0, len(results))
	for _, r := range results {
		if !r.Entry.Kind.IsInline() {
			kept = append(kept, r)
		}
	}
	return kept
}

// appendMerged adds one source to a merged file, headed by a comment naming it.
func appendMerged(buf *bytes.Buffer, source string, body []byte, separator string) {
	if buf.Len() > 0 {
		buf.WriteString(separator)
	}
	fmt.Fprintf(buf, "/* source: %s */\n", strings.ReplaceAll(source, "*/", "*%2F"))
	buf.Write(body)
}
