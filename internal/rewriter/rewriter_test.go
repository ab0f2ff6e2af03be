package rewriter

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleister1102/mirrorinc/internal/config"
	"github.com/aleister1102/mirrorinc/internal/fetcher"
	"github.com/aleister1102/mirrorinc/internal/models"
)

const fullPage = `<!DOCTYPE html>
<html><head>
<base href="https://cdn.ex.com/assets/">
<link rel="stylesheet" href="site.css">
<link rel="icon" href="/favicon.ico">
<link rel="canonical" href="https://ex.com/">
<style media="screen">.a > .hero{background:url(img/hero.jpg)}</style>
</head><body>
<img src="logo.png" srcset="logo.png 1x, logo@2x.png 2x" alt="logo">
<div style="background-image:url('img/bg.png#frag')"></div>
<video poster="poster.jpg"><source src="movie.mp4"></video>
<script src="app.js"></script>
<script type="module" nonce="n1">console.log("hi")</script>
<a href="/about">About</a>
</body></html>`

func fullPageMapping() *models.AssetMapping {
	return mappingOf(
		"https://cdn.ex.com/assets/site.css", "css/site.css",
		"inline-style:0", "css/inline_0.css",
		"https://cdn.ex.com/assets/app.js", "js/app.js",
		"inline-script:0", "js/inline_0.js",
		"https://cdn.ex.com/assets/logo.png", "images/logo.png",
		"https://cdn.ex.com/assets/logo@2x.png", "images/logo_2x.png",
		"https://cdn.ex.com/favicon.ico", "images/favicon.ico",
		"https://cdn.ex.com/assets/img/hero.jpg", "images/hero.jpg",
		"https://cdn.ex.com/assets/img/bg.png", "images/bg.png",
		"https://cdn.ex.com/assets/poster.jpg", "images/poster.jpg",
		"https://cdn.ex.com/assets/movie.mp4", "videos/movie.mp4",
	)
}

func newTestRewriter(policy string, externalize bool, mode string) *Rewriter {
	return NewRewriter(config.RewriterConfig{ExternalizeInline: externalize, FailedPolicy: policy}, mode, zerolog.Nop())
}

func parse(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	require.NoError(t, err)
	return doc
}

func attrs(doc *goquery.Document, selector, attr string) []string {
	return doc.Find(selector).Map(func(_ int, s *goquery.Selection) string {
		return s.AttrOr(attr, "<none>")
	})
}

func TestRewrite_PerFile(t *testing.T) {
	rw := newTestRewriter(config.FailedPolicyKeep, true, config.OutputModePerFile)

	out, stats, err := rw.RewriteWithStats(fullPage, "https://ex.com/index.html", fullPageMapping())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Equal(t, 2, stats.Externalized)

	doc := parse(t, out)
	assert.Equal(t, 0, doc.Find("base").Length())
	assert.Equal(t, 0, doc.Find("style").Length())
	assert.Equal(t, []string{"css/site.css", "css/inline_0.css"}, attrs(doc, `link[rel="stylesheet"]`, "href"))
	assert.Equal(t, []string{"<none>", "screen"}, attrs(doc, `link[rel="stylesheet"]`, "media"))
	assert.Equal(t, []string{"images/favicon.ico"}, attrs(doc, `link[rel="icon"]`, "href"))
	assert.Equal(t, []string{"https://ex.com/"}, attrs(doc, `link[rel="canonical"]`, "href"))
	assert.Equal(t, []string{"images/logo.png"}, attrs(doc, "img", "src"))
	assert.Equal(t, []string{"images/logo.png 1x, images/logo_2x.png 2x"}, attrs(doc, "img", "srcset"))
	assert.Equal(t, []string{"background-image:url('images/bg.png#frag')"}, attrs(doc, "div", "style"))
	assert.Equal(t, []string{"images/poster.jpg"}, attrs(doc, "video", "poster"))
	assert.Equal(t, []string{"videos/movie.mp4"}, attrs(doc, "source", "src"))
	assert.Equal(t, []string{"js/app.js", "js/inline_0.js"}, attrs(doc, "script", "src"))
	assert.Equal(t, []string{"<none>", "module"}, attrs(doc, "script", "type"))
	assert.Equal(t, []string{"<none>", "n1"}, attrs(doc, "script", "nonce"))
	assert.Equal(t, []string{"https://cdn.ex.com/about"}, attrs(doc, "a", "href"))
}

func TestRewrite_Idempotent(t *testing.T) {
	for _, mode := range []string{config.OutputModePerFile, config.OutputModeMerged} {
		for _, policy := range []string{config.FailedPolicyKeep, config.FailedPolicyStrip} {
			t.Run(mode+"/"+policy, func(t *testing.T) {
				rw := newTestRewriter(policy, true, mode)
				mapping := fullPageMapping()
				if mode == config.OutputModeMerged {
					mapping = mergedMapping()
				}

				once, err := rw.Rewrite(fullPage, "https://ex.com/index.html", mapping)
				require.NoError(t, err)
				twice, err := rw.Rewrite(once, "https://ex.com/index.html", mapping)
				require.NoError(t, err)
				assert.Equal(t, once, twice)
			})
		}
	}
}

func TestRewrite_InlineStyleKeptWhenNotExternalized(t *testing.T) {
	rw := newTestRewriter(config.FailedPolicyKeep, false, config.OutputModePerFile)

	out, err := rw.Rewrite(fullPage, "https://ex.com/index.html", fullPageMapping())
	require.NoError(t, err)

	assert.Contains(t, out, "<style media=\"screen\">.a > .hero{background:url(images/hero.jpg)}</style>")
	doc := parse(t, out)
	assert.Equal(t, []string{"css/site.css"}, attrs(doc, `link[rel="stylesheet"]`, "href"))
	assert.Equal(t, 2, doc.Find("script").Length())
}

func TestRewrite_UnmappedInlineBlockKeepsOrdinals(t *testing.T) {
	page := `<html><head><style>a{}</style><style>b{background:url(/x.png)}</style></head><body></body></html>`
	mapping := mappingOf("inline-style:0", "css/inline_0.css", "https://ex.com/x.png", "images/x.png")
	rw := newTestRewriter(config.FailedPolicyKeep, true, config.OutputModePerFile)

	once, err := rw.Rewrite(page, "https://ex.com/", mapping)
	require.NoError(t, err)
	doc := parse(t, once)
	assert.Equal(t, []string{"css/inline_0.css"}, attrs(doc, "link", "href"))
	assert.Equal(t, "b{background:url(images/x.png)}", doc.Find("style").Text())

	twice, err := rw.Rewrite(once, "https://ex.com/", mapping)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func mergedMapping() *models.AssetMapping {
	m := fullPageMapping()
	merged := models.NewAssetMapping()
	for _, e := range m.Entries() {
		switch {
		case strings.HasPrefix(e.LocalPath, "css/"):
			merged.Set(e.SourceURL, fetcher.MergedStylesheetPath)
		case strings.HasPrefix(e.LocalPath, "js/"):
			merged.Set(e.SourceURL, fetcher.MergedScriptPath)
		default:
			merged.Set(e.SourceURL, e.LocalPath)
		}
	}
	return merged
}

func TestRewrite_Merged(t *testing.T) {
	page := `<html><head><link rel="stylesheet" href="/a.css"><style>p{color:red}</style><link rel="stylesheet" href="/missing.css"></head>
<body><script src="/x.js"></script><script>var y=1</script><img src="/i.png"></body></html>`
	mapping := mappingOf(
		"https://ex.com/a.css", fetcher.MergedStylesheetPath,
		"inline-style:0", fetcher.MergedStylesheetPath,
		"https://ex.com/x.js", fetcher.MergedScriptPath,
		"inline-script:0", fetcher.MergedScriptPath,
		"https://ex.com/i.png", "images/i.png",
	)
	rw := newTestRewriter(config.FailedPolicyKeep, true, config.OutputModeMerged)

	out, stats, err := rw.RewriteWithStats(page, "https://ex.com/", mapping)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Merged)

	doc := parse(t, out)
	assert.Equal(t, []string{"/missing.css", fetcher.MergedStylesheetPath}, attrs(doc, "head link", "href"))
	assert.Equal(t, 0, doc.Find("style").Length())
	assert.Equal(t, []string{fetcher.MergedScriptPath}, attrs(doc, "script", "src"))
	assert.Equal(t, 1, doc.Find("body > script").Length())
	assert.Equal(t, []string{"images/i.png"}, attrs(doc, "img", "src"))
}

const failurePage = `<html><head><link rel="stylesheet" href="/gone.css"><link rel="icon" href="/gone.ico"></head>
<body><img src="/gone.png" srcset="/ok.png 1x, /gone2.png 2x" alt="x"><img src="/gone3.png" srcset="/gone4.png 2x">
<script src="/gone.js"></script><iframe src="/frame.html"></iframe><div style="background:url(/gone5.png)"></div></body></html>`

func TestRewrite_StripPolicy(t *testing.T) {
	rw := newTestRewriter(config.FailedPolicyStrip, true, config.OutputModePerFile)

	out, stats, err := rw.RewriteWithStats(failurePage, "https://ex.com/", mappingOf("https://ex.com/ok.png", "images/ok.png"))
	require.NoError(t, err)
	assert.Equal(t, 7, stats.Stripped)

	doc := parse(t, out)
	assert.Equal(t, 0, doc.Find(`link[rel="stylesheet"]`).Length())
	assert.Equal(t, []string{"<none>"}, attrs(doc, `link[rel="icon"]`, "href"))
	assert.Equal(t, []string{"<none>", "<none>"}, attrs(doc, "img", "src"))
	assert.Equal(t, []string{"images/ok.png 1x", "<none>"}, attrs(doc, "img", "srcset"))
	assert.Equal(t, 0, doc.Find("script").Length())
	assert.Equal(t, []string{"/frame.html"}, attrs(doc, "iframe", "src"))
	assert.Equal(t, []string{"background:url(/gone5.png)"}, attrs(doc, "div", "style"))
}

func TestRewrite_KeepPolicy(t *testing.T) {
	rw := newTestRewriter(config.FailedPolicyKeep, true, config.OutputModePerFile)

	out, stats, err := rw.RewriteWithStats(failurePage, "https://ex.com/", mappingOf("https://ex.com/ok.png", "images/ok.png"))
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Stripped)
	assert.Equal(t, 1, stats.Rewritten)

	doc := parse(t, out)
	assert.Equal(t, []string{"/gone.css"}, attrs(doc, `link[rel="stylesheet"]`, "href"))
	assert.Equal(t, []string{"/gone.png", "/gone3.png"}, attrs(doc, "img", "src"))
	assert.Equal(t, []string{"images/ok.png 1x, /gone2.png 2x", "/gone4.png 2x"}, attrs(doc, "img", "srcset"))
	assert.Equal(t, []string{"/gone.js"}, attrs(doc, "script", "src"))
}

func TestRewrite_KeepPolicyAbsolutizesAgainstRemovedBase(t *testing.T) {
	page := `<html><head><base href="https://cdn.ex.com/assets/"><link rel="preload" href="font.woff2"></head>
<body><img id="a" src="fail.png#top" srcset="ok.png 1x, fail@2x.png 2x"><img id="b" src="//img.ex.net/x.png">
<div style="background:url(img/fail.jpg)"></div><a href="../about">About</a><a href="#top">Top</a></body></html>`
	mapping := mappingOf("https://cdn.ex.com/assets/ok.png", "images/ok.png")
	rw := newTestRewriter(config.FailedPolicyKeep, true, config.OutputModePerFile)

	once, stats, err := rw.RewriteWithStats(page, "https://ex.com/", mapping)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Rewritten)
	assert.Equal(t, 5, stats.Absolutized)

	doc := parse(t, once)
	assert.Equal(t, 0, doc.Find("base").Length())
	assert.Equal(t, []string{"https://cdn.ex.com/assets/font.woff2"}, attrs(doc, "link", "href"))
	assert.Equal(t, []string{"https://cdn.ex.com/assets/fail.png#top"}, attrs(doc, "#a", "src"))
	assert.Equal(t, []string{"images/ok.png 1x, https://cdn.ex.com/assets/fail@2x.png 2x"}, attrs(doc, "#a", "srcset"))
	assert.Equal(t, []string{"https://img.ex.net/x.png"}, attrs(doc, "#b", "src"))
	assert.Equal(t, []string{"background:url(https://cdn.ex.com/assets/img/fail.jpg)"}, attrs(doc, "div", "style"))
	assert.Equal(t, []string{"https://cdn.ex.com/about", "#top"}, attrs(doc, "a", "href"))

	twice, err := rw.Rewrite(once, "https://ex.com/", mapping)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestRewrite_MappedReferenceWinsOverLocalLookalike(t *testing.T) {
	page := `<html><head></head><body><img id="a" src="https://cdn.other.com/logo.png"><img id="b" src="images/logo.png">
<div style="background:url(images/logo.png)"></div></body></html>`
	mapping := mappingOf(
		"https://cdn.other.com/logo.png", "images/logo.png",
		"https://ex.com/images/logo.png", "images/logo_1.png",
	)
	rw := newTestRewriter(config.FailedPolicyKeep, true, config.OutputModePerFile)

	out, err := rw.Rewrite(page, "https://ex.com/", mapping)
	require.NoError(t, err)

	doc := parse(t, out)
	assert.Equal(t, []string{"images/logo.png"}, attrs(doc, "#a", "src"))
	assert.Equal(t, []string{"images/logo_1.png"}, attrs(doc, "#b", "src"))
	assert.Equal(t, []string{"background:url(images/logo_1.png)"}, attrs(doc, "div", "style"))
}

func TestRewrite_NilMapping(t *testing.T) {
	out, err := newTestRewriter(config.FailedPolicyKeep, true, config.OutputModePerFile).
		Rewrite(`<p>hello</p>`, "https://ex.com/", nil)
	require.NoError(t, err)
	assert.Equal(t, "<html><head></head><body><p>hello</p></body></html>", out)
}
