package renderer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleister1102/mirrorinc/internal/common"
	"github.com/aleister1102/mirrorinc/internal/config"
	"github.com/aleister1102/mirrorinc/internal/fetcher"
)

func TestNew_SelectsEngine(t *testing.T) {
	cfg := config.NewDefaultRendererConfig()

	r, err := New(cfg, Options{Screenshot: true, MaxComputedElements: 10}, zerolog.Nop())
	require.NoError(t, err)
	browser, ok := r.(*BrowserRenderer)
	require.True(t, ok)
	assert.True(t, browser.screenshot)
	assert.Equal(t, 10, browser.maxComputedElements)
	assert.NoError(t, browser.Close())

	cfg.Engine = config.EngineHTTP
	r, err = New(cfg, Options{}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &StaticRenderer{}, r)

	cfg.Engine = "gecko"
	_, err = New(cfg, Options{}, zerolog.Nop())
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestStaticRenderer_FollowsRedirects(t *testing.T) {
	var userAgent string
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/landing", http.StatusFound)
	})
	mux.HandleFunc("/landing", func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.UserAgent()
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title> Landing </title></head><body><img src="a.png"></body></html>`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	cfg := config.NewDefaultRendererConfig()
	cfg.UserAgent = "mirrorinc-test"
	page, err := NewStaticRenderer(cfg, zerolog.Nop()).Render(context.Background(), server.URL+"/start")
	require.NoError(t, err)

	assert.Equal(t, server.URL+"/landing", page.FinalURL)
	assert.Equal(t, page.FinalURL, page.Snapshot.URL)
	assert.Equal(t, "Landing", page.Title)
	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.Contains(t, page.Snapshot.HTML, `<img src="a.png">`)
	assert.Nil(t, page.Snapshot.Computed)
	assert.Nil(t, page.Screenshot)
	assert.Equal(t, "mirrorinc-test", userAgent)
}

func TestStaticRenderer_ErrorStatusIsNavigationError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	_, err := NewStaticRenderer(config.NewDefaultRendererConfig(), zerolog.Nop()).Render(context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNavigation))
}

func TestStaticRenderer_UnreachableHost(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	target := server.URL
	server.Close()

	_, err := NewStaticRenderer(config.NewDefaultRendererConfig(), zerolog.Nop()).Render(context.Background(), target)
	assert.ErrorIs(t, err, ErrNavigation)
}

func TestDecodeComputedAssets(t *testing.T) {
	computed, err := DecodeComputedAssets(`{"backgrounds":["https://ex.com/a.png",42,null,"/b.png"],"fonts":[{"u":1},"https://ex.com/f.woff2"],"skipped_stylesheets":2,"elements_scanned":-5,"truncated":true}`)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://ex.com/a.png", "", "/b.png"}, computed.Backgrounds)
	assert.Equal(t, []string{"https://ex.com/f.woff2"}, computed.Fonts)
	assert.Equal(t, 2, computed.Rejected)
	assert.Equal(t, 2, computed.SkippedStylesheets)
	assert.Equal(t, 0, computed.ElementsScanned)
	assert.True(t, computed.Truncated)

	_, err = DecodeComputedAssets(`not json`)
	assert.Error(t, err)
}

func TestDecodePageFetch(t *testing.T) {
	resp, err := decodePageFetch("https://ex.com/a.txt", `{"status":200,"content_type":"text/plain","data":"aGVsbG8="}`)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(resp.Body))
	assert.Equal(t, "text/plain", resp.ContentType)

	_, err = decodePageFetch("https://ex.com/a.txt", `{"status":503,"error":"HTTP 503"}`)
	fe := fetcher.AsFetchError("https://ex.com/a.txt", err)
	assert.Equal(t, 503, fe.StatusCode)
	assert.True(t, fe.Transient())

	_, err = decodePageFetch("https://ex.com/a.txt", `{"status":0,"error":"Failed to fetch"}`)
	fe = fetcher.AsFetchError("https://ex.com/a.txt", err)
	assert.Equal(t, "network error: Failed to fetch", fe.Describe())

	_, err = decodePageFetch("https://ex.com/a.txt", `{"status":200,"data":"%%%"}`)
	assert.Error(t, err)
}

func TestFetchInPage_RequiresRenderedPage(t *testing.T) {
	r := NewBrowserRenderer(config.NewDefaultRendererConfig(), zerolog.Nop())
	_, err := r.FetchInPage(context.Background(), "https://ex.com/a.png")
	assert.ErrorIs(t, err, ErrNoPage)
}
