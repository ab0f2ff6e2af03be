package renderer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"

	"github.com/aleister1102/mirrorinc/internal/common"
	"github.com/aleister1102/mirrorinc/internal/fetcher"
)

// ErrNoPage is returned by FetchInPage before a page has been rendered.
var ErrNoPage = errors.New("no rendered page available")

// pageFetchScript downloads one URL with the page's own fetch, so cookies,
// referrer and origin match the rendered document.
const pageFetchScript = `async (url) => {
  try {
    const res = await fetch(url, { credentials: 'include' });
    if (!res.ok) {
      return JSON.stringify({ status: res.status, error: 'HTTP ' + res.status });
    }
    const bytes = new Uint8Array(await res.arrayBuffer());
    let binary = '';
    for (let i = 0; i < bytes.length; i += 0x8000) {
      binary += String.fromCharCode.apply(null, bytes.subarray(i, i + 0x8000));
    }
    return JSON.stringify({
      status: res.status,
      content_type: res.headers.get('content-type') || '',
      data: btoa(binary),
    });
  } catch (e) {
    return JSON.stringify({ status: 0, error: String(e && e.message ? e.message : e) });
  }
}`

type pageFetchResult struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Data        string `json:"data"`
	Error       string `json:"error"`
}

// FetchInPage fetches url from inside the rendered page. It has the
// fetcher.FetchFunc signature.
func (r *BrowserRenderer) FetchInPage(ctx context.Context, url string) (*fetcher.FetchResponse, error) {
	r.mu.Lock()
	page := r.page
	r.mu.Unlock()
	if page == nil {
		return nil, ErrNoPage
	}

	select {
	case r.fetchSem <- struct{}{}:
		defer func() { <-r.fetchSem }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	res, err := page.Context(ctx).Eval(pageFetchScript, url)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, common.NewNetworkError(url, "in-page fetch failed", err)
	}
	return decodePageFetch(url, res.Value.Str())
}

func decodePageFetch(url, raw string) (*fetcher.FetchResponse, error) {
	var result pageFetchResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, common.NewNetworkError(url, "malformed in-page fetch result", err)
	}

	if result.Error != "" {
		if result.Status >= 400 {
			return nil, common.NewHTTPErrorWithURL(result.Status, result.Error, url)
		}
		return nil, common.NewNetworkError(url, result.Error, nil)
	}

	body, err := base64.StdEncoding.DecodeString(result.Data)
	if err != nil {
		return nil, common.NewNetworkError(url, "invalid in-page fetch payload", err)
	}
	return &fetcher.FetchResponse{Body: body, ContentType: result.ContentType, StatusCode: result.Status}, nil
}
