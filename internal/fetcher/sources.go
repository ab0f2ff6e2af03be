package fetcher

import (
	"context"

	"github.com/aleister1102/mirrorinc/internal/httpclient"
)

// FetchResponse is a successful download.
type FetchResponse struct {
	Body        []byte
	ContentType string
	StatusCode  int
}

// FetchFunc downloads one URL. Failures should be *FetchError or errors
// AsFetchError can classify.
type FetchFunc func(ctx context.Context, url string) (*FetchResponse, error)

// HTTPFetchFunc fetches with a plain GET through client.
func HTTPFetchFunc(client *httpclient.HTTPClient) FetchFunc {
	return func(ctx context.Context, url string) (*FetchResponse, error) {
		result, err := client.Fetch(ctx, url)
		if err != nil {
			return nil, AsFetchError(url, err)
		}
		return &FetchResponse{
			Body:        result.Content,
			ContentType: result.ContentType,
			StatusCode:  result.StatusCode,
		}, nil
	}
}

// Chain tries primary and, if it fails, fallback within the same attempt.
// The fallback's error is reported when both fail.
func Chain(primary, fallback FetchFunc) FetchFunc {
	if primary == nil {
		return fallback
	}
	if fallback == nil {
		return primary
	}
	return func(ctx context.Context, url string) (*FetchResponse, error) {
		resp, err := primary(ctx, url)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, AsFetchError(url, err)
		}
		return fallback(ctx, url)
	}
}
