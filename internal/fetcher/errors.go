package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aleister1102/mirrorinc/internal/common"
	"github.com/aleister1102/mirrorinc/internal/httpclient"
)

// AbandonedReason is recorded for entries left unfinished when the run deadline passes.
const AbandonedReason = "abandoned: extraction deadline exceeded"

// FetchError is the outcome of one failed attempt.
type FetchError struct {
	URL        string
	StatusCode int
	Reason     string
	// Permanent marks failures that no retry can fix, such as an oversized body.
	Permanent bool
	Err       error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Reason)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Transient reports whether another attempt could succeed: network errors,
// timeouts, 5xx, 408 and 429. Other 4xx responses fail fast.
func (e *FetchError) Transient() bool {
	if e.Permanent {
		return false
	}
	switch {
	case e.StatusCode == 0:
		return true
	case e.StatusCode >= 500:
		return true
	case e.StatusCode == http.StatusRequestTimeout, e.StatusCode == http.StatusTooManyRequests:
		return true
	default:
		return false
	}
}

// Describe is the short failure text stored in reports.
func (e *FetchError) Describe() string {
	if e.Err != nil && e.StatusCode == 0 {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

// AsFetchError classifies any error returned by a FetchFunc.
func AsFetchError(rawURL string, err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}

	var httpErr *common.HTTPError
	if errors.As(err, &httpErr) {
		return &FetchError{
			URL:        rawURL,
			StatusCode: httpErr.StatusCode,
			Reason:     fmt.Sprintf("HTTP %d %s", httpErr.StatusCode, http.StatusText(httpErr.StatusCode)),
		}
	}

	switch {
	case errors.Is(err, httpclient.ErrContentTooLarge):
		return &FetchError{URL: rawURL, Reason: "response exceeds size limit", Permanent: true, Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &FetchError{URL: rawURL, Reason: "attempt timed out", Err: err}
	}

	var netErr *common.NetworkError
	if errors.As(err, &netErr) {
		if netErr.Wrapped == nil {
			return &FetchError{URL: rawURL, Reason: "network error: " + netErr.Reason}
		}
		return &FetchError{URL: rawURL, Reason: "network error", Err: netErr.Wrapped}
	}

	return &FetchError{URL: rawURL, Reason: "fetch failed", Err: err}
}
