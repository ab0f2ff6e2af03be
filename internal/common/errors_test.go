package common

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapError(t *testing.T) {
	tests := []struct {
		name            string
		originalError   error
		message         string
		expectedMessage string
	}{
		{
			name:            "wrap simple error",
			originalError:   errors.New("original error"),
			message:         "wrapper message",
			expectedMessage: "wrapper message: original error",
		},
		{
			name:            "empty wrapper message",
			originalError:   errors.New("original error"),
			message:         "",
			expectedMessage: ": original error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrappedError := WrapError(tt.originalError, tt.message)
			assert.Error(t, wrappedError)
			assert.Equal(t, tt.expectedMessage, wrappedError.Error())
			assert.ErrorIs(t, wrappedError, tt.originalError)
		})
	}

	assert.NoError(t, WrapError(nil, "ignored"))
	assert.NoError(t, WrapErrorf(nil, "ignored %d", 1))
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("mode", "zip", "must be per-file or merged")
	assert.Equal(t, "validation failed for field 'mode': must be per-file or merged (value: zip)", err.Error())
	assert.ErrorIs(t, WrapError(err, "config"), ErrInvalidInput)
}

func TestNetworkError(t *testing.T) {
	inner := errors.New("connection reset by peer")
	err := NewNetworkError("https://example.com/a.css", "request failed", inner)
	assert.Equal(t, "network error for 'https://example.com/a.css': request failed: connection reset by peer", err.Error())
	assert.ErrorIs(t, err, inner)

	bare := NewNetworkError("https://example.com", "timeout", nil)
	assert.Equal(t, "network error for 'https://example.com': timeout", bare.Error())
}

func TestHTTPError(t *testing.T) {
	err := NewHTTPErrorWithURL(http.StatusInternalServerError, "Internal Server Error", "https://example.com/f.woff2")
	assert.Equal(t, "HTTP 500 error for 'https://example.com/f.woff2': Internal Server Error", err.Error())

	var hErr *HTTPError
	assert.True(t, errors.As(WrapError(err, "fetch"), &hErr))
	assert.Equal(t, 500, hErr.StatusCode)
}

func TestFilesystemError(t *testing.T) {
	err := WrapError(NewFilesystemError("write", "/out/index.html", errors.New("no space left on device")), "persist")
	assert.True(t, IsFilesystemError(err))
	assert.False(t, IsFilesystemError(errors.New("other")))
	assert.Contains(t, err.Error(), "filesystem write failed for '/out/index.html'")
}

func TestErrorCollector(t *testing.T) {
	var ec ErrorCollector
	assert.NoError(t, ec.Error())

	ec.Add(nil)
	assert.NoError(t, ec.Error())

	first := errors.New("first")
	ec.Add(first)
	assert.Same(t, first, ec.Error())

	ec.Add(errors.New("second"))
	assert.EqualError(t, ec.Error(), "multiple errors occurred: [first; second]")
}
