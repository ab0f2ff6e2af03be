package urlhandler

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name     string
		inputURL string
		expected string
		wantErr  bool
	}{
		{name: "lowercase scheme and host", inputURL: "HTTPS://Ex.COM/Path/File.PNG", expected: "https://ex.com/Path/File.PNG"},
		{name: "strip fragment", inputURL: "https://ex.com/sprite.svg#icon", expected: "https://ex.com/sprite.svg"},
		{name: "drop default port", inputURL: "http://ex.com:80/a.css", expected: "http://ex.com/a.css"},
		{name: "keep custom port", inputURL: "https://ex.com:8443/a.css", expected: "https://ex.com:8443/a.css"},
		{name: "empty path becomes slash", inputURL: "https://ex.com", expected: "https://ex.com/"},
		{name: "drop empty query", inputURL: "https://ex.com/f.eot?#iefix", expected: "https://ex.com/f.eot"},
		{name: "keep query", inputURL: "https://ex.com/s.css?v=2", expected: "https://ex.com/s.css?v=2"},
		{name: "reject ftp", inputURL: "ftp://ex.com/a", wantErr: true},
		{name: "reject empty", inputURL: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeURL(tt.inputURL)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestResolveURL(t *testing.T) {
	base, err := url.Parse("https://ex.com/blog/post.html")
	require.NoError(t, err)

	tests := []struct {
		href     string
		expected string
		skipped  bool
	}{
		{href: "/s.css", expected: "https://ex.com/s.css"},
		{href: "img/a.png", expected: "https://ex.com/blog/img/a.png"},
		{href: "../img/bg.jpg", expected: "https://ex.com/img/bg.jpg"},
		{href: "//cdn.Example.com/lib.js", expected: "https://cdn.example.com/lib.js"},
		{href: "http://other.com/x.png", expected: "http://other.com/x.png"},
		{href: "data:image/png;base64,AAAA", skipped: true},
		{href: "blob:https://ex.com/1234", skipped: true},
		{href: "#top", skipped: true},
		{href: "javascript:void(0)", skipped: true},
		{href: "", skipped: true},
	}

	for _, tt := range tests {
		got, err := ResolveURL(tt.href, base)
		if tt.skipped {
			assert.ErrorIs(t, err, ErrSkippedReference, tt.href)
			continue
		}
		require.NoError(t, err, tt.href)
		assert.Equal(t, tt.expected, got, tt.href)
	}
}

func TestDocumentBase(t *testing.T) {
	base, err := DocumentBase("https://ex.com/a/page.html", "/static/")
	require.NoError(t, err)
	assert.Equal(t, "https://ex.com/static/", base.String())

	base, err = DocumentBase("https://ex.com/a/page.html", "")
	require.NoError(t, err)
	assert.Equal(t, "https://ex.com/a/page.html", base.String())
}

func TestValidateTargetURL(t *testing.T) {
	_, err := ValidateTargetURL("https://ex.com")
	assert.NoError(t, err)
	_, err = ValidateTargetURL("ex.com")
	assert.Error(t, err)
	_, err = ValidateTargetURL("file:///etc/passwd")
	assert.Error(t, err)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "my_logo_v2_.png", SanitizeFilename("my logo (v2).png"))
	assert.Equal(t, "ex.com_a_b", SanitizeFilename("https://ex.com/a/b"))
	assert.Equal(t, "sanitized_empty_input", SanitizeFilename("???"))
}

func TestRelativePath(t *testing.T) {
	assert.Equal(t, "../images/bg.jpg", RelativePath("css", "images/bg.jpg"))
	assert.Equal(t, "s.css", RelativePath("css", "css/s.css"))
	assert.Equal(t, "images/bg.jpg", RelativePath("", "images/bg.jpg"))
}

func TestHashURL_Stable(t *testing.T) {
	a := HashURL("https://ex.com/a", 12)
	assert.Len(t, a, 12)
	assert.Equal(t, a, HashURL("https://ex.com/a", 12))
	assert.NotEqual(t, a, HashURL("https://ex.com/b", 12))
}

func TestSplitFragment(t *testing.T) {
	u, frag := SplitFragment("images/sprite.svg#icon")
	assert.Equal(t, "images/sprite.svg", u)
	assert.Equal(t, "#icon", frag)
}
