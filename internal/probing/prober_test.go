package probing

import (
	"testing"
	"time"

	"github.com/projectdiscovery/httpx/runner"
	"github.com/stretchr/testify/assert"

	"github.com/aleister1102/mirrorinc/internal/config"
)

func TestMapResult(t *testing.T) {
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	res := runner.Result{
		URL:           "https://ex.com",
		FinalURL:      "https://www.ex.com/home",
		StatusCode:    200,
		ContentLength: 1234,
		ContentType:   "text/html",
		Title:         "Example",
		WebServer:     "nginx",
		Technologies:  []string{"Nginx", "Bootstrap"},
		Timestamp:     ts,
	}

	summary := mapResult(res, "https://ex.com/")
	assert.Equal(t, "https://ex.com/", summary.InputURL)
	assert.Equal(t, "https://www.ex.com/home", summary.FinalURL)
	assert.Equal(t, 200, summary.StatusCode)
	assert.Equal(t, int64(1234), summary.ContentLength)
	assert.Equal(t, "nginx", summary.WebServer)
	assert.Equal(t, []string{"Bootstrap", "Nginx"}, summary.Technologies)
	assert.Equal(t, ts, summary.Timestamp)
	assert.True(t, summary.Reachable())
}

func TestMapResult_FallsBackToURL(t *testing.T) {
	summary := mapResult(runner.Result{URL: "https://ex.com", Error: "timeout"}, "https://ex.com/")
	assert.Equal(t, "https://ex.com", summary.FinalURL)
	assert.False(t, summary.Timestamp.IsZero())
	assert.False(t, summary.Reachable())
}

func TestFailedSummary(t *testing.T) {
	summary := failedSummary("https://ex.com/", "no response")
	assert.Equal(t, "no response", summary.Error)
	assert.False(t, summary.Reachable())
}

func TestBuildOptions(t *testing.T) {
	cfg := config.ProbeConfig{Retries: 2, FollowRedirects: true, TechDetect: true}
	options := buildOptions(cfg, "https://ex.com/", "mirrorinc/1.0", nil)

	assert.Equal(t, "GET", options.Methods)
	assert.Equal(t, config.DefaultProbeTimeoutSecs, options.Timeout)
	assert.Equal(t, 2, options.Retries)
	assert.True(t, options.FollowRedirects)
	assert.True(t, options.TechDetect)
	assert.Equal(t, []string{"https://ex.com/"}, []string(options.InputTargetHost))
	assert.Len(t, options.CustomHeaders, 1)
	assert.True(t, options.Silent)
}
