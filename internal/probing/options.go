package probing

import (
	"github.com/projectdiscovery/httpx/runner"

	"github.com/aleister1102/mirrorinc/internal/config"
)

// buildOptions converts the probe config into httpx runner options for a
// single target.
func buildOptions(cfg config.ProbeConfig, target string, userAgent string, onResult func(runner.Result)) *runner.Options {
	method := cfg.Method
	if method == "" {
		method = "GET"
	}
	timeout := cfg.TimeoutSecs
	if timeout <= 0 {
		timeout = config.DefaultProbeTimeoutSecs
	}

	options := &runner.Options{
		Methods:         method,
		Silent:          true,
		Timeout:         timeout,
		Retries:         cfg.Retries,
		FollowRedirects: cfg.FollowRedirects,
		InputTargetHost: []string{target},
		Threads:         1,
		OnResult:        onResult,

		ExtractTitle:       true,
		StatusCode:         true,
		ContentLength:      true,
		OutputServerHeader: true,
		OutputContentType:  true,
		TechDetect:         cfg.TechDetect,
		OmitBody:           true,
		HostMaxErrors:      -1,
	}
	if userAgent != "" {
		_ = options.CustomHeaders.Set("User-Agent: " + userAgent)
	}
	return options
}
