package config

// CatalogConfig controls asset discovery.
type CatalogConfig struct {
	// MaxComputedElements bounds the computed-style walk over document elements.
	MaxComputedElements int  `json:"max_computed_elements,omitempty" yaml:"max_computed_elements,omitempty" validate:"omitempty,min=1"`
	DiscoverScriptURLs  bool `json:"discover_script_urls" yaml:"discover_script_urls"`
}

// NewDefaultCatalogConfig creates default catalog configuration
func NewDefaultCatalogConfig() CatalogConfig {
	return CatalogConfig{
		MaxComputedElements: DefaultCatalogMaxComputedElements,
		DiscoverScriptURLs:  DefaultCatalogDiscoverScriptURLs,
	}
}

// FetcherConfig controls asset downloading.
type FetcherConfig struct {
	MaxAttempts        int    `json:"max_attempts,omitempty" yaml:"max_attempts,omitempty" validate:"omitempty,min=1,max=10"`
	BaseDelayMs        int    `json:"base_delay_ms,omitempty" yaml:"base_delay_ms,omitempty" validate:"omitempty,min=0"`
	MaxDelayMs         int    `json:"max_delay_ms,omitempty" yaml:"max_delay_ms,omitempty" validate:"omitempty,min=0"`
	EnableJitter       bool   `json:"enable_jitter" yaml:"enable_jitter"`
	AttemptTimeoutSecs int    `json:"attempt_timeout_secs,omitempty" yaml:"attempt_timeout_secs,omitempty" validate:"omitempty,min=1"`
	MaxConcurrency     int    `json:"max_concurrency,omitempty" yaml:"max_concurrency,omitempty" validate:"omitempty,min=1,max=100"`
	MaxAssetBytes      int64  `json:"max_asset_bytes,omitempty" yaml:"max_asset_bytes,omitempty" validate:"omitempty,min=1"`
	CSSDependencyDepth int    `json:"css_dependency_depth" yaml:"css_dependency_depth" validate:"min=0,max=10"`
	Via                string `json:"via,omitempty" yaml:"via,omitempty" validate:"omitempty,fetchvia"`
	UserAgent          string `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	Proxy              string `json:"proxy,omitempty" yaml:"proxy,omitempty"`
	InsecureSkipVerify bool   `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
}

// NewDefaultFetcherConfig creates default fetcher configuration
func NewDefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		MaxAttempts:        DefaultFetcherMaxAttempts,
		BaseDelayMs:        DefaultFetcherBaseDelayMs,
		MaxDelayMs:         DefaultFetcherMaxDelayMs,
		EnableJitter:       true,
		AttemptTimeoutSecs: DefaultFetcherAttemptTimeoutSecs,
		MaxConcurrency:     DefaultFetcherMaxConcurrency,
		MaxAssetBytes:      DefaultFetcherMaxAssetBytes,
		CSSDependencyDepth: DefaultFetcherCSSDependencyDepth,
		Via:                DefaultFetcherVia,
		UserAgent:          DefaultRendererUserAgent,
	}
}
