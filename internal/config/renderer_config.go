package config

// RendererConfig controls how the target page is loaded.
type RendererConfig struct {
	Engine                string   `json:"engine,omitempty" yaml:"engine,omitempty" validate:"omitempty,engine"`
	BrowserPath           string   `json:"browser_path,omitempty" yaml:"browser_path,omitempty"`
	Headless              bool     `json:"headless" yaml:"headless"`
	Stealth               bool     `json:"stealth" yaml:"stealth"`
	UserAgent             string   `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	WindowWidth           int      `json:"window_width,omitempty" yaml:"window_width,omitempty" validate:"omitempty,min=320"`
	WindowHeight          int      `json:"window_height,omitempty" yaml:"window_height,omitempty" validate:"omitempty,min=240"`
	PageLoadTimeoutSecs   int      `json:"page_load_timeout_secs,omitempty" yaml:"page_load_timeout_secs,omitempty" validate:"omitempty,min=1"`
	IdleTimeoutSecs       int      `json:"idle_timeout_secs,omitempty" yaml:"idle_timeout_secs,omitempty" validate:"omitempty,min=1"`
	DelayMs               int      `json:"delay_ms" yaml:"delay_ms" validate:"min=0"`
	ScrollForLazyLoad     bool     `json:"scroll_for_lazy_load" yaml:"scroll_for_lazy_load"`
	ScrollPauseMs         int      `json:"scroll_pause_ms,omitempty" yaml:"scroll_pause_ms,omitempty" validate:"omitempty,min=0"`
	HTTPTimeoutSecs       int      `json:"http_timeout_secs,omitempty" yaml:"http_timeout_secs,omitempty" validate:"omitempty,min=1"`
	InsecureSkipTLSVerify bool     `json:"insecure_skip_tls_verify" yaml:"insecure_skip_tls_verify"`
	ExtraBrowserFlags     []string `json:"extra_browser_flags,omitempty" yaml:"extra_browser_flags,omitempty"`
}

// NewDefaultRendererConfig creates default renderer configuration
func NewDefaultRendererConfig() RendererConfig {
	return RendererConfig{
		Engine:              DefaultRendererEngine,
		Headless:            DefaultRendererHeadless,
		Stealth:             DefaultRendererStealth,
		UserAgent:           DefaultRendererUserAgent,
		WindowWidth:         DefaultRendererWindowWidth,
		WindowHeight:        DefaultRendererWindowHeight,
		PageLoadTimeoutSecs: DefaultRendererPageLoadTimeout,
		IdleTimeoutSecs:     DefaultRendererIdleTimeoutSecs,
		DelayMs:             DefaultRendererDelayMs,
		ScrollForLazyLoad:   DefaultRendererScrollForLazyLoad,
		ScrollPauseMs:       DefaultRendererScrollPauseMs,
		HTTPTimeoutSecs:     DefaultRendererHTTPTimeoutSecs,
	}
}
