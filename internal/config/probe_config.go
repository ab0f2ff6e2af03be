package config

// ProbeConfig controls the httpx preflight probe of the target.
type ProbeConfig struct {
	Enabled         bool   `json:"enabled" yaml:"enabled"`
	Method          string `json:"method,omitempty" yaml:"method,omitempty"`
	TimeoutSecs     int    `json:"timeout_secs,omitempty" yaml:"timeout_secs,omitempty" validate:"omitempty,min=1"`
	Retries         int    `json:"retries" yaml:"retries" validate:"min=0"`
	FollowRedirects bool   `json:"follow_redirects" yaml:"follow_redirects"`
	TechDetect      bool   `json:"tech_detect" yaml:"tech_detect"`
}

// NewDefaultProbeConfig creates default probe configuration
func NewDefaultProbeConfig() ProbeConfig {
	return ProbeConfig{
		Enabled:         false,
		Method:          "GET",
		TimeoutSecs:     DefaultProbeTimeoutSecs,
		Retries:         DefaultProbeRetries,
		FollowRedirects: true,
		TechDetect:      true,
	}
}
