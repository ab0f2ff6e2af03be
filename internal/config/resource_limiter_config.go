package config

// ResourceLimiterConfig holds configuration for resource monitoring
type ResourceLimiterConfig struct {
	Enabled            bool    `json:"enabled" yaml:"enabled"`
	SystemMemThreshold float64 `json:"system_mem_threshold,omitempty" yaml:"system_mem_threshold,omitempty" validate:"omitempty,min=0.1,max=1.0"`
	CheckIntervalMs    int     `json:"check_interval_ms,omitempty" yaml:"check_interval_ms,omitempty" validate:"omitempty,min=50"`
	MaxWaitSecs        int     `json:"max_wait_secs,omitempty" yaml:"max_wait_secs,omitempty" validate:"omitempty,min=1"`
}

// NewDefaultResourceLimiterConfig creates default resource limiter configuration
func NewDefaultResourceLimiterConfig() ResourceLimiterConfig {
	return ResourceLimiterConfig{
		Enabled:            true,
		SystemMemThreshold: 0.9,
		CheckIntervalMs:    500,
		MaxWaitSecs:        30,
	}
}
