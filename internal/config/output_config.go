package config

// OutputConfig controls the output tree and the run as a whole.
type OutputConfig struct {
	OutputDir             string `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`
	Mode                  string `json:"mode,omitempty" yaml:"mode,omitempty" validate:"omitempty,outputmode"`
	Zip                   bool   `json:"zip" yaml:"zip"`
	Screenshot            bool   `json:"screenshot" yaml:"screenshot"`
	Force                 bool   `json:"force" yaml:"force"`
	ExtractionTimeoutSecs int    `json:"extraction_timeout_secs,omitempty" yaml:"extraction_timeout_secs,omitempty" validate:"omitempty,min=10"`
}

// NewDefaultOutputConfig creates default output configuration
func NewDefaultOutputConfig() OutputConfig {
	return OutputConfig{
		Mode:                  DefaultOutputMode,
		Zip:                   true,
		Screenshot:            true,
		ExtractionTimeoutSecs: DefaultOutputExtractionTimeoutSecs,
	}
}

// RewriterConfig controls document rewriting.
type RewriterConfig struct {
	ExternalizeInline bool   `json:"externalize_inline" yaml:"externalize_inline"`
	FailedPolicy      string `json:"failed_policy,omitempty" yaml:"failed_policy,omitempty" validate:"omitempty,failedpolicy"`
}

// NewDefaultRewriterConfig creates default rewriter configuration
func NewDefaultRewriterConfig() RewriterConfig {
	return RewriterConfig{
		ExternalizeInline: true,
		FailedPolicy:      DefaultRewriterFailedPolicy,
	}
}
