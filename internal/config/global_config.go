package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/aleister1102/mirrorinc/internal/common"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const maxConfigFileSize = 10 * 1024 * 1024

// GlobalConfig contains all configuration sections for the application
type GlobalConfig struct {
	RendererConfig        RendererConfig        `json:"renderer_config,omitempty" yaml:"renderer_config,omitempty"`
	CatalogConfig         CatalogConfig         `json:"catalog_config,omitempty" yaml:"catalog_config,omitempty"`
	FetcherConfig         FetcherConfig         `json:"fetcher_config,omitempty" yaml:"fetcher_config,omitempty"`
	RewriterConfig        RewriterConfig        `json:"rewriter_config,omitempty" yaml:"rewriter_config,omitempty"`
	OutputConfig          OutputConfig          `json:"output_config,omitempty" yaml:"output_config,omitempty"`
	LogConfig             LogConfig             `json:"log_config,omitempty" yaml:"log_config,omitempty"`
	StorageConfig         StorageConfig         `json:"storage_config,omitempty" yaml:"storage_config,omitempty"`
	ProbeConfig           ProbeConfig           `json:"probe_config,omitempty" yaml:"probe_config,omitempty"`
	ResourceLimiterConfig ResourceLimiterConfig `json:"resource_limiter_config,omitempty" yaml:"resource_limiter_config,omitempty"`
}

// NewDefaultGlobalConfig creates a new GlobalConfig with default values
func NewDefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		RendererConfig:        NewDefaultRendererConfig(),
		CatalogConfig:         NewDefaultCatalogConfig(),
		FetcherConfig:         NewDefaultFetcherConfig(),
		RewriterConfig:        NewDefaultRewriterConfig(),
		OutputConfig:          NewDefaultOutputConfig(),
		LogConfig:             NewDefaultLogConfig(),
		StorageConfig:         NewDefaultStorageConfig(),
		ProbeConfig:           NewDefaultProbeConfig(),
		ResourceLimiterConfig: NewDefaultResourceLimiterConfig(),
	}
}

// Normalize lowercases enum-like fields so later comparisons can be exact.
func (c *GlobalConfig) Normalize() {
	c.RendererConfig.Engine = strings.ToLower(strings.TrimSpace(c.RendererConfig.Engine))
	c.FetcherConfig.Via = strings.ToLower(strings.TrimSpace(c.FetcherConfig.Via))
	c.OutputConfig.Mode = strings.ToLower(strings.TrimSpace(c.OutputConfig.Mode))
	c.RewriterConfig.FailedPolicy = strings.ToLower(strings.TrimSpace(c.RewriterConfig.FailedPolicy))
	c.LogConfig.LogLevel = strings.ToLower(strings.TrimSpace(c.LogConfig.LogLevel))
	c.LogConfig.LogFormat = strings.ToLower(strings.TrimSpace(c.LogConfig.LogFormat))

	if c.RendererConfig.Engine == "" {
		c.RendererConfig.Engine = DefaultRendererEngine
	}
	if c.FetcherConfig.Via == "" {
		c.FetcherConfig.Via = DefaultFetcherVia
	}
	if c.OutputConfig.Mode == "" {
		c.OutputConfig.Mode = DefaultOutputMode
	}
	if c.RewriterConfig.FailedPolicy == "" {
		c.RewriterConfig.FailedPolicy = DefaultRewriterFailedPolicy
	}
}

// LoadGlobalConfig loads the configuration from a file or default locations.
// It determines the config file path using GetConfigPath, supports both JSON and YAML formats.
// YAML is preferred if the file extension is .yaml or .yml.
func LoadGlobalConfig(providedPath string, logger zerolog.Logger) (*GlobalConfig, error) {
	cfg := NewDefaultGlobalConfig()

	fileManager := common.NewFileManager(logger)
	if providedPath != "" && !fileManager.FileExists(providedPath) {
		return nil, common.NewValidationError("config_file", providedPath, "config file does not exist")
	}

	filePath := GetConfigPath(providedPath)
	if filePath == "" {
		logger.Debug().Msg("No config file found, using defaults")
		return cfg, nil
	}

	data, err := loadConfigFileContent(filePath)
	if err != nil {
		return nil, common.WrapError(err, "failed to load config file content")
	}

	if err := parseConfigContent(data, filePath, cfg); err != nil {
		return nil, common.WrapError(err, "failed to parse config content")
	}

	logger.Debug().Str("path", filePath).Msg("Loaded config file")
	return cfg, nil
}

// loadConfigFileContent reads the config file, refusing unreasonably large files
func loadConfigFileContent(filePath string) ([]byte, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxConfigFileSize {
		return nil, common.NewValidationError("config_file", filePath, "config file is too large")
	}
	return os.ReadFile(filePath)
}

// parseConfigContent parses the config content based on file extension
func parseConfigContent(data []byte, filePath string, cfg *GlobalConfig) error {
	ext := filepath.Ext(filePath)
	if isYAMLFile(ext) {
		return parseYAMLConfig(data, filePath, cfg)
	}
	return parseJSONConfig(data, filePath, cfg)
}

// isYAMLFile checks if the file extension indicates a YAML file
func isYAMLFile(ext string) bool {
	return ext == ".yaml" || ext == ".yml"
}

// parseYAMLConfig parses YAML configuration
func parseYAMLConfig(data []byte, filePath string, cfg *GlobalConfig) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return common.NewError("failed to unmarshal YAML from '%s': %w", filePath, err)
	}
	return nil
}

// parseJSONConfig parses JSON configuration
func parseJSONConfig(data []byte, filePath string, cfg *GlobalConfig) error {
	if err := json.Unmarshal(data, cfg); err != nil {
		return common.NewError("failed to unmarshal JSON from '%s': %w", filePath, err)
	}
	return nil
}
