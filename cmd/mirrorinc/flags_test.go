package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleister1102/mirrorinc/internal/config"
)

func TestParseFlags_Aliases(t *testing.T) {
	flags, err := ParseFlags([]string{"-u", "https://ex.com", "-o", "out", "-gc", "cfg.yaml", "-f", "-mode", "merged", "-no-zip"})
	require.NoError(t, err)

	assert.Equal(t, "https://ex.com", flags.TargetURL)
	assert.Equal(t, "out", flags.OutputDir)
	assert.Equal(t, "cfg.yaml", flags.GlobalConfigFile)
	assert.True(t, flags.Force)
	assert.True(t, flags.NoZip)
	assert.True(t, flags.IsSet("url"))
	assert.True(t, flags.IsSet("force"))
	assert.False(t, flags.IsSet("delay"))
}

func TestParseFlags_PositionalURL(t *testing.T) {
	flags, err := ParseFlags([]string{"-engine", "http", "https://ex.com/page"})
	require.NoError(t, err)
	assert.Equal(t, "https://ex.com/page", flags.TargetURL)
	assert.Equal(t, "http", flags.Engine)
}

func TestParseFlags_RequiresURL(t *testing.T) {
	_, err := ParseFlags([]string{"-mode", "merged"})
	assert.Error(t, err)
}

func TestParseFlags_RejectsNegativeDelay(t *testing.T) {
	_, err := ParseFlags([]string{"-url", "https://ex.com", "-delay", "-5"})
	assert.Error(t, err)
}

func TestAppFlags_Apply(t *testing.T) {
	cfg := config.NewDefaultGlobalConfig()
	flags, err := ParseFlags([]string{"-url", "https://ex.com", "-headless=false", "-delay", "0", "-failed-policy", "strip", "-no-zip"})
	require.NoError(t, err)

	flags.Apply(cfg)
	assert.False(t, cfg.RendererConfig.Headless)
	assert.Equal(t, 0, cfg.RendererConfig.DelayMs)
	assert.Equal(t, config.FailedPolicyStrip, cfg.RewriterConfig.FailedPolicy)
	assert.False(t, cfg.OutputConfig.Zip)
	assert.Equal(t, config.DefaultOutputMode, cfg.OutputConfig.Mode)
}

func TestAppFlags_ApplyLeavesUnsetValues(t *testing.T) {
	cfg := config.NewDefaultGlobalConfig()
	cfg.RendererConfig.DelayMs = 1234
	cfg.RendererConfig.Headless = false

	flags, err := ParseFlags([]string{"https://ex.com"})
	require.NoError(t, err)
	flags.Apply(cfg)

	assert.Equal(t, 1234, cfg.RendererConfig.DelayMs)
	assert.False(t, cfg.RendererConfig.Headless)
	assert.True(t, cfg.OutputConfig.Zip)
}
