package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aleister1102/mirrorinc/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerBuilder_Default(t *testing.T) {
	logger, err := NewLoggerBuilder().Build()
	require.NoError(t, err)
	require.NotNil(t, logger)

	cfg := logger.GetConfig()
	assert.Equal(t, zerolog.InfoLevel, cfg.Level)
	assert.Equal(t, FormatConsole, cfg.Format)
	assert.True(t, cfg.EnableConsole)
	assert.False(t, cfg.EnableFile)
}

func TestLoggerBuilder_FileLogging(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "test.log")

	logger, err := NewLoggerBuilder().
		WithLevel(zerolog.DebugLevel).
		WithFormat(FormatJSON).
		WithFile(logFile, 1, 1).
		WithConsole(false).
		Build()
	require.NoError(t, err)
	defer logger.Close()

	logger.GetZerolog().Debug().Str("component", "Test").Msg("this is a test")

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"level":"debug"`)
	assert.Contains(t, string(content), `"message":"this is a test"`)
	assert.Contains(t, string(content), `"component":"Test"`)
}

func TestLoggerBuilder_WithRunID(t *testing.T) {
	logDir := t.TempDir()
	logFile := filepath.Join(logDir, "mirrorinc.log")

	logger, err := NewLoggerBuilder().
		WithFile(logFile, 1, 1).
		WithRunID("run-123").
		WithConsole(false).
		Build()
	require.NoError(t, err)
	defer logger.Close()
	logger.GetZerolog().Info().Msg("testing run id")

	_, err = os.Stat(filepath.Join(logDir, "runs", "run-123", "mirrorinc.log"))
	assert.NoError(t, err, "log file should be created in the run directory")
}

func TestLoggerBuilder_NoWriters(t *testing.T) {
	_, err := NewLoggerBuilder().WithConsole(false).Build()
	assert.Error(t, err)
}

func TestFromLogConfig(t *testing.T) {
	loggerConfig, err := FromLogConfig(config.LogConfig{
		LogLevel:      "warn",
		LogFormat:     "json",
		LogFile:       "/tmp/test.log",
		MaxLogSizeMB:  50,
		MaxLogBackups: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, loggerConfig.Level)
	assert.Equal(t, FormatJSON, loggerConfig.Format)
	assert.True(t, loggerConfig.EnableFile)
	assert.Equal(t, 50, loggerConfig.MaxSizeMB)
	assert.Equal(t, 5, loggerConfig.MaxBackups)

	fallback, err := FromLogConfig(config.LogConfig{LogLevel: "loud"})
	assert.Error(t, err)
	assert.Equal(t, zerolog.InfoLevel, fallback.Level)
	assert.Equal(t, FormatConsole, fallback.Format)
	assert.Equal(t, config.DefaultMaxLogSizeMB, fallback.MaxSizeMB)
}

func TestBuildLogPath(t *testing.T) {
	assert.Equal(t, filepath.Join("logs", "app.log"), BuildLogPath(LoggerConfig{FilePath: filepath.Join("logs", "app.log")}))
	assert.Equal(t, filepath.Join("logs", "runs", "abc", "app.log"),
		BuildLogPath(LoggerConfig{FilePath: filepath.Join("logs", "app.log"), RunID: "abc"}))
}
