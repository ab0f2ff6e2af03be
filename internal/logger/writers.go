package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// formatWriter wraps out according to format. JSON is written as is.
func formatWriter(format LogFormat, out io.Writer, noColor bool) io.Writer {
	switch format {
	case FormatJSON:
		return out
	case FormatText:
		noColor = true
	}
	return zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: noColor}
}

// newFileWriter opens a size-rotated log file. The closer releases it.
func newFileWriter(cfg LoggerConfig) (io.Writer, io.Closer) {
	path := BuildLogPath(cfg)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		path = cfg.FilePath
	}

	rotating := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		LocalTime:  true,
	}
	// files never get ANSI colours
	return formatWriter(cfg.Format, rotating, true), rotating
}

// BuildLogPath returns the log file path, moved under runs/<RunID>/ when a run ID is set.
func BuildLogPath(cfg LoggerConfig) string {
	if cfg.RunID == "" {
		return cfg.FilePath
	}
	return filepath.Join(filepath.Dir(cfg.FilePath), "runs", cfg.RunID, filepath.Base(cfg.FilePath))
}
