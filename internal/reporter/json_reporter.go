package reporter

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aleister1102/mirrorinc/internal/models"
)

// FileWriter stores a file under a root-relative local path.
type FileWriter interface {
	Write(localPath string, data []byte) error
}

// JSONReporter writes extraction_report.json.
type JSONReporter struct {
	logger zerolog.Logger
}

// NewJSONReporter creates a reporter.
func NewJSONReporter(logger zerolog.Logger) *JSONReporter {
	return &JSONReporter{
		logger: logger.With().Str("component", "JSONReporter").Logger(),
	}
}

// Marshal renders the report as indented JSON.
func (r *JSONReporter) Marshal(report *models.ExtractionReport) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("report is nil")
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal extraction report: %w", err)
	}
	return append(data, '\n'), nil
}

// Write marshals report and stores it as ReportFileName.
func (r *JSONReporter) Write(w FileWriter, report *models.ExtractionReport) error {
	data, err := r.Marshal(report)
	if err != nil {
		return err
	}
	if err := w.Write(ReportFileName, data); err != nil {
		r.logger.Error().Err(err).Msg("Failed to write extraction report")
		return fmt.Errorf("failed to write %s: %w", ReportFileName, err)
	}
	r.logger.Info().
		Str("run_id", report.RunID).
		Int("downloaded", report.Downloaded).
		Int("failed", report.Failed).
		Bool("partial", report.Partial).
		Msg("Extraction report written")
	return nil
}
