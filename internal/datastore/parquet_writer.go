package datastore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog"

	"github.com/aleister1102/mirrorinc/internal/common"
	"github.com/aleister1102/mirrorinc/internal/config"
	"github.com/aleister1102/mirrorinc/internal/models"
	"github.com/aleister1102/mirrorinc/internal/urlhandler"
)

// ParquetWriterConfig holds configuration for ParquetWriter
type ParquetWriterConfig struct {
	CompressionType string
}

// DefaultParquetWriterConfig returns default configuration
func DefaultParquetWriterConfig() ParquetWriterConfig {
	return ParquetWriterConfig{
		CompressionType: "zstd",
	}
}

// ParquetWriter writes the per-run asset manifest.
type ParquetWriter struct {
	config       *config.StorageConfig
	logger       zerolog.Logger
	fileManager  *common.FileManager
	writerConfig ParquetWriterConfig
}

// ParquetWriterBuilder provides a fluent interface for creating ParquetWriter
type ParquetWriterBuilder struct {
	config       *config.StorageConfig
	logger       zerolog.Logger
	writerConfig ParquetWriterConfig
}

// NewParquetWriterBuilder creates a new ParquetWriterBuilder
func NewParquetWriterBuilder(logger zerolog.Logger) *ParquetWriterBuilder {
	return &ParquetWriterBuilder{
		logger:       logger.With().Str("component", "ParquetWriter").Logger(),
		writerConfig: DefaultParquetWriterConfig(),
	}
}

// WithStorageConfig sets the storage configuration
func (b *ParquetWriterBuilder) WithStorageConfig(cfg *config.StorageConfig) *ParquetWriterBuilder {
	b.config = cfg
	return b
}

// WithWriterConfig sets the writer configuration
func (b *ParquetWriterBuilder) WithWriterConfig(cfg ParquetWriterConfig) *ParquetWriterBuilder {
	b.writerConfig = cfg
	return b
}

// Build creates a new ParquetWriter instance
func (b *ParquetWriterBuilder) Build() (*ParquetWriter, error) {
	if b.config == nil {
		return nil, common.NewValidationError("config", b.config, "storage config cannot be nil")
	}
	if b.config.ManifestDir == "" {
		return nil, common.NewValidationError("manifest_dir", b.config.ManifestDir, "manifest directory is not configured")
	}

	return &ParquetWriter{
		config:       b.config,
		logger:       b.logger,
		fileManager:  common.NewFileManager(b.logger),
		writerConfig: b.writerConfig,
	}, nil
}

// NewParquetWriter creates a new ParquetWriter using builder pattern
func NewParquetWriter(cfg *config.StorageConfig, logger zerolog.Logger) (*ParquetWriter, error) {
	return NewParquetWriterBuilder(logger).
		WithStorageConfig(cfg).
		Build()
}

// ManifestRequest is everything that goes into one manifest file.
type ManifestRequest struct {
	RunID      string
	TargetURL  string
	Downloaded []models.DownloadedAsset
	Failures   []models.FetchFailure
	CapturedAt time.Time
}

// WriteResult contains the result of a write operation
type WriteResult struct {
	FilePath       string
	RecordsWritten int
	FileSize       int64
	WriteTime      time.Duration
}

// WriteManifest writes one row per downloaded asset and per failure to
// <manifest_dir>/<host>/<run_id>.parquet.
func (pw *ParquetWriter) WriteManifest(ctx context.Context, request ManifestRequest) (*WriteResult, error) {
	startTime := time.Now()

	if request.RunID == "" {
		return nil, common.NewValidationError("run_id", request.RunID, "run ID is required")
	}
	if err := pw.checkCancellation(ctx, "manifest write"); err != nil {
		return nil, err
	}

	filePath, err := pw.prepareOutputFile(request.TargetURL, request.RunID)
	if err != nil {
		return nil, err
	}

	records := pw.transformRecords(request)
	if err := pw.checkCancellation(ctx, "before parquet write"); err != nil {
		return nil, err
	}

	recordsWritten, err := pw.writeToParquetFile(filePath, records)
	if err != nil {
		return nil, err
	}

	var fileSize int64
	if fileInfo, statErr := os.Stat(filePath); statErr == nil {
		fileSize = fileInfo.Size()
	}

	pw.logger.Info().
		Str("file_path", filePath).
		Int("records_written", recordsWritten).
		Dur("write_time", time.Since(startTime)).
		Msg("Asset manifest written")

	return &WriteResult{
		FilePath:       filePath,
		RecordsWritten: recordsWritten,
		FileSize:       fileSize,
		WriteTime:      time.Since(startTime),
	}, nil
}

func (pw *ParquetWriter) checkCancellation(ctx context.Context, operation string) error {
	if result := CheckCancellationWithLog(ctx, pw.logger, operation); result.Cancelled {
		return result.Error
	}
	return nil
}

func (pw *ParquetWriter) prepareOutputFile(targetURL, runID string) (string, error) {
	host := targetURL
	if u, err := url.Parse(targetURL); err == nil && u.Host != "" {
		host = u.Host
	}

	dir := filepath.Join(pw.config.ManifestDir, urlhandler.SanitizeFilename(host))
	if err := pw.fileManager.EnsureDirectory(dir, 0755); err != nil {
		return "", err
	}
	return filepath.Join(dir, fmt.Sprintf("%s.parquet", urlhandler.SanitizeFilename(runID))), nil
}

func (pw *ParquetWriter) transformRecords(request ManifestRequest) []models.ParquetAssetRecord {
	transformer := NewRecordTransformer(pw.logger)
	capturedAt := request.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = time.Now()
	}

	records := make([]models.ParquetAssetRecord, 0, len(request.Downloaded)+len(request.Failures))
	for _, a := range request.Downloaded {
		records = append(records, transformer.TransformDownloaded(request.RunID, request.TargetURL, a, capturedAt))
	}
	for _, f := range request.Failures {
		records = append(records, transformer.TransformFailure(request.RunID, request.TargetURL, f, capturedAt))
	}
	return records
}

func (pw *ParquetWriter) writeToParquetFile(filePath string, records []models.ParquetAssetRecord) (int, error) {
	file, err := os.Create(filePath)
	if err != nil {
		return 0, common.NewFilesystemError("create", filePath, err)
	}
	defer file.Close()

	recordsWritten, err := pw.writeRecords(file, records)
	if err != nil {
		return 0, common.WrapError(err, "failed to write asset manifest")
	}
	return recordsWritten, nil
}

func (pw *ParquetWriter) writeRecords(w io.Writer, records []models.ParquetAssetRecord) (int, error) {
	writer := parquet.NewGenericWriter[models.ParquetAssetRecord](w, pw.getCompressionOption())
	n, err := writer.Write(records)
	if err != nil {
		_ = writer.Close()
		return 0, err
	}
	if err := writer.Close(); err != nil {
		return 0, err
	}
	return n, nil
}

// getCompressionOption returns the compression option based on configuration
func (pw *ParquetWriter) getCompressionOption() parquet.WriterOption {
	switch pw.writerConfig.CompressionType {
	case "gzip":
		return parquet.Compression(&parquet.Gzip)
	case "snappy":
		return parquet.Compression(&parquet.Snappy)
	default:
		return parquet.Compression(&parquet.Zstd)
	}
}
