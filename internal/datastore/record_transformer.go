package datastore

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/aleister1102/mirrorinc/internal/models"
)

// RecordTransformer handles transformation of records
type RecordTransformer struct {
	logger zerolog.Logger
}

// NewRecordTransformer creates a new RecordTransformer
func NewRecordTransformer(logger zerolog.Logger) *RecordTransformer {
	return &RecordTransformer{
		logger: logger.With().Str("component", "RecordTransformer").Logger(),
	}
}

// TransformDownloaded converts a downloaded asset to a manifest row.
func (rt *RecordTransformer) TransformDownloaded(runID, targetURL string, a models.DownloadedAsset, capturedAt time.Time) models.ParquetAssetRecord {
	return models.ParquetAssetRecord{
		RunID:       runID,
		TargetURL:   targetURL,
		SourceURL:   a.SourceURL,
		Kind:        string(a.Kind),
		LocalPath:   StringPtrOrNil(a.LocalPath),
		ByteLength:  Int64PtrOrNil(a.ByteLength),
		ContentType: StringPtrOrNil(a.ContentType),
		CapturedAt:  capturedAt.UnixMilli(),
	}
}

// TransformFailure converts a fetch failure to a manifest row.
func (rt *RecordTransformer) TransformFailure(runID, targetURL string, f models.FetchFailure, capturedAt time.Time) models.ParquetAssetRecord {
	return models.ParquetAssetRecord{
		RunID:      runID,
		TargetURL:  targetURL,
		SourceURL:  f.SourceURL,
		Kind:       string(f.Kind),
		Failed:     true,
		FailReason: StringPtrOrNil(f.Reason),
		Attempts:   Int32PtrOrNilZero(int32(f.Attempts)),
		CapturedAt: capturedAt.UnixMilli(),
	}
}
