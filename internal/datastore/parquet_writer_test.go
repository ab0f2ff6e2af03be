package datastore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleister1102/mirrorinc/internal/config"
	"github.com/aleister1102/mirrorinc/internal/models"
)

func TestNewParquetWriter(t *testing.T) {
	tempDir := t.TempDir()
	writer, err := NewParquetWriter(&config.StorageConfig{ManifestDir: tempDir}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, tempDir, writer.config.ManifestDir)

	_, err = NewParquetWriter(nil, zerolog.Nop())
	assert.Error(t, err)

	_, err = NewParquetWriter(&config.StorageConfig{}, zerolog.Nop())
	assert.Error(t, err)
}

func TestParquetWriter_WriteManifest_RoundTrip(t *testing.T) {
	tempDir := t.TempDir()
	writer, err := NewParquetWriter(&config.StorageConfig{ManifestDir: tempDir}, zerolog.Nop())
	require.NoError(t, err)

	result, err := writer.WriteManifest(context.Background(), ManifestRequest{
		RunID:     "run-123",
		TargetURL: "https://ex.com/page",
		Downloaded: []models.DownloadedAsset{
			{SourceURL: "https://ex.com/s.css", LocalPath: "css/s.css", ByteLength: 10, ContentType: "text/css", Kind: models.KindStylesheet},
			{SourceURL: "https://ex.com/i.png", LocalPath: "images/i.png", ByteLength: 20, ContentType: "image/png", Kind: models.KindImage},
		},
		Failures: []models.FetchFailure{
			{SourceURL: "https://ex.com/f.woff2", Kind: models.KindFont, Reason: "HTTP 500", Attempts: 3},
		},
		CapturedAt: time.Now(),
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(tempDir, "ex.com", "run-123.parquet"), result.FilePath)
	assert.Equal(t, 3, result.RecordsWritten)
	assert.FileExists(t, result.FilePath)

	records, err := ReadManifest(result.FilePath)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "https://ex.com/s.css", records[0].SourceURL)
	require.NotNil(t, records[1].LocalPath)
	assert.Equal(t, "images/i.png", *records[1].LocalPath)
	assert.True(t, records[2].Failed)
}

func TestParquetWriter_WriteManifest_Validation(t *testing.T) {
	writer, err := NewParquetWriter(&config.StorageConfig{ManifestDir: t.TempDir()}, zerolog.Nop())
	require.NoError(t, err)

	_, err = writer.WriteManifest(context.Background(), ManifestRequest{TargetURL: "https://ex.com"})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = writer.WriteManifest(ctx, ManifestRequest{RunID: "r", TargetURL: "https://ex.com"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadManifest_Missing(t *testing.T) {
	_, err := ReadManifest(filepath.Join(t.TempDir(), "nope.parquet"))
	assert.Error(t, err)
}
