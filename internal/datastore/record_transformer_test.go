package datastore

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleister1102/mirrorinc/internal/models"
)

func TestRecordTransformer_TransformDownloaded(t *testing.T) {
	transformer := NewRecordTransformer(zerolog.Nop())
	capturedAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	rec := transformer.TransformDownloaded("run-1", "https://ex.com/", models.DownloadedAsset{
		SourceURL:   "https://ex.com/i.png",
		LocalPath:   "images/i.png",
		ByteLength:  42,
		ContentType: "image/png",
		Kind:        models.KindImage,
	}, capturedAt)

	assert.Equal(t, "run-1", rec.RunID)
	assert.Equal(t, "image", rec.Kind)
	require.NotNil(t, rec.LocalPath)
	assert.Equal(t, "images/i.png", *rec.LocalPath)
	require.NotNil(t, rec.ByteLength)
	assert.Equal(t, int64(42), *rec.ByteLength)
	assert.False(t, rec.Failed)
	assert.Nil(t, rec.FailReason)
	assert.Equal(t, capturedAt.UnixMilli(), rec.CapturedAt)
}

func TestRecordTransformer_TransformFailure(t *testing.T) {
	transformer := NewRecordTransformer(zerolog.Nop())

	rec := transformer.TransformFailure("run-1", "https://ex.com/", models.FetchFailure{
		SourceURL: "https://ex.com/f.woff2",
		Kind:      models.KindFont,
		Reason:    "HTTP 500",
		Attempts:  3,
	}, time.Now())

	assert.True(t, rec.Failed)
	assert.Nil(t, rec.LocalPath)
	require.NotNil(t, rec.FailReason)
	assert.Equal(t, "HTTP 500", *rec.FailReason)
	require.NotNil(t, rec.Attempts)
	assert.Equal(t, int32(3), *rec.Attempts)
}
