package models

// ParquetAssetRecord is one row of the per-run asset manifest.
type ParquetAssetRecord struct {
	RunID       string  `parquet:"run_id"`
	TargetURL   string  `parquet:"target_url"`
	SourceURL   string  `parquet:"source_url"`
	Kind        string  `parquet:"kind"`
	LocalPath   *string `parquet:"local_path,optional"`
	ByteLength  *int64  `parquet:"byte_length,optional"`
	ContentType *string `parquet:"content_type,optional"`
	Failed      bool    `parquet:"failed"`
	FailReason  *string `parquet:"fail_reason,optional"`
	Attempts    *int32  `parquet:"attempts,optional"`
	CapturedAt  int64   `parquet:"captured_at"`
}
