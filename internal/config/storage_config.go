package config

// StorageConfig defines where run history and asset manifests are kept.
// Both live outside the output tree so the offline bundle stays clean.
type StorageConfig struct {
	EnableHistory  bool   `json:"enable_history" yaml:"enable_history"`
	HistoryDBPath  string `json:"history_db_path,omitempty" yaml:"history_db_path,omitempty"`
	EnableManifest bool   `json:"enable_manifest" yaml:"enable_manifest"`
	ManifestDir    string `json:"manifest_dir,omitempty" yaml:"manifest_dir,omitempty"`
}

// NewDefaultStorageConfig creates default storage configuration
func NewDefaultStorageConfig() StorageConfig {
	return StorageConfig{
		EnableHistory:  true,
		HistoryDBPath:  DefaultStorageHistoryDBPath,
		EnableManifest: true,
		ManifestDir:    DefaultStorageManifestDir,
	}
}
