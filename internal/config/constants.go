package config

const (
	// Renderer Defaults
	DefaultRendererEngine            = "browser"
	DefaultRendererUserAgent         = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultRendererWindowWidth       = 1920
	DefaultRendererWindowHeight      = 1080
	DefaultRendererPageLoadTimeout   = 60
	DefaultRendererIdleTimeoutSecs   = 10
	DefaultRendererDelayMs           = 3000
	DefaultRendererScrollPauseMs     = 800
	DefaultRendererHTTPTimeoutSecs   = 30
	DefaultRendererStealth           = true
	DefaultRendererHeadless          = true
	DefaultRendererScrollForLazyLoad = true

	// Catalog Defaults
	DefaultCatalogMaxComputedElements = 5000
	DefaultCatalogDiscoverScriptURLs  = false

	// Fetcher Defaults
	DefaultFetcherMaxAttempts        = 3
	DefaultFetcherBaseDelayMs        = 500
	DefaultFetcherMaxDelayMs         = 8000
	DefaultFetcherAttemptTimeoutSecs = 15
	DefaultFetcherMaxConcurrency     = 16
	DefaultFetcherMaxAssetBytes      = 50 * 1024 * 1024
	DefaultFetcherCSSDependencyDepth = 3
	DefaultFetcherVia                = "auto"

	// Output Defaults
	DefaultOutputMode                  = "per-file"
	DefaultOutputExtractionTimeoutSecs = 300

	// Rewriter Defaults
	DefaultRewriterFailedPolicy = "keep"

	// Storage Defaults
	DefaultStorageHistoryDBPath = "database/history.db"
	DefaultStorageManifestDir   = "database/manifests"

	// Log Defaults
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultLogFile       = ""
	DefaultMaxLogSizeMB  = 100
	DefaultMaxLogBackups = 3

	// Probe Defaults
	DefaultProbeTimeoutSecs = 10
	DefaultProbeRetries     = 1

	// ConfigPathEnv overrides the config file location.
	ConfigPathEnv = "MIRRORINC_CONFIG_PATH"
)

// Output modes.
const (
	OutputModePerFile = "per-file"
	OutputModeMerged  = "merged"
)

// Failed reference policies.
const (
	FailedPolicyKeep  = "keep"
	FailedPolicyStrip = "strip"
)

// Renderer engines.
const (
	EngineBrowser = "browser"
	EngineHTTP    = "http"
)

// Asset fetch transports.
const (
	FetchViaAuto = "auto"
	FetchViaPage = "page"
	FetchViaHTTP = "http"
)
