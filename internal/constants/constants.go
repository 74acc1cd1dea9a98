package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// Autotask endpoints.
const (
	// ZoneDiscoveryURL resolves the API zone for a user before any entity call.
	ZoneDiscoveryURL = "https://webservices.autotask.net/atservicesrest/v1.0/zoneInformation"

	// APIVersionPath is appended to the zone URL to form the REST base.
	APIVersionPath = "v1.0"

	// DefaultUserAgent is sent when the config does not override it.
	DefaultUserAgent = "autotask-client-go"
)

// Authentication header names.
const (
	HeaderUserName                = "UserName"
	HeaderSecret                  = "Secret"
	HeaderIntegrationCode         = "ApiIntegrationCode"
	HeaderImpersonationResourceID = "ImpersonationResourceId"
	HeaderRetryAfter              = "Retry-After"
	HeaderRequestID               = "X-Request-Id"
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default per-attempt timeout.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for zone discovery.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry and backoff.
const (
	// DefaultRetries is the number of additional attempts after the first.
	DefaultRetries = 3

	// DefaultBaseDelay is the first backoff step.
	DefaultBaseDelay = 1 * time.Second

	// DefaultMaxDelay caps the exponential backoff before jitter.
	DefaultMaxDelay = 30 * time.Second

	// ExponentialBackoffBase is the base for exponential backoff.
	ExponentialBackoffBase = 2

	// JitterFraction is the upper bound of random jitter relative to the delay.
	JitterFraction = 0.1
)

// Rate limiting and quotas.
const (
	// DefaultRequestsPerSecond is the outbound ceiling per client.
	DefaultRequestsPerSecond = 5

	// RateLimitWindow is the trailing window of the sliding limiter.
	RateLimitWindow = time.Second

	// DefaultHourlyThreshold is Autotask's default per-database request threshold.
	DefaultHourlyThreshold = 10000

	// QuotaWindow is the bucket size of the hourly threshold.
	QuotaWindow = time.Hour
)

// Performance monitoring.
const (
	// DefaultSampleSize is the number of recent samples kept for percentiles.
	DefaultSampleSize = 1000

	// SlowRequestThreshold triggers a warning for a single request.
	SlowRequestThreshold = 5 * time.Second

	// ErrorRateThreshold triggers a warning when exceeded.
	ErrorRateThreshold = 0.10

	// MinThroughputThreshold triggers a warning below this requests/second.
	MinThroughputThreshold = 0.1

	// MinSamplesForRateWarnings avoids noisy warnings right after start.
	MinSamplesForRateWarnings = 10

	// PercentageMultiplier converts decimals to percentages.
	PercentageMultiplier = 100
)

// Connection pool.
const (
	DefaultMaxIdleConns        = 100
	DefaultMaxIdleConnsPerHost = 20
	DefaultIdleConnTimeout     = 90 * time.Second
)

// Query limits.
const (
	// MaxRecordsLimit is the largest page Autotask returns.
	MaxRecordsLimit = 500

	// DefaultMaxRecords is used when a query does not set MaxRecords.
	DefaultMaxRecords = 500
)

// Cache sizes and TTLs.
const (
	// DefaultCacheSize is the default cache size limit.
	DefaultCacheSize = 1000

	// ZoneCacheTTL is how long a discovered zone is reused.
	ZoneCacheTTL = 24 * time.Hour

	// FieldInfoCacheTTL is how long entity field metadata is reused.
	FieldInfoCacheTTL = time.Hour

	// DefaultCacheTTL is used when a caller passes a zero TTL.
	DefaultCacheTTL = 5 * time.Minute

	// MaxCacheValueSize is the maximum size for cached values (1MB).
	MaxCacheValueSize = 1024 * 1024
)

// Concurrency and batching limits.
const (
	// DefaultConcurrencyLimit limits concurrent batch operations.
	DefaultConcurrencyLimit = 5
)

// Format constants.
const (
	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// FormatTable for table output format.
	FormatTable = "table"

	// JSONIndentSize is the number of spaces for JSON indentation.
	JSONIndentSize = 2

	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"

	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"
)

// CRUD operation constants.
const (
	OperationCreate = "create"
	OperationGet    = "get"
	OperationQuery  = "query"
	OperationUpdate = "update"
	OperationPatch  = "patch"
	OperationDelete = "delete"
)
