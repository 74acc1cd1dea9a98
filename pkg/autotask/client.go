package autotask

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fivetwenty-io/autotask-client/internal/constants"
)

// EntityClient is the generic client for one Autotask entity.
type EntityClient[T any] interface {
	// Name returns the entity name from the entity table.
	Name() string
	Get(ctx context.Context, id int64) (*T, error)
	Query(ctx context.Context, query *Query) (*ListResponse[T], error)
	// QueryAll follows nextPageUrl until the result set is exhausted.
	QueryAll(ctx context.Context, query *Query) ([]T, error)
	// Iterate returns a page-at-a-time iterator over query results.
	Iterate(ctx context.Context, query *Query) *PaginationIterator[T]
	Count(ctx context.Context, query *Query) (int64, error)
	Create(ctx context.Context, item *T) (int64, error)
	Update(ctx context.Context, item *T) (int64, error)
	Patch(ctx context.Context, id int64, fields map[string]interface{}) (int64, error)
	Delete(ctx context.Context, id int64) error
	EntityInfo(ctx context.Context) (*EntityInformation, error)
	FieldInfo(ctx context.Context) ([]FieldInfo, error)
	// Under scopes writes of a child entity to its parent, as in
	// Tickets/{parentID}/Notes. Reads keep using the entity's own path.
	Under(parentID int64) EntityClient[T]
}

// CoreClients provides access to companies, contacts and resources.
type CoreClients interface {
	Companies() EntityClient[Company]
	Contacts() EntityClient[Contact]
	Resources() EntityClient[Resource]
}

// ServiceClients provides access to service desk entities.
type ServiceClients interface {
	Tickets() EntityClient[Ticket]
	TicketNotes() EntityClient[TicketNote]
	TimeEntries() EntityClient[TimeEntry]
}

// ContractClients provides access to contracts.
type ContractClients interface {
	Contracts() EntityClient[Contract]
}

// ProjectClients provides access to projects and their tasks.
type ProjectClients interface {
	Projects() EntityClient[Project]
	Tasks() EntityClient[Task]
}

// AssetClients provides access to configuration items.
type AssetClients interface {
	ConfigurationItems() EntityClient[ConfigurationItem]
}

// SalesClients provides access to opportunities.
type SalesClients interface {
	Opportunities() EntityClient[Opportunity]
}

// InfoClient provides access to the informational endpoints.
type InfoClient interface {
	ThresholdInfo(ctx context.Context) (*ThresholdInfo, error)
	Version(ctx context.Context) (*VersionInfo, error)
	Zone() ZoneInfo
}

// MonitoringClient exposes the client's own request statistics.
type MonitoringClient interface {
	Metrics() PerformanceMetrics
	ResetMetrics()
	SetRequestsPerSecond(n int) error
}

// Client is the Autotask API client.
type Client interface {
	Core() CoreClients
	Service() ServiceClients
	Contracts() ContractClients
	Projects() ProjectClients
	Assets() AssetClients
	Sales() SalesClients

	// Entity returns an untyped client for any entry of the entity table.
	Entity(name string) (EntityClient[Entity], error)

	InfoClient
	MonitoringClient

	// Close releases pooled connections and the quota store.
	Close() error
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// NoopLogger discards everything.
type NoopLogger struct{}

func (NoopLogger) Debug(string, map[string]interface{}) {}
func (NoopLogger) Info(string, map[string]interface{})  {}
func (NoopLogger) Warn(string, map[string]interface{})  {}
func (NoopLogger) Error(string, map[string]interface{}) {}

// Timing is one completed call as seen by the performance monitor.
type Timing struct {
	Endpoint  string
	Method    string
	Duration  time.Duration
	Success   bool
	Kind      ErrorKind
	Attempts  int
	Timestamp time.Time
}

// PerformanceMetrics is a point-in-time snapshot of request statistics.
type PerformanceMetrics struct {
	TotalRequests     int64                      `json:"totalRequests"     yaml:"total_requests"`
	SuccessCount      int64                      `json:"successCount"      yaml:"success_count"`
	ErrorCount        int64                      `json:"errorCount"        yaml:"error_count"`
	ErrorRate         float64                    `json:"errorRate"         yaml:"error_rate"`
	AverageLatency    time.Duration              `json:"averageLatency"    yaml:"average_latency"`
	MinLatency        time.Duration              `json:"minLatency"        yaml:"min_latency"`
	MaxLatency        time.Duration              `json:"maxLatency"        yaml:"max_latency"`
	P50Latency        time.Duration              `json:"p50Latency"        yaml:"p50_latency"`
	P95Latency        time.Duration              `json:"p95Latency"        yaml:"p95_latency"`
	P99Latency        time.Duration              `json:"p99Latency"        yaml:"p99_latency"`
	RequestsPerSecond float64                    `json:"requestsPerSecond" yaml:"requests_per_second"`
	ErrorsByKind      map[ErrorKind]int64        `json:"errorsByKind"      yaml:"errors_by_kind"`
	Endpoints         map[string]EndpointMetrics `json:"endpoints"         yaml:"endpoints"`
	Since             time.Time                  `json:"since"             yaml:"since"`
}

// EndpointMetrics are the counters kept per endpoint.
type EndpointMetrics struct {
	Requests       int64         `json:"requests"       yaml:"requests"`
	Errors         int64         `json:"errors"         yaml:"errors"`
	AverageLatency time.Duration `json:"averageLatency" yaml:"average_latency"`
}

// QuotaStore persists hourly request counters so several processes sharing
// one Autotask database can see the same usage.
type QuotaStore interface {
	// Increment adds one to the counter for key and returns the new value.
	// The counter expires after ttl.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)
	// Get returns the counter for key, zero when absent.
	Get(ctx context.Context, key string) (int64, error)
	// Set overwrites the counter for key.
	Set(ctx context.Context, key string, value int64, ttl time.Duration) error
	Close() error
}

// QuotaUsage is a snapshot of the current hourly bucket.
type QuotaUsage struct {
	Used      int64     `json:"used"      yaml:"used"`
	Threshold int64     `json:"threshold" yaml:"threshold"`
	Remaining int64     `json:"remaining" yaml:"remaining"`
	Percent   float64   `json:"percent"   yaml:"percent"`
	ResetsAt  time.Time `json:"resetsAt"  yaml:"resets_at"`
}

// ConnectionPoolConfig tunes the pooled HTTP transport.
type ConnectionPoolConfig struct {
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
}

// Config represents client configuration for building an autotask.Client.
//
// # Zones
//
// Autotask serves each database from one zone. Unless BaseURL is set,
// atclient.New looks the zone up from ZoneDiscoveryURL with the username and
// builds the REST base as "<zone url>/v1.0".
//
// # Retries and limits
//
// Transient failures (network, 5xx, 429) are retried Retries times with
// exponential backoff from BaseDelay, capped at MaxDelay. A 429 with a
// Retry-After header waits exactly that long. Outbound requests never exceed
// RequestsPerSecond in any one-second window, and HourlyThreshold bounds the
// requests sent per hour when a QuotaStore is configured.
type Config struct {
	// Username is the API user's email address.
	Username string
	// Secret is the API user's password.
	Secret string
	// IntegrationCode is the tracking identifier of the API integration.
	IntegrationCode string
	// ImpersonationResourceID makes writes attributed to another resource.
	ImpersonationResourceID int64

	// BaseURL skips zone discovery, e.g. "https://webservices5.autotask.net/atservicesrest".
	BaseURL string
	// ZoneDiscoveryURL overrides the zone lookup endpoint.
	ZoneDiscoveryURL string

	Retries   *int
	BaseDelay time.Duration
	MaxDelay  time.Duration
	// Timeout applies to each attempt, not to the whole call.
	Timeout           time.Duration
	RequestsPerSecond int

	EnableRequestLogging        *bool
	EnableResponseLogging       *bool
	EnablePerformanceMonitoring *bool
	SampleSize                  int

	HourlyThreshold int
	QuotaStore      QuotaStore

	Cache             Cache
	Logger            Logger
	MetricsRegisterer prometheus.Registerer
	UserAgent         string
	ConnectionPool    *ConnectionPoolConfig
	// Debug logs request and response bodies at debug level.
	Debug bool
}

// Validate reports the first configuration problem as a Configuration error.
func (c *Config) Validate() error {
	if c == nil {
		return NewConfigurationError("config is required", ErrConfigRequired)
	}

	checks := []struct {
		failed bool
		err    error
	}{
		{strings.TrimSpace(c.Username) == "", ErrUsernameRequired},
		{c.Secret == "", ErrSecretRequired},
		{strings.TrimSpace(c.IntegrationCode) == "", ErrIntegrationCodeRequired},
		{c.Retries != nil && *c.Retries < 0, ErrInvalidRetries},
		{c.RequestsPerSecond < 0, ErrInvalidRate},
		{c.Timeout < 0 || c.BaseDelay < 0 || c.MaxDelay < 0, ErrInvalidTimeout},
	}

	for _, check := range checks {
		if check.failed {
			return NewConfigurationError(check.err.Error(), check.err)
		}
	}

	for _, raw := range []string{c.BaseURL, c.ZoneDiscoveryURL} {
		if raw == "" {
			continue
		}

		parsed, err := url.Parse(raw)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return NewConfigurationError(fmt.Sprintf("%s: %q", ErrInvalidBaseURL.Error(), raw), ErrInvalidBaseURL)
		}
	}

	return nil
}

// WithDefaults returns a copy with every unset field filled in.
func (c *Config) WithDefaults() *Config {
	out := *c

	if out.Retries == nil {
		out.Retries = Int(constants.DefaultRetries)
	}

	if out.BaseDelay == 0 {
		out.BaseDelay = constants.DefaultBaseDelay
	}

	if out.MaxDelay == 0 {
		out.MaxDelay = constants.DefaultMaxDelay
	}

	if out.Timeout == 0 {
		out.Timeout = constants.DefaultHTTPTimeout
	}

	if out.RequestsPerSecond == 0 {
		out.RequestsPerSecond = constants.DefaultRequestsPerSecond
	}

	if out.EnableRequestLogging == nil {
		out.EnableRequestLogging = Bool(true)
	}

	if out.EnableResponseLogging == nil {
		out.EnableResponseLogging = Bool(true)
	}

	if out.EnablePerformanceMonitoring == nil {
		out.EnablePerformanceMonitoring = Bool(true)
	}

	if out.SampleSize <= 0 {
		out.SampleSize = constants.DefaultSampleSize
	}

	if out.HourlyThreshold <= 0 {
		out.HourlyThreshold = constants.DefaultHourlyThreshold
	}

	if out.ZoneDiscoveryURL == "" {
		out.ZoneDiscoveryURL = constants.ZoneDiscoveryURL
	}

	if out.UserAgent == "" {
		out.UserAgent = constants.DefaultUserAgent
	}

	if out.Logger == nil {
		out.Logger = NoopLogger{}
	}

	if out.ConnectionPool == nil {
		out.ConnectionPool = &ConnectionPoolConfig{
			MaxIdleConns:        constants.DefaultMaxIdleConns,
			MaxIdleConnsPerHost: constants.DefaultMaxIdleConnsPerHost,
			IdleConnTimeout:     constants.DefaultIdleConnTimeout,
		}
	}

	return &out
}

// Bool returns a pointer to v.
func Bool(v bool) *bool {
	return &v
}

// Int returns a pointer to v.
func Int(v int) *int {
	return &v
}
