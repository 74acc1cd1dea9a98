package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fivetwenty-io/autotask-client/internal/constants"
	"github.com/fivetwenty-io/autotask-client/internal/executor"
	athttp "github.com/fivetwenty-io/autotask-client/internal/http"
	"github.com/fivetwenty-io/autotask-client/internal/monitor"
	"github.com/fivetwenty-io/autotask-client/internal/quota"
	"github.com/fivetwenty-io/autotask-client/internal/ratelimit"
	"github.com/fivetwenty-io/autotask-client/pkg/autotask"
)

// Client implements the autotask.Client interface.
type Client struct {
	httpClient *athttp.Client
	exec       *executor.Executor
	limiter    *ratelimit.SlidingWindow
	monitor    *monitor.Monitor
	quota      *quota.Tracker
	cache      *autotask.CacheManager
	logger     autotask.Logger
	zone       autotask.ZoneInfo
	restBase   string

	core      *coreClients
	service   *serviceClients
	contracts *contractClients
	projects  *projectClients
	assets    *assetClients
	sales     *salesClients
}

var _ autotask.Client = (*Client)(nil)

// New validates config, resolves the zone and wires the request pipeline.
func New(ctx context.Context, config *autotask.Config) (*Client, error) {
	err := config.Validate()
	if err != nil {
		return nil, err
	}

	cfg := config.WithDefaults()

	cacheBackend := cfg.Cache
	if cacheBackend == nil {
		cacheBackend = autotask.NewMemoryCache(constants.DefaultCacheSize)
	}

	cache := autotask.NewCacheManager(cacheBackend, autotask.DefaultCacheOptions())

	limiter, err := ratelimit.NewSlidingWindow(cfg.RequestsPerSecond)
	if err != nil {
		return nil, autotask.NewConfigurationError(err.Error(), autotask.ErrInvalidRate)
	}

	var monitorOpts []monitor.Option
	if cfg.MetricsRegisterer != nil {
		monitorOpts = append(monitorOpts, monitor.WithCollectors(monitor.NewCollectors(cfg.MetricsRegisterer)))
	}

	perf := monitor.New(cfg.SampleSize, cfg.Logger, monitorOpts...)

	execOpts := []executor.Option{
		executor.WithLimiter(limiter),
		executor.WithRecorder(perf),
		executor.WithLogger(cfg.Logger),
	}

	var tracker *quota.Tracker
	if cfg.QuotaStore != nil {
		tracker = quota.New(cfg.QuotaStore, int64(cfg.HourlyThreshold),
			quota.WithLogger(cfg.Logger),
			quota.WithKeyPrefix(cfg.Username),
		)
		execOpts = append(execOpts, executor.WithQuota(tracker))
	}

	execConfig := executor.Config{
		Retries:       *cfg.Retries,
		BaseDelay:     cfg.BaseDelay,
		MaxDelay:      cfg.MaxDelay,
		Timeout:       cfg.Timeout,
		LogRequests:   *cfg.EnableRequestLogging,
		LogResponses:  *cfg.EnableResponseLogging,
		RecordMetrics: *cfg.EnablePerformanceMonitoring,
	}

	exec := executor.New(execConfig, execOpts...)

	zone := autotask.ZoneInfo{URL: cfg.BaseURL}
	if cfg.BaseURL == "" {
		// Zone lookups are not served by the database, so they skip the quota.
		discoveryConfig := execConfig
		discoveryConfig.Timeout = constants.ShortHTTPTimeout
		discoveryExec := executor.New(discoveryConfig,
			executor.WithLimiter(limiter),
			executor.WithRecorder(perf),
			executor.WithLogger(cfg.Logger),
		)

		zone, err = discoverZone(ctx, cfg, discoveryExec, cache)
		if err != nil {
			return nil, err
		}
	}

	restBase := RESTBaseURL(zone.URL)

	httpClient := athttp.NewClient(restBase, httpOptions(cfg, requestChain(cfg))...)

	client := &Client{
		httpClient: httpClient,
		exec:       exec,
		limiter:    limiter,
		monitor:    perf,
		quota:      tracker,
		cache:      cache,
		logger:     cfg.Logger,
		zone:       zone,
		restBase:   restBase,
	}

	client.initializeEntityClients()

	cfg.Logger.Debug("Autotask client ready", map[string]interface{}{
		"zone":     zone.ZoneName,
		"base_url": restBase,
	})

	return client, nil
}

func discoverZone(ctx context.Context, cfg *autotask.Config, exec *executor.Executor, cache *autotask.CacheManager) (autotask.ZoneInfo, error) {
	chain := autotask.NewInterceptorChain()
	chain.AddRequestInterceptor(autotask.RequestIDInterceptor())

	discovery := athttp.NewClient(cfg.ZoneDiscoveryURL, httpOptions(cfg, chain)...)
	defer discovery.CloseIdleConnections()

	resolver := NewZoneResolver(discovery, exec, cache, cfg.ZoneDiscoveryURL)

	zone, err := resolver.Resolve(ctx, cfg.Username)
	if err != nil {
		return autotask.ZoneInfo{}, err
	}

	cfg.Logger.Info("Autotask zone resolved", map[string]interface{}{
		"zone": zone.ZoneName,
		"url":  zone.URL,
	})

	return zone, nil
}

func requestChain(cfg *autotask.Config) *autotask.InterceptorChain {
	chain := autotask.NewInterceptorChain()
	chain.AddRequestInterceptor(autotask.AuthInterceptor(autotask.Credentials{
		Username:        cfg.Username,
		Secret:          cfg.Secret,
		IntegrationCode: cfg.IntegrationCode,
	}))
	chain.AddRequestInterceptor(autotask.ImpersonationInterceptor(cfg.ImpersonationResourceID))
	chain.AddRequestInterceptor(autotask.RequestIDInterceptor())

	if cfg.Debug {
		chain.AddRequestInterceptor(autotask.LoggingInterceptor(cfg.Logger))
		chain.AddResponseInterceptor(autotask.LoggingResponseInterceptor(cfg.Logger))
	}

	return chain
}

func httpOptions(cfg *autotask.Config, chain *autotask.InterceptorChain) []athttp.Option {
	return []athttp.Option{
		athttp.WithLogger(cfg.Logger),
		athttp.WithDebug(cfg.Debug),
		athttp.WithUserAgent(cfg.UserAgent),
		athttp.WithConnectionPool(cfg.ConnectionPool),
		athttp.WithInterceptors(chain),
	}
}

// initializeEntityClients builds the typed entity clients.
func (c *Client) initializeEntityClients() {
	c.core = &coreClients{
		companies: newTyped[autotask.Company](c, "Companies"),
		contacts:  newTyped[autotask.Contact](c, "Contacts"),
		resources: newTyped[autotask.Resource](c, "Resources"),
	}
	c.service = &serviceClients{
		tickets:     newTyped[autotask.Ticket](c, "Tickets"),
		ticketNotes: newTyped[autotask.TicketNote](c, "TicketNotes"),
		timeEntries: newTyped[autotask.TimeEntry](c, "TimeEntries"),
	}
	c.contracts = &contractClients{
		contracts: newTyped[autotask.Contract](c, "Contracts"),
	}
	c.projects = &projectClients{
		projects: newTyped[autotask.Project](c, "Projects"),
		tasks:    newTyped[autotask.Task](c, "Tasks"),
	}
	c.assets = &assetClients{
		configurationItems: newTyped[autotask.ConfigurationItem](c, "ConfigurationItems"),
	}
	c.sales = &salesClients{
		opportunities: newTyped[autotask.Opportunity](c, "Opportunities"),
	}
}

func newTyped[T any](c *Client, name string) *EntityClient[T] {
	return NewEntityClient[T](c.httpClient, c.exec, c.cache, autotask.MustLookupEntity(name))
}

// Core returns the company, contact and resource clients.
func (c *Client) Core() autotask.CoreClients { return c.core }

// Service returns the service desk clients.
func (c *Client) Service() autotask.ServiceClients { return c.service }

// Contracts returns the contract clients.
func (c *Client) Contracts() autotask.ContractClients { return c.contracts }

// Projects returns the project clients.
func (c *Client) Projects() autotask.ProjectClients { return c.projects }

// Assets returns the configuration item clients.
func (c *Client) Assets() autotask.AssetClients { return c.assets }

// Sales returns the opportunity clients.
func (c *Client) Sales() autotask.SalesClients { return c.sales }

// Entity returns an untyped client for any entity in the table.
func (c *Client) Entity(name string) (autotask.EntityClient[autotask.Entity], error) {
	meta, ok := autotask.LookupEntity(name)
	if !ok {
		return nil, autotask.NewConfigurationError(
			fmt.Sprintf("%s: %q", autotask.ErrUnknownEntity.Error(), name),
			autotask.ErrUnknownEntity,
		)
	}

	return NewEntityClient[autotask.Entity](c.httpClient, c.exec, c.cache, meta), nil
}

// ThresholdInfo returns the database's hourly request threshold and usage.
// The local quota tracker adopts the server's numbers.
func (c *Client) ThresholdInfo(ctx context.Context) (*autotask.ThresholdInfo, error) {
	var info autotask.ThresholdInfo

	err := c.getJSON(ctx, "ThresholdInformation", "ThresholdInformation", &info)
	if err != nil {
		return nil, fmt.Errorf("getting threshold information: %w", err)
	}

	if c.quota != nil {
		err = c.quota.SyncFromServer(ctx, info)
		if err != nil {
			c.logger.Warn("Failed to sync hourly quota", map[string]interface{}{"error": err.Error()})
		}
	}

	return &info, nil
}

// Version lists the API versions the zone supports.
func (c *Client) Version(ctx context.Context) (*autotask.VersionInfo, error) {
	var info autotask.VersionInfo

	err := c.getJSON(ctx, "versioninformation", serviceRoot(c.restBase)+"/versioninformation", &info)
	if err != nil {
		return nil, fmt.Errorf("getting version information: %w", err)
	}

	return &info, nil
}

// Zone returns the zone the client talks to.
func (c *Client) Zone() autotask.ZoneInfo {
	return c.zone
}

// Metrics returns a snapshot of request statistics.
func (c *Client) Metrics() autotask.PerformanceMetrics {
	return c.monitor.Metrics()
}

// ResetMetrics clears request statistics.
func (c *Client) ResetMetrics() {
	c.monitor.Reset()
}

// SetRequestsPerSecond changes the outbound rate.
func (c *Client) SetRequestsPerSecond(n int) error {
	err := c.limiter.SetRate(n)
	if err != nil {
		return autotask.NewConfigurationError(err.Error(), autotask.ErrInvalidRate)
	}

	return nil
}

// QuotaUsage reports local hourly usage. It fails when no quota store is configured.
func (c *Client) QuotaUsage(ctx context.Context) (quota.Usage, error) {
	if c.quota == nil {
		return quota.Usage{}, autotask.ErrQuotaNotConfigured
	}

	return c.quota.Usage(ctx)
}

// Close releases pooled connections and the quota store.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()

	if c.quota != nil {
		return c.quota.Close()
	}

	return nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, out interface{}) error {
	resp, err := c.exec.Execute(ctx, func(ctx context.Context) (*autotask.ResponseEnvelope, error) {
		return c.httpClient.Get(ctx, path, nil)
	}, endpoint, http.MethodGet)
	if err != nil {
		return err
	}

	err = json.Unmarshal(resp.Body, out)
	if err != nil {
		return fmt.Errorf("parsing %s response: %w", endpoint, err)
	}

	return nil
}

type coreClients struct {
	companies *EntityClient[autotask.Company]
	contacts  *EntityClient[autotask.Contact]
	resources *EntityClient[autotask.Resource]
}

func (g *coreClients) Companies() autotask.EntityClient[autotask.Company] { return g.companies }
func (g *coreClients) Contacts() autotask.EntityClient[autotask.Contact]  { return g.contacts }
func (g *coreClients) Resources() autotask.EntityClient[autotask.Resource] {
	return g.resources
}

type serviceClients struct {
	tickets     *EntityClient[autotask.Ticket]
	ticketNotes *EntityClient[autotask.TicketNote]
	timeEntries *EntityClient[autotask.TimeEntry]
}

func (g *serviceClients) Tickets() autotask.EntityClient[autotask.Ticket] { return g.tickets }
func (g *serviceClients) TicketNotes() autotask.EntityClient[autotask.TicketNote] {
	return g.ticketNotes
}

func (g *serviceClients) TimeEntries() autotask.EntityClient[autotask.TimeEntry] {
	return g.timeEntries
}

type contractClients struct {
	contracts *EntityClient[autotask.Contract]
}

func (g *contractClients) Contracts() autotask.EntityClient[autotask.Contract] { return g.contracts }

type projectClients struct {
	projects *EntityClient[autotask.Project]
	tasks    *EntityClient[autotask.Task]
}

func (g *projectClients) Projects() autotask.EntityClient[autotask.Project] { return g.projects }
func (g *projectClients) Tasks() autotask.EntityClient[autotask.Task]       { return g.tasks }

type assetClients struct {
	configurationItems *EntityClient[autotask.ConfigurationItem]
}

func (g *assetClients) ConfigurationItems() autotask.EntityClient[autotask.ConfigurationItem] {
	return g.configurationItems
}

type salesClients struct {
	opportunities *EntityClient[autotask.Opportunity]
}

func (g *salesClients) Opportunities() autotask.EntityClient[autotask.Opportunity] {
	return g.opportunities
}
