// Package atclient provides the main entry point for creating Autotask API clients
package atclient

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fivetwenty-io/autotask-client/internal/client"
	"github.com/fivetwenty-io/autotask-client/internal/logging"
	"github.com/fivetwenty-io/autotask-client/internal/quota"
	"github.com/fivetwenty-io/autotask-client/pkg/autotask"
)

// New creates an Autotask API client. Without config.BaseURL the zone is
// discovered from the username first.
func New(ctx context.Context, config *autotask.Config) (autotask.Client, error) {
	c, err := client.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return c, nil
}

// NewWithCredentials creates a client from the three values every API user has.
func NewWithCredentials(ctx context.Context, username, secret, integrationCode string) (autotask.Client, error) {
	return New(ctx, &autotask.Config{
		Username:        username,
		Secret:          secret,
		IntegrationCode: integrationCode,
	})
}

// NewWithBaseURL creates a client for a known zone, skipping discovery.
func NewWithBaseURL(ctx context.Context, baseURL, username, secret, integrationCode string) (autotask.Client, error) {
	return New(ctx, &autotask.Config{
		Username:        username,
		Secret:          secret,
		IntegrationCode: integrationCode,
		BaseURL:         baseURL,
	})
}

// QuotaUsage reports the local hourly counters of a client built with a
// QuotaStore.
func QuotaUsage(ctx context.Context, c autotask.Client) (autotask.QuotaUsage, error) {
	impl, ok := c.(*client.Client)
	if !ok {
		return autotask.QuotaUsage{}, autotask.ErrQuotaNotConfigured
	}

	return impl.QuotaUsage(ctx)
}

// NewMemoryQuotaStore keeps hourly counters in process memory.
func NewMemoryQuotaStore() autotask.QuotaStore {
	return quota.NewMemoryStore()
}

// NewSQLiteQuotaStore keeps hourly counters in a SQLite database, so
// processes on one host share them.
func NewSQLiteQuotaStore(dsn string) (autotask.QuotaStore, error) {
	store, err := quota.NewSQLiteStore(dsn)
	if err != nil {
		return nil, err
	}

	return store, nil
}

// NewRedisQuotaStore keeps hourly counters in Redis. The caller owns client.
func NewRedisQuotaStore(rdb redis.UniversalClient) autotask.QuotaStore {
	return quota.NewRedisStore(rdb)
}

// NewRedisQuotaStoreFromURL connects to Redis, e.g. "redis://localhost:6379/0".
func NewRedisQuotaStoreFromURL(ctx context.Context, rawURL string) (autotask.QuotaStore, error) {
	store, err := quota.NewRedisStoreFromURL(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	return store, nil
}

// NewZapLogger adapts a zap logger for Config.Logger.
func NewZapLogger(logger *zap.Logger) autotask.Logger {
	return logging.NewZapLogger(logger)
}

// NewSlogLogger adapts a slog logger for Config.Logger.
func NewSlogLogger(logger *slog.Logger) autotask.Logger {
	return logging.NewSlogLogger(logger)
}

// NewLogger builds a logger writing "text" or "json" to w.
func NewLogger(format string, verbose bool, w io.Writer) (autotask.Logger, error) {
	return logging.New(format, verbose, w)
}
