package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/fivetwenty-io/autotask-client/internal/constants"
	"github.com/fivetwenty-io/autotask-client/internal/logging"
	"github.com/fivetwenty-io/autotask-client/pkg/atclient"
	"github.com/fivetwenty-io/autotask-client/pkg/autotask"
)

// Quota store types accepted by the quota_store setting.
const (
	quotaStoreMemory = "memory"
	quotaStoreSQLite = "sqlite"
	quotaStoreRedis  = "redis"
)

// createClient builds an Autotask client from the effective configuration.
func createClient(ctx context.Context) (autotask.Client, error) {
	config := loadConfig()

	clientConfig, err := buildClientConfig(ctx, config)
	if err != nil {
		return nil, err
	}

	client, err := atclient.New(ctx, clientConfig)
	if err != nil {
		if clientConfig.QuotaStore != nil {
			_ = clientConfig.QuotaStore.Close()
		}

		return nil, err
	}

	return client, nil
}

func buildClientConfig(ctx context.Context, config *Config) (*autotask.Config, error) {
	logger, err := logging.New(config.LogFormat, viper.GetBool("verbose"), os.Stderr)
	if err != nil {
		return nil, err
	}

	cache, err := buildCache(config)
	if err != nil {
		return nil, err
	}

	store, err := buildQuotaStore(ctx, config)
	if err != nil {
		return nil, err
	}

	return &autotask.Config{
		Username:                config.Username,
		Secret:                  config.Secret,
		IntegrationCode:         config.IntegrationCode,
		ImpersonationResourceID: config.ImpersonationResourceID,
		BaseURL:                 config.BaseURL,
		RequestsPerSecond:       config.RequestsPerSecond,
		HourlyThreshold:         config.HourlyThreshold,
		QuotaStore:              store,
		Cache:                   cache,
		Logger:                  logger,
		Debug:                   viper.GetBool("verbose"),
	}, nil
}

func buildCache(config *Config) (autotask.Cache, error) {
	cacheType, err := autotask.ParseCacheType(config.Cache)
	if err != nil {
		return nil, err
	}

	cacheConfig := autotask.DefaultCacheConfig()
	cacheConfig.Type = cacheType

	if cacheType == autotask.CacheTypeNATS {
		cacheConfig.NATS = &autotask.NATSKVConfig{
			URL:    config.NATSURL,
			Bucket: config.NATSBucket,
			TTL:    constants.ZoneCacheTTL,
		}
	}

	cache, err := autotask.NewCacheFromConfig(cacheConfig)
	if err != nil {
		return nil, fmt.Errorf("creating cache: %w", err)
	}

	return cache, nil
}

func buildQuotaStore(ctx context.Context, config *Config) (autotask.QuotaStore, error) {
	switch strings.ToLower(config.QuotaStore) {
	case "", "none":
		return nil, nil //nolint:nilnil // no store means no local quota
	case quotaStoreMemory:
		return atclient.NewMemoryQuotaStore(), nil
	case quotaStoreSQLite:
		if config.QuotaDSN == "" {
			return nil, constants.ErrQuotaStoreRequired
		}

		return atclient.NewSQLiteQuotaStore(config.QuotaDSN)
	case quotaStoreRedis:
		if config.QuotaDSN == "" {
			return nil, constants.ErrQuotaStoreRequired
		}

		return atclient.NewRedisQuotaStoreFromURL(ctx, config.QuotaDSN)
	default:
		return nil, fmt.Errorf("%w: %s", constants.ErrUnknownQuotaStore, config.QuotaStore)
	}
}
