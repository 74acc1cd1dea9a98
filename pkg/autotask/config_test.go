package autotask_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/autotask-client/pkg/autotask"
)

func validConfig() *autotask.Config {
	return &autotask.Config{
		Username:        "api@example.com",
		Secret:          "s3cret",
		IntegrationCode: "TRACK",
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, validConfig().Validate())

	var nilConfig *autotask.Config
	require.ErrorIs(t, nilConfig.Validate(), autotask.ErrConfigRequired)

	tests := []struct {
		name   string
		mutate func(*autotask.Config)
		want   error
	}{
		{"username", func(c *autotask.Config) { c.Username = " " }, autotask.ErrUsernameRequired},
		{"secret", func(c *autotask.Config) { c.Secret = "" }, autotask.ErrSecretRequired},
		{"integration code", func(c *autotask.Config) { c.IntegrationCode = "" }, autotask.ErrIntegrationCodeRequired},
		{"retries", func(c *autotask.Config) { c.Retries = autotask.Int(-1) }, autotask.ErrInvalidRetries},
		{"rate", func(c *autotask.Config) { c.RequestsPerSecond = -2 }, autotask.ErrInvalidRate},
		{"timeout", func(c *autotask.Config) { c.Timeout = -time.Second }, autotask.ErrInvalidTimeout},
		{"base url scheme", func(c *autotask.Config) { c.BaseURL = "ftp://example.com" }, autotask.ErrInvalidBaseURL},
		{"discovery url", func(c *autotask.Config) { c.ZoneDiscoveryURL = "zoneInformation" }, autotask.ErrInvalidBaseURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.ErrorIs(t, err, tt.want)
			assert.True(t, autotask.IsConfiguration(err))
		})
	}
}

func TestConfig_WithDefaults(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	defaulted := cfg.WithDefaults()

	assert.Nil(t, cfg.Retries, "receiver untouched")
	assert.Equal(t, 3, *defaulted.Retries)
	assert.Equal(t, time.Second, defaulted.BaseDelay)
	assert.Equal(t, 30*time.Second, defaulted.MaxDelay)
	assert.Equal(t, 5, defaulted.RequestsPerSecond)
	assert.Equal(t, 10000, defaulted.HourlyThreshold)
	assert.True(t, *defaulted.EnablePerformanceMonitoring)
	assert.NotEmpty(t, defaulted.ZoneDiscoveryURL)
	assert.NotNil(t, defaulted.Logger)
	assert.NotNil(t, defaulted.ConnectionPool)

	cfg.Retries = autotask.Int(0)
	cfg.RequestsPerSecond = 2
	defaulted = cfg.WithDefaults()

	assert.Equal(t, 0, *defaulted.Retries)
	assert.Equal(t, 2, defaulted.RequestsPerSecond)
}
