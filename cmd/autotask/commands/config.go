package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/autotask-client/internal/constants"
)

// Config represents the CLI configuration stored in ~/.autotask/config.yml.
type Config struct {
	Username                string `json:"username,omitempty"                  yaml:"username,omitempty"`
	Secret                  string `json:"secret,omitempty"                    yaml:"secret,omitempty"`
	IntegrationCode         string `json:"integration_code,omitempty"          yaml:"integration_code,omitempty"`
	ImpersonationResourceID int64  `json:"impersonation_resource_id,omitempty" yaml:"impersonation_resource_id,omitempty"`
	BaseURL                 string `json:"base_url,omitempty"                  yaml:"base_url,omitempty"`

	Output    string `json:"output,omitempty"     yaml:"output,omitempty"`
	LogFormat string `json:"log_format,omitempty" yaml:"log_format,omitempty"`

	RequestsPerSecond int    `json:"requests_per_second,omitempty" yaml:"requests_per_second,omitempty"`
	HourlyThreshold   int    `json:"hourly_threshold,omitempty"    yaml:"hourly_threshold,omitempty"`
	QuotaStore        string `json:"quota_store,omitempty"         yaml:"quota_store,omitempty"`
	QuotaDSN          string `json:"quota_dsn,omitempty"           yaml:"quota_dsn,omitempty"`

	Cache      string `json:"cache,omitempty"       yaml:"cache,omitempty"`
	NATSURL    string `json:"nats_url,omitempty"    yaml:"nats_url,omitempty"`
	NATSBucket string `json:"nats_bucket,omitempty" yaml:"nats_bucket,omitempty"`
}

// configSetters maps configuration keys to their setters.
//
//nolint:gochecknoglobals // Static lookup table
var configSetters = map[string]func(*Config, string) error{
	"username":         func(c *Config, v string) error { c.Username = v; return nil },
	"secret":           func(c *Config, v string) error { c.Secret = v; return nil },
	"integration_code": func(c *Config, v string) error { c.IntegrationCode = v; return nil },
	"base_url":         func(c *Config, v string) error { c.BaseURL = v; return nil },
	"output":           func(c *Config, v string) error { c.Output = v; return nil },
	"log_format":       func(c *Config, v string) error { c.LogFormat = v; return nil },
	"quota_store":      func(c *Config, v string) error { c.QuotaStore = v; return nil },
	"quota_dsn":        func(c *Config, v string) error { c.QuotaDSN = v; return nil },
	"cache":            func(c *Config, v string) error { c.Cache = v; return nil },
	"nats_url":         func(c *Config, v string) error { c.NATSURL = v; return nil },
	"nats_bucket":      func(c *Config, v string) error { c.NATSBucket = v; return nil },
	"impersonation_resource_id": func(c *Config, v string) error {
		id, err := parseOptionalInt(v)
		c.ImpersonationResourceID = int64(id)

		return err
	},
	"requests_per_second": func(c *Config, v string) error {
		n, err := parseOptionalInt(v)
		c.RequestsPerSecond = n

		return err
	},
	"hourly_threshold": func(c *Config, v string) error {
		n, err := parseOptionalInt(v)
		c.HourlyThreshold = n

		return err
	},
}

func parseOptionalInt(value string) (int, error) {
	if value == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", value, err)
	}

	return n, nil
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and change the settings stored in the Autotask CLI configuration file",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())
	cmd.AddCommand(newConfigPathCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the effective configuration with the secret masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			if config.Secret != "" {
				config.Secret = constants.MaskedSecret
			}

			return printOutput(cmd.OutOrStdout(), config, func(table *tablewriter.Table) {
				table.Header("Property", "Value")

				for _, row := range configRows(config) {
					_ = table.Append(row[0], row[1])
				}
			})
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a configuration value, one of: " + strings.Join(configKeys(), ", "),
		Args:  cobra.ExactArgs(2), //nolint:mnd // key and value
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateConfigValue(cmd, args[0], args[1], "Set")
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Long:  "Remove a configuration value from the configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateConfigValue(cmd, args[0], "", "Unset")
		},
	}
}

func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show the configuration file location",
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile, err := ConfigFilePath()
			if err != nil {
				return err
			}

			exists, err := configFileExists(configFile)
			if err != nil {
				return err
			}

			if !exists {
				return fmt.Errorf("%w: %s", constants.ErrNoConfigFile, configFile)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), configFile)

			return nil
		},
	}
}

// configFileExists reports whether path holds a config file. Directories and
// other non-regular files are an error.
func configFileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("failed to stat config file: %w", err)
	}

	if !info.Mode().IsRegular() {
		return false, fmt.Errorf("%w: %s", constants.ErrNotRegularFile, path)
	}

	return true, nil
}

func updateConfigValue(cmd *cobra.Command, key, value, action string) error {
	key = strings.ReplaceAll(strings.ToLower(key), "-", "_")

	setter, ok := configSetters[key]
	if !ok {
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	config := loadConfig()

	err := setter(config, value)
	if err != nil {
		return err
	}

	err = saveConfigStruct(config)
	if err != nil {
		return err
	}

	viper.Set(key, value)

	shown := value
	if key == "secret" && shown != "" {
		shown = constants.MaskedSecret
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %q\n", action, key, shown)

	return nil
}

func configKeys() []string {
	keys := make([]string, 0, len(configSetters))
	for key := range configSetters {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

func configRows(config *Config) [][2]string {
	return [][2]string{
		{"Username", config.Username},
		{"Secret", config.Secret},
		{"Integration Code", config.IntegrationCode},
		{"Impersonation Resource", formatOptionalInt(config.ImpersonationResourceID)},
		{"Base URL", orNotAvailable(config.BaseURL)},
		{"Output", config.Output},
		{"Log Format", config.LogFormat},
		{"Requests/Second", formatOptionalInt(int64(config.RequestsPerSecond))},
		{"Hourly Threshold", formatOptionalInt(int64(config.HourlyThreshold))},
		{"Quota Store", orNotAvailable(config.QuotaStore)},
		{"Cache", orNotAvailable(config.Cache)},
	}
}

func formatOptionalInt(n int64) string {
	if n == 0 {
		return constants.NotAvailable
	}

	return strconv.FormatInt(n, 10)
}

func orNotAvailable(value string) string {
	if value == "" {
		return constants.NotAvailable
	}

	return value
}

// loadConfig reads the effective configuration: flags, then AUTOTASK_*
// environment variables, then the configuration file.
func loadConfig() *Config {
	return &Config{
		Username:                viper.GetString("username"),
		Secret:                  viper.GetString("secret"),
		IntegrationCode:         viper.GetString("integration_code"),
		ImpersonationResourceID: viper.GetInt64("impersonation_resource_id"),
		BaseURL:                 viper.GetString("base_url"),
		Output:                  viper.GetString("output"),
		LogFormat:               viper.GetString("log_format"),
		RequestsPerSecond:       viper.GetInt("requests_per_second"),
		HourlyThreshold:         viper.GetInt("hourly_threshold"),
		QuotaStore:              viper.GetString("quota_store"),
		QuotaDSN:                viper.GetString("quota_dsn"),
		Cache:                   viper.GetString("cache"),
		NATSURL:                 viper.GetString("nats_url"),
		NATSBucket:              viper.GetString("nats_bucket"),
	}
}

// ConfigFilePath returns the configuration file in use, or the default location.
func ConfigFilePath() (string, error) {
	configFile := viper.ConfigFileUsed()
	if configFile != "" {
		return configFile, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, ".autotask", "config.yml"), nil
}

func saveConfigStruct(config *Config) error {
	configFile, err := ConfigFilePath()
	if err != nil {
		return err
	}

	_, err = configFileExists(configFile)
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(configFile), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// table is the default output and is left out of the file.
	if config.Output == constants.FormatTable {
		config.Output = ""
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
