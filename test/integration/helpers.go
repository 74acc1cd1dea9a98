//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/autotask-client/pkg/autotask"
)

// TestConfig holds the live tenant settings, all read from the environment.
type TestConfig struct {
	Username        string
	Secret          string
	IntegrationCode string
	BaseURL         string
	// TicketID names a ticket the tests may add notes to.
	TicketID   int64
	BinaryPath string
	Verbose    bool
}

// LoadTestConfig loads configuration from environment variables.
func LoadTestConfig() *TestConfig {
	ticketID, _ := strconv.ParseInt(os.Getenv("AUTOTASK_TEST_TICKET_ID"), 10, 64)

	return &TestConfig{
		Username:        os.Getenv("AUTOTASK_USERNAME"),
		Secret:          os.Getenv("AUTOTASK_SECRET"),
		IntegrationCode: os.Getenv("AUTOTASK_INTEGRATION_CODE"),
		BaseURL:         os.Getenv("AUTOTASK_BASE_URL"),
		TicketID:        ticketID,
		BinaryPath:      binaryPath(),
		Verbose:         os.Getenv("AUTOTASK_VERBOSE") == "true",
	}
}

func binaryPath() string {
	if path := os.Getenv("AUTOTASK_BINARY_PATH"); path != "" {
		return path
	}

	for _, candidate := range []string{"../../autotask", "./autotask", "../autotask"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "autotask"
}

// SkipIfMissingCredentials skips the test unless a tenant is configured.
func (c *TestConfig) SkipIfMissingCredentials(t *testing.T) {
	t.Helper()

	if c.Username == "" || c.Secret == "" || c.IntegrationCode == "" {
		t.Skip("AUTOTASK_USERNAME, AUTOTASK_SECRET and AUTOTASK_INTEGRATION_CODE not set, skipping integration test")
	}
}

// SkipIfMissingBinary skips CLI tests when the binary has not been built.
func (c *TestConfig) SkipIfMissingBinary(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath(c.BinaryPath); err != nil {
		t.Skipf("autotask binary not found at %s, skipping integration test", c.BinaryPath)
	}
}

// ClientConfig returns library configuration for the tenant.
func (c *TestConfig) ClientConfig() *autotask.Config {
	return &autotask.Config{
		Username:        c.Username,
		Secret:          c.Secret,
		IntegrationCode: c.IntegrationCode,
		BaseURL:         c.BaseURL,
	}
}

// CommandRunner runs the CLI against an isolated config file.
type CommandRunner struct {
	config     *TestConfig
	t          *testing.T
	configFile string
}

// NewCommandRunner creates a runner whose config file lives in a temp dir.
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	t.Helper()

	return &CommandRunner{
		config:     config,
		t:          t,
		configFile: filepath.Join(t.TempDir(), "config.yml"),
	}
}

// Run executes an autotask command and returns its output.
func (r *CommandRunner) Run(args ...string) (string, string, error) {
	return r.RunWithInput("", args...)
}

// RunWithInput executes an autotask command with stdin input.
func (r *CommandRunner) RunWithInput(input string, args ...string) (string, string, error) {
	args = append([]string{"--config", r.configFile}, args...)

	//nolint:gosec // Binary path comes from the test environment
	cmd := exec.Command(r.config.BinaryPath, args...)
	cmd.Env = append(os.Environ(),
		"AUTOTASK_USERNAME="+r.config.Username,
		"AUTOTASK_SECRET="+r.config.Secret,
		"AUTOTASK_INTEGRATION_CODE="+r.config.IntegrationCode,
		"AUTOTASK_BASE_URL="+r.config.BaseURL,
	)
	cmd.Stdin = strings.NewReader(input)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if r.config.Verbose {
		r.t.Logf("Running: %s %s", r.config.BinaryPath, strings.Join(args, " "))
	}

	err := cmd.Run()
	if r.config.Verbose && err != nil {
		r.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout.String(), stderr.String())
	}

	return stdout.String(), stderr.String(), err
}

// RunJSON runs a command with -o json and decodes its output into v.
func (r *CommandRunner) RunJSON(v interface{}, args ...string) {
	r.t.Helper()

	stdout, stderr, err := r.Run(append(args, "-o", "json")...)
	require.NoError(r.t, err, stderr)
	require.NoError(r.t, json.Unmarshal([]byte(stdout), v), stdout)
}
