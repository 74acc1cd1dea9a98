package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/fivetwenty-io/autotask-client/internal/constants"
)

// NewLoginCommand creates the login command
func NewLoginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Login to Autotask",
		Long: `Verify API user credentials, resolve the zone and save both to the
configuration file. Missing values are prompted for; the secret is read
without echo.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()

			username := viper.GetString("username")
			if username == "" {
				username = prompt(reader, out, "Username: ")
			}

			integrationCode := viper.GetString("integration_code")
			if integrationCode == "" {
				integrationCode = prompt(reader, out, "API integration code: ")
			}

			secret := viper.GetString("secret")
			if secret == "" {
				var err error

				secret, err = readSecret(out)
				if err != nil {
					return err
				}
			}

			viper.Set("username", username)
			viper.Set("integration_code", integrationCode)
			viper.Set("secret", secret)

			ctx := cmd.Context()

			client, err := createClient(ctx)
			if err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}
			defer func() { _ = client.Close() }()

			// Zone lookups are anonymous, so a threshold call proves the credentials.
			info, err := client.ThresholdInfo(ctx)
			if err != nil {
				return fmt.Errorf("failed to connect to API: %w", err)
			}

			zone := client.Zone()
			viper.Set("base_url", zone.URL)

			err = saveConfigStruct(loadConfig())
			if err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			_, _ = fmt.Fprintf(out, "Successfully logged in as %s\n", username)
			if zone.ZoneName != "" {
				_, _ = fmt.Fprintf(out, "Zone: %s (%s)\n", zone.ZoneName, zone.URL)
			}

			_, _ = fmt.Fprintf(out, "Requests this hour: %d of %d\n",
				info.CurrentTimeframeRequestCount, info.ExternalRequestThreshold)

			return nil
		},
	}
}

// NewLogoutCommand creates the logout command
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget saved credentials",
		Long:  "Remove the username, secret and zone from the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			viper.Set("username", "")
			viper.Set("secret", "")
			viper.Set("base_url", "")

			err := saveConfigStruct(loadConfig())
			if err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Successfully logged out")

			return nil
		},
	}
}

func prompt(reader *bufio.Reader, out io.Writer, label string) string {
	_, _ = fmt.Fprint(out, label)

	line, _ := reader.ReadString('\n')

	return strings.TrimSpace(line)
}

func readSecret(out io.Writer) (string, error) {
	fd := int(os.Stdin.Fd()) //nolint:gosec // file descriptors fit in int
	if !term.IsTerminal(fd) {
		return "", constants.ErrSecretNotPrompted
	}

	_, _ = fmt.Fprint(out, "Secret: ")

	secret, err := term.ReadPassword(fd)

	_, _ = fmt.Fprintln(out)

	if err != nil {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}

	return string(secret), nil
}
