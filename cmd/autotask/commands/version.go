package commands

import (
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command
func NewVersionCommand(version, commit, date string) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Long:  "Display version information about the Autotask CLI and, with --remote, the API versions of the zone",
		RunE: func(cmd *cobra.Command, args []string) error {
			type VersionInfo struct {
				Version     string   `json:"version"                yaml:"version"`
				Commit      string   `json:"commit"                 yaml:"commit"`
				Built       string   `json:"built"                  yaml:"built"`
				APIVersions []string `json:"apiVersions,omitempty" yaml:"api_versions,omitempty"`
			}

			versionInfo := VersionInfo{
				Version: version,
				Commit:  commit,
				Built:   date,
			}

			if remote {
				client, err := createClient(cmd.Context())
				if err != nil {
					return err
				}
				defer func() { _ = client.Close() }()

				apiVersion, err := client.Version(cmd.Context())
				if err != nil {
					return err
				}

				versionInfo.APIVersions = apiVersion.APIVersions
			}

			return printOutput(cmd.OutOrStdout(), versionInfo, func(table *tablewriter.Table) {
				table.Header("Property", "Value")
				_ = table.Append("Version", version)
				_ = table.Append("Commit", commit)
				_ = table.Append("Built", date)

				if remote {
					_ = table.Append("API Versions", strings.Join(versionInfo.APIVersions, ", "))
				}
			})
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "also query the API versions")

	return cmd
}
