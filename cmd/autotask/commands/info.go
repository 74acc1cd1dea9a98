package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/autotask-client/pkg/atclient"
	"github.com/fivetwenty-io/autotask-client/pkg/autotask"
)

// NewZoneCommand creates the zone command
func NewZoneCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "zone",
		Short: "Display the API zone",
		Long:  "Resolve and display the Autotask zone serving the configured API user",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			zone := client.Zone()

			return printOutput(cmd.OutOrStdout(), zone, func(table *tablewriter.Table) {
				table.Header("Property", "Value")
				_ = table.Append("Zone", orNotAvailable(zone.ZoneName))
				_ = table.Append("API URL", zone.URL)
				_ = table.Append("Web URL", orNotAvailable(zone.WebURL))
				_ = table.Append("CI", fmt.Sprintf("%d", zone.CI))
			})
		},
	}
}

// NewThresholdCommand creates the threshold command
func NewThresholdCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "threshold",
		Short: "Display the hourly request threshold",
		Long:  "Display the database's hourly request threshold and usage, plus local quota counters when a quota store is configured",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			info, err := client.ThresholdInfo(ctx)
			if err != nil {
				return err
			}

			result := struct {
				autotask.ThresholdInfo `yaml:",inline"`

				Local *autotask.QuotaUsage `json:"local,omitempty" yaml:"local,omitempty"`
			}{ThresholdInfo: *info}

			usage, err := atclient.QuotaUsage(ctx, client)

			switch {
			case err == nil:
				result.Local = &usage
			case !errors.Is(err, autotask.ErrQuotaNotConfigured):
				return err
			}

			return printOutput(cmd.OutOrStdout(), result, func(table *tablewriter.Table) {
				table.Header("Property", "Value")
				_ = table.Append("Threshold", fmt.Sprintf("%d", info.ExternalRequestThreshold))
				_ = table.Append("Timeframe (minutes)", fmt.Sprintf("%d", info.RequestThresholdTimeframe))
				_ = table.Append("Requests This Timeframe", fmt.Sprintf("%d", info.CurrentTimeframeRequestCount))

				if result.Local != nil {
					_ = table.Append("Local Usage", fmt.Sprintf("%d/%d (%.1f%%)", usage.Used, usage.Threshold, usage.Percent))
					_ = table.Append("Resets At", usage.ResetsAt.Local().Format("15:04:05"))
				}
			})
		},
	}
}

// NewEntitiesCommand creates the entities command
func NewEntitiesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "entities",
		Short: "List supported entities",
		Long:  "List the entities this client knows, their paths and the operations each allows",
		RunE: func(cmd *cobra.Command, args []string) error {
			type entityRow struct {
				Name       string `json:"name"             yaml:"name"`
				Path       string `json:"path"             yaml:"path"`
				Parent     string `json:"parent,omitempty" yaml:"parent,omitempty"`
				Operations string `json:"operations"       yaml:"operations"`
			}

			entities := autotask.Entities()
			rows := make([]entityRow, 0, len(entities))

			for _, meta := range entities {
				parent := ""
				if meta.IsChild() {
					parent = meta.Parent + "/{id}/" + meta.ChildPath
				}

				rows = append(rows, entityRow{
					Name:       meta.Name,
					Path:       meta.Path,
					Parent:     parent,
					Operations: meta.Operations.String(),
				})
			}

			return printOutput(cmd.OutOrStdout(), rows, func(table *tablewriter.Table) {
				table.Header("Name", "Path", "Write Path", "Operations")

				for _, row := range rows {
					_ = table.Append(row.Name, row.Path, row.Parent, row.Operations)
				}
			})
		},
	}
}

// NewFieldsCommand creates the fields command
func NewFieldsCommand() *cobra.Command {
	var picklists bool

	cmd := &cobra.Command{
		Use:   "fields ENTITY",
		Short: "Describe the fields of an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			entity, closeClient, err := entityClient(ctx, args[0])
			if err != nil {
				return err
			}
			defer closeClient()

			fields, err := entity.FieldInfo(ctx)
			if err != nil {
				return err
			}

			return printOutput(cmd.OutOrStdout(), fields, func(table *tablewriter.Table) {
				header := []string{"Name", "Type", "Required", "Read Only", "Queryable", "Reference"}
				if picklists {
					header = append(header, "Picklist")
				}

				table.Header(toAnyRow(header)...)

				for _, field := range fields {
					row := []string{
						field.Name,
						field.DataType,
						yesNo(field.IsRequired),
						yesNo(field.IsReadOnly),
						yesNo(field.IsQueryable),
						field.ReferenceEntityType,
					}

					if picklists {
						row = append(row, picklistSummary(field.PicklistValues))
					}

					_ = table.Append(toAnyRow(row)...)
				}
			})
		},
	}

	cmd.Flags().BoolVar(&picklists, "picklists", false, "show picklist values")

	return cmd
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}

	return ""
}

func picklistSummary(values []autotask.PicklistValue) string {
	parts := make([]string, 0, len(values))

	for _, value := range values {
		if value.IsActive {
			parts = append(parts, value.Value+"="+value.Label)
		}
	}

	return strings.Join(parts, "\n")
}
