package commands

import (
	"context"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/autotask-client/internal/constants"
	"github.com/fivetwenty-io/autotask-client/pkg/autotask"
)

// entityClient opens a client and the untyped client for name. The returned
// close func releases the client.
func entityClient(ctx context.Context, name string) (autotask.EntityClient[autotask.Entity], func(), error) {
	client, err := createClient(ctx)
	if err != nil {
		return nil, nil, err
	}

	entity, err := client.Entity(name)
	if err != nil {
		_ = client.Close()

		return nil, nil, err
	}

	return entity, func() { _ = client.Close() }, nil
}

// NewGetCommand creates the get command.
func NewGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get ENTITY ID",
		Short: "Get an entity by id",
		Long:  "Retrieve one entity, for example: autotask get Tickets 12345",
		Args:  cobra.ExactArgs(2), //nolint:mnd // entity and id
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntityID(args[1])
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			entity, closeClient, err := entityClient(ctx, args[0])
			if err != nil {
				return err
			}
			defer closeClient()

			record, err := entity.Get(ctx, id)
			if err != nil {
				return err
			}

			return printOutput(cmd.OutOrStdout(), record, func(table *tablewriter.Table) {
				table.Header("Field", "Value")

				for _, column := range recordColumns([]map[string]interface{}{*record}, nil) {
					_ = table.Append(column, formatValue((*record)[column]))
				}
			})
		},
	}
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	var (
		filters    []string
		fields     []string
		maxRecords int
		all        bool
	)

	cmd := &cobra.Command{
		Use:   "query ENTITY",
		Short: "Query entities",
		Long: `Query an entity with filters of the form field:op:value, for example:

  autotask query Tickets --filter status:eq:1 --filter queueID:in:5,8 --fields id,title

Without filters every record matches. --all follows the next page links.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := buildQuery(filters, fields, maxRecords)
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			entity, closeClient, err := entityClient(ctx, args[0])
			if err != nil {
				return err
			}
			defer closeClient()

			var records []autotask.Entity

			if all {
				records, err = entity.QueryAll(ctx, query)
			} else {
				var page *autotask.ListResponse[autotask.Entity]

				page, err = entity.Query(ctx, query)
				if page != nil {
					records = page.Items
				}
			}

			if err != nil {
				return err
			}

			return printRecords(cmd, records, fields)
		},
	}

	cmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "filter as field:op:value (repeatable)")
	cmd.Flags().StringSliceVar(&fields, "fields", nil, "fields to return")
	cmd.Flags().IntVar(&maxRecords, "max-records", 0, "page size, 1 to 500")
	cmd.Flags().BoolVar(&all, "all", false, "fetch every page")

	return cmd
}

// NewCountCommand creates the count command.
func NewCountCommand() *cobra.Command {
	var filters []string

	cmd := &cobra.Command{
		Use:   "count ENTITY",
		Short: "Count entities matching filters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := buildQuery(filters, nil, 0)
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			entity, closeClient, err := entityClient(ctx, args[0])
			if err != nil {
				return err
			}
			defer closeClient()

			count, err := entity.Count(ctx, query)
			if err != nil {
				return err
			}

			result := map[string]interface{}{"entity": entity.Name(), "count": count}

			return printOutput(cmd.OutOrStdout(), result, func(table *tablewriter.Table) {
				table.Header("Entity", "Count")
				_ = table.Append(entity.Name(), fmt.Sprintf("%d", count))
			})
		},
	}

	cmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "filter as field:op:value (repeatable)")

	return cmd
}

// NewPatchCommand creates the patch command.
func NewPatchCommand() *cobra.Command {
	var parentID int64

	cmd := &cobra.Command{
		Use:   "patch ENTITY ID NAME=VALUE...",
		Short: "Update fields of an entity",
		Long: `Update the given fields of one entity. An empty value clears the field.
Child entities such as TicketNotes need --parent.`,
		Args: cobra.MinimumNArgs(3), //nolint:mnd // entity, id and one field
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntityID(args[1])
			if err != nil {
				return err
			}

			fields, err := parsePatchFields(args[2:])
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			entity, closeClient, err := entityClient(ctx, args[0])
			if err != nil {
				return err
			}
			defer closeClient()

			if parentID > 0 {
				entity = entity.Under(parentID)
			}

			updated, err := entity.Patch(ctx, id, fields)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Updated %s %d\n", entity.Name(), updated)

			return nil
		},
	}

	cmd.Flags().Int64Var(&parentID, "parent", 0, "parent id for child entities")

	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand() *cobra.Command {
	var (
		parentID int64
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "delete ENTITY ID",
		Short: "Delete an entity",
		Long:  "Delete one entity. Child entities such as Tasks need --parent.",
		Args:  cobra.ExactArgs(2), //nolint:mnd // entity and id
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntityID(args[1])
			if err != nil {
				return err
			}

			if !force {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Really delete %s %d? [y/N] ", args[0], id)

				var answer string

				_, _ = fmt.Fscanln(cmd.InOrStdin(), &answer)
				if answer != "y" && answer != "Y" && answer != "yes" {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Delete cancelled")

					return nil
				}
			}

			ctx := cmd.Context()

			entity, closeClient, err := entityClient(ctx, args[0])
			if err != nil {
				return err
			}
			defer closeClient()

			if parentID > 0 {
				entity = entity.Under(parentID)
			}

			err = entity.Delete(ctx, id)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %d\n", entity.Name(), id)

			return nil
		},
	}

	cmd.Flags().Int64Var(&parentID, "parent", 0, "parent id for child entities")
	cmd.Flags().BoolVar(&force, "force", false, "do not ask for confirmation")

	return cmd
}

func buildQuery(filters, fields []string, maxRecords int) (*autotask.Query, error) {
	if maxRecords < 0 || maxRecords > constants.MaxRecordsLimit {
		return nil, fmt.Errorf("%w: --max-records must be between 1 and %d", constants.ErrInvalidFilterSpec, constants.MaxRecordsLimit)
	}

	query := autotask.NewQuery().WithMaxRecords(maxRecords).WithFields(fields...)

	for _, spec := range filters {
		filter, err := parseFilter(spec)
		if err != nil {
			return nil, err
		}

		query.Filter = append(query.Filter, filter)
	}

	return query, nil
}

func printRecords(cmd *cobra.Command, records []autotask.Entity, fields []string) error {
	rows := make([]map[string]interface{}, len(records))
	for i, record := range records {
		rows[i] = record
	}

	return printOutput(cmd.OutOrStdout(), records, func(table *tablewriter.Table) {
		columns := recordColumns(rows, fields)
		table.Header(toAnyRow(columns)...)

		for _, row := range rows {
			values := make([]string, len(columns))
			for i, column := range columns {
				values[i] = formatValue(row[column])
			}

			_ = table.Append(toAnyRow(values)...)
		}
	})
}
