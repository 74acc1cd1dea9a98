package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/autotask-client/internal/constants"
)

// printOutput writes data in the configured output format. fill populates the
// table for the table format.
func printOutput(w io.Writer, data interface{}, fill func(table *tablewriter.Table)) error {
	switch format := strings.ToLower(viper.GetString("output")); format {
	case constants.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", strings.Repeat(" ", constants.JSONIndentSize))

		return encoder.Encode(data)
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(w)
		defer func() { _ = encoder.Close() }()

		return encoder.Encode(data)
	case constants.FormatTable, "":
		table := tablewriter.NewWriter(w)
		fill(table)

		err := table.Render()
		if err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnsupportedFormat, format)
	}
}

// recordColumns picks table columns for untyped records: the requested
// fields, or every field of the first record with id first.
func recordColumns(records []map[string]interface{}, fields []string) []string {
	if len(fields) > 0 {
		return fields
	}

	if len(records) == 0 {
		return []string{"id"}
	}

	columns := make([]string, 0, len(records[0]))
	for key := range records[0] {
		if key != "id" && key != "userDefinedFields" {
			columns = append(columns, key)
		}
	}

	sort.Strings(columns)

	return append([]string{"id"}, columns...)
}

func formatValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}

		return fmt.Sprintf("%g", v)
	case []interface{}, map[string]interface{}:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}

		return string(data)
	default:
		return fmt.Sprint(v)
	}
}

func toAnyRow(values []string) []any {
	row := make([]any, len(values))
	for i, value := range values {
		row[i] = value
	}

	return row
}
