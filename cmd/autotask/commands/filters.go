package commands

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/fivetwenty-io/autotask-client/internal/constants"
	"github.com/fivetwenty-io/autotask-client/pkg/autotask"
)

// parseFilter turns "field:op:value" into a filter. The value is optional for
// exist and notExist, and comma separated for in and notIn.
func parseFilter(spec string) (autotask.Filter, error) {
	const maxParts = 3

	parts := strings.SplitN(spec, ":", maxParts)
	if len(parts) < 2 || parts[0] == "" {
		return autotask.Filter{}, fmt.Errorf("%w: %q", constants.ErrInvalidFilterSpec, spec)
	}

	op, ok := autotask.ParseFilterOp(parts[1])
	if !ok || op == autotask.OpAnd || op == autotask.OpOr {
		return autotask.Filter{}, fmt.Errorf("%w: unknown operator %q", constants.ErrInvalidFilterSpec, parts[1])
	}

	filter := autotask.Filter{Op: op, Field: parts[0]}

	switch {
	case op == autotask.OpExist || op == autotask.OpNotExist:
	case len(parts) < maxParts:
		return autotask.Filter{}, fmt.Errorf("%w: %q has no value", constants.ErrInvalidFilterSpec, spec)
	case op == autotask.OpIn || op == autotask.OpNotIn:
		var values []interface{}
		for _, raw := range strings.Split(parts[2], ",") {
			values = append(values, parseValue(strings.TrimSpace(raw)))
		}

		filter.Value = values
	default:
		filter.Value = parseValue(parts[2])
	}

	return filter, nil
}

// parseValue keeps numbers and booleans typed so the API compares them as such.
func parseValue(raw string) interface{} {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}

	// ParseFloat also accepts NaN and Inf, which JSON cannot carry.
	if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}

	switch strings.ToLower(raw) {
	case "true":
		return true
	case "false":
		return false
	}

	return raw
}

// parsePatchFields turns name=value pairs into a patch body.
func parsePatchFields(pairs []string) (map[string]interface{}, error) {
	fields := make(map[string]interface{}, len(pairs))

	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %q", constants.ErrInvalidPatchField, pair)
		}

		if value == "" {
			fields[name] = nil

			continue
		}

		fields[name] = parseValue(value)
	}

	return fields, nil
}

func parseEntityID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", constants.ErrInvalidEntityID, raw)
	}

	return id, nil
}
