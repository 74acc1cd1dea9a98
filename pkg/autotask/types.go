package autotask

import (
	"encoding/json"
	"fmt"
	"time"
)

// FilterOp is an Autotask query filter operator.
type FilterOp string

// Filter operators accepted by the query endpoints.
const (
	OpEq         FilterOp = "eq"
	OpNotEq      FilterOp = "noteq"
	OpGt         FilterOp = "gt"
	OpGte        FilterOp = "gte"
	OpLt         FilterOp = "lt"
	OpLte        FilterOp = "lte"
	OpBeginsWith FilterOp = "beginsWith"
	OpEndsWith   FilterOp = "endsWith"
	OpContains   FilterOp = "contains"
	OpExist      FilterOp = "exist"
	OpNotExist   FilterOp = "notExist"
	OpIn         FilterOp = "in"
	OpNotIn      FilterOp = "notIn"
	OpAnd        FilterOp = "and"
	OpOr         FilterOp = "or"
)

var validOps = map[FilterOp]bool{
	OpEq: true, OpNotEq: true, OpGt: true, OpGte: true, OpLt: true, OpLte: true,
	OpBeginsWith: true, OpEndsWith: true, OpContains: true, OpExist: true, OpNotExist: true,
	OpIn: true, OpNotIn: true, OpAnd: true, OpOr: true,
}

// ParseFilterOp validates an operator name.
func ParseFilterOp(op string) (FilterOp, bool) {
	filterOp := FilterOp(op)

	return filterOp, validOps[filterOp]
}

// Filter is one condition, or a group of conditions for and/or.
type Filter struct {
	Op    FilterOp    `json:"op"              yaml:"op"`
	Field string      `json:"field,omitempty" yaml:"field,omitempty"`
	Value interface{} `json:"value,omitempty" yaml:"value,omitempty"`
	UDF   bool        `json:"udf,omitempty"   yaml:"udf,omitempty"`
	Items []Filter    `json:"items,omitempty" yaml:"items,omitempty"`
}

// Query is the body of a POST <Entity>/query request. MaxRecords is the only
// page size knob; it is clamped to 1..500 when the query is sent.
type Query struct {
	Filter        []Filter `json:"filter"                  yaml:"filter"`
	MaxRecords    int      `json:"MaxRecords,omitempty"    yaml:"max_records,omitempty"`
	IncludeFields []string `json:"IncludeFields,omitempty" yaml:"include_fields,omitempty"`
}

// NewQuery creates a query with the given filters.
func NewQuery(filters ...Filter) *Query {
	return &Query{Filter: filters}
}

// Where appends a single condition.
func (q *Query) Where(field string, op FilterOp, value interface{}) *Query {
	q.Filter = append(q.Filter, Filter{Op: op, Field: field, Value: value})

	return q
}

// WhereUDF appends a condition on a user-defined field.
func (q *Query) WhereUDF(field string, op FilterOp, value interface{}) *Query {
	q.Filter = append(q.Filter, Filter{Op: op, Field: field, Value: value, UDF: true})

	return q
}

// Or appends a group that matches when any of the filters match.
func (q *Query) Or(filters ...Filter) *Query {
	q.Filter = append(q.Filter, Filter{Op: OpOr, Items: filters})

	return q
}

// WithMaxRecords sets the page size.
func (q *Query) WithMaxRecords(maxRecords int) *Query {
	q.MaxRecords = maxRecords

	return q
}

// WithFields restricts the returned fields.
func (q *Query) WithFields(fields ...string) *Query {
	q.IncludeFields = append(q.IncludeFields, fields...)

	return q
}

// Normalized returns a copy ready to send: an "id exists" filter when none is
// set, and MaxRecords clamped to the server limits.
func (q *Query) Normalized(defaultMax, limit int) *Query {
	normalized := &Query{}
	if q != nil {
		normalized.Filter = append(normalized.Filter, q.Filter...)
		normalized.IncludeFields = append(normalized.IncludeFields, q.IncludeFields...)
		normalized.MaxRecords = q.MaxRecords
	}

	if len(normalized.Filter) == 0 {
		normalized.Filter = []Filter{{Op: OpExist, Field: "id"}}
	}

	switch {
	case normalized.MaxRecords <= 0:
		normalized.MaxRecords = defaultMax
	case normalized.MaxRecords > limit:
		normalized.MaxRecords = limit
	}

	return normalized
}

// Eq is shorthand for an equality filter.
func Eq(field string, value interface{}) Filter {
	return Filter{Op: OpEq, Field: field, Value: value}
}

// In is shorthand for a membership filter.
func In(field string, values ...interface{}) Filter {
	return Filter{Op: OpIn, Field: field, Value: values}
}

// PageDetails describes a page of query results.
type PageDetails struct {
	Count        int     `json:"count"        yaml:"count"`
	RequestCount int     `json:"requestCount" yaml:"request_count"`
	PrevPageURL  *string `json:"prevPageUrl"  yaml:"prev_page_url"`
	NextPageURL  *string `json:"nextPageUrl"  yaml:"next_page_url"`
}

// HasNext reports whether another page is available.
func (p PageDetails) HasNext() bool {
	return p.NextPageURL != nil && *p.NextPageURL != ""
}

// ListResponse represents a page of query results.
type ListResponse[T any] struct {
	Items       []T         `json:"items"       yaml:"items"`
	PageDetails PageDetails `json:"pageDetails" yaml:"page_details"`
}

// ItemResponse wraps a single entity.
type ItemResponse[T any] struct {
	Item T `json:"item" yaml:"item"`
}

// ItemIDResponse is returned by create, update, patch and delete.
type ItemIDResponse struct {
	ItemID int64 `json:"itemId" yaml:"item_id"`
}

// CountResponse is returned by <Entity>/query/count.
type CountResponse struct {
	QueryCount int64 `json:"queryCount" yaml:"query_count"`
}

// ZoneInfo is the result of zone discovery.
type ZoneInfo struct {
	ZoneName string `json:"zoneName" yaml:"zone_name"`
	URL      string `json:"url"      yaml:"url"`
	WebURL   string `json:"webUrl"   yaml:"web_url"`
	CI       int    `json:"ci"       yaml:"ci"`
}

// ThresholdInfo reports the per-database hourly request threshold.
type ThresholdInfo struct {
	ExternalRequestThreshold     int `json:"externalRequestThreshold"     yaml:"external_request_threshold"`
	RequestThresholdTimeframe    int `json:"requestThresholdTimeframe"    yaml:"request_threshold_timeframe"`
	CurrentTimeframeRequestCount int `json:"currentTimeframeRequestCount" yaml:"current_timeframe_request_count"`
}

// VersionInfo lists the API versions the zone supports.
type VersionInfo struct {
	APIVersions []string `json:"apiVersions" yaml:"api_versions"`
}

// EntityInformation describes what an entity supports.
type EntityInformation struct {
	Name                    string `json:"name"                    yaml:"name"`
	CanCreate               bool   `json:"canCreate"               yaml:"can_create"`
	CanDelete               bool   `json:"canDelete"               yaml:"can_delete"`
	CanQuery                bool   `json:"canQuery"                yaml:"can_query"`
	CanUpdate               bool   `json:"canUpdate"               yaml:"can_update"`
	HasUserDefinedFields    bool   `json:"hasUserDefinedFields"    yaml:"has_user_defined_fields"`
	SupportsWebhookCallouts bool   `json:"supportsWebhookCallouts" yaml:"supports_webhook_callouts"`
}

// EntityInformationResponse wraps EntityInformation.
type EntityInformationResponse struct {
	Info EntityInformation `json:"info" yaml:"info"`
}

// PicklistValue is one allowed value of a picklist field.
type PicklistValue struct {
	Value          string `json:"value"          yaml:"value"`
	Label          string `json:"label"          yaml:"label"`
	IsDefaultValue bool   `json:"isDefaultValue" yaml:"is_default_value"`
	SortOrder      int    `json:"sortOrder"      yaml:"sort_order"`
	ParentValue    string `json:"parentValue"    yaml:"parent_value"`
	IsActive       bool   `json:"isActive"       yaml:"is_active"`
	IsSystem       bool   `json:"isSystem"       yaml:"is_system"`
}

// FieldInfo describes one entity field.
type FieldInfo struct {
	Name                string          `json:"name"                          yaml:"name"`
	DataType            string          `json:"dataType"                      yaml:"data_type"`
	Length              int             `json:"length"                        yaml:"length"`
	IsRequired          bool            `json:"isRequired"                    yaml:"is_required"`
	IsReadOnly          bool            `json:"isReadOnly"                    yaml:"is_read_only"`
	IsQueryable         bool            `json:"isQueryable"                   yaml:"is_queryable"`
	IsReference         bool            `json:"isReference"                   yaml:"is_reference"`
	ReferenceEntityType string          `json:"referenceEntityType,omitempty" yaml:"reference_entity_type,omitempty"`
	IsPickList          bool            `json:"isPickList"                    yaml:"is_pick_list"`
	PicklistValues      []PicklistValue `json:"picklistValues,omitempty"      yaml:"picklist_values,omitempty"`
}

// FieldInfoResponse wraps the field list.
type FieldInfoResponse struct {
	Fields []FieldInfo `json:"fields" yaml:"fields"`
}

// UserDefinedField is a name/value pair attached to many entities.
type UserDefinedField struct {
	Name  string `json:"name"  yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// Entity is the untyped form of any entity.
type Entity map[string]interface{}

// ID returns the entity's id, or zero when absent.
func (e Entity) ID() int64 {
	switch v := e["id"].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	case json.Number:
		id, _ := v.Int64()

		return id
	default:
		return 0
	}
}

// Time is an Autotask timestamp. The API emits RFC 3339 with or without a zone.
type Time struct {
	time.Time
}

const autotaskTimeLayout = "2006-01-02T15:04:05.999999999"

// UnmarshalJSON implements json.Unmarshaler.
func (t *Time) UnmarshalJSON(data []byte) error {
	raw := string(data)
	if raw == "null" || raw == `""` {
		t.Time = time.Time{}

		return nil
	}

	var value string

	err := json.Unmarshal(data, &value)
	if err != nil {
		return fmt.Errorf("parsing timestamp: %w", err)
	}

	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		parsed, err = time.Parse(autotaskTimeLayout, value)
		if err != nil {
			return fmt.Errorf("parsing timestamp %q: %w", value, err)
		}
	}

	t.Time = parsed

	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}

	data, err := json.Marshal(t.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("formatting timestamp: %w", err)
	}

	return data, nil
}
