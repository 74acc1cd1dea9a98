package autotask_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/autotask-client/pkg/autotask"
)

func TestQuery_Normalized(t *testing.T) {
	t.Parallel()

	t.Run("nil query", func(t *testing.T) {
		t.Parallel()

		normalized := (*autotask.Query)(nil).Normalized(500, 500)
		assert.Equal(t, []autotask.Filter{{Op: autotask.OpExist, Field: "id"}}, normalized.Filter)
		assert.Equal(t, 500, normalized.MaxRecords)
	})

	t.Run("clamps max records", func(t *testing.T) {
		t.Parallel()

		query := autotask.NewQuery(autotask.Eq("status", 1)).WithMaxRecords(2000)
		normalized := query.Normalized(500, 500)

		assert.Equal(t, 500, normalized.MaxRecords)
		assert.Equal(t, 2000, query.MaxRecords, "original untouched")
	})

	t.Run("keeps valid max records", func(t *testing.T) {
		t.Parallel()

		normalized := autotask.NewQuery().WithMaxRecords(25).Normalized(500, 500)
		assert.Equal(t, 25, normalized.MaxRecords)
	})

	t.Run("copies filters", func(t *testing.T) {
		t.Parallel()

		query := autotask.NewQuery().Where("companyID", autotask.OpEq, 12).WithFields("id", "title")
		normalized := query.Normalized(100, 500)
		normalized.Filter[0].Field = "changed"

		assert.Equal(t, "companyID", query.Filter[0].Field)
		assert.Equal(t, []string{"id", "title"}, normalized.IncludeFields)
		assert.Equal(t, 100, normalized.MaxRecords)
	})
}

func TestQuery_JSON(t *testing.T) {
	t.Parallel()

	query := autotask.NewQuery(autotask.In("status", 1, 5)).
		WhereUDF("Region", autotask.OpBeginsWith, "North").
		Or(autotask.Eq("priority", 1), autotask.Eq("priority", 2)).
		WithMaxRecords(50)

	data, err := json.Marshal(query)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"filter": [
			{"op":"in","field":"status","value":[1,5]},
			{"op":"beginsWith","field":"Region","value":"North","udf":true},
			{"op":"or","items":[
				{"op":"eq","field":"priority","value":1},
				{"op":"eq","field":"priority","value":2}
			]}
		],
		"MaxRecords": 50
	}`, string(data))
}

func TestParseFilterOp(t *testing.T) {
	t.Parallel()

	op, ok := autotask.ParseFilterOp("contains")
	assert.True(t, ok)
	assert.Equal(t, autotask.OpContains, op)

	_, ok = autotask.ParseFilterOp("like")
	assert.False(t, ok)
}

func TestPageDetails_HasNext(t *testing.T) {
	t.Parallel()

	empty := ""
	next := "https://webservices5.autotask.net/atservicesrest/v1.0/Tickets/query/next?paging=abc"

	assert.False(t, autotask.PageDetails{}.HasNext())
	assert.False(t, autotask.PageDetails{NextPageURL: &empty}.HasNext())
	assert.True(t, autotask.PageDetails{NextPageURL: &next}.HasNext())
}

func TestEntity_ID(t *testing.T) {
	t.Parallel()

	var decoded autotask.Entity
	require.NoError(t, json.Unmarshal([]byte(`{"id":29684123,"title":"x"}`), &decoded))

	assert.Equal(t, int64(29684123), decoded.ID())
	assert.Equal(t, int64(7), autotask.Entity{"id": 7}.ID())
	assert.Equal(t, int64(8), autotask.Entity{"id": int64(8)}.ID())
	assert.Equal(t, int64(9), autotask.Entity{"id": json.Number("9")}.ID())
	assert.Equal(t, int64(0), autotask.Entity{"id": "nine"}.ID())
	assert.Equal(t, int64(0), autotask.Entity{}.ID())
}

func TestTime_JSON(t *testing.T) {
	t.Parallel()

	tests := map[string]time.Time{
		`"2026-02-14T09:30:00Z"`:      time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC),
		`"2026-02-14T09:30:00.123Z"`:  time.Date(2026, 2, 14, 9, 30, 0, 123000000, time.UTC),
		`"2026-02-14T09:30:00"`:       time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC),
		`"2026-02-14T04:30:00-05:00"`: time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC),
		`null`:                        {},
		`""`:                          {},
	}

	for raw, want := range tests {
		var parsed autotask.Time
		require.NoError(t, json.Unmarshal([]byte(raw), &parsed), raw)
		assert.True(t, want.Equal(parsed.Time), raw)
	}

	var bad autotask.Time
	require.Error(t, json.Unmarshal([]byte(`"yesterday"`), &bad))

	data, err := json.Marshal(autotask.Time{Time: time.Date(2026, 2, 14, 4, 30, 0, 0, time.FixedZone("EST", -5*3600))})
	require.NoError(t, err)
	assert.JSONEq(t, `"2026-02-14T09:30:00Z"`, string(data))

	data, err = json.Marshal(autotask.Time{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}
