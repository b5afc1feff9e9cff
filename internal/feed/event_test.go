package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEvent(t *testing.T) {
	e, err := ParseEvent([]byte(`{"table":"comments","type":"INSERT","record":{"id":"c1","request_id":"r1","parent_id":null},"old_record":null}`))
	require.NoError(t, err)
	assert.Equal(t, "comments", e.Table)
	assert.Equal(t, Insert, e.Type)
	assert.Nil(t, e.OldRecord)
	assert.False(t, e.Bulk())

	v, ok := e.Field("request_id")
	assert.True(t, ok)
	assert.Equal(t, "r1", v)

	v, ok = e.Field("parent_id")
	assert.True(t, ok)
	assert.Equal(t, "null", v)

	_, ok = e.Field("missing")
	assert.False(t, ok)

	_, err = ParseEvent([]byte(`{"table":"comments"}`))
	assert.Error(t, err)

	_, err = ParseEvent([]byte(`not json`))
	assert.Error(t, err)
}

func TestEventBulk(t *testing.T) {
	tests := []struct {
		name string
		e    Event
		want bool
	}{
		{"truncate", Event{Table: "votes", Type: Truncate}, true},
		{"resync", Event{Type: Resync}, true},
		{"insert with record", Event{Type: Insert, Record: []byte(`{}`)}, false},
		{"insert without record", Event{Type: Insert}, true},
		{"delete with old record", Event{Type: Delete, OldRecord: []byte(`{}`)}, false},
		{"update missing old record", Event{Type: Update, Record: []byte(`{}`)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.e.Bulk())
		})
	}
}

func TestEventFieldFallsBackToOldRecord(t *testing.T) {
	e := Event{Table: "votes", Type: Delete, OldRecord: []byte(`{"request_id":"r9","weight":2}`)}

	v, ok := e.Field("request_id")
	assert.True(t, ok)
	assert.Equal(t, "r9", v)

	v, _ = e.Field("weight")
	assert.Equal(t, "2", v)

	var row struct {
		RequestID string `json:"request_id"`
	}
	require.NoError(t, e.Decode(&row))
	assert.Equal(t, "r9", row.RequestID)
}
