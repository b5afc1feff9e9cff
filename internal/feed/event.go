// Package feed carries row-level change events from Postgres to subscribers.
//
// Triggers installed by the database package NOTIFY a JSON payload per
// changed row. Listener turns those into Events and publishes them on a Hub;
// websocket clients and internal sinks subscribe to the Hub with a Filter.
package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

type EventType string

const (
	Insert   EventType = "INSERT"
	Update   EventType = "UPDATE"
	Delete   EventType = "DELETE"
	Truncate EventType = "TRUNCATE"
	// Resync is emitted after the listener reconnects: notifications sent
	// while it was away are lost.
	Resync EventType = "RESYNC"
)

type Event struct {
	Table     string          `json:"table"`
	Type      EventType       `json:"type"`
	Record    json.RawMessage `json:"record,omitempty"`
	OldRecord json.RawMessage `json:"old_record,omitempty"`
}

var null = []byte("null")

// ParseEvent decodes a trigger payload.
func ParseEvent(payload []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(payload, &e); err != nil {
		return Event{}, fmt.Errorf("error decoding change event: %w", err)
	}
	if bytes.Equal(e.Record, null) {
		e.Record = nil
	}
	if bytes.Equal(e.OldRecord, null) {
		e.OldRecord = nil
	}
	if e.Type == "" {
		return Event{}, fmt.Errorf("change event without type: %s", payload)
	}
	return e, nil
}

// Bulk reports whether the event does not identify a single row, so a
// subscriber can only recover by re-fetching.
func (e Event) Bulk() bool {
	switch e.Type {
	case Truncate, Resync:
		return true
	case Insert:
		return e.Record == nil
	case Delete:
		return e.OldRecord == nil
	default:
		return e.Record == nil || e.OldRecord == nil
	}
}

// Decode unmarshals the new row, or the old row for deletes.
func (e Event) Decode(v any) error {
	raw := e.Record
	if e.Type == Delete {
		raw = e.OldRecord
	}
	if raw == nil {
		return fmt.Errorf("%s %s event carries no record", e.Table, e.Type)
	}
	return json.Unmarshal(raw, v)
}

// DecodeOld unmarshals the previous row of an update or delete.
func (e Event) DecodeOld(v any) error {
	if e.OldRecord == nil {
		return fmt.Errorf("%s %s event carries no old record", e.Table, e.Type)
	}
	return json.Unmarshal(e.OldRecord, v)
}

// Field returns a column of the new row, falling back to the old row, as a
// string.
func (e Event) Field(column string) (string, bool) {
	for _, raw := range []json.RawMessage{e.Record, e.OldRecord} {
		if raw == nil {
			continue
		}
		var row map[string]any
		if err := json.Unmarshal(raw, &row); err != nil {
			continue
		}
		v, ok := row[column]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case nil:
			return "null", true
		case string:
			return val, true
		case float64:
			return strconv.FormatFloat(val, 'f', -1, 64), true
		case bool:
			return strconv.FormatBool(val), true
		default:
			b, _ := json.Marshal(val)
			return string(b), true
		}
	}
	return "", false
}
