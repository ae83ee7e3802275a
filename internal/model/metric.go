package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ID is an opaque identifier assigned by the IoT platform. The platform
// sends numeric ids in descriptors and string keys in value maps, so both
// JSON forms decode to the same textual id. Numbers are written in their
// shortest decimal form, so 1.0 and 1e0 both become "1".
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a number or string: %w", err)
	}
	*id = ID(canonicalNumber(n.String()))
	return nil
}

func canonicalNumber(text string) string {
	if !strings.ContainsAny(text, ".eE") {
		return text
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return text
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// MetricDescriptor describes one realtime measured quantity, e.g. one
// voltage phase.
type MetricDescriptor struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// ActionDescriptor describes a control command the platform accepts.
type ActionDescriptor struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// Configuration is a configuration push from the widget runtime. Nil slices
// mean the field was absent from the push.
type Configuration struct {
	RealtimeConfigs []MetricDescriptor `json:"realtime_configs"`
	HistoryConfigs  []MetricDescriptor `json:"history_configs,omitempty"`
	Actions         []ActionDescriptor `json:"actions"`
}

// ValueRecord is one entry of a values push. Present is false when the
// record has no finite numeric value, including an explicit null.
type ValueRecord struct {
	Value   float64
	Present bool
}

func (r *ValueRecord) UnmarshalJSON(data []byte) error {
	*r = ValueRecord{}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		// Not an object: the record carries no usable value.
		return nil
	}
	raw, ok := fields["value"]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}

	var v float64
	if err := json.Unmarshal(raw, &v); err == nil {
		r.Value, r.Present = v, true
		return nil
	}

	// Some devices report numbers as strings.
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, ok := parseReading(s); ok {
			r.Value, r.Present = f, true
		}
	}
	return nil
}

// parseReading accepts plain decimal text only. ParseFloat alone would also
// take "NaN", "Inf" and hex floats.
func parseReading(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if strings.ContainsAny(s, "xXpP") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func (r ValueRecord) MarshalJSON() ([]byte, error) {
	if !r.Present {
		return []byte(`{"value":null}`), nil
	}
	return json.Marshal(struct {
		Value float64 `json:"value"`
	}{r.Value})
}

// ValueSnapshot maps descriptor ids to their latest value records. Each push
// replaces the previous snapshot wholesale.
type ValueSnapshot map[ID]ValueRecord

// Resolve returns the numeric value for id, or false when the id is missing
// or its record has no numeric value.
func (s ValueSnapshot) Resolve(id ID) (float64, bool) {
	rec, ok := s[id]
	if !ok || !rec.Present {
		return 0, false
	}
	return rec.Value, true
}

// PushKind identifies a recorded widget delivery.
type PushKind string

const (
	PushConfiguration PushKind = "configuration"
	PushValues        PushKind = "values"
)

// Push is one recorded widget delivery.
type Push struct {
	At            time.Time
	Kind          PushKind
	Configuration *Configuration
	Values        ValueSnapshot
}
