package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  ID
	}{
		{"number", `42`, "42"},
		{"integral float", `1.0`, "1"},
		{"exponent", `1e1`, "10"},
		{"fraction", `2.50`, "2.5"},
		{"string", `"42"`, "42"},
		{"opaque string", `"abc-1"`, "abc-1"},
		{"null", `null`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id ID
			require.NoError(t, json.Unmarshal([]byte(tt.input), &id))
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestID_UnmarshalJSONRejectsObjects(t *testing.T) {
	var id ID
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &id))
}

func TestConfiguration_Decode(t *testing.T) {
	input := `{"realtime_configs":[{"id":1,"name":"U1"},{"id":"2","name":"U2"}],"actions":[{"id":7,"name":"Reset Peak"}]}`

	var cfg Configuration
	require.NoError(t, json.Unmarshal([]byte(input), &cfg))

	require.Len(t, cfg.RealtimeConfigs, 2)
	assert.Equal(t, ID("1"), cfg.RealtimeConfigs[0].ID)
	assert.Equal(t, ID("2"), cfg.RealtimeConfigs[1].ID)
	require.Len(t, cfg.Actions, 1)
	assert.Equal(t, ID("7"), cfg.Actions[0].ID)
	assert.Nil(t, cfg.HistoryConfigs)
}

func TestValueSnapshot_Decode(t *testing.T) {
	input := `{
		"1": {"value": 230.4},
		"2": {"value": null},
		"3": {},
		"4": {"value": "12.5"},
		"5": {"value": "n/a"},
		"6": 17,
		"7": {"value": "NaN"},
		"8": {"value": "Inf"},
		"9": {"value": "+Infinity"},
		"10": {"value": "-inf"},
		"11": {"value": "0x1p-2"},
		"12": {"value": " null "}
	}`

	var snap ValueSnapshot
	require.NoError(t, json.Unmarshal([]byte(input), &snap))

	v, ok := snap.Resolve("1")
	assert.True(t, ok)
	assert.InDelta(t, 230.4, v, 0.001)

	_, ok = snap.Resolve("2")
	assert.False(t, ok)
	_, ok = snap.Resolve("3")
	assert.False(t, ok)

	v, ok = snap.Resolve("4")
	assert.True(t, ok)
	assert.InDelta(t, 12.5, v, 0.001)

	_, ok = snap.Resolve("5")
	assert.False(t, ok)
	_, ok = snap.Resolve("6")
	assert.False(t, ok)
	for _, id := range []ID{"7", "8", "9", "10", "11", "12"} {
		_, ok = snap.Resolve(id)
		assert.False(t, ok, "id %s", id)
	}
	_, ok = snap.Resolve("missing")
	assert.False(t, ok)
}

func TestValueRecord_ZeroIsPresent(t *testing.T) {
	var rec ValueRecord
	require.NoError(t, json.Unmarshal([]byte(`{"value":0}`), &rec))
	assert.True(t, rec.Present)
	assert.Zero(t, rec.Value)
}

func TestValueRecord_NullIsAbsent(t *testing.T) {
	rec := ValueRecord{Value: 230.4, Present: true}
	require.NoError(t, json.Unmarshal([]byte(`{"value": null}`), &rec))
	assert.False(t, rec.Present)
	assert.Zero(t, rec.Value)

	out, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":null}`, string(out))
}

func TestConfiguration_NumericIDsMatchValueKeys(t *testing.T) {
	var cfg Configuration
	require.NoError(t, json.Unmarshal([]byte(`{"realtime_configs":[{"id":1.0},{"id":2}]}`), &cfg))

	var snap ValueSnapshot
	require.NoError(t, json.Unmarshal([]byte(`{"1":{"value":230.4},"2":{"value":231}}`), &snap))

	for _, d := range cfg.RealtimeConfigs {
		_, ok := snap.Resolve(d.ID)
		assert.True(t, ok, "id %s", d.ID)
	}
}

func TestSlot_Unit(t *testing.T) {
	assert.Equal(t, "V", SlotU1N.Unit())
	assert.Equal(t, "kVAr", SlotReactivePower.Unit())
	assert.Equal(t, "kWh", SlotEnergy.Unit())
	assert.Equal(t, "%", SlotTHDU3N.Unit())
	assert.Equal(t, "", SlotTotalValues.Unit())
}
