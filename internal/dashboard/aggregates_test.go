package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"energy_dashboard/internal/model"
)

func thdValues(vs ...float64) []Resolved {
	out := make([]Resolved, len(vs))
	for i, v := range vs {
		out[i] = Resolved{ID: model.ID("t"), Value: v, Present: true}
	}
	return out
}

func TestComputeAggregates_Online(t *testing.T) {
	assert.Equal(t, 5, ComputeAggregates(1, 5, nil, DefaultWarningThreshold).OnlineDevices)
	assert.Equal(t, 5, ComputeAggregates(19, 5, nil, DefaultWarningThreshold).OnlineDevices)
	assert.Equal(t, 0, ComputeAggregates(0, 5, nil, DefaultWarningThreshold).OnlineDevices)
}

func TestComputeAggregates_Warnings(t *testing.T) {
	tests := []struct {
		name string
		thd  []Resolved
		want int
	}{
		{"none", nil, 0},
		{"all below", thdValues(1, 2, 3, 4, 4.9, 0, 1), 0},
		{"threshold is not a warning", thdValues(5.0, 5.0), 0},
		{"above", thdValues(5.01, 7, 2, 9), 3},
		{"absent ignored", []Resolved{{Value: 9}, {Value: 6, Present: true}}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := ComputeAggregates(len(tt.thd), 5, tt.thd, DefaultWarningThreshold)
			assert.Equal(t, tt.want, agg.WarningCount)
		})
	}
}

func TestComputeAggregates_WarningsMonotonic(t *testing.T) {
	vals := []float64{2, 3, 4, 6, 7, 2, 3}
	before := ComputeAggregates(7, 5, thdValues(vals...), DefaultWarningThreshold).WarningCount

	for i := range vals {
		raised := append([]float64(nil), vals...)
		raised[i] += 4
		after := ComputeAggregates(7, 5, thdValues(raised...), DefaultWarningThreshold).WarningCount
		assert.GreaterOrEqual(t, after, before, "raising member %d", i)
	}
}

func TestWriteAggregates(t *testing.T) {
	sink := newRecordSink()
	WriteAggregates(sink, Aggregates{OnlineDevices: 5, DeviceTotal: 5, TotalValues: 17, WarningCount: 2})

	assert.Equal(t, "17", sink.text(model.SlotTotalValues))
	assert.Equal(t, "5/5", sink.text(model.SlotOnlineStatus))
	assert.Equal(t, "5", sink.text(model.SlotTotalDevices))
	assert.Equal(t, "2", sink.text(model.SlotWarningCount))
}
