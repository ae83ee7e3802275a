package dashboard

import (
	"fmt"
	"strconv"

	"energy_dashboard/internal/model"
)

// DefaultWarningThreshold is the THD percentage above which a member counts
// as a warning.
const DefaultWarningThreshold = 5.0

// Aggregates are the header figures derived from one values push.
type Aggregates struct {
	OnlineDevices int `json:"online_devices"`
	DeviceTotal   int `json:"device_total"`
	TotalValues   int `json:"total_values"`
	WarningCount  int `json:"warning_count"`
}

// ComputeAggregates derives header figures. Any received value marks every
// device online; absent THD values never count as warnings.
func ComputeAggregates(displayedCount, deviceTotal int, thd []Resolved, threshold float64) Aggregates {
	agg := Aggregates{
		DeviceTotal: deviceTotal,
		TotalValues: displayedCount,
	}
	if displayedCount > 0 {
		agg.OnlineDevices = deviceTotal
	}
	for _, r := range thd {
		if r.Present && r.Value > threshold {
			agg.WarningCount++
		}
	}
	return agg
}

// WriteAggregates writes the header slots.
func WriteAggregates(sink Sink, agg Aggregates) {
	sink.WriteSlot(countValue(model.SlotTotalValues, agg.TotalValues))
	sink.WriteSlot(model.SlotValue{
		Slot:  model.SlotOnlineStatus,
		Text:  formatOnline(agg),
		Value: float64(agg.OnlineDevices),
	})
	sink.WriteSlot(countValue(model.SlotTotalDevices, agg.DeviceTotal))
	sink.WriteSlot(countValue(model.SlotWarningCount, agg.WarningCount))
}

func countValue(slot model.Slot, n int) model.SlotValue {
	return model.SlotValue{Slot: slot, Text: strconv.Itoa(n), Value: float64(n)}
}

func formatOnline(a Aggregates) string {
	return fmt.Sprintf("%d/%d", a.OnlineDevices, a.DeviceTotal)
}
