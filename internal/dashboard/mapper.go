package dashboard

import (
	"slices"

	"energy_dashboard/internal/model"
)

// ConfigSet is the positional partition of the realtime descriptor list,
// held together with the platform's action list.
type ConfigSet struct {
	Voltage []model.MetricDescriptor `json:"voltage"`
	Current []model.MetricDescriptor `json:"current"`
	Power   []model.MetricDescriptor `json:"power"`
	Peak    []model.MetricDescriptor `json:"peak"`
	THD     []model.MetricDescriptor `json:"thd"`

	Actions []model.ActionDescriptor `json:"actions"`
}

// MapConfiguration slices descriptors into [0,3) [3,6) [6,9) [9,12) [12,∞).
// Short lists give truncated or empty slices; content is not validated.
func MapConfiguration(descriptors []model.MetricDescriptor, actions []model.ActionDescriptor) ConfigSet {
	return ConfigSet{
		Voltage: sliceGroup(descriptors, GroupVoltage),
		Current: sliceGroup(descriptors, GroupCurrent),
		Power:   sliceGroup(descriptors, GroupPower),
		Peak:    sliceGroup(descriptors, GroupPeak),
		THD:     sliceGroup(descriptors, GroupTHD),
		Actions: slices.Clone(actions),
	}
}

// Group returns the slice belonging to g.
func (c ConfigSet) Group(g Group) []model.MetricDescriptor {
	switch g {
	case GroupVoltage:
		return c.Voltage
	case GroupCurrent:
		return c.Current
	case GroupPower:
		return c.Power
	case GroupPeak:
		return c.Peak
	case GroupTHD:
		return c.THD
	}
	return nil
}

// Enabled reports whether g has enough members to be displayed.
func (c ConfigSet) Enabled(g Group) bool {
	return len(c.Group(g)) >= g.MinMembers()
}

func sliceGroup(descriptors []model.MetricDescriptor, g Group) []model.MetricDescriptor {
	l := layouts[g]
	start := min(l.start, len(descriptors))
	end := len(descriptors)
	if l.end >= 0 {
		end = min(l.end, len(descriptors))
	}
	// Copy so later edits to the pushed list never leak into the set.
	out := make([]model.MetricDescriptor, end-start)
	copy(out, descriptors[start:end])
	return out
}
