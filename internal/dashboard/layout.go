package dashboard

import "energy_dashboard/internal/model"

// Group is a semantic group of realtime metrics.
type Group string

const (
	GroupVoltage Group = "voltage"
	GroupCurrent Group = "current"
	GroupPower   Group = "power"
	GroupPeak    Group = "peak"
	GroupTHD     Group = "thd"
)

// Groups lists every group in descriptor order.
var Groups = []Group{GroupVoltage, GroupCurrent, GroupPower, GroupPeak, GroupTHD}

type groupLayout struct {
	start int
	end   int // -1 means to the end of the descriptor list
	slots []model.Slot
}

var layouts = map[Group]groupLayout{
	GroupVoltage: {start: 0, end: 3, slots: []model.Slot{model.SlotU1N, model.SlotU2N, model.SlotU3N}},
	GroupCurrent: {start: 3, end: 6, slots: []model.Slot{model.SlotI1, model.SlotI2, model.SlotI3}},
	GroupPower:   {start: 6, end: 9, slots: []model.Slot{model.SlotPower, model.SlotReactivePower, model.SlotApparentPower}},
	GroupPeak:    {start: 9, end: 12, slots: []model.Slot{model.SlotPMax, model.SlotIMax, model.SlotEnergy}},
	GroupTHD: {start: 12, end: -1, slots: []model.Slot{
		model.SlotTHD,
		model.SlotTHDI1, model.SlotTHDI2, model.SlotTHDI3,
		model.SlotTHDU1N, model.SlotTHDU2N, model.SlotTHDU3N,
	}},
}

// Slots returns the display slots of a group in member order.
func (g Group) Slots() []model.Slot {
	return layouts[g].slots
}

// MinMembers is the slice length a group needs before any of its slots is
// written.
func (g Group) MinMembers() int {
	return len(layouts[g].slots)
}

// Valid reports whether g is a known group.
func (g Group) Valid() bool {
	_, ok := layouts[g]
	return ok
}
