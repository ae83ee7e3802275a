package model

import "time"

// Slot is a logical display slot the dashboard writes into.
type Slot string

const (
	SlotU1N Slot = "u1n"
	SlotU2N Slot = "u2n"
	SlotU3N Slot = "u3n"

	SlotI1 Slot = "i1"
	SlotI2 Slot = "i2"
	SlotI3 Slot = "i3"

	SlotPower         Slot = "power"
	SlotReactivePower Slot = "reactivepower"
	SlotApparentPower Slot = "apparentpower"

	SlotPMax   Slot = "pmax"
	SlotIMax   Slot = "imax"
	SlotEnergy Slot = "energy"

	SlotTHD    Slot = "thd"
	SlotTHDI1  Slot = "thdi1"
	SlotTHDI2  Slot = "thdi2"
	SlotTHDI3  Slot = "thdi3"
	SlotTHDU1N Slot = "thdu1n"
	SlotTHDU2N Slot = "thdu2n"
	SlotTHDU3N Slot = "thdu3n"

	// Header slots
	SlotTotalPower       Slot = "totalPower"
	SlotTotalDevices     Slot = "totalDevices"
	SlotTotalValues      Slot = "totalValues"
	SlotOnlineStatus     Slot = "onlineStatus"
	SlotWarningCount     Slot = "warningCount"
	SlotConnectionStatus Slot = "connectionStatus"
)

// SlotInfo holds the display label and static unit of a slot.
type SlotInfo struct {
	Label string
	Unit  string
}

// SlotCatalog maps every metric slot to its label and unit.
var SlotCatalog = map[Slot]SlotInfo{
	SlotU1N:           {Label: "Voltage U1-N", Unit: "V"},
	SlotU2N:           {Label: "Voltage U2-N", Unit: "V"},
	SlotU3N:           {Label: "Voltage U3-N", Unit: "V"},
	SlotI1:            {Label: "Current L1", Unit: "A"},
	SlotI2:            {Label: "Current L2", Unit: "A"},
	SlotI3:            {Label: "Current L3", Unit: "A"},
	SlotPower:         {Label: "Active power", Unit: "kW"},
	SlotReactivePower: {Label: "Reactive power", Unit: "kVAr"},
	SlotApparentPower: {Label: "Apparent power", Unit: "kVA"},
	SlotPMax:          {Label: "Peak power", Unit: "kW"},
	SlotIMax:          {Label: "Peak current", Unit: "A"},
	SlotEnergy:        {Label: "Energy", Unit: "kWh"},
	SlotTHD:           {Label: "THD total", Unit: "%"},
	SlotTHDI1:         {Label: "THD current L1", Unit: "%"},
	SlotTHDI2:         {Label: "THD current L2", Unit: "%"},
	SlotTHDI3:         {Label: "THD current L3", Unit: "%"},
	SlotTHDU1N:        {Label: "THD voltage U1-N", Unit: "%"},
	SlotTHDU2N:        {Label: "THD voltage U2-N", Unit: "%"},
	SlotTHDU3N:        {Label: "THD voltage U3-N", Unit: "%"},
}

// Unit returns the static unit of a slot, or "" for header slots.
func (s Slot) Unit() string {
	return SlotCatalog[s].Unit
}

// SlotValue is what a display slot currently shows.
type SlotValue struct {
	Slot      Slot      `json:"slot"`
	Text      string    `json:"text"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
