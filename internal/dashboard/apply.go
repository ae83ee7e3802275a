package dashboard

import (
	"strconv"

	"energy_dashboard/internal/model"
)

// Resolver looks up the current numeric value of a metric id.
type Resolver interface {
	Resolve(id model.ID) (float64, bool)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(id model.ID) (float64, bool)

func (f ResolverFunc) Resolve(id model.ID) (float64, bool) { return f(id) }

// Sink receives display writes keyed by logical slot.
type Sink interface {
	WriteSlot(v model.SlotValue)
}

// Resolved is the outcome of resolving one descriptor.
type Resolved struct {
	ID      model.ID `json:"id"`
	Value   float64  `json:"value"`
	Present bool     `json:"present"`
}

// ApplyResult summarizes one values push.
type ApplyResult struct {
	DisplayedCount int
	// THD holds the resolved THD group, or nil when the group was skipped.
	THD []Resolved
}

// ApplyValues resolves every enabled group against r and writes present
// values to sink. Absent values leave their slot untouched. A group whose
// slice is shorter than its minimum is skipped without any write.
func ApplyValues(r Resolver, config ConfigSet, sink Sink) ApplyResult {
	var res ApplyResult

	for _, g := range Groups {
		if !config.Enabled(g) {
			continue
		}
		members := config.Group(g)
		slots := g.Slots()
		resolved := make([]Resolved, len(slots))

		for i, slot := range slots {
			id := members[i].ID
			v, ok := r.Resolve(id)
			resolved[i] = Resolved{ID: id, Value: v, Present: ok}
			if !ok {
				continue
			}
			sink.WriteSlot(FormatSlot(slot, v))
			res.DisplayedCount++
		}

		switch g {
		case GroupPower:
			if resolved[0].Present {
				sink.WriteSlot(totalPowerValue(resolved[0].Value))
			}
		case GroupTHD:
			res.THD = resolved
		}
	}

	return res
}

// FormatSlot renders v with one decimal place and the slot's static unit.
func FormatSlot(slot model.Slot, v float64) model.SlotValue {
	unit := slot.Unit()
	return model.SlotValue{
		Slot:  slot,
		Text:  strconv.FormatFloat(v, 'f', 1, 64) + unit,
		Value: v,
		Unit:  unit,
	}
}

// totalPowerValue mirrors active power into the header without fixed
// decimals.
func totalPowerValue(v float64) model.SlotValue {
	return model.SlotValue{
		Slot:  model.SlotTotalPower,
		Text:  strconv.FormatFloat(v, 'f', -1, 64) + " kW",
		Value: v,
		Unit:  "kW",
	}
}
