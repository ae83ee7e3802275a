package dashboard

import (
	"errors"
	"strconv"
	"time"

	"energy_dashboard/internal/model"
)

var ErrUnknownGroup = errors.New("unknown group")

// DetailStatus tints a detail row.
type DetailStatus string

const (
	StatusGood    DetailStatus = "good"
	StatusNormal  DetailStatus = "normal"
	StatusWarning DetailStatus = "warning"
	StatusInfo    DetailStatus = "info"
)

// DetailItem is one labelled row of a group's detail view.
type DetailItem struct {
	Label  string       `json:"label"`
	Value  string       `json:"value"`
	Status DetailStatus `json:"status"`
	Range  string       `json:"range"`
}

// ValueLookup returns what a slot last displayed.
type ValueLookup func(slot model.Slot) (float64, bool)

const missing = "--"

type bounds struct{ lo, hi float64 }

func (b bounds) status(v float64) DetailStatus {
	if v < b.lo || v > b.hi {
		return StatusWarning
	}
	return StatusNormal
}

var (
	voltageBounds  = bounds{200, 240}
	currentBounds  = bounds{0, 20}
	activeBounds   = bounds{0, 15}
	reactiveBounds = bounds{0, 5}
	apparentBounds = bounds{0, 16}
)

// BuildDetails assembles the detail rows of g from the displayed values.
func BuildDetails(g Group, lookup ValueLookup, lastReset time.Time) ([]DetailItem, error) {
	switch g {
	case GroupVoltage:
		return phaseDetails(lookup, []model.Slot{model.SlotU1N, model.SlotU2N, model.SlotU3N},
			[]string{"Voltage U1-N", "Voltage U2-N", "Voltage U3-N"},
			"V", voltageBounds, "200-240V", "Voltage deviation", 3, "<3%"), nil
	case GroupCurrent:
		return phaseDetails(lookup, []model.Slot{model.SlotI1, model.SlotI2, model.SlotI3},
			[]string{"Current L1", "Current L2", "Current L3"},
			"A", currentBounds, "0-20A", "Current deviation", 10, "<10%"), nil
	case GroupPower:
		return powerDetails(lookup), nil
	case GroupPeak:
		return peakDetails(lookup, lastReset), nil
	case GroupTHD:
		return thdDetails(lookup), nil
	}
	return nil, ErrUnknownGroup
}

func phaseDetails(lookup ValueLookup, slots []model.Slot, labels []string, unit string, b bounds, rangeText, devLabel string, devLimit float64, devRange string) []DetailItem {
	items := make([]DetailItem, 0, len(slots)+2)
	var sum, lo, hi float64
	n := 0

	for i, slot := range slots {
		v, ok := lookup(slot)
		if !ok {
			items = append(items, DetailItem{Label: labels[i], Value: missing, Status: StatusNormal, Range: rangeText})
			continue
		}
		items = append(items, DetailItem{Label: labels[i], Value: fixed(v, 1) + unit, Status: b.status(v), Range: rangeText})
		if n == 0 || v < lo {
			lo = v
		}
		if n == 0 || v > hi {
			hi = v
		}
		sum += v
		n++
	}

	avg := DetailItem{Label: "Average", Value: missing, Status: StatusNormal, Range: rangeText}
	dev := DetailItem{Label: devLabel, Value: missing, Status: StatusGood, Range: devRange}
	if n == len(slots) {
		mean := sum / float64(n)
		avg.Value = fixed(mean, 1) + unit
		avg.Status = b.status(mean)
		if mean != 0 {
			pct := (hi - lo) / mean * 100
			dev.Value = fixed(pct, 1) + "%"
			if pct >= devLimit {
				dev.Status = StatusWarning
			}
		}
	}
	return append(items, avg, dev)
}

func powerDetails(lookup ValueLookup) []DetailItem {
	p, pOK := lookup(model.SlotPower)
	q, qOK := lookup(model.SlotReactivePower)
	s, sOK := lookup(model.SlotApparentPower)

	items := []DetailItem{
		measured("Active power", p, pOK, "kW", activeBounds, "0-15kW"),
		measured("Reactive power", q, qOK, "kVAr", reactiveBounds, "0-5kVAr"),
		measured("Apparent power", s, sOK, "kVA", apparentBounds, "0-16kVA"),
	}

	pf := DetailItem{Label: "Power factor", Value: missing, Status: StatusGood, Range: ">0.9"}
	if pOK && sOK && s != 0 {
		ratio := p / s
		pf.Value = fixed(ratio, 2)
		if ratio < 0.9 {
			pf.Status = StatusWarning
		}
	}
	items = append(items, pf, DetailItem{Label: "Frequency", Value: missing, Status: StatusNormal, Range: "49.5-50.5Hz"})
	return items
}

func peakDetails(lookup ValueLookup, lastReset time.Time) []DetailItem {
	reset := DetailItem{Label: "Last reset", Value: missing, Status: StatusInfo, Range: "Today"}
	if !lastReset.IsZero() {
		reset.Value = lastReset.Format("15:04:05")
	}
	return []DetailItem{
		info("Peak power", lookup, model.SlotPMax, "Time: --"),
		info("Peak current", lookup, model.SlotIMax, "Time: --"),
		info("Energy consumed", lookup, model.SlotEnergy, "Today"),
		reset,
		{Label: "Recording period", Value: "15 min", Status: StatusInfo, Range: "Automatic"},
	}
}

func thdDetails(lookup ValueLookup) []DetailItem {
	rows := []struct {
		label string
		slot  model.Slot
		limit float64
	}{
		{"THD total", model.SlotTHD, 5},
		{"THD current L1", model.SlotTHDI1, 5},
		{"THD current L2", model.SlotTHDI2, 5},
		{"THD current L3", model.SlotTHDI3, 5},
		{"THD voltage U1-N", model.SlotTHDU1N, 3},
		{"THD voltage U2-N", model.SlotTHDU2N, 3},
		{"THD voltage U3-N", model.SlotTHDU3N, 3},
	}

	items := make([]DetailItem, 0, len(rows))
	for _, r := range rows {
		item := DetailItem{Label: r.label, Value: missing, Status: StatusGood, Range: "<" + fixed(r.limit, 0) + "%"}
		if v, ok := lookup(r.slot); ok {
			item.Value = fixed(v, 1) + "%"
			if v >= r.limit {
				item.Status = StatusWarning
			}
		}
		items = append(items, item)
	}
	return items
}

func measured(label string, v float64, ok bool, unit string, b bounds, rangeText string) DetailItem {
	if !ok {
		return DetailItem{Label: label, Value: missing, Status: StatusNormal, Range: rangeText}
	}
	return DetailItem{Label: label, Value: fixed(v, 1) + unit, Status: b.status(v), Range: rangeText}
}

func info(label string, lookup ValueLookup, slot model.Slot, rangeText string) DetailItem {
	item := DetailItem{Label: label, Value: missing, Status: StatusNormal, Range: rangeText}
	if v, ok := lookup(slot); ok {
		item.Value = fixed(v, 1) + slot.Unit()
	}
	return item
}

func fixed(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}
