package chart

import (
	"errors"
	"math/rand/v2"
	"strconv"
	"time"
)

// DefaultSamples is the number of hourly points when none is requested.
const DefaultSamples = 24

var ErrUnknownFamily = errors.New("unknown chart family")

// Family is a metric family that can be charted.
type Family string

const (
	FamilyVoltage Family = "voltage"
	FamilyCurrent Family = "current"
	FamilyPower   Family = "power"
	FamilyTHD     Family = "thd"
)

// Families lists the chartable families in display order.
var Families = []Family{FamilyVoltage, FamilyCurrent, FamilyPower, FamilyTHD}

// Chart is the label/series structure handed to a chart renderer.
type Chart struct {
	Family Family               `json:"family"`
	Title  string               `json:"title"`
	Labels []string             `json:"labels"`
	Times  []time.Time          `json:"times"`
	Order  []string             `json:"order"`
	Series map[string][]float64 `json:"series"`
}

// seriesSpec draws values uniformly from [Min, Max).
type seriesSpec struct {
	Name     string
	Min, Max float64
}

type familySpec struct {
	Title  string
	Series []seriesSpec
}

var families = map[Family]familySpec{
	FamilyVoltage: {
		Title: "Voltage over time",
		Series: []seriesSpec{
			{"U1-N", 218, 222},
			{"U2-N", 218, 222},
			{"U3-N", 218, 222},
		},
	},
	FamilyCurrent: {
		Title: "Current over time",
		Series: []seriesSpec{
			{"I1", 10, 16},
			{"I2", 10, 16},
			{"I3", 10, 16},
		},
	},
	FamilyPower: {
		Title: "Power over time",
		Series: []seriesSpec{
			{"P (kW)", 8, 12},
			{"Q (kVAr)", 2, 4},
			{"S (kVA)", 8.5, 12.5},
		},
	},
	FamilyTHD: {
		Title: "THD over time",
		Series: []seriesSpec{
			{"THD I", 2, 3},
			{"THD U", 1.5, 2.5},
		},
	},
}

// Valid reports whether f is a known family.
func (f Family) Valid() bool {
	_, ok := families[f]
	return ok
}

// ParseFamily converts a name into a Family.
func ParseFamily(name string) (Family, error) {
	f := Family(name)
	if !f.Valid() {
		return "", ErrUnknownFamily
	}
	return f, nil
}

// Generate returns synthetic hourly history for family ending at the
// current hour.
func Generate(family Family, samples int) (Chart, error) {
	return GenerateAt(family, samples, time.Now(), nil)
}

// GenerateAt is Generate with an explicit clock and random source. A nil rng
// uses the global source.
func GenerateAt(family Family, samples int, now time.Time, rng *rand.Rand) (Chart, error) {
	spec, ok := families[family]
	if !ok {
		return Chart{}, ErrUnknownFamily
	}
	if samples <= 0 {
		samples = DefaultSamples
	}
	draw := rand.Float64
	if rng != nil {
		draw = rng.Float64
	}

	end := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, now.Location())
	c := Chart{
		Family: family,
		Title:  spec.Title,
		Labels: make([]string, samples),
		Times:  make([]time.Time, samples),
		Order:  make([]string, len(spec.Series)),
		Series: make(map[string][]float64, len(spec.Series)),
	}
	for i, s := range spec.Series {
		c.Order[i] = s.Name
		c.Series[s.Name] = make([]float64, samples)
	}

	for i := 0; i < samples; i++ {
		t := end.Add(-time.Duration(samples-1-i) * time.Hour)
		c.Times[i] = t
		c.Labels[i] = strconv.Itoa(t.Hour()) + ":00"
		for _, s := range spec.Series {
			c.Series[s.Name][i] = s.Min + draw()*(s.Max-s.Min)
		}
	}
	return c, nil
}

// Source supplies chart history. Synthetic is the only implementation; a
// real history store can replace it behind the same contract.
type Source interface {
	History(family Family, samples int) (Chart, error)
}

// Synthetic generates placeholder history.
type Synthetic struct {
	Now func() time.Time
}

func (s Synthetic) History(family Family, samples int) (Chart, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return GenerateAt(family, samples, now(), nil)
}
