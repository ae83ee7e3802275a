package chart

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAt_Voltage(t *testing.T) {
	now := time.Date(2024, 11, 21, 14, 37, 0, 0, time.Local)
	c, err := GenerateAt(FamilyVoltage, 24, now, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)

	require.Len(t, c.Labels, 24)
	assert.Equal(t, "14:00", c.Labels[23])
	assert.Equal(t, "15:00", c.Labels[0])
	assert.Equal(t, []string{"U1-N", "U2-N", "U3-N"}, c.Order)
	assert.Equal(t, "Voltage over time", c.Title)

	for i := 1; i < len(c.Times); i++ {
		assert.True(t, c.Times[i].After(c.Times[i-1]), "time %d", i)
		assert.Equal(t, time.Hour, c.Times[i].Sub(c.Times[i-1]))
	}

	for _, name := range c.Order {
		require.Len(t, c.Series[name], 24)
		for _, v := range c.Series[name] {
			assert.GreaterOrEqual(t, v, 218.0)
			assert.LessOrEqual(t, v, 222.0)
		}
	}
}

func TestGenerateAt_Ranges(t *testing.T) {
	tests := []struct {
		family Family
		ranges map[string][2]float64
	}{
		{FamilyCurrent, map[string][2]float64{"I1": {10, 16}, "I2": {10, 16}, "I3": {10, 16}}},
		{FamilyPower, map[string][2]float64{"P (kW)": {8, 12}, "Q (kVAr)": {2, 4}, "S (kVA)": {8.5, 12.5}}},
		{FamilyTHD, map[string][2]float64{"THD I": {1.5, 3.2}, "THD U": {1.5, 3.2}}},
	}

	rng := rand.New(rand.NewPCG(7, 7))
	for _, tt := range tests {
		t.Run(string(tt.family), func(t *testing.T) {
			c, err := GenerateAt(tt.family, 48, time.Now(), rng)
			require.NoError(t, err)
			require.Len(t, c.Series, len(tt.ranges))

			for name, r := range tt.ranges {
				vals, ok := c.Series[name]
				require.True(t, ok, "series %s", name)
				for _, v := range vals {
					assert.GreaterOrEqual(t, v, r[0], name)
					assert.LessOrEqual(t, v, r[1], name)
				}
			}
		})
	}
}

func TestGenerateAt_Deterministic(t *testing.T) {
	now := time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC)
	a, err := GenerateAt(FamilyPower, 12, now, rand.New(rand.NewPCG(3, 4)))
	require.NoError(t, err)
	b, err := GenerateAt(FamilyPower, 12, now, rand.New(rand.NewPCG(3, 4)))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGenerateAt_LabelsWrapMidnight(t *testing.T) {
	now := time.Date(2024, 1, 1, 1, 15, 0, 0, time.UTC)
	c, err := GenerateAt(FamilyCurrent, 4, now, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"22:00", "23:00", "0:00", "1:00"}, c.Labels)
}

func TestGenerate_DefaultSamples(t *testing.T) {
	for _, n := range []int{0, -3} {
		c, err := Generate(FamilyTHD, n)
		require.NoError(t, err)
		assert.Len(t, c.Labels, DefaultSamples)
		assert.Len(t, c.Series["THD I"], DefaultSamples)
	}
}

func TestGenerate_UnknownFamily(t *testing.T) {
	_, err := Generate(Family("frequency"), 24)
	assert.ErrorIs(t, err, ErrUnknownFamily)

	_, err = ParseFamily("frequency")
	assert.ErrorIs(t, err, ErrUnknownFamily)

	f, err := ParseFamily("power")
	require.NoError(t, err)
	assert.Equal(t, FamilyPower, f)
}

func TestSynthetic_History(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	src := Synthetic{Now: func() time.Time { return now }}

	c, err := src.History(FamilyVoltage, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"7:00", "8:00", "9:00"}, c.Labels)
}
