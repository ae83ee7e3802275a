package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energy_dashboard/internal/model"
)

func lookupOf(values map[model.Slot]float64) ValueLookup {
	return func(s model.Slot) (float64, bool) {
		v, ok := values[s]
		return v, ok
	}
}

func TestBuildDetails_Voltage(t *testing.T) {
	items, err := BuildDetails(GroupVoltage, lookupOf(map[model.Slot]float64{
		model.SlotU1N: 230, model.SlotU2N: 232, model.SlotU3N: 245,
	}), time.Time{})
	require.NoError(t, err)
	require.Len(t, items, 5)

	assert.Equal(t, "230.0V", items[0].Value)
	assert.Equal(t, StatusNormal, items[0].Status)
	assert.Equal(t, StatusWarning, items[2].Status)
	assert.Equal(t, "Average", items[3].Label)
	assert.Equal(t, "235.7V", items[3].Value)
	assert.Equal(t, "6.4%", items[4].Value)
	assert.Equal(t, StatusWarning, items[4].Status)
}

func TestBuildDetails_PartialPhases(t *testing.T) {
	items, err := BuildDetails(GroupCurrent, lookupOf(map[model.Slot]float64{model.SlotI1: 12}), time.Time{})
	require.NoError(t, err)

	assert.Equal(t, "12.0A", items[0].Value)
	assert.Equal(t, missing, items[1].Value)
	assert.Equal(t, missing, items[3].Value)
	assert.Equal(t, missing, items[4].Value)
}

func TestBuildDetails_Power(t *testing.T) {
	items, err := BuildDetails(GroupPower, lookupOf(map[model.Slot]float64{
		model.SlotPower: 8, model.SlotReactivePower: 2, model.SlotApparentPower: 10,
	}), time.Time{})
	require.NoError(t, err)
	require.Len(t, items, 5)

	assert.Equal(t, "Power factor", items[3].Label)
	assert.Equal(t, "0.80", items[3].Value)
	assert.Equal(t, StatusWarning, items[3].Status)
	assert.Equal(t, missing, items[4].Value)
}

func TestBuildDetails_Peak(t *testing.T) {
	reset := time.Date(2024, 11, 21, 9, 30, 15, 0, time.UTC)
	items, err := BuildDetails(GroupPeak, lookupOf(map[model.Slot]float64{
		model.SlotPMax: 11.2, model.SlotEnergy: 1500,
	}), reset)
	require.NoError(t, err)

	assert.Equal(t, "11.2kW", items[0].Value)
	assert.Equal(t, missing, items[1].Value)
	assert.Equal(t, "1500.0kWh", items[2].Value)
	assert.Equal(t, "09:30:15", items[3].Value)
}

func TestBuildDetails_THD(t *testing.T) {
	items, err := BuildDetails(GroupTHD, lookupOf(map[model.Slot]float64{
		model.SlotTHD: 4.2, model.SlotTHDI1: 5.0, model.SlotTHDU1N: 2.5,
	}), time.Time{})
	require.NoError(t, err)
	require.Len(t, items, 7)

	assert.Equal(t, StatusGood, items[0].Status)
	assert.Equal(t, StatusWarning, items[1].Status)
	assert.Equal(t, missing, items[2].Value)
	assert.Equal(t, "<3%", items[4].Range)
	assert.Equal(t, StatusGood, items[4].Status)
}

func TestBuildDetails_UnknownGroup(t *testing.T) {
	_, err := BuildDetails(Group("frequency"), lookupOf(nil), time.Time{})
	assert.ErrorIs(t, err, ErrUnknownGroup)
}
