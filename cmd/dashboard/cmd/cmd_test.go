package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energy_dashboard/internal/chart"
	"energy_dashboard/internal/dashboard"
	"energy_dashboard/internal/ingest"
	"energy_dashboard/internal/model"
)

const testCapture = `# recorded from the widget
{"at":"2024-11-21T12:00:00Z","type":"configuration","payload":{"realtime_configs":[{"id":1},{"id":2},{"id":3},{"id":4},{"id":5},{"id":6},{"id":7},{"id":8},{"id":9},{"id":10},{"id":11},{"id":12}],"actions":[{"id":99,"name":"Reset peak values"}]}}
{"at":"2024-11-21T12:00:05Z","type":"values","payload":{"1":{"value":230.5},"7":{"value":9.4},"8":{"value":null}}}
`

// run executes the root command with args and returns its stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	chartSamples = chart.DefaultSamples
	chartJSON = false
	replayResetPeak = false
	replayJSON = false
	debug = false

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeCapture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(testCapture), 0o644))
	return path
}

func TestChartCommand(t *testing.T) {
	out, err := run(t, "chart", "current", "--samples", "3")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Current over time", lines[0])
	assert.Equal(t, []string{"TIME", "I1", "I2", "I3"}, strings.Fields(lines[1]))
	for _, line := range lines[2:] {
		fields := strings.Fields(line)
		require.Len(t, fields, 4)
		assert.True(t, strings.HasSuffix(fields[0], ":00"))
	}
}

func TestChartCommand_JSON(t *testing.T) {
	out, err := run(t, "chart", "thd", "-n", "6", "--json")
	require.NoError(t, err)

	var c chart.Chart
	require.NoError(t, json.Unmarshal([]byte(out), &c))
	assert.Equal(t, chart.FamilyTHD, c.Family)
	assert.Len(t, c.Labels, 6)
	assert.Equal(t, []string{"THD I", "THD U"}, c.Order)
}

func TestChartCommand_Errors(t *testing.T) {
	_, err := run(t, "chart", "frequency")
	require.Error(t, err)
	assert.ErrorIs(t, err, chart.ErrUnknownFamily)

	_, err = run(t, "chart", "power", "--samples", "0")
	assert.Error(t, err)

	_, err = run(t, "chart")
	assert.Error(t, err)
}

func TestReplayCommand(t *testing.T) {
	path := writeCapture(t)

	out, err := run(t, "replay", path)
	require.NoError(t, err)

	assert.Contains(t, out, "Applied 2 pushes: 5/5 online, 2 values, 0 warnings")
	assert.Regexp(t, `u1n\s+230\.5V`, out)
	assert.Regexp(t, `power\s+9\.4kW`, out)
	assert.Regexp(t, `totalPower\s+9\.4 kW`, out)
	assert.NotContains(t, out, "reactivepower")
	assert.NotContains(t, out, "Published action")
}

func TestReplayCommand_ResetPeakJSON(t *testing.T) {
	path := writeCapture(t)

	out, err := run(t, "replay", path, "--reset-peak", "--json")
	require.NoError(t, err)

	var report replayReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.Pushes)
	require.Len(t, report.Actions, 1)
	assert.Equal(t, model.ID("99"), report.Actions[0].ID)
	assert.Equal(t, 1, report.Actions[0].Value)

	texts := make(map[model.Slot]string)
	for _, s := range report.Slots {
		texts[s.Slot] = s.Text
	}
	assert.Equal(t, "0.0kW", texts[model.SlotPMax])
	assert.Equal(t, "0.0A", texts[model.SlotIMax])
}

func TestReplayCommand_MissingFile(t *testing.T) {
	_, err := run(t, "replay", filepath.Join(t.TempDir(), "nope.jsonl"))
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "dashboard version dev")
}

func TestRecordingTarget(t *testing.T) {
	var buf bytes.Buffer
	dash := dashboard.New(dashboard.Options{})
	target := newRecordingTarget(dash, ingest.NewWriter(&buf), nil)
	at := time.Date(2024, 11, 21, 12, 0, 0, 0, time.UTC)
	target.now = func() time.Time { return at }

	descs := make([]model.MetricDescriptor, 3)
	for i := range descs {
		descs[i] = model.MetricDescriptor{ID: model.ID(string(rune('1' + i)))}
	}
	target.ApplyConfiguration(model.Configuration{RealtimeConfigs: descs})
	target.ApplyValues(model.ValueSnapshot{"1": {Value: 231, Present: true}})
	// Resolvers that are not snapshots are applied but not recorded.
	target.ApplyValues(dashboard.ResolverFunc(func(model.ID) (float64, bool) { return 0, false }))

	pushes, err := (&ingest.CaptureParser{}).Parse(&buf)
	require.NoError(t, err)
	require.Len(t, pushes, 2)

	assert.Equal(t, model.PushConfiguration, pushes[0].Kind)
	assert.Equal(t, at, pushes[0].At)
	require.NotNil(t, pushes[0].Configuration)
	assert.Len(t, pushes[0].Configuration.RealtimeConfigs, 3)
	assert.Nil(t, pushes[0].Configuration.Actions)

	assert.Equal(t, model.PushValues, pushes[1].Kind)
	v, ok := pushes[1].Values.Resolve("1")
	assert.True(t, ok)
	assert.Equal(t, 231.0, v)

	assert.Equal(t, 2, dash.Status().Pushes)
}
