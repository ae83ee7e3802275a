package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energy_dashboard/internal/dashboard"
	"energy_dashboard/internal/model"
	"energy_dashboard/internal/replay"
)

var startTime = time.Date(2024, 11, 21, 12, 0, 0, 0, time.UTC)

func newTestBridge() (*Bridge, *Client) {
	hub := NewHub(nil)
	client := &Client{hub: hub, send: make(chan []byte, 256)}
	hub.Register(client)
	bridge := NewBridge(hub, nil)
	return bridge, client
}

func receiveEnvelope(t *testing.T, c *Client) Envelope {
	t.Helper()
	msg := <-c.send
	var env Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	return env
}

func TestBridge_WriteSlot(t *testing.T) {
	bridge, client := newTestBridge()

	bridge.WriteSlot(model.SlotValue{Slot: model.SlotU1N, Text: "230.4V", Value: 230.4, Unit: "V", UpdatedAt: startTime})

	env := receiveEnvelope(t, client)
	assert.Equal(t, TypeSlotUpdate, env.Type)

	var v model.SlotValue
	require.NoError(t, json.Unmarshal(env.Payload, &v))
	assert.Equal(t, model.SlotU1N, v.Slot)
	assert.Equal(t, "230.4V", v.Text)
	assert.Equal(t, startTime, v.UpdatedAt)
}

func TestBridge_Notify(t *testing.T) {
	bridge, client := newTestBridge()

	bridge.Notify(dashboard.Notification{Level: dashboard.LevelError, Message: "down", Persistent: true, At: startTime})

	env := receiveEnvelope(t, client)
	assert.Equal(t, TypeNotify, env.Type)

	var n dashboard.Notification
	require.NoError(t, json.Unmarshal(env.Payload, &n))
	assert.Equal(t, dashboard.LevelError, n.Level)
	assert.True(t, n.Persistent)
}

func TestBridge_OnState(t *testing.T) {
	bridge, client := newTestBridge()

	bridge.OnState(replay.State{
		Time:     startTime,
		Speed:    60,
		Running:  true,
		Position: 3,
		Total:    10,
	})

	env := receiveEnvelope(t, client)
	assert.Equal(t, TypeReplayState, env.Type)

	var p ReplayStatePayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, "2024-11-21T12:00:00Z", p.Time)
	assert.Equal(t, 60.0, p.Speed)
	assert.True(t, p.Running)
	assert.Equal(t, 3, p.Position)
}

func TestBridge_AsDashboardSink(t *testing.T) {
	bridge, client := newTestBridge()
	d := dashboard.New(dashboard.Options{Sink: bridge, Notifier: bridge, Now: func() time.Time { return startTime }})

	d.SetConnected(false, assert.AnError)

	env := receiveEnvelope(t, client)
	assert.Equal(t, TypeSlotUpdate, env.Type)
	env = receiveEnvelope(t, client)
	assert.Equal(t, TypeNotify, env.Type)
}
