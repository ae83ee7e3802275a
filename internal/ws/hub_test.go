package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvelope(t *testing.T) {
	payload := PeakConfirmPayload{Prompt: "sure?"}

	msg, err := NewEnvelope(TypePeakConfirm, payload)
	require.NoError(t, err)

	var env Envelope
	err = json.Unmarshal(msg, &env)
	require.NoError(t, err)

	assert.Equal(t, TypePeakConfirm, env.Type)

	var parsed PeakConfirmPayload
	err = json.Unmarshal(env.Payload, &parsed)
	require.NoError(t, err)
	assert.Equal(t, "sure?", parsed.Prompt)
}

func TestNewEnvelope_NoPayload(t *testing.T) {
	msg, err := NewEnvelope(TypeTHDAnalyze, nil)
	require.NoError(t, err)

	var env Envelope
	err = json.Unmarshal(msg, &env)
	require.NoError(t, err)

	assert.Equal(t, TypeTHDAnalyze, env.Type)
	assert.Nil(t, env.Payload)
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub(nil)
	var counts []int
	hub.OnCount(func(n int) { counts = append(counts, n) })

	c := &Client{
		hub:  hub,
		send: make(chan []byte, 16),
	}

	hub.Register(c)
	assert.Equal(t, 1, hub.ClientCount())

	hub.Unregister(c)
	assert.Equal(t, 0, hub.ClientCount())

	// Second unregister is a no-op.
	hub.Unregister(c)
	assert.Equal(t, []int{1, 0}, counts)
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub(nil)

	c1 := &Client{hub: hub, send: make(chan []byte, 16)}
	c2 := &Client{hub: hub, send: make(chan []byte, 16)}

	hub.Register(c1)
	hub.Register(c2)

	msg := []byte(`{"type":"test"}`)
	hub.Broadcast(msg)

	assert.Equal(t, msg, <-c1.send)
	assert.Equal(t, msg, <-c2.send)
}

func TestHub_BroadcastDropsForSlowClient(t *testing.T) {
	hub := NewHub(nil)
	slow := &Client{hub: hub, send: make(chan []byte, 1)}
	fast := &Client{hub: hub, send: make(chan []byte, 16)}
	hub.Register(slow)
	hub.Register(fast)

	hub.Broadcast([]byte("1"))
	hub.Broadcast([]byte("2"))

	assert.Len(t, slow.send, 1)
	assert.Len(t, fast.send, 2)
	assert.Equal(t, []byte("1"), <-slow.send)
}

func TestMessageTypes(t *testing.T) {
	assert.Equal(t, "chart:request", TypeChartRequest)
	assert.Equal(t, "details:request", TypeDetailsRequest)
	assert.Equal(t, "thd:analyze", TypeTHDAnalyze)
	assert.Equal(t, "peak:reset", TypePeakReset)
	assert.Equal(t, "display:snapshot", TypeDisplaySnapshot)
	assert.Equal(t, "slot:update", TypeSlotUpdate)
	assert.Equal(t, "notify", TypeNotify)
	assert.Equal(t, "chart:data", TypeChartData)
	assert.Equal(t, "details:data", TypeDetailsData)
	assert.Equal(t, "thd:analysis", TypeTHDAnalysis)
	assert.Equal(t, "peak:confirm", TypePeakConfirm)
	assert.Equal(t, "error", TypeError)
}
