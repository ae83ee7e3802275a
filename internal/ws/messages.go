package ws

import (
	"encoding/json"
	"time"

	"energy_dashboard/internal/dashboard"
	"energy_dashboard/internal/model"
	"energy_dashboard/internal/replay"
)

// Envelope wraps all WebSocket messages with a type discriminator.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Message type constants
const (
	// Client -> Server
	TypeChartRequest   = "chart:request"
	TypeDetailsRequest = "details:request"
	TypeTHDAnalyze     = "thd:analyze"
	TypePeakReset      = "peak:reset"
	TypeReplayStart    = "replay:start"
	TypeReplayPause    = "replay:pause"
	TypeReplaySetSpeed = "replay:set_speed"

	// Server -> Client
	TypeDisplaySnapshot = "display:snapshot"
	TypeSlotUpdate      = "slot:update"
	TypeNotify          = "notify"
	TypeChartData       = "chart:data"
	TypeDetailsData     = "details:data"
	TypeTHDAnalysis     = "thd:analysis"
	TypePeakConfirm     = "peak:confirm"
	TypePeakDone        = "peak:done"
	TypeReplayState     = "replay:state"
	TypeError           = "error"
)

// Client -> Server messages

type ChartRequestPayload struct {
	Family  string `json:"family"`
	Samples int    `json:"samples"`
}

type DetailsRequestPayload struct {
	Group string `json:"group"`
}

type PeakResetPayload struct {
	Confirmed bool `json:"confirmed"`
}

type SetSpeedPayload struct {
	Speed float64 `json:"speed"`
}

// Server -> Client messages

type SnapshotPayload struct {
	Slots  []model.SlotValue `json:"slots"`
	Status dashboard.Status  `json:"status"`
}

type DetailsPayload struct {
	Group string                 `json:"group"`
	Items []dashboard.DetailItem `json:"items"`
}

type PeakConfirmPayload struct {
	Prompt string `json:"prompt"`
}

type PeakDonePayload struct {
	Reset bool `json:"reset"`
}

type ReplayStatePayload struct {
	Time     string  `json:"time"`
	Speed    float64 `json:"speed"`
	Running  bool    `json:"running"`
	Loop     bool    `json:"loop"`
	Position int     `json:"position"`
	Total    int     `json:"total"`
}

// ErrorPayload reports a failed client request. Kind is the action error
// kind when there is one.
type ErrorPayload struct {
	Request string `json:"request"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

func NewEnvelope(msgType string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}

func ReplayStateFromEngine(s replay.State) ReplayStatePayload {
	return ReplayStatePayload{
		Time:     s.Time.UTC().Format(time.RFC3339),
		Speed:    s.Speed,
		Running:  s.Running,
		Loop:     s.Loop,
		Position: s.Position,
		Total:    s.Total,
	}
}
