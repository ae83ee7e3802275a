package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"energy_dashboard/internal/chart"
	"energy_dashboard/internal/dashboard"
	"energy_dashboard/internal/replay"
)

const actionTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ReplayControl is the part of the replay engine browsers can drive.
type ReplayControl interface {
	Start()
	Pause()
	SetSpeed(speed float64)
	State() replay.State
}

// Handler manages WebSocket connections and serves client requests against
// the dashboard.
type Handler struct {
	hub    *Hub
	dash   *dashboard.Dashboard
	charts chart.Source
	replay ReplayControl
	log    *zap.Logger
}

// NewHandler creates a handler. rc may be nil when no replay is running.
func NewHandler(hub *Hub, dash *dashboard.Dashboard, charts chart.Source, rc ReplayControl, log *zap.Logger) *Handler {
	if charts == nil {
		charts = chart.Synthetic{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{hub: hub, dash: dash, charts: charts, replay: rc, log: log}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		hub:  h.hub,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	h.hub.Register(client)
	go client.writePump()

	h.reply(client, TypeDisplaySnapshot, SnapshotPayload{
		Slots:  h.dash.Display(),
		Status: h.dash.Status(),
	})
	if h.replay != nil {
		h.reply(client, TypeReplayState, ReplayStateFromEngine(h.replay.State()))
	}

	h.readPump(client)
}

func (h *Handler) readPump(c *Client) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("websocket read failed", zap.Error(err))
			}
			return
		}

		h.handleMessage(c, msg)
	}
}

func (h *Handler) handleMessage(c *Client, msg []byte) {
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		h.log.Warn("invalid message", zap.Error(err))
		h.replyError(c, "", err)
		return
	}

	switch env.Type {
	case TypeChartRequest:
		var p ChartRequestPayload
		if err := decode(env.Payload, &p); err != nil {
			h.replyError(c, env.Type, err)
			return
		}
		data, err := h.charts.History(chart.Family(p.Family), p.Samples)
		if err != nil {
			h.replyError(c, env.Type, err)
			return
		}
		h.reply(c, TypeChartData, data)

	case TypeDetailsRequest:
		var p DetailsRequestPayload
		if err := decode(env.Payload, &p); err != nil {
			h.replyError(c, env.Type, err)
			return
		}
		items, err := h.dash.Details(dashboard.Group(p.Group))
		if err != nil {
			h.replyError(c, env.Type, err)
			return
		}
		h.reply(c, TypeDetailsData, DetailsPayload{Group: p.Group, Items: items})

	case TypeTHDAnalyze:
		h.reply(c, TypeTHDAnalysis, h.dash.AnalyzeTHD())

	case TypePeakReset:
		var p PeakResetPayload
		if err := decode(env.Payload, &p); err != nil {
			h.replyError(c, env.Type, err)
			return
		}
		h.resetPeak(c, p.Confirmed)

	case TypeReplayStart, TypeReplayPause, TypeReplaySetSpeed:
		if h.replay == nil {
			h.replyError(c, env.Type, errors.New("replay is not active"))
			return
		}
		switch env.Type {
		case TypeReplayStart:
			h.replay.Start()
		case TypeReplayPause:
			h.replay.Pause()
		default:
			var p SetSpeedPayload
			if err := decode(env.Payload, &p); err != nil {
				h.replyError(c, env.Type, err)
				return
			}
			h.replay.SetSpeed(p.Speed)
		}

	default:
		h.log.Warn("unknown message type", zap.String("type", env.Type))
		h.replyError(c, env.Type, errors.New("unknown message type"))
	}
}

// resetPeak runs the reset flow. An unconfirmed request is answered with the
// confirmation prompt; the browser repeats it with confirmed set.
func (h *Handler) resetPeak(c *Client, confirmed bool) {
	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()

	var prompt string
	ok, err := h.dash.ResetPeak(ctx, func(p string) bool {
		prompt = p
		return confirmed
	})
	switch {
	case err != nil:
		h.replyError(c, TypePeakReset, err)
	case !ok && prompt != "":
		h.reply(c, TypePeakConfirm, PeakConfirmPayload{Prompt: prompt})
	default:
		h.reply(c, TypePeakDone, PeakDonePayload{Reset: ok})
	}
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func (h *Handler) reply(c *Client, msgType string, payload any) {
	msg, err := NewEnvelope(msgType, payload)
	if err != nil {
		h.log.Error("marshal reply", zap.String("type", msgType), zap.Error(err))
		return
	}
	if !c.Send(msg) {
		h.log.Warn("client buffer full, dropping reply", zap.String("type", msgType))
	}
}

func (h *Handler) replyError(c *Client, request string, err error) {
	p := ErrorPayload{Request: request, Message: err.Error()}
	var ae *dashboard.ActionError
	if errors.As(err, &ae) {
		p.Kind = ae.Kind.String()
	}
	h.reply(c, TypeError, p)
}
