package ws

import (
	"go.uber.org/zap"

	"energy_dashboard/internal/dashboard"
	"energy_dashboard/internal/model"
	"energy_dashboard/internal/replay"
)

// Bridge implements the dashboard sink and notifier and the replay callback,
// broadcasting every event to the WebSocket hub.
type Bridge struct {
	hub *Hub
	log *zap.Logger
}

var (
	_ dashboard.Sink     = (*Bridge)(nil)
	_ dashboard.Notifier = (*Bridge)(nil)
	_ replay.Callback    = (*Bridge)(nil)
)

func NewBridge(hub *Hub, log *zap.Logger) *Bridge {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bridge{hub: hub, log: log}
}

func (b *Bridge) WriteSlot(v model.SlotValue) {
	b.broadcast(TypeSlotUpdate, v)
}

func (b *Bridge) Notify(n dashboard.Notification) {
	b.broadcast(TypeNotify, n)
}

func (b *Bridge) OnState(s replay.State) {
	b.broadcast(TypeReplayState, ReplayStateFromEngine(s))
}

func (b *Bridge) broadcast(msgType string, payload any) {
	msg, err := NewEnvelope(msgType, payload)
	if err != nil {
		b.log.Error("marshal broadcast", zap.String("type", msgType), zap.Error(err))
		return
	}
	b.hub.Broadcast(msg)
}
