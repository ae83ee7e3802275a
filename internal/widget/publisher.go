package widget

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"energy_dashboard/internal/dashboard"
	"energy_dashboard/internal/model"
)

// ActionCommand is the control message sent to the platform.
type ActionCommand struct {
	ActionID model.ID `json:"action_id"`
	Value    int      `json:"value"`
}

// Publisher sends control actions on the action topic. Nothing waits for
// the device to acknowledge.
type Publisher struct {
	transport Transport
	topic     string
	log       *zap.Logger
}

var _ dashboard.ActionPublisher = (*Publisher)(nil)

func NewPublisher(t Transport, topic string, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{transport: t, topic: topic, log: log}
}

func (p *Publisher) PublishAction(ctx context.Context, id model.ID, value int) error {
	data, err := json.Marshal(ActionCommand{ActionID: id, Value: value})
	if err != nil {
		return fmt.Errorf("encode action: %w", err)
	}
	if err := p.transport.Publish(ctx, p.topic, data); err != nil {
		return fmt.Errorf("publish action: %w", err)
	}
	p.log.Info("action published", zap.String("action_id", string(id)), zap.Int("value", value), zap.String("topic", p.topic))
	return nil
}

func (p *Publisher) IsConnected() bool {
	return p.transport.IsConnected()
}
