package replay

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"energy_dashboard/internal/dashboard"
	"energy_dashboard/internal/model"
)

// Action is a control action captured during replay.
type Action struct {
	ID    model.ID `json:"action_id"`
	Value int      `json:"value"`
}

// Publisher stands in for the platform link in replay mode. It is always
// connected and only logs the actions it receives.
type Publisher struct {
	mu      sync.Mutex
	log     *zap.Logger
	actions []Action
}

var _ dashboard.ActionPublisher = (*Publisher)(nil)

func NewPublisher(log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{log: log}
}

func (p *Publisher) PublishAction(_ context.Context, id model.ID, value int) error {
	p.mu.Lock()
	p.actions = append(p.actions, Action{ID: id, Value: value})
	p.mu.Unlock()
	p.log.Info("replay action", zap.String("action_id", string(id)), zap.Int("value", value))
	return nil
}

func (p *Publisher) IsConnected() bool { return true }

// Actions returns the actions received so far.
func (p *Publisher) Actions() []Action {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Action, len(p.actions))
	copy(out, p.actions)
	return out
}
