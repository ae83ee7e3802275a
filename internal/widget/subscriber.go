package widget

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"energy_dashboard/internal/dashboard"
	"energy_dashboard/internal/model"
)

// Target receives decoded widget pushes.
type Target interface {
	ApplyConfiguration(cfg model.Configuration) dashboard.ConfigSet
	ApplyValues(r dashboard.Resolver) dashboard.Aggregates
}

// MessageRecorder counts received messages.
type MessageRecorder interface {
	MessageReceived(kind string, ok bool)
}

// Topics names the widget topics.
type Topics struct {
	Config string
	Values string
}

// Subscriber routes configuration and value pushes into the dashboard.
type Subscriber struct {
	transport Transport
	topics    Topics
	target    Target
	recorder  MessageRecorder
	log       *zap.Logger
}

// NewSubscriber creates a subscriber. recorder may be nil.
func NewSubscriber(t Transport, topics Topics, target Target, recorder MessageRecorder, log *zap.Logger) *Subscriber {
	if log == nil {
		log = zap.NewNop()
	}
	return &Subscriber{
		transport: t,
		topics:    topics,
		target:    target,
		recorder:  recorder,
		log:       log,
	}
}

// Start subscribes to the configuration and values topics.
func (s *Subscriber) Start() error {
	if err := s.transport.Subscribe(s.topics.Config, s.HandleConfiguration); err != nil {
		return fmt.Errorf("subscribe configuration: %w", err)
	}
	if err := s.transport.Subscribe(s.topics.Values, s.HandleValues); err != nil {
		return fmt.Errorf("subscribe values: %w", err)
	}
	return nil
}

// HandleConfiguration decodes and applies one configuration push. Malformed
// payloads are logged and dropped.
func (s *Subscriber) HandleConfiguration(payload []byte) {
	var cfg model.Configuration
	if err := json.Unmarshal(payload, &cfg); err != nil {
		s.log.Warn("malformed configuration dropped", zap.Error(err), zap.Int("bytes", len(payload)))
		s.record(string(model.PushConfiguration), false)
		return
	}
	s.record(string(model.PushConfiguration), true)
	s.target.ApplyConfiguration(cfg)
}

// HandleValues decodes and applies one values push. Malformed payloads are
// logged and dropped.
func (s *Subscriber) HandleValues(payload []byte) {
	var snap model.ValueSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil || snap == nil {
		s.log.Warn("malformed values dropped", zap.Error(err), zap.Int("bytes", len(payload)))
		s.record(string(model.PushValues), false)
		return
	}
	s.record(string(model.PushValues), true)
	s.target.ApplyValues(snap)
}

func (s *Subscriber) record(kind string, ok bool) {
	if s.recorder != nil {
		s.recorder.MessageReceived(kind, ok)
	}
}
