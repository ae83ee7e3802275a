package widget

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"energy_dashboard/internal/config"
	"energy_dashboard/internal/dashboard"
)

// Dashboard is the part of the dashboard a link drives.
type Dashboard interface {
	Target
	SetPublisher(p dashboard.ActionPublisher)
	SetConnected(ok bool, cause error)
}

// Link wires a client to a dashboard.
type Link struct {
	Client     *Client
	Subscriber *Subscriber
	Publisher  *Publisher
}

// StateRecorder observes link state, typically for metrics.
type StateRecorder interface {
	MessageRecorder
	SetConnected(ok bool)
}

// Start connects the client, subscribes the dashboard and installs the
// action publisher. A failed connect marks the dashboard disconnected and
// is returned; the dashboard keeps serving either way.
func Start(ctx context.Context, cfg config.WidgetConfig, d Dashboard, rec StateRecorder, log *zap.Logger) (*Link, error) {
	if log == nil {
		log = zap.NewNop()
	}
	client := NewClient(cfg, log)
	l := &Link{
		Client:    client,
		Publisher: NewPublisher(client, cfg.ActionTopic, log),
	}
	var mr MessageRecorder
	if rec != nil {
		mr = rec
	}
	l.Subscriber = NewSubscriber(client, Topics{
		Config: cfg.ConfigTopic,
		Values: cfg.ValuesTopic,
	}, d, mr, log)
	d.SetPublisher(l.Publisher)

	client.OnStateChange(func(ok bool, err error) {
		d.SetConnected(ok, err)
		if rec != nil {
			rec.SetConnected(ok)
		}
	})

	fail := func(err error) (*Link, error) {
		d.SetConnected(false, err)
		if rec != nil {
			rec.SetConnected(false)
		}
		return l, err
	}
	if err := client.Connect(ctx); err != nil {
		return fail(err)
	}
	if err := l.Subscriber.Start(); err != nil {
		return fail(fmt.Errorf("widget subscribe: %w", err))
	}
	if cfg.Backend == config.BackendKafka {
		// MQTT reports through its connect handler.
		d.SetConnected(true, nil)
		if rec != nil {
			rec.SetConnected(true)
		}
	}
	return l, nil
}

// Close shuts the link down.
func (l *Link) Close() {
	if l != nil && l.Client != nil {
		l.Client.Close()
	}
}
