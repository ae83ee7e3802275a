package widget

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"energy_dashboard/internal/config"
)

var ErrNotConnected = errors.New("widget link not connected")

// Transport is what the subscriber and publisher need from a link.
type Transport interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Subscribe(topic string, handler func(payload []byte)) error
	IsConnected() bool
}

// StateFunc is told about connection changes after the initial connect.
type StateFunc func(connected bool, err error)

// Client is the unified IoT platform link (MQTT or Kafka).
type Client struct {
	mu       sync.RWMutex
	cfg      config.WidgetConfig
	backend  string
	clientID string
	log      *zap.Logger
	onState  StateFunc

	mqttConn mqtt.Client
	subs     map[string]func([]byte)

	kafkaW  *kafkago.Writer
	kafkaR  []*kafkago.Reader
	readCtx context.Context
	stop    context.CancelFunc
}

// NewClient creates a link client based on config. An empty MQTT client id
// gets a random one.
func NewClient(cfg config.WidgetConfig, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	id := cfg.MQTT.ClientID
	if id == "" {
		id = "energy-dashboard-" + uuid.NewString()
	}
	return &Client{
		cfg:      cfg,
		backend:  cfg.Backend,
		clientID: id,
		log:      log.With(zap.String("backend", cfg.Backend)),
		subs:     make(map[string]func([]byte)),
	}
}

// ClientID returns the MQTT client id in use.
func (c *Client) ClientID() string { return c.clientID }

// OnStateChange registers fn for connection losses and reconnects.
func (c *Client) OnStateChange(fn StateFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onState = fn
}

// Connect establishes the link.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.backend {
	case config.BackendMQTT:
		return c.connectMQTT(ctx)
	case config.BackendKafka:
		return c.connectKafka(ctx)
	default:
		return fmt.Errorf("unknown widget backend: %s", c.backend)
	}
}

func (c *Client) connectMQTT(ctx context.Context) error {
	broker := fmt.Sprintf("tcp://%s:%d", c.cfg.MQTT.Broker, c.cfg.MQTT.Port)
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(c.clientID).
		SetUsername(c.cfg.MQTT.Username).
		SetPassword(c.cfg.MQTT.Password).
		SetAutoReconnect(true).
		SetConnectRetry(c.cfg.ConnectRetry).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(c.resubscribe).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			c.log.Warn("mqtt connection lost", zap.Error(err))
			c.state(false, err)
		})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	select {
	case <-token.Done():
	case <-ctx.Done():
		client.Disconnect(0)
		return fmt.Errorf("mqtt connect: %w", ctx.Err())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	c.mqttConn = client
	c.log.Info("mqtt connected", zap.String("broker", broker), zap.String("client_id", c.clientID))
	return nil
}

// resubscribe restores subscriptions after a reconnect.
func (c *Client) resubscribe(client mqtt.Client) {
	c.mu.RLock()
	subs := make(map[string]func([]byte), len(c.subs))
	for topic, h := range c.subs {
		subs[topic] = h
	}
	c.mu.RUnlock()

	for topic, h := range subs {
		token := client.Subscribe(topic, 1, mqttHandler(h))
		token.Wait()
		if err := token.Error(); err != nil {
			c.log.Error("mqtt resubscribe failed", zap.String("topic", topic), zap.Error(err))
		}
	}
	c.state(true, nil)
}

func (c *Client) state(ok bool, err error) {
	c.mu.RLock()
	fn := c.onState
	c.mu.RUnlock()
	if fn != nil {
		fn(ok, err)
	}
}

func mqttHandler(h func([]byte)) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		h(msg.Payload())
	}
}

func (c *Client) connectKafka(ctx context.Context) error {
	if len(c.cfg.Kafka.Brokers) == 0 {
		return errors.New("kafka connect: no brokers configured")
	}
	conn, err := kafkago.DialContext(ctx, "tcp", c.cfg.Kafka.Brokers[0])
	if err != nil {
		return fmt.Errorf("kafka connect: %w", err)
	}
	conn.Close()

	c.kafkaW = &kafkago.Writer{
		Addr:         kafkago.TCP(c.cfg.Kafka.Brokers...),
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireOne,
	}
	c.readCtx, c.stop = context.WithCancel(context.Background())
	c.log.Info("kafka connected", zap.Strings("brokers", c.cfg.Kafka.Brokers))
	return nil
}

// Publish sends one message to topic.
func (c *Client) Publish(ctx context.Context, topic string, payload []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch c.backend {
	case config.BackendMQTT:
		if c.mqttConn == nil || !c.mqttConn.IsConnected() {
			return ErrNotConnected
		}
		token := c.mqttConn.Publish(topic, 1, false, payload)
		select {
		case <-token.Done():
			return token.Error()
		case <-ctx.Done():
			return ctx.Err()
		}
	case config.BackendKafka:
		if c.kafkaW == nil {
			return ErrNotConnected
		}
		return c.kafkaW.WriteMessages(ctx, kafkago.Message{
			Topic: topic,
			Value: payload,
		})
	default:
		return fmt.Errorf("unknown widget backend: %s", c.backend)
	}
}

// Subscribe registers a handler for messages on topic.
func (c *Client) Subscribe(topic string, handler func(payload []byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.backend {
	case config.BackendMQTT:
		if c.mqttConn == nil {
			return ErrNotConnected
		}
		token := c.mqttConn.Subscribe(topic, 1, mqttHandler(handler))
		token.Wait()
		if err := token.Error(); err != nil {
			return fmt.Errorf("mqtt subscribe %s: %w", topic, err)
		}
		c.subs[topic] = handler
		return nil
	case config.BackendKafka:
		if c.kafkaW == nil {
			return ErrNotConnected
		}
		r := kafkago.NewReader(kafkago.ReaderConfig{
			Brokers: c.cfg.Kafka.Brokers,
			Topic:   topic,
			GroupID: c.cfg.Kafka.GroupID,
		})
		c.kafkaR = append(c.kafkaR, r)
		go c.readKafka(c.readCtx, r, topic, handler)
		return nil
	default:
		return fmt.Errorf("unknown widget backend: %s", c.backend)
	}
}

func (c *Client) readKafka(ctx context.Context, r *kafkago.Reader, topic string, handler func([]byte)) {
	for {
		msg, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() == nil {
				c.log.Error("kafka read failed", zap.String("topic", topic), zap.Error(err))
				c.state(false, err)
			}
			return
		}
		handler(msg.Value)
	}
}

// IsConnected reports whether the link is usable.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	switch c.backend {
	case config.BackendMQTT:
		return c.mqttConn != nil && c.mqttConn.IsConnected()
	case config.BackendKafka:
		return c.kafkaW != nil
	default:
		return false
	}
}

// Close shuts down the link.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mqttConn != nil {
		c.mqttConn.Disconnect(1000)
		c.mqttConn = nil
	}
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
	for _, r := range c.kafkaR {
		r.Close()
	}
	c.kafkaR = nil
	if c.kafkaW != nil {
		c.kafkaW.Close()
		c.kafkaW = nil
	}
}
