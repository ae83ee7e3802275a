package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Widget backends.
const (
	BackendMQTT   = "mqtt"
	BackendKafka  = "kafka"
	BackendReplay = "replay"
)

// Config is the top-level application configuration.
type Config struct {
	mu sync.Mutex `yaml:"-"`

	Web       WebConfig       `yaml:"web"`
	Widget    WidgetConfig    `yaml:"widget"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Log       LogConfig       `yaml:"log"`
	Notify    NotifyConfig    `yaml:"notify"`
}

// WebConfig defines the web server settings.
type WebConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	FrontendDir string `yaml:"frontend_dir"`
}

// WidgetConfig defines the IoT platform link.
type WidgetConfig struct {
	Backend      string       `yaml:"backend"` // "mqtt", "kafka" or "replay"
	ConfigTopic  string       `yaml:"config_topic"`
	ValuesTopic  string       `yaml:"values_topic"`
	ActionTopic  string       `yaml:"action_topic"`
	MQTT         MQTTConfig   `yaml:"mqtt"`
	Kafka        KafkaConfig  `yaml:"kafka"`
	Replay       ReplayConfig `yaml:"replay"`
	ConnectRetry bool         `yaml:"connect_retry"`
}

// MQTTConfig defines MQTT broker settings.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Port     int    `yaml:"port"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// KafkaConfig defines Kafka broker settings.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers,omitempty"`
	GroupID string   `yaml:"group_id"`
}

// ReplayConfig defines the capture played by the replay backend.
type ReplayConfig struct {
	File  string  `yaml:"file"`
	Speed float64 `yaml:"speed"`
	Loop  bool    `yaml:"loop"`
}

// DashboardConfig tunes the display pipeline.
type DashboardConfig struct {
	DeviceTotal      int           `yaml:"device_total"`
	WarningThreshold float64       `yaml:"warning_threshold"`
	StatusInterval   time.Duration `yaml:"status_interval"`
	StaleAfter       time.Duration `yaml:"stale_after"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
	Output string `yaml:"output"` // "stdout", "stderr" or a file path
}

// NotifyConfig defines external notification channels.
type NotifyConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig defines the Telegram bot channel.
type TelegramConfig struct {
	Enabled   bool   `yaml:"enabled"`
	TokenFile string `yaml:"token_file"`
	ChatID    int64  `yaml:"chat_id"`
}

// Defaults returns a Config with sane defaults.
func Defaults() *Config {
	return &Config{
		Web: WebConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Widget: WidgetConfig{
			Backend:     BackendMQTT,
			ConfigTopic: "energy/widget/config",
			ValuesTopic: "energy/widget/values",
			ActionTopic: "energy/widget/action",
			MQTT: MQTTConfig{
				Broker: "localhost",
				Port:   1883,
			},
			Kafka: KafkaConfig{
				GroupID: "energy-dashboard",
			},
			Replay: ReplayConfig{
				Speed: 1,
			},
			ConnectRetry: true,
		},
		Dashboard: DashboardConfig{
			DeviceTotal:      5,
			WarningThreshold: 5.0,
			StatusInterval:   30 * time.Second,
			StaleAfter:       2 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// Load reads a YAML config file. If the file doesn't exist, defaults are used.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail later at startup.
func (c *Config) Validate() error {
	switch c.Widget.Backend {
	case BackendMQTT, BackendKafka:
	case BackendReplay:
		if c.Widget.Replay.File == "" {
			return fmt.Errorf("widget.replay.file is required for the replay backend")
		}
	default:
		return fmt.Errorf("unknown widget backend %q", c.Widget.Backend)
	}
	if c.Widget.Backend == BackendKafka && len(c.Widget.Kafka.Brokers) == 0 {
		return fmt.Errorf("widget.kafka.brokers is required for the kafka backend")
	}
	if c.Web.Port < 0 || c.Web.Port > 65535 {
		return fmt.Errorf("invalid web.port %d", c.Web.Port)
	}
	if c.Widget.Replay.Speed < 0 {
		return fmt.Errorf("invalid widget.replay.speed %v", c.Widget.Replay.Speed)
	}
	if c.Notify.Telegram.Enabled && c.Notify.Telegram.TokenFile == "" {
		return fmt.Errorf("notify.telegram.token_file is required when telegram is enabled")
	}
	return nil
}

// Save writes the config to a YAML file.
func (c *Config) Save(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Addr returns the web listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Web.Host, c.Web.Port)
}
