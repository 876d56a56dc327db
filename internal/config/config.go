package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Lamps           LampsConfig       `yaml:"lamps"`
	Ambient         AmbientConfig     `yaml:"ambient"`
	Log             LogConfig         `yaml:"log"`
	Healthcheck     HealthcheckConfig `yaml:"healthcheck"`
	EventBus        EventBusConfig    `yaml:"eventbus"`
	ShutdownTimeout Duration          `yaml:"shutdown_timeout"` // General shutdown timeout for graceful stops
}

// LampsConfig holds the lamps and the shared connection policy. Right
// is optional; leaving it out runs the single-lamp full-frame setup.
type LampsConfig struct {
	Left  LampConfig `yaml:"left"`
	Right LampConfig `yaml:"right"`

	ConnectTimeout Duration `yaml:"connect_timeout"` // Per connect attempt (default: 10s)
	RetryAttempts  int      `yaml:"retry_attempts"`  // Reconnect budget (default: 5)
	RetryDelay     Duration `yaml:"retry_delay"`     // Fixed delay between reconnect attempts (default: 1s)
}

// LampConfig identifies a single lamp
type LampConfig struct {
	Address string `yaml:"address"` // BLE MAC, AA:BB:CC:DD:EE:FF
	Name    string `yaml:"name"`
}

// AmbientConfig contains screen sampling and color settings
type AmbientConfig struct {
	Display         int     `yaml:"display"`          // Display index to sample (default: 0)
	FPS             int     `yaml:"fps"`              // Target frame rate (default: 30)
	Unlimited       bool    `yaml:"unlimited"`        // Run unpaced, single lamp only
	Saturation      float64 `yaml:"saturation"`       // Saturation factor (default: 2.2)
	BrightnessBoost int     `yaml:"brightness_boost"` // Additive per-channel boost (default: 0)
	Smoothing       float64 `yaml:"smoothing"`        // Smoothing factor in [0,1) (default: 0)
	EdgeOnly        bool    `yaml:"edge_only"`        // Sample only zone borders
	EdgeWidth       int     `yaml:"edge_width"`       // Border band width in px (default: 80)
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`
	JSON   bool   `yaml:"json"`
	Colors bool   `yaml:"colors"`
}

// HealthcheckConfig contains health check server settings
type HealthcheckConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// EventBusConfig contains event bus settings
type EventBusConfig struct {
	Workers   int `yaml:"workers"`    // Number of worker goroutines (default: 4)
	QueueSize int `yaml:"queue_size"` // Event queue size (default: 100)
}

// GetWorkers returns worker count with default
func (c *EventBusConfig) GetWorkers() int {
	if c.Workers <= 0 {
		return 4
	}
	return c.Workers
}

// GetQueueSize returns queue size with default
func (c *EventBusConfig) GetQueueSize() int {
	if c.QueueSize <= 0 {
		return 100
	}
	return c.QueueSize
}

// Duration is a wrapper around time.Duration for YAML unmarshalling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	// A .env next to the binary feeds ${VAR} expansion below.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	// Lamp connection defaults
	if cfg.Lamps.ConnectTimeout == 0 {
		cfg.Lamps.ConnectTimeout = Duration(10 * time.Second)
	}
	if cfg.Lamps.RetryAttempts == 0 {
		cfg.Lamps.RetryAttempts = 5
	}
	if cfg.Lamps.RetryDelay == 0 {
		cfg.Lamps.RetryDelay = Duration(1 * time.Second)
	}
	if cfg.Lamps.Left.Name == "" {
		cfg.Lamps.Left.Name = "left"
	}
	if cfg.Lamps.Right.Address != "" && cfg.Lamps.Right.Name == "" {
		cfg.Lamps.Right.Name = "right"
	}

	// Ambient defaults
	if cfg.Ambient.FPS == 0 {
		cfg.Ambient.FPS = 30
	}
	if cfg.Ambient.Saturation == 0 {
		cfg.Ambient.Saturation = 2.2
	}
	if cfg.Ambient.EdgeWidth == 0 {
		cfg.Ambient.EdgeWidth = 80
	}

	// Healthcheck defaults
	if cfg.Healthcheck.Port == 0 {
		cfg.Healthcheck.Port = 9090
	}
	if cfg.Healthcheck.Host == "" {
		cfg.Healthcheck.Host = "0.0.0.0"
	}

	// General shutdown timeout
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = Duration(5 * time.Second)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Lamps.Left.Address == "" {
		return fmt.Errorf("lamps.left.address is required")
	}
	if c.Ambient.Unlimited && c.Lamps.Right.Address != "" {
		return fmt.Errorf("ambient.unlimited requires a single lamp, two are configured")
	}
	if c.Ambient.FPS < 0 {
		return fmt.Errorf("ambient.fps must be >= 0, got %d", c.Ambient.FPS)
	}
	if c.Ambient.Saturation < 1.0 {
		return fmt.Errorf("ambient.saturation must be >= 1.0, got %.2f", c.Ambient.Saturation)
	}
	if c.Ambient.BrightnessBoost < 0 || c.Ambient.BrightnessBoost > 255 {
		return fmt.Errorf("ambient.brightness_boost must be in [0,255], got %d", c.Ambient.BrightnessBoost)
	}
	if c.Ambient.Smoothing < 0 || c.Ambient.Smoothing >= 1 {
		return fmt.Errorf("ambient.smoothing must be in [0,1), got %.2f", c.Ambient.Smoothing)
	}
	if c.Ambient.Display < 0 {
		return fmt.Errorf("ambient.display must be >= 0, got %d", c.Ambient.Display)
	}
	return nil
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}
func expandEnvVars(input string) string {
	// Match ${VAR} or ${VAR:default}
	re := regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

	return re.ReplaceAllStringFunc(input, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultVal := ""
		if len(parts) >= 3 {
			defaultVal = parts[2]
		}

		if val := os.Getenv(varName); val != "" {
			return val
		}
		return defaultVal
	})
}
