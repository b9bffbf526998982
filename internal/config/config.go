// Package config loads the stand configuration from a YAML file, backfilling
// missing fields with defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hollis/tms-stand/internal/gpio"
	"github.com/hollis/tms-stand/internal/session"
	"github.com/hollis/tms-stand/internal/trigger"
)

// Config is the daemon configuration.
type Config struct {
	DataDir     string `yaml:"data_dir"`
	MaxSessions int    `yaml:"max_sessions"`
	Broker      string `yaml:"broker"`
	HTTPAddr    string `yaml:"http_addr"`
	HistoryDB   string `yaml:"history_db"`

	// TraceSamples logs every sample value; very noisy at 320 Hz.
	TraceSamples bool `yaml:"trace_samples"`

	Pins     PinsConfig     `yaml:"pins"`
	I2C      I2CConfig      `yaml:"i2c"`
	Debounce DebounceConfig `yaml:"debounce"`
	Session  SessionConfig  `yaml:"session"`
}

// PinsConfig names the GPIO chip and the three line offsets (BCM numbering).
type PinsConfig struct {
	Chip    string `yaml:"chip"`
	Trigger int    `yaml:"trigger"`
	Confirm int    `yaml:"confirm"`
	Relay   int    `yaml:"relay"`
}

// I2CConfig locates the two converters on the shared bus.
type I2CConfig struct {
	Bus          string `yaml:"bus"`
	LoadAddr     int    `yaml:"load_addr"`
	PressureAddr int    `yaml:"pressure_addr"`
	Rate         int    `yaml:"rate"` // samples per second
	Gain         string `yaml:"gain"` // full-scale range, e.g. "4.096"
}

// DebounceConfig shapes the control-signal observation window.
type DebounceConfig struct {
	Polls     int           `yaml:"polls"`
	Threshold int           `yaml:"threshold"`
	Interval  time.Duration `yaml:"interval"`
}

// SessionConfig is the session descriptor. Ticks > 0 selects a fixed tick
// count instead of a duration; channels is "both" or "load".
type SessionConfig struct {
	TickInterval      time.Duration `yaml:"tick_interval"`
	Duration          time.Duration `yaml:"duration"`
	Ticks             int           `yaml:"ticks"`
	Channels          string        `yaml:"channels"`
	SkipFailsafeCheck bool          `yaml:"skip_failsafe_check"`
	ConfirmTimeout    time.Duration `yaml:"confirm_timeout"`
}

// Default returns the standard configuration: the 15 s dual-channel failsafe
// profile at 320 Hz.
func Default() *Config {
	return &Config{
		DataDir:     "/mnt/tms",
		MaxSessions: 9999,
		Broker:      "",
		HTTPAddr:    ":8080",
		HistoryDB:   "/var/lib/tms-stand/sessions.db",
		Pins: PinsConfig{
			Chip:    gpio.DefaultChip,
			Trigger: gpio.DefaultPinTrigger,
			Confirm: gpio.DefaultPinConfirm,
			Relay:   gpio.DefaultPinRelay,
		},
		I2C: I2CConfig{
			Bus:          "1",
			LoadAddr:     0x48,
			PressureAddr: 0x49,
			Rate:         860,
			Gain:         "4.096",
		},
		Debounce: DebounceConfig{
			Polls:     trigger.DefaultPolls,
			Threshold: trigger.DefaultThreshold,
			Interval:  trigger.DefaultInterval,
		},
		Session: SessionConfig{
			TickInterval:   session.DefaultTickInterval,
			Duration:       session.DefaultDuration,
			Channels:       "both",
			ConfirmTimeout: session.DefaultConfirmTimeout,
		},
	}
}

// Load loads configuration from a YAML file. A missing file returns the
// defaults; missing fields are backfilled.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.ensureDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Descriptor converts the session section into a session.Descriptor.
func (c *Config) Descriptor() session.Descriptor {
	return session.Descriptor{
		TickInterval:      c.Session.TickInterval,
		Duration:          c.Session.Duration,
		Ticks:             c.Session.Ticks,
		LoadOnly:          c.Session.Channels == "load",
		SkipFailsafeCheck: c.Session.SkipFailsafeCheck,
		ConfirmTimeout:    c.Session.ConfirmTimeout,
	}
}

// ensureDefaults backfills zero-valued fields.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.DataDir == "" {
		c.DataDir = def.DataDir
	}
	if c.MaxSessions == 0 {
		c.MaxSessions = def.MaxSessions
	}
	if c.HistoryDB == "" {
		c.HistoryDB = def.HistoryDB
	}

	if c.Pins.Chip == "" {
		c.Pins.Chip = def.Pins.Chip
	}
	if c.Pins.Trigger == 0 && c.Pins.Confirm == 0 && c.Pins.Relay == 0 {
		c.Pins = def.Pins
	}

	if c.I2C.Bus == "" {
		c.I2C.Bus = def.I2C.Bus
	}
	if c.I2C.LoadAddr == 0 {
		c.I2C.LoadAddr = def.I2C.LoadAddr
	}
	if c.I2C.PressureAddr == 0 {
		c.I2C.PressureAddr = def.I2C.PressureAddr
	}
	if c.I2C.Rate == 0 {
		c.I2C.Rate = def.I2C.Rate
	}
	if c.I2C.Gain == "" {
		c.I2C.Gain = def.I2C.Gain
	}

	if c.Debounce.Polls == 0 {
		c.Debounce.Polls = def.Debounce.Polls
	}
	if c.Debounce.Threshold == 0 {
		c.Debounce.Threshold = def.Debounce.Threshold
	}
	if c.Debounce.Interval == 0 {
		c.Debounce.Interval = def.Debounce.Interval
	}

	if c.Session.TickInterval == 0 {
		c.Session.TickInterval = def.Session.TickInterval
	}
	if c.Session.Duration == 0 && c.Session.Ticks == 0 {
		c.Session.Duration = def.Session.Duration
	}
	if c.Session.Channels == "" {
		c.Session.Channels = def.Session.Channels
	}
}

func (c *Config) validate() error {
	if c.Session.Channels != "both" && c.Session.Channels != "load" {
		return fmt.Errorf("config: session.channels must be \"both\" or \"load\", got %q", c.Session.Channels)
	}
	if c.Debounce.Threshold > c.Debounce.Polls {
		return fmt.Errorf("config: debounce.threshold %d exceeds polls %d", c.Debounce.Threshold, c.Debounce.Polls)
	}
	return nil
}
