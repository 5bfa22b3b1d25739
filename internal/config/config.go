// Package config handles configuration loading using viper.
package config

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"firestige.xyz/pktxmt/internal/bus"
	"firestige.xyz/pktxmt/internal/core"
	"firestige.xyz/pktxmt/internal/frame"
	"firestige.xyz/pktxmt/internal/log"
)

// Config is the top-level configuration, found under the `pktxmt:` root key.
type Config struct {
	Log       log.LoggerConfig `mapstructure:"log" yaml:"log"`
	Metrics   MetricsConfig    `mapstructure:"metrics" yaml:"metrics"`
	Framing   FramingConfig    `mapstructure:"framing" yaml:"framing"`
	Scheduler SchedulerConfig  `mapstructure:"scheduler" yaml:"scheduler"`
	Source    ComponentConfig  `mapstructure:"source" yaml:"source"`
	Sink      ComponentConfig  `mapstructure:"sink" yaml:"sink"`
	Sensor    SensorConfig     `mapstructure:"sensor" yaml:"sensor"`
}

// ─── Metrics ───

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Listen  string `mapstructure:"listen" yaml:"listen"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// ─── Framing ───

// FramingConfig configures the PDU processors and the framing blocks.
type FramingConfig struct {
	Preamble     string `mapstructure:"preamble" yaml:"preamble"` // hex, spaces allowed
	LengthKey    string `mapstructure:"length_key" yaml:"length_key"`
	AlignWindows bool   `mapstructure:"align_windows" yaml:"align_windows"`
	CRC          bool   `mapstructure:"crc" yaml:"crc"`
	Header       bool   `mapstructure:"header" yaml:"header"`
	AccessCode   string `mapstructure:"access_code" yaml:"access_code,omitempty"` // bit string; empty = default
	Queue        int    `mapstructure:"queue" yaml:"queue"`                       // PDUs buffered ahead of the stream
}

// PreambleBytes decodes the preamble.
func (f FramingConfig) PreambleBytes() ([]byte, error) {
	b, err := hex.DecodeString(strings.ReplaceAll(f.Preamble, " ", ""))
	if err != nil {
		return nil, fmt.Errorf("preamble: %w", err)
	}
	return b, nil
}

// ─── Scheduler ───

// SchedulerConfig tunes the flowgraph driver.
type SchedulerConfig struct {
	BufferSize     int           `mapstructure:"buffer_size" yaml:"buffer_size"`
	MaxInputChunk  int           `mapstructure:"max_input_chunk" yaml:"max_input_chunk"`
	MaxOutputChunk int           `mapstructure:"max_output_chunk" yaml:"max_output_chunk"`
	IdleWait       time.Duration `mapstructure:"idle_wait" yaml:"idle_wait"`
}

// ─── Source / Sink ───

// ComponentConfig selects a registered source or sink type. Options are
// decoded by the component itself.
type ComponentConfig struct {
	Type    string                 `mapstructure:"type" yaml:"type"`
	Options map[string]interface{} `mapstructure:"options" yaml:"options,omitempty"`
}

// ─── Sensor ───

// SensorConfig configures the sensor bridge commands.
type SensorConfig struct {
	Device   string          `mapstructure:"device" yaml:"device"`
	Interval time.Duration   `mapstructure:"interval" yaml:"interval"`
	Bus      bus.KafkaConfig `mapstructure:"bus" yaml:"bus"`
}

// ─── Loading ───

// configRoot is the top-level wrapper matching the YAML structure `pktxmt: ...`.
type configRoot struct {
	Pktxmt Config `mapstructure:"pktxmt" yaml:"pktxmt"`
}

// Load loads configuration from file. An empty path yields the defaults.
// Env vars override file values with the PKTXMT_ prefix (e.g. PKTXMT_LOG_LEVEL).
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// No explicit env prefix: the `pktxmt.` key prefix maps to `PKTXMT_` via
	// the key replacer.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg := root.Pktxmt

	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default values. All keys use the "pktxmt." prefix to
// match the YAML root wrapper.
func setDefaults(v *viper.Viper) {
	def := log.DefaultConfig()
	v.SetDefault("pktxmt.log.level", def.Level)
	v.SetDefault("pktxmt.log.pattern", def.Pattern)
	v.SetDefault("pktxmt.log.time", def.Time)

	v.SetDefault("pktxmt.metrics.enabled", false)
	v.SetDefault("pktxmt.metrics.listen", ":9091")
	v.SetDefault("pktxmt.metrics.path", "/metrics")

	v.SetDefault("pktxmt.framing.preamble", "AA55AA55")
	v.SetDefault("pktxmt.framing.length_key", core.TagPacketLen)
	v.SetDefault("pktxmt.framing.align_windows", true)
	v.SetDefault("pktxmt.framing.crc", false)
	v.SetDefault("pktxmt.framing.header", false)
	v.SetDefault("pktxmt.framing.queue", 16)

	v.SetDefault("pktxmt.scheduler.buffer_size", 4096)
	v.SetDefault("pktxmt.scheduler.max_input_chunk", 0)
	v.SetDefault("pktxmt.scheduler.max_output_chunk", 0)
	v.SetDefault("pktxmt.scheduler.idle_wait", "10ms")

	v.SetDefault("pktxmt.source.type", "strobe")
	v.SetDefault("pktxmt.sink.type", "console")

	v.SetDefault("pktxmt.sensor.device", "/dev/ttyUSB0")
	v.SetDefault("pktxmt.sensor.interval", "1s")
	v.SetDefault("pktxmt.sensor.bus.topic", "sensor")
	v.SetDefault("pktxmt.sensor.bus.auto_offset_reset", "latest")
}

// ValidateAndApplyDefaults validates configuration and applies runtime defaults.
func (cfg *Config) ValidateAndApplyDefaults() error {
	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Log.Level] {
		return fmt.Errorf("%w: log level %q (must be trace/debug/info/warn/error)", core.ErrConfigInvalid, cfg.Log.Level)
	}
	if len(cfg.Log.Appenders) == 0 {
		cfg.Log.Appenders = log.DefaultConfig().Appenders
	}

	preamble, err := cfg.Framing.PreambleBytes()
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrConfigInvalid, err)
	}
	if len(preamble) == 0 {
		return fmt.Errorf("%w: framing.preamble must not be empty", core.ErrConfigInvalid)
	}
	if cfg.Framing.LengthKey == "" {
		cfg.Framing.LengthKey = core.TagPacketLen
	}
	if cfg.Framing.Header && cfg.Framing.AccessCode != "" {
		if _, err := frame.ParseBits(cfg.Framing.AccessCode); err != nil {
			return fmt.Errorf("%w: framing.access_code: %v", core.ErrConfigInvalid, err)
		}
	}
	if cfg.Framing.Queue <= 0 {
		cfg.Framing.Queue = 16
	}

	s := &cfg.Scheduler
	if s.BufferSize <= 0 {
		return fmt.Errorf("%w: scheduler.buffer_size must be positive", core.ErrConfigInvalid)
	}
	if s.BufferSize < len(preamble) {
		return fmt.Errorf("%w: scheduler.buffer_size %d smaller than preamble", core.ErrBufferTooSmall, s.BufferSize)
	}
	if s.MaxInputChunk < 0 || s.MaxOutputChunk < 0 {
		return fmt.Errorf("%w: scheduler chunk limits must not be negative", core.ErrConfigInvalid)
	}
	if s.IdleWait <= 0 {
		s.IdleWait = 10 * time.Millisecond
	}

	if cfg.Source.Type == "" {
		return fmt.Errorf("%w: source.type is required", core.ErrConfigInvalid)
	}
	if cfg.Source.Type == "strobe" && len(cfg.Source.Options) == 0 {
		cfg.Source.Options = map[string]interface{}{"data": "48656c6c6f", "period": "1s"}
	}
	if cfg.Sink.Type == "" {
		return fmt.Errorf("%w: sink.type is required", core.ErrConfigInvalid)
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Listen == "" {
		return fmt.Errorf("%w: metrics.listen is required when metrics.enabled=true", core.ErrConfigInvalid)
	}
	if cfg.Sensor.Interval < 0 {
		return fmt.Errorf("%w: sensor.interval must not be negative", core.ErrConfigInvalid)
	}
	return nil
}

// YAML renders the effective configuration under its root key.
func (cfg *Config) YAML() ([]byte, error) {
	return yaml.Marshal(configRoot{Pktxmt: *cfg})
}
