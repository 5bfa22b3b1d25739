package log

// LoggerConfig configures the process logger.
type LoggerConfig struct {
	Level     string           `mapstructure:"level" yaml:"level"`
	Pattern   string           `mapstructure:"pattern" yaml:"pattern"`
	Time      string           `mapstructure:"time" yaml:"time"`
	Appenders []AppenderConfig `mapstructure:"appenders" yaml:"appenders"`
}

// AppenderConfig selects an output. Type is "console" or "file"; Options is
// decoded per type (see FileAppenderOpt).
type AppenderConfig struct {
	Type    string                 `mapstructure:"type" yaml:"type"`
	Options map[string]interface{} `mapstructure:"options" yaml:"options,omitempty"`
}

// DefaultConfig logs at info level to the console.
func DefaultConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:   "info",
		Pattern: "%time [%level] %caller: %msg %field\n",
		Time:    "2006-01-02 15:04:05.000",
		Appenders: []AppenderConfig{
			{Type: "console"},
		},
	}
}
