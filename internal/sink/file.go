package sink

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"firestige.xyz/pktxmt/internal/core"
)

const FileName = "file"

// FileCfg configures a File sink. MaxSize > 0 switches to a rotating file.
type FileCfg struct {
	Path       string `mapstructure:"path"`
	Append     bool   `mapstructure:"append"`
	MaxSize    int    `mapstructure:"max_size"`    // megabytes
	MaxBackups int    `mapstructure:"max_backups"` // number of backups
	MaxAge     int    `mapstructure:"max_age"`     // days
	Compress   bool   `mapstructure:"compress"`
}

// File writes the raw stream to disk.
type File struct {
	w io.WriteCloser
}

func init() {
	Register(FileName, func(options map[string]interface{}) (Sink, error) {
		var cfg FileCfg
		if err := decode(options, &cfg); err != nil {
			return nil, err
		}
		return NewFile(cfg)
	})
}

func NewFile(cfg FileCfg) (*File, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("%w: path is required", core.ErrConfigInvalid)
	}
	if cfg.MaxSize > 0 {
		return &File{w: &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}}, nil
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if cfg.Append {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(cfg.Path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Path, err)
	}
	return &File{w: f}, nil
}

func (f *File) Name() string { return FileName }

func (f *File) Write(p []byte) (int, error) { return f.w.Write(p) }

func (f *File) Close() error { return f.w.Close() }
