package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"firestige.xyz/pktxmt/internal/core"
)

const FileName = "file"

// FileCfg configures a File source.
type FileCfg struct {
	Path       string `mapstructure:"path"`
	PacketSize int    `mapstructure:"packet_size"`
}

// File splits a file into PDUs of PacketSize bytes; the last one may be
// shorter.
type File struct {
	path       string
	packetSize int
}

func init() {
	Register(FileName, func(options map[string]interface{}) (PDUSource, error) {
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
	if cfg.PacketSize <= 0 {
		cfg.PacketSize = 64
	}
	return &File{path: cfg.Path, packetSize: cfg.PacketSize}, nil
}

func (f *File) Name() string { return FileName }

func (f *File) Run(ctx context.Context, out chan<- core.PDU) error {
	fh, err := os.Open(f.path)
	if err != nil {
		return fmt.Errorf("open %s: %w", f.path, err)
	}
	defer fh.Close()

	for {
		buf := make([]byte, f.packetSize)
		n, err := io.ReadFull(fh, buf)
		if n > 0 {
			if err := emit(ctx, out, core.PDU{Data: buf[:n], Timestamp: time.Now()}); err != nil {
				return err
			}
		}
		switch {
		case err == io.EOF, err == io.ErrUnexpectedEOF:
			return nil
		case err != nil:
			return fmt.Errorf("read %s: %w", f.path, err)
		}
	}
}
