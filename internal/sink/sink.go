// Package sink holds the outputs that receive the framed byte stream.
package sink

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/mitchellh/mapstructure"

	"firestige.xyz/pktxmt/internal/core"
)

// Sink receives the bytes leaving the last block of a graph.
type Sink interface {
	Name() string
	io.WriteCloser
}

// Factory builds a Sink from its option map.
type Factory func(options map[string]interface{}) (Sink, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a sink type available to New.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

// New builds a registered sink type.
func New(name string, options map[string]interface{}) (Sink, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrSinkNotFound, name)
	}
	s, err := f(options)
	if err != nil {
		return nil, fmt.Errorf("sink %s: %w", name, err)
	}
	return s, nil
}

// Types lists the registered sink types.
func Types() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func decode(options map[string]interface{}, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(options); err != nil {
		return fmt.Errorf("%w: %v", core.ErrConfigInvalid, err)
	}
	return nil
}
