// Package source produces PDUs and turns them into a tagged byte stream.
package source

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"firestige.xyz/pktxmt/internal/core"
)

// PDUSource emits PDUs on out until it is exhausted (returns nil), fails, or
// ctx is done. It must not close out.
type PDUSource interface {
	Name() string
	Run(ctx context.Context, out chan<- core.PDU) error
}

// Factory builds a PDUSource from its option map.
type Factory func(options map[string]interface{}) (PDUSource, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a source type available to New. Registering a name twice
// replaces the earlier factory.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

// New builds a registered source type.
func New(name string, options map[string]interface{}) (PDUSource, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrSourceNotFound, name)
	}
	src, err := f(options)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", name, err)
	}
	return src, nil
}

// Types lists the registered source types.
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

// emit sends pdu unless ctx is done first.
func emit(ctx context.Context, out chan<- core.PDU, pdu core.PDU) error {
	select {
	case out <- pdu:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
