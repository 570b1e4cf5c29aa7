package registry

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
)

const referenceTypesKey = "\x00reference-types"

// Memo is a run-scoped caching wrapper around a Catalog. Results are cached
// per key and concurrent misses for the same key share one in-flight call,
// so two references to the same component type never fetch twice.
//
// Create one Memo per validation run; nothing is shared between runs.
type Memo struct {
	catalog Catalog
	logger  *slog.Logger
	group   singleflight.Group

	mu       sync.Mutex
	runtime  map[string][]PropertyDef
	refTypes []string
}

// NewMemo wraps c.
func NewMemo(c Catalog, logger *slog.Logger) *Memo {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Memo{
		catalog: c,
		logger:  logger,
		runtime: map[string][]PropertyDef{},
	}
}

// ReferenceTypes implements Catalog.
func (m *Memo) ReferenceTypes(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	cached := m.refTypes
	m.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	v, err, _ := m.group.Do(referenceTypesKey, func() (any, error) {
		m.mu.Lock()
		if m.refTypes != nil {
			defer m.mu.Unlock()
			return m.refTypes, nil
		}
		m.mu.Unlock()

		types, err := m.catalog.ReferenceTypes(ctx)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.refTypes = types
		m.mu.Unlock()
		return types, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// RuntimeProperties implements Catalog.
func (m *Memo) RuntimeProperties(ctx context.Context, componentType string) ([]PropertyDef, error) {
	m.mu.Lock()
	cached, ok := m.runtime[componentType]
	m.mu.Unlock()
	if ok {
		m.logger.Debug("runtime properties", "type", componentType, "cache", "hit")
		return cached, nil
	}

	v, err, shared := m.group.Do(componentType, func() (any, error) {
		// A call that finished between the check above and Do has
		// already stored its result.
		m.mu.Lock()
		if props, ok := m.runtime[componentType]; ok {
			m.mu.Unlock()
			return props, nil
		}
		m.mu.Unlock()

		props, err := m.catalog.RuntimeProperties(ctx, componentType)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.runtime[componentType] = props
		m.mu.Unlock()
		return props, nil
	})
	if err != nil {
		return nil, err
	}
	m.logger.Debug("runtime properties", "type", componentType, "cache", "miss", "shared", shared)
	return v.([]PropertyDef), nil
}
