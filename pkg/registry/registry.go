// Package registry maps module ids to their metadata, option schema and factory.
package registry

import (
	"errors"
	"fmt"
	"iter"
	"sync"

	"go.uber.org/zap"

	"github.com/Veraticus/past-midnight/pkg/logging"
	"github.com/Veraticus/past-midnight/pkg/module"
)

// ErrDuplicateModule is returned when a module id is registered twice.
var ErrDuplicateModule = errors.New("module already registered")

// Registration pairs a module's metadata with the means to build it.
type Registration struct {
	Metadata module.Metadata
	Options  module.Schema
	Factory  module.Factory
}

// Configurable reports whether the module declares any options.
func (r Registration) Configurable() bool {
	return len(r.Options) > 0
}

// Registry holds registrations in registration order.
type Registry struct {
	mu      sync.RWMutex
	byID    map[string]int
	entries []Registration
	onFirst []func(id string)
	logger  *zap.Logger
}

// New creates an empty registry.
func New(logger *zap.Logger) *Registry {
	return &Registry{
		byID:   make(map[string]int),
		logger: logging.OrNop(logger).Named("registry"),
	}
}

// OnFirstRegistration registers fn to run after the first successful registration.
func (r *Registry) OnFirstRegistration(fn func(id string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onFirst = append(r.onFirst, fn)
}

// Register adds a module. It fails with module.ErrMissingMetadata when the metadata, schema or
// factory is unusable and with ErrDuplicateModule when the id is taken. A failed registration
// leaves the registry unchanged.
func (r *Registry) Register(md module.Metadata, options module.Schema, factory module.Factory) error {
	if err := r.register(md, options, factory); err != nil {
		r.logger.Error("module registration rejected", zap.String("id", md.ID), zap.Error(err))
		return err
	}
	r.logger.Debug("registered module", zap.String("id", md.ID), zap.String("name", md.Name))
	return nil
}

func (r *Registry) register(md module.Metadata, options module.Schema, factory module.Factory) error {
	if err := md.Validate(); err != nil {
		return err
	}
	if factory == nil {
		return fmt.Errorf("%w: module %q has no factory", module.ErrMissingMetadata, md.ID)
	}
	if err := options.Validate(); err != nil {
		return fmt.Errorf("%w: module %q: %v", module.ErrMissingMetadata, md.ID, err)
	}

	r.mu.Lock()
	if _, exists := r.byID[md.ID]; exists {
		r.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrDuplicateModule, md.ID)
	}
	r.byID[md.ID] = len(r.entries)
	r.entries = append(r.entries, Registration{Metadata: md, Options: options, Factory: factory})
	first := len(r.entries) == 1
	hooks := append([]func(string){}, r.onFirst...)
	r.mu.Unlock()

	if first {
		for _, fn := range hooks {
			fn(md.ID)
		}
	}
	return nil
}

// Get returns the registration for id.
func (r *Registry) Get(id string) (Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.byID[id]
	if !ok {
		return Registration{}, false
	}
	return r.entries[i], true
}

// List returns a sequence over all registrations in registration order.
// Each iteration sees the registrations present when it starts.
func (r *Registry) List() iter.Seq[Registration] {
	return func(yield func(Registration) bool) {
		r.mu.RLock()
		snapshot := r.entries[:len(r.entries):len(r.entries)]
		r.mu.RUnlock()

		for _, reg := range snapshot {
			if !yield(reg) {
				return
			}
		}
	}
}

// IDs returns the registered ids in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, len(r.entries))
	for i, reg := range r.entries {
		ids[i] = reg.Metadata.ID
	}
	return ids
}

// Len returns the number of registrations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
