package settings

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/Veraticus/past-midnight/pkg/interfaces"
	"github.com/Veraticus/past-midnight/pkg/logging"
	"github.com/Veraticus/past-midnight/pkg/module"
)

// Store reads and writes settings through a key-value store.
// Persistence failures are logged and never returned.
type Store struct {
	mu      sync.RWMutex
	kv      interfaces.Store
	current Engine
	logger  *zap.Logger
}

// NewStore creates a store holding the defaults until Load is called.
func NewStore(kv interfaces.Store, logger *zap.Logger) *Store {
	return &Store{
		kv:      kv,
		current: Defaults(),
		logger:  logging.OrNop(logger).Named("settings"),
	}
}

// Load reads the persisted engine settings and merges them over the defaults.
// Missing or unreadable data yields the defaults.
func (s *Store) Load() Engine {
	loaded := Defaults()

	raw, ok, err := s.kv.Get(EngineKey)
	switch {
	case err != nil:
		s.logger.Warn("failed to read settings, using defaults", zap.Error(err))
	case ok:
		if err := json.Unmarshal([]byte(raw), &loaded); err != nil {
			s.logger.Warn("corrupt settings, using defaults", zap.Error(err))
			loaded = Defaults()
		}
	}

	if loaded.IdleTimeoutMs <= 0 {
		s.logger.Warn("ignoring non-positive idle timeout",
			zap.Int64("idleTimeout", loaded.IdleTimeoutMs))
		loaded.IdleTimeoutMs = DefaultIdleTimeoutMs
	}

	s.mu.Lock()
	s.current = loaded
	s.mu.Unlock()

	s.logger.Debug("settings loaded",
		zap.Bool("enabled", loaded.Enabled),
		zap.Int64("idleTimeout", loaded.IdleTimeoutMs),
		zap.Bool("randomMode", loaded.RandomMode))
	return loaded.clone()
}

// Save persists the current engine settings.
func (s *Store) Save() {
	s.mu.RLock()
	data, err := json.Marshal(s.current)
	s.mu.RUnlock()
	if err != nil {
		s.logger.Error("failed to encode settings", zap.Error(err))
		return
	}
	if err := s.kv.Set(EngineKey, string(data)); err != nil {
		s.logger.Error("failed to save settings", zap.Error(err))
	}
}

// Get returns a copy of the current engine settings.
func (s *Store) Get() Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.clone()
}

// Apply validates and merges p, then persists the result.
// An invalid patch leaves the settings untouched.
func (s *Store) Apply(p Patch) (Engine, error) {
	if err := p.Validate(); err != nil {
		return s.Get(), err
	}

	s.mu.Lock()
	s.current = p.Apply(s.current)
	updated := s.current.clone()
	s.mu.Unlock()

	s.Save()
	return updated, nil
}

// LoadModule returns the saved configuration for id merged over the schema defaults.
func (s *Store) LoadModule(id string, schema module.Schema) module.Config {
	saved := s.moduleMap()[id]
	return schema.Normalize(saved)
}

// SaveModule persists cfg for id, keeping the other modules' entries.
func (s *Store) SaveModule(id string, cfg module.Config) {
	all := s.moduleMap()
	all[id] = cfg

	data, err := json.Marshal(all)
	if err != nil {
		s.logger.Error("failed to encode module settings", zap.String("module", id), zap.Error(err))
		return
	}
	if err := s.kv.Set(ModuleKey, string(data)); err != nil {
		s.logger.Error("failed to save module settings", zap.String("module", id), zap.Error(err))
	}
}

func (s *Store) moduleMap() map[string]module.Config {
	all := make(map[string]module.Config)

	raw, ok, err := s.kv.Get(ModuleKey)
	if err != nil {
		s.logger.Warn("failed to read module settings", zap.Error(err))
		return all
	}
	if !ok {
		return all
	}
	if err := json.Unmarshal([]byte(raw), &all); err != nil {
		s.logger.Warn("corrupt module settings, ignoring", zap.Error(err))
		return make(map[string]module.Config)
	}
	return all
}
