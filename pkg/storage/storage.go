// Package storage provides the key-value stores settings are persisted in.
package storage

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Veraticus/past-midnight/pkg/interfaces"
	"github.com/Veraticus/past-midnight/pkg/logging"
)

// Backend names a store implementation.
type Backend string

const (
	// BackendMemory keeps values for the life of the process.
	BackendMemory Backend = "memory"
	// BackendFile keeps values in a JSON document.
	BackendFile Backend = "file"
	// BackendSQLite keeps values in a SQLite settings table.
	BackendSQLite Backend = "sqlite"
)

var (
	// ErrUnknownBackend is returned by Open for an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown storage backend")
	// ErrCorrupt is returned by OpenFile and OpenSQLite when the existing data cannot be read.
	ErrCorrupt = errors.New("store is corrupt")
)

// Store is an interfaces.Store that holds resources until closed.
type Store interface {
	interfaces.Store
	Close() error
}

// Open creates the store for backend. path is ignored by the memory backend.
// A corrupt file or database is renamed aside and replaced by an empty store. If that also
// fails, Open falls back to a memory store so settings still work for the session.
func Open(backend Backend, path string, logger *zap.Logger) (Store, error) {
	logger = logging.OrNop(logger).Named("storage")

	var open func(string) (Store, error)
	switch backend {
	case BackendMemory, "":
		return NewMemory(), nil
	case BackendFile:
		open = func(p string) (Store, error) { return OpenFile(p) }
	case BackendSQLite:
		open = func(p string) (Store, error) { return OpenSQLite(p) }
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}

	s, err := open(path)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, ErrCorrupt) {
		return nil, err
	}

	aside := fmt.Sprintf("%s.corrupt-%d", path, time.Now().Unix())
	logger.Warn("settings store is corrupt, moving it aside",
		zap.String("backend", string(backend)),
		zap.String("path", path),
		zap.String("moved_to", aside),
		zap.Error(err))

	if rerr := os.Rename(path, aside); rerr != nil {
		logger.Error("failed to move corrupt store, using memory store", zap.String("path", path), zap.Error(rerr))
		return NewMemory(), nil
	}
	s, err = open(path)
	if err != nil {
		logger.Error("failed to recreate store, using memory store", zap.String("path", path), zap.Error(err))
		return NewMemory(), nil
	}
	return s, nil
}
