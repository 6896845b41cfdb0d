// Package settings persists engine preferences and per-module configuration.
package settings

import (
	"errors"
	"fmt"
	"time"
)

const (
	// EngineKey is the store key holding the engine settings document.
	EngineKey = "past-midnight-settings"
	// ModuleKey is the store key holding the per-module configuration map.
	ModuleKey = "past-midnight-module-settings"

	// DefaultIdleTimeoutMs is the idle timeout used when none is persisted.
	DefaultIdleTimeoutMs int64 = 180000
)

// ErrInvalidTimeout is returned when a patch carries a non-positive idle timeout.
var ErrInvalidTimeout = errors.New("idle timeout must be positive")

// Engine holds the engine-wide preferences.
type Engine struct {
	Enabled          bool    `json:"enabled"`
	IdleTimeoutMs    int64   `json:"idleTimeout"`
	RandomMode       bool    `json:"randomMode"`
	SelectedModuleID *string `json:"selectedScreensaver"`
}

// Defaults returns the settings used before anything was saved.
func Defaults() Engine {
	return Engine{
		Enabled:       true,
		IdleTimeoutMs: DefaultIdleTimeoutMs,
	}
}

// IdleTimeout returns the timeout as a duration.
func (e Engine) IdleTimeout() time.Duration {
	return time.Duration(e.IdleTimeoutMs) * time.Millisecond
}

// Selected returns the selected module id, if any.
func (e Engine) Selected() (string, bool) {
	if e.SelectedModuleID == nil {
		return "", false
	}
	return *e.SelectedModuleID, true
}

func (e Engine) clone() Engine {
	if e.SelectedModuleID != nil {
		id := *e.SelectedModuleID
		e.SelectedModuleID = &id
	}
	return e
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Enabled          *bool
	IdleTimeoutMs    *int64
	RandomMode       *bool
	SelectedModuleID *string
	// ClearSelection removes the selected module. It wins over SelectedModuleID.
	ClearSelection bool
}

// Validate checks the fields the patch sets.
func (p Patch) Validate() error {
	if p.IdleTimeoutMs != nil && *p.IdleTimeoutMs <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTimeout, *p.IdleTimeoutMs)
	}
	return nil
}

// Apply returns e with the patch merged over it.
func (p Patch) Apply(e Engine) Engine {
	e = e.clone()
	if p.Enabled != nil {
		e.Enabled = *p.Enabled
	}
	if p.IdleTimeoutMs != nil {
		e.IdleTimeoutMs = *p.IdleTimeoutMs
	}
	if p.RandomMode != nil {
		e.RandomMode = *p.RandomMode
	}
	if p.SelectedModuleID != nil {
		id := *p.SelectedModuleID
		e.SelectedModuleID = &id
	}
	if p.ClearSelection {
		e.SelectedModuleID = nil
	}
	return e
}

// Ptr returns a pointer to v, for building patches.
func Ptr[T any](v T) *T {
	return &v
}
