package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrModuleNotFound matches every *ModuleNotFoundError.
	ErrModuleNotFound = errors.New("module not found")
	// ErrAlreadyInitialized is returned by a second Initialize call.
	ErrAlreadyInitialized = errors.New("engine already initialized")
	// ErrNotInitialized is returned when activation is requested before Initialize.
	ErrNotInitialized = errors.New("engine not initialized")
	// ErrDestroyed is returned by operations on a destroyed engine.
	ErrDestroyed = errors.New("engine destroyed")
	// ErrStartSuperseded is returned by a Start issued while another Start is stopping the
	// active module. The outer Start wins.
	ErrStartSuperseded = errors.New("start superseded by a pending start")
)

// ModuleNotFoundError reports a selection that resolved to an unregistered id.
// ID is empty when no module is registered at all.
type ModuleNotFoundError struct {
	ID string
}

func (e *ModuleNotFoundError) Error() string {
	if e.ID == "" {
		return "module not found: no modules registered"
	}
	return fmt.Sprintf("module not found: %q", e.ID)
}

// Unwrap returns ErrModuleNotFound.
func (e *ModuleNotFoundError) Unwrap() error {
	return ErrModuleNotFound
}
