// Package module defines the contract every animated module implements and the
// instance runner that drives a module's frame loop.
package module

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingMetadata is returned when a module's metadata is absent or malformed.
	ErrMissingMetadata = errors.New("module metadata missing")
	// ErrUnimplementedRender is returned when a module has no render routine.
	ErrUnimplementedRender = errors.New("module does not implement RenderFrame")
	// ErrInstanceStopped is returned when starting an instance that was already stopped.
	ErrInstanceStopped = errors.New("module instance already stopped")
)

// Metadata describes a module. It is declared statically by each module and never mutated.
type Metadata struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Icon        string `json:"icon" yaml:"icon"`
	Author      string `json:"author" yaml:"author"`
	Year        int    `json:"year" yaml:"year"`
}

// Validate checks the fields the registry depends on.
func (m Metadata) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("%w: empty id", ErrMissingMetadata)
	}
	if strings.ContainsAny(m.ID, " \t\n") {
		return fmt.Errorf("%w: id %q contains whitespace", ErrMissingMetadata, m.ID)
	}
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: module %q has no name", ErrMissingMetadata, m.ID)
	}
	return nil
}
