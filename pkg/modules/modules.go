// Package modules contains the animations shipped with past-midnight.
package modules

import (
	"errors"

	"github.com/Veraticus/past-midnight/pkg/module"
)

// Entry describes one bundled module.
type Entry struct {
	Metadata module.Metadata
	Options  module.Schema
	Factory  module.Factory
}

// Registrar accepts module registrations.
type Registrar interface {
	Register(md module.Metadata, options module.Schema, factory module.Factory) error
}

// All returns the bundled modules in gallery order.
func All() []Entry {
	return []Entry{
		{Metadata: StarryNightMetadata, Options: StarryNightOptions, Factory: NewStarryNight},
		{Metadata: MatrixMetadata, Options: MatrixOptions, Factory: NewMatrix},
		{Metadata: BouncingLogoMetadata, Factory: NewBouncingLogo},
		{Metadata: MystifyMetadata, Options: MystifyOptions, Factory: NewMystify},
	}
}

// RegisterAll registers every bundled module with r. Registration continues past failures;
// the returned error joins all of them.
func RegisterAll(r Registrar) error {
	var errs []error
	for _, e := range All() {
		if err := r.Register(e.Metadata, e.Options, e.Factory); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
