package parser

import (
	"fmt"
	"strings"
)

// Registry holds all available loaders and provides auto-detection.
type Registry struct {
	loaders []Loader
}

// Global registry instance
var globalRegistry = NewRegistry()

// NewRegistry returns a registry holding the built-in xlsx and csv loaders.
func NewRegistry() *Registry {
	r := &Registry{}
	r.Register(NewXLSXLoader())
	r.Register(NewCSVLoader())
	return r
}

// GetGlobalRegistry returns the singleton registry.
func GetGlobalRegistry() *Registry {
	return globalRegistry
}

// Register adds a loader. Loaders are tried in registration order.
func (r *Registry) Register(l Loader) {
	r.loaders = append(r.loaders, l)
}

// FindLoader detects the correct loader for a file.
func (r *Registry) FindLoader(name string, head []byte) (Loader, error) {
	for _, l := range r.loaders {
		if l.CanLoad(name, head) {
			return l, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
}

// GetLoaderByName returns a loader by its name.
func (r *Registry) GetLoaderByName(name string) (Loader, error) {
	name = strings.ToLower(name)
	for _, l := range r.loaders {
		if strings.ToLower(l.Name()) == name {
			return l, nil
		}
	}
	return nil, fmt.Errorf("%w: no loader named %q", ErrUnsupportedFormat, name)
}
