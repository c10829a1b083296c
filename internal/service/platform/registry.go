package platform

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Registry holds the configured sources keyed by platform name.
type Registry struct {
	sources map[string]Source
	logger  *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		sources: make(map[string]Source),
		logger:  logger,
	}
}

func (r *Registry) Register(source Source) error {
	name := source.Platform()
	if _, exists := r.sources[name]; exists {
		return fmt.Errorf("source for platform %s already registered", name)
	}

	r.sources[name] = source
	r.logger.Info("Platform source registered", zap.String("platform", name))
	return nil
}

func (r *Registry) Get(name string) (Source, error) {
	source, exists := r.sources[name]
	if !exists {
		return nil, fmt.Errorf("source for platform %s not found", name)
	}
	return source, nil
}

// Sources returns the registered sources ordered by platform name.
func (r *Registry) Sources() []Source {
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)

	sources := make([]Source, 0, len(names))
	for _, name := range names {
		sources = append(sources, r.sources[name])
	}
	return sources
}
