package source

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"ArticleAugmenter/internal/domain"
	"ArticleAugmenter/internal/ports"
)

// ErrUnknownSource is returned when no source is registered under a name.
var ErrUnknownSource = errors.New("unknown article source")

// Registry keeps a mapping from source names to their implementations.
type Registry struct {
	sources map[string]ports.ArticleSource
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: map[string]ports.ArticleSource{}}
}

// Register adds or replaces a source implementation.
func (r *Registry) Register(src ports.ArticleSource) {
	if r.sources == nil {
		r.sources = map[string]ports.ArticleSource{}
	}
	r.sources[src.Name()] = src
}

// Resolve returns a source by name.
func (r *Registry) Resolve(name string) (ports.ArticleSource, error) {
	if src, ok := r.sources[name]; ok {
		return src, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownSource, name)
}

// Names lists registered sources in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fetch resolves name and loads articles for ref.
func (r *Registry) Fetch(ctx context.Context, name, ref string) ([]domain.Article, error) {
	src, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}
	articles, err := src.Fetch(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", name, err)
	}
	for i := range articles {
		if articles[i].Source == "" {
			articles[i].Source = name
		}
	}
	return articles, nil
}
