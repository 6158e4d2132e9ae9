package social

import "fmt"

// Registry holds the resolvers configured at startup, keyed by provider.
// It is read-only after construction.
type Registry struct {
	resolvers map[Provider]Resolver
}

// NewRegistry registers resolvers by their Provider. A later resolver for the
// same provider replaces an earlier one.
func NewRegistry(list ...Resolver) *Registry {
	m := make(map[Provider]Resolver, len(list))
	for _, r := range list {
		m[r.Provider()] = r
	}
	return &Registry{resolvers: m}
}

// Resolver returns the resolver for p. Unknown providers yield
// ErrUnsupportedProvider; known but unconfigured ones ErrResolverNotRegistered.
func (r *Registry) Resolver(p Provider) (Resolver, error) {
	if !p.Known() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, string(p))
	}
	res, ok := r.resolvers[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrResolverNotRegistered, p)
	}
	return res, nil
}

// Registered returns the providers that have a resolver.
func (r *Registry) Registered() []Provider {
	out := make([]Provider, 0, len(r.resolvers))
	for _, p := range Providers {
		if _, ok := r.resolvers[p]; ok {
			out = append(out, p)
		}
	}
	return out
}
