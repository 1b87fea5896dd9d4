package providers

import (
	"fmt"
	"sync"
)

// Registry creates providers lazily from API keys and reuses them.
type Registry struct {
	keys map[string]string

	mu        sync.Mutex
	providers map[string]Provider
}

// NewRegistry creates a registry. keys maps provider names to API keys; the
// mock provider needs none. Preset providers are served under their names
// instead of being created from keys.
func NewRegistry(keys map[string]string, preset ...Provider) *Registry {
	r := &Registry{keys: keys, providers: make(map[string]Provider, len(preset))}
	for _, p := range preset {
		r.providers[p.Name()] = p
	}
	return r
}

// Get returns the provider for name, or ErrNoProvider when it is unknown or
// has no key.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.providers[name]; ok {
		return p, nil
	}

	var p Provider
	switch name {
	case Mock:
		p = NewMock()
	case Anthropic, OpenAI, Google:
		key := r.keys[name]
		if key == "" {
			return nil, fmt.Errorf("%w: %s has no API key (set %s)", ErrNoProvider, name, KeyEnv[name])
		}
		switch name {
		case Anthropic:
			p = NewAnthropic(key)
		case OpenAI:
			p = NewOpenAI(key)
		default:
			p = NewGoogle(key)
		}
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrNoProvider, name)
	}

	r.providers[name] = p
	return p, nil
}

// Available reports whether Get would succeed for name.
func (r *Registry) Available(name string) bool {
	_, err := r.Get(name)
	return err == nil
}
