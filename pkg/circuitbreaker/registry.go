package circuitbreaker

import (
	"sync"
)

// Registry manages breakers keyed by destination, created lazily.
type Registry struct {
	mu       sync.RWMutex
	breakers map[string]*Breaker
	config   Config
}

// NewRegistry creates a registry whose breakers share the given config.
func NewRegistry(cfg Config) *Registry {
	return &Registry{
		breakers: make(map[string]*Breaker),
		config:   cfg,
	}
}

// Get returns the breaker for key, creating one on first access.
func (r *Registry) Get(key string) *Breaker {
	r.mu.RLock()
	b, exists := r.breakers[key]
	r.mu.RUnlock()
	if exists {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b, exists = r.breakers[key]; exists {
		return b
	}
	b = New(r.config)
	r.breakers[key] = b
	return b
}

// Stats summarizes the registry's breakers.
type Stats struct {
	Total int
	Open  int
}

// Stats returns counts of total and currently open breakers.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Stats{Total: len(r.breakers)}
	for _, b := range r.breakers {
		if b.State() == Open {
			stats.Open++
		}
	}
	return stats
}
