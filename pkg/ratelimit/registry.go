package ratelimit

import "sync"

// Registry holds one Limiter per named provider, lazily constructed
// from a per-provider default the first time it's asked for. It
// mirrors original_source/src/parallel/limiter.py's module-level
// LIMITERS dict plus its idempotent set_rate_limit_scaling(factor).
type Registry struct {
	mu          sync.Mutex
	limiters    map[string]*Limiter
	defaults    map[string]Defaults
	scaled      bool
	scaleFactor float64
}

// Defaults is a provider's un-scaled (maxTokens, refillRate) pair.
type Defaults struct {
	MaxTokens  float64
	RefillRate float64
}

func NewRegistry(defaults map[string]Defaults) *Registry {
	return &Registry{
		limiters: make(map[string]*Limiter, len(defaults)),
		defaults: defaults,
	}
}

// For returns the named provider's limiter, constructing it from its
// registered defaults on first use.
func (r *Registry) For(provider string) *Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.limiters[provider]; ok {
		return l
	}
	d, ok := r.defaults[provider]
	if !ok {
		d = Defaults{MaxTokens: 1, RefillRate: 1}
	}
	l := NewLimiter(d.MaxTokens, d.RefillRate)
	if r.scaled {
		l.Scale(r.scaleFactor)
	}
	r.limiters[provider] = l
	return l
}

// ScaleAll scales every currently-constructed limiter by factor, and
// is a no-op on subsequent calls: the Python original applies scaling
// exactly once per process (a _SCALED module flag) since it's set
// from a CLI flag parsed a single time at startup.
func (r *Registry) ScaleAll(factor float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scaled {
		return
	}
	r.scaled = true
	r.scaleFactor = factor
	for _, l := range r.limiters {
		l.Scale(factor)
	}
}
