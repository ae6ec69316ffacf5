// Package failover runs remote calls against a ranked pool of interchangeable
// endpoints, retrying each one and remembering the last endpoint that answered.
package failover

import (
	"slices"
	"sync"
)

// Pool is an ordered set of equivalent base URLs for one logical service.
// Exactly one endpoint is preferred at any time; it starts as the first
// configured endpoint and moves only when a call succeeds elsewhere.
type Pool struct {
	name      string
	endpoints []string

	mu        sync.Mutex
	preferred string
}

// NewPool creates a pool. It panics on an empty endpoint list.
func NewPool(name string, endpoints []string) *Pool {
	if len(endpoints) == 0 {
		panic("failover: pool " + name + " has no endpoints")
	}
	return &Pool{
		name:      name,
		endpoints: slices.Clone(endpoints),
		preferred: endpoints[0],
	}
}

// Name returns the pool name used in logs and metrics.
func (p *Pool) Name() string {
	return p.name
}

// Endpoints returns the configured endpoints in priority order.
func (p *Pool) Endpoints() []string {
	return slices.Clone(p.endpoints)
}

// Preferred returns the endpoint that will be tried first.
func (p *Pool) Preferred() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.preferred
}

// order returns the preferred endpoint followed by the rest in configured order.
func (p *Pool) order() []string {
	preferred := p.Preferred()
	out := make([]string, 0, len(p.endpoints))
	out = append(out, preferred)
	for _, e := range p.endpoints {
		if e != preferred {
			out = append(out, e)
		}
	}
	return out
}

// promote records endpoint as preferred. It reports whether the preference changed.
func (p *Pool) promote(endpoint string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.preferred == endpoint {
		return false
	}
	p.preferred = endpoint
	return true
}
