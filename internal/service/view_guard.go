package service

import "sync"

// ViewGuard implements latest-wins tracking for view loads. Each load for a
// scope (session + view) takes a generation before fetching; when a newer
// generation has started by the time the fetch resolves, the older result is
// discarded instead of overwriting the newer view.
type ViewGuard struct {
	mu   sync.Mutex
	gens map[string]uint64
}

// NewViewGuard builds an empty guard.
func NewViewGuard() *ViewGuard {
	return &ViewGuard{gens: make(map[string]uint64)}
}

// Begin registers a new load for the scope and returns its generation.
func (g *ViewGuard) Begin(scope string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gens[scope]++
	return g.gens[scope]
}

// Stale reports whether a newer load has started for the scope since gen.
func (g *ViewGuard) Stale(scope string, gen uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gens[scope] != gen
}
