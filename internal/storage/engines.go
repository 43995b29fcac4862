package storage

import (
	"sync"

	"github.com/memonize/memonize/internal/engine"
)

// EngineFactory builds a fresh engine for a user id.
type EngineFactory func(userID string) *engine.Engine

// EngineRegistry keeps one engine per user, created lazily. The delivery
// layer looks engines up per update; the registry guarantees each user
// gets a single long-lived instance.
type EngineRegistry struct {
	mu      sync.Mutex
	engines map[string]*engine.Engine
	factory EngineFactory
}

// NewEngineRegistry creates a registry backed by the given factory.
func NewEngineRegistry(factory EngineFactory) *EngineRegistry {
	return &EngineRegistry{
		engines: make(map[string]*engine.Engine),
		factory: factory,
	}
}

// Get returns the engine for userID, creating it on first use.
func (r *EngineRegistry) Get(userID string) *engine.Engine {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.engines[userID]; ok {
		return e
	}

	e := r.factory(userID)
	r.engines[userID] = e
	return e
}

// FlushAll pushes every engine's pending sync. Called on shutdown.
func (r *EngineRegistry) FlushAll() {
	r.mu.Lock()
	engines := make([]*engine.Engine, 0, len(r.engines))
	for _, e := range r.engines {
		engines = append(engines, e)
	}
	r.mu.Unlock()

	for _, e := range engines {
		e.Flush()
	}
}
