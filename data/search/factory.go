package search

import (
	"sort"
	"sync"

	"github.com/ncobase/revsearch/config"
	"github.com/pkg/errors"
)

// ClientFactory creates a Client from connection settings
type ClientFactory func(cfg *config.Search) (Client, error)

var (
	// Registry of client factories by engine type
	clientFactories   = make(map[Engine]ClientFactory)
	clientFactoriesMu sync.RWMutex
)

// RegisterClientFactory registers a factory for creating engine clients.
// This is called by engine packages in their init() functions.
func RegisterClientFactory(engine Engine, factory ClientFactory) {
	clientFactoriesMu.Lock()
	defer clientFactoriesMu.Unlock()
	if factory == nil {
		panic("search: RegisterClientFactory factory is nil")
	}
	clientFactories[engine] = factory
}

// GetClientFactory returns the factory for a given engine
func GetClientFactory(engine Engine) (ClientFactory, error) {
	clientFactoriesMu.RLock()
	defer clientFactoriesMu.RUnlock()
	factory, ok := clientFactories[engine]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownEngine, "no client registered for %q", engine)
	}
	return factory, nil
}

// GetRegisteredEngines returns the sorted list of engines with registered factories
func GetRegisteredEngines() []Engine {
	clientFactoriesMu.RLock()
	defer clientFactoriesMu.RUnlock()
	engines := make([]Engine, 0, len(clientFactories))
	for engine := range clientFactories {
		engines = append(engines, engine)
	}
	sort.Slice(engines, func(i, j int) bool { return engines[i] < engines[j] })
	return engines
}

// NewClient builds a client for cfg.Engine.
func NewClient(cfg *config.Search) (Client, error) {
	if cfg == nil {
		return nil, errors.New("search: nil connection config")
	}
	factory, err := GetClientFactory(Engine(cfg.Engine))
	if err != nil {
		return nil, err
	}
	return factory(cfg)
}
