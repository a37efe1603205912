package vector

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
)

// Manager hands out store handles keyed by location. Stores are opened once
// and cached; ingestion into one location is serialized through Lock so two
// concurrent ingests cannot race on the same existing-ID snapshot.
type Manager struct {
	logger *zap.Logger

	mu     sync.Mutex
	stores map[string]*entry
}

type entry struct {
	ingestMu sync.Mutex
	store    *Store
}

func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		logger: logger,
		stores: make(map[string]*entry),
	}
}

func (m *Manager) get(location string) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.stores[location]
	if !ok {
		e = &entry{}
		m.stores[location] = e
	}
	return e
}

// Open returns the store for a location, opening and caching it on first
// use. The embedding function is bound when the store is first opened; one
// location always belongs to one assistant, so it never changes.
func (m *Manager) Open(location string, embed EmbedFunc) (*Store, error) {
	e := m.get(location)

	m.mu.Lock()
	defer m.mu.Unlock()
	if e.store == nil {
		s, err := open(location, embed, m.logger)
		if err != nil {
			return nil, err
		}
		e.store = s
		m.logger.Info("opened vector store", zap.String("location", location), zap.Int("chunks", s.Count()))
	}
	return e.store, nil
}

// Lock takes the per-location ingestion lock and returns its release func.
func (m *Manager) Lock(location string) func() {
	e := m.get(location)
	e.ingestMu.Lock()
	return e.ingestMu.Unlock
}

// Reset irreversibly deletes the persisted index subtree for a location and
// drops the cached handle. Confirmation gating belongs to the caller.
func (m *Manager) Reset(location string) error {
	e := m.get(location)
	e.ingestMu.Lock()
	defer e.ingestMu.Unlock()

	m.mu.Lock()
	delete(m.stores, location)
	m.mu.Unlock()

	if err := os.RemoveAll(location); err != nil {
		return fmt.Errorf("removing store at %s: %w", location, err)
	}
	m.logger.Info("reset vector store", zap.String("location", location))
	return nil
}
