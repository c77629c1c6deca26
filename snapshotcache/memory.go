package snapshotcache

import (
	"context"
	"sync"

	"news-pulse/models"
)

// MemoryStore keeps snapshots in process.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]models.FeedSnapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]models.FeedSnapshot)}
}

func (m *MemoryStore) Put(_ context.Context, key string, snap models.FeedSnapshot) error {
	clusters := make([]models.StoryCluster, len(snap.Clusters))
	copy(clusters, snap.Clusters)
	snap.Clusters = clusters

	m.mu.Lock()
	m.entries[key] = snap
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Load(_ context.Context, key string) (models.FeedSnapshot, bool, error) {
	m.mu.RLock()
	snap, ok := m.entries[key]
	m.mu.RUnlock()
	return snap, ok, nil
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
