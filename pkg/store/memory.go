package store

import (
	"sync"

	"github.com/Xuanwo/ast-grep/pkg/types"
)

// MemoryStore implements Store using in-memory data structures.
// Useful for tests and for scans that report without persisting.
type MemoryStore struct {
	mu      sync.RWMutex
	records []types.RuleMatchRecord
}

// NewMemory creates a new in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{}
}

// AddRuleMatch stores one rule match record.
func (m *MemoryStore) AddRuleMatch(rec types.RuleMatchRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append(m.records, rec)
	return nil
}

// RuleMatches retrieves all stored records in insertion order.
func (m *MemoryStore) RuleMatches() ([]types.RuleMatchRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Return a copy to avoid external modifications
	result := make([]types.RuleMatchRecord, len(m.records))
	copy(result, m.records)
	return result, nil
}

// MatchesForFile retrieves the records of one file in insertion order.
func (m *MemoryStore) MatchesForFile(path string) ([]types.RuleMatchRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]types.RuleMatchRecord, 0)
	for _, rec := range m.records {
		if rec.File == path {
			result = append(result, rec)
		}
	}
	return result, nil
}

// Count reports how many records are stored.
func (m *MemoryStore) Count() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.records), nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}
