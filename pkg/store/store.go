// Package store persists rule matches so reports can be produced without
// re-running a scan.
package store

import (
	"fmt"

	"github.com/Xuanwo/ast-grep/pkg/types"
)

// Store provides persistence for scan results.
// Implementations are safe for concurrent writers; the scan pipeline calls
// AddRuleMatch from parallel enumeration callbacks.
type Store interface {
	// AddRuleMatch stores one rule match record.
	AddRuleMatch(rec types.RuleMatchRecord) error

	// RuleMatches retrieves all stored records in insertion order.
	RuleMatches() ([]types.RuleMatchRecord, error)

	// MatchesForFile retrieves the records of one file in insertion order.
	MatchesForFile(path string) ([]types.RuleMatchRecord, error)

	// Count reports how many records are stored.
	Count() (int, error)

	// Close releases the backing resources.
	Close() error
}

// Config for store initialization.
type Config struct {
	// Path is the database file path.
	// Use ":memory:" for an in-memory database (useful for testing).
	Path string
}

// New creates a SQLite-backed Store.
func New(cfg Config) (Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return NewSQLite(cfg.Path)
}
