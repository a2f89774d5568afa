package enum

import (
	"context"
	"path/filepath"
	"sync"
)

// CombinedEnumerator runs multiple enumerators sequentially and deduplicates
// files by absolute path, so overlapping roots like "src src/app.js" yield
// each file at most once.
type CombinedEnumerator struct {
	enumerators []Enumerator
}

// NewCombinedEnumerator creates a CombinedEnumerator that wraps the provided
// enumerators. They are run in order and duplicate paths are suppressed.
func NewCombinedEnumerator(enumerators ...Enumerator) *CombinedEnumerator {
	return &CombinedEnumerator{enumerators: enumerators}
}

// Enumerate runs each child enumerator in sequence, passing unique files to
// callback. A file is a duplicate if its absolute path was already seen by a
// previous call across any enumerator in this combined set.
func (c *CombinedEnumerator) Enumerate(ctx context.Context, callback func(content []byte, path string) error) error {
	var mu sync.Mutex
	seen := make(map[string]bool)

	for _, e := range c.enumerators {
		err := e.Enumerate(ctx, func(content []byte, path string) error {
			key := path
			if abs, err := filepath.Abs(path); err == nil {
				key = abs
			}

			mu.Lock()
			if seen[key] {
				mu.Unlock()
				return nil
			}
			seen[key] = true
			mu.Unlock()

			return callback(content, path)
		})
		if err != nil {
			return err
		}
	}
	return nil
}
