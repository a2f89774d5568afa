// Package enum discovers source files to search.
//
// Enumerators feed file content to a callback. Callbacks may be invoked
// from multiple goroutines; callers that aggregate must synchronize, and
// the printer layer already does.
package enum

import (
	"context"
	"slices"

	"github.com/Xuanwo/ast-grep/pkg/lang"
)

// Enumerator discovers files to search from a source.
type Enumerator interface {
	// Enumerate yields file content and the path it came from.
	Enumerate(ctx context.Context, callback func(content []byte, path string) error) error
}

// Config for enumeration.
type Config struct {
	// Root is the starting path: a directory to walk or a single file.
	Root string

	// Languages restricts enumeration to files of the given languages.
	// Empty means every file whose extension maps to a known language.
	Languages []lang.Language

	// IncludeHidden includes hidden files/directories (starting with .).
	IncludeHidden bool

	// MaxFileSize is the maximum file size to process (0 = no limit).
	MaxFileSize int64

	// FollowSymlinks follows symbolic links.
	FollowSymlinks bool

	// Workers bounds parallel file reads (0 = number of CPUs).
	Workers int
}

// wantsPath reports whether a file is searchable under the config: its
// extension must map to a known language, and to a requested one when the
// config restricts languages.
func (c Config) wantsPath(path string) bool {
	l, ok := lang.FromPath(path)
	if !ok {
		return false
	}
	return len(c.Languages) == 0 || slices.Contains(c.Languages, l)
}
