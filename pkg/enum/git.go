package enum

import (
	"context"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GitEnumerator enumerates files from a git commit tree, so a search covers
// exactly what is committed rather than what sits in the working copy.
type GitEnumerator struct {
	config Config
	// CommitRef optionally specifies the commit to enumerate (defaults to HEAD)
	CommitRef string
}

// NewGitEnumerator creates a new git enumerator.
func NewGitEnumerator(config Config) *GitEnumerator {
	return &GitEnumerator{
		config:    config,
		CommitRef: "HEAD",
	}
}

// Enumerate walks the commit tree and yields file contents. When the git
// binary is on PATH, blobs stream through git cat-file, which skips go-git's
// per-object open cost on large trees; otherwise go-git reads the tree
// directly.
func (e *GitEnumerator) Enumerate(ctx context.Context, callback func(content []byte, path string) error) error {
	if gitBinaryAvailable() {
		return e.enumerateTreeNative(ctx, callback)
	}
	return e.enumerateTree(ctx, callback)
}

// enumerateTree walks the commit tree with go-git.
func (e *GitEnumerator) enumerateTree(ctx context.Context, callback func(content []byte, path string) error) error {
	repo, err := git.PlainOpen(e.config.Root)
	if err != nil {
		return fmt.Errorf("failed to open git repository: %w", err)
	}

	ref, err := repo.ResolveRevision(plumbing.Revision(e.CommitRef))
	if err != nil {
		return fmt.Errorf("failed to resolve ref %s: %w", e.CommitRef, err)
	}

	commit, err := repo.CommitObject(*ref)
	if err != nil {
		return fmt.Errorf("failed to get commit: %w", err)
	}

	tree, err := commit.Tree()
	if err != nil {
		return fmt.Errorf("failed to get tree: %w", err)
	}

	err = tree.Files().ForEach(func(f *object.File) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !e.config.wantsPath(f.Name) {
			return nil
		}

		if e.config.MaxFileSize > 0 && f.Size > e.config.MaxFileSize {
			return nil
		}

		content, err := f.Contents()
		if err != nil {
			return fmt.Errorf("failed to get contents of %s: %w", f.Name, err)
		}

		if isBinary([]byte(content)) {
			return nil
		}

		return callback([]byte(content), f.Name)
	})

	if err != nil {
		return fmt.Errorf("failed to walk tree: %w", err)
	}

	return nil
}
