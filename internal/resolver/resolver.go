// Package resolver turns input paths and filename patterns into the
// ordered set of source files for a conversion batch.
package resolver

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Options configures file resolution.
type Options struct {
	// Patterns are filename globs (e.g. "*.nc"). A file matches when
	// any pattern matches its base name. Explicitly listed files are
	// matched unconditionally.
	Patterns []string
	// Recursive enables descent into subdirectories.
	Recursive bool
	// MaxDepth limits recursion depth (0 = unlimited, 1 = the input
	// directory itself only).
	MaxDepth int
}

// Result contains the outcome of resolving one input path.
type Result struct {
	// Root is the cleaned absolute input path.
	Root string
	// IsDir reports whether Root is a directory.
	IsDir bool
	// Files contains the absolute paths of all matched files, sorted
	// and de-duplicated. Empty is not an error.
	Files []string
	// Errors contains non-fatal errors encountered while walking.
	Errors []error
}

// Resolve resolves a single input path. A nonexistent path is a
// configuration error and aborts the invocation; everything below the
// root is handled tolerantly.
//
// Symlinked directories are never descended into, which keeps the
// traversal finite even when links form cycles.
func Resolve(path string, opts Options) (*Result, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("input path %s: %w", path, err)
	}

	result := &Result{Root: abs, IsDir: info.IsDir()}

	if !info.IsDir() {
		result.Files = []string{abs}
		return result, nil
	}

	for i, p := range opts.Patterns {
		if _, err := filepath.Match(p, "x"); err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", opts.Patterns[i], err)
		}
	}

	seen := make(map[string]bool)
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("error accessing %s: %w", path, err))
			return nil // continue walking
		}
		if path == abs {
			return nil
		}

		if d.IsDir() {
			if !opts.Recursive {
				return filepath.SkipDir
			}
			if opts.MaxDepth > 0 {
				relPath, _ := filepath.Rel(abs, path)
				depth := strings.Count(relPath, string(filepath.Separator)) + 1
				if depth >= opts.MaxDepth {
					return filepath.SkipDir
				}
			}
			return nil
		}

		// WalkDir reports but never follows symlinks; a symlink to a
		// directory therefore shows up here and must not be entered.
		if d.Type()&fs.ModeSymlink != 0 {
			target, err := os.Stat(path)
			if err != nil || target.IsDir() {
				return nil
			}
		}

		if !matchAny(opts.Patterns, d.Name()) {
			return nil
		}
		if !seen[path] {
			seen[path] = true
			result.Files = append(result.Files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", abs, err)
	}

	sort.Strings(result.Files)
	return result, nil
}

// ResolveAll resolves every input path in order, returning one Result
// per path. The first configuration error aborts the whole resolution.
func ResolveAll(paths []string, opts Options) ([]*Result, error) {
	results := make([]*Result, 0, len(paths))
	for _, p := range paths {
		r, err := Resolve(p, opts)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
	}
	return false
}
