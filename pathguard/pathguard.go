// Package pathguard validates untrusted filesystem paths against a base
// directory before any read or write happens.
//
// Every path a deckd tool receives from a client passes through Sanitize.
// Traversal sequences are resolved arithmetically (not by substring
// inspection) and symlinks are evaluated before the containment check, so a
// link pointing outside the base directory is rejected rather than followed.
package pathguard

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Result is the outcome of a successful Sanitize call. Path is absolute and
// symlink-resolved as far as the filesystem allows. InsideBase is false only
// for absolute paths accepted through the AllowAbsolute opt-in.
type Result struct {
	Path       string
	InsideBase bool
}

// InvalidPathError reports malformed input: empty strings, NUL bytes, or a
// base directory that cannot be resolved.
type InvalidPathError struct {
	Path   string
	Reason string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("pathguard: invalid path %q: %s", e.Path, e.Reason)
}

// TraversalError reports a path that resolves outside the base directory.
type TraversalError struct {
	Path     string
	Resolved string
	Base     string
}

func (e *TraversalError) Error() string {
	return fmt.Sprintf("pathguard: path traversal detected: %q resolves to %q outside base %q", e.Path, e.Resolved, e.Base)
}

type options struct {
	allowAbsolute bool
}

// Option adjusts Sanitize behavior.
type Option func(*options)

// AllowAbsolute accepts absolute input paths verbatim (resolved, no
// containment check). Callers opt in per call site; the default rejects
// absolute paths by reducing them to their final element inside the base.
func AllowAbsolute() Option {
	return func(o *options) {
		o.allowAbsolute = true
	}
}

// Sanitize resolves raw against base and verifies containment.
//
// Empty or NUL-carrying input fails with *InvalidPathError. An absolute raw
// path is returned verbatim (resolved) when AllowAbsolute is given; without
// the opt-in it is stripped to its final path element and treated as relative
// to base. Relative paths are joined to base, normalized, symlink-resolved on
// their longest existing ancestor, and checked to be equal to or nested under
// the resolved base; escapes fail with *TraversalError.
func Sanitize(raw, base string, opts ...Option) (Result, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if raw == "" {
		return Result{}, &InvalidPathError{Path: raw, Reason: "empty path"}
	}
	if strings.ContainsRune(raw, 0) {
		return Result{}, &InvalidPathError{Path: raw, Reason: "path contains NUL byte"}
	}

	if base == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return Result{}, &InvalidPathError{Path: raw, Reason: fmt.Sprintf("resolve working directory: %v", err)}
		}
		base = cwd
	}
	resolvedBase, err := resolveExisting(base)
	if err != nil {
		return Result{}, &InvalidPathError{Path: raw, Reason: fmt.Sprintf("resolve base %q: %v", base, err)}
	}

	if filepath.IsAbs(raw) {
		if o.allowAbsolute {
			resolved, err := resolveExisting(raw)
			if err != nil {
				return Result{}, &InvalidPathError{Path: raw, Reason: fmt.Sprintf("resolve: %v", err)}
			}
			return Result{Path: resolved, InsideBase: false}, nil
		}
		// Absolute without the opt-in: keep only the final element so the
		// caller still gets a usable location inside the base.
		raw = filepath.Base(raw)
	}

	joined := filepath.Join(resolvedBase, raw)
	resolved, err := resolveExisting(joined)
	if err != nil {
		return Result{}, &TraversalError{Path: raw, Resolved: joined, Base: resolvedBase}
	}

	if !contains(resolvedBase, resolved) {
		return Result{}, &TraversalError{Path: raw, Resolved: resolved, Base: resolvedBase}
	}
	return Result{Path: resolved, InsideBase: true}, nil
}

// contains reports whether p equals base or is nested under it.
func contains(base, p string) bool {
	rel, err := filepath.Rel(base, p)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// resolveExisting returns the absolute, symlink-resolved form of p. When p
// does not exist yet (the usual case for save targets), symlinks are
// evaluated on the longest existing ancestor and the remaining elements are
// re-appended unresolved.
func resolveExisting(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	abs = filepath.Clean(abs)

	remainder := ""
	dir := abs
	for {
		resolved, err := filepath.EvalSymlinks(dir)
		if err == nil {
			if remainder == "" {
				return resolved, nil
			}
			return filepath.Join(resolved, remainder), nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			// Walked to the root without finding an existing ancestor.
			return "", err
		}
		if remainder == "" {
			remainder = filepath.Base(dir)
		} else {
			remainder = filepath.Join(filepath.Base(dir), remainder)
		}
		dir = parent
	}
}
