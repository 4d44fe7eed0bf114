// Package sandbox resolves untrusted, client-supplied relative paths against a
// content root and derives filesystem-safe asset keys from them.
package sandbox

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// ErrForbidden indicates the requested path escapes the root.
	ErrForbidden = errors.New("path escapes content root")

	// ErrNotFound indicates the requested path (or one of its components) could not be canonicalized.
	ErrNotFound = errors.New("path not found")
)

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// KeyFor derives the asset key for a relative path. Every run of characters outside
// [A-Za-z0-9_.-] becomes a single underscore. Distinct paths may collide.
func KeyFor(relPath string) string {
	return unsafeKeyChars.ReplaceAllString(relPath, "_")
}

// ValidKey reports whether key could have been produced by KeyFor and is usable
// as a single directory name ("." and ".." are not).
func ValidKey(key string) bool {
	if key == "" || key == "." || key == ".." {
		return false
	}
	return !unsafeKeyChars.MatchString(key)
}

// Resolver maps relative paths onto files under a canonical root directory.
type Resolver struct {
	root string
}

// New canonicalizes root (absolute, symlinks evaluated) and returns a Resolver for it.
func New(root string) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", root, err)
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize root %s: %w", abs, err)
	}
	return &Resolver{root: canonical}, nil
}

// Root returns the canonical root directory.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve joins relPath onto the root and returns the canonical absolute path.
// Lexical escapes ("..") and symlinks pointing outside the root yield ErrForbidden;
// any canonicalization failure yields ErrNotFound.
func (r *Resolver) Resolve(relPath string) (string, error) {
	joined := filepath.Join(r.root, filepath.FromSlash(relPath))
	if !Contains(r.root, joined) {
		return "", fmt.Errorf("%w: %s", ErrForbidden, relPath)
	}

	canonical, err := filepath.EvalSymlinks(joined)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return "", fmt.Errorf("%w: %s: permission denied", ErrNotFound, relPath)
		}
		return "", fmt.Errorf("%w: %s", ErrNotFound, relPath)
	}

	if !Contains(r.root, canonical) {
		return "", fmt.Errorf("%w: %s", ErrForbidden, relPath)
	}
	return canonical, nil
}

// Rel returns the slash-separated path of abs relative to the root ("" for the root itself).
func (r *Resolver) Rel(abs string) (string, error) {
	rel, err := filepath.Rel(r.root, abs)
	if err != nil {
		return "", err
	}
	if rel == "." {
		return "", nil
	}
	return filepath.ToSlash(rel), nil
}

// Contains reports whether path equals root or lies beneath it. Both are compared
// component-wise after cleaning, so "/video2" is not inside "/video".
func Contains(root, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	if filepath.IsAbs(rel) {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
