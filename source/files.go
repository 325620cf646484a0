package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrNoFiles is returned when no pattern matches a model file.
var ErrNoFiles = errors.New("no model files match")

// ResolveFiles expands glob patterns to model files, sorted and without
// duplicates. Supports both single-level wildcards (*) and recursive
// wildcards (**). A pattern without glob characters must name an existing
// file.
//
// Examples:
//   - "models/*.yaml" → ["models/a.yaml", "models/b.yaml"]
//   - "models/**/*.yaml" → every YAML file below models/
func ResolveFiles(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var resolved []string

	for _, pattern := range patterns {
		paths, err := resolvePattern(pattern)
		if err != nil {
			return nil, fmt.Errorf("resolve pattern %q: %w", pattern, err)
		}
		for _, p := range paths {
			if !seen[p] {
				seen[p] = true
				resolved = append(resolved, p)
			}
		}
	}

	if len(resolved) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFiles, strings.Join(patterns, ", "))
	}
	sort.Strings(resolved)
	return resolved, nil
}

func resolvePattern(pattern string) ([]string, error) {
	if !containsGlob(pattern) {
		abs, err := filepath.Abs(pattern)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			return nil, fmt.Errorf("path is a directory: %s", abs)
		}
		return []string{abs}, nil
	}

	// Use doublestar for ** support
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob error: %w", err)
	}

	var files []string
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		abs, err := filepath.Abs(match)
		if err != nil {
			return nil, err
		}
		files = append(files, abs)
	}
	return files, nil
}

// containsGlob checks if a pattern contains glob characters.
func containsGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// MatchAny reports whether path matches one of the patterns. Relative
// patterns are matched against the path made relative to the working
// directory.
func MatchAny(patterns []string, path string) bool {
	for _, pattern := range patterns {
		candidate := path
		if !filepath.IsAbs(pattern) {
			if cwd, err := os.Getwd(); err == nil {
				if rel, err := filepath.Rel(cwd, path); err == nil {
					candidate = rel
				}
			}
		}
		pattern = filepath.Clean(pattern)
		if !containsGlob(pattern) {
			if abs, err := filepath.Abs(pattern); err == nil && abs == path {
				return true
			}
			continue
		}
		if ok, err := doublestar.PathMatch(pattern, candidate); err == nil && ok {
			return true
		}
	}
	return false
}
