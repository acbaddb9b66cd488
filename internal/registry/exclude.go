package registry

import (
	"path/filepath"
	"strings"
)

// Excluded reports whether a relative path should be skipped during a scan.
//
// Patterns are globs matched against the relative path and its base name.
// A pattern of the form "dir/**" excludes everything under dir; a bare
// directory name excludes any directory with that name at any depth.
func Excluded(relPath, base string, patterns []string) bool {
	relPath = filepath.ToSlash(relPath)

	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)

		if trimmed, ok := strings.CutSuffix(pattern, "/**"); ok {
			if relPath == trimmed || strings.HasPrefix(relPath, trimmed+"/") {
				return true
			}
			continue
		}

		if matched, _ := filepath.Match(pattern, relPath); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}
