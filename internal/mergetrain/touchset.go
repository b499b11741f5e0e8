package mergetrain

import "path/filepath"

// ValidateTouchSet diffs changedFiles against patterns using standard shell
// glob semantics (filepath.Match), the dialect spec.md §9 directs
// implementations to document explicitly since no third-party glob library
// is wired for this concern (see DESIGN.md). It returns the files that
// matched no pattern; an empty touch-set (patterns == nil) always passes.
func ValidateTouchSet(changedFiles, patterns []string) (violations []string) {
	if len(patterns) == 0 {
		return nil
	}
	for _, f := range changedFiles {
		matched := false
		for _, p := range patterns {
			if ok, _ := filepath.Match(p, f); ok {
				matched = true
				break
			}
			// filepath.Match does not treat "/" specially across "**"; fall
			// back to a per-directory-component match so patterns like
			// "src/**" behave like the common shell-glob convention.
			if globMatchPath(p, f) {
				matched = true
				break
			}
		}
		if !matched {
			violations = append(violations, f)
		}
	}
	return violations
}

// globMatchPath supports a trailing "/**" suffix meaning "this directory
// and everything under it", since filepath.Match alone does not cross "/"
// boundaries.
func globMatchPath(pattern, path string) bool {
	const suffix = "/**"
	if len(pattern) > len(suffix) && pattern[len(pattern)-len(suffix):] == suffix {
		prefix := pattern[:len(pattern)-len(suffix)]
		if len(path) >= len(prefix) && path[:len(prefix)] == prefix {
			if len(path) == len(prefix) || path[len(prefix)] == '/' {
				return true
			}
		}
	}
	return false
}
