package filtering

import (
	"fmt"
	"path/filepath"

	"github.com/gobwas/glob"
)

// NameFilter handles code-based filtering using glob patterns
type NameFilter interface {
	// ShouldInclude determines if a source code should be included based on include/exclude patterns
	// Returns (shouldInclude bool, reason string)
	ShouldInclude(code string, include, exclude []string) (bool, string)
}

// defaultNameFilter implements code filtering using glob patterns
type defaultNameFilter struct{}

var _ NameFilter = (*defaultNameFilter)(nil)

// NewDefaultNameFilter creates a new defaultNameFilter
func NewDefaultNameFilter() NameFilter {
	return &defaultNameFilter{}
}

// matchPattern matches a glob pattern against a code, with '*' matching across slashes.
// filepath.Match is only used to reject malformed patterns.
func matchPattern(pattern, code string) (bool, error) {
	if _, err := filepath.Match(pattern, "test"); err != nil {
		return false, err
	}

	compiled, err := glob.Compile(pattern)
	if err != nil {
		return false, fmt.Errorf("invalid glob pattern: %v", err)
	}

	return compiled.Match(code), nil
}

// ShouldInclude determines if a source code should be included based on include/exclude patterns.
// Exclude patterns take precedence.
func (*defaultNameFilter) ShouldInclude(code string, include, exclude []string) (bool, string) {
	for _, pattern := range exclude {
		matches, err := matchPattern(pattern, code)
		if err != nil {
			return false, fmt.Sprintf("invalid exclude pattern '%s': %v", pattern, err)
		}
		if matches {
			return false, fmt.Sprintf("excluded by pattern '%s'", pattern)
		}
	}

	if len(include) > 0 {
		for _, pattern := range include {
			matches, err := matchPattern(pattern, code)
			if err != nil {
				return false, fmt.Sprintf("invalid include pattern '%s': %v", pattern, err)
			}
			if matches {
				return true, fmt.Sprintf("included by pattern '%s'", pattern)
			}
		}
		return false, fmt.Sprintf("no match found in include patterns %v", include)
	}

	if len(exclude) > 0 {
		return true, fmt.Sprintf("no match in exclude patterns %v", exclude)
	}
	return true, "no code filters specified"
}
