package filtering

import (
	"fmt"
	"slices"
)

// TagFilter handles group-based filtering using exact string matching
type TagFilter interface {
	// ShouldInclude determines if a source with the given groups should be included
	// Returns (shouldInclude bool, reason string)
	ShouldInclude(groups []string, include, exclude []string) (bool, string)
}

// DefaultTagFilter implements group filtering using exact string matching
type DefaultTagFilter struct{}

// NewDefaultTagFilter creates a new DefaultTagFilter
func NewDefaultTagFilter() *DefaultTagFilter {
	return &DefaultTagFilter{}
}

// ShouldInclude determines if a source with the given groups should be included.
// Exclude groups take precedence.
func (*DefaultTagFilter) ShouldInclude(groups []string, include, exclude []string) (bool, string) {
	for _, group := range groups {
		if slices.Contains(exclude, group) {
			return false, fmt.Sprintf("excluded by group '%s'", group)
		}
	}

	if len(include) > 0 {
		for _, group := range groups {
			if slices.Contains(include, group) {
				return true, fmt.Sprintf("included by group '%s'", group)
			}
		}
		return false, fmt.Sprintf("no matching groups found in include list %v (source groups: %v)", include, groups)
	}

	if len(exclude) > 0 {
		return true, fmt.Sprintf("no matching groups in exclude list %v (source groups: %v)", exclude, groups)
	}
	return true, "no group filters specified"
}
