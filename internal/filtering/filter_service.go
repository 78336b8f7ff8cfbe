package filtering

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/qianmo517/reader/internal/booksource"
	"github.com/qianmo517/reader/internal/config"
)

// GroupField is the definition field that lists a source's groups
const GroupField = "bookSourceGroup"

// FilterService coordinates code and group filtering of a source list
type FilterService interface {
	// ApplyFilters returns the definitions that pass filter, in their original order
	ApplyFilters(
		ctx context.Context,
		defs []booksource.Definition,
		filter *config.FilterConfig,
	) ([]booksource.Definition, error)
}

// defaultFilterService implements filtering coordination using name and tag filters
type defaultFilterService struct {
	nameFilter NameFilter
	tagFilter  TagFilter
}

// NewDefaultFilterService creates a new defaultFilterService with default filter implementations
func NewDefaultFilterService() FilterService {
	return &defaultFilterService{
		nameFilter: NewDefaultNameFilter(),
		tagFilter:  NewDefaultTagFilter(),
	}
}

// NewFilterService creates a new defaultFilterService with custom filter implementations
func NewFilterService(nameFilter NameFilter, tagFilter TagFilter) FilterService {
	return &defaultFilterService{
		nameFilter: nameFilter,
		tagFilter:  tagFilter,
	}
}

// ApplyFilters filters the definitions. A nil filter returns defs unchanged.
func (s *defaultFilterService) ApplyFilters(
	_ context.Context,
	defs []booksource.Definition,
	filter *config.FilterConfig,
) ([]booksource.Definition, error) {
	if filter == nil {
		return defs, nil
	}

	var codeInclude, codeExclude, groupInclude, groupExclude []string
	if filter.Codes != nil {
		codeInclude = filter.Codes.Include
		codeExclude = filter.Codes.Exclude
	}
	if filter.Groups != nil {
		groupInclude = filter.Groups.Include
		groupExclude = filter.Groups.Exclude
	}

	kept := make([]booksource.Definition, 0, len(defs))
	for _, def := range defs {
		groups := GroupsOf(def)
		included, reason := s.shouldInclude(def.Code, groups, codeInclude, codeExclude, groupInclude, groupExclude)
		if !included {
			zap.S().Debugw("Excluding book source", "code", def.Code, "groups", groups, "reason", reason)
			continue
		}
		kept = append(kept, def)
	}

	zap.S().Infow("Source list filtering completed",
		"included", len(kept),
		"excluded", len(defs)-len(kept))

	return kept, nil
}

// shouldInclude requires both the code and the group filter to pass
func (s *defaultFilterService) shouldInclude(
	code string,
	groups []string,
	codeInclude, codeExclude, groupInclude, groupExclude []string) (bool, string) {
	codeIncluded, codeReason := s.nameFilter.ShouldInclude(code, codeInclude, codeExclude)
	if !codeIncluded {
		return false, fmt.Sprintf("code filter: %s", codeReason)
	}

	groupIncluded, groupReason := s.tagFilter.ShouldInclude(groups, groupInclude, groupExclude)
	if !groupIncluded {
		return false, fmt.Sprintf("group filter: %s", groupReason)
	}

	return true, codeReason + "; " + groupReason
}

// GroupsOf returns the trimmed, non-empty groups of def
func GroupsOf(def booksource.Definition) []string {
	raw := def.Field(GroupField).String()
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == '，'
	})

	groups := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			groups = append(groups, p)
		}
	}
	return groups
}
