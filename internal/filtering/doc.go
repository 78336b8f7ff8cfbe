// Package filtering narrows a fetched source list to the sources a list's
// filter configuration selects.
//
// Two filters run on every definition and both must pass:
//
//   - NameFilter matches the source code against glob patterns. Codes are
//     usually URLs, so '*' matches across '/' as well.
//   - TagFilter matches the source's groups exactly. Groups come from the
//     bookSourceGroup field, split on commas and semicolons.
//
// Each filter follows the same precedence rules:
//
//  1. A match on any exclude entry excludes the source
//  2. A match on any include entry includes it
//  3. Include entries that do not match exclude it
//  4. With only exclude entries and no match, the source is included
//  5. With no entries at all, the source is included
//
// # Usage Example
//
//	service := NewDefaultFilterService()
//	filter := &config.FilterConfig{
//		Codes: &config.NameFilterConfig{
//			Exclude: []string{"https://*.example.com*"},
//		},
//		Groups: &config.TagFilterConfig{
//			Include: []string{"comics", "novels"},
//		},
//	}
//	kept, err := service.ApplyFilters(ctx, defs, filter)
package filtering
