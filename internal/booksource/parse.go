package booksource

import (
	"fmt"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// ParseList parses a source list document into definitions.
//
// The document is either an array of definitions or a single definition object.
// Entries that are not objects or carry no code are skipped with a warning.
func ParseList(data []byte) ([]Definition, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("source list cannot be empty")
	}

	canonical, err := Canonicalize(data)
	if err != nil {
		return nil, err
	}

	doc := gjson.ParseBytes(canonical)
	switch {
	case doc.IsObject():
		def, err := NewDefinition([]byte(doc.Raw))
		if err != nil {
			return nil, err
		}
		if def.Code == "" {
			return nil, fmt.Errorf("book source definition has no %s or %s", CodeField, URLField)
		}
		return []Definition{def}, nil
	case doc.IsArray():
	default:
		return nil, fmt.Errorf("source list must be a JSON array of definitions")
	}

	var (
		defs    []Definition
		index   int
		skipped int
	)
	doc.ForEach(func(_, value gjson.Result) bool {
		defer func() { index++ }()

		if !value.IsObject() {
			zap.S().Warnw("Skipping book source entry that is not an object", "index", index)
			skipped++
			return true
		}
		code := CodeOf([]byte(value.Raw))
		if code == "" {
			zap.S().Warnw("Skipping book source entry without a code", "index", index)
			skipped++
			return true
		}
		defs = append(defs, Definition{Code: code, Raw: []byte(value.Raw)})
		return true
	})

	if skipped > 0 {
		zap.S().Infow("Parsed book source list", "definitions", len(defs), "skipped", skipped)
	}
	return defs, nil
}
