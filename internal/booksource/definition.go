// Package booksource holds book-source definitions and the process-wide
// registry the dispatch layer resolves them from.
//
// A definition is an opaque rule bundle for one content provider. This package
// only cares about two things inside it: the stable code used to look it up,
// and its canonical content, which feeds the registry fingerprint.
package booksource

import (
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/tailscale/hujson"
	"github.com/tidwall/gjson"
)

// Fields consulted, in order, when reading the code of a definition.
const (
	// CodeField is the explicit registry code of a definition.
	CodeField = "code"

	// URLField is the legado source URL, used as the code when no explicit code is set.
	URLField = "bookSourceUrl"
)

var codeFields = []string{CodeField, URLField}

// ErrNotObject is returned when a definition document is not a JSON object.
var ErrNotObject = errors.New("book source definition must be a JSON object")

// Definition is a single book-source definition.
type Definition struct {
	// Code is the stable registry key. It may be empty for inline definitions.
	Code string

	// Raw is the canonical JSON document: comments stripped, whitespace removed.
	Raw json.RawMessage
}

// NewDefinition canonicalizes raw and reads its code. The document may be
// JSON or HuJSON (JSON with comments and trailing commas).
func NewDefinition(raw []byte) (Definition, error) {
	canonical, err := Canonicalize(raw)
	if err != nil {
		return Definition{}, err
	}
	if !gjson.ParseBytes(canonical).IsObject() {
		return Definition{}, ErrNotObject
	}
	return Definition{Code: CodeOf(canonical), Raw: canonical}, nil
}

// MarshalJSON emits the definition document unchanged.
func (d Definition) MarshalJSON() ([]byte, error) {
	if len(d.Raw) == 0 {
		return []byte("null"), nil
	}
	return d.Raw, nil
}

// Name returns the human-readable source name, if the document carries one.
func (d Definition) Name() string {
	return gjson.GetBytes(d.Raw, "bookSourceName").String()
}

// Field returns the raw value of a top-level field of the definition.
func (d Definition) Field(path string) gjson.Result {
	return gjson.GetBytes(d.Raw, path)
}

// CodeOf reads the code of a definition document, or "" if it has none.
func CodeOf(raw []byte) string {
	for _, field := range codeFields {
		v := gjson.GetBytes(raw, field)
		if v.Type != gjson.String {
			continue
		}
		if code := strings.TrimSpace(v.Str); code != "" {
			return code
		}
	}
	return ""
}

// Canonicalize converts a JSON or HuJSON document into compact standard JSON.
func Canonicalize(raw []byte) ([]byte, error) {
	v, err := hujson.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse book source document: %w", err)
	}
	v.Standardize()
	v.Minimize()
	return v.Pack(), nil
}
