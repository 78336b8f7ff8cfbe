package dispatch

import (
	"github.com/qianmo517/reader/internal/booksource"
)

// Lookup finds registered definitions by code. *booksource.Registry
// implements it.
type Lookup interface {
	Get(code string) (booksource.Definition, bool)
}

// Resolver turns a SourceRef into a concrete definition.
type Resolver struct {
	registry Lookup
}

// NewResolver creates a resolver backed by registry.
func NewResolver(registry Lookup) *Resolver {
	return &Resolver{registry: registry}
}

// Resolve returns the definition ref points at. An inline definition is used
// verbatim and the registry is not consulted.
func (r *Resolver) Resolve(ref SourceRef) (booksource.Definition, error) {
	switch ref.Kind() {
	case SourceInline:
		def, _ := ref.Inline()
		return def, nil
	case SourceCode:
		code, _ := ref.Code()
		def, ok := r.registry.Get(code)
		if !ok {
			return booksource.Definition{}, NewError(KindUnknownSourceCode, nil, "unknown book source code %q", code)
		}
		return def, nil
	default:
		return booksource.Definition{}, NewError(KindMissingSource, nil,
			"request must carry %s or %s", FieldBookSource, FieldBookSourceCode)
	}
}
