package dispatch

import (
	"math"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"

	"github.com/qianmo517/reader/internal/booksource"
)

// OperationKind names one of the operations a book source supports.
type OperationKind string

// Operation kinds
const (
	OpSearch         OperationKind = "search"
	OpExplore        OperationKind = "explore"
	OpGetBookInfo    OperationKind = "getBookInfo"
	OpGetChapterList OperationKind = "getChapterList"
	OpGetContent     OperationKind = "getContent"
)

// OperationKinds lists every operation kind, in route order.
var OperationKinds = []OperationKind{OpSearch, OpExplore, OpGetBookInfo, OpGetChapterList, OpGetContent}

// Valid reports whether k is a known operation kind.
func (k OperationKind) Valid() bool {
	for _, known := range OperationKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Request body fields.
const (
	FieldBookSource     = "bookSource"
	FieldBookSourceCode = "bookSourceCode"
	FieldKey            = "key"
	FieldPage           = "page"
	FieldRuleFindURL    = "ruleFindUrl"
	FieldSearchBook     = "searchBook"
	FieldBook           = "book"
	FieldBookChapter    = "bookChapter"
)

// SourceKind tells which variant a SourceRef holds.
type SourceKind int

// Source reference variants
const (
	SourceNone SourceKind = iota
	SourceInline
	SourceCode
)

// SourceRef identifies the definition a request runs against: either an
// inline definition carried by the request, or a registry code. At most one
// variant is ever set.
type SourceRef struct {
	kind   SourceKind
	inline booksource.Definition
	code   string
}

// InlineSource references a definition carried by the request itself.
func InlineSource(def booksource.Definition) SourceRef {
	return SourceRef{kind: SourceInline, inline: def}
}

// SourceByCode references a registry entry.
func SourceByCode(code string) SourceRef {
	return SourceRef{kind: SourceCode, code: code}
}

// Kind returns the variant held by r.
func (r SourceRef) Kind() SourceKind {
	return r.kind
}

// Inline returns the inline definition, if r holds one.
func (r SourceRef) Inline() (booksource.Definition, bool) {
	return r.inline, r.kind == SourceInline
}

// Code returns the registry code, if r holds one.
func (r SourceRef) Code() (string, bool) {
	return r.code, r.kind == SourceCode
}

// String describes r for logs and span attributes.
func (r SourceRef) String() string {
	switch r.kind {
	case SourceInline:
		return "inline"
	case SourceCode:
		return "code:" + r.code
	default:
		return "none"
	}
}

// Request is a decoded operation request.
type Request struct {
	Kind   OperationKind
	Source SourceRef
	Params Params
}

// DecodeRequest decodes a request body for the given operation. The body must
// be a single JSON object. An inline bookSource wins over bookSourceCode; the
// two are never merged.
func DecodeRequest(kind OperationKind, body []byte) (Request, error) {
	if !kind.Valid() {
		return Request{}, badRequest("unknown operation %q", kind)
	}
	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
		return Request{}, badRequest("request body must be a JSON object")
	}

	var params Params
	if err := json.Unmarshal(body, &params); err != nil {
		return Request{}, NewError(KindBadRequest, err, "request body must be a JSON object")
	}

	source, err := decodeSourceRef(params)
	if err != nil {
		return Request{}, err
	}
	return Request{Kind: kind, Source: source, Params: params}, nil
}

func decodeSourceRef(params Params) (SourceRef, error) {
	if raw, ok := params.lookup(FieldBookSource); ok {
		if !raw.IsObject() {
			return SourceRef{}, badRequest("%s must be a JSON object", FieldBookSource)
		}
		def, err := booksource.NewDefinition([]byte(raw.Raw))
		if err != nil {
			return SourceRef{}, NewError(KindBadRequest, err, "%s is not a valid definition", FieldBookSource)
		}
		return InlineSource(def), nil
	}

	code, err := params.String(FieldBookSourceCode)
	if err != nil {
		return SourceRef{}, err
	}
	if code = strings.TrimSpace(code); code != "" {
		return SourceByCode(code), nil
	}
	return SourceRef{}, nil
}

// Params holds the raw fields of a request body.
type Params map[string]json.RawMessage

// lookup returns the field, treating an explicit null as absent.
func (p Params) lookup(name string) (gjson.Result, bool) {
	raw, ok := p[name]
	if !ok {
		return gjson.Result{}, false
	}
	v := gjson.ParseBytes(raw)
	if v.Type == gjson.Null {
		return gjson.Result{}, false
	}
	return v, true
}

// Has reports whether the field is present and not null.
func (p Params) Has(name string) bool {
	_, ok := p.lookup(name)
	return ok
}

// String returns a string field, or "" if it is absent.
func (p Params) String(name string) (string, error) {
	v, ok := p.lookup(name)
	if !ok {
		return "", nil
	}
	if v.Type != gjson.String {
		return "", badRequest("%s must be a string", name)
	}
	return v.Str, nil
}

// Page returns a page number. Absent, zero and negative pages are page 1.
func (p Params) Page(name string) (int, error) {
	v, ok := p.lookup(name)
	if !ok {
		return 1, nil
	}
	if v.Type != gjson.Number {
		return 0, badRequest("%s must be an integer", name)
	}
	f := v.Float()
	if f != math.Trunc(f) {
		return 0, badRequest("%s must be an integer", name)
	}
	switch {
	case f < 1:
		return 1, nil
	case f > math.MaxInt32:
		return 0, badRequest("%s is out of range", name)
	}
	return int(f), nil
}

// Object decodes an object field into out. It reports false, without error,
// if the field is absent.
func (p Params) Object(name string, out any) (bool, error) {
	v, ok := p.lookup(name)
	if !ok {
		return false, nil
	}
	if !v.IsObject() {
		return false, badRequest("%s must be a JSON object", name)
	}
	if err := json.Unmarshal([]byte(v.Raw), out); err != nil {
		return false, NewError(KindBadRequest, err, "%s is malformed", name)
	}
	return true, nil
}

// NormalizePage maps non-positive pages to the first page.
func NormalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}
