package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qianmo517/reader/internal/booksource"
)

// forbiddenLookup fails the test if the registry is consulted.
type forbiddenLookup struct {
	t *testing.T
}

func (f forbiddenLookup) Get(code string) (booksource.Definition, bool) {
	f.t.Errorf("registry consulted for %q", code)
	return booksource.Definition{}, false
}

func mustDefinition(t *testing.T, raw string) booksource.Definition {
	t.Helper()
	def, err := booksource.NewDefinition([]byte(raw))
	require.NoError(t, err)
	return def
}

func TestResolver_InlineNeverQueriesRegistry(t *testing.T) {
	t.Parallel()

	inline := mustDefinition(t, `{"code":"inline","bookSourceName":"Inline"}`)
	r := NewResolver(forbiddenLookup{t: t})

	got, err := r.Resolve(InlineSource(inline))
	require.NoError(t, err)
	assert.Equal(t, inline, got)
}

func TestResolver_ByCode(t *testing.T) {
	t.Parallel()

	reg := booksource.NewRegistry()
	_, err := reg.Replace([]booksource.Definition{mustDefinition(t, `{"code":"a","bookSourceName":"A"}`)})
	require.NoError(t, err)
	r := NewResolver(reg)

	got, err := r.Resolve(SourceByCode("a"))
	require.NoError(t, err)
	assert.Equal(t, "A", got.Name())

	_, err = r.Resolve(SourceByCode("missing"))
	require.Error(t, err)
	assert.Equal(t, KindUnknownSourceCode, KindOf(err))
	assert.Contains(t, err.Error(), "missing")
}

func TestResolver_MissingSource(t *testing.T) {
	t.Parallel()

	r := NewResolver(forbiddenLookup{t: t})
	_, err := r.Resolve(SourceRef{})
	require.Error(t, err)
	assert.Equal(t, KindMissingSource, KindOf(err))
}
